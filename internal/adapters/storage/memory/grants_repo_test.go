package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"nutrikid-care-access/internal/domain/grants"
)

func pendingGrant(id, clinicianID, guardianID string, profileID *string) grants.Grant {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	return grants.Grant{
		ID:          id,
		ClinicianID: clinicianID,
		GuardianID:  guardianID,
		ProfileID:   profileID,
		Status:      grants.StatusPending,
		RequestedAt: now,
		UpdatedAt:   now,
	}
}

func TestGrantRepo_Create_EnforcesOpenRequestUniqueness(t *testing.T) {
	repo := NewGrantRepo()
	ctx := context.Background()

	if err := repo.Create(ctx, pendingGrant("g1", "clin-1", "guard-1", nil)); err != nil {
		t.Fatalf("Create #1 error: %v", err)
	}
	err := repo.Create(ctx, pendingGrant("g2", "clin-1", "guard-1", nil))
	if !errors.Is(err, grants.ErrRepoDuplicate) {
		t.Fatalf("expected ErrRepoDuplicate, got %v", err)
	}

	// otro guardián no choca
	if err := repo.Create(ctx, pendingGrant("g3", "clin-1", "guard-2", nil)); err != nil {
		t.Fatalf("Create for other guardian error: %v", err)
	}
}

func TestGrantRepo_Create_EnforcesLivePairUniqueness(t *testing.T) {
	repo := NewGrantRepo()
	ctx := context.Background()
	pid := "profile-1"

	if err := repo.Create(ctx, pendingGrant("g1", "clin-1", "guard-1", &pid)); err != nil {
		t.Fatalf("Create #1 error: %v", err)
	}
	err := repo.Create(ctx, pendingGrant("g2", "clin-1", "guard-1", &pid))
	if !errors.Is(err, grants.ErrRepoDuplicate) {
		t.Fatalf("expected ErrRepoDuplicate for live pair, got %v", err)
	}

	// el grant terminal no bloquea un nuevo request para el mismo par
	g, err := repo.GetByID(ctx, "g1")
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	g.Status = grants.StatusRejected
	if err := repo.Update(ctx, g, grants.StatusPending); err != nil {
		t.Fatalf("Update error: %v", err)
	}

	if err := repo.Create(ctx, pendingGrant("g3", "clin-1", "guard-1", &pid)); err != nil {
		t.Fatalf("Create after terminal error: %v", err)
	}
}

func TestGrantRepo_Create_ConcurrentSamePair_ExactlyOneWins(t *testing.T) {
	repo := NewGrantRepo()
	ctx := context.Background()
	pid := "profile-1"

	const n = 32
	errs := make([]error, n)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			errs[i] = repo.Create(ctx, pendingGrant(fmt.Sprintf("g%d", i), "clin-1", "guard-1", &pid))
		}(i)
	}
	close(start)
	wg.Wait()

	wins := 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, grants.ErrRepoDuplicate):
		default:
			t.Fatalf("unexpected Create error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one Create to win, got %d", wins)
	}
}

func TestGrantRepo_Update_BindProfileChecksLivePair(t *testing.T) {
	repo := NewGrantRepo()
	ctx := context.Background()
	pid := "profile-1"

	if err := repo.Create(ctx, pendingGrant("open", "clin-1", "guard-1", nil)); err != nil {
		t.Fatalf("Create open error: %v", err)
	}
	// un invite para el mismo par entra entre la lectura y el write del approve
	if err := repo.Create(ctx, pendingGrant("bound", "clin-1", "guard-1", &pid)); err != nil {
		t.Fatalf("Create bound error: %v", err)
	}

	g, _ := repo.GetByID(ctx, "open")
	g.ProfileID = &pid
	g.Status = grants.StatusActive
	g.Level = grants.LevelRestricted

	if err := repo.Update(ctx, g, grants.StatusPending); !errors.Is(err, grants.ErrRepoDuplicate) {
		t.Fatalf("expected ErrRepoDuplicate binding covered pair, got %v", err)
	}

	// el open request queda intacto
	got, _ := repo.GetByID(ctx, "open")
	if got.Status != grants.StatusPending || got.ProfileID != nil {
		t.Fatalf("open request must stay pending and unbound, got %s/%v", got.Status, got.ProfileID)
	}

	// con el otro grant terminal, el mismo write pasa
	b, _ := repo.GetByID(ctx, "bound")
	b.Status = grants.StatusRejected
	if err := repo.Update(ctx, b, grants.StatusPending); err != nil {
		t.Fatalf("Update bound to rejected error: %v", err)
	}
	if err := repo.Update(ctx, g, grants.StatusPending); err != nil {
		t.Fatalf("Update after terminal error: %v", err)
	}
}

func TestGrantRepo_Update_CASOnStatus(t *testing.T) {
	repo := NewGrantRepo()
	ctx := context.Background()
	pid := "profile-1"

	if err := repo.Create(ctx, pendingGrant("g1", "clin-1", "guard-1", &pid)); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	g, _ := repo.GetByID(ctx, "g1")
	g.Status = grants.StatusActive
	g.Level = grants.LevelRestricted

	// expected equivocado: otra mutación ya habría tocado el grant
	if err := repo.Update(ctx, g, grants.StatusActive); !errors.Is(err, grants.ErrRepoConflict) {
		t.Fatalf("expected ErrRepoConflict on stale expected, got %v", err)
	}

	if err := repo.Update(ctx, g, grants.StatusPending); err != nil {
		t.Fatalf("Update with correct expected error: %v", err)
	}

	got, _ := repo.GetByID(ctx, "g1")
	if got.Status != grants.StatusActive || got.Level != grants.LevelRestricted {
		t.Fatalf("expected active/restricted persisted, got %s/%s", got.Status, got.Level)
	}

	if err := repo.Update(ctx, g, grants.StatusPending); !errors.Is(err, grants.ErrRepoConflict) {
		t.Fatalf("expected ErrRepoConflict replaying old expected, got %v", err)
	}
}

func TestGrantRepo_FindOpenRequest_IgnoresBoundAndTerminal(t *testing.T) {
	repo := NewGrantRepo()
	ctx := context.Background()
	pid := "profile-1"

	if err := repo.Create(ctx, pendingGrant("bound", "clin-1", "guard-1", &pid)); err != nil {
		t.Fatalf("Create bound error: %v", err)
	}

	if _, err := repo.FindOpenRequest(ctx, "clin-1", "guard-1"); !errors.Is(err, grants.ErrRepoNotFound) {
		t.Fatalf("bound grant must not match open request lookup, got %v", err)
	}

	if err := repo.Create(ctx, pendingGrant("open", "clin-1", "guard-1", nil)); err != nil {
		t.Fatalf("Create open error: %v", err)
	}
	g, err := repo.FindOpenRequest(ctx, "clin-1", "guard-1")
	if err != nil {
		t.Fatalf("FindOpenRequest error: %v", err)
	}
	if g.ID != "open" {
		t.Fatalf("expected open request, got %s", g.ID)
	}
}
