package grants_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	mem "nutrikid-care-access/internal/adapters/storage/memory"
	"nutrikid-care-access/internal/domain/grants"
)

// Estos tests corren contra el adapter in-memory real (no el fake del
// service) porque lo que se ejercita es la serialización del repo bajo
// escrituras concurrentes para el mismo par.

type stubDirectory struct{}

func (stubDirectory) GuardianByEmail(ctx context.Context, email string) (string, error) {
	if email == "ana@example.com" {
		return "guardian-1", nil
	}
	return "", errors.New("not found")
}

func (stubDirectory) ClinicianByEmail(ctx context.Context, email string) (string, error) {
	if email == "dr.paz@example.com" {
		return "clinician-1", nil
	}
	return "", errors.New("not found")
}

func (stubDirectory) RoleOf(ctx context.Context, accountID string) (string, error) {
	switch accountID {
	case "guardian-1":
		return "guardian", nil
	case "clinician-1":
		return "clinician", nil
	}
	return "", errors.New("not found")
}

type stubOwners struct{}

func (stubOwners) OwnerOf(ctx context.Context, profileID string) (string, error) {
	if profileID == "profile-1" {
		return "guardian-1", nil
	}
	return "", errors.New("not found")
}

func newRepoBackedService() *grants.Service {
	return grants.NewService(mem.NewGrantRepo(), stubDirectory{}, stubOwners{}, nil)
}

func TestRequestAccess_ConcurrentSamePair_ExactlyOneWins(t *testing.T) {
	svc := newRepoBackedService()
	ctx := context.Background()

	const n = 16
	errs := make([]error, n)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = svc.RequestAccess(ctx, "clinician-1", "ana@example.com", "hola")
		}(i)
	}
	close(start)
	wg.Wait()

	wins := 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, grants.ErrDuplicateGrant):
		default:
			t.Fatalf("unexpected RequestAccess error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one request to win, got %d", wins)
	}

	pending, err := svc.ListPendingForGuardian(ctx, "guardian-1")
	if err != nil {
		t.Fatalf("ListPendingForGuardian error: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected a single pending grant, got %d", len(pending))
	}
}

func TestInviteClinician_ConcurrentSamePair_ExactlyOneWins(t *testing.T) {
	svc := newRepoBackedService()
	ctx := context.Background()

	const n = 16
	errs := make([]error, n)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = svc.InviteClinician(ctx, "guardian-1", "dr.paz@example.com", "profile-1", "")
		}(i)
	}
	close(start)
	wg.Wait()

	wins := 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, grants.ErrDuplicateGrant):
		default:
			t.Fatalf("unexpected InviteClinician error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one invite to win, got %d", wins)
	}

	pending, err := svc.ListPendingForGuardian(ctx, "guardian-1")
	if err != nil {
		t.Fatalf("ListPendingForGuardian error: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected a single pending grant, got %d", len(pending))
	}
}

func TestApprove_ConcurrentSameGrant_SingleActivation(t *testing.T) {
	svc := newRepoBackedService()
	ctx := context.Background()

	g, err := svc.RequestAccess(ctx, "clinician-1", "ana@example.com", "")
	if err != nil {
		t.Fatalf("RequestAccess error: %v", err)
	}

	const n = 16
	errs := make([]error, n)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = svc.Approve(ctx, "guardian-1", g.ID, "profile-1", grants.LevelRestricted)
		}(i)
	}
	close(start)
	wg.Wait()

	wins := 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, grants.ErrUnavailable):
			// perdió el CAS contra otro approve; el caller relee y reintenta
		default:
			t.Fatalf("unexpected Approve error: %v", err)
		}
	}
	if wins == 0 {
		t.Fatal("expected at least one approve to succeed")
	}

	active, err := svc.ListActiveForClinician(ctx, "clinician-1")
	if err != nil {
		t.Fatalf("ListActiveForClinician error: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("expected a single active grant, got %d", len(active))
	}
	if active[0].Level != grants.LevelRestricted || active[0].ProfileRef() != "profile-1" {
		t.Fatalf("unexpected grant state: %s on %s", active[0].Level, active[0].ProfileRef())
	}
}

func TestApprove_RacesInvite_SingleLiveGrantPerPair(t *testing.T) {
	svc := newRepoBackedService()
	ctx := context.Background()

	open, err := svc.RequestAccess(ctx, "clinician-1", "ana@example.com", "")
	if err != nil {
		t.Fatalf("RequestAccess error: %v", err)
	}

	var approveErr, inviteErr error
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		<-start
		_, approveErr = svc.Approve(ctx, "guardian-1", open.ID, "profile-1", grants.LevelRestricted)
	}()
	go func() {
		defer wg.Done()
		<-start
		_, inviteErr = svc.InviteClinician(ctx, "guardian-1", "dr.paz@example.com", "profile-1", "")
	}()
	close(start)
	wg.Wait()

	wins := 0
	for _, err := range []error{approveErr, inviteErr} {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, grants.ErrDuplicateGrant):
		default:
			t.Fatalf("unexpected error: approve=%v invite=%v", approveErr, inviteErr)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one live grant for the pair, got %d winners (approve=%v invite=%v)", wins, approveErr, inviteErr)
	}

	// vivo = pending o active; nunca los dos a la vez para el mismo par
	pending, _ := svc.ListPendingForGuardian(ctx, "guardian-1")
	active, _ := svc.ListActiveForClinician(ctx, "clinician-1")
	live := len(active)
	for _, p := range pending {
		if p.ProfileRef() == "profile-1" {
			live++
		}
	}
	if live != 1 {
		t.Fatalf("expected exactly one live grant on the pair, got %d (pending=%d active=%d)", live, len(pending), len(active))
	}
}
