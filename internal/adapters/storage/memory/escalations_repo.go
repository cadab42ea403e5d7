package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"nutrikid-care-access/internal/domain/escalations"
)

type escalationRepo struct {
	mu   sync.RWMutex
	byID map[string]escalations.Event
}

func NewEscalationRepo() escalations.Repository {
	return &escalationRepo{
		byID: make(map[string]escalations.Event),
	}
}

func (r *escalationRepo) Create(ctx context.Context, e escalations.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(e.ID) == "" {
		return errors.New("event id required")
	}
	if _, exists := r.byID[e.ID]; exists {
		return errors.New("event already exists")
	}
	r.byID[e.ID] = e
	return nil
}

func (r *escalationRepo) GetByID(ctx context.Context, id string) (escalations.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byID[id]
	if !ok {
		return escalations.Event{}, ErrNotFound
	}
	return e, nil
}

func (r *escalationRepo) Update(ctx context.Context, e escalations.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(e.ID) == "" {
		return errors.New("event id required")
	}
	if _, exists := r.byID[e.ID]; !exists {
		return ErrNotFound
	}
	r.byID[e.ID] = e
	return nil
}

func (r *escalationRepo) ListUnresolvedByProfiles(ctx context.Context, profileIDs []string) ([]escalations.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := make(map[string]struct{}, len(profileIDs))
	for _, id := range profileIDs {
		wanted[id] = struct{}{}
	}

	out := make([]escalations.Event, 0)
	for _, e := range r.byID {
		if e.Resolved {
			continue
		}
		if _, ok := wanted[e.ProfileID]; !ok {
			continue
		}
		out = append(out, e)
	}

	// más nuevos primero
	sort.Slice(out, func(i, j int) bool {
		return out[i].RaisedAt.After(out[j].RaisedAt)
	})
	return out, nil
}
