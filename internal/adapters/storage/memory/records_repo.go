package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"nutrikid-care-access/internal/domain/records"
)

type recordRepo struct {
	mu     sync.RWMutex
	meals  map[string]records.MealLog
	growth map[string]records.GrowthRecord
}

func NewRecordRepo() records.Repository {
	return &recordRepo{
		meals:  make(map[string]records.MealLog),
		growth: make(map[string]records.GrowthRecord),
	}
}

func (r *recordRepo) CreateMeal(ctx context.Context, m records.MealLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(m.ID) == "" {
		return errors.New("meal id required")
	}
	if _, exists := r.meals[m.ID]; exists {
		return errors.New("meal already exists")
	}
	r.meals[m.ID] = m
	return nil
}

func (r *recordRepo) ListMealsByProfile(ctx context.Context, profileID string, filter records.ListFilter) ([]records.MealLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]records.MealLog, 0)
	for _, m := range r.meals {
		if m.ProfileID != profileID {
			continue
		}
		if !inRange(m.Date, filter.From, filter.To) {
			continue
		}
		out = append(out, m)
	}

	// más nuevos primero
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *recordRepo) CreateGrowth(ctx context.Context, g records.GrowthRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(g.ID) == "" {
		return errors.New("growth record id required")
	}
	if _, exists := r.growth[g.ID]; exists {
		return errors.New("growth record already exists")
	}
	r.growth[g.ID] = g
	return nil
}

func (r *recordRepo) ListGrowthByProfile(ctx context.Context, profileID string, filter records.ListFilter) ([]records.GrowthRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]records.GrowthRecord, 0)
	for _, g := range r.growth {
		if g.ProfileID != profileID {
			continue
		}
		if !inRange(g.RecordedAt, filter.From, filter.To) {
			continue
		}
		out = append(out, g)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].RecordedAt.After(out[j].RecordedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func inRange(t time.Time, from, to *time.Time) bool {
	if from != nil && t.Before(*from) {
		return false
	}
	if to != nil && t.After(*to) {
		return false
	}
	return true
}
