package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"nutrikid-care-access/internal/domain/grants"
)

type grantRepo struct {
	mu   sync.Mutex
	byID map[string]grants.Grant
}

func NewGrantRepo() grants.Repository {
	return &grantRepo{
		byID: make(map[string]grants.Grant),
	}
}

// Create valida la unicidad del par bajo el mismo lock que inserta, así
// dos requests concurrentes para el mismo par no pueden entrar ambos.
func (r *grantRepo) Create(ctx context.Context, g grants.Grant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(g.ID) == "" {
		return errors.New("grant id required")
	}
	if _, exists := r.byID[g.ID]; exists {
		return errors.New("grant already exists")
	}

	for _, existing := range r.byID {
		if existing.ClinicianID != g.ClinicianID {
			continue
		}
		if existing.Status.IsTerminal() {
			continue
		}

		// open request: a lo sumo uno pending por (clínico, guardián)
		if g.ProfileID == nil {
			if existing.ProfileID == nil &&
				existing.GuardianID == g.GuardianID &&
				existing.Status == grants.StatusPending {
				return grants.ErrRepoDuplicate
			}
			continue
		}

		// grant ligado: a lo sumo uno pending/active por (clínico, perfil)
		if existing.ProfileRef() == *g.ProfileID {
			return grants.ErrRepoDuplicate
		}
	}

	r.byID[g.ID] = g
	return nil
}

func (r *grantRepo) GetByID(ctx context.Context, id string) (grants.Grant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.byID[id]
	if !ok {
		return grants.Grant{}, grants.ErrRepoNotFound
	}
	return g, nil
}

func (r *grantRepo) FindActiveOrPending(ctx context.Context, clinicianID, profileID string) (grants.Grant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, g := range r.byID {
		if g.ClinicianID != clinicianID {
			continue
		}
		if g.Status.IsTerminal() {
			continue
		}
		if g.ProfileRef() == profileID && profileID != "" {
			return g, nil
		}
	}
	return grants.Grant{}, grants.ErrRepoNotFound
}

func (r *grantRepo) FindOpenRequest(ctx context.Context, clinicianID, guardianID string) (grants.Grant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, g := range r.byID {
		if g.ClinicianID != clinicianID || g.GuardianID != guardianID {
			continue
		}
		if g.Status == grants.StatusPending && g.ProfileID == nil {
			return g, nil
		}
	}
	return grants.Grant{}, grants.ErrRepoNotFound
}

func (r *grantRepo) ListPendingForGuardian(ctx context.Context, guardianID string) ([]grants.Grant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]grants.Grant, 0)
	for _, g := range r.byID {
		if g.GuardianID == guardianID && g.Status == grants.StatusPending {
			out = append(out, g)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].RequestedAt.Before(out[j].RequestedAt)
	})
	return out, nil
}

func (r *grantRepo) ListActiveForClinician(ctx context.Context, clinicianID string) ([]grants.Grant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]grants.Grant, 0)
	for _, g := range r.byID {
		if g.ClinicianID == clinicianID && g.Status == grants.StatusActive {
			out = append(out, g)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].RequestedAt.Before(out[j].RequestedAt)
	})
	return out, nil
}

// Update escribe con compare-and-swap sobre el status: si el persistido
// ya no es expected, otra mutación ganó la carrera y devolvemos conflict.
// Si la escritura deja al grant vivo sobre un par (clínico, perfil) que
// otro grant vivo ya cubre (un invite que entró entre la lectura del
// service y este write), devolvemos duplicate; en Postgres ese choque lo
// resuelve el índice uq_grants_live_pair.
func (r *grantRepo) Update(ctx context.Context, g grants.Grant, expected grants.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byID[g.ID]
	if !ok {
		return grants.ErrRepoNotFound
	}
	if current.Status != expected {
		return grants.ErrRepoConflict
	}

	if !g.Status.IsTerminal() && g.ProfileID != nil {
		for id, other := range r.byID {
			if id == g.ID || other.ClinicianID != g.ClinicianID {
				continue
			}
			if other.Status.IsTerminal() {
				continue
			}
			if other.ProfileRef() == *g.ProfileID {
				return grants.ErrRepoDuplicate
			}
		}
	}

	r.byID[g.ID] = g
	return nil
}
