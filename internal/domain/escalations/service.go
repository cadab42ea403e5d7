package escalations

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
)

// AccessChecker evita importar el paquete grants. Ambos métodos consultan
// el estado actual del grant en cada llamada; este módulo no cachea nada.
type AccessChecker interface {
	ActiveProfileIDs(ctx context.Context, clinicianID string) ([]string, error)
	HasActiveGrant(ctx context.Context, clinicianID, profileID string) (bool, error)
}

type Service struct {
	repo   Repository
	access AccessChecker
	now    func() time.Time
}

func NewService(repo Repository, access AccessChecker) *Service {
	return &Service{
		repo:   repo,
		access: access,
		now:    time.Now,
	}
}

type RaiseInput struct {
	RiskLevel RiskLevel
	Flags     []string
	Analysis  string
}

// Raise registra un evento de riesgo para el perfil. Lo dispara el motor
// de análisis o el guardián; la visibilidad para clínicos pasa siempre
// por el gate.
func (s *Service) Raise(ctx context.Context, profileID string, in RaiseInput) (Event, error) {
	profileID = strings.TrimSpace(profileID)
	if profileID == "" {
		return Event{}, ErrInvalidInput
	}
	if !in.RiskLevel.Valid() {
		return Event{}, ErrInvalidInput
	}

	e := Event{
		ID:        uuid.NewString(),
		ProfileID: profileID,
		RiskLevel: in.RiskLevel,
		Flags:     in.Flags,
		Analysis:  strings.TrimSpace(in.Analysis),
		RaisedAt:  s.now(),
	}

	if err := s.repo.Create(ctx, e); err != nil {
		return Event{}, err
	}
	return e, nil
}

// ListVisibleForClinician devuelve los eventos sin resolver de los
// perfiles sobre los que el clínico tiene un grant active ahora mismo.
// Se consulta el grant en cada llamada: un revoke corta la visibilidad
// en la lectura siguiente.
func (s *Service) ListVisibleForClinician(ctx context.Context, clinicianID string) ([]Event, error) {
	clinicianID = strings.TrimSpace(clinicianID)
	if clinicianID == "" {
		return nil, ErrInvalidInput
	}

	profileIDs, err := s.access.ActiveProfileIDs(ctx, clinicianID)
	if err != nil {
		return nil, err
	}
	if len(profileIDs) == 0 {
		return []Event{}, nil
	}

	return s.repo.ListUnresolvedByProfiles(ctx, profileIDs)
}

// Resolve marca el evento como atendido. Exige grant active vigente del
// clínico sobre el perfil del evento. Idempotente contra ya-resuelto.
func (s *Service) Resolve(ctx context.Context, clinicianID, eventID string) (Event, error) {
	clinicianID = strings.TrimSpace(clinicianID)
	eventID = strings.TrimSpace(eventID)

	if clinicianID == "" || eventID == "" {
		return Event{}, ErrInvalidInput
	}

	e, err := s.repo.GetByID(ctx, eventID)
	if err != nil {
		return Event{}, ErrNotFound
	}

	ok, err := s.access.HasActiveGrant(ctx, clinicianID, e.ProfileID)
	if err != nil || !ok {
		return Event{}, ErrForbidden
	}

	if e.Resolved {
		return e, nil
	}

	now := s.now()
	e.Resolved = true
	e.ResolvedByID = clinicianID
	e.ResolvedAt = &now

	if err := s.repo.Update(ctx, e); err != nil {
		return Event{}, err
	}
	return e, nil
}
