package profiles

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
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type CreateInput struct {
	Name               string
	Age                int
	Sex                Sex
	HeightCM           float64
	WeightKG           float64
	ActivityLevel      ActivityLevel
	DietaryPreferences []string
	Conditions         []string
	Avatar             string
}

func (s *Service) Create(ctx context.Context, guardianID string, in CreateInput) (Profile, error) {
	guardianID = strings.TrimSpace(guardianID)
	if guardianID == "" {
		return Profile{}, ErrInvalidInput
	}
	if strings.TrimSpace(in.Name) == "" {
		return Profile{}, ErrInvalidInput
	}
	if in.Age < 0 || in.Age > 18 {
		return Profile{}, ErrInvalidInput
	}
	if in.Sex != SexMale && in.Sex != SexFemale && in.Sex != SexOther {
		return Profile{}, ErrInvalidInput
	}
	if in.HeightCM <= 0 || in.WeightKG <= 0 {
		return Profile{}, ErrInvalidInput
	}

	activity := in.ActivityLevel
	if activity == "" {
		activity = ActivityModerate
	}
	avatar := strings.TrimSpace(in.Avatar)
	if avatar == "" {
		avatar = "lion"
	}

	now := s.now()
	p := Profile{
		ID:                 uuid.NewString(),
		GuardianID:         guardianID,
		Name:               strings.TrimSpace(in.Name),
		Age:                in.Age,
		Sex:                in.Sex,
		HeightCM:           in.HeightCM,
		WeightKG:           in.WeightKG,
		ActivityLevel:      activity,
		DietaryPreferences: trimAll(in.DietaryPreferences),
		Conditions:         trimAll(in.Conditions),
		Avatar:             avatar,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return Profile{}, err
	}
	return p, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Profile, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Profile{}, ErrInvalidInput
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Profile{}, ErrNotFound
	}
	return p, nil
}

func (s *Service) ListByGuardian(ctx context.Context, guardianID string) ([]Profile, error) {
	guardianID = strings.TrimSpace(guardianID)
	if guardianID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByGuardian(ctx, guardianID)
}

// UpdateHealthNotes guarda la nota de consulta del clínico con acceso full.
// La autorización (grant activo full) la valida el caller.
func (s *Service) UpdateHealthNotes(ctx context.Context, profileID, notes string) (Profile, error) {
	p, err := s.GetByID(ctx, profileID)
	if err != nil {
		return Profile{}, err
	}

	p.HealthNotes = strings.TrimSpace(notes)
	p.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, p); err != nil {
		return Profile{}, err
	}
	return p, nil
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
