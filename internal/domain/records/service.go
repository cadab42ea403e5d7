package records

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
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

type LogMealInput struct {
	Date      time.Time
	MealType  MealType
	FoodItems []FoodItem
	Notes     string
}

func (s *Service) LogMeal(ctx context.Context, profileID string, in LogMealInput) (MealLog, error) {
	profileID = strings.TrimSpace(profileID)
	if profileID == "" {
		return MealLog{}, ErrInvalidInput
	}
	if !in.MealType.Valid() {
		return MealLog{}, ErrInvalidInput
	}
	if len(in.FoodItems) == 0 {
		return MealLog{}, ErrInvalidInput
	}
	for _, fi := range in.FoodItems {
		if strings.TrimSpace(fi.Name) == "" || strings.TrimSpace(fi.Quantity) == "" {
			return MealLog{}, ErrInvalidInput
		}
	}

	now := s.now()
	date := in.Date
	if date.IsZero() {
		date = now
	}

	m := MealLog{
		ID:         uuid.NewString(),
		ProfileID:  profileID,
		Date:       date,
		MealType:   in.MealType,
		FoodItems:  in.FoodItems,
		Notes:      strings.TrimSpace(in.Notes),
		RecordedAt: now,
	}

	if err := s.repo.CreateMeal(ctx, m); err != nil {
		return MealLog{}, err
	}
	return m, nil
}

func (s *Service) ListMeals(ctx context.Context, profileID string, filter ListFilter) ([]MealLog, error) {
	profileID = strings.TrimSpace(profileID)
	if profileID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListMealsByProfile(ctx, profileID, filter)
}

type RecordGrowthInput struct {
	HeightCM       float64
	WeightKG       float64
	RecordedByRole RecorderRole
	RecordedByID   string
	Notes          string
}

func (s *Service) RecordGrowth(ctx context.Context, profileID string, in RecordGrowthInput) (GrowthRecord, error) {
	profileID = strings.TrimSpace(profileID)
	if profileID == "" {
		return GrowthRecord{}, ErrInvalidInput
	}
	if in.HeightCM <= 0 || in.WeightKG <= 0 {
		return GrowthRecord{}, ErrInvalidInput
	}
	if in.RecordedByRole != RecorderGuardian && in.RecordedByRole != RecorderClinician {
		return GrowthRecord{}, ErrInvalidInput
	}
	if strings.TrimSpace(in.RecordedByID) == "" {
		return GrowthRecord{}, ErrInvalidInput
	}

	g := GrowthRecord{
		ID:             uuid.NewString(),
		ProfileID:      profileID,
		HeightCM:       in.HeightCM,
		WeightKG:       in.WeightKG,
		BMI:            BMI(in.HeightCM, in.WeightKG),
		RecordedByRole: in.RecordedByRole,
		RecordedByID:   strings.TrimSpace(in.RecordedByID),
		Verified:       in.RecordedByRole == RecorderClinician,
		Notes:          strings.TrimSpace(in.Notes),
		RecordedAt:     s.now(),
	}

	if err := s.repo.CreateGrowth(ctx, g); err != nil {
		return GrowthRecord{}, err
	}
	return g, nil
}

func (s *Service) ListGrowth(ctx context.Context, profileID string, filter ListFilter) ([]GrowthRecord, error) {
	profileID = strings.TrimSpace(profileID)
	if profileID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListGrowthByProfile(ctx, profileID, filter)
}

// BMI calcula kg/m2 redondeado a 1 decimal.
func BMI(heightCM, weightKG float64) float64 {
	if heightCM <= 0 {
		return 0
	}
	m := heightCM / 100
	return math.Round(weightKG/(m*m)*10) / 10
}
