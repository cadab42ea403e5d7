package records

import (
	"context"
	"errors"
	"testing"
	"time"
)

type testRepo struct {
	meals  []MealLog
	growth []GrowthRecord
}

func (r *testRepo) CreateMeal(ctx context.Context, m MealLog) error {
	r.meals = append(r.meals, m)
	return nil
}

func (r *testRepo) ListMealsByProfile(ctx context.Context, profileID string, filter ListFilter) ([]MealLog, error) {
	out := make([]MealLog, 0)
	for _, m := range r.meals {
		if m.ProfileID == profileID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *testRepo) CreateGrowth(ctx context.Context, g GrowthRecord) error {
	r.growth = append(r.growth, g)
	return nil
}

func (r *testRepo) ListGrowthByProfile(ctx context.Context, profileID string, filter ListFilter) ([]GrowthRecord, error) {
	out := make([]GrowthRecord, 0)
	for _, g := range r.growth {
		if g.ProfileID == profileID {
			out = append(out, g)
		}
	}
	return out, nil
}

func TestService_LogMeal_Validation(t *testing.T) {
	svc := NewService(&testRepo{})

	cases := []struct {
		name string
		in   LogMealInput
	}{
		{"meal type desconocido", LogMealInput{MealType: "brunch", FoodItems: []FoodItem{{Name: "pan", Quantity: "1"}}}},
		{"sin alimentos", LogMealInput{MealType: MealLunch}},
		{"alimento sin nombre", LogMealInput{MealType: MealLunch, FoodItems: []FoodItem{{Quantity: "1 cup"}}}},
	}
	for _, tc := range cases {
		if _, err := svc.LogMeal(context.Background(), "profile-1", tc.in); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%s: expected ErrInvalidInput, got %v", tc.name, err)
		}
	}
}

func TestService_LogMeal_DefaultsDateToNow(t *testing.T) {
	svc := NewService(&testRepo{})
	now := time.Date(2026, 3, 10, 12, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	m, err := svc.LogMeal(context.Background(), "profile-1", LogMealInput{
		MealType:  MealBreakfast,
		FoodItems: []FoodItem{{Name: "avena", Quantity: "1 cup", Calories: 150}},
	})
	if err != nil {
		t.Fatalf("LogMeal error: %v", err)
	}
	if !m.Date.Equal(now) || !m.RecordedAt.Equal(now) {
		t.Fatalf("expected date defaulted to now, got %v", m.Date)
	}
}

func TestService_RecordGrowth_ComputesBMI_AndVerification(t *testing.T) {
	svc := NewService(&testRepo{})

	g, err := svc.RecordGrowth(context.Background(), "profile-1", RecordGrowthInput{
		HeightCM:       121,
		WeightKG:       23.5,
		RecordedByRole: RecorderClinician,
		RecordedByID:   "clinician-1",
	})
	if err != nil {
		t.Fatalf("RecordGrowth error: %v", err)
	}
	// 23.5 / 1.21^2 = 16.0508... => 16.1
	if g.BMI != 16.1 {
		t.Fatalf("expected BMI 16.1, got %v", g.BMI)
	}
	if !g.Verified {
		t.Fatalf("clinician measurements must be verified")
	}

	g2, err := svc.RecordGrowth(context.Background(), "profile-1", RecordGrowthInput{
		HeightCM:       121,
		WeightKG:       23.5,
		RecordedByRole: RecorderGuardian,
		RecordedByID:   "guardian-1",
	})
	if err != nil {
		t.Fatalf("RecordGrowth error: %v", err)
	}
	if g2.Verified {
		t.Fatalf("guardian measurements must not be verified")
	}
}

func TestService_RecordGrowth_RejectsNonPositiveMeasures(t *testing.T) {
	svc := NewService(&testRepo{})

	_, err := svc.RecordGrowth(context.Background(), "profile-1", RecordGrowthInput{
		HeightCM:       0,
		WeightKG:       20,
		RecordedByRole: RecorderGuardian,
		RecordedByID:   "guardian-1",
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestBMI_Rounding(t *testing.T) {
	cases := []struct {
		heightCM, weightKG, want float64
	}{
		{100, 16, 16},
		{121, 23.5, 16.1},
		{150, 45, 20},
		{0, 20, 0},
	}
	for _, tc := range cases {
		if got := BMI(tc.heightCM, tc.weightKG); got != tc.want {
			t.Fatalf("BMI(%v, %v) = %v, want %v", tc.heightCM, tc.weightKG, got, tc.want)
		}
	}
}
