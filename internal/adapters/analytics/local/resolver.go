package local

import (
	"context"
	"fmt"
	"time"

	"nutrikid-care-access/internal/domain/records"
	"nutrikid-care-access/internal/ports/analytics"
)

// MealSource lista comidas de un perfil; lo implementa records.Service.
type MealSource interface {
	ListMeals(ctx context.Context, profileID string, filter records.ListFilter) ([]records.MealLog, error)
}

// Resolver calcula el resumen nutricional a partir de los registros
// locales. Se usa en dev, cuando no hay servicio de análisis configurado.
type Resolver struct {
	meals MealSource
	now   func() time.Time
}

func New(meals MealSource) *Resolver {
	return &Resolver{
		meals: meals,
		now:   time.Now,
	}
}

func (r *Resolver) Summarize(ctx context.Context, profileID string) (analytics.Summary, error) {
	now := r.now()
	from := now.AddDate(0, 0, -7)

	meals, err := r.meals.ListMeals(ctx, profileID, records.ListFilter{From: &from, To: &now})
	if err != nil {
		return analytics.Summary{}, fmt.Errorf("local analytics: list meals: %w", err)
	}

	summary := analytics.Summary{
		ProfileID:      profileID,
		MealsLast7Days: len(meals),
	}
	if len(meals) == 0 {
		summary.TrendAssessment = "insufficient_data"
		return summary, nil
	}

	// calorías promedio por día: total / días con registros
	var total float64
	days := map[string]struct{}{}
	for _, m := range meals {
		for _, fi := range m.FoodItems {
			total += fi.Calories
		}
		days[m.Date.Format("2006-01-02")] = struct{}{}
	}
	if len(days) > 0 {
		summary.AvgCaloriesDay = total / float64(len(days))
	}

	switch {
	case len(meals) >= 14:
		summary.TrendAssessment = "consistent_logging"
	case len(meals) >= 7:
		summary.TrendAssessment = "regular_logging"
	default:
		summary.TrendAssessment = "sparse_logging"
	}
	return summary, nil
}
