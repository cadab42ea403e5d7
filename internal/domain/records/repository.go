package records

import "context"

type Repository interface {
	CreateMeal(ctx context.Context, m MealLog) error
	ListMealsByProfile(ctx context.Context, profileID string, filter ListFilter) ([]MealLog, error)

	CreateGrowth(ctx context.Context, g GrowthRecord) error
	ListGrowthByProfile(ctx context.Context, profileID string, filter ListFilter) ([]GrowthRecord, error)
}
