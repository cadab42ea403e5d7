package analytics

import "context"

// NutrientGap describe un nutriente con déficit detectado.
type NutrientGap struct {
	Nutrient string `json:"nutrient"`
	Status   string `json:"status"`
	Gap      string `json:"gap"`
}

// Summary es el resumen nutricional que se adjunta al FullView.
type Summary struct {
	ProfileID       string        `json:"profile_id"`
	AvgCaloriesDay  float64       `json:"avg_calories_day"`
	MealsLast7Days  int           `json:"meals_last_7_days"`
	NutrientGaps    []NutrientGap `json:"nutrient_gaps,omitempty"`
	TrendAssessment string        `json:"trend_assessment,omitempty"`
}

// Resolver calcula (o consulta) el resumen nutricional de un perfil.
// Solo se invoca para vistas con nivel full; nunca para restricted.
type Resolver interface {
	Summarize(ctx context.Context, profileID string) (Summary, error)
}
