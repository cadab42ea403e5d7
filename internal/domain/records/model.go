package records

import "time"

// MealType define las comidas registrables.
// @Enum breakfast, lunch, dinner, snack
type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnack     MealType = "snack"
)

func (m MealType) Valid() bool {
	switch m {
	case MealBreakfast, MealLunch, MealDinner, MealSnack:
		return true
	}
	return false
}

// FoodItem es un alimento dentro de un registro de comida.
type FoodItem struct {
	Name     string  `json:"name"`
	Quantity string  `json:"quantity"` // "1 cup", "100g"
	Calories float64 `json:"calories,omitempty"`
}

// MealLog es un registro de comida de un perfil.
type MealLog struct {
	ID        string
	ProfileID string

	Date      time.Time
	MealType  MealType
	FoodItems []FoodItem
	Notes     string

	RecordedAt time.Time
}

// RecorderRole indica quién cargó la medición de crecimiento.
// @Enum guardian, clinician
type RecorderRole string

const (
	RecorderGuardian  RecorderRole = "guardian"
	RecorderClinician RecorderRole = "clinician"
)

// GrowthRecord es un punto de la línea de crecimiento del perfil.
type GrowthRecord struct {
	ID        string
	ProfileID string

	HeightCM float64
	WeightKG float64
	BMI      float64 // autocalculado al crear

	RecordedByRole RecorderRole
	RecordedByID   string
	Verified       bool // true cuando lo carga un clínico
	Notes          string

	RecordedAt time.Time
}

// ListFilter acota listados de meals/growth.
type ListFilter struct {
	From  *time.Time
	To    *time.Time
	Limit int
}
