package profiles

import "time"

// Sex define el sexo registrado en el perfil.
// @Enum male, female, other
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
	SexOther  Sex = "other"
)

// ActivityLevel define el nivel de actividad física del niño.
// @Enum low, moderate, high
type ActivityLevel string

const (
	ActivityLow      ActivityLevel = "low"
	ActivityModerate ActivityLevel = "moderate"
	ActivityHigh     ActivityLevel = "high"
)

// Profile representa el perfil de salud de un niño. Pertenece a exactamente
// un guardián; la propiedad es exclusiva y no se transfiere.
type Profile struct {
	ID         string
	GuardianID string

	Name     string
	Age      int // años
	Sex      Sex
	HeightCM float64
	WeightKG float64

	ActivityLevel      ActivityLevel
	DietaryPreferences []string // p.ej. "vegetarian", "nut-free"
	Conditions         []string // p.ej. "diabetes", "celiac"
	Avatar             string

	HealthNotes string // nota de consulta, editable por el clínico con acceso full

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AgeBand devuelve la franja etaria gruesa que se expone en la vista
// restringida, en lugar de la edad exacta.
func AgeBand(age int) string {
	switch {
	case age < 0:
		return "unknown"
	case age <= 2:
		return "0-2"
	case age <= 5:
		return "3-5"
	case age <= 9:
		return "6-9"
	case age <= 12:
		return "10-12"
	case age <= 17:
		return "13-17"
	default:
		return "18+"
	}
}
