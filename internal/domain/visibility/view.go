package visibility

import (
	"nutrikid-care-access/internal/domain/records"
	"nutrikid-care-access/internal/ports/analytics"
)

// Kind es el tipo de vista que el projector calcula para un par
// (clínico, perfil).
// @Enum no_access, restricted, full
type Kind string

const (
	KindNoAccess   Kind = "no_access"
	KindRestricted Kind = "restricted"
	KindFull       Kind = "full"
)

// ProfileCard es la proyección reducida del perfil para la vista
// restringida: nombre, franja etaria y sexo. Nada de datos crudos de
// nacimiento ni mediciones.
type ProfileCard struct {
	ProfileID string `json:"profile_id"`
	Name      string `json:"name"`
	AgeBand   string `json:"age_band"`
	Sex       string `json:"sex"`
	Avatar    string `json:"avatar,omitempty"`
}

// FullProfile es la proyección completa, solo para grants active full.
type FullProfile struct {
	ProfileID          string   `json:"profile_id"`
	Name               string   `json:"name"`
	Age                int      `json:"age"`
	Sex                string   `json:"sex"`
	HeightCM           float64  `json:"height_cm"`
	WeightKG           float64  `json:"weight_kg"`
	ActivityLevel      string   `json:"activity_level"`
	DietaryPreferences []string `json:"dietary_preferences,omitempty"`
	Conditions         []string `json:"conditions,omitempty"`
	Avatar             string   `json:"avatar,omitempty"`
	HealthNotes        string   `json:"health_notes,omitempty"`
}

// View es lo que el clínico recibe. Según Kind:
//   - no_access: todos los campos vacíos; ni siquiera confirma que el
//     perfil exista.
//   - restricted: Card + nota de consulta + flag de upgrade pendiente.
//   - full: Profile + meals + growth + resumen nutricional.
type View struct {
	Kind Kind `json:"kind"`

	Card                *ProfileCard `json:"card,omitempty"`
	ConsultationNote    string       `json:"consultation_note,omitempty"`
	FullAccessRequested bool         `json:"full_access_requested,omitempty"`

	Profile   *FullProfile           `json:"profile,omitempty"`
	Meals     []records.MealLog      `json:"meals,omitempty"`
	Growth    []records.GrowthRecord `json:"growth,omitempty"`
	Nutrition *analytics.Summary     `json:"nutrition,omitempty"`
}
