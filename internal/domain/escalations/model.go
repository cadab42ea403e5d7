package escalations

import "time"

// RiskLevel sigue la clasificación del motor de riesgo nutricional.
// @Enum LOW, MODERATE, HIGH
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskModerate RiskLevel = "MODERATE"
	RiskHigh     RiskLevel = "HIGH"
)

func (r RiskLevel) Valid() bool {
	return r == RiskLow || r == RiskModerate || r == RiskHigh
}

// Event es un evento de riesgo sin resolver ligado a un perfil. Solo lo
// ven clínicos con grant active sobre ese perfil, y el chequeo se rehace
// en cada lectura: nada de visibilidad por grant viejo.
type Event struct {
	ID        string
	ProfileID string

	RiskLevel RiskLevel
	Flags     []string // p.ej. "Potential Underweight (red flag)"
	Analysis  string

	Resolved     bool
	ResolvedByID string

	RaisedAt   time.Time
	ResolvedAt *time.Time
}
