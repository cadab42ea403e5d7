package grants

import "time"

// Status es el ciclo de vida de un access grant.
// @Enum pending, active, rejected, revoked
type Status string

const (
	StatusPending  Status = "pending"
	StatusActive   Status = "active"
	StatusRejected Status = "rejected"
	StatusRevoked  Status = "revoked"
)

// IsTerminal indica si el status es historia: no bloquea un nuevo request
// para el mismo par, pero el registro se conserva para auditoría.
func (s Status) IsTerminal() bool {
	return s == StatusRejected || s == StatusRevoked
}

// Level es el nivel de visibilidad concedido. Solo tiene significado
// mientras el grant está active; en cualquier otro status queda vacío.
// @Enum restricted, full
type Level string

const (
	LevelRestricted Level = "restricted"
	LevelFull       Level = "full"
)

// Grant es la relación de autorización entre un clínico y un perfil.
//
// ProfileID es nil únicamente mientras el grant está pending y nació como
// open request (el clínico pidió acceso al guardián por email, sin elegir
// niño). El approve lo liga a un perfil antes de activarlo; un grant nunca
// llega a active ni rejected sin perfil.
type Grant struct {
	ID string

	ClinicianID string
	GuardianID  string
	ProfileID   *string

	Status Status
	Level  Level

	// FullAccessRequested solo puede ser true con status=active y
	// level=restricted; se limpia al subir a full o al revocar.
	FullAccessRequested bool

	Message          string // rationale de quien inició el grant
	ClinicianMessage string // rationale del pedido de upgrade

	RequestedAt time.Time
	ResolvedAt  *time.Time
	UpdatedAt   time.Time
}

// ProfileRef devuelve el perfil ligado o "" si es un open request.
func (g Grant) ProfileRef() string {
	if g.ProfileID == nil {
		return ""
	}
	return *g.ProfileID
}
