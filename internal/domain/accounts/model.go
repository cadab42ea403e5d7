package accounts

import "time"

// Role define los dos roles del sistema. Es inmutable después del registro.
// @Enum guardian, clinician
type Role string

const (
	RoleGuardian  Role = "guardian"
	RoleClinician Role = "clinician"
)

func (r Role) Valid() bool {
	return r == RoleGuardian || r == RoleClinician
}

// Account representa a una persona registrada: el guardián que administra
// perfiles de niños, o el clínico que pide acceso a ellos.
type Account struct {
	ID    string
	Email string // único en todo el directorio
	Name  string
	Role  Role

	CreatedAt time.Time
}
