package auth

// Claims representa la información extraída del token.
// Role viene del directorio de cuentas: "guardian" o "clinician".
type Claims struct {
	UserID string
	Email  string
	Role   string
}
