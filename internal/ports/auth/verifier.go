package auth

import "context"

// AuthVerifier valida un bearer token y devuelve los claims de la
// cuenta (guardián o clínico) o error si el token no es válido.
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}
