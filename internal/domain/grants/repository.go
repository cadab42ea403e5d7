package grants

import (
	"context"
	"errors"
)

// Errores que los adapters de Repository deben devolver para que el
// service los traduzca a la taxonomía de negocio.
var (
	// ErrRepoNotFound: el grant buscado no existe.
	ErrRepoNotFound = errors.New("grant not found")

	// ErrRepoDuplicate: la escritura violaría la unicidad: ya existe un
	// grant pending/active para el mismo par (clínico, perfil), o un open
	// request pending para el mismo par (clínico, guardián). Lo devuelven
	// tanto Create como Update (un approve que liga perfil puede chocar
	// con un invite que entró en el medio).
	ErrRepoDuplicate = errors.New("grant already exists for pair")

	// ErrRepoConflict: Update con expected-status que ya no coincide
	// (otra mutación ganó la carrera).
	ErrRepoConflict = errors.New("grant status changed concurrently")
)

type Repository interface {
	// Create persiste un grant nuevo. Debe validar la unicidad del par de
	// forma atómica y devolver ErrRepoDuplicate si ya hay un match.
	Create(ctx context.Context, g Grant) error

	GetByID(ctx context.Context, id string) (Grant, error)

	// FindActiveOrPending devuelve el único grant pending/active para
	// (clínico, perfil), o ErrRepoNotFound.
	FindActiveOrPending(ctx context.Context, clinicianID, profileID string) (Grant, error)

	// FindOpenRequest devuelve el open request pending (sin perfil) para
	// (clínico, guardián), o ErrRepoNotFound.
	FindOpenRequest(ctx context.Context, clinicianID, guardianID string) (Grant, error)

	ListPendingForGuardian(ctx context.Context, guardianID string) ([]Grant, error)
	ListActiveForClinician(ctx context.Context, clinicianID string) ([]Grant, error)

	// Update escribe el grant completo con compare-and-swap sobre el
	// status: si el status persistido no es expected, devuelve
	// ErrRepoConflict sin escribir. Si la escritura deja al grant vivo
	// sobre un par (clínico, perfil) que otro grant vivo ya cubre,
	// devuelve ErrRepoDuplicate sin escribir.
	Update(ctx context.Context, g Grant, expected Status) error
}
