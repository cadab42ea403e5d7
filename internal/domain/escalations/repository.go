package escalations

import "context"

type Repository interface {
	Create(ctx context.Context, e Event) error
	GetByID(ctx context.Context, id string) (Event, error)
	Update(ctx context.Context, e Event) error

	// ListUnresolvedByProfiles devuelve los eventos sin resolver de los
	// perfiles indicados, más nuevos primero.
	ListUnresolvedByProfiles(ctx context.Context, profileIDs []string) ([]Event, error)
}
