package grants

import "context"

// Estos helpers implementan la interfaz AccessChecker del módulo de
// escalations sin que aquel importe este paquete.

// ActiveProfileIDs devuelve los perfiles con grant active del clínico.
func (s *Service) ActiveProfileIDs(ctx context.Context, clinicianID string) ([]string, error) {
	items, err := s.ListActiveForClinician(ctx, clinicianID)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(items))
	for _, g := range items {
		if pid := g.ProfileRef(); pid != "" {
			out = append(out, pid)
		}
	}
	return out, nil
}

// HasActiveGrant responde si el par tiene un grant active ahora mismo.
func (s *Service) HasActiveGrant(ctx context.Context, clinicianID, profileID string) (bool, error) {
	if _, err := s.ActiveGrant(ctx, clinicianID, profileID); err != nil {
		if err == ErrNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
