package accounts

import "context"

// Estos wrappers implementan la interfaz AccountDirectory del módulo de
// grants sin que aquel tenga que importar este paquete.

func (s *Service) GuardianByEmail(ctx context.Context, email string) (string, error) {
	a, err := s.ResolveByEmail(ctx, email, RoleGuardian)
	if err != nil {
		return "", err
	}
	return a.ID, nil
}

func (s *Service) ClinicianByEmail(ctx context.Context, email string) (string, error) {
	a, err := s.ResolveByEmail(ctx, email, RoleClinician)
	if err != nil {
		return "", err
	}
	return a.ID, nil
}

func (s *Service) RoleOf(ctx context.Context, accountID string) (string, error) {
	a, err := s.GetByID(ctx, accountID)
	if err != nil {
		return "", err
	}
	return string(a.Role), nil
}
