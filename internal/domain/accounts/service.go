package accounts

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrEmailTaken   = errors.New("email already registered")
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type RegisterInput struct {
	Email string
	Name  string
	Role  Role
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (Account, error) {
	email := normalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)

	if email == "" || name == "" {
		return Account{}, ErrInvalidInput
	}
	if !in.Role.Valid() {
		return Account{}, ErrInvalidInput
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return Account{}, ErrEmailTaken
	}

	a := Account{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      name,
		Role:      in.Role,
		CreatedAt: s.now(),
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return Account{}, err
	}
	return a, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Account, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Account{}, ErrInvalidInput
	}
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Account{}, ErrNotFound
	}
	return a, nil
}

// ResolveByEmail busca una cuenta por email y valida el rol esperado.
// Lo usa el módulo de grants para resolver guardianes/clínicos sin
// conocer el repositorio de cuentas.
func (s *Service) ResolveByEmail(ctx context.Context, email string, role Role) (Account, error) {
	email = normalizeEmail(email)
	if email == "" {
		return Account{}, ErrInvalidInput
	}

	a, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return Account{}, ErrNotFound
	}
	if a.Role != role {
		return Account{}, ErrNotFound
	}
	return a, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
