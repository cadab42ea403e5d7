package memory

import (
	"context"
	"errors"
	"strings"
	"sync"

	"nutrikid-care-access/internal/domain/accounts"
)

var (
	ErrNotFound = errors.New("not found")
)

type accountRepo struct {
	mu      sync.RWMutex
	byID    map[string]accounts.Account
	byEmail map[string]string // email normalizado -> id
}

func NewAccountRepo() accounts.Repository {
	return &accountRepo{
		byID:    make(map[string]accounts.Account),
		byEmail: make(map[string]string),
	}
}

func (r *accountRepo) Create(ctx context.Context, a accounts.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(a.ID) == "" {
		return errors.New("account id required")
	}
	if _, exists := r.byID[a.ID]; exists {
		return errors.New("account already exists")
	}

	email := strings.ToLower(strings.TrimSpace(a.Email))
	if _, exists := r.byEmail[email]; exists {
		return errors.New("email already registered")
	}

	r.byID[a.ID] = a
	r.byEmail[email] = a.ID
	return nil
}

func (r *accountRepo) GetByID(ctx context.Context, id string) (accounts.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return accounts.Account{}, ErrNotFound
	}
	return a, nil
}

func (r *accountRepo) GetByEmail(ctx context.Context, email string) (accounts.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return accounts.Account{}, ErrNotFound
	}
	return r.byID[id], nil
}
