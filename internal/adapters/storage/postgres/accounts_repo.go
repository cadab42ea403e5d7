package postgres

import (
	"context"
	"database/sql"
	"strings"

	"nutrikid-care-access/internal/domain/accounts"
)

type AccountsRepo struct {
	db *sql.DB
}

func NewAccountsRepo(db *sql.DB) *AccountsRepo {
	return &AccountsRepo{db: db}
}

func (r *AccountsRepo) Create(ctx context.Context, a accounts.Account) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (id, email, name, role, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`,
		a.ID,
		a.Email,
		a.Name,
		string(a.Role),
		a.CreatedAt,
	)
	return err
}

func (r *AccountsRepo) GetByID(ctx context.Context, id string) (accounts.Account, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return accounts.Account{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT id, email, name, role, created_at
		FROM accounts
		WHERE id = $1
	`, id)
	return scanAccount(row)
}

func (r *AccountsRepo) GetByEmail(ctx context.Context, email string) (accounts.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return accounts.Account{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT id, email, name, role, created_at
		FROM accounts
		WHERE email = $1
	`, email)
	return scanAccount(row)
}

func scanAccount(row *sql.Row) (accounts.Account, error) {
	var a accounts.Account
	var role string

	if err := row.Scan(&a.ID, &a.Email, &a.Name, &role, &a.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return accounts.Account{}, ErrNotFound
		}
		return accounts.Account{}, err
	}

	a.Role = accounts.Role(role)
	return a, nil
}
