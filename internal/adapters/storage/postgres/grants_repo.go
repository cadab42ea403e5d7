package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"nutrikid-care-access/internal/domain/grants"
)

// GrantsRepo persiste grants en Postgres. La unicidad del par viene de dos
// índices únicos parciales:
//
//	uq_grants_live_pair     (clinician_id, profile_id)  WHERE status IN ('pending','active')
//	uq_grants_open_request  (clinician_id, guardian_id) WHERE status = 'pending' AND profile_id IS NULL
//
// así la carrera entre dos Create la resuelve la base, no el service.
type GrantsRepo struct {
	db *sql.DB
}

func NewGrantsRepo(db *sql.DB) *GrantsRepo {
	return &GrantsRepo{db: db}
}

const grantColumns = `
	id, clinician_id, guardian_id, profile_id,
	status, level, full_access_requested,
	message, clinician_message,
	requested_at, resolved_at, updated_at
`

func (r *GrantsRepo) Create(ctx context.Context, g grants.Grant) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO care_grants (
			`+grantColumns+`
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`,
		g.ID,
		g.ClinicianID,
		g.GuardianID,
		toNullString(g.ProfileID),
		string(g.Status),
		string(g.Level),
		g.FullAccessRequested,
		g.Message,
		g.ClinicianMessage,
		g.RequestedAt,
		toNullTime(g.ResolvedAt),
		g.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return grants.ErrRepoDuplicate
		}
		return err
	}
	return nil
}

func (r *GrantsRepo) GetByID(ctx context.Context, id string) (grants.Grant, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return grants.Grant{}, grants.ErrRepoNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+grantColumns+`
		FROM care_grants
		WHERE id = $1
	`, id)
	return scanGrant(row.Scan)
}

func (r *GrantsRepo) FindActiveOrPending(ctx context.Context, clinicianID, profileID string) (grants.Grant, error) {
	clinicianID = strings.TrimSpace(clinicianID)
	profileID = strings.TrimSpace(profileID)
	if clinicianID == "" || profileID == "" {
		return grants.Grant{}, grants.ErrRepoNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+grantColumns+`
		FROM care_grants
		WHERE clinician_id = $1
		  AND profile_id = $2
		  AND status IN ('pending','active')
		LIMIT 1
	`, clinicianID, profileID)
	return scanGrant(row.Scan)
}

func (r *GrantsRepo) FindOpenRequest(ctx context.Context, clinicianID, guardianID string) (grants.Grant, error) {
	clinicianID = strings.TrimSpace(clinicianID)
	guardianID = strings.TrimSpace(guardianID)
	if clinicianID == "" || guardianID == "" {
		return grants.Grant{}, grants.ErrRepoNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+grantColumns+`
		FROM care_grants
		WHERE clinician_id = $1
		  AND guardian_id = $2
		  AND status = 'pending'
		  AND profile_id IS NULL
		LIMIT 1
	`, clinicianID, guardianID)
	return scanGrant(row.Scan)
}

func (r *GrantsRepo) ListPendingForGuardian(ctx context.Context, guardianID string) ([]grants.Grant, error) {
	return r.list(ctx, `
		SELECT `+grantColumns+`
		FROM care_grants
		WHERE guardian_id = $1
		  AND status = 'pending'
		ORDER BY requested_at ASC
	`, guardianID)
}

func (r *GrantsRepo) ListActiveForClinician(ctx context.Context, clinicianID string) ([]grants.Grant, error) {
	return r.list(ctx, `
		SELECT `+grantColumns+`
		FROM care_grants
		WHERE clinician_id = $1
		  AND status = 'active'
		ORDER BY requested_at ASC
	`, clinicianID)
}

// Update hace compare-and-swap sobre el status en el WHERE: cero filas
// afectadas y el grant existe => otra mutación ganó entre lectura y escritura.
// Un 23505 de uq_grants_live_pair (approve que liga un perfil que otro
// grant vivo ya cubre) se devuelve como duplicate, igual que en Create.
func (r *GrantsRepo) Update(ctx context.Context, g grants.Grant, expected grants.Status) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE care_grants
		SET
			profile_id = $3,
			status = $4,
			level = $5,
			full_access_requested = $6,
			message = $7,
			clinician_message = $8,
			resolved_at = $9,
			updated_at = $10
		WHERE id = $1
		  AND status = $2
	`,
		g.ID,
		string(expected),
		toNullString(g.ProfileID),
		string(g.Status),
		string(g.Level),
		g.FullAccessRequested,
		g.Message,
		g.ClinicianMessage,
		toNullTime(g.ResolvedAt),
		g.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return grants.ErrRepoDuplicate
		}
		return err
	}

	n, _ := res.RowsAffected()
	if n > 0 {
		return nil
	}

	// distinguir "no existe" de "cambió el status"
	var exists bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM care_grants WHERE id = $1)`, g.ID,
	).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return grants.ErrRepoNotFound
	}
	return grants.ErrRepoConflict
}

func (r *GrantsRepo) list(ctx context.Context, query, arg string) ([]grants.Grant, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]grants.Grant, 0)
	for rows.Next() {
		g, err := scanGrant(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func scanGrant(scan func(dest ...any) error) (grants.Grant, error) {
	var g grants.Grant
	var profileID sql.NullString
	var status, level string
	var resolvedAt sql.NullTime

	if err := scan(
		&g.ID,
		&g.ClinicianID,
		&g.GuardianID,
		&profileID,
		&status,
		&level,
		&g.FullAccessRequested,
		&g.Message,
		&g.ClinicianMessage,
		&g.RequestedAt,
		&resolvedAt,
		&g.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return grants.Grant{}, grants.ErrRepoNotFound
		}
		return grants.Grant{}, err
	}

	g.ProfileID = fromNullString(profileID)
	g.Status = grants.Status(status)
	g.Level = grants.Level(level)
	g.ResolvedAt = fromNullTime(resolvedAt)
	return g, nil
}
