package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"nutrikid-care-access/internal/domain/escalations"
)

type EscalationsRepo struct {
	db *sql.DB
}

func NewEscalationsRepo(db *sql.DB) *EscalationsRepo {
	return &EscalationsRepo{db: db}
}

func (r *EscalationsRepo) Create(ctx context.Context, e escalations.Event) error {
	flags, err := json.Marshal(stringsOrEmpty(e.Flags))
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO risk_events (
			id, profile_id, risk_level, flags, analysis,
			resolved, resolved_by_id, raised_at, resolved_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		e.ID,
		e.ProfileID,
		string(e.RiskLevel),
		flags,
		e.Analysis,
		e.Resolved,
		e.ResolvedByID,
		e.RaisedAt,
		toNullTime(e.ResolvedAt),
	)
	return err
}

func (r *EscalationsRepo) GetByID(ctx context.Context, id string) (escalations.Event, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return escalations.Event{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT id, profile_id, risk_level, flags, analysis,
		       resolved, resolved_by_id, raised_at, resolved_at
		FROM risk_events
		WHERE id = $1
	`, id)

	e, err := scanEscalation(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return escalations.Event{}, ErrNotFound
		}
		return escalations.Event{}, err
	}
	return e, nil
}

func (r *EscalationsRepo) Update(ctx context.Context, e escalations.Event) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE risk_events
		SET
			resolved = $2,
			resolved_by_id = $3,
			resolved_at = $4
		WHERE id = $1
	`,
		e.ID,
		e.Resolved,
		e.ResolvedByID,
		toNullTime(e.ResolvedAt),
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *EscalationsRepo) ListUnresolvedByProfiles(ctx context.Context, profileIDs []string) ([]escalations.Event, error) {
	if len(profileIDs) == 0 {
		return []escalations.Event{}, nil
	}

	ids, err := json.Marshal(profileIDs)
	if err != nil {
		return nil, err
	}

	// el set de perfiles viaja como jsonb y se expande en la query; evita
	// armar placeholders dinámicos para el IN
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, profile_id, risk_level, flags, analysis,
		       resolved, resolved_by_id, raised_at, resolved_at
		FROM risk_events
		WHERE resolved = FALSE
		  AND profile_id IN (SELECT jsonb_array_elements_text($1::jsonb))
		ORDER BY raised_at DESC
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]escalations.Event, 0)
	for rows.Next() {
		e, err := scanEscalation(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanEscalation(scan func(dest ...any) error) (escalations.Event, error) {
	var e escalations.Event
	var level string
	var flags []byte
	var resolvedAt sql.NullTime

	if err := scan(
		&e.ID,
		&e.ProfileID,
		&level,
		&flags,
		&e.Analysis,
		&e.Resolved,
		&e.ResolvedByID,
		&e.RaisedAt,
		&resolvedAt,
	); err != nil {
		return escalations.Event{}, err
	}

	e.RiskLevel = escalations.RiskLevel(level)
	if len(flags) > 0 {
		if err := json.Unmarshal(flags, &e.Flags); err != nil {
			return escalations.Event{}, err
		}
	}
	e.ResolvedAt = fromNullTime(resolvedAt)
	return e, nil
}
