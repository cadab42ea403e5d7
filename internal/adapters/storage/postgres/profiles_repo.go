package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"nutrikid-care-access/internal/domain/profiles"
)

type ProfilesRepo struct {
	db *sql.DB
}

func NewProfilesRepo(db *sql.DB) *ProfilesRepo {
	return &ProfilesRepo{db: db}
}

func (r *ProfilesRepo) Create(ctx context.Context, p profiles.Profile) error {
	prefs, err := json.Marshal(stringsOrEmpty(p.DietaryPreferences))
	if err != nil {
		return err
	}
	conds, err := json.Marshal(stringsOrEmpty(p.Conditions))
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO profiles (
			id, guardian_id, name, age, sex,
			height_cm, weight_kg, activity_level,
			dietary_preferences, conditions, avatar, health_notes,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`,
		p.ID,
		p.GuardianID,
		p.Name,
		p.Age,
		string(p.Sex),
		p.HeightCM,
		p.WeightKG,
		string(p.ActivityLevel),
		prefs,
		conds,
		p.Avatar,
		p.HealthNotes,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return err
}

func (r *ProfilesRepo) Update(ctx context.Context, p profiles.Profile) error {
	prefs, err := json.Marshal(stringsOrEmpty(p.DietaryPreferences))
	if err != nil {
		return err
	}
	conds, err := json.Marshal(stringsOrEmpty(p.Conditions))
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE profiles
		SET
			name = $2,
			age = $3,
			sex = $4,
			height_cm = $5,
			weight_kg = $6,
			activity_level = $7,
			dietary_preferences = $8,
			conditions = $9,
			avatar = $10,
			health_notes = $11,
			updated_at = $12
		WHERE id = $1
	`,
		p.ID,
		p.Name,
		p.Age,
		string(p.Sex),
		p.HeightCM,
		p.WeightKG,
		string(p.ActivityLevel),
		prefs,
		conds,
		p.Avatar,
		p.HealthNotes,
		p.UpdatedAt,
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

const profileColumns = `
	id, guardian_id, name, age, sex,
	height_cm, weight_kg, activity_level,
	dietary_preferences, conditions, avatar, health_notes,
	created_at, updated_at
`

func (r *ProfilesRepo) GetByID(ctx context.Context, id string) (profiles.Profile, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return profiles.Profile{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+profileColumns+`
		FROM profiles
		WHERE id = $1
	`, id)

	p, err := scanProfile(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return profiles.Profile{}, ErrNotFound
		}
		return profiles.Profile{}, err
	}
	return p, nil
}

func (r *ProfilesRepo) ListByGuardian(ctx context.Context, guardianID string) ([]profiles.Profile, error) {
	guardianID = strings.TrimSpace(guardianID)
	if guardianID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+profileColumns+`
		FROM profiles
		WHERE guardian_id = $1
		ORDER BY created_at ASC
	`, guardianID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]profiles.Profile, 0)
	for rows.Next() {
		p, err := scanProfile(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanProfile(scan func(dest ...any) error) (profiles.Profile, error) {
	var p profiles.Profile
	var sex, activity string
	var prefs, conds []byte

	if err := scan(
		&p.ID,
		&p.GuardianID,
		&p.Name,
		&p.Age,
		&sex,
		&p.HeightCM,
		&p.WeightKG,
		&activity,
		&prefs,
		&conds,
		&p.Avatar,
		&p.HealthNotes,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return profiles.Profile{}, err
	}

	p.Sex = profiles.Sex(sex)
	p.ActivityLevel = profiles.ActivityLevel(activity)
	if len(prefs) > 0 {
		if err := json.Unmarshal(prefs, &p.DietaryPreferences); err != nil {
			return profiles.Profile{}, err
		}
	}
	if len(conds) > 0 {
		if err := json.Unmarshal(conds, &p.Conditions); err != nil {
			return profiles.Profile{}, err
		}
	}
	return p, nil
}

func stringsOrEmpty(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
