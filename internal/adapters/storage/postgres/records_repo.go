package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"strings"

	"nutrikid-care-access/internal/domain/records"
)

type RecordsRepo struct {
	db *sql.DB
}

func NewRecordsRepo(db *sql.DB) *RecordsRepo {
	return &RecordsRepo{db: db}
}

func (r *RecordsRepo) CreateMeal(ctx context.Context, m records.MealLog) error {
	items, err := json.Marshal(m.FoodItems)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO meal_logs (
			id, profile_id, date, meal_type, food_items, notes, recorded_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
	`,
		m.ID,
		m.ProfileID,
		m.Date,
		string(m.MealType),
		items,
		m.Notes,
		m.RecordedAt,
	)
	return err
}

func (r *RecordsRepo) ListMealsByProfile(ctx context.Context, profileID string, filter records.ListFilter) ([]records.MealLog, error) {
	profileID = strings.TrimSpace(profileID)
	if profileID == "" {
		return nil, nil
	}

	query := `
		SELECT id, profile_id, date, meal_type, food_items, notes, recorded_at
		FROM meal_logs
		WHERE profile_id = $1
	`
	args := []any{profileID}
	query, args = applyRange(query, args, "date", filter)
	query += ` ORDER BY date DESC`
	query = applyLimit(query, filter)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]records.MealLog, 0)
	for rows.Next() {
		var m records.MealLog
		var mealType string
		var items []byte

		if err := rows.Scan(
			&m.ID,
			&m.ProfileID,
			&m.Date,
			&mealType,
			&items,
			&m.Notes,
			&m.RecordedAt,
		); err != nil {
			return nil, err
		}

		m.MealType = records.MealType(mealType)
		if len(items) > 0 {
			if err := json.Unmarshal(items, &m.FoodItems); err != nil {
				return nil, err
			}
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *RecordsRepo) CreateGrowth(ctx context.Context, g records.GrowthRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO growth_records (
			id, profile_id, height_cm, weight_kg, bmi,
			recorded_by_role, recorded_by_id, verified, notes, recorded_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		g.ID,
		g.ProfileID,
		g.HeightCM,
		g.WeightKG,
		g.BMI,
		string(g.RecordedByRole),
		g.RecordedByID,
		g.Verified,
		g.Notes,
		g.RecordedAt,
	)
	return err
}

func (r *RecordsRepo) ListGrowthByProfile(ctx context.Context, profileID string, filter records.ListFilter) ([]records.GrowthRecord, error) {
	profileID = strings.TrimSpace(profileID)
	if profileID == "" {
		return nil, nil
	}

	query := `
		SELECT id, profile_id, height_cm, weight_kg, bmi,
		       recorded_by_role, recorded_by_id, verified, notes, recorded_at
		FROM growth_records
		WHERE profile_id = $1
	`
	args := []any{profileID}
	query, args = applyRange(query, args, "recorded_at", filter)
	query += ` ORDER BY recorded_at DESC`
	query = applyLimit(query, filter)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]records.GrowthRecord, 0)
	for rows.Next() {
		var g records.GrowthRecord
		var role string

		if err := rows.Scan(
			&g.ID,
			&g.ProfileID,
			&g.HeightCM,
			&g.WeightKG,
			&g.BMI,
			&role,
			&g.RecordedByID,
			&g.Verified,
			&g.Notes,
			&g.RecordedAt,
		); err != nil {
			return nil, err
		}

		g.RecordedByRole = records.RecorderRole(role)
		out = append(out, g)
	}
	return out, rows.Err()
}

// applyRange agrega las condiciones From/To sobre la columna temporal dada.
func applyRange(query string, args []any, column string, filter records.ListFilter) (string, []any) {
	if filter.From != nil {
		args = append(args, *filter.From)
		query += ` AND ` + column + ` >= $` + strconv.Itoa(len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		query += ` AND ` + column + ` <= $` + strconv.Itoa(len(args))
	}
	return query, args
}

func applyLimit(query string, filter records.ListFilter) string {
	if filter.Limit > 0 {
		query += ` LIMIT ` + strconv.Itoa(filter.Limit)
	}
	return query
}
