package postgres

import (
	"context"
	"encoding/json"

	"nutramind/internal/domain"
)

// AddSymptom inserts a symptom entry. Categories are stored as JSONB.
func (d *DB) AddSymptom(ctx context.Context, e domain.SymptomEntry) (int64, error) {
	cats, err := json.Marshal(e.Categories)
	if err != nil {
		return 0, err
	}
	var id int64
	err = d.sql.QueryRowContext(ctx,
		"INSERT INTO symptoms(user_id, day, categories, notes, created_at) VALUES($1,$2,$3,$4,$5) RETURNING id;",
		e.UserID, e.Day, cats, e.Notes, e.CreatedAt.UTC(),
	).Scan(&id)
	return id, err
}

// DeleteSymptom removes a symptom entry.
func (d *DB) DeleteSymptom(ctx context.Context, userID, id int64) (bool, error) {
	res, err := d.sql.ExecContext(ctx, "DELETE FROM symptoms WHERE id=$1 AND user_id=$2;", id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ListRecentSymptoms returns a user's most recent symptom entries.
func (d *DB) ListRecentSymptoms(ctx context.Context, userID int64, limit int) ([]domain.SymptomEntry, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT id, user_id, day, categories, notes, created_at FROM symptoms WHERE user_id=$1 ORDER BY id DESC LIMIT $2;",
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.SymptomEntry{}
	for rows.Next() {
		var (
			e    domain.SymptomEntry
			cats []byte
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.Day, &cats, &e.Notes, &e.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(cats, &e.Categories); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
