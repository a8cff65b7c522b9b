package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"nutramind/internal/domain"
)

const foodColumns = "id, user_id, description, day, time, calories, protein, carbs, fat, analysis, created_at"

type scanner interface {
	Scan(dest ...any) error
}

func scanFood(s scanner) (domain.FoodEntry, error) {
	var e domain.FoodEntry
	err := s.Scan(&e.ID, &e.UserID, &e.Description, &e.Day, &e.Time,
		&e.Nutrients.Calories, &e.Nutrients.Protein, &e.Nutrients.Carbs, &e.Nutrients.Fat,
		&e.Analysis, &e.CreatedAt)
	return e, err
}

// AddFoodEntry inserts a food entry and returns its id.
func (d *DB) AddFoodEntry(ctx context.Context, e domain.FoodEntry) (int64, error) {
	var id int64
	err := d.sql.QueryRowContext(ctx,
		"INSERT INTO food_entries(user_id, description, day, time, calories, protein, carbs, fat, analysis, created_at) VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10) RETURNING id;",
		e.UserID, e.Description, e.Day, e.Time,
		e.Nutrients.Calories, e.Nutrients.Protein, e.Nutrients.Carbs, e.Nutrients.Fat,
		e.Analysis, e.CreatedAt.UTC(),
	).Scan(&id)
	return id, err
}

// GetFoodEntry returns one of a user's entries, or nil if it does not exist.
func (d *DB) GetFoodEntry(ctx context.Context, userID, id int64) (*domain.FoodEntry, error) {
	e, err := scanFood(d.sql.QueryRowContext(ctx,
		"SELECT "+foodColumns+" FROM food_entries WHERE id=$1 AND user_id=$2;", id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// UpdateFoodEntry overwrites the mutable fields of an entry.
func (d *DB) UpdateFoodEntry(ctx context.Context, e domain.FoodEntry) error {
	res, err := d.sql.ExecContext(ctx,
		"UPDATE food_entries SET description=$3, day=$4, time=$5, calories=$6, protein=$7, carbs=$8, fat=$9, analysis=$10 WHERE id=$1 AND user_id=$2;",
		e.ID, e.UserID, e.Description, e.Day, e.Time,
		e.Nutrients.Calories, e.Nutrients.Protein, e.Nutrients.Carbs, e.Nutrients.Fat, e.Analysis,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return fmt.Errorf("food entry %d not found", e.ID)
	}
	return nil
}

// DeleteFoodEntry removes an entry.
func (d *DB) DeleteFoodEntry(ctx context.Context, userID, id int64) (bool, error) {
	res, err := d.sql.ExecContext(ctx, "DELETE FROM food_entries WHERE id=$1 AND user_id=$2;", id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ListFoodForDay returns a user's entries for a day in logging order.
func (d *DB) ListFoodForDay(ctx context.Context, userID int64, day string) ([]domain.FoodEntry, error) {
	return d.queryFood(ctx,
		"SELECT "+foodColumns+" FROM food_entries WHERE user_id=$1 AND day=$2 ORDER BY id;", userID, day)
}

// ListRecentFood returns a user's most recent entries.
func (d *DB) ListRecentFood(ctx context.Context, userID int64, limit int) ([]domain.FoodEntry, error) {
	return d.queryFood(ctx,
		"SELECT "+foodColumns+" FROM food_entries WHERE user_id=$1 ORDER BY id DESC LIMIT $2;", userID, limit)
}

func (d *DB) queryFood(ctx context.Context, query string, args ...any) ([]domain.FoodEntry, error) {
	rows, err := d.sql.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.FoodEntry
	for rows.Next() {
		e, err := scanFood(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
