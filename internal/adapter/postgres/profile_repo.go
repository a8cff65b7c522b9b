package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"nutramind/internal/domain"
)

// GetProfile returns the stored profile, or nil if the user has none.
func (d *DB) GetProfile(ctx context.Context, userID int64) (*domain.UserProfile, error) {
	var (
		p                   domain.UserProfile
		height, weight, age sql.NullFloat64
		sex, activity       sql.NullString
		goals               []string
	)
	err := d.sql.QueryRowContext(ctx,
		"SELECT user_id, height_cm, weight_kg, age_years, sex, activity_level, goals, updated_at FROM profiles WHERE user_id=$1;",
		userID,
	).Scan(&p.UserID, &height, &weight, &age, &sex, &activity, pq.Array(&goals), &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	p.HeightCm = floatPtr(height)
	p.WeightKg = floatPtr(weight)
	p.AgeYears = floatPtr(age)
	if sex.Valid {
		s := domain.Sex(sex.String)
		p.Sex = &s
	}
	if activity.Valid {
		a := domain.ActivityLevel(activity.String)
		p.Activity = &a
	}
	tags := make([]domain.GoalTag, 0, len(goals))
	for _, g := range goals {
		tags = append(tags, domain.GoalTag(g))
	}
	p.Goals = domain.NewGoalSet(tags...)
	return &p, nil
}

// SaveProfile inserts or replaces a profile.
func (d *DB) SaveProfile(ctx context.Context, p *domain.UserProfile) error {
	var sex, activity sql.NullString
	if p.Sex != nil {
		sex = sql.NullString{String: string(*p.Sex), Valid: true}
	}
	if p.Activity != nil {
		activity = sql.NullString{String: string(*p.Activity), Valid: true}
	}
	goals := make([]string, 0, len(p.Goals))
	for _, t := range p.Goals.Tags() {
		goals = append(goals, string(t))
	}

	_, err := d.sql.ExecContext(ctx, `
INSERT INTO profiles(user_id, height_cm, weight_kg, age_years, sex, activity_level, goals, updated_at)
VALUES($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (user_id) DO UPDATE SET
	height_cm=EXCLUDED.height_cm, weight_kg=EXCLUDED.weight_kg, age_years=EXCLUDED.age_years,
	sex=EXCLUDED.sex, activity_level=EXCLUDED.activity_level, goals=EXCLUDED.goals,
	updated_at=EXCLUDED.updated_at;`,
		p.UserID, nullFloat(p.HeightCm), nullFloat(p.WeightKg), nullFloat(p.AgeYears),
		sex, activity, pq.Array(goals), p.UpdatedAt.UTC(),
	)
	return err
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
