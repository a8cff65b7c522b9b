// Package postgres implements the domain repositories using PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"nutramind/internal/domain"
)

// DB wraps a *sql.DB and implements domain repository interfaces.
type DB struct {
	sql *sql.DB
}

var (
	_ domain.WeightRepository  = (*DB)(nil)
	_ domain.FoodRepository    = (*DB)(nil)
	_ domain.SymptomRepository = (*DB)(nil)
	_ domain.ProfileRepository = (*DB)(nil)
	_ domain.MutationLedger    = (*DB)(nil)
	_ domain.UserRepository    = (*DB)(nil)
	_ domain.SessionRepository = (*SessionRepo)(nil)
)

// Open connects to PostgreSQL, pings, and runs migrations.
func Open(connStr string) (*DB, error) {
	s, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	s.SetMaxOpenConns(10)
	s.SetMaxIdleConns(5)
	s.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.PingContext(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}

	d := &DB{sql: s}
	if err := d.migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return d, nil
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

func (d *DB) migrate(ctx context.Context) error {
	stmts := []string{
		"CREATE TABLE IF NOT EXISTS users (id BIGSERIAL PRIMARY KEY, username TEXT UNIQUE NOT NULL, password_hash TEXT NOT NULL, created_at TIMESTAMPTZ NOT NULL);",
		"CREATE TABLE IF NOT EXISTS sessions (token TEXT PRIMARY KEY, user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE, user_agent TEXT NOT NULL DEFAULT '', ip TEXT NOT NULL DEFAULT '', expires_at TIMESTAMPTZ NOT NULL, created_at TIMESTAMPTZ NOT NULL);",
		"CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);",

		"CREATE TABLE IF NOT EXISTS weight_events (id BIGSERIAL PRIMARY KEY, user_id BIGINT NOT NULL, value DOUBLE PRECISION NOT NULL, unit TEXT NOT NULL CHECK(unit IN ('kg','lb')), created_at TIMESTAMPTZ NOT NULL);",
		"CREATE INDEX IF NOT EXISTS idx_weight_events_user_created ON weight_events(user_id, created_at);",

		"CREATE TABLE IF NOT EXISTS food_entries (id BIGSERIAL PRIMARY KEY, user_id BIGINT NOT NULL, description TEXT NOT NULL, day TEXT NOT NULL, time TEXT NOT NULL DEFAULT '', calories DOUBLE PRECISION NOT NULL, protein DOUBLE PRECISION NOT NULL, carbs DOUBLE PRECISION NOT NULL, fat DOUBLE PRECISION NOT NULL, analysis TEXT NOT NULL DEFAULT '', created_at TIMESTAMPTZ NOT NULL);",
		"CREATE INDEX IF NOT EXISTS idx_food_entries_user_day ON food_entries(user_id, day);",

		"CREATE TABLE IF NOT EXISTS symptoms (id BIGSERIAL PRIMARY KEY, user_id BIGINT NOT NULL, day TEXT NOT NULL, categories JSONB NOT NULL, notes TEXT NOT NULL DEFAULT '', created_at TIMESTAMPTZ NOT NULL);",
		"CREATE INDEX IF NOT EXISTS idx_symptoms_user_id ON symptoms(user_id, id);",

		"CREATE TABLE IF NOT EXISTS profiles (user_id BIGINT PRIMARY KEY, height_cm DOUBLE PRECISION, weight_kg DOUBLE PRECISION, age_years DOUBLE PRECISION, sex TEXT, activity_level TEXT, goals TEXT[] NOT NULL DEFAULT '{}', updated_at TIMESTAMPTZ NOT NULL);",

		"CREATE TABLE IF NOT EXISTS applied_mutations (user_id BIGINT NOT NULL, key TEXT NOT NULL, remote_id TEXT NOT NULL, applied_at TIMESTAMPTZ NOT NULL, PRIMARY KEY (user_id, key));",
	}

	for _, stmt := range stmts {
		if _, err := d.sql.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func dayBounds(localDay string) (time.Time, time.Time, error) {
	dayStart, err := time.ParseInLocation("2006-01-02", localDay, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return dayStart.UTC(), dayStart.AddDate(0, 0, 1).UTC(), nil
}
