package postgres

import (
	"context"
	"database/sql"
	"errors"

	"nutramind/internal/domain"
)

// LookupMutation returns the ledger row for key, or nil.
func (d *DB) LookupMutation(ctx context.Context, userID int64, key string) (*domain.AppliedMutation, error) {
	m := domain.AppliedMutation{UserID: userID, Key: key}
	err := d.sql.QueryRowContext(ctx,
		"SELECT remote_id, applied_at FROM applied_mutations WHERE user_id=$1 AND key=$2;", userID, key,
	).Scan(&m.RemoteID, &m.AppliedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// RecordMutation stores a ledger row. Recording a key twice keeps the first.
func (d *DB) RecordMutation(ctx context.Context, m domain.AppliedMutation) error {
	_, err := d.sql.ExecContext(ctx,
		"INSERT INTO applied_mutations(user_id, key, remote_id, applied_at) VALUES($1,$2,$3,$4) ON CONFLICT (user_id, key) DO NOTHING;",
		m.UserID, m.Key, m.RemoteID, m.AppliedAt.UTC(),
	)
	return err
}
