package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SessionRepository is a small key-value table in the local database. The
// session store keeps the identity and the token under separate keys and
// relies on SetMany/Clear touching them in a single transaction.
type SessionRepository struct {
	db *sql.DB
}

func New(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Get returns the stored value for key, or nil when the key is absent.
func (r *SessionRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte

	err := r.db.QueryRowContext(ctx, `SELECT value FROM session WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session[%s]: %w", key, err)
	}

	return value, nil
}

func (r *SessionRepository) Set(ctx context.Context, key string, value []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO session (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("set session[%s]: %w", key, err)
	}

	return nil
}

// SetMany upserts all entries in one transaction so readers after a crash
// never find one key written without the other.
func (r *SessionRepository) SetMany(ctx context.Context, entries map[string][]byte) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	for key, value := range entries {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO session (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, key, value)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("set session[%s]: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM session WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("delete session[%s]: %w", key, err)
	}

	return nil
}

func (r *SessionRepository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM session`)
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}

	return nil
}
