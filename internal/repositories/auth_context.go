package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/insights/internal/auth"
	"github.com/desertthunder/insights/internal/shared"
)

// AuthContextRepository implements [auth.Store] on the auth_context table.
type AuthContextRepository struct {
	db *sql.DB
}

var _ auth.Store = (*AuthContextRepository)(nil)

// NewAuthContextRepository creates a new [AuthContextRepository] with the given database connection
func NewAuthContextRepository(db *sql.DB) *AuthContextRepository {
	return &AuthContextRepository{db: db}
}

// Get returns the value for key or [shared.ErrKeyNotFound].
func (r *AuthContextRepository) Get(key string) (string, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM auth_context WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", shared.ErrKeyNotFound, key)
	}
	if err != nil {
		return "", fmt.Errorf("failed to query auth context: %w", err)
	}
	return value, nil
}

// Set inserts or overwrites key.
func (r *AuthContextRepository) Set(key, value string) error {
	query := `
		INSERT INTO auth_context (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`

	if _, err := r.db.Exec(query, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to write auth context: %w", err)
	}
	return nil
}

// Delete removes key. Missing keys are ignored.
func (r *AuthContextRepository) Delete(key string) error {
	if _, err := r.db.Exec(`DELETE FROM auth_context WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete auth context: %w", err)
	}
	return nil
}

// Clear removes every key, returning how many were dropped.
func (r *AuthContextRepository) Clear() (int64, error) {
	result, err := r.db.Exec(`DELETE FROM auth_context`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear auth context: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count cleared keys: %w", err)
	}
	return n, nil
}

// Keys lists the stored keys in alphabetical order. Values are not returned.
func (r *AuthContextRepository) Keys() ([]string, error) {
	rows, err := r.db.Query(`SELECT key FROM auth_context ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to query auth context keys: %w", err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan auth context key: %w", err)
		}
		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating auth context keys: %w", err)
	}
	return keys, nil
}
