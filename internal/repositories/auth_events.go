package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/insights/internal/shared"
)

// Outcomes recorded for a login attempt.
const (
	OutcomeAuthenticated = "authenticated"
	OutcomeFailed        = "failed"
	OutcomeTimeout       = "timeout"
	OutcomeLogout        = "logout"
)

// AuthEvent is one recorded login outcome.
type AuthEvent struct {
	ID        string    `json:"id"`
	Outcome   string    `json:"outcome"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthEventRepository appends to and reads the auth_events table.
type AuthEventRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewAuthEventRepository creates a new [AuthEventRepository] with the given database connection
func NewAuthEventRepository(db *sql.DB) *AuthEventRepository {
	return &AuthEventRepository{db: db, now: time.Now}
}

// Record stores an event with a generated ID.
func (r *AuthEventRepository) Record(outcome, detail string) (*AuthEvent, error) {
	event := &AuthEvent{
		ID:        shared.GenerateID(),
		Outcome:   outcome,
		Detail:    detail,
		CreatedAt: r.now().UTC(),
	}

	query := `INSERT INTO auth_events (id, outcome, detail, created_at) VALUES (?, ?, ?, ?)`
	if _, err := r.db.Exec(query, event.ID, event.Outcome, event.Detail, event.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to insert auth event: %w", err)
	}
	return event, nil
}

// Latest returns the most recent event, or nil when none were recorded.
func (r *AuthEventRepository) Latest() (*AuthEvent, error) {
	events, err := r.List(1)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}
	return events[0], nil
}

// List returns up to limit events, newest first. A non-positive limit returns all of them.
func (r *AuthEventRepository) List(limit int) ([]*AuthEvent, error) {
	query := `SELECT id, outcome, detail, created_at FROM auth_events ORDER BY created_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query auth events: %w", err)
	}
	defer rows.Close()

	events := []*AuthEvent{}
	for rows.Next() {
		var event AuthEvent
		if err := rows.Scan(&event.ID, &event.Outcome, &event.Detail, &event.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan auth event: %w", err)
		}
		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating auth events: %w", err)
	}
	return events, nil
}
