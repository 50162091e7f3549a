package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Tiliavir/ghosttrack/internal/storage"
)

// ErrNotFound is returned for a date with no stored log.
var ErrNotFound = errors.New("log not found")

const repoSchema = `
CREATE TABLE IF NOT EXISTS logs (
    date       TEXT PRIMARY KEY,
    id         TEXT NOT NULL,
    body       BLOB NOT NULL,
    updated_at INTEGER NOT NULL
);
`

// Repo stores one JSON body per date.
type Repo struct {
	db *sql.DB
}

// OpenRepo opens or creates the log database at path.
func OpenRepo(path string) (*Repo, error) {
	db, err := storage.OpenDB(path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(repoSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Repo{db: db}, nil
}

// Close closes the database.
func (r *Repo) Close() error { return r.db.Close() }

// Upsert stores body for date, replacing any earlier version.
func (r *Repo) Upsert(ctx context.Context, date, id string, body []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO logs (date, id, body, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET id = excluded.id, body = excluded.body, updated_at = excluded.updated_at
	`, date, id, body, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("upserting log %s: %w", date, err)
	}
	return nil
}

// Get returns the body stored for date.
func (r *Repo) Get(ctx context.Context, date string) ([]byte, error) {
	var body []byte
	err := r.db.QueryRowContext(ctx, `SELECT body FROM logs WHERE date = ?`, date).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading log %s: %w", date, err)
	}
	return body, nil
}

// List returns up to limit bodies with date < before (any date when before
// is empty), newest first, and the cursor of the next page.
func (r *Repo) List(ctx context.Context, limit int, before string) ([][]byte, string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT date, body FROM logs
		WHERE ? = '' OR date < ?
		ORDER BY date DESC
		LIMIT ?
	`, before, before, limit+1)
	if err != nil {
		return nil, "", fmt.Errorf("listing logs: %w", err)
	}
	defer rows.Close()

	var (
		bodies [][]byte
		dates  []string
	)
	for rows.Next() {
		var (
			date string
			body []byte
		)
		if err := rows.Scan(&date, &body); err != nil {
			return nil, "", fmt.Errorf("scanning log: %w", err)
		}
		bodies = append(bodies, body)
		dates = append(dates, date)
	}
	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("listing logs: %w", err)
	}

	next := ""
	if len(bodies) > limit {
		bodies = bodies[:limit]
		next = dates[limit-1]
	}
	return bodies, next, nil
}
