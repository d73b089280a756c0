// Package history persists each user's recent chart analyses. The UI shows
// the last ten verdicts; rows beyond that are kept until retention cleanup.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nexustrade/nexusd/analyzer"
)

// Schema is the analyses table, applied via dbopen.WithSchema.
const Schema = `
CREATE TABLE IF NOT EXISTS analyses (
    id         TEXT PRIMARY KEY,
    user_id    TEXT NOT NULL,
    image_url  TEXT NOT NULL DEFAULT '',
    result     TEXT NOT NULL,
    created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_analyses_user
    ON analyses (user_id, created_at DESC);
`

// Item is one recorded analysis.
type Item struct {
	ID       string           `json:"id"`
	ImageURL string           `json:"imageUrl"`
	Result   *analyzer.Result `json:"result"`
}

// Store reads and writes the analyses table.
type Store struct {
	db *sql.DB
}

// NewStore wraps an opened history database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Add records one analysis for a user. The verdict is stored as JSON — the
// result shape belongs to the analyzer, not to this table.
func (s *Store) Add(ctx context.Context, userID, imageURL string, result *analyzer.Result) (string, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("history: marshal result: %w", err)
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO analyses (id, user_id, image_url, result, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		id, userID, imageURL, string(payload), time.Now().Unix())
	if err != nil {
		return "", fmt.Errorf("history: insert: %w", err)
	}
	return id, nil
}

// List returns the user's most recent analyses, newest first, capped at
// limit. Rows whose stored JSON no longer parses are skipped, not fatal.
func (s *Store) List(ctx context.Context, userID string, limit int) ([]Item, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, image_url, result FROM analyses
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("history: query: %w", err)
	}
	defer rows.Close()

	items := make([]Item, 0, limit)
	for rows.Next() {
		var it Item
		var raw string
		if err := rows.Scan(&it.ID, &it.ImageURL, &raw); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		var result analyzer.Result
		if err := json.Unmarshal([]byte(raw), &result); err != nil {
			continue
		}
		it.Result = &result
		items = append(items, it)
	}
	return items, rows.Err()
}
