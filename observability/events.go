// Package observability records business events (activations, analyses) in a
// local SQLite database. Writes are non-blocking from the request's
// perspective: a failing event store never fails the request that produced
// the event.
package observability

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Schema is the business event table, applied via dbopen.WithSchema.
const Schema = `
CREATE TABLE IF NOT EXISTS business_events (
    event_id     TEXT PRIMARY KEY,
    event_type   TEXT NOT NULL,
    principal_id TEXT NOT NULL DEFAULT '',
    request_id   TEXT NOT NULL DEFAULT '',
    client_ip    TEXT NOT NULL DEFAULT '',
    detail       TEXT NOT NULL DEFAULT '',
    success      INTEGER NOT NULL DEFAULT 1,
    created_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_type ON business_events (event_type, created_at);
`

// Event types recorded by the API handlers.
const (
	EventActivation       = "license_activation"
	EventAnalysis         = "chart_analysis"
	EventAnalysisRejected = "chart_analysis_rejected"
)

// Event is one domain-level occurrence worth auditing.
type Event struct {
	Type        string
	PrincipalID string
	RequestID   string
	ClientIP    string
	Detail      string
	Success     bool
}

// EventLogger writes events and runs retention cleanup.
type EventLogger struct {
	db *sql.DB
}

// NewEventLogger wraps an opened events database.
func NewEventLogger(db *sql.DB) *EventLogger {
	return &EventLogger{db: db}
}

// Log records one event. Errors go to slog and do not propagate.
func (l *EventLogger) Log(ctx context.Context, e Event) {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO business_events (event_id, event_type, principal_id, request_id, client_ip, detail, success, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), e.Type, e.PrincipalID, e.RequestID, e.ClientIP, e.Detail, e.Success, time.Now().Unix())
	if err != nil {
		slog.Error("observability: event write failed", "type", e.Type, "error", err)
	}
}

// Cleanup deletes events older than the retention window. Zero or negative
// days disables cleanup.
func Cleanup(ctx context.Context, db *sql.DB, retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	cutoff := time.Now().Unix() - int64(retentionDays)*86400
	_, err := db.ExecContext(ctx, `DELETE FROM business_events WHERE created_at < ?`, cutoff)
	return err
}

// StartCleanup runs Cleanup daily until done closes.
func StartCleanup(db *sql.DB, retentionDays int, done <-chan struct{}) {
	tick := time.NewTicker(24 * time.Hour)
	go func() {
		defer tick.Stop()
		for {
			select {
			case <-done:
				return
			case <-tick.C:
				if err := Cleanup(context.Background(), db, retentionDays); err != nil {
					slog.Warn("observability: cleanup failed", "error", err)
				}
			}
		}
	}()
}
