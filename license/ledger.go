package license

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Schema is the activation ledger table, applied via dbopen.WithSchema.
const Schema = `
CREATE TABLE IF NOT EXISTS license_activations (
    id            TEXT PRIMARY KEY,
    principal_id  TEXT NOT NULL,
    email         TEXT NOT NULL DEFAULT '',
    already_pro   INTEGER NOT NULL DEFAULT 0,
    created_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_activations_principal
    ON license_activations (principal_id, created_at);
`

// Ledger records every successful activation, including idempotent repeats.
type Ledger struct {
	db *sql.DB
}

// NewLedger wraps an opened ledger database.
func NewLedger(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

// Record appends one activation row. Best-effort: a failing ledger logs a
// warning and never blocks the activation itself.
func (l *Ledger) Record(ctx context.Context, principalID, email string, alreadyPro bool) {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO license_activations (id, principal_id, email, already_pro, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), principalID, email, alreadyPro, time.Now().Unix())
	if err != nil {
		slog.Warn("license: ledger write failed", "principal", principalID, "error", err)
	}
}

// CountForPrincipal returns how many activations a principal has recorded.
// Audit queries only.
func (l *Ledger) CountForPrincipal(ctx context.Context, principalID string) (int, error) {
	var n int
	err := l.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM license_activations WHERE principal_id = ?`,
		principalID).Scan(&n)
	return n, err
}
