package observability

import (
	"context"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/nexustrade/nexusd/dbopen"
)

func TestEventLogger_Log(t *testing.T) {
	db := dbopen.OpenMemory(t, dbopen.WithSchema(Schema))
	logger := NewEventLogger(db)

	logger.Log(context.Background(), Event{
		Type:        EventActivation,
		PrincipalID: "u1",
		RequestID:   "req1",
		ClientIP:    "203.0.113.9",
		Success:     true,
	})

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM business_events WHERE event_type = ?`,
		EventActivation).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("got %d events", n)
	}

	var ip string
	if err := db.QueryRow(`SELECT client_ip FROM business_events WHERE principal_id = 'u1'`).Scan(&ip); err != nil {
		t.Fatal(err)
	}
	if ip != "203.0.113.9" {
		t.Errorf("client_ip: got %q", ip)
	}
}

func TestEventLogger_FailureDoesNotPanic(t *testing.T) {
	db := dbopen.OpenMemory(t) // no schema: insert will fail
	logger := NewEventLogger(db)
	logger.Log(context.Background(), Event{Type: EventAnalysis})
}

func TestCleanup(t *testing.T) {
	db := dbopen.OpenMemory(t, dbopen.WithSchema(Schema))

	old := time.Now().Unix() - 90*86400
	db.Exec(`INSERT INTO business_events (event_id, event_type, created_at) VALUES ('old', 'chart_analysis', ?)`, old)
	db.Exec(`INSERT INTO business_events (event_id, event_type, created_at) VALUES ('new', 'chart_analysis', ?)`, time.Now().Unix())

	if err := Cleanup(context.Background(), db, 30); err != nil {
		t.Fatal(err)
	}

	var n int
	db.QueryRow(`SELECT COUNT(*) FROM business_events`).Scan(&n)
	if n != 1 {
		t.Errorf("expected only the fresh event to survive, got %d", n)
	}

	// Retention disabled: nothing deleted.
	db.Exec(`INSERT INTO business_events (event_id, event_type, created_at) VALUES ('old2', 'chart_analysis', ?)`, old)
	if err := Cleanup(context.Background(), db, 0); err != nil {
		t.Fatal(err)
	}
	db.QueryRow(`SELECT COUNT(*) FROM business_events`).Scan(&n)
	if n != 2 {
		t.Errorf("cleanup with 0 days must be a no-op, got %d rows", n)
	}
}
