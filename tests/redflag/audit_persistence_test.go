package redflag

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/boardmates/boardmates/internal/observability"

	_ "modernc.org/sqlite" // Pure Go SQLite driver for testing
)

// openAuditDB opens an in-memory database with the audit_events table,
// mirroring the production schema closely enough for the logger's SQL.
func openAuditDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open SQLite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE audit_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		request_id TEXT NOT NULL,
		actor TEXT NOT NULL,
		role TEXT,
		action TEXT NOT NULL,
		subject TEXT,
		decision TEXT,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		outcome TEXT,
		error_message TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		t.Fatalf("failed to create audit_events table: %v", err)
	}
	return db
}

// TestPersistentLogger_RequiresDatabase proves that the persistent
// logger cannot be constructed without a database.
//
// Red-Flag: Audit persistence MUST NOT degrade silently to nothing.
func TestPersistentLogger_RequiresDatabase(t *testing.T) {
	if _, err := observability.NewPersistentLogger(nil); err == nil {
		t.Error("expected error when creating PersistentLogger with nil database")
	}
	if _, err := observability.NewPersistentLoggerWithWriter(nil, nil); err == nil {
		t.Error("expected error when creating PersistentLoggerWithWriter with nil database")
	}
}

// TestPersistentLogger_RejectsInvalidEntries proves that entries missing
// required attribution fields never reach the database.
//
// Red-Flag: Every audit entry MUST carry request_id, actor and action.
func TestPersistentLogger_RejectsInvalidEntries(t *testing.T) {
	db := openAuditDB(t)
	logger, err := observability.NewPersistentLogger(db)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	ctx := context.Background()

	tests := []struct {
		name  string
		entry observability.AuditEntry
	}{
		{"missing request id", observability.AuditEntry{Actor: "chair", Action: "user.create"}},
		{"missing actor", observability.AuditEntry{RequestID: "req-1", Action: "user.create"}},
		{"missing action", observability.AuditEntry{RequestID: "req-1", Actor: "chair"}},
		{"negative duration", observability.AuditEntry{
			RequestID: "req-1", Actor: "chair", Action: "user.create", Duration: -time.Second,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := logger.LogEvent(ctx, tt.entry); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}

	// Nothing invalid may have been written.
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM audit_events").Scan(&count); err != nil {
		t.Fatalf("failed to count audit events: %v", err)
	}
	if count != 0 {
		t.Errorf("expected empty audit table, got %d rows", count)
	}
}

// TestPersistentLogger_PersistsEntries proves that valid entries are
// written to the database.
//
// Red-Flag: Accepted audit entries MUST reach durable storage.
func TestPersistentLogger_PersistsEntries(t *testing.T) {
	db := openAuditDB(t)
	logger, err := observability.NewPersistentLogger(db)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	err = logger.LogEvent(context.Background(), observability.AuditEntry{
		RequestID: "req-test-123",
		Actor:     "chair@example.com",
		Role:      "admin",
		Action:    "user.create",
		Subject:   "u-1",
		Decision:  "allowed",
		Duration:  100 * time.Millisecond,
		Outcome:   "success",
	})
	if err != nil {
		t.Fatalf("failed to log event: %v", err)
	}

	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM audit_events WHERE request_id = 'req-test-123'").Scan(&count)
	if err != nil {
		t.Fatalf("failed to query audit_events: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 audit event, got %d", count)
	}
}

// TestPersistentLogger_SurvivesRestart proves that audit history is
// recoverable after the logger is recreated over the same database.
//
// Red-Flag: Audit entries MUST survive a server restart.
func TestPersistentLogger_SurvivesRestart(t *testing.T) {
	db := openAuditDB(t)
	ctx := context.Background()

	logger1, err := observability.NewPersistentLogger(db)
	if err != nil {
		t.Fatalf("failed to create first logger: %v", err)
	}
	err = logger1.LogEvent(ctx, observability.AuditEntry{
		RequestID: "req-before-restart",
		Actor:     "chair@example.com",
		Action:    "user.create",
		Duration:  time.Millisecond,
		Outcome:   "success",
	})
	if err != nil {
		t.Fatalf("failed to log before restart: %v", err)
	}

	// The second logger simulates a restarted server over the same
	// database.
	logger2, err := observability.NewPersistentLogger(db)
	if err != nil {
		t.Fatalf("failed to create second logger: %v", err)
	}
	err = logger2.LogEvent(ctx, observability.AuditEntry{
		RequestID: "req-after-restart",
		Actor:     "director@example.com",
		Action:    "org.create",
		Duration:  time.Millisecond,
		Outcome:   "error",
		Error:     "slug already in use",
	})
	if err != nil {
		t.Fatalf("failed to log after restart: %v", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM audit_events").Scan(&count); err != nil {
		t.Fatalf("failed to count audit events: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 audit events after restart, got %d", count)
	}

	// The summary sees history from before the restart.
	summary := logger2.GetAuditSummary()
	if summary.AcceptedCount != 1 {
		t.Errorf("expected 1 accepted event, got %d", summary.AcceptedCount)
	}
	if summary.RejectedCount != 1 {
		t.Errorf("expected 1 rejected event, got %d", summary.RejectedCount)
	}
}

// TestPersistentLogger_AggregatesRejectionReasons proves that the audit
// summary surfaces the most frequent failure reasons without exposing
// raw entries.
//
// Red-Flag: Operators MUST be able to see what the system rejects.
func TestPersistentLogger_AggregatesRejectionReasons(t *testing.T) {
	db := openAuditDB(t)
	logger, err := observability.NewPersistentLogger(db)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := logger.LogEvent(ctx, observability.AuditEntry{
			RequestID: "req-dup",
			Actor:     "chair@example.com",
			Action:    "user.create",
			Duration:  time.Millisecond,
			Outcome:   "error",
			Error:     "email already registered",
		}); err != nil {
			t.Fatalf("failed to log event: %v", err)
		}
	}
	if err := logger.LogEvent(ctx, observability.AuditEntry{
		RequestID: "req-denied",
		Actor:     "member@example.com",
		Action:    "user.delete",
		Decision:  "denied",
		Duration:  time.Millisecond,
		Outcome:   "error",
		Error:     "permission denied",
	}); err != nil {
		t.Fatalf("failed to log event: %v", err)
	}

	summary := logger.GetAuditSummary()
	if summary.RejectedCount != 4 {
		t.Fatalf("expected 4 rejected events, got %d", summary.RejectedCount)
	}
	if len(summary.TopRejectionReasons) == 0 {
		t.Fatal("expected rejection reasons in the summary")
	}
	top := summary.TopRejectionReasons[0]
	if top.Reason != "email already registered" || top.Count != 3 {
		t.Errorf("expected top reason %q with count 3, got %q with count %d",
			"email already registered", top.Reason, top.Count)
	}
}
