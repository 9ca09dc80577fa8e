// Package observability provides structured audit logging for the
// boardmates control plane.
//
// Every guarded operation must emit: request_id, actor, action, subject,
// authorization decision, duration, and error (if any).
package observability

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"
)

// AuditEntry contains all required fields for operation logging.
type AuditEntry struct {
	// RequestID is the unique identifier for this request.
	// Required: every operation must have an ID.
	RequestID string

	// Actor is the authenticated caller who performed the operation,
	// or "anonymous" for unauthenticated requests.
	// Required: every operation must be attributed.
	Actor string

	// Role is the actor's workspace role (if applicable).
	Role string

	// Action names the operation, such as "user.create" or "auth.login".
	Action string

	// Subject identifies the record the operation touched.
	// May be empty for list operations.
	Subject string

	// Decision indicates the authorization outcome:
	// "allowed", "denied", or empty if not applicable.
	Decision string

	// Duration is how long the operation took.
	// Must be non-negative.
	Duration time.Duration

	// Outcome is the result status: "success", "error", "rejected".
	Outcome string

	// Error contains the error message if the operation failed.
	// Empty string for successful operations.
	Error string
}

// Validate checks that all required fields are present.
func (e *AuditEntry) Validate() error {
	if e.RequestID == "" {
		return fmt.Errorf("observability: request_id is required")
	}
	if e.Actor == "" {
		return fmt.Errorf("observability: actor is required")
	}
	if e.Action == "" {
		return fmt.Errorf("observability: action is required")
	}
	if e.Duration < 0 {
		return fmt.Errorf("observability: duration cannot be negative")
	}
	return nil
}

// AuditLogger is the interface for operation logging.
type AuditLogger interface {
	// LogEvent logs an operation event.
	// Returns an error if logging fails or the entry is invalid.
	LogEvent(ctx context.Context, entry AuditEntry) error

	// GetAuditSummary returns aggregated audit statistics.
	// Aggregates only; raw entries are not exposed.
	GetAuditSummary() *AuditSummary
}

// AuditSummary represents aggregated audit statistics.
type AuditSummary struct {
	AcceptedCount       int                   `json:"accepted_count"`
	RejectedCount       int                   `json:"rejected_count"`
	TopRejectionReasons []RejectionReasonStat `json:"top_rejection_reasons"`
	TopActions          []ActionStat          `json:"top_actions"`
}

// RejectionReasonStat represents rejection reason statistics.
type RejectionReasonStat struct {
	Reason string `json:"reason"`
	Count  int    `json:"count"`
}

// ActionStat represents per-action operation counts.
type ActionStat struct {
	Action string `json:"action"`
	Count  int    `json:"count"`
}

// jsonLogOutput is the structured format for JSON audit lines.
type jsonLogOutput struct {
	Timestamp  string `json:"timestamp"`
	Level      string `json:"level"`
	RequestID  string `json:"request_id"`
	Actor      string `json:"actor"`
	Role       string `json:"role,omitempty"`
	Action     string `json:"action"`
	Subject    string `json:"subject,omitempty"`
	Decision   string `json:"decision,omitempty"`
	DurationMs int64  `json:"duration_ms"`
	Outcome    string `json:"outcome,omitempty"`
	Error      string `json:"error,omitempty"`
}

// JSONLogger implements AuditLogger with JSON line output.
type JSONLogger struct {
	writer  io.Writer
	entries []AuditEntry // Track entries for audit summary
	mu      sync.RWMutex
}

// NewJSONLogger creates a new JSON logger writing to the given writer.
func NewJSONLogger(w io.Writer) *JSONLogger {
	return &JSONLogger{
		writer:  w,
		entries: make([]AuditEntry, 0),
	}
}

// LogEvent logs an operation event as JSON.
func (l *JSONLogger) LogEvent(ctx context.Context, entry AuditEntry) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("observability: context error: %w", err)
	}
	if err := entry.Validate(); err != nil {
		return err
	}

	level := "info"
	if entry.Error != "" {
		level = "error"
	}

	output := jsonLogOutput{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Level:      level,
		RequestID:  entry.RequestID,
		Actor:      entry.Actor,
		Role:       entry.Role,
		Action:     entry.Action,
		Subject:    entry.Subject,
		Decision:   entry.Decision,
		DurationMs: entry.Duration.Milliseconds(),
		Outcome:    entry.Outcome,
		Error:      entry.Error,
	}

	data, err := json.Marshal(output)
	if err != nil {
		return fmt.Errorf("observability: failed to marshal log: %w", err)
	}

	if _, err := l.writer.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("observability: failed to write log: %w", err)
	}

	l.mu.Lock()
	l.entries = append(l.entries, entry)
	l.mu.Unlock()

	return nil
}

// GetAuditSummary returns aggregated audit statistics.
func (l *JSONLogger) GetAuditSummary() *AuditSummary {
	l.mu.RLock()
	defer l.mu.RUnlock()

	summary := &AuditSummary{
		TopRejectionReasons: []RejectionReasonStat{},
		TopActions:          []ActionStat{},
	}

	rejectionReasons := make(map[string]int)
	actionCounts := make(map[string]int)

	for _, entry := range l.entries {
		if entry.Error == "" {
			summary.AcceptedCount++
		} else {
			summary.RejectedCount++
			rejectionReasons[entry.Error]++
		}
		actionCounts[entry.Action]++
	}

	for reason, count := range rejectionReasons {
		summary.TopRejectionReasons = append(summary.TopRejectionReasons, RejectionReasonStat{
			Reason: reason,
			Count:  count,
		})
	}
	sort.Slice(summary.TopRejectionReasons, func(i, j int) bool {
		return summary.TopRejectionReasons[i].Count > summary.TopRejectionReasons[j].Count
	})
	if len(summary.TopRejectionReasons) > 5 {
		summary.TopRejectionReasons = summary.TopRejectionReasons[:5]
	}

	for action, count := range actionCounts {
		summary.TopActions = append(summary.TopActions, ActionStat{
			Action: action,
			Count:  count,
		})
	}
	sort.Slice(summary.TopActions, func(i, j int) bool {
		return summary.TopActions[i].Count > summary.TopActions[j].Count
	})
	if len(summary.TopActions) > 5 {
		summary.TopActions = summary.TopActions[:5]
	}

	return summary
}

// NoopLogger is a logger that discards all logs.
// Useful for testing or when audit logging is disabled.
type NoopLogger struct{}

// NewNoopLogger creates a new no-op logger.
func NewNoopLogger() *NoopLogger {
	return &NoopLogger{}
}

// LogEvent does nothing and always succeeds.
func (l *NoopLogger) LogEvent(ctx context.Context, entry AuditEntry) error {
	return nil
}

// GetAuditSummary returns an empty summary for the no-op logger.
func (l *NoopLogger) GetAuditSummary() *AuditSummary {
	return &AuditSummary{
		TopRejectionReasons: []RejectionReasonStat{},
		TopActions:          []ActionStat{},
	}
}

// PersistentLogger implements AuditLogger with PostgreSQL persistence.
// Audit entries must survive server restart.
type PersistentLogger struct {
	db     *sql.DB
	writer io.Writer // optional: also write to stdout for debugging
}

// NewPersistentLogger creates a logger that persists audit entries to
// PostgreSQL.
func NewPersistentLogger(db *sql.DB) (*PersistentLogger, error) {
	if db == nil {
		return nil, fmt.Errorf("observability: database connection is required for persistent logging")
	}
	return &PersistentLogger{db: db}, nil
}

// NewPersistentLoggerWithWriter creates a logger that persists to both DB
// and a writer.
func NewPersistentLoggerWithWriter(db *sql.DB, w io.Writer) (*PersistentLogger, error) {
	if db == nil {
		return nil, fmt.Errorf("observability: database connection is required for persistent logging")
	}
	return &PersistentLogger{db: db, writer: w}, nil
}

// LogEvent persists an operation event to PostgreSQL.
func (l *PersistentLogger) LogEvent(ctx context.Context, entry AuditEntry) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("observability: context error: %w", err)
	}
	if err := entry.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO audit_events (
			request_id, actor, role, action, subject, decision,
			duration_ms, outcome, error_message
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := l.db.ExecContext(ctx, query,
		entry.RequestID,
		entry.Actor,
		nullableString(entry.Role),
		entry.Action,
		nullableString(entry.Subject),
		nullableString(entry.Decision),
		entry.Duration.Milliseconds(),
		nullableString(entry.Outcome),
		nullableString(entry.Error),
	)
	if err != nil {
		return fmt.Errorf("observability: failed to persist audit event: %w", err)
	}

	if l.writer != nil {
		level := "info"
		if entry.Error != "" {
			level = "error"
		}
		output := jsonLogOutput{
			Timestamp:  time.Now().UTC().Format(time.RFC3339),
			Level:      level,
			RequestID:  entry.RequestID,
			Actor:      entry.Actor,
			Role:       entry.Role,
			Action:     entry.Action,
			Subject:    entry.Subject,
			Decision:   entry.Decision,
			DurationMs: entry.Duration.Milliseconds(),
			Outcome:    entry.Outcome,
			Error:      entry.Error,
		}
		if data, err := json.Marshal(output); err == nil {
			l.writer.Write(data)
			l.writer.Write([]byte("\n"))
		}
	}

	return nil
}

// GetAuditSummary returns aggregated audit statistics from the database.
func (l *PersistentLogger) GetAuditSummary() *AuditSummary {
	summary := &AuditSummary{
		TopRejectionReasons: []RejectionReasonStat{},
		TopActions:          []ActionStat{},
	}

	ctx := context.Background()

	row := l.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM audit_events WHERE error_message IS NULL OR error_message = ''
	`)
	row.Scan(&summary.AcceptedCount)

	row = l.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM audit_events WHERE error_message IS NOT NULL AND error_message != ''
	`)
	row.Scan(&summary.RejectedCount)

	rows, err := l.db.QueryContext(ctx, `
		SELECT error_message, COUNT(*) as cnt
		FROM audit_events
		WHERE error_message IS NOT NULL AND error_message != ''
		GROUP BY error_message
		ORDER BY cnt DESC
		LIMIT 5
	`)
	if err == nil {
		defer rows.Close()
		for rows.Next() {
			var reason string
			var count int
			if rows.Scan(&reason, &count) == nil {
				summary.TopRejectionReasons = append(summary.TopRejectionReasons, RejectionReasonStat{
					Reason: reason,
					Count:  count,
				})
			}
		}
	}

	rows, err = l.db.QueryContext(ctx, `
		SELECT action, COUNT(*) as cnt
		FROM audit_events
		GROUP BY action
		ORDER BY cnt DESC
		LIMIT 5
	`)
	if err == nil {
		defer rows.Close()
		for rows.Next() {
			var action string
			var count int
			if rows.Scan(&action, &count) == nil {
				summary.TopActions = append(summary.TopActions, ActionStat{
					Action: action,
					Count:  count,
				})
			}
		}
	}

	return summary
}

// nullableString converts empty strings to nil for SQL NULL.
func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
