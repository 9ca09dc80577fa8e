package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"
)

// TestJSONLogger_LogEvent verifies that audit entries are written as JSON
// lines carrying every required field.
func TestJSONLogger_LogEvent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf)

	entry := AuditEntry{
		RequestID: "req-1",
		Actor:     "ada@example.com",
		Role:      "admin",
		Action:    "user.create",
		Subject:   "bob@example.com",
		Decision:  "allowed",
		Duration:  42 * time.Millisecond,
		Outcome:   "success",
	}

	if err := logger.LogEvent(context.Background(), entry); err != nil {
		t.Fatalf("LogEvent failed: %v", err)
	}

	line := strings.TrimSpace(buf.String())
	var output map[string]interface{}
	if err := json.Unmarshal([]byte(line), &output); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	if output["request_id"] != "req-1" {
		t.Errorf("expected request_id req-1, got %v", output["request_id"])
	}
	if output["actor"] != "ada@example.com" {
		t.Errorf("expected actor ada@example.com, got %v", output["actor"])
	}
	if output["action"] != "user.create" {
		t.Errorf("expected action user.create, got %v", output["action"])
	}
	if output["decision"] != "allowed" {
		t.Errorf("expected decision allowed, got %v", output["decision"])
	}
	if output["level"] != "info" {
		t.Errorf("expected level info, got %v", output["level"])
	}
}

// TestJSONLogger_ErrorLevel verifies that failed operations log at error
// level.
func TestJSONLogger_ErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf)

	entry := AuditEntry{
		RequestID: "req-2",
		Actor:     "ada@example.com",
		Action:    "user.delete",
		Outcome:   "error",
		Error:     "database unavailable",
	}

	if err := logger.LogEvent(context.Background(), entry); err != nil {
		t.Fatalf("LogEvent failed: %v", err)
	}

	var output map[string]interface{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &output); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if output["level"] != "error" {
		t.Errorf("expected level error, got %v", output["level"])
	}
	if output["error"] != "database unavailable" {
		t.Errorf("expected error message, got %v", output["error"])
	}
}

// TestAuditEntry_Validate verifies required-field enforcement.
func TestAuditEntry_Validate(t *testing.T) {
	tests := []struct {
		name  string
		entry AuditEntry
	}{
		{"missing request_id", AuditEntry{Actor: "a", Action: "x"}},
		{"missing actor", AuditEntry{RequestID: "r", Action: "x"}},
		{"missing action", AuditEntry{RequestID: "r", Actor: "a"}},
		{"negative duration", AuditEntry{RequestID: "r", Actor: "a", Action: "x", Duration: -time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.entry.Validate(); err == nil {
				t.Errorf("expected validation error for %s, got nil", tt.name)
			}
		})
	}

	valid := AuditEntry{RequestID: "r", Actor: "a", Action: "x"}
	if err := valid.Validate(); err != nil {
		t.Errorf("expected valid entry to pass, got %v", err)
	}
}

// TestJSONLogger_RejectsCancelledContext verifies that logging respects
// context cancellation.
func TestJSONLogger_RejectsCancelledContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	entry := AuditEntry{RequestID: "r", Actor: "a", Action: "x"}
	if err := logger.LogEvent(ctx, entry); err == nil {
		t.Error("expected error for cancelled context, got nil")
	}
}

// TestJSONLogger_GetAuditSummary verifies aggregation of accepted and
// rejected counts, with rejection reasons capped at five.
func TestJSONLogger_GetAuditSummary(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		entry := AuditEntry{
			RequestID: fmt.Sprintf("ok-%d", i),
			Actor:     "ada@example.com",
			Action:    "user.list",
			Outcome:   "success",
		}
		if err := logger.LogEvent(ctx, entry); err != nil {
			t.Fatalf("LogEvent failed: %v", err)
		}
	}

	for i := 0; i < 7; i++ {
		entry := AuditEntry{
			RequestID: fmt.Sprintf("bad-%d", i),
			Actor:     "ada@example.com",
			Action:    "user.create",
			Outcome:   "rejected",
			Error:     fmt.Sprintf("reason-%d", i),
		}
		if err := logger.LogEvent(ctx, entry); err != nil {
			t.Fatalf("LogEvent failed: %v", err)
		}
	}

	summary := logger.GetAuditSummary()
	if summary.AcceptedCount != 3 {
		t.Errorf("expected 3 accepted, got %d", summary.AcceptedCount)
	}
	if summary.RejectedCount != 7 {
		t.Errorf("expected 7 rejected, got %d", summary.RejectedCount)
	}
	if len(summary.TopRejectionReasons) != 5 {
		t.Errorf("expected rejection reasons capped at 5, got %d", len(summary.TopRejectionReasons))
	}
	if len(summary.TopActions) == 0 {
		t.Error("expected per-action counts in summary")
	}
}

// TestNoopLogger verifies the no-op logger accepts everything and reports
// an empty summary.
func TestNoopLogger(t *testing.T) {
	logger := NewNoopLogger()

	entry := AuditEntry{RequestID: "r", Actor: "a", Action: "x"}
	if err := logger.LogEvent(context.Background(), entry); err != nil {
		t.Errorf("NoopLogger.LogEvent failed: %v", err)
	}

	summary := logger.GetAuditSummary()
	if summary.AcceptedCount != 0 || summary.RejectedCount != 0 {
		t.Error("expected empty summary from NoopLogger")
	}
	if summary.TopRejectionReasons == nil || summary.TopActions == nil {
		t.Error("expected non-nil summary slices")
	}
}
