package instrumentation

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestAction_Complete(t *testing.T) {
	a := NewAction("inbox_apply_label").WithMessages("m1").WithMutation("mut-1")
	if a.StartTime.IsZero() {
		t.Fatal("StartTime should be set")
	}

	a.Complete(nil)
	if !a.Success || a.Status() != StatusSuccess {
		t.Error("expected success")
	}
	if a.Duration < 0 {
		t.Error("Duration should not be negative")
	}

	b := NewAction("inbox_send").Complete(errors.New("quota exceeded"))
	if b.Success || b.Status() != StatusError {
		t.Error("expected failure")
	}
	if b.Error != "quota exceeded" {
		t.Errorf("Error = %q", b.Error)
	}
}

func TestAction_LogAttrs_IDs(t *testing.T) {
	a := NewAction("inbox_bulk_apply_label").WithMessages("m1", "m2").WithMutation("mut-9").Complete(nil)

	keys := func(attrs []slog.Attr) map[string]string {
		out := make(map[string]string)
		for _, attr := range attrs {
			out[attr.Key] = attr.Value.String()
		}
		return out
	}

	without := keys(a.LogAttrs(false))
	if _, ok := without["message_ids"]; ok {
		t.Error("message ids must be omitted when includeIDs is false")
	}
	if without["message_count"] != "2" {
		t.Errorf("message_count = %q", without["message_count"])
	}

	with := keys(a.LogAttrs(true))
	if with["message_ids"] != "m1,m2" {
		t.Errorf("message_ids = %q", with["message_ids"])
	}
	if with["mutation_id"] != "mut-9" {
		t.Errorf("mutation_id = %q", with["mutation_id"])
	}
}

func TestAuditLogger_Log(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	al := NewAuditLogger(logger)

	al.Log(context.Background(), NewAction("inbox_load").Complete(nil))
	al.Log(context.Background(), NewAction("inbox_load").Complete(errors.New("401")))

	out := buf.String()
	if !strings.Contains(out, "action_executed") {
		t.Error("expected success record")
	}
	if !strings.Contains(out, "action_failed") || !strings.Contains(out, "level=WARN") {
		t.Error("expected warn-level failure record")
	}
	if !strings.Contains(out, "component=audit") {
		t.Error("expected component attribute")
	}
}

func TestAuditLogger_Disabled(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLoggerWithConfig(slog.New(slog.NewTextHandler(&buf, nil)), AuditLoggingConfig{Enabled: false})

	al.Log(context.Background(), NewAction("inbox_load").Complete(nil))

	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}

	var nilLogger *AuditLogger
	nilLogger.Log(context.Background(), NewAction("inbox_load"))
}
