package instrumentation

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Action captures one user-initiated inbox action (an MCP tool call) for
// audit logging.
type Action struct {
	Tool string

	// MessageIDs are the messages the action touched, if any.
	MessageIDs []string

	// MutationID links the action to a label mutation, if one was issued.
	MutationID string

	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	TraceID string
	SpanID  string
}

// NewAction creates a new Action with timing started.
func NewAction(tool string) *Action {
	return &Action{
		Tool:      tool,
		StartTime: time.Now(),
	}
}

// WithMessages records the message ids the action targets.
func (a *Action) WithMessages(ids ...string) *Action {
	a.MessageIDs = append(a.MessageIDs, ids...)
	return a
}

// WithMutation records the mutation id issued for the action.
func (a *Action) WithMutation(id string) *Action {
	a.MutationID = id
	return a
}

// WithSpanContext copies the trace context from the current span.
func (a *Action) WithSpanContext(ctx context.Context) *Action {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if sc.IsValid() {
		a.TraceID = sc.TraceID().String()
		a.SpanID = sc.SpanID().String()
	}
	return a
}

// Complete marks the action as finished.
func (a *Action) Complete(err error) *Action {
	a.Duration = time.Since(a.StartTime)
	a.Success = err == nil
	if err != nil {
		a.Error = err.Error()
	}
	return a
}

// Status returns StatusSuccess or StatusError.
func (a *Action) Status() string {
	if a.Success {
		return StatusSuccess
	}
	return StatusError
}

// LogAttrs returns the structured fields for the action. Message and
// mutation ids are only included when includeIDs is set.
func (a *Action) LogAttrs(includeIDs bool) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("tool", a.Tool),
		slog.Duration("duration", a.Duration),
		slog.Bool("success", a.Success),
		slog.Int("message_count", len(a.MessageIDs)),
	}

	if includeIDs {
		if len(a.MessageIDs) > 0 {
			attrs = append(attrs, slog.String("message_ids", strings.Join(a.MessageIDs, ",")))
		}
		if a.MutationID != "" {
			attrs = append(attrs, slog.String("mutation_id", a.MutationID))
		}
	}
	if a.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", a.TraceID))
	}
	if a.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", a.SpanID))
	}
	if a.Error != "" {
		attrs = append(attrs, slog.String("error", a.Error))
	}

	return attrs
}

// AuditLogger writes one structured record per inbox action.
type AuditLogger struct {
	logger     *slog.Logger
	includeIDs bool
	enabled    bool
}

// NewAuditLogger creates an enabled AuditLogger that omits ids.
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return NewAuditLoggerWithConfig(logger, AuditLoggingConfig{Enabled: true})
}

// NewAuditLoggerWithConfig creates an AuditLogger with the given configuration.
func NewAuditLoggerWithConfig(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:     logger.With(slog.String("component", "audit")),
		includeIDs: config.IncludeIDs,
		enabled:    config.Enabled,
	}
}

// Log writes the action. Failed actions are logged at warn level.
func (al *AuditLogger) Log(ctx context.Context, a *Action) {
	if al == nil || !al.enabled || a == nil {
		return
	}

	level := slog.LevelInfo
	msg := "action_executed"
	if !a.Success {
		level = slog.LevelWarn
		msg = "action_failed"
	}
	al.logger.LogAttrs(ctx, level, msg, a.LogAttrs(al.includeIDs)...)
}
