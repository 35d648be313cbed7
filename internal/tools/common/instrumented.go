package common

import (
	"context"
	"errors"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/smartinbox/internal/instrumentation"
	"github.com/teemow/smartinbox/internal/server"
)

// ToolHandler is the signature of an MCP tool handler.
type ToolHandler = func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

type actionKey struct{}

// ActionFromContext returns the audit record of the running tool call, or
// nil outside an instrumented handler.
func ActionFromContext(ctx context.Context) *instrumentation.Action {
	a, _ := ctx.Value(actionKey{}).(*instrumentation.Action)
	return a
}

// RecordMessages adds message ids to the audit record of the running call.
func RecordMessages(ctx context.Context, ids ...string) {
	if a := ActionFromContext(ctx); a != nil {
		a.WithMessages(ids...)
	}
}

// RecordMutation links the running call to a label mutation.
func RecordMutation(ctx context.Context, id string) {
	if a := ActionFromContext(ctx); a != nil {
		a.WithMutation(id)
	}
}

// InstrumentedToolHandler wraps a tool handler with a span, metrics, audit
// logging and notification delivery. Notifications raised while the handler
// ran are appended to its result.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", sc, handler))
func InstrumentedToolHandler(toolName string, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx, span := instrumentation.StartToolSpan(ctx, toolName)
		defer span.End()

		start := time.Now()
		action := instrumentation.NewAction(toolName).WithSpanContext(ctx)
		ctx = context.WithValue(ctx, actionKey{}, action)

		result, err := handler(ctx, request)
		duration := time.Since(start)

		status := instrumentation.StatusSuccess
		switch {
		case err != nil:
			status = instrumentation.StatusError
			action.Complete(err)
			instrumentation.SetSpanError(span, err)
		case result != nil && result.IsError:
			status = instrumentation.StatusError
			resultErr := errors.New(ResultText(result))
			action.Complete(resultErr)
			instrumentation.SetSpanError(span, resultErr)
		default:
			action.Complete(nil)
			instrumentation.SetSpanSuccess(span)
		}

		sc.Metrics().RecordToolInvocation(ctx, toolName, status, duration)
		sc.AuditLogger().Log(ctx, action)

		return AppendNotifications(result, sc.Notifications().Drain()), err
	}
}

// AppendNotifications adds notices to result as one extra text block.
func AppendNotifications(result *mcp.CallToolResult, notices []string) *mcp.CallToolResult {
	if result == nil || len(notices) == 0 {
		return result
	}
	result.Content = append(result.Content, mcp.TextContent{Type: "text", Text: FormatNotifications(notices)})
	return result
}

// FormatNotifications renders notices as a bulleted block.
func FormatNotifications(notices []string) string {
	text := "Notifications:"
	for _, n := range notices {
		text += "\n- " + n
	}
	return text
}

// ResultText returns the text of the first text block in result.
func ResultText(result *mcp.CallToolResult) string {
	if result == nil {
		return ""
	}
	for _, c := range result.Content {
		switch tc := c.(type) {
		case mcp.TextContent:
			return tc.Text
		case *mcp.TextContent:
			return tc.Text
		}
	}
	return ""
}
