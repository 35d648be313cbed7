package common

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/smartinbox/internal/inbox"
	"github.com/teemow/smartinbox/internal/instrumentation"
	"github.com/teemow/smartinbox/internal/server"
)

func newTestServerContext(t *testing.T, provider *instrumentation.Provider) *server.ServerContext {
	t.Helper()
	queue := inbox.NewQueue()
	in, err := inbox.New(inbox.Options{
		NewMail: func(context.Context, string) (inbox.Mail, error) {
			return nil, errors.New("no transport in tests")
		},
		Notifier: queue,
	})
	if err != nil {
		t.Fatalf("failed to create inbox: %v", err)
	}
	sc, err := server.NewServerContext(context.Background(), server.Options{
		Inbox:         in,
		Notifications: queue,
		Provider:      provider,
	})
	if err != nil {
		t.Fatalf("failed to create server context: %v", err)
	}
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func newTestProvider(t *testing.T) *instrumentation.Provider {
	t.Helper()
	ctx := context.Background()
	provider, err := instrumentation.NewProvider(ctx, instrumentation.Config{
		ServiceName:     "test-service",
		ServiceVersion:  "1.0.0",
		Enabled:         true,
		MetricsExporter: "stdout",
		TracingExporter: "none",
	})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	t.Cleanup(func() { _ = provider.Shutdown(ctx) })
	return provider
}

func TestInstrumentedToolHandler_Success(t *testing.T) {
	sc := newTestServerContext(t, nil)

	called := false
	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		called = true
		if ActionFromContext(ctx) == nil {
			t.Error("expected an action in the handler context")
		}
		return mcp.NewToolResultText("success"), nil
	}

	result, err := InstrumentedToolHandler("test_tool", sc, handler)(context.Background(), mcp.CallToolRequest{})

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if !called {
		t.Error("expected handler to be called")
	}
	if got := ResultText(result); got != "success" {
		t.Errorf("ResultText() = %q, want %q", got, "success")
	}
	if len(result.Content) != 1 {
		t.Errorf("expected no notification block, got %d content blocks", len(result.Content))
	}
}

func TestInstrumentedToolHandler_Error(t *testing.T) {
	sc := newTestServerContext(t, newTestProvider(t))

	expectedErr := errors.New("test error")
	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return nil, expectedErr
	}

	_, err := InstrumentedToolHandler("test_tool", sc, handler)(context.Background(), mcp.CallToolRequest{})

	if err != expectedErr {
		t.Errorf("expected error %v, got %v", expectedErr, err)
	}
}

func TestInstrumentedToolHandler_ErrorResult(t *testing.T) {
	sc := newTestServerContext(t, newTestProvider(t))

	var action *instrumentation.Action
	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		action = ActionFromContext(ctx)
		return mcp.NewToolResultError("error message"), nil
	}

	result, err := InstrumentedToolHandler("test_tool", sc, handler)(context.Background(), mcp.CallToolRequest{})

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if result == nil || !result.IsError {
		t.Fatal("expected an error result")
	}
	if action.Success {
		t.Error("expected the action to be recorded as failed")
	}
	if action.Error != "error message" {
		t.Errorf("action error = %q, want %q", action.Error, "error message")
	}
}

func TestInstrumentedToolHandler_RecordsMessagesAndMutation(t *testing.T) {
	sc := newTestServerContext(t, nil)

	var action *instrumentation.Action
	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		RecordMessages(ctx, "m1", "m2")
		RecordMutation(ctx, "mut-1")
		action = ActionFromContext(ctx)
		return mcp.NewToolResultText("ok"), nil
	}

	_, _ = InstrumentedToolHandler("inbox_apply_label", sc, handler)(context.Background(), mcp.CallToolRequest{})

	if len(action.MessageIDs) != 2 || action.MutationID != "mut-1" {
		t.Errorf("unexpected action: %+v", action)
	}
	if !action.Success {
		t.Error("expected success")
	}
}

func TestInstrumentedToolHandler_AppendsNotifications(t *testing.T) {
	sc := newTestServerContext(t, nil)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sc.Notifications().Notify(inbox.MsgApplyLabelFailed)
		return mcp.NewToolResultError("failed"), nil
	}

	result, _ := InstrumentedToolHandler("inbox_apply_label", sc, handler)(context.Background(), mcp.CallToolRequest{})

	if len(result.Content) != 2 {
		t.Fatalf("expected 2 content blocks, got %d", len(result.Content))
	}
	block, ok := result.Content[1].(mcp.TextContent)
	if !ok {
		t.Fatalf("unexpected content type %T", result.Content[1])
	}
	if !strings.Contains(block.Text, inbox.MsgApplyLabelFailed) {
		t.Errorf("notification block = %q", block.Text)
	}
	if sc.Notifications().Len() != 0 {
		t.Error("expected the queue to be drained")
	}
}

func TestRecordHelpersOutsideHandler(t *testing.T) {
	// Must not panic without an action in context.
	RecordMessages(context.Background(), "m1")
	RecordMutation(context.Background(), "mut")
}

func TestFormatNotifications(t *testing.T) {
	got := FormatNotifications([]string{"a", "b"})
	want := "Notifications:\n- a\n- b"
	if got != want {
		t.Errorf("FormatNotifications() = %q, want %q", got, want)
	}
	if AppendNotifications(nil, []string{"a"}) != nil {
		t.Error("expected nil result to stay nil")
	}
}
