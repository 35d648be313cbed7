package inbox_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/smartinbox/internal/mutation"
	"github.com/teemow/smartinbox/internal/server"
	"github.com/teemow/smartinbox/internal/tools/batch"
	"github.com/teemow/smartinbox/internal/tools/common"
)

// RegisterMessageTools registers tools for browsing and labelling messages
func RegisterMessageTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	loadTool := mcp.NewTool("inbox_load",
		mcp.WithDescription("Load one page of messages matching a Gmail search query, together with all labels"),
		mcp.WithString("query",
			mcp.Description("Gmail search query (default: 'in:inbox')"),
		),
	)
	s.AddTool(loadTool, common.InstrumentedToolHandler("inbox_load", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleLoad(ctx, request, sc)
		}))

	listTool := mcp.NewTool("inbox_list",
		mcp.WithDescription("List the currently loaded messages with labels, selection marks and sentiment"),
	)
	s.AddTool(listTool, common.InstrumentedToolHandler("inbox_list", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleList(ctx, request, sc)
		}))

	openTool := mcp.NewTool("inbox_open",
		mcp.WithDescription("Open a loaded message and show its full body"),
		mcp.WithString("messageId",
			mcp.Required(),
			mcp.Description("The ID of the message to open"),
		),
	)
	s.AddTool(openTool, common.InstrumentedToolHandler("inbox_open", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleOpen(ctx, request, sc)
		}))

	toggleTool := mcp.NewTool("inbox_toggle_select",
		mcp.WithDescription("Toggle one or more messages in the bulk selection"),
		mcp.WithString("messageIds",
			mcp.Required(),
			mcp.Description("Message ID (string) or array of message IDs"),
		),
	)
	s.AddTool(toggleTool, common.InstrumentedToolHandler("inbox_toggle_select", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleToggleSelect(ctx, request, sc)
		}))

	clearTool := mcp.NewTool("inbox_clear_selection",
		mcp.WithDescription("Clear the bulk selection"),
	)
	s.AddTool(clearTool, common.InstrumentedToolHandler("inbox_clear_selection", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			sc.Inbox().ClearSelection()
			return mcp.NewToolResultText("Selection cleared."), nil
		}))

	sentimentTool := mcp.NewTool("inbox_analyze_sentiment",
		mcp.WithDescription("Classify the loaded messages as Positive, Negative or Neutral in one request"),
	)
	s.AddTool(sentimentTool, common.InstrumentedToolHandler("inbox_analyze_sentiment", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleAnalyzeSentiment(ctx, request, sc)
		}))

	summarizeTool := mcp.NewTool("inbox_summarize",
		mcp.WithDescription("Summarize a loaded message in bullet points with action items"),
		mcp.WithString("messageId",
			mcp.Required(),
			mcp.Description("The ID of the message to summarize"),
		),
	)
	s.AddTool(summarizeTool, common.InstrumentedToolHandler("inbox_summarize", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSummarize(ctx, request, sc)
		}))

	if readOnly {
		return nil
	}

	applyTool := mcp.NewTool("inbox_apply_label",
		mcp.WithDescription("Add a label to one or more messages. The change shows immediately and stays even if Gmail rejects it."),
		mcp.WithString("messageIds",
			mcp.Required(),
			mcp.Description("Message ID (string) or array of message IDs"),
		),
		mcp.WithString("labelId",
			mcp.Required(),
			mcp.Description("The ID of the label to add"),
		),
	)
	s.AddTool(applyTool, common.InstrumentedToolHandler("inbox_apply_label", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleModifyLabel(ctx, request, sc, true)
		}))

	removeTool := mcp.NewTool("inbox_remove_label",
		mcp.WithDescription("Remove a label from one or more messages. The change shows immediately and stays even if Gmail rejects it."),
		mcp.WithString("messageIds",
			mcp.Required(),
			mcp.Description("Message ID (string) or array of message IDs"),
		),
		mcp.WithString("labelId",
			mcp.Required(),
			mcp.Description("The ID of the label to remove"),
		),
	)
	s.AddTool(removeTool, common.InstrumentedToolHandler("inbox_remove_label", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleModifyLabel(ctx, request, sc, false)
		}))

	bulkTool := mcp.NewTool("inbox_bulk_apply_label",
		mcp.WithDescription("Add a label to every selected message with one batch request, then reload the view. The selection is cleared either way."),
		mcp.WithString("labelId",
			mcp.Required(),
			mcp.Description("The ID of the label to add"),
		),
	)
	s.AddTool(bulkTool, common.InstrumentedToolHandler("inbox_bulk_apply_label", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleBulkApplyLabel(ctx, request, sc)
		}))

	return nil
}

func handleLoad(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	query := stringArg(request.GetArguments(), "query")
	if err := sc.Inbox().Search(ctx, query); err != nil {
		return errorResult("load messages", err, sc), nil
	}
	return handleList(ctx, request, sc)
}

func handleList(_ context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	in := sc.Inbox()
	if !in.Authenticated() {
		return mcp.NewToolResultError(notAuthenticatedMessage(sc)), nil
	}

	msgs := in.Messages()
	selected := make(map[string]bool)
	for _, id := range in.Selection() {
		selected[id] = true
	}

	lines := make([]string, 0, len(msgs)+1)
	lines = append(lines, fmt.Sprintf("Query: %s\nFound %d messages (%d selected):", in.Query(), len(msgs), len(selected)))
	for i, m := range msgs {
		lines = append(lines, formatMessageLine(i, m, in.DisplayLabels(m), selected[m.ID]))
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func handleOpen(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	id := stringArg(request.GetArguments(), "messageId")
	if id == "" {
		return mcp.NewToolResultError("messageId is required"), nil
	}
	common.RecordMessages(ctx, id)

	in := sc.Inbox()
	m, err := in.Open(id)
	if err != nil {
		return errorResult("open message", err, sc), nil
	}
	return mcp.NewToolResultText(formatMessage(m, in.DisplayLabels(m))), nil
}

func handleToggleSelect(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	ids, err := batch.ParseStringOrArray(request.GetArguments()["messageIds"], "messageIds")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	common.RecordMessages(ctx, ids...)

	in := sc.Inbox()
	results := batch.ProcessBatch(ids, func(id string) (string, error) {
		if in.ToggleSelection(id) {
			return "selected", nil
		}
		return "deselected", nil
	})
	return mcp.NewToolResultText(batch.FormatResults(results)), nil
}

func handleModifyLabel(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext, add bool) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	ids, err := batch.ParseStringOrArray(args["messageIds"], "messageIds")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	labelID := stringArg(args, "labelId")
	if labelID == "" {
		return mcp.NewToolResultError("labelId is required"), nil
	}
	common.RecordMessages(ctx, ids...)

	in := sc.Inbox()
	results := make([]batch.Result, 0, len(ids))
	for _, id := range ids {
		var (
			m   *mutation.Mutation
			err error
		)
		if add {
			m, err = in.ApplyLabel(ctx, id, labelID)
		} else {
			m, err = in.RemoveLabel(ctx, id, labelID)
		}
		if m == nil {
			// No mutation was started: the session is missing.
			return errorResult("modify labels", err, sc), nil
		}
		common.RecordMutation(ctx, m.ID)
		results = append(results, batch.FromMutation(m))
	}
	return mcp.NewToolResultText(batch.FormatResults(results)), nil
}

func handleBulkApplyLabel(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	labelID := stringArg(request.GetArguments(), "labelId")
	if labelID == "" {
		return mcp.NewToolResultError("labelId is required"), nil
	}

	in := sc.Inbox()
	selection := in.Selection()
	if len(selection) == 0 {
		return mcp.NewToolResultText("No messages selected."), nil
	}
	common.RecordMessages(ctx, selection...)

	m, err := in.BulkApplyLabel(ctx, labelID)
	if m != nil {
		common.RecordMutation(ctx, m.ID)
	}
	if err != nil {
		return errorResult("apply label in bulk", err, sc), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Applied label %s to %d messages and reloaded %d messages.",
		labelID, len(selection), len(in.Messages()))), nil
}

func handleAnalyzeSentiment(ctx context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	in := sc.Inbox()
	if !in.Authenticated() {
		return mcp.NewToolResultError(notAuthenticatedMessage(sc)), nil
	}

	result, err := in.AnalyzeSentiment(ctx)
	if err != nil {
		return errorResult("analyze sentiment", err, sc), nil
	}

	msgs := in.Messages()
	lines := []string{fmt.Sprintf("Classified %d of %d messages:", len(result), len(msgs))}
	for _, m := range msgs {
		s := string(m.Sentiment)
		if s == "" {
			s = "unknown"
		}
		lines = append(lines, fmt.Sprintf("- %s (%s): %s", m.ID, m.Subject, s))
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func handleSummarize(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	id := stringArg(request.GetArguments(), "messageId")
	if id == "" {
		return mcp.NewToolResultError("messageId is required"), nil
	}
	common.RecordMessages(ctx, id)

	summary, err := sc.Inbox().Summarize(ctx, id)
	if err != nil {
		return errorResult("summarize message", err, sc), nil
	}
	return mcp.NewToolResultText(summary), nil
}
