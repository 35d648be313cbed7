package inbox_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/smartinbox/internal/mail"
	"github.com/teemow/smartinbox/internal/server"
	"github.com/teemow/smartinbox/internal/tools/common"
)

// RegisterLabelTools registers label and filter tools
func RegisterLabelTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	listLabelsTool := mcp.NewTool("inbox_list_labels",
		mcp.WithDescription("List the Gmail labels loaded with the inbox"),
		mcp.WithBoolean("userOnly",
			mcp.Description("Only list labels created by the user (default: false)"),
		),
	)
	s.AddTool(listLabelsTool, common.InstrumentedToolHandler("inbox_list_labels", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListLabels(ctx, request, sc)
		}))

	listFiltersTool := mcp.NewTool("inbox_list_filters",
		mcp.WithDescription("List Gmail filters"),
	)
	s.AddTool(listFiltersTool, common.InstrumentedToolHandler("inbox_list_filters", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListFilters(ctx, request, sc)
		}))

	if readOnly {
		return nil
	}

	createLabelTool := mcp.NewTool("inbox_create_label",
		mcp.WithDescription("Create a Gmail label visible in the label and message lists"),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Name of the new label"),
		),
	)
	s.AddTool(createLabelTool, common.InstrumentedToolHandler("inbox_create_label", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCreateLabel(ctx, request, sc)
		}))

	deleteLabelTool := mcp.NewTool("inbox_delete_label",
		mcp.WithDescription("Delete a Gmail label"),
		mcp.WithString("labelId",
			mcp.Required(),
			mcp.Description("The ID of the label to delete"),
		),
	)
	s.AddTool(deleteLabelTool, common.InstrumentedToolHandler("inbox_delete_label", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleDeleteLabel(ctx, request, sc)
		}))

	createFilterTool := mcp.NewTool("inbox_create_filter",
		mcp.WithDescription("Create a Gmail filter that applies a label to matching incoming mail. At least one criterion is required."),
		mcp.WithString("from",
			mcp.Description("Sender to match"),
		),
		mcp.WithString("subject",
			mcp.Description("Words in the subject line"),
		),
		mcp.WithString("query",
			mcp.Description("Gmail search query"),
		),
		mcp.WithString("labelId",
			mcp.Required(),
			mcp.Description("The ID of the label to apply"),
		),
	)
	s.AddTool(createFilterTool, common.InstrumentedToolHandler("inbox_create_filter", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCreateFilter(ctx, request, sc)
		}))

	deleteFilterTool := mcp.NewTool("inbox_delete_filter",
		mcp.WithDescription("Delete a Gmail filter"),
		mcp.WithString("filterId",
			mcp.Required(),
			mcp.Description("The ID of the filter to delete"),
		),
	)
	s.AddTool(deleteFilterTool, common.InstrumentedToolHandler("inbox_delete_filter", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleDeleteFilter(ctx, request, sc)
		}))

	return nil
}

func handleListLabels(_ context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	in := sc.Inbox()
	if !in.Authenticated() {
		return mcp.NewToolResultError(notAuthenticatedMessage(sc)), nil
	}

	labels := in.Labels()
	if userOnly, ok := request.GetArguments()["userOnly"].(bool); ok && userOnly {
		labels = in.UserLabels()
	}

	lines := []string{fmt.Sprintf("Found %d labels:", len(labels))}
	for _, l := range labels {
		lines = append(lines, fmt.Sprintf("- %s (ID: %s, %s)", l.Name, l.ID, l.Type))
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func handleCreateLabel(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	name := strings.TrimSpace(stringArg(request.GetArguments(), "name"))
	if name == "" {
		return mcp.NewToolResultError("name is required"), nil
	}

	label, err := sc.Inbox().CreateLabel(ctx, name)
	if err != nil {
		return errorResult("create label", err, sc), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Label created: %s (ID: %s)", label.Name, label.ID)), nil
}

func handleDeleteLabel(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	id := stringArg(request.GetArguments(), "labelId")
	if id == "" {
		return mcp.NewToolResultError("labelId is required"), nil
	}

	if err := sc.Inbox().DeleteLabel(ctx, id); err != nil {
		return errorResult("delete label", err, sc), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Label %s deleted.", id)), nil
}

func handleCreateFilter(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	criteria := mail.FilterCriteria{
		From:    stringArg(args, "from"),
		Subject: stringArg(args, "subject"),
		Query:   stringArg(args, "query"),
	}
	if criteria.Empty() {
		return mcp.NewToolResultError("at least one of from, subject or query is required"), nil
	}
	labelID := stringArg(args, "labelId")
	if labelID == "" {
		return mcp.NewToolResultError("labelId is required"), nil
	}

	if err := sc.Inbox().CreateFilter(ctx, criteria, labelID); err != nil {
		return errorResult("create filter", err, sc), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Filter created for label %s.", labelID)), nil
}

func handleListFilters(ctx context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	filters, err := sc.Inbox().ListFilters(ctx)
	if err != nil {
		return errorResult("list filters", err, sc), nil
	}

	lines := []string{fmt.Sprintf("Found %d filters:", len(filters))}
	for _, f := range filters {
		var parts []string
		if f.Criteria.From != "" {
			parts = append(parts, "from:"+f.Criteria.From)
		}
		if f.Criteria.Subject != "" {
			parts = append(parts, "subject:"+f.Criteria.Subject)
		}
		if f.Criteria.Query != "" {
			parts = append(parts, "query:"+f.Criteria.Query)
		}
		lines = append(lines, fmt.Sprintf("- %s: %s -> %s", f.ID, strings.Join(parts, " "), strings.Join(f.AddLabelIDs, ", ")))
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func handleDeleteFilter(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	id := stringArg(request.GetArguments(), "filterId")
	if id == "" {
		return mcp.NewToolResultError("filterId is required"), nil
	}

	if err := sc.Inbox().DeleteFilter(ctx, id); err != nil {
		return errorResult("delete filter", err, sc), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Filter %s deleted.", id)), nil
}
