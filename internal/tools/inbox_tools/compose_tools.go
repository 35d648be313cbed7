package inbox_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/smartinbox/internal/completion"
	"github.com/teemow/smartinbox/internal/server"
	"github.com/teemow/smartinbox/internal/tools/common"
)

const toneDescription = "Tone of the email: Professional, Casual, Direct or Empathetic (default: Professional)"

// RegisterComposeTools registers drafting and sending tools
func RegisterComposeTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	draftTool := mcp.NewTool("inbox_draft",
		mcp.WithDescription("Draft an email body from a short statement of intent"),
		mcp.WithString("intent",
			mcp.Required(),
			mcp.Description("What the email should say"),
		),
		mcp.WithString("tone",
			mcp.Description(toneDescription),
		),
		mcp.WithString("recipient",
			mcp.Description("Recipient email address"),
		),
		mcp.WithString("subject",
			mcp.Description("Subject line"),
		),
		mcp.WithString("originalContent",
			mcp.Description("Body of the email being replied to"),
		),
	)
	s.AddTool(draftTool, common.InstrumentedToolHandler("inbox_draft", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleDraft(ctx, request, sc)
		}))

	replyTool := mcp.NewTool("inbox_reply",
		mcp.WithDescription("Prefill a reply to a loaded message and draft its body"),
		mcp.WithString("messageId",
			mcp.Required(),
			mcp.Description("The ID of the message to reply to"),
		),
		mcp.WithString("intent",
			mcp.Description("What the reply should say (default: acknowledge receipt and thank them)"),
		),
		mcp.WithString("tone",
			mcp.Description(toneDescription),
		),
	)
	s.AddTool(replyTool, common.InstrumentedToolHandler("inbox_reply", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleReply(ctx, request, sc)
		}))

	if readOnly {
		return nil
	}

	sendTool := mcp.NewTool("inbox_send",
		mcp.WithDescription("Send a plain-text email and reload the inbox"),
		mcp.WithString("to",
			mcp.Required(),
			mcp.Description("Recipient email address"),
		),
		mcp.WithString("subject",
			mcp.Required(),
			mcp.Description("Email subject"),
		),
		mcp.WithString("body",
			mcp.Description("Email body content"),
		),
	)
	s.AddTool(sendTool, common.InstrumentedToolHandler("inbox_send", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSend(ctx, request, sc)
		}))

	return nil
}

func parseTone(args map[string]interface{}) (completion.Tone, error) {
	return completion.ParseTone(stringArg(args, "tone"))
}

func handleDraft(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	intent := stringArg(args, "intent")
	if intent == "" {
		return mcp.NewToolResultError("intent is required"), nil
	}
	tone, err := parseTone(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	draft, err := sc.Inbox().Draft(ctx, completion.DraftRequest{
		Intent:          intent,
		Tone:            tone,
		Recipient:       stringArg(args, "recipient"),
		Subject:         stringArg(args, "subject"),
		OriginalContent: stringArg(args, "originalContent"),
	})
	if err != nil {
		return errorResult("draft email", err, sc), nil
	}
	return mcp.NewToolResultText(draft), nil
}

func handleReply(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	id := stringArg(args, "messageId")
	if id == "" {
		return mcp.NewToolResultError("messageId is required"), nil
	}
	tone, err := parseTone(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	common.RecordMessages(ctx, id)

	in := sc.Inbox()
	reply, err := in.ComposeReply(id)
	if err != nil {
		return errorResult("compose reply", err, sc), nil
	}
	if intent := stringArg(args, "intent"); intent != "" {
		reply.Intent = intent
	}

	draft, err := in.Draft(ctx, reply.DraftRequest(tone))
	if err != nil {
		return errorResult("draft reply", err, sc), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("To: %s\nSubject: %s\n\n%s", reply.To, reply.Subject, draft)), nil
}

func handleSend(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	to := stringArg(args, "to")
	if to == "" {
		return mcp.NewToolResultError("'to' field is required"), nil
	}
	subject := stringArg(args, "subject")
	if subject == "" {
		return mcp.NewToolResultError("'subject' field is required"), nil
	}

	if err := sc.Inbox().Send(ctx, to, subject, stringArg(args, "body")); err != nil {
		return errorResult("send email", err, sc), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("To: %s\nSubject: %s", to, subject)), nil
}
