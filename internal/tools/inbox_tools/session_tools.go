package inbox_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/smartinbox/internal/server"
	"github.com/teemow/smartinbox/internal/session"
	"github.com/teemow/smartinbox/internal/tools/common"
)

// RegisterSessionTools registers sign-in and notification tools
func RegisterSessionTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	authURLTool := mcp.NewTool("inbox_auth_url",
		mcp.WithDescription("Get the Google sign-in URL that returns a Gmail access token"),
	)
	s.AddTool(authURLTool, common.InstrumentedToolHandler("inbox_auth_url", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleAuthURL(ctx, request, sc)
		}))

	loginTool := mcp.NewTool("inbox_login",
		mcp.WithDescription("Start a Gmail session and load the inbox. Accepts a raw access token or the redirect URL containing #access_token=..."),
		mcp.WithString("token",
			mcp.Description("Gmail OAuth access token"),
		),
		mcp.WithString("redirect",
			mcp.Description("Redirect URL or fragment returned by the sign-in page"),
		),
	)
	s.AddTool(loginTool, common.InstrumentedToolHandler("inbox_login", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleLogin(ctx, request, sc)
		}))

	logoutTool := mcp.NewTool("inbox_logout",
		mcp.WithDescription("End the Gmail session and drop all loaded data"),
	)
	s.AddTool(logoutTool, common.InstrumentedToolHandler("inbox_logout", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleLogout(ctx, request, sc)
		}))

	notificationsTool := mcp.NewTool("inbox_notifications",
		mcp.WithDescription("Return and clear pending user notifications"),
	)
	s.AddTool(notificationsTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleNotifications(ctx, request, sc)
	})

	return nil
}

func handleAuthURL(_ context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	url, err := session.AuthURL(sc.AuthConfig())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to build sign-in URL: %v", err)), nil
	}
	return mcp.NewToolResultText(url), nil
}

func handleLogin(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	token := stringArg(args, "token")
	if redirect := stringArg(args, "redirect"); token == "" && redirect != "" {
		var err error
		token, err = session.TokenFromFragment(redirect)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to read access token: %v", err)), nil
		}
	}
	if token == "" {
		return mcp.NewToolResultError("either token or redirect is required"), nil
	}

	in := sc.Inbox()
	in.Login(token)
	if err := in.Load(ctx, ""); err != nil {
		return errorResult("load inbox", err, sc), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Signed in. Loaded %d messages and %d labels.",
		len(in.Messages()), len(in.Labels()))), nil
}

func handleLogout(_ context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	sc.Inbox().Logout()
	return mcp.NewToolResultText("Signed out."), nil
}

func handleNotifications(_ context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	notices := sc.Notifications().Drain()
	if len(notices) == 0 {
		return mcp.NewToolResultText("No notifications."), nil
	}
	return mcp.NewToolResultText(common.FormatNotifications(notices)), nil
}
