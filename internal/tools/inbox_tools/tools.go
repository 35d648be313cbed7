package inbox_tools

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/smartinbox/internal/inbox"
	"github.com/teemow/smartinbox/internal/mail"
	"github.com/teemow/smartinbox/internal/server"
	"github.com/teemow/smartinbox/internal/session"
)

// RegisterInboxTools registers all inbox tools with the MCP server. In
// read-only mode tools that change the mailbox are left out.
func RegisterInboxTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	if err := RegisterSessionTools(s, sc); err != nil {
		return fmt.Errorf("failed to register session tools: %w", err)
	}

	if err := RegisterMessageTools(s, sc, readOnly); err != nil {
		return fmt.Errorf("failed to register message tools: %w", err)
	}

	if err := RegisterLabelTools(s, sc, readOnly); err != nil {
		return fmt.Errorf("failed to register label tools: %w", err)
	}

	if err := RegisterComposeTools(s, sc, readOnly); err != nil {
		return fmt.Errorf("failed to register compose tools: %w", err)
	}

	return nil
}

// stringArg returns args[name] when it is a string.
func stringArg(args map[string]interface{}, name string) string {
	if v, ok := args[name].(string); ok {
		return v
	}
	return ""
}

// errorResult turns an inbox error into a tool error. A missing session
// gets sign-in instructions.
func errorResult(action string, err error, sc *server.ServerContext) *mcp.CallToolResult {
	if errors.Is(err, inbox.ErrNotAuthenticated) || errors.Is(err, mail.ErrUnauthorized) {
		return mcp.NewToolResultError(notAuthenticatedMessage(sc))
	}
	return mcp.NewToolResultError(fmt.Sprintf("Failed to %s: %v", action, err))
}

func notAuthenticatedMessage(sc *server.ServerContext) string {
	authURL, err := session.AuthURL(sc.AuthConfig())
	if err != nil {
		return `No Gmail session. Provide an access token with the inbox_login tool.`
	}
	return fmt.Sprintf(`No Gmail session. To sign in:

1. Visit this URL in your browser:
   %s

2. Sign in with your Google account and grant access
3. Copy the full URL you are redirected to (it contains #access_token=...)

4. Provide it to your AI agent
   The agent will use the inbox_login tool with redirect="<url>" to start the session.

Note: the token is kept in memory only and expires after about an hour.`, authURL)
}

// formatMessageLine renders one message of the list view.
func formatMessageLine(i int, m *mail.Message, labels []mail.Label, selected bool) string {
	var b strings.Builder
	mark := " "
	if selected {
		mark = "x"
	}
	fmt.Fprintf(&b, "%d. [%s] %s | From: %s | Subject: %s", i+1, mark, m.ID, m.From, m.Subject)
	if names := labelNames(labels); names != "" {
		fmt.Fprintf(&b, " | Labels: %s", names)
	}
	if m.Sentiment != "" {
		fmt.Fprintf(&b, " | Sentiment: %s", m.Sentiment)
	}
	if m.Snippet != "" {
		fmt.Fprintf(&b, "\n   %s", m.Snippet)
	}
	return b.String()
}

func labelNames(labels []mail.Label) string {
	names := make([]string, 0, len(labels))
	for _, l := range labels {
		names = append(names, l.Name)
	}
	return strings.Join(names, ", ")
}

func formatMessage(m *mail.Message, labels []mail.Label) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Message ID: %s\nThread ID: %s\nFrom: %s\nDate: %s\nSubject: %s\n", m.ID, m.ThreadID, m.From, m.Date, m.Subject)
	if names := labelNames(labels); names != "" {
		fmt.Fprintf(&b, "Labels: %s\n", names)
	}
	if m.Sentiment != "" {
		fmt.Fprintf(&b, "Sentiment: %s\n", m.Sentiment)
	}
	fmt.Fprintf(&b, "\n%s", m.Body)
	return b.String()
}
