package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/smartinbox/internal/inbox"
	"github.com/teemow/smartinbox/internal/server"
)

func newGenerateDocsCmd() *cobra.Command {
	var (
		outputFile string
	)

	cmd := &cobra.Command{
		Use:   "generate-docs",
		Short: "Generate MCP tool documentation",
		Long: `Generate markdown documentation for all available MCP tools.
This command introspects the registered tools and outputs their documentation
in markdown format, ensuring the documentation is always accurate and in sync
with the actual tool implementations.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerateDocs(outputFile)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

func runGenerateDocs(outputFile string) error {
	all, err := listTools(false)
	if err != nil {
		return err
	}
	readOnly, err := listTools(true)
	if err != nil {
		return err
	}

	markdown := generateToolsMarkdown(all, writeTools(all, readOnly))

	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(markdown), 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Documentation written to: %s\n", outputFile)
	} else {
		fmt.Print(markdown)
	}

	return nil
}

// listTools registers the tools against a throwaway inbox and returns their
// definitions.
func listTools(readOnly bool) ([]mcp.Tool, error) {
	ctx := context.Background()
	in, err := inbox.New(inbox.Options{
		NewMail: func(context.Context, string) (inbox.Mail, error) {
			return nil, fmt.Errorf("not available during doc generation")
		},
	})
	if err != nil {
		return nil, err
	}
	serverContext, err := server.NewServerContext(ctx, server.Options{
		Inbox:         in,
		Notifications: inbox.NewQueue(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		_ = serverContext.Shutdown()
	}()

	mcpSrv := mcpserver.NewMCPServer("smartinbox", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false), // Subscribe and listChanged
	)
	if err := registerAllTools(mcpSrv, serverContext, readOnly); err != nil {
		return nil, err
	}

	serverTools := mcpSrv.ListTools()
	tools := make([]mcp.Tool, 0, len(serverTools))
	for _, serverTool := range serverTools {
		tools = append(tools, serverTool.Tool)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })
	return tools, nil
}

// writeTools returns the names present in all but missing in read-only mode.
func writeTools(all, readOnly []mcp.Tool) map[string]bool {
	safe := make(map[string]bool, len(readOnly))
	for _, t := range readOnly {
		safe[t.Name] = true
	}
	write := make(map[string]bool)
	for _, t := range all {
		if !safe[t.Name] {
			write[t.Name] = true
		}
	}
	return write
}

var toolCategories = map[string]string{
	"inbox_auth_url":          "Session Tools",
	"inbox_login":             "Session Tools",
	"inbox_logout":            "Session Tools",
	"inbox_notifications":     "Session Tools",
	"inbox_list_labels":       "Label Tools",
	"inbox_create_label":      "Label Tools",
	"inbox_delete_label":      "Label Tools",
	"inbox_list_filters":      "Label Tools",
	"inbox_create_filter":     "Label Tools",
	"inbox_delete_filter":     "Label Tools",
	"inbox_draft":             "Compose Tools",
	"inbox_reply":             "Compose Tools",
	"inbox_send":              "Compose Tools",
	"inbox_analyze_sentiment": "AI Tools",
	"inbox_summarize":         "AI Tools",
}

func getCategoryFromToolName(name string) string {
	if category, ok := toolCategories[name]; ok {
		return category
	}
	if strings.HasPrefix(name, "inbox_") {
		return "Message Tools"
	}
	return "Other"
}

// generateToolsMarkdown renders tools grouped by category. Tools in write
// are marked as requiring --yolo.
func generateToolsMarkdown(tools []mcp.Tool, write map[string]bool) string {
	byCategory := make(map[string][]mcp.Tool)
	for _, tool := range tools {
		c := getCategoryFromToolName(tool.Name)
		byCategory[c] = append(byCategory[c], tool)
	}
	categories := make([]string, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	var sb strings.Builder
	sb.WriteString("# MCP Tools Reference\n\n")
	sb.WriteString("All tools available when running `smartinbox serve`. Generated from the tool definitions; do not edit by hand.\n\n")

	sb.WriteString("## Table of Contents\n\n")
	for _, c := range categories {
		fmt.Fprintf(&sb, "- [%s](#%s)\n", c, strings.ToLower(strings.ReplaceAll(c, " ", "-")))
	}

	sb.WriteString("\n## Sessions\n\n")
	sb.WriteString("Most tools need a Gmail session. Call `inbox_auth_url`, sign in, and pass the redirect URL to `inbox_login`.\n")
	sb.WriteString("Tools marked *write* are only registered when the server runs with `--yolo`.\n")
	sb.WriteString("Pending notifications are appended to every tool result and can be fetched with `inbox_notifications`.\n")

	for _, c := range categories {
		fmt.Fprintf(&sb, "\n## %s\n", c)
		group := byCategory[c]
		sort.Slice(group, func(i, j int) bool { return group[i].Name < group[j].Name })
		for _, tool := range group {
			sb.WriteString("\n")
			writeToolMarkdown(&sb, tool, write[tool.Name])
		}
	}

	return sb.String()
}

func writeToolMarkdown(sb *strings.Builder, tool mcp.Tool, write bool) {
	fmt.Fprintf(sb, "### %s", tool.Name)
	if write {
		sb.WriteString(" *(write)*")
	}
	sb.WriteString("\n\n")
	if tool.Description != "" {
		fmt.Fprintf(sb, "%s\n\n", tool.Description)
	}

	props := tool.InputSchema.Properties
	if len(props) == 0 {
		return
	}
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	required := make(map[string]bool, len(tool.InputSchema.Required))
	for _, name := range tool.InputSchema.Required {
		required[name] = true
	}

	sb.WriteString("**Arguments:**\n")
	for _, name := range names {
		prop, ok := props[name].(map[string]interface{})
		if !ok {
			continue
		}
		presence := "optional"
		if required[name] {
			presence = "required"
		}
		desc, _ := prop["description"].(string)
		if desc == "" {
			typ, _ := prop["type"].(string)
			if typ == "" {
				typ = "any"
			}
			desc = typ + " parameter"
		}
		fmt.Fprintf(sb, "- `%s` (%s): %s\n", name, presence, desc)
	}
	sb.WriteString("\n")
}
