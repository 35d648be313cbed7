// Package cmd implements the command-line interface for smartinbox.
//
// This package provides the following commands:
//   - serve: Start the MCP server to provide inbox tools for AI assistants
//   - auth-url: Print the Google sign-in URL that returns an access token
//   - inbox: List one page of messages, optionally with sentiment tags
//   - send: Send an email, optionally drafting the body from an intent
//   - config: Write or show the configuration file
//   - version: Display version information
//   - generate-docs: Generate markdown documentation for all MCP tools
package cmd
