// Package inbox_tools exposes the inbox as MCP tools.
//
// All tools share one inbox held by the server context. Session:
//   - inbox_auth_url, inbox_login, inbox_logout, inbox_notifications
//
// Messages:
//   - inbox_load, inbox_list, inbox_open
//   - inbox_apply_label, inbox_remove_label (optimistic, per message)
//   - inbox_toggle_select, inbox_clear_selection, inbox_bulk_apply_label
//   - inbox_analyze_sentiment, inbox_summarize
//
// Labels and filters:
//   - inbox_list_labels, inbox_create_label, inbox_delete_label
//   - inbox_create_filter
//
// Compose:
//   - inbox_send, inbox_reply, inbox_draft
//
// Notifications raised by the inbox during a call are returned with that
// call's result.
package inbox_tools
