package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/smartinbox/internal/inbox"
	"github.com/teemow/smartinbox/internal/server"
)

// Resource URIs.
const (
	StateURI    = "inbox://state"
	MessagesURI = "inbox://messages"
	LabelsURI   = "inbox://labels"
)

type stateView struct {
	Authenticated        bool     `json:"authenticated"`
	Query                string   `json:"query"`
	MessagesLoaded       int      `json:"messagesLoaded"`
	LabelsLoaded         int      `json:"labelsLoaded"`
	OpenMessageID        string   `json:"openMessageId,omitempty"`
	Selection            []string `json:"selection"`
	PendingNotifications int      `json:"pendingNotifications"`
}

type messageView struct {
	ID        string   `json:"id"`
	ThreadID  string   `json:"threadId"`
	From      string   `json:"from"`
	Subject   string   `json:"subject"`
	Date      string   `json:"date"`
	Snippet   string   `json:"snippet"`
	Labels    []string `json:"labels"`
	Sentiment string   `json:"sentiment,omitempty"`
}

type labelView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// RegisterInboxResources registers the inbox view resources
func RegisterInboxResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	stateResource := mcp.NewResource(
		StateURI,
		"Inbox State",
		mcp.WithResourceDescription("Session state, current query, selection and pending notification count"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(stateResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleState(ctx, request, sc)
	})

	messagesResource := mcp.NewResource(
		MessagesURI,
		"Loaded Messages",
		mcp.WithResourceDescription("The messages of the current view with display labels and sentiment"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(messagesResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleMessages(ctx, request, sc)
	})

	labelsResource := mcp.NewResource(
		LabelsURI,
		"Labels",
		mcp.WithResourceDescription("All Gmail labels loaded with the current view"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(labelsResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleLabels(ctx, request, sc)
	})

	return nil
}

func handleState(_ context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	in := sc.Inbox()

	state := stateView{
		Authenticated:  in.Authenticated(),
		Query:          in.Query(),
		MessagesLoaded: len(in.Messages()),
		LabelsLoaded:   len(in.Labels()),
		Selection:      in.Selection(),
	}
	if open := in.OpenMessage(); open != nil {
		state.OpenMessageID = open.ID
	}
	if state.Selection == nil {
		state.Selection = []string{}
	}
	if q := sc.Notifications(); q != nil {
		state.PendingNotifications = q.Len()
	}

	return jsonContents(request.Params.URI, state)
}

func handleMessages(_ context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	in := sc.Inbox()
	if !in.Authenticated() {
		return nil, inbox.ErrNotAuthenticated
	}

	msgs := in.Messages()
	views := make([]messageView, 0, len(msgs))
	for _, m := range msgs {
		labels := in.DisplayLabels(m)
		names := make([]string, 0, len(labels))
		for _, l := range labels {
			names = append(names, l.Name)
		}
		views = append(views, messageView{
			ID:        m.ID,
			ThreadID:  m.ThreadID,
			From:      m.From,
			Subject:   m.Subject,
			Date:      m.Date,
			Snippet:   m.Snippet,
			Labels:    names,
			Sentiment: string(m.Sentiment),
		})
	}

	return jsonContents(request.Params.URI, views)
}

func handleLabels(_ context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	in := sc.Inbox()
	if !in.Authenticated() {
		return nil, inbox.ErrNotAuthenticated
	}

	labels := in.Labels()
	views := make([]labelView, 0, len(labels))
	for _, l := range labels {
		views = append(views, labelView{ID: l.ID, Name: l.Name, Type: string(l.Type)})
	}

	return jsonContents(request.Params.URI, views)
}

func jsonContents(uri string, v interface{}) ([]mcp.ResourceContents, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource data: %w", err)
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}
