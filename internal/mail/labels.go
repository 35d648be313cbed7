package mail

import (
	"context"
	"fmt"
	"strings"

	gmail "google.golang.org/api/gmail/v1"

	"github.com/teemow/smartinbox/internal/instrumentation"
)

// CategoryPrefix marks Gmail's inbox-tab labels, which are hidden from display.
const CategoryPrefix = "CATEGORY_"

// ListLabels lists all Gmail labels for the user
func (c *Client) ListLabels(ctx context.Context) ([]Label, error) {
	var labels []Label
	err := c.observe(ctx, instrumentation.OperationList, func(ctx context.Context) error {
		resp, err := c.svc.Labels.List(c.userID).Context(ctx).Do()
		if err != nil {
			return err
		}
		labels = make([]Label, 0, len(resp.Labels))
		for _, l := range resp.Labels {
			if l != nil {
				labels = append(labels, convertLabel(l))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return labels, nil
}

// CreateLabel creates a user label that is visible in both the label list
// and the message list.
func (c *Client) CreateLabel(ctx context.Context, name string) (Label, error) {
	if strings.TrimSpace(name) == "" {
		return Label{}, fmt.Errorf("label name is required")
	}
	var created *gmail.Label
	err := c.observe(ctx, instrumentation.OperationCreate, func(ctx context.Context) error {
		var err error
		created, err = c.svc.Labels.Create(c.userID, &gmail.Label{
			Name:                  name,
			LabelListVisibility:   "labelShow",
			MessageListVisibility: "show",
		}).Context(ctx).Do()
		return err
	})
	if err != nil {
		return Label{}, err
	}
	return convertLabel(created), nil
}

// DeleteLabel deletes a user label by ID
func (c *Client) DeleteLabel(ctx context.Context, id string) error {
	return c.observe(ctx, instrumentation.OperationDelete, func(ctx context.Context) error {
		return c.svc.Labels.Delete(c.userID, id).Context(ctx).Do()
	})
}

func convertLabel(l *gmail.Label) Label {
	t := LabelTypeUser
	if l.Type == string(LabelTypeSystem) {
		t = LabelTypeSystem
	}
	return Label{ID: l.Id, Name: l.Name, Type: t}
}

// DisplayLabelIDs returns ids without the CATEGORY_ tab labels.
func DisplayLabelIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !strings.HasPrefix(id, CategoryPrefix) {
			out = append(out, id)
		}
	}
	return out
}

// LabelName resolves id against labels. Label and message lists are fetched
// independently, so an unknown id renders as itself.
func LabelName(labels []Label, id string) string {
	for _, l := range labels {
		if l.ID == id {
			return l.Name
		}
	}
	return id
}

// UserLabels returns only the user-created labels.
func UserLabels(labels []Label) []Label {
	var out []Label
	for _, l := range labels {
		if l.Type == LabelTypeUser {
			out = append(out, l)
		}
	}
	return out
}

// ApplyLabelDelta returns ids with add applied first and remove applied
// second, so an id present in both ends up absent. Existing order is kept
// and new ids are appended.
func ApplyLabelDelta(ids, add, remove []string) []string {
	out := make([]string, 0, len(ids)+len(add))
	out = append(out, ids...)
	for _, id := range add {
		if !contains(out, id) {
			out = append(out, id)
		}
	}
	if len(remove) == 0 {
		return out
	}
	kept := out[:0]
	for _, id := range out {
		if !contains(remove, id) {
			kept = append(kept, id)
		}
	}
	return kept
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
