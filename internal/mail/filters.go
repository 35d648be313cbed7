package mail

import (
	"context"
	"fmt"

	gmail "google.golang.org/api/gmail/v1"

	"github.com/teemow/smartinbox/internal/instrumentation"
)

// CreateFilter creates a Gmail filter that labels matching incoming mail
func (c *Client) CreateFilter(ctx context.Context, criteria FilterCriteria, addLabelIDs []string) error {
	if criteria.Empty() {
		return fmt.Errorf("at least one filter criteria must be specified (from, subject, or query)")
	}
	if len(addLabelIDs) == 0 {
		return fmt.Errorf("at least one label is required")
	}

	filter := &gmail.Filter{
		Criteria: &gmail.FilterCriteria{
			From:    criteria.From,
			Subject: criteria.Subject,
			Query:   criteria.Query,
		},
		Action: &gmail.FilterAction{
			AddLabelIds: addLabelIDs,
		},
	}

	return c.observe(ctx, instrumentation.OperationCreate, func(ctx context.Context) error {
		_, err := c.svc.Settings.Filters.Create(c.userID, filter).Context(ctx).Do()
		return err
	})
}

// ListFilters lists all Gmail filters for the user
func (c *Client) ListFilters(ctx context.Context) ([]*FilterInfo, error) {
	var filters []*FilterInfo
	err := c.observe(ctx, instrumentation.OperationList, func(ctx context.Context) error {
		resp, err := c.svc.Settings.Filters.List(c.userID).Context(ctx).Do()
		if err != nil {
			return err
		}
		filters = make([]*FilterInfo, 0, len(resp.Filter))
		for _, f := range resp.Filter {
			if f != nil {
				filters = append(filters, convertGmailFilter(f))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return filters, nil
}

// DeleteFilter deletes a filter by ID
func (c *Client) DeleteFilter(ctx context.Context, filterID string) error {
	return c.observe(ctx, instrumentation.OperationDelete, func(ctx context.Context) error {
		return c.svc.Settings.Filters.Delete(c.userID, filterID).Context(ctx).Do()
	})
}

func convertGmailFilter(f *gmail.Filter) *FilterInfo {
	info := &FilterInfo{ID: f.Id}
	if f.Criteria != nil {
		info.Criteria = FilterCriteria{
			From:    f.Criteria.From,
			Subject: f.Criteria.Subject,
			Query:   f.Criteria.Query,
		}
	}
	if f.Action != nil {
		info.AddLabelIDs = f.Action.AddLabelIds
	}
	return info
}
