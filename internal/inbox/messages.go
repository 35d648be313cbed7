package inbox

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/teemow/smartinbox/internal/logging"
	"github.com/teemow/smartinbox/internal/mail"
	"github.com/teemow/smartinbox/internal/mutation"
)

// Messages returns copies of the messages in the current view, in listing
// order.
func (in *Inbox) Messages() []*mail.Message {
	in.mu.Lock()
	defer in.mu.Unlock()

	out := make([]*mail.Message, 0, len(in.messages))
	for _, m := range in.messages {
		out = append(out, m.Clone())
	}
	return out
}

// Labels returns every known label.
func (in *Inbox) Labels() []mail.Label {
	in.mu.Lock()
	defer in.mu.Unlock()
	return append([]mail.Label(nil), in.labels...)
}

// UserLabels returns only user-created labels.
func (in *Inbox) UserLabels() []mail.Label {
	return mail.UserLabels(in.Labels())
}

// DisplayLabels returns the labels to show for msg: tab categories are
// skipped and ids without a known label keep the id as their name.
func (in *Inbox) DisplayLabels(msg *mail.Message) []mail.Label {
	if msg == nil {
		return nil
	}
	labels := in.Labels()

	ids := mail.DisplayLabelIDs(msg.LabelIDs)
	out := make([]mail.Label, 0, len(ids))
	for _, id := range ids {
		l := mail.Label{ID: id, Name: mail.LabelName(labels, id), Type: mail.LabelTypeSystem}
		for _, known := range labels {
			if known.ID == id {
				l.Type = known.Type
				break
			}
		}
		out = append(out, l)
	}
	return out
}

// Open makes a copy of message id the open message and returns another copy
// of it.
func (in *Inbox) Open(id string) (*mail.Message, error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	m := in.find(id)
	if m == nil {
		return nil, fmt.Errorf("%w: %s", ErrMessageNotFound, id)
	}
	in.open = m.Clone()
	return in.open.Clone(), nil
}

// OpenMessage returns a copy of the open message, or nil.
func (in *Inbox) OpenMessage() *mail.Message {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.open.Clone()
}

// CloseMessage clears the open message.
func (in *Inbox) CloseMessage() {
	in.mu.Lock()
	in.open = nil
	in.mu.Unlock()
}

// UpdateLabels applies update to the label set of the list entry for
// messageID and of the open message when it is the same message.
func (in *Inbox) UpdateLabels(messageID string, update func([]string) []string) {
	in.mu.Lock()
	defer in.mu.Unlock()

	if m := in.find(messageID); m != nil {
		m.LabelIDs = update(m.LabelIDs)
	}
	if in.open != nil && in.open.ID == messageID {
		in.open.LabelIDs = update(in.open.LabelIDs)
	}
}

// ApplyLabel adds labelID to a message.
func (in *Inbox) ApplyLabel(ctx context.Context, messageID, labelID string) (*mutation.Mutation, error) {
	return in.ModifyLabels(ctx, messageID, []string{labelID}, nil)
}

// RemoveLabel removes labelID from a message.
func (in *Inbox) RemoveLabel(ctx context.Context, messageID, labelID string) (*mutation.Mutation, error) {
	return in.ModifyLabels(ctx, messageID, nil, []string{labelID})
}

// ModifyLabels changes the labels of one message optimistically. The local
// change is kept even when the server rejects it; the rejection is reported
// once and returned.
func (in *Inbox) ModifyLabels(ctx context.Context, messageID string, add, remove []string) (*mutation.Mutation, error) {
	client, err := in.mail(ctx)
	if err != nil {
		return nil, err
	}

	m := in.coordinator(client).Apply(ctx, messageID, add, remove)
	if m.Err != nil {
		in.fail(m.Err, modifyFailure(add, remove))
		return m, m.Err
	}
	return m, nil
}

func modifyFailure(add, remove []string) string {
	switch {
	case len(remove) == 0:
		return MsgApplyLabelFailed
	case len(add) == 0:
		return MsgRemoveLabelFailed
	default:
		return MsgModifyFailed
	}
}

// ToggleSelection adds id to the selection or removes it when present. It
// returns whether id is selected afterwards.
func (in *Inbox) ToggleSelection(id string) bool {
	in.mu.Lock()
	defer in.mu.Unlock()

	for i, s := range in.selection {
		if s == id {
			in.selection = append(in.selection[:i:i], in.selection[i+1:]...)
			return false
		}
	}
	in.selection = append(in.selection, id)
	return true
}

// Selection returns the selected ids in selection order.
func (in *Inbox) Selection() []string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return append([]string(nil), in.selection...)
}

// ClearSelection empties the selection.
func (in *Inbox) ClearSelection() {
	in.mu.Lock()
	in.selection = nil
	in.mu.Unlock()
}

// BulkApplyLabel adds labelID to every selected message with a single batch
// request and reloads the view when it succeeds. The selection is cleared
// whatever the outcome. An empty selection does nothing.
func (in *Inbox) BulkApplyLabel(ctx context.Context, labelID string) (*mutation.Mutation, error) {
	ids := in.Selection()
	if len(ids) == 0 {
		return nil, nil
	}
	defer in.ClearSelection()

	client, err := in.mail(ctx)
	if err != nil {
		return nil, err
	}

	m, err := in.coordinator(client).Bulk(ctx, ids, []string{labelID}, nil, in.Refresh)
	if m.Err != nil {
		// A failed reload has already been reported by Load.
		in.fail(m.Err, MsgBulkFailed)
	}
	return m, err
}

// CreateLabel creates a user label and appends it to the label list.
func (in *Inbox) CreateLabel(ctx context.Context, name string) (mail.Label, error) {
	client, err := in.mail(ctx)
	if err != nil {
		return mail.Label{}, err
	}

	label, err := client.CreateLabel(ctx, name)
	if err != nil {
		in.fail(err, MsgCreateLabelFailed)
		return mail.Label{}, err
	}

	in.mu.Lock()
	in.labels = append(in.labels, label)
	in.mu.Unlock()

	in.logger.Info("label created", logging.LabelID(label.ID))
	return label, nil
}

// DeleteLabel deletes a label and drops it from the label list. Messages
// still referencing it show the raw id.
func (in *Inbox) DeleteLabel(ctx context.Context, id string) error {
	client, err := in.mail(ctx)
	if err != nil {
		return err
	}

	if err := client.DeleteLabel(ctx, id); err != nil {
		in.fail(err, MsgDeleteLabelFailed)
		return err
	}

	in.mu.Lock()
	kept := in.labels[:0:0]
	for _, l := range in.labels {
		if l.ID != id {
			kept = append(kept, l)
		}
	}
	in.labels = kept
	in.mu.Unlock()

	in.logger.Info("label deleted", logging.LabelID(id))
	return nil
}

// CreateFilter creates a server-side filter that applies labelID to
// matching incoming mail.
func (in *Inbox) CreateFilter(ctx context.Context, criteria mail.FilterCriteria, labelID string) error {
	client, err := in.mail(ctx)
	if err != nil {
		return err
	}

	if err := client.CreateFilter(ctx, criteria, []string{labelID}); err != nil {
		in.fail(err, MsgFilterFailed)
		return err
	}

	in.logger.Info("filter created", logging.LabelID(labelID), slog.Bool("has_query", criteria.Query != ""))
	in.notify(MsgFilterCreated)
	return nil
}

// ListFilters returns the server-side filters.
func (in *Inbox) ListFilters(ctx context.Context) ([]*mail.FilterInfo, error) {
	client, err := in.mail(ctx)
	if err != nil {
		return nil, err
	}

	filters, err := client.ListFilters(ctx)
	if err != nil {
		in.fail(err, MsgListFiltersFailed)
		return nil, err
	}
	return filters, nil
}

// DeleteFilter deletes a server-side filter.
func (in *Inbox) DeleteFilter(ctx context.Context, id string) error {
	client, err := in.mail(ctx)
	if err != nil {
		return err
	}

	if err := client.DeleteFilter(ctx, id); err != nil {
		in.fail(err, MsgDeleteFilterFailed)
		return err
	}
	in.logger.Info("filter deleted", slog.String("filter_id", id))
	return nil
}

// find returns the list entry for id. Callers must hold mu.
func (in *Inbox) find(id string) *mail.Message {
	for _, m := range in.messages {
		if m.ID == id {
			return m
		}
	}
	return nil
}
