package mutation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/smartinbox/internal/instrumentation"
	"github.com/teemow/smartinbox/internal/logging"
	"github.com/teemow/smartinbox/internal/mail"
)

// Kinds of mutation, used as the metric kind label.
const (
	KindSingle = "single"
	KindBulk   = "bulk"
)

// State is the lifecycle position of a Mutation.
type State int

const (
	Idle State = iota
	Applied
	Confirmed
	RolledBack
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Applied:
		return "applied"
	case Confirmed:
		return "confirmed"
	case RolledBack:
		return "rolled_back"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Final reports whether no further transition can happen.
func (s State) Final() bool {
	return s == Confirmed || s == RolledBack
}

// Mutation is one label change issued against the server.
//
// A RolledBack mutation means the server rejected the change. The local
// label set is left as it was optimistically applied; Err carries the
// failure for the caller to report.
type Mutation struct {
	ID string

	// MessageIDs holds the target message for a single mutation or the whole
	// selection for a bulk one.
	MessageIDs []string

	Add    []string
	Remove []string
	Kind   string
	State  State
	Err    error
}

// Modifier issues label changes to the server. *mail.Client implements it.
type Modifier interface {
	ModifyMessage(ctx context.Context, id string, addLabelIDs, removeLabelIDs []string) error
	BatchModifyMessages(ctx context.Context, ids, addLabelIDs, removeLabelIDs []string) error
}

// Store holds the local copies of messages. UpdateLabels must apply update
// to every local copy of the message and must not block on the network.
type Store interface {
	UpdateLabels(messageID string, update func(labelIDs []string) []string)
}

var _ Modifier = (*mail.Client)(nil)

// Coordinator applies label changes locally first and then confirms them
// with the server.
type Coordinator struct {
	modifier Modifier
	store    Store
	metrics  *instrumentation.Metrics
	logger   *slog.Logger
}

// NewCoordinator creates a Coordinator. store may be nil for callers that
// only use Bulk.
func NewCoordinator(modifier Modifier, store Store, metrics *instrumentation.Metrics, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		modifier: modifier,
		store:    store,
		metrics:  metrics,
		logger:   logger,
	}
}

// Apply changes the labels of one message. The local label set is updated
// synchronously before the server call, adds first and removes second, so a
// label both added and removed ends up absent. The returned mutation is
// always in a final state.
func (c *Coordinator) Apply(ctx context.Context, messageID string, add, remove []string) *Mutation {
	m := c.newMutation(KindSingle, []string{messageID}, add, remove)
	ctx, span := instrumentation.StartSpan(ctx, "mutation.apply", mutationAttrs(m)...)
	defer span.End()

	if c.store != nil {
		c.store.UpdateLabels(messageID, func(ids []string) []string {
			return mail.ApplyLabelDelta(ids, add, remove)
		})
	}
	c.transition(ctx, m, Applied)

	if err := c.modifier.ModifyMessage(ctx, messageID, add, remove); err != nil {
		m.Err = err
		instrumentation.SetSpanError(span, err)
		c.transition(ctx, m, RolledBack)
		return m
	}

	instrumentation.SetSpanSuccess(span)
	c.transition(ctx, m, Confirmed)
	return m
}

// Bulk changes the labels of ids with exactly one batch request. Nothing is
// patched locally: on success reload is called to refetch the view, on
// failure it is not. The returned error is the batch failure or, after a
// confirmed batch, the reload failure.
func (c *Coordinator) Bulk(ctx context.Context, ids, add, remove []string, reload func(ctx context.Context) error) (*Mutation, error) {
	m := c.newMutation(KindBulk, append([]string(nil), ids...), add, remove)
	if len(ids) == 0 {
		return m, nil
	}

	ctx, span := instrumentation.StartSpan(ctx, "mutation.bulk", mutationAttrs(m)...)
	defer span.End()

	c.transition(ctx, m, Applied)
	if err := c.modifier.BatchModifyMessages(ctx, ids, add, remove); err != nil {
		m.Err = err
		instrumentation.SetSpanError(span, err)
		c.transition(ctx, m, RolledBack)
		return m, err
	}
	c.transition(ctx, m, Confirmed)

	if reload != nil {
		if err := reload(ctx); err != nil {
			instrumentation.SetSpanError(span, err)
			return m, fmt.Errorf("failed to reload after bulk update: %w", err)
		}
	}
	instrumentation.SetSpanSuccess(span)
	return m, nil
}

func (c *Coordinator) newMutation(kind string, ids, add, remove []string) *Mutation {
	return &Mutation{
		ID:         uuid.NewString(),
		MessageIDs: ids,
		Add:        append([]string(nil), add...),
		Remove:     append([]string(nil), remove...),
		Kind:       kind,
		State:      Idle,
	}
}

func (c *Coordinator) transition(ctx context.Context, m *Mutation, to State) {
	m.State = to
	c.metrics.RecordMutationTransition(ctx, m.Kind, to.String(), len(m.MessageIDs))
	instrumentation.AddSpanEvent(ctx, "mutation."+to.String())

	attrs := []any{
		logging.MutationID(m.ID),
		slog.String("kind", m.Kind),
		slog.String("state", to.String()),
		logging.Count(len(m.MessageIDs)),
	}
	if m.Err != nil {
		attrs = append(attrs, logging.Err(m.Err))
		c.logger.Warn("label mutation rejected", attrs...)
		return
	}
	c.logger.Debug("label mutation transition", attrs...)
}

func mutationAttrs(m *Mutation) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(instrumentation.SpanAttrMutationID, m.ID),
		attribute.Int(instrumentation.SpanAttrCount, len(m.MessageIDs)),
	}
}
