package inbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/teemow/smartinbox/internal/completion"
	"github.com/teemow/smartinbox/internal/instrumentation"
	"github.com/teemow/smartinbox/internal/logging"
	"github.com/teemow/smartinbox/internal/mail"
	"github.com/teemow/smartinbox/internal/mutation"
	"github.com/teemow/smartinbox/internal/session"
)

// DefaultQuery is the search used when none is given.
const DefaultQuery = "in:inbox"

// User-visible notification texts.
const (
	MsgLoadFailed         = "Failed to fetch data. Token might be invalid."
	MsgApplyLabelFailed   = "Failed to apply label"
	MsgRemoveLabelFailed  = "Failed to remove label"
	MsgModifyFailed       = "Failed to update labels"
	MsgBulkFailed         = "Failed to apply labels in bulk"
	MsgCreateLabelFailed  = "Failed to create label"
	MsgDeleteLabelFailed  = "Failed to delete label"
	MsgFilterCreated      = "Filter created successfully!"
	MsgFilterFailed       = "Failed to create filter"
	MsgListFiltersFailed  = "Failed to list filters"
	MsgDeleteFilterFailed = "Failed to delete filter"
	MsgEmailSent          = "Email sent successfully!"
	MsgSendFailed         = "Failed to send email."
)

// DefaultReplyIntent is the intent suggested when composing a reply.
const DefaultReplyIntent = "Acknowledge receipt and thank them."

var (
	// ErrNotAuthenticated is returned by operations that need a credential
	// when none is held.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrMessageNotFound is returned when an id is not in the current view.
	ErrMessageNotFound = errors.New("message not found")

	// ErrCompletionUnavailable is returned when no completion service is
	// configured.
	ErrCompletionUnavailable = errors.New("completion service not configured")
)

// Mail is the part of the Gmail transport the inbox uses. *mail.Client
// implements it.
type Mail interface {
	mutation.Modifier

	ListMessages(ctx context.Context, limit int64, query string) ([]*mail.Message, error)
	ListLabels(ctx context.Context) ([]mail.Label, error)
	CreateLabel(ctx context.Context, name string) (mail.Label, error)
	DeleteLabel(ctx context.Context, id string) error
	CreateFilter(ctx context.Context, criteria mail.FilterCriteria, addLabelIDs []string) error
	ListFilters(ctx context.Context) ([]*mail.FilterInfo, error)
	DeleteFilter(ctx context.Context, filterID string) error
	SendEmail(ctx context.Context, raw string) error
}

var _ Mail = (*mail.Client)(nil)

// MailFactory builds a transport for a credential.
type MailFactory func(ctx context.Context, token string) (Mail, error)

// NewMailFactory returns a MailFactory creating *mail.Client values with opts.
func NewMailFactory(opts mail.Options) MailFactory {
	return func(ctx context.Context, token string) (Mail, error) {
		return mail.NewClient(ctx, token, opts)
	}
}

// Options configures an Inbox.
type Options struct {
	// NewMail is required.
	NewMail MailFactory

	// Completion may be nil; AI features then return ErrCompletionUnavailable.
	Completion completion.Service

	// Notifier receives user-visible notifications. Defaults to a Queue.
	Notifier Notifier

	Session *session.Session

	PageSize     int64
	DefaultQuery string

	Metrics *instrumentation.Metrics
	Logger  *slog.Logger
}

// Inbox is the application state: the current message view, labels, the
// open message, the bulk selection and the session.
//
// The mutex guards local state only and is never held across a network
// call. Overlapping operations are not serialized; the last one to finish
// writes the final state.
type Inbox struct {
	newMail      MailFactory
	completion   completion.Service
	notifier     Notifier
	session      *session.Session
	pageSize     int64
	defaultQuery string
	metrics      *instrumentation.Metrics
	logger       *slog.Logger

	mu          sync.Mutex
	client      Mail
	clientToken string
	messages    []*mail.Message
	labels      []mail.Label
	open        *mail.Message
	selection   []string
	query       string
}

// New creates an Inbox.
func New(opts Options) (*Inbox, error) {
	if opts.NewMail == nil {
		return nil, fmt.Errorf("mail factory is required")
	}
	if opts.Notifier == nil {
		opts.Notifier = NewQueue()
	}
	if opts.Session == nil {
		opts.Session = session.New(opts.Metrics)
	}
	if opts.PageSize <= 0 {
		opts.PageSize = mail.DefaultPageSize
	}
	if opts.DefaultQuery == "" {
		opts.DefaultQuery = DefaultQuery
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Inbox{
		newMail:      opts.NewMail,
		completion:   opts.Completion,
		notifier:     opts.Notifier,
		session:      opts.Session,
		pageSize:     opts.PageSize,
		defaultQuery: opts.DefaultQuery,
		metrics:      opts.Metrics,
		logger:       opts.Logger,
		query:        opts.DefaultQuery,
	}, nil
}

// Notifier returns the notifier the inbox reports to.
func (in *Inbox) Notifier() Notifier {
	return in.notifier
}

// Login stores token as the session credential.
func (in *Inbox) Login(token string) {
	in.session.Set(token)
	in.logger.Info("session started", slog.String("token", logging.SanitizeToken(token)))
}

// Logout drops the credential and the loaded view.
func (in *Inbox) Logout() {
	in.session.Clear()

	in.mu.Lock()
	in.client = nil
	in.clientToken = ""
	in.messages = nil
	in.labels = nil
	in.open = nil
	in.selection = nil
	in.query = in.defaultQuery
	in.mu.Unlock()

	in.logger.Info("session ended")
}

// Authenticated reports whether a credential is held.
func (in *Inbox) Authenticated() bool {
	return in.session.Authenticated()
}

// Query returns the search the current view was loaded with.
func (in *Inbox) Query() string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.query
}

// Load fetches up to one page of messages matching query together with all
// labels, and replaces both collections. An empty query means the default
// inbox view. On failure the user is notified and the session is dropped.
func (in *Inbox) Load(ctx context.Context, query string) error {
	if query == "" {
		query = in.defaultQuery
	}

	client, err := in.mail(ctx)
	if err != nil {
		return err
	}

	in.mu.Lock()
	in.query = query
	in.mu.Unlock()

	var (
		messages []*mail.Message
		labels   []mail.Label
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		messages, err = client.ListMessages(gctx, in.pageSize, query)
		return err
	})
	g.Go(func() error {
		var err error
		labels, err = client.ListLabels(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		in.logger.Error("failed to load inbox", slog.String("query", query), logging.Err(err))
		in.session.Expire()
		in.notify(MsgLoadFailed)
		return err
	}

	in.mu.Lock()
	in.messages = messages
	in.labels = labels
	in.mu.Unlock()

	in.logger.Debug("inbox loaded", slog.String("query", query), logging.Count(len(messages)))
	return nil
}

// Search loads the view for q, or the default view when q is empty.
func (in *Inbox) Search(ctx context.Context, q string) error {
	return in.Load(ctx, q)
}

// Refresh reloads the current query.
func (in *Inbox) Refresh(ctx context.Context) error {
	return in.Load(ctx, in.Query())
}

// mail returns the transport for the current credential.
func (in *Inbox) mail(ctx context.Context) (Mail, error) {
	token := in.session.Token()
	if token == "" {
		return nil, ErrNotAuthenticated
	}

	in.mu.Lock()
	if in.client != nil && in.clientToken == token {
		c := in.client
		in.mu.Unlock()
		return c, nil
	}
	in.mu.Unlock()

	c, err := in.newMail(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail client: %w", err)
	}

	in.mu.Lock()
	in.client = c
	in.clientToken = token
	in.mu.Unlock()
	return c, nil
}

func (in *Inbox) coordinator(client Mail) *mutation.Coordinator {
	return mutation.NewCoordinator(client, in, in.metrics, in.logger)
}

// fail reports err to the user with msg. An unauthorized error also ends
// the session.
func (in *Inbox) fail(err error, msg string) {
	if errors.Is(err, mail.ErrUnauthorized) {
		in.logger.Warn("credential rejected, ending session", logging.Err(err))
		in.session.Expire()
	} else {
		in.logger.Error(msg, logging.Err(err))
	}
	in.notify(msg)
}

func (in *Inbox) notify(msg string) {
	in.notifier.Notify(msg)
}
