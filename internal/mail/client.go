package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/teemow/smartinbox/internal/instrumentation"
	"github.com/teemow/smartinbox/internal/logging"
)

const (
	// DefaultBaseURL is the Gmail REST root.
	DefaultBaseURL = "https://gmail.googleapis.com/"

	// DefaultUserID addresses the authenticated user.
	DefaultUserID = "me"

	// DefaultPageSize is the number of messages fetched per listing.
	DefaultPageSize = 15
)

// Options configures a Client.
type Options struct {
	// BaseURL overrides the Gmail REST root (default: DefaultBaseURL)
	BaseURL string

	// UserID is the mailbox owner (default: "me")
	UserID string

	// HTTPClient is the underlying client that carries the bearer transport.
	// Defaults to http.DefaultClient.
	HTTPClient *http.Client

	Metrics *instrumentation.Metrics
	Logger  *slog.Logger
}

// Client wraps the Gmail Users service for a single bearer credential
type Client struct {
	svc     *gmail.UsersService
	userID  string
	metrics *instrumentation.Metrics
	logger  *slog.Logger
}

// NewClient creates a Gmail client that attaches token as a bearer credential
// to every request.
func NewClient(ctx context.Context, token string, opts Options) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("access token is required")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.UserID == "" {
		opts.UserID = DefaultUserID
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, opts.HTTPClient)
	}

	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))

	svc, err := gmail.NewService(ctx,
		option.WithHTTPClient(httpClient),
		option.WithEndpoint(opts.BaseURL),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	opts.Logger.Debug("gmail client created",
		logging.Service(instrumentation.ServiceGmail),
		slog.String("token", logging.SanitizeToken(token)))

	return &Client{
		svc:     svc.Users,
		userID:  opts.UserID,
		metrics: opts.Metrics,
		logger:  logging.WithService(opts.Logger, instrumentation.ServiceGmail),
	}, nil
}

// observe runs one Gmail call inside a span, records its metrics and wraps
// any failure as an *APIError.
func (c *Client) observe(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceGmail, op)
	defer span.End()

	start := time.Now()
	err := wrapAPIError(op, fn(ctx))
	duration := time.Since(start)

	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
		instrumentation.SetSpanError(span, err)
		c.logger.Debug("gmail call failed", logging.Operation(op), logging.Err(err))
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	c.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceGmail, op, status, duration)
	return err
}

// ListMessages lists up to limit messages matching query and fetches every
// one of them in full, concurrently. If any fetch fails the whole listing
// fails; no partial page is returned.
func (c *Client) ListMessages(ctx context.Context, limit int64, query string) ([]*Message, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}

	var ids []string
	err := c.observe(ctx, instrumentation.OperationList, func(ctx context.Context) error {
		req := c.svc.Messages.List(c.userID).MaxResults(limit)
		if query != "" {
			req = req.Q(query)
		}
		res, err := req.Context(ctx).Do()
		if err != nil {
			return err
		}
		for _, m := range res.Messages {
			if m != nil {
				ids = append(ids, m.Id)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	messages := make([]*Message, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			raw, err := c.GetMessage(gctx, id)
			if err != nil {
				return err
			}
			messages[i] = Normalize(raw)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return messages, nil
}

// GetMessage retrieves a full Gmail message
func (c *Client) GetMessage(ctx context.Context, id string) (*gmail.Message, error) {
	var msg *gmail.Message
	err := c.observe(ctx, instrumentation.OperationGet, func(ctx context.Context) error {
		var err error
		msg, err = c.svc.Messages.Get(c.userID, id).Format("full").Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// SendEmail sends an already encoded base64url message
func (c *Client) SendEmail(ctx context.Context, raw string) error {
	if raw == "" {
		return fmt.Errorf("raw message is required")
	}
	return c.observe(ctx, instrumentation.OperationSend, func(ctx context.Context) error {
		_, err := c.svc.Messages.Send(c.userID, &gmail.Message{Raw: raw}).Context(ctx).Do()
		return err
	})
}

// ModifyMessage adds and removes labels on a single message
func (c *Client) ModifyMessage(ctx context.Context, id string, addLabelIDs, removeLabelIDs []string) error {
	return c.observe(ctx, instrumentation.OperationModify, func(ctx context.Context) error {
		_, err := c.svc.Messages.Modify(c.userID, id, &gmail.ModifyMessageRequest{
			AddLabelIds:    addLabelIDs,
			RemoveLabelIds: removeLabelIDs,
		}).Context(ctx).Do()
		return err
	})
}

// BatchModifyMessages applies the same label changes to every id in a
// single request.
func (c *Client) BatchModifyMessages(ctx context.Context, ids, addLabelIDs, removeLabelIDs []string) error {
	if len(ids) == 0 {
		return fmt.Errorf("at least one message id is required")
	}
	return c.observe(ctx, instrumentation.OperationBatchModify, func(ctx context.Context) error {
		return c.svc.Messages.BatchModify(c.userID, &gmail.BatchModifyMessagesRequest{
			Ids:            ids,
			AddLabelIds:    addLabelIDs,
			RemoveLabelIds: removeLabelIDs,
		}).Context(ctx).Do()
	})
}
