package inbox

import (
	"context"
	"fmt"

	"github.com/teemow/smartinbox/internal/completion"
	"github.com/teemow/smartinbox/internal/logging"
	"github.com/teemow/smartinbox/internal/mail"
)

// Reply is a prefilled reply to a message.
type Reply struct {
	To              string
	Subject         string
	Intent          string
	OriginalContent string
}

// DraftRequest turns the reply into a draft request written in tone.
func (r Reply) DraftRequest(tone completion.Tone) completion.DraftRequest {
	return completion.DraftRequest{
		Intent:          r.Intent,
		Tone:            tone,
		Recipient:       r.To,
		Subject:         r.Subject,
		OriginalContent: r.OriginalContent,
	}
}

// Send sends a plain-text email. On success the user is notified and the
// default view is reloaded.
func (in *Inbox) Send(ctx context.Context, to, subject, body string) error {
	client, err := in.mail(ctx)
	if err != nil {
		return err
	}

	raw := mail.EncodeOutboundMessage(to, subject, body)
	if err := client.SendEmail(ctx, raw); err != nil {
		in.fail(err, MsgSendFailed)
		return err
	}

	in.logger.Info("email sent", logging.Recipient(to))
	in.notify(MsgEmailSent)

	// Load reports its own failure.
	_ = in.Load(ctx, in.defaultQuery)
	return nil
}

// ComposeReply prefills a reply to message id.
func (in *Inbox) ComposeReply(id string) (Reply, error) {
	m, err := in.message(id)
	if err != nil {
		return Reply{}, err
	}
	return Reply{
		To:              mail.ReplyRecipient(m.From),
		Subject:         mail.ReplySubject(m.Subject),
		Intent:          DefaultReplyIntent,
		OriginalContent: m.Body,
	}, nil
}

// Summarize summarizes the body of message id.
func (in *Inbox) Summarize(ctx context.Context, id string) (string, error) {
	if in.completion == nil {
		return "", ErrCompletionUnavailable
	}
	m, err := in.message(id)
	if err != nil {
		return "", err
	}
	return in.completion.Summarize(ctx, m.Body), nil
}

// Draft writes an email body for req.
func (in *Inbox) Draft(ctx context.Context, req completion.DraftRequest) (string, error) {
	if in.completion == nil {
		return "", ErrCompletionUnavailable
	}
	if req.Intent == "" {
		return "", fmt.Errorf("intent is required")
	}
	return in.completion.Draft(ctx, req), nil
}

// AnalyzeSentiment classifies the snippets of all messages in the view in
// one request and tags each message with the result. Messages missing from
// the result lose any previous tag.
func (in *Inbox) AnalyzeSentiment(ctx context.Context) (map[string]mail.Sentiment, error) {
	if in.completion == nil {
		return nil, ErrCompletionUnavailable
	}

	msgs := in.Messages()
	if len(msgs) == 0 {
		return map[string]mail.Sentiment{}, nil
	}
	refs := make([]completion.SnippetRef, 0, len(msgs))
	for _, m := range msgs {
		refs = append(refs, completion.SnippetRef{ID: m.ID, Snippet: m.Snippet})
	}

	result := in.completion.BatchSentiment(ctx, refs)

	in.mu.Lock()
	for _, m := range in.messages {
		m.Sentiment = result[m.ID]
	}
	if in.open != nil {
		if m := in.find(in.open.ID); m != nil {
			in.open.Sentiment = m.Sentiment
		}
	}
	in.mu.Unlock()

	in.logger.Debug("sentiment analyzed", logging.Count(len(result)))
	return result, nil
}

// message returns a copy of id, preferring the open message.
func (in *Inbox) message(id string) (*mail.Message, error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	if in.open != nil && in.open.ID == id {
		return in.open.Clone(), nil
	}
	if m := in.find(id); m != nil {
		return m.Clone(), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrMessageNotFound, id)
}
