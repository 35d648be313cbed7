package completion

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/teemow/smartinbox/internal/instrumentation"
	"github.com/teemow/smartinbox/internal/logging"
	"github.com/teemow/smartinbox/internal/mail"
)

// Placeholder texts returned instead of errors.
const (
	SummaryFailed = "Error generating summary. Please try again."
	SummaryEmpty  = "Failed to generate summary."
	DraftFailed   = "Error generating draft. Please try again."
	DraftEmpty    = "Failed to generate draft."
)

var (
	summaryTemperature = float32(0.3)
	draftTemperature   = float32(0.7)
)

// DraftRequest describes the email to draft.
type DraftRequest struct {
	Intent          string
	Tone            Tone
	Recipient       string
	Subject         string
	OriginalContent string
}

// SnippetRef identifies a message snippet for sentiment analysis.
type SnippetRef struct {
	ID      string `json:"id"`
	Snippet string `json:"snippet"`
}

// Service is the completion boundary. None of its methods fail: errors
// degrade to placeholder text or an empty mapping.
type Service interface {
	Summarize(ctx context.Context, content string) string
	Draft(ctx context.Context, req DraftRequest) string
	BatchSentiment(ctx context.Context, refs []SnippetRef) map[string]mail.Sentiment
}

// Models selects the model per purpose.
type Models struct {
	Summary   string
	Draft     string
	Sentiment string
}

// Options configures a Client.
type Options struct {
	Models  Models
	Metrics *instrumentation.Metrics
	Logger  *slog.Logger
}

// Client implements Service on top of a Generator.
type Client struct {
	gen     Generator
	models  Models
	metrics *instrumentation.Metrics
	logger  *slog.Logger
}

var _ Service = (*Client)(nil)

// NewClient creates a Client. Empty model names fall back to the defaults.
func NewClient(gen Generator, opts Options) *Client {
	if opts.Models.Summary == "" {
		opts.Models.Summary = "gemini-2.5-flash"
	}
	if opts.Models.Draft == "" {
		opts.Models.Draft = "gemini-3-pro-preview"
	}
	if opts.Models.Sentiment == "" {
		opts.Models.Sentiment = "gemini-2.5-flash"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Client{
		gen:     gen,
		models:  opts.Models,
		metrics: opts.Metrics,
		logger:  logging.WithService(opts.Logger, instrumentation.ServiceCompletion),
	}
}

// Summarize returns a bullet-point summary of content.
func (c *Client) Summarize(ctx context.Context, content string) string {
	text, err := c.generate(ctx, instrumentation.PurposeSummary, Request{
		Model:       c.models.Summary,
		System:      summarizeInstruction,
		Prompt:      summaryPrompt(content),
		Temperature: &summaryTemperature,
	})
	if err != nil {
		return SummaryFailed
	}
	if strings.TrimSpace(text) == "" {
		return SummaryEmpty
	}
	return text
}

// Draft writes an email body for req.
func (c *Client) Draft(ctx context.Context, req DraftRequest) string {
	text, err := c.generate(ctx, instrumentation.PurposeDraft, Request{
		Model:       c.models.Draft,
		System:      draftInstruction,
		Prompt:      draftPrompt(req),
		Temperature: &draftTemperature,
	})
	if err != nil {
		return DraftFailed
	}
	if strings.TrimSpace(text) == "" {
		return DraftEmpty
	}
	return text
}

// BatchSentiment classifies every snippet in one request. Entries with an
// unknown sentiment value are dropped; any failure yields an empty map.
func (c *Client) BatchSentiment(ctx context.Context, refs []SnippetRef) map[string]mail.Sentiment {
	result := make(map[string]mail.Sentiment)
	if len(refs) == 0 {
		return result
	}

	prompt, err := sentimentPrompt(refs)
	if err != nil {
		return result
	}

	text, err := c.generate(ctx, instrumentation.PurposeSentiment, Request{
		Model:  c.models.Sentiment,
		System: sentimentInstruction,
		Prompt: prompt,
		Schema: sentimentSchema(),
	})
	if err != nil {
		return result
	}
	if strings.TrimSpace(text) == "" {
		text = "[]"
	}

	var entries []struct {
		ID        string         `json:"id"`
		Sentiment mail.Sentiment `json:"sentiment"`
	}
	if err := json.Unmarshal([]byte(text), &entries); err != nil {
		c.logger.Warn("sentiment response is not valid JSON", logging.Err(err))
		return result
	}

	for _, e := range entries {
		if e.ID != "" && e.Sentiment.Valid() {
			result[e.ID] = e.Sentiment
		}
	}
	return result
}

func (c *Client) generate(ctx context.Context, purpose string, req Request) (string, error) {
	ctx, span := instrumentation.StartCompletionSpan(ctx, purpose, req.Model)
	defer span.End()

	start := time.Now()
	text, err := c.gen.Generate(ctx, req)
	duration := time.Since(start)

	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
		instrumentation.SetSpanError(span, err)
		c.logger.Error("completion request failed",
			logging.Purpose(purpose),
			slog.String("model", req.Model),
			logging.Err(err))
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	c.metrics.RecordCompletion(ctx, purpose, req.Model, status, duration)

	return text, err
}
