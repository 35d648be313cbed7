package completion

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/smartinbox/internal/mail"
)

type fakeGenerator struct {
	text     string
	err      error
	requests []Request
}

func (f *fakeGenerator) Generate(_ context.Context, req Request) (string, error) {
	f.requests = append(f.requests, req)
	return f.text, f.err
}

func newTestClient(gen Generator) *Client {
	return NewClient(gen, Options{Models: Models{
		Summary:   "summary-model",
		Draft:     "draft-model",
		Sentiment: "sentiment-model",
	}})
}

func TestSummarize(t *testing.T) {
	gen := &fakeGenerator{text: "- point one\n- point two"}
	c := newTestClient(gen)

	got := c.Summarize(context.Background(), "Meeting moved to Thursday.")
	assert.Equal(t, "- point one\n- point two", got)

	require.Len(t, gen.requests, 1)
	req := gen.requests[0]
	assert.Equal(t, "summary-model", req.Model)
	assert.Equal(t, summarizeInstruction, req.System)
	assert.Contains(t, req.Prompt, "Meeting moved to Thursday.")
	require.NotNil(t, req.Temperature)
	assert.InDelta(t, 0.3, *req.Temperature, 0.0001)
	assert.Nil(t, req.Schema)
}

func TestSummarizeDegrades(t *testing.T) {
	tests := []struct {
		name string
		gen  *fakeGenerator
		want string
	}{
		{name: "error", gen: &fakeGenerator{err: errors.New("quota exceeded")}, want: SummaryFailed},
		{name: "empty text", gen: &fakeGenerator{text: ""}, want: SummaryEmpty},
		{name: "whitespace text", gen: &fakeGenerator{text: "  \n"}, want: SummaryEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newTestClient(tt.gen).Summarize(context.Background(), "body")
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDraft(t *testing.T) {
	gen := &fakeGenerator{text: "Hi Ana,\n\nThursday works.\n\nBest"}
	c := newTestClient(gen)

	got := c.Draft(context.Background(), DraftRequest{
		Intent:          "accept the meeting",
		Tone:            ToneCasual,
		Recipient:       "ana@example.com",
		Subject:         "Re: Sync",
		OriginalContent: "Can we meet Thursday?",
	})
	assert.Equal(t, "Hi Ana,\n\nThursday works.\n\nBest", got)

	require.Len(t, gen.requests, 1)
	req := gen.requests[0]
	assert.Equal(t, "draft-model", req.Model)
	assert.Equal(t, draftInstruction, req.System)
	require.NotNil(t, req.Temperature)
	assert.InDelta(t, 0.7, *req.Temperature, 0.0001)
	assert.Contains(t, req.Prompt, "Write a casual email.")
	assert.Contains(t, req.Prompt, "ana@example.com")
	assert.Contains(t, req.Prompt, `"Re: Sync"`)
	assert.Contains(t, req.Prompt, `User Intent: "accept the meeting"`)
	assert.Contains(t, req.Prompt, "Can we meet Thursday?")
}

func TestDraftPromptOmitsMissingParts(t *testing.T) {
	prompt := draftPrompt(DraftRequest{Intent: "say thanks"})

	assert.Contains(t, prompt, "Write a professional email.")
	assert.NotContains(t, prompt, "subject line")
	assert.NotContains(t, prompt, "Original Email Context")
	assert.True(t, strings.Contains(prompt, `User Intent: "say thanks"`))
}

func TestDraftDegrades(t *testing.T) {
	c := newTestClient(&fakeGenerator{err: errors.New("boom")})
	assert.Equal(t, DraftFailed, c.Draft(context.Background(), DraftRequest{Intent: "x"}))

	c = newTestClient(&fakeGenerator{})
	assert.Equal(t, DraftEmpty, c.Draft(context.Background(), DraftRequest{Intent: "x"}))
}

func TestBatchSentiment(t *testing.T) {
	gen := &fakeGenerator{text: `[
		{"id": "m1", "sentiment": "Positive"},
		{"id": "m2", "sentiment": "Negative"},
		{"id": "m3", "sentiment": "Ecstatic"},
		{"id": "", "sentiment": "Neutral"}
	]`}
	c := newTestClient(gen)

	got := c.BatchSentiment(context.Background(), []SnippetRef{
		{ID: "m1", Snippet: "Great news!"},
		{ID: "m2", Snippet: "Your account was suspended"},
		{ID: "m3", Snippet: "Lunch?"},
	})

	assert.Equal(t, map[string]mail.Sentiment{
		"m1": mail.SentimentPositive,
		"m2": mail.SentimentNegative,
	}, got)

	require.Len(t, gen.requests, 1)
	req := gen.requests[0]
	assert.Equal(t, "sentiment-model", req.Model)
	assert.NotNil(t, req.Schema)
	assert.Contains(t, req.Prompt, `"id":"m1"`)
	assert.Contains(t, req.Prompt, `"snippet":"Great news!"`)
}

func TestBatchSentimentEmptyInput(t *testing.T) {
	gen := &fakeGenerator{text: `[{"id":"m1","sentiment":"Positive"}]`}
	c := newTestClient(gen)

	got := c.BatchSentiment(context.Background(), nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Empty(t, gen.requests, "no request should be made for empty input")
}

func TestBatchSentimentDegrades(t *testing.T) {
	tests := []struct {
		name string
		gen  *fakeGenerator
	}{
		{name: "error", gen: &fakeGenerator{err: errors.New("unavailable")}},
		{name: "invalid json", gen: &fakeGenerator{text: "not json"}},
		{name: "empty text", gen: &fakeGenerator{text: ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newTestClient(tt.gen).BatchSentiment(context.Background(), []SnippetRef{{ID: "m1", Snippet: "hi"}})
			assert.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}

func TestParseTone(t *testing.T) {
	tone, err := ParseTone("empathetic")
	require.NoError(t, err)
	assert.Equal(t, ToneEmpathetic, tone)

	tone, err = ParseTone("")
	require.NoError(t, err)
	assert.Equal(t, ToneProfessional, tone)

	_, err = ParseTone("sarcastic")
	assert.Error(t, err)
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(&fakeGenerator{}, Options{})
	assert.Equal(t, "gemini-2.5-flash", c.models.Summary)
	assert.Equal(t, "gemini-3-pro-preview", c.models.Draft)
	assert.Equal(t, "gemini-2.5-flash", c.models.Sentiment)
}
