package mail

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// contentSegment decodes an encoded outbound message and returns everything
// after the header block.
func contentSegment(t *testing.T, raw string) (headers []string, body string) {
	t.Helper()

	decoded, err := DecodeBody(raw)
	require.NoError(t, err)

	head, body, found := strings.Cut(decoded, CRLF+CRLF)
	require.True(t, found, "message has no header/body separator")
	return strings.Split(head, CRLF), body
}

func TestEncodeOutboundMessage_RoundTrip(t *testing.T) {
	bodies := []string{
		"",
		"Hello",
		"line one\r\nline two\r\n",
		"Grüße aus München ✉️",
		"trailing newline\n",
		"\r\n\r\nstarts with blank lines",
		strings.Repeat("long body ", 500),
	}

	for _, b := range bodies {
		raw := EncodeOutboundMessage("jane@example.com", "Hi", b)
		_, got := contentSegment(t, raw)
		assert.Equal(t, b, got)
	}
}

func TestEncodeOutboundMessage_Headers(t *testing.T) {
	raw := EncodeOutboundMessage("jane@example.com", "Status", "body")

	assert.NotContains(t, raw, "=", "padding must be stripped")
	assert.NotContains(t, raw, "+")
	assert.NotContains(t, raw, "/")

	headers, _ := contentSegment(t, raw)
	assert.Equal(t, []string{
		"To: jane@example.com",
		"Subject: Status",
		`Content-Type: text/plain; charset="UTF-8"`,
		"MIME-Version: 1.0",
	}, headers)
}

func TestEncodeOutboundMessage_EmptyBodyEndsWithSeparator(t *testing.T) {
	decoded, err := DecodeBody(EncodeOutboundMessage("a@b.c", "s", ""))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(decoded, "MIME-Version: 1.0"+CRLF+CRLF))
}

func TestEncodeOutboundMessage_NonASCIISubject(t *testing.T) {
	headers, _ := contentSegment(t, EncodeOutboundMessage("a@b.c", "Grüße", "x"))
	assert.Equal(t, "Subject: =?UTF-8?b?R3LDvMOfZQ==?=", headers[1])
}

func TestEncodeOutboundMessage_HeaderInjection(t *testing.T) {
	headers, body := contentSegment(t, EncodeOutboundMessage("a@b.c\r\nBcc: evil@x.y", "s\nX-Extra: 1", "ok"))

	require.Len(t, headers, 4)
	assert.Equal(t, "To: a@b.c Bcc: evil@x.y", headers[0])
	assert.Equal(t, "Subject: s X-Extra: 1", headers[1])
	assert.Equal(t, "ok", body)
}

func TestDecodeBody(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
		wantErr bool
	}{
		{name: "unpadded url alphabet", payload: base64.RawURLEncoding.EncodeToString([]byte("hi??>>")), want: "hi??>>"},
		{name: "padded url alphabet", payload: base64.URLEncoding.EncodeToString([]byte("a")), want: "a"},
		{name: "standard alphabet", payload: base64.StdEncoding.EncodeToString([]byte("plain")), want: "plain"},
		{name: "empty", payload: "", want: ""},
		{name: "invalid", payload: "!!!", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeBody(tt.payload)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReplyHelpers(t *testing.T) {
	assert.Equal(t, "jane@example.com", ReplyRecipient("Jane Doe <jane@example.com>"))
	assert.Equal(t, "jane@example.com", ReplyRecipient("jane@example.com"))

	assert.Equal(t, "Re: Lunch", ReplySubject("Lunch"))
	assert.Equal(t, "Re: Lunch", ReplySubject("Re: Lunch"))
	assert.Equal(t, "Re: RE: Lunch", ReplySubject("RE: Lunch"))

	assert.Equal(t, "Jane Doe", SenderName(`"Jane Doe" <jane@example.com>`))
	assert.Equal(t, "jane@example.com", SenderName("jane@example.com"))
	assert.Equal(t, DefaultFrom, SenderName(""))
}
