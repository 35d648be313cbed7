package mail

import (
	"regexp"
	"strconv"

	gmail "google.golang.org/api/gmail/v1"
)

const (
	// DefaultSubject is used when the message has no Subject header.
	DefaultSubject = "(No Subject)"

	// DefaultFrom is used when the message has no From header.
	DefaultFrom = "Unknown"

	mimeTextPlain = "text/plain"
	mimeTextHTML  = "text/html"
)

var htmlTag = regexp.MustCompile(`<[^>]*>?`)

// Normalize flattens a full-format Gmail message into a Message.
//
// Headers are read from the top-level part only, by exact name, and the
// first match wins. The body is taken from the first text/plain child, then
// the first text/html child with tags stripped, then the top-level inline
// payload. Grandchildren are never inspected. Every missing or malformed
// field falls back to its default on its own; Normalize never fails.
func Normalize(raw *gmail.Message) *Message {
	msg := &Message{
		Subject: DefaultSubject,
		From:    DefaultFrom,
	}
	if raw == nil {
		return msg
	}

	msg.ID = raw.Id
	msg.ThreadID = raw.ThreadId
	msg.LabelIDs = append([]string(nil), raw.LabelIds...)
	msg.Snippet = raw.Snippet
	if raw.HistoryId != 0 {
		msg.HistoryID = strconv.FormatUint(raw.HistoryId, 10)
	}
	if raw.InternalDate != 0 {
		msg.InternalDate = strconv.FormatInt(raw.InternalDate, 10)
	}

	payload := raw.Payload
	if payload == nil {
		return msg
	}

	if v := HeaderValue(payload.Headers, "Subject"); v != "" {
		msg.Subject = v
	}
	if v := HeaderValue(payload.Headers, "From"); v != "" {
		msg.From = v
	}
	msg.Date = HeaderValue(payload.Headers, "Date")
	msg.Body = extractBody(payload)

	return msg
}

// HeaderValue returns the value of the first header whose name equals name
// exactly, or "" if there is none.
func HeaderValue(headers []*gmail.MessagePartHeader, name string) string {
	for _, h := range headers {
		if h != nil && h.Name == name {
			return h.Value
		}
	}
	return ""
}

// StripTags removes everything that looks like an HTML tag.
func StripTags(html string) string {
	return htmlTag.ReplaceAllString(html, "")
}

func extractBody(p *gmail.MessagePart) string {
	if len(p.Parts) > 0 {
		if part := firstChild(p.Parts, mimeTextPlain); hasInlineData(part) {
			return decodeOrEmpty(part.Body.Data)
		}
		if part := firstChild(p.Parts, mimeTextHTML); hasInlineData(part) {
			return StripTags(decodeOrEmpty(part.Body.Data))
		}
		return ""
	}
	if hasInlineData(p) {
		return decodeOrEmpty(p.Body.Data)
	}
	return ""
}

func firstChild(parts []*gmail.MessagePart, mimeType string) *gmail.MessagePart {
	for _, part := range parts {
		if part != nil && part.MimeType == mimeType {
			return part
		}
	}
	return nil
}

func hasInlineData(p *gmail.MessagePart) bool {
	return p != nil && p.Body != nil && p.Body.Data != ""
}

func decodeOrEmpty(payload string) string {
	body, err := DecodeBody(payload)
	if err != nil {
		return ""
	}
	return body
}
