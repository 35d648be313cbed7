package mail

import (
	"encoding/base64"
	"fmt"
	"mime"
	"regexp"
	"strings"
)

// CRLF separates header lines and the header block from the body.
const CRLF = "\r\n"

var (
	urlAlphabet = strings.NewReplacer("-", "+", "_", "/")
	headerBreak = strings.NewReplacer("\r", "", "\n", " ")
	fromAddress = regexp.MustCompile(`<([^>]+)>`)
)

// DecodeBody decodes a Gmail body payload. Gmail uses the URL-safe base64
// alphabet and usually drops the padding, so both are restored before
// standard decoding.
func DecodeBody(payload string) (string, error) {
	s := urlAlphabet.Replace(payload)
	if rem := len(s) % 4; rem != 0 {
		s += strings.Repeat("=", 4-rem)
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return "", fmt.Errorf("failed to decode message body: %w", err)
	}
	return string(data), nil
}

// EncodeOutboundMessage builds a plain-text RFC 2822 message and returns it
// base64url-encoded without padding, ready for the messages.send raw field.
func EncodeOutboundMessage(to, subject, body string) string {
	lines := []string{
		"To: " + headerBreak.Replace(to),
		"Subject: " + encodeRFC2047(headerBreak.Replace(subject)),
		`Content-Type: text/plain; charset="UTF-8"`,
		"MIME-Version: 1.0",
		"",
		body,
	}
	return base64.RawURLEncoding.EncodeToString([]byte(strings.Join(lines, CRLF)))
}

// encodeRFC2047 encodes a string for use in email headers according to RFC 2047
// This is necessary for non-ASCII characters (like German umlauts) in subjects
func encodeRFC2047(s string) string {
	for _, r := range s {
		if r > 127 {
			return mime.BEncoding.Encode("UTF-8", s)
		}
	}
	return s
}

// ReplyRecipient returns the bare address of a From header value
// ("Jane <jane@example.com>" yields "jane@example.com"). Values without an
// angle-bracketed address are returned unchanged.
func ReplyRecipient(from string) string {
	if m := fromAddress.FindStringSubmatch(from); m != nil {
		return m[1]
	}
	return from
}

// ReplySubject prefixes "Re: " unless the subject already starts with "Re:".
func ReplySubject(subject string) string {
	if strings.HasPrefix(subject, "Re:") {
		return subject
	}
	return "Re: " + subject
}

// SenderName returns the display-name part of a From header value.
func SenderName(from string) string {
	if from == "" {
		return DefaultFrom
	}
	name, _, _ := strings.Cut(from, "<")
	return strings.TrimSpace(strings.ReplaceAll(name, `"`, ""))
}
