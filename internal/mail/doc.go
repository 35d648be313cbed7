// Package mail is the Gmail boundary of smartinbox.
//
// It contains three layers:
//   - the wire codec, which decodes base64url body payloads and encodes
//     outbound plain-text messages for messages.send
//   - the normalizer, which flattens a full-format Gmail message tree into
//     a render-ready Message
//   - the transport Client, which issues bearer-authenticated calls against
//     the Gmail REST API (messages, labels, filters)
//
// Every failed Client call returns an *APIError. Use errors.Is with
// ErrUnauthorized to detect a rejected credential (401/403) and with
// ErrTransport for every other failure.
//
// Example usage:
//
//	client, err := mail.NewClient(ctx, accessToken, mail.Options{})
//	if err != nil {
//	    return err
//	}
//	messages, err := client.ListMessages(ctx, mail.DefaultPageSize, "in:inbox")
//	if errors.Is(err, mail.ErrUnauthorized) {
//	    // force a new login
//	}
package mail
