package instrumentation

import "strings"

// ExtractUserDomain extracts the domain part from an email address.
// Logs and metrics carry the domain rather than the full address.
//
// Example:
//
//	ExtractUserDomain("jane@example.com")  // "example.com"
//	ExtractUserDomain("invalid")           // "unknown"
//	ExtractUserDomain("")                  // "unknown"
func ExtractUserDomain(email string) string {
	if email == "" {
		return "unknown"
	}

	parts := strings.Split(email, "@")
	if len(parts) == 2 && parts[1] != "" {
		return parts[1]
	}

	return "unknown"
}

// CountBucket maps a message count to a small fixed set of label values so
// bulk sizes can be attached to metrics without unbounded cardinality.
func CountBucket(n int) string {
	switch {
	case n <= 0:
		return "0"
	case n == 1:
		return "1"
	case n <= 5:
		return "2-5"
	case n <= 15:
		return "6-15"
	default:
		return "16+"
	}
}

// Operation types for Gmail API metrics.
// Status and Service constants are defined in config.go.
const (
	OperationList        = "list"
	OperationGet         = "get"
	OperationCreate      = "create"
	OperationDelete      = "delete"
	OperationSend        = "send"
	OperationModify      = "modify"
	OperationBatchModify = "batch_modify"
)

// Purposes of completion requests.
const (
	PurposeSentiment = "sentiment"
	PurposeSummary   = "summary"
	PurposeDraft     = "draft"
)
