package mail

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
)

var (
	// ErrUnauthorized matches failures where Gmail rejected the credential
	// (401 or 403). Callers must treat the session as over.
	ErrUnauthorized = errors.New("gmail credential invalid")

	// ErrTransport matches every other failed Gmail call.
	ErrTransport = errors.New("gmail request failed")
)

// APIError is returned by every Client operation that fails.
type APIError struct {
	Op         string
	StatusCode int // 0 when no HTTP response was received
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("gmail %s failed with status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("gmail %s failed: %v", e.Op, e.Err)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is classify an APIError as ErrUnauthorized or ErrTransport.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Unauthorized()
	case ErrTransport:
		return !e.Unauthorized()
	}
	return false
}

// Unauthorized reports whether the status code signals an invalid credential.
func (e *APIError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

func wrapAPIError(op string, err error) error {
	if err == nil {
		return nil
	}
	var existing *APIError
	if errors.As(err, &existing) {
		return err
	}
	apiErr := &APIError{Op: op, Err: err}
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		apiErr.StatusCode = gErr.Code
	}
	return apiErr
}
