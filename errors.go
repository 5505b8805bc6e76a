package sdk

import (
	"fmt"
	"io"
	"net/http"
	"strings"
)

// APIError conveys an upstream failure. Message is the server's plain-text
// body, surfaced verbatim when non-empty; otherwise a default per status.
type APIError struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("sdk: http %d: %s", e.Status, e.Message)
}

// TransportError means the server could not be reached at all, as opposed
// to a credential or validation failure.
type TransportError struct {
	Cause error
}

func (e *TransportError) Error() string {
	return "sdk: server unreachable: " + e.Cause.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

func defaultStatusMessage(status int) string {
	switch {
	case status == http.StatusUnauthorized:
		return "authentication required"
	case status == http.StatusForbidden:
		return "access denied"
	case status == http.StatusNotFound:
		return "resource not found"
	case status >= 500:
		return "server error"
	default:
		return "request failed"
	}
}

func decodeAPIError(resp *http.Response) error {
	data, _ := io.ReadAll(resp.Body)
	message := strings.TrimSpace(string(data))
	if message == "" {
		message = defaultStatusMessage(resp.StatusCode)
	}
	return &APIError{Status: resp.StatusCode, Message: message}
}
