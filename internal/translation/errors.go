package translation

import (
	"fmt"
	"strings"
)

// Reason classifies why a backend call failed.
type Reason string

const (
	ReasonTransport Reason = "transport"
	ReasonStatus    Reason = "status"
	ReasonDecode    Reason = "decode"
	ReasonEmpty     Reason = "empty"
)

// TranslateError is the failure side of a single backend call.
type TranslateError struct {
	Backend    Kind
	Reason     Reason
	StatusCode int
	Body       string
	Err        error
}

func (e *TranslateError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s translate failed (%s)", e.Backend, e.Reason)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": status %d", e.StatusCode)
	}
	if body := strings.TrimSpace(e.Body); body != "" {
		fmt.Fprintf(&b, ": %s", abbreviate(body, 300))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *TranslateError) Unwrap() error { return e.Err }

func transportError(kind Kind, err error) *TranslateError {
	return &TranslateError{Backend: kind, Reason: ReasonTransport, Err: err}
}

func statusError(kind Kind, code int, body string) *TranslateError {
	return &TranslateError{Backend: kind, Reason: ReasonStatus, StatusCode: code, Body: body}
}

func decodeError(kind Kind, err error) *TranslateError {
	return &TranslateError{Backend: kind, Reason: ReasonDecode, Err: err}
}

func emptyError(kind Kind) *TranslateError {
	return &TranslateError{Backend: kind, Reason: ReasonEmpty}
}

func abbreviate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
