package automation

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrElementNotFound means a required element never appeared within its bound.
	ErrElementNotFound = errors.New("element not found")

	// ErrNotVerified means neither a success nor an error signal appeared,
	// even after reloading the page.
	ErrNotVerified = errors.New("outcome not verified")

	// ErrNoStrategyMatched means every strategy of a fallback chain came up empty.
	ErrNoStrategyMatched = errors.New("no strategy matched")
)

// OptionNotFoundError is returned when a dropdown does not offer the requested value.
type OptionNotFoundError struct {
	Value   string
	Options []string
}

func (e *OptionNotFoundError) Error() string {
	return fmt.Sprintf("value %q not found in dropdown options: %s", e.Value, strings.Join(e.Options, ", "))
}

// VerificationError is returned when re-reading a control shows a value
// other than the one just entered.
type VerificationError struct {
	Field    string
	Expected string
	Got      string
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("%s verification failed. Expected: %q, Got: %q", e.Field, e.Expected, e.Got)
}

// ServerError reports a failure signalled by the application itself, either
// an HTTP error status observed on the wire or an error banner on the page.
type ServerError struct {
	// Status is the HTTP status, zero for a page banner
	Status     int
	StatusText string
	URL        string
	// Message is the banner text, empty for a network error
	Message string
}

func (e *ServerError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("network error: HTTP %d: %s", e.Status, e.StatusText)
	}
	return fmt.Sprintf("server error: %s", e.Message)
}

// Network reports whether the error came from an HTTP status.
func (e *ServerError) Network() bool {
	return e.Status != 0
}
