package backend

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/framezapp/framez/internal/common"
)

// Error codes returned by the hosted table API.
const (
	// codeNoRows is returned for a single-row query matching zero rows.
	codeNoRows = "PGRST116"
	// codeUniqueViolation is the Postgres unique-constraint violation.
	codeUniqueViolation = "23505"
)

// APIError is a non-2xx response from the backend. It unwraps to one of the
// common sentinel errors so callers can branch with errors.Is.
type APIError struct {
	Status  int
	Code    string
	Message string

	sentinel error
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("backend: %s (%d %s)", e.Message, e.Status, e.Code)
	}
	return fmt.Sprintf("backend: %s (%d)", e.Message, e.Status)
}

func (e *APIError) Unwrap() error {
	return e.sentinel
}

// newAPIError classifies a backend error response into the shared taxonomy.
func newAPIError(status int, code, message string) *APIError {
	e := &APIError{Status: status, Code: code, Message: message}

	switch {
	case code == codeNoRows:
		e.sentinel = common.ErrNotFound
	case code == codeUniqueViolation || strings.Contains(message, "duplicate key"):
		e.sentinel = common.ErrDuplicate
	case strings.Contains(message, "Invalid login credentials"):
		e.sentinel = common.ErrInvalidCredentials
	case strings.Contains(message, "Email not confirmed"):
		e.sentinel = common.ErrEmailNotConfirmed
	case strings.Contains(message, "already registered"):
		e.sentinel = common.ErrAlreadyRegistered
	case status == http.StatusUnauthorized:
		e.sentinel = common.ErrUnauthorized
	case status == http.StatusTooManyRequests:
		e.sentinel = common.ErrRateLimited
	case status == http.StatusNotFound:
		e.sentinel = common.ErrNotFound
	case status >= http.StatusInternalServerError:
		e.sentinel = common.ErrUnavailable
	}
	return e
}
