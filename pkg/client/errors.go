package client

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorKind buckets backend failures into the classes callers act on.
type ErrorKind string

const (
	// ErrorKindConnection: backend unreachable. Surfaced as-is; retries
	// belong to the transport layer, not to diff/apply logic.
	ErrorKindConnection ErrorKind = "connection"
	ErrorKindAuth       ErrorKind = "auth"
	ErrorKindNotFound   ErrorKind = "not_found"
	ErrorKindValidation ErrorKind = "validation"
	ErrorKindConflict   ErrorKind = "conflict"
	// ErrorKindReadOnly: the backend runs in declarative/db-less mode and
	// rejects direct entity writes.
	ErrorKindReadOnly ErrorKind = "read_only"
	ErrorKindUnknown  ErrorKind = "unknown"
)

// APIError is the classified form of a backend rejection.
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s error (HTTP %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

func classifyStatus(statusCode int, body string) *APIError {
	kind := ErrorKindUnknown
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		kind = ErrorKindAuth
	case http.StatusNotFound:
		kind = ErrorKindNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		kind = ErrorKindValidation
	case http.StatusConflict:
		kind = ErrorKindConflict
	case http.StatusMethodNotAllowed:
		// Kong in db-less mode answers admin writes with 405 and a
		// "read-only" hint in the body.
		if strings.Contains(strings.ToLower(body), "read-only") ||
			strings.Contains(strings.ToLower(body), "declarative") {
			kind = ErrorKindReadOnly
		}
	}
	return &APIError{Kind: kind, StatusCode: statusCode, Message: body}
}

func connectionError(err error) *APIError {
	return &APIError{Kind: ErrorKindConnection, Message: err.Error()}
}

// IsNotFound reports whether err is a not-found rejection. Exists checks
// are implemented by converting this class to a boolean, never by string
// matching.
func IsNotFound(err error) bool {
	return isKind(err, ErrorKindNotFound)
}

// IsReadOnly reports whether the backend rejected a write because it runs
// in declarative-only mode.
func IsReadOnly(err error) bool {
	return isKind(err, ErrorKindReadOnly)
}

func isKind(err error, kind ErrorKind) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind == kind
	}
	return false
}
