package library

import (
	"errors"
	"net/http"
)

// Error codes recognized on store failures.
const (
	CodeForbidden  = "forbidden"
	CodeNotFound   = "not_found"
	CodeUnexpected = "unexpected_error"
)

var (
	// ErrUnsupportedType is returned by GetEntries for any type other than
	// FlowsType. It carries no status; callers map it themselves.
	ErrUnsupportedType = errors.New("API only supports flows")

	// ErrForbidden and ErrNotFound let stores signal a code without
	// implementing Coder.
	ErrForbidden = errors.New("library: forbidden")
	ErrNotFound  = errors.New("library: not found")

	// ErrMissingCollaborator is returned by New when a required Runtime
	// field is nil.
	ErrMissingCollaborator = errors.New("library: missing runtime collaborator")
)

// Coder is implemented by store errors that carry a classification code.
type Coder interface {
	Code() string
}

// Error is a classified store failure ready for an HTTP response.
// Cause holds the store's error when its identity is preserved and is nil
// when the error was synthesized.
type Error struct {
	Code    string `json:"code,omitempty"`
	Status  int    `json:"status"`
	Message string `json:"message,omitempty"`
	Cause   error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return http.StatusText(e.Status)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// ErrorCode returns the classification code of err, or "" when err carries
// none.
func ErrorCode(err error) string {
	var c Coder
	if errors.As(err, &c) {
		return c.Code()
	}
	switch {
	case errors.Is(err, ErrForbidden):
		return CodeForbidden
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	}
	return ""
}

// MapHTTPStatus maps errors returned by System to HTTP status codes.
func MapHTTPStatus(err error) int {
	var le *Error
	if errors.As(err, &le) {
		return le.Status
	}
	if errors.Is(err, ErrUnsupportedType) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func classify(err error) *Error {
	code := ErrorCode(err)

	status := http.StatusBadRequest
	switch code {
	case CodeForbidden:
		status = http.StatusForbidden
	case CodeNotFound:
		status = http.StatusNotFound
	}

	return &Error{
		Code:    code,
		Status:  status,
		Message: err.Error(),
		Cause:   err,
	}
}
