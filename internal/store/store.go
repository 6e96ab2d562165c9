// Package store provides library storage backends. Each backend persists
// library entries addressed by type and path, lists stored flows, and
// reports failures as coded errors the library facade can classify.
package store

import (
	"context"
	"errors"

	"github.com/efinel/node-red/internal/library"
	"github.com/efinel/node-red/pkg/lifecycle"
)

// Failure codes carried by CodedError.
const (
	CodeForbidden = library.CodeForbidden
	CodeNotFound  = library.CodeNotFound
	CodeTooLarge  = "too_large"
)

// Storage errors returned by System implementations.
var (
	// ErrNotFound indicates no entry exists at the requested path.
	ErrNotFound = errors.New("store: entry not found")

	// ErrPermissionDenied indicates the backend refused access to the entry.
	ErrPermissionDenied = errors.New("store: permission denied")

	// ErrInvalidKey indicates the type or path is malformed or escapes the
	// library root.
	ErrInvalidKey = errors.New("store: invalid key")

	// ErrTooLarge indicates an entry body exceeds the configured limit.
	ErrTooLarge = errors.New("store: entry too large")
)

// CodedError attaches a library failure code to a storage error.
type CodedError struct {
	code string
	err  error
}

func (e *CodedError) Error() string { return e.err.Error() }
func (e *CodedError) Code() string  { return e.code }
func (e *CodedError) Unwrap() error { return e.err }

// codeError wraps err with the code matching its sentinel. Errors without a
// matching sentinel are returned unchanged.
func codeError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return &CodedError{code: CodeNotFound, err: err}
	case errors.Is(err, ErrPermissionDenied), errors.Is(err, ErrInvalidKey):
		return &CodedError{code: CodeForbidden, err: err}
	case errors.Is(err, ErrTooLarge):
		return &CodedError{code: CodeTooLarge, err: err}
	}
	return err
}

// System is a library storage backend.
type System interface {
	library.Store
	library.FlowStorage

	// Start registers lifecycle hooks with the coordinator.
	Start(lc *lifecycle.Coordinator) error
}

// Migrator is implemented by backends with a managed schema.
type Migrator interface {
	Migrate(ctx context.Context) error
}
