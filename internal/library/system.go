package library

import (
	"context"
	"log/slog"
)

// System defines the library operations exposed to the API layer.
type System interface {
	// GetEntry returns the entry stored at req.Type/req.Path.
	// Failures are returned as *Error.
	GetEntry(ctx context.Context, req EntryRequest) (Entry, error)

	// SaveEntry stores an entry at req.Type/req.Path.
	// Failures are returned as *Error.
	SaveEntry(ctx context.Context, req SaveRequest) error

	// GetEntries returns the listing of all stored flows, with node example
	// flows attached under ExamplesKey. Returns ErrUnsupportedType for any
	// type other than FlowsType.
	GetEntries(ctx context.Context, req ListRequest) (*FlowListing, error)
}

// Store reads and writes individual library entries.
type Store interface {
	// GetEntry returns the entry at entryType/path. A nil entry with a nil
	// error signals a rejection without detail.
	GetEntry(ctx context.Context, entryType, path string) (Entry, error)

	SaveEntry(ctx context.Context, entryType, path string, meta map[string]any, body string) error
}

// FlowStorage lists every stored flow.
type FlowStorage interface {
	GetAllFlows(ctx context.Context) (*FlowListing, error)
}

// ExampleRegistry supplies the example flows shipped with installed nodes.
type ExampleRegistry interface {
	ExampleFlows() map[string]any
}

// Runtime bundles the collaborators a System depends on.
type Runtime struct {
	Store    Store
	Flows    FlowStorage
	Examples ExampleRegistry
	Audit    AuditLogger
	Logger   *slog.Logger
}
