// Package library mediates between the administrative API and the library
// storage subsystem. It fetches, saves and lists library entries, classifies
// storage failures into HTTP-ready errors, and records one audit event for
// every attempt.
package library

// FlowsType is the only entry type supported by GetEntries.
const FlowsType = "flows"

// ExamplesKey is the reserved directory key under which node example flows
// are attached to a flow listing.
const ExamplesKey = "_examples_"

// Entry is a stored library artifact as returned by the store: either the
// entry body or a directory listing. It is passed through unmodified.
type Entry = any

// EntryRequest identifies a single library entry.
type EntryRequest struct {
	User string `json:"user,omitempty"`
	Type string `json:"type"`
	Path string `json:"path"`
}

// SaveRequest carries an entry to be written. Meta and Body are handed to
// the store verbatim.
type SaveRequest struct {
	EntryRequest
	Meta map[string]any `json:"meta,omitempty"`
	Body string         `json:"body"`
}

// ListRequest asks for every entry of a type.
type ListRequest struct {
	User string `json:"user,omitempty"`
	Type string `json:"type"`
}

// FlowListing is the nested listing of stored flows. Dirs maps directory
// names to nested *FlowListing values; Files holds entry names without
// their extension.
type FlowListing struct {
	Dirs  map[string]any `json:"d,omitempty"`
	Files []string       `json:"f,omitempty"`
}
