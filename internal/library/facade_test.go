package library_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/efinel/node-red/internal/library"
)

type codedError struct {
	code string
	msg  string
}

func (e *codedError) Error() string { return e.msg }
func (e *codedError) Code() string  { return e.code }

type fakeStore struct {
	entry    library.Entry
	getErr   error
	saveErr  error
	gets     int
	saves    int
	lastMeta map[string]any
	lastBody string
}

func (s *fakeStore) GetEntry(ctx context.Context, entryType, path string) (library.Entry, error) {
	s.gets++
	return s.entry, s.getErr
}

func (s *fakeStore) SaveEntry(ctx context.Context, entryType, path string, meta map[string]any, body string) error {
	s.saves++
	s.lastMeta = meta
	s.lastBody = body
	return s.saveErr
}

type fakeFlows struct {
	listing *library.FlowListing
	err     error
	calls   int
}

func (f *fakeFlows) GetAllFlows(ctx context.Context) (*library.FlowListing, error) {
	f.calls++
	return f.listing, f.err
}

type fakeExamples map[string]any

func (e fakeExamples) ExampleFlows() map[string]any { return e }

type auditRecorder struct {
	events []library.AuditEvent
}

func (r *auditRecorder) Audit(ctx context.Context, event library.AuditEvent) {
	r.events = append(r.events, event)
}

type harness struct {
	sys    library.System
	store  *fakeStore
	flows  *fakeFlows
	audit  *auditRecorder
	logBuf *bytes.Buffer
}

func newHarness(t *testing.T, examples library.ExampleRegistry) *harness {
	t.Helper()
	h := &harness{
		store:  &fakeStore{},
		flows:  &fakeFlows{},
		audit:  &auditRecorder{},
		logBuf: &bytes.Buffer{},
	}
	logger := slog.New(slog.NewJSONHandler(h.logBuf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	sys, err := library.New(library.Runtime{
		Store:    h.store,
		Flows:    h.flows,
		Examples: examples,
		Audit:    h.audit,
		Logger:   logger,
	})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	h.sys = sys
	return h
}

func (h *harness) warnings() int {
	return strings.Count(h.logBuf.String(), `"level":"WARN"`)
}

func (h *harness) onlyEvent(t *testing.T) library.AuditEvent {
	t.Helper()
	if len(h.audit.events) != 1 {
		t.Fatalf("audit events = %d, want 1: %+v", len(h.audit.events), h.audit.events)
	}
	return h.audit.events[0]
}

func asLibraryError(t *testing.T, err error) *library.Error {
	t.Helper()
	var lerr *library.Error
	if !errors.As(err, &lerr) {
		t.Fatalf("error %v (%T) is not *library.Error", err, err)
	}
	return lerr
}

var entryReq = library.EntryRequest{User: "admin", Type: "functions", Path: "utils/hello"}

func TestGetEntry_Success(t *testing.T) {
	h := newHarness(t, nil)
	h.store.entry = "return msg;"

	got, err := h.sys.GetEntry(context.Background(), entryReq)
	if err != nil {
		t.Fatalf("GetEntry() error = %v", err)
	}
	if got != "return msg;" {
		t.Errorf("GetEntry() = %v, want %q", got, "return msg;")
	}

	ev := h.onlyEvent(t)
	want := library.AuditEvent{Event: library.EventGet, Type: "functions", Path: "utils/hello", User: "admin"}
	if ev != want {
		t.Errorf("audit = %+v, want %+v", ev, want)
	}
	if h.warnings() != 0 {
		t.Errorf("warnings = %d, want 0", h.warnings())
	}
}

func TestGetEntry_PassesListingThrough(t *testing.T) {
	h := newHarness(t, nil)
	listing := []any{"sub", map[string]any{"fn": "a.js"}}
	h.store.entry = listing

	got, err := h.sys.GetEntry(context.Background(), entryReq)
	if err != nil {
		t.Fatalf("GetEntry() error = %v", err)
	}
	items, ok := got.([]any)
	if !ok || len(items) != 2 || items[0] != "sub" {
		t.Errorf("GetEntry() = %#v, want listing unchanged", got)
	}
}

func TestGetEntry_Failures(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
	}{
		{"forbidden", &codedError{"forbidden", "denied"}, library.CodeForbidden, http.StatusForbidden},
		{"not found", &codedError{"not_found", "missing"}, library.CodeNotFound, http.StatusNotFound},
		{"other code", &codedError{"EISDIR", "is a directory"}, "EISDIR", http.StatusBadRequest},
		{"no code", errors.New("disk on fire"), "", http.StatusBadRequest},
		{"forbidden sentinel", library.ErrForbidden, library.CodeForbidden, http.StatusForbidden},
		{"wrapped not found sentinel", errors.Join(errors.New("read"), library.ErrNotFound), library.CodeNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)
			h.store.getErr = tt.err

			got, err := h.sys.GetEntry(context.Background(), entryReq)
			if got != nil {
				t.Errorf("GetEntry() entry = %v, want nil", got)
			}

			lerr := asLibraryError(t, err)
			if lerr.Status != tt.wantStatus {
				t.Errorf("Status = %d, want %d", lerr.Status, tt.wantStatus)
			}
			if lerr.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", lerr.Code, tt.wantCode)
			}
			if lerr.Cause != tt.err {
				t.Errorf("Cause = %v, want original error", lerr.Cause)
			}
			if !errors.Is(err, tt.err) {
				t.Error("errors.Is(err, original) = false")
			}

			ev := h.onlyEvent(t)
			want := library.AuditEvent{Event: library.EventGet, Type: "functions", Path: "utils/hello", Error: tt.wantCode, User: "admin"}
			if ev != want {
				t.Errorf("audit = %+v, want %+v", ev, want)
			}

			if h.warnings() != 1 {
				t.Errorf("warnings = %d, want 1", h.warnings())
			}
			if !strings.Contains(h.logBuf.String(), "utils/hello") {
				t.Error("warning does not reference the path")
			}
		})
	}
}

func TestGetEntry_RejectionWithoutDetail(t *testing.T) {
	h := newHarness(t, nil)

	_, err := h.sys.GetEntry(context.Background(), entryReq)

	lerr := asLibraryError(t, err)
	if lerr.Status != http.StatusNotFound {
		t.Errorf("Status = %d, want %d", lerr.Status, http.StatusNotFound)
	}
	if lerr.Code != library.CodeNotFound {
		t.Errorf("Code = %q, want %q", lerr.Code, library.CodeNotFound)
	}
	if lerr.Cause != nil {
		t.Errorf("Cause = %v, want nil", lerr.Cause)
	}

	ev := h.onlyEvent(t)
	if ev.Path != "" {
		t.Errorf("audit Path = %q, want omitted", ev.Path)
	}
	if ev.Error != library.CodeNotFound || ev.Event != library.EventGet || ev.Type != "functions" {
		t.Errorf("audit = %+v", ev)
	}
	if h.warnings() != 1 {
		t.Errorf("warnings = %d, want 1", h.warnings())
	}
}

func TestGetEntry_NoCaching(t *testing.T) {
	h := newHarness(t, nil)
	h.store.entry = "body"

	first, _ := h.sys.GetEntry(context.Background(), entryReq)
	second, _ := h.sys.GetEntry(context.Background(), entryReq)

	if first != second {
		t.Errorf("results differ: %v vs %v", first, second)
	}
	if h.store.gets != 2 {
		t.Errorf("store calls = %d, want 2", h.store.gets)
	}
	if len(h.audit.events) != 2 {
		t.Errorf("audit events = %d, want 2", len(h.audit.events))
	}
}

func TestSaveEntry_Success(t *testing.T) {
	h := newHarness(t, nil)
	req := library.SaveRequest{
		EntryRequest: entryReq,
		Meta:         map[string]any{"name": "hello", "outputs": 1},
		Body:         "return msg;",
	}

	if err := h.sys.SaveEntry(context.Background(), req); err != nil {
		t.Fatalf("SaveEntry() error = %v", err)
	}

	if h.store.lastBody != "return msg;" || h.store.lastMeta["name"] != "hello" {
		t.Errorf("store received meta=%v body=%q", h.store.lastMeta, h.store.lastBody)
	}

	ev := h.onlyEvent(t)
	want := library.AuditEvent{Event: library.EventSet, Type: "functions", Path: "utils/hello", User: "admin"}
	if ev != want {
		t.Errorf("audit = %+v, want %+v", ev, want)
	}
	if h.warnings() != 0 {
		t.Errorf("warnings = %d, want 0", h.warnings())
	}
}

func TestSaveEntry_Forbidden(t *testing.T) {
	h := newHarness(t, nil)
	storeErr := &codedError{"forbidden", "read-only library"}
	h.store.saveErr = storeErr

	err := h.sys.SaveEntry(context.Background(), library.SaveRequest{EntryRequest: entryReq})

	lerr := asLibraryError(t, err)
	if lerr.Status != http.StatusForbidden {
		t.Errorf("Status = %d, want %d", lerr.Status, http.StatusForbidden)
	}
	if lerr.Cause != storeErr {
		t.Error("Cause is not the original error")
	}

	ev := h.onlyEvent(t)
	if ev.Error != library.CodeForbidden || ev.Message != "" || ev.Path != "utils/hello" {
		t.Errorf("audit = %+v", ev)
	}
	if h.warnings() != 1 {
		t.Errorf("warnings = %d, want 1", h.warnings())
	}
}

func TestSaveEntry_Unexpected(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"not found code", &codedError{"not_found", "no such dir"}},
		{"no code", errors.New("disk full")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)
			h.store.saveErr = tt.err

			err := h.sys.SaveEntry(context.Background(), library.SaveRequest{EntryRequest: entryReq})

			lerr := asLibraryError(t, err)
			if lerr.Status != http.StatusBadRequest {
				t.Errorf("Status = %d, want %d", lerr.Status, http.StatusBadRequest)
			}
			if lerr.Code != "" || lerr.Cause != nil {
				t.Errorf("error keeps original detail: %+v", lerr)
			}
			if errors.Is(err, tt.err) {
				t.Error("returned error wraps the original")
			}

			ev := h.onlyEvent(t)
			want := library.AuditEvent{
				Event:   library.EventSet,
				Type:    "functions",
				Path:    "utils/hello",
				Error:   library.CodeUnexpected,
				Message: tt.err.Error(),
				User:    "admin",
			}
			if ev != want {
				t.Errorf("audit = %+v, want %+v", ev, want)
			}
			if h.warnings() != 1 {
				t.Errorf("warnings = %d, want 1", h.warnings())
			}
		})
	}
}

func TestGetEntries_UnsupportedType(t *testing.T) {
	h := newHarness(t, nil)

	_, err := h.sys.GetEntries(context.Background(), library.ListRequest{Type: "articles"})
	if !errors.Is(err, library.ErrUnsupportedType) {
		t.Fatalf("GetEntries() error = %v, want ErrUnsupportedType", err)
	}

	var lerr *library.Error
	if errors.As(err, &lerr) {
		t.Error("validation failure carries a status")
	}
	if len(h.audit.events) != 0 {
		t.Errorf("audit events = %d, want 0", len(h.audit.events))
	}
	if h.flows.calls != 0 {
		t.Errorf("flow storage called %d times", h.flows.calls)
	}
}

func TestGetEntries_AttachesExamples(t *testing.T) {
	h := newHarness(t, fakeExamples{"a": 1})
	h.flows.listing = &library.FlowListing{Files: []string{"one"}}

	got, err := h.sys.GetEntries(context.Background(), library.ListRequest{User: "admin", Type: library.FlowsType})
	if err != nil {
		t.Fatalf("GetEntries() error = %v", err)
	}

	examples, ok := got.Dirs[library.ExamplesKey].(map[string]any)
	if !ok || examples["a"] != 1 {
		t.Errorf("Dirs[%q] = %v, want {a:1}", library.ExamplesKey, got.Dirs[library.ExamplesKey])
	}
	if len(got.Files) != 1 || got.Files[0] != "one" {
		t.Errorf("Files = %v, want [one]", got.Files)
	}

	ev := h.onlyEvent(t)
	want := library.AuditEvent{Event: library.EventGetAll, Type: "flow", User: "admin"}
	if ev != want {
		t.Errorf("audit = %+v, want %+v", ev, want)
	}
}

func TestGetEntries_NoExamples(t *testing.T) {
	registries := map[string]library.ExampleRegistry{
		"nil registry": nil,
		"nil map":      fakeExamples(nil),
		"empty map":    fakeExamples{},
	}

	for name, reg := range registries {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t, reg)
			h.flows.listing = &library.FlowListing{Files: []string{"one"}}

			got, err := h.sys.GetEntries(context.Background(), library.ListRequest{Type: library.FlowsType})
			if err != nil {
				t.Fatalf("GetEntries() error = %v", err)
			}
			if got.Dirs != nil {
				t.Errorf("Dirs = %v, want nil", got.Dirs)
			}
			if len(h.audit.events) != 1 {
				t.Errorf("audit events = %d, want 1", len(h.audit.events))
			}
		})
	}
}

func TestGetEntries_StorageFailure(t *testing.T) {
	h := newHarness(t, nil)
	storeErr := errors.New("flows unavailable")
	h.flows.err = storeErr

	_, err := h.sys.GetEntries(context.Background(), library.ListRequest{Type: library.FlowsType})
	if err != storeErr {
		t.Errorf("GetEntries() error = %v, want original", err)
	}
	if len(h.audit.events) != 0 {
		t.Errorf("audit events = %d, want 0", len(h.audit.events))
	}
}

func TestNew_RequiresCollaborators(t *testing.T) {
	tests := []struct {
		name string
		rt   library.Runtime
	}{
		{"missing store", library.Runtime{Flows: &fakeFlows{}, Audit: &auditRecorder{}}},
		{"missing flows", library.Runtime{Store: &fakeStore{}, Audit: &auditRecorder{}}},
		{"missing audit", library.Runtime{Store: &fakeStore{}, Flows: &fakeFlows{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys, err := library.New(tt.rt)
			if !errors.Is(err, library.ErrMissingCollaborator) {
				t.Errorf("New() error = %v, want ErrMissingCollaborator", err)
			}
			if sys != nil {
				t.Error("New() returned a System alongside the error")
			}
		})
	}
}

func TestNew_OptionalCollaborators(t *testing.T) {
	sys, err := library.New(library.Runtime{Store: &fakeStore{}, Flows: &fakeFlows{}, Audit: &auditRecorder{}})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if _, err := sys.GetEntries(context.Background(), library.ListRequest{Type: library.FlowsType}); err != nil {
		t.Errorf("GetEntries() without examples or logger failed: %v", err)
	}
}
