package library

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
)

type facade struct {
	rt Runtime
}

// New creates a library System bound to the given runtime collaborators.
// Store, Flows, and Audit are required. Examples is optional and Logger
// defaults to slog.Default().
func New(rt Runtime) (System, error) {
	switch {
	case rt.Store == nil:
		return nil, fmt.Errorf("%w: store", ErrMissingCollaborator)
	case rt.Flows == nil:
		return nil, fmt.Errorf("%w: flows", ErrMissingCollaborator)
	case rt.Audit == nil:
		return nil, fmt.Errorf("%w: audit", ErrMissingCollaborator)
	}

	if rt.Logger == nil {
		rt.Logger = slog.Default()
	}
	rt.Logger = rt.Logger.With("system", "library")
	return &facade{rt: rt}, nil
}

func (f *facade) GetEntry(ctx context.Context, req EntryRequest) (Entry, error) {
	entry, err := f.rt.Store.GetEntry(ctx, req.Type, req.Path)

	if err != nil {
		f.rt.Logger.Warn("error loading library entry", "path", req.Path, "error", err.Error())

		lerr := classify(err)
		f.audit(ctx, AuditEvent{
			Event: EventGet,
			Type:  req.Type,
			Path:  req.Path,
			Error: lerr.Code,
			User:  req.User,
		})
		return nil, lerr
	}

	if entry == nil {
		f.rt.Logger.Warn("error loading library entry", "path", req.Path, "error", CodeNotFound)

		f.audit(ctx, AuditEvent{
			Event: EventGet,
			Type:  req.Type,
			Error: CodeNotFound,
			User:  req.User,
		})
		return nil, &Error{Code: CodeNotFound, Status: http.StatusNotFound}
	}

	f.audit(ctx, AuditEvent{
		Event: EventGet,
		Type:  req.Type,
		Path:  req.Path,
		User:  req.User,
	})
	return entry, nil
}

func (f *facade) SaveEntry(ctx context.Context, req SaveRequest) error {
	err := f.rt.Store.SaveEntry(ctx, req.Type, req.Path, req.Meta, req.Body)

	if err != nil {
		f.rt.Logger.Warn("error saving library entry", "path", req.Path, "error", err.Error())

		if ErrorCode(err) == CodeForbidden {
			f.audit(ctx, AuditEvent{
				Event: EventSet,
				Type:  req.Type,
				Path:  req.Path,
				Error: CodeForbidden,
				User:  req.User,
			})
			return &Error{
				Code:    CodeForbidden,
				Status:  http.StatusForbidden,
				Message: err.Error(),
				Cause:   err,
			}
		}

		f.audit(ctx, AuditEvent{
			Event:   EventSet,
			Type:    req.Type,
			Path:    req.Path,
			Error:   CodeUnexpected,
			Message: err.Error(),
			User:    req.User,
		})
		return &Error{Status: http.StatusBadRequest}
	}

	f.audit(ctx, AuditEvent{
		Event: EventSet,
		Type:  req.Type,
		Path:  req.Path,
		User:  req.User,
	})
	return nil
}

func (f *facade) GetEntries(ctx context.Context, req ListRequest) (*FlowListing, error) {
	if req.Type != FlowsType {
		return nil, ErrUnsupportedType
	}

	flows, err := f.rt.Flows.GetAllFlows(ctx)
	if err != nil {
		f.rt.Logger.Warn("error listing library flows", "error", err.Error())
		return nil, err
	}
	if flows == nil {
		flows = &FlowListing{}
	}

	f.audit(ctx, AuditEvent{
		Event: EventGetAll,
		Type:  "flow",
		User:  req.User,
	})

	if f.rt.Examples != nil {
		if examples := f.rt.Examples.ExampleFlows(); len(examples) > 0 {
			if flows.Dirs == nil {
				flows.Dirs = make(map[string]any)
			}
			flows.Dirs[ExamplesKey] = examples
		}
	}

	return flows, nil
}

func (f *facade) audit(ctx context.Context, event AuditEvent) {
	f.rt.Audit.Audit(ctx, event)
}
