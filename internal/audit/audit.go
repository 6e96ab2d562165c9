// Package audit records library audit events as structured log records.
// Each record carries a unique event id and, when present on the context,
// the correlation id of the request that caused it.
package audit

import (
	"context"
	"log/slog"
	"strings"

	"github.com/efinel/node-red/internal/library"
	"github.com/google/uuid"
)

type correlationIDKey struct{}

// WithCorrelationID attaches a correlation id to ctx. An empty id is
// replaced with a new uuid.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	id = strings.TrimSpace(id)
	if id == "" {
		id = uuid.NewString()
	}
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// CorrelationID returns the correlation id carried by ctx.
func CorrelationID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(correlationIDKey{}).(string)
	return id, ok
}

// Logger writes audit events to a dedicated slog logger.
type Logger struct {
	logger *slog.Logger
}

// New creates an audit Logger. Records are written at info level under the
// "audit" message.
func New(logger *slog.Logger) *Logger {
	return &Logger{logger: logger.With("system", "audit")}
}

func (l *Logger) Audit(ctx context.Context, event library.AuditEvent) {
	attrs := []any{
		"event_id", uuid.NewString(),
		"event", event.Event,
		"type", event.Type,
	}
	if event.Path != "" {
		attrs = append(attrs, "path", event.Path)
	}
	if event.Error != "" {
		attrs = append(attrs, "error", event.Error)
	}
	if event.Message != "" {
		attrs = append(attrs, "message", event.Message)
	}
	if event.User != "" {
		attrs = append(attrs, "user", event.User)
	}
	if id, ok := CorrelationID(ctx); ok {
		attrs = append(attrs, "correlation_id", id)
	}

	l.logger.InfoContext(ctx, "audit", attrs...)
}
