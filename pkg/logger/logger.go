// Package logger provides an slog handler that stamps records with request scoped ids.
package logger

import (
	"context"
	"log/slog"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/trace"
)

// WithRequestID stores id where both chi handlers and ContextHandler look for it.
// Transports other than HTTP use it to correlate their logs the same way.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, middleware.RequestIDKey, id)
}

// RequestID returns the id stored by WithRequestID or chi's RequestID middleware.
func RequestID(ctx context.Context) string {
	return middleware.GetReqID(ctx)
}

// ContextHandler adds trace_id and request_id attributes taken from the record's context.
type ContextHandler struct {
	slog.Handler
}

func NewContextHandler(handler slog.Handler) *ContextHandler {
	return &ContextHandler{Handler: handler}
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(slog.String("trace_id", sc.TraceID().String()))
	}
	if id := RequestID(ctx); id != "" {
		r.AddAttrs(slog.String("request_id", id))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return NewContextHandler(h.Handler.WithAttrs(attrs))
}

func (h *ContextHandler) WithGroup(group string) slog.Handler {
	return NewContextHandler(h.Handler.WithGroup(group))
}
