// Package requestctx carries per-request values (logger, trace, cart session and customer)
// between middleware, handlers and services.
package requestctx

import (
	"context"

	"go.uber.org/zap"
)

type key int

const (
	loggerKey key = iota
	traceKey
	sessionKey
	customerKey
)

var noopLogger = zap.NewNop()

// TraceInfo captures trace metadata propagated through request context.
type TraceInfo struct {
	TraceID string
	SpanID  string
	Sampled bool
}

func with(ctx context.Context, k key, value any) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, k, value)
}

func value[T any](ctx context.Context, k key) (T, bool) {
	var zero T
	if ctx == nil {
		return zero, false
	}
	v, ok := ctx.Value(k).(T)
	return v, ok
}

// WithLogger stores logger on ctx. A nil logger is replaced by the shared no-op logger.
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	if logger == nil {
		logger = noopLogger
	}
	return with(ctx, loggerKey, logger)
}

// Logger returns the request logger or the shared no-op logger.
func Logger(ctx context.Context) *zap.Logger {
	if logger, ok := value[*zap.Logger](ctx, loggerKey); ok && logger != nil {
		return logger
	}
	return noopLogger
}

// NoopLogger exposes the shared no-op logger so callers can detect a missing request logger.
func NoopLogger() *zap.Logger { return noopLogger }

func WithTrace(ctx context.Context, info TraceInfo) context.Context {
	return with(ctx, traceKey, info)
}

func Trace(ctx context.Context) (TraceInfo, bool) {
	return value[TraceInfo](ctx, traceKey)
}

func TraceID(ctx context.Context) string {
	info, _ := Trace(ctx)
	return info.TraceID
}

// WithSessionID records the cart session the request operates on.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return with(ctx, sessionKey, sessionID)
}

// SessionID returns the cart session identifier, or "" when absent.
func SessionID(ctx context.Context) string {
	id, _ := value[string](ctx, sessionKey)
	return id
}

// WithCustomerID records the customer named by the identity header.
func WithCustomerID(ctx context.Context, customerID string) context.Context {
	return with(ctx, customerKey, customerID)
}

// CustomerID returns the customer identifier, or "" for anonymous requests.
func CustomerID(ctx context.Context) string {
	id, _ := value[string](ctx, customerKey)
	return id
}
