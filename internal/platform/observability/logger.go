package observability

import (
	"context"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/huertohogar/storefront/internal/platform/requestctx"
)

const defaultLogLevel = "info"

// NewLogger constructs a zap logger emitting structured JSON at LOG_LEVEL.
func NewLogger() (*zap.Logger, error) {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL"))))); err != nil {
		_ = level.UnmarshalText([]byte(defaultLogLevel))
	}

	encoderCfg := zapcore.EncoderConfig{
		MessageKey: "message",
		TimeKey:    "timestamp",
		LevelKey:   "severity",
		EncodeTime: zapcore.RFC3339NanoTimeEncoder,
		EncodeLevel: func(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(strings.ToUpper(level.String()))
		},
		CallerKey:     "caller",
		StacktraceKey: "stacktrace",
	}

	cfg := zap.Config{
		Level:             level,
		Encoding:          "json",
		EncoderConfig:     encoderCfg,
		OutputPaths:       []string{"stdout"},
		ErrorOutputPaths:  []string{"stderr"},
		DisableStacktrace: true,
	}
	return cfg.Build()
}

// FromContext retrieves the logger from context, defaulting to a no-op logger.
func FromContext(ctx context.Context) *zap.Logger {
	return requestctx.Logger(ctx)
}

// WithRequestFields augments the logger with request-scoped fields.
func WithRequestFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return logger.With(fields...)
}

// EventLogger adapts zap to the event-style logger accepted by services. Events
// ending in "failed" or "error" log at error level, "rejected" and "ignored" at warn.
// The request-scoped logger wins over fallback when one is present on ctx.
func EventLogger(fallback *zap.Logger) func(ctx context.Context, event string, fields map[string]any) {
	if fallback == nil {
		fallback = zap.NewNop()
	}
	return func(ctx context.Context, event string, fields map[string]any) {
		logger := requestctx.Logger(ctx)
		if logger == requestctx.NoopLogger() {
			logger = fallback
		}
		zfields := make([]zap.Field, 0, len(fields))
		for key, value := range fields {
			if err, ok := value.(error); ok {
				zfields = append(zfields, zap.NamedError(key, err))
				continue
			}
			zfields = append(zfields, zap.Any(key, value))
		}
		switch {
		case strings.HasSuffix(event, "failed"), strings.HasSuffix(event, "error"):
			logger.Error(event, zfields...)
		case strings.HasSuffix(event, "rejected"), strings.HasSuffix(event, "ignored"):
			logger.Warn(event, zfields...)
		default:
			logger.Info(event, zfields...)
		}
	}
}
