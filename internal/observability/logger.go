package observability

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// requestIDKey carries the inbound request id through a context so logs
// emitted anywhere below the HTTP layer can be correlated back to one call.
type requestIDKey struct{}

const requestIDField = "requestId"

// NewLogger builds the service logger: JSON to stderr, ISO8601 timestamps,
// caller annotations, no stacktraces below panic level.
func NewLogger(level string) (*zap.Logger, error) {
	lvl, err := levelFromString(level)
	if err != nil {
		return nil, err
	}

	encoder := zap.NewProductionEncoderConfig()
	encoder.TimeKey = "timestamp"
	encoder.EncodeTime = zapcore.ISO8601TimeEncoder

	cfg := zap.Config{
		Level:             zap.NewAtomicLevelAt(lvl),
		Encoding:          "json",
		EncoderConfig:     encoder,
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
		DisableStacktrace: true,
	}

	logger, err := cfg.Build(zap.AddCaller())
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return logger, nil
}

func levelFromString(level string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return 0, fmt.Errorf("invalid log level %q", level)
	}
}

// WithRequestID stamps a request id onto the context. The HTTP middleware
// calls this once per request; everything downstream reads it back through
// WithContextLogger.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func RequestIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok && id != ""
}

// WithContextLogger returns the logger annotated with the context's request
// id, or the logger unchanged when there is none.
func WithContextLogger(logger *zap.Logger, ctx context.Context) *zap.Logger {
	if logger == nil {
		return nil
	}
	if id, ok := RequestIDFromContext(ctx); ok {
		return logger.With(zap.String(requestIDField, id))
	}
	return logger
}
