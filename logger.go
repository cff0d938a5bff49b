package foster

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with foster-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithStratum adds a stratum field to the logger.
func (l *Logger) WithStratum(stratum int) *Logger {
	return &Logger{Logger: l.Logger.With("stratum", stratum)}
}

// WithK adds a k (neighbor count) field to the logger.
func (l *Logger) WithK(k int) *Logger {
	return &Logger{Logger: l.Logger.With("k", k)}
}

// LogStratify logs a stratification run.
func (l *Logger) LogStratify(ctx context.Context, strata, cells int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "stratification failed",
			"strata", strata,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "stratification completed",
			"strata", strata,
			"valid_cells", cells,
		)
	}
}

// LogSample logs a sampling run; warnings mean the result is short of the
// request but still usable.
func (l *Logger) LogSample(ctx context.Context, wanted, got, warnings int) {
	if warnings > 0 {
		l.WarnContext(ctx, "sampling completed short",
			"wanted", wanted,
			"got", got,
			"warnings", warnings,
		)
	} else {
		l.InfoContext(ctx, "sampling completed",
			"samples", got,
		)
	}
}

// LogFit logs a model fit.
func (l *Logger) LogFit(ctx context.Context, rows, features, responses int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "fit failed",
			"rows", rows,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "fit completed",
			"rows", rows,
			"features", features,
			"responses", responses,
		)
	}
}

// LogImpute logs an imputation run.
func (l *Logger) LogImpute(ctx context.Context, bands, failed int, err error) {
	switch {
	case err != nil:
		l.ErrorContext(ctx, "imputation failed",
			"bands", bands,
			"error", err,
		)
	case failed > 0:
		l.WarnContext(ctx, "imputation completed with failed bands",
			"bands", bands,
			"failed", failed,
		)
	default:
		l.InfoContext(ctx, "imputation completed",
			"bands", bands,
		)
	}
}
