package distkmeans

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with run-specific helpers.
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

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
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

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
			Level: slog.Level(1000),
		})),
	}
}

// WithRank adds the process rank to every record.
func (l *Logger) WithRank(rank int) *Logger {
	return &Logger{
		Logger: l.Logger.With("rank", rank),
	}
}

// WithK adds the cluster count to every record.
func (l *Logger) WithK(k int) *Logger {
	return &Logger{
		Logger: l.Logger.With("k", k),
	}
}

// WithDimension adds a dimension field to the logger.
func (l *Logger) WithDimension(dim int) *Logger {
	return &Logger{
		Logger: l.Logger.With("dimension", dim),
	}
}

// LogInit logs the outcome of the INIT phase.
func (l *Logger) LogInit(ctx context.Context, localPoints int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "init failed",
			"local_points", localPoints,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "init completed",
			"local_points", localPoints,
		)
	}
}

// LogTransition logs a state machine transition.
func (l *Logger) LogTransition(ctx context.Context, from, to State) {
	l.DebugContext(ctx, "state transition",
		"from", from.String(),
		"to", to.String(),
	)
}

// LogStopRule logs that the coordinator's stopping rule replaced this
// rank's own setting.
func (l *Logger) LogStopRule(ctx context.Context, maxIters int, tolerance float64, localMaxIters int, localTolerance float64) {
	l.WarnContext(ctx, "using coordinator stopping rule",
		"max_iters", maxIters,
		"tolerance", tolerance,
		"local_max_iters", localMaxIters,
		"local_tolerance", localTolerance,
	)
}

// LogIteration logs one completed iteration.
func (l *Logger) LogIteration(ctx context.Context, iter int, shift float64, empty int, duration time.Duration) {
	if empty > 0 {
		l.WarnContext(ctx, "iteration completed with empty clusters",
			"iteration", iter,
			"shift", shift,
			"empty_clusters", empty,
			"duration", duration,
		)
	} else {
		l.DebugContext(ctx, "iteration completed",
			"iteration", iter,
			"shift", shift,
			"duration", duration,
		)
	}
}

// LogConverged logs the terminal state of a run.
func (l *Logger) LogConverged(ctx context.Context, state State, iterations int, shift float64, duration time.Duration) {
	l.InfoContext(ctx, "run finished",
		"state", state.String(),
		"iterations", iterations,
		"shift", shift,
		"duration", duration,
	)
}

// LogCheckpoint logs a checkpoint write.
func (l *Logger) LogCheckpoint(ctx context.Context, iter int, err error) {
	if err != nil {
		l.WarnContext(ctx, "checkpoint failed",
			"iteration", iter,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "checkpoint saved",
			"iteration", iter,
		)
	}
}
