package distkmeans

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/hupe1980/distkmeans/checkpoint"
	"github.com/hupe1980/distkmeans/internal/kmeans"
)

const (
	DefaultMaxIters  = 100
	DefaultTolerance = 1e-4
	DefaultSeed      = 42
)

// EmptyClusterPolicy decides what the coordinator does with a centroid
// whose cluster received no points in an iteration.
type EmptyClusterPolicy = kmeans.EmptyPolicy

const (
	// EmptyClusterKeep leaves the centroid unchanged. This is the default.
	EmptyClusterKeep = kmeans.EmptyKeep
	// EmptyClusterReseed moves the centroid onto a point of the
	// coordinator's shard chosen by the seeded RNG.
	EmptyClusterReseed = kmeans.EmptyReseed
)

// Checkpointer receives the coordinator's centroids after every iteration.
// *checkpoint.Store implements it.
type Checkpointer interface {
	Save(ctx context.Context, snap checkpoint.Snapshot) error
}

type options struct {
	maxIters         int
	tolerance        float64
	seed             int64
	parallelism      int
	initial          []float64
	emptyPolicy      EmptyClusterPolicy
	metricsCollector MetricsCollector
	logger           *Logger
	checkpointer     Checkpointer
}

// Option configures a run.
//
// Options that only affect the coordinator (seed, initial centroids, empty
// cluster policy, checkpointer) are ignored on other ranks, so every
// process can be started with the same option set.
type Option func(*options)

// WithMaxIters bounds the number of iterations. Default 100.
func WithMaxIters(n int) Option {
	return func(o *options) {
		o.maxIters = n
	}
}

// WithTolerance sets the convergence tolerance. A run converges once the
// centroid shift is at most tol. Default 1e-4.
func WithTolerance(tol float64) Option {
	return func(o *options) {
		o.tolerance = tol
	}
}

// WithSeed seeds initial centroid selection and reseeding. Default 42.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.seed = seed
	}
}

// WithParallelism sets the number of goroutines used for the local step.
// Values <= 0 mean GOMAXPROCS.
func WithParallelism(n int) Option {
	return func(o *options) {
		o.parallelism = n
	}
}

// WithInitialCentroids skips sampling and starts from the given k×d
// row-major centroids.
func WithInitialCentroids(centroids []float64) Option {
	return func(o *options) {
		o.initial = slices.Clone(centroids)
	}
}

// WithEmptyClusterPolicy selects how empty clusters are handled.
func WithEmptyClusterPolicy(p EmptyClusterPolicy) Option {
	return func(o *options) {
		o.emptyPolicy = p
	}
}

// WithMetricsCollector configures a metrics collector.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &distkmeans.BasicMetricsCollector{}
//	res, _ := distkmeans.Run(ctx, g, points, d, k, distkmeans.WithMetricsCollector(metrics))
//	stats := metrics.GetStats()
//	fmt.Printf("Iterations: %d, Avg: %dns\n", stats.IterationCount, stats.IterationAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := distkmeans.NewJSONLogger(slog.LevelInfo)
//	res, _ := distkmeans.Run(ctx, g, points, d, k, distkmeans.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithCheckpointer makes the coordinator save a snapshot after every
// iteration. A failed save is logged and does not stop the run.
func WithCheckpointer(c Checkpointer) Option {
	return func(o *options) {
		o.checkpointer = c
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		maxIters:         DefaultMaxIters,
		tolerance:        DefaultTolerance,
		seed:             DefaultSeed,
		emptyPolicy:      EmptyClusterKeep,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

func (o *options) validate() error {
	if o.maxIters <= 0 {
		return fmt.Errorf("%w: max iterations %d must be positive", ErrInvalidConfig, o.maxIters)
	}
	if o.tolerance < 0 {
		return fmt.Errorf("%w: tolerance %g must not be negative", ErrInvalidConfig, o.tolerance)
	}
	if o.emptyPolicy != EmptyClusterKeep && o.emptyPolicy != EmptyClusterReseed {
		return fmt.Errorf("%w: empty cluster policy %s", ErrInvalidConfig, o.emptyPolicy)
	}
	return nil
}
