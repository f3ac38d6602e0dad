package distkmeans

import (
	"math"
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting run metrics.
// Implement this interface to integrate with monitoring systems like
// Prometheus (see package metrics/prometheus).
//
// Every rank reports its own view; collective timings include the time
// spent waiting for the slowest rank.
type MetricsCollector interface {
	// RecordIteration is called after each iteration with the broadcast
	// shift and the wall time of the whole iteration.
	RecordIteration(iter int, shift float64, duration time.Duration)

	// RecordCollective is called after every broadcast, all-reduce and
	// barrier. op is the collective name, err is nil if it succeeded.
	RecordCollective(op string, duration time.Duration, err error)

	// RecordEmptyClusters is called by the coordinator after each update
	// that left clusters empty.
	RecordEmptyClusters(n int)

	// RecordRun is called once when a run reaches a terminal state.
	RecordRun(state State, iterations int, duration time.Duration)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordIteration(int, float64, time.Duration)   {}
func (NoopMetricsCollector) RecordCollective(string, time.Duration, error) {}
func (NoopMetricsCollector) RecordEmptyClusters(int)                       {}
func (NoopMetricsCollector) RecordRun(State, int, time.Duration)           {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	IterationCount       atomic.Int64
	IterationTotalNanos  atomic.Int64
	LastShiftBits        atomic.Uint64
	CollectiveCount      atomic.Int64
	CollectiveErrors     atomic.Int64
	CollectiveTotalNanos atomic.Int64
	EmptyClusters        atomic.Int64
	RunCount             atomic.Int64
	ConvergedCount       atomic.Int64
}

// RecordIteration implements MetricsCollector.
func (b *BasicMetricsCollector) RecordIteration(_ int, shift float64, duration time.Duration) {
	b.IterationCount.Add(1)
	b.IterationTotalNanos.Add(duration.Nanoseconds())
	b.LastShiftBits.Store(math.Float64bits(shift))
}

// RecordCollective implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCollective(_ string, duration time.Duration, err error) {
	b.CollectiveCount.Add(1)
	b.CollectiveTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.CollectiveErrors.Add(1)
	}
}

// RecordEmptyClusters implements MetricsCollector.
func (b *BasicMetricsCollector) RecordEmptyClusters(n int) {
	b.EmptyClusters.Add(int64(n))
}

// RecordRun implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRun(state State, _ int, _ time.Duration) {
	b.RunCount.Add(1)
	if state == StateConverged {
		b.ConvergedCount.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		IterationCount:     b.IterationCount.Load(),
		IterationAvgNanos:  avg(b.IterationTotalNanos.Load(), b.IterationCount.Load()),
		LastShift:          math.Float64frombits(b.LastShiftBits.Load()),
		CollectiveCount:    b.CollectiveCount.Load(),
		CollectiveErrors:   b.CollectiveErrors.Load(),
		CollectiveAvgNanos: avg(b.CollectiveTotalNanos.Load(), b.CollectiveCount.Load()),
		EmptyClusters:      b.EmptyClusters.Load(),
		RunCount:           b.RunCount.Load(),
		ConvergedCount:     b.ConvergedCount.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	IterationCount     int64
	IterationAvgNanos  int64
	LastShift          float64
	CollectiveCount    int64
	CollectiveErrors   int64
	CollectiveAvgNanos int64
	EmptyClusters      int64
	RunCount           int64
	ConvergedCount     int64
}
