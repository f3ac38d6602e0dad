package distkmeans

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/distkmeans/checkpoint"
	"github.com/hupe1980/distkmeans/group"
	"golang.org/x/sync/errgroup"
)

// Result is one rank's outcome of a run.
//
// Centroids, Iterations, Shift, State and Counts are identical on every
// rank. Labels and LocalInertia describe the rank's own shard only.
type Result struct {
	// Centroids is the final k×Dim row-major centroid set.
	Centroids []float64
	K         int
	Dim       int
	// Labels holds the cluster of each local point, from the assignment
	// whose statistics produced the final update.
	Labels     []int
	Iterations int
	// Shift is the centroid shift of the last iteration.
	Shift float64
	State State
	// Counts are the global cluster sizes of the last iteration.
	Counts       []int64
	LocalInertia float64
}

// Centroid returns centroid c.
func (r *Result) Centroid(c int) []float64 {
	return r.Centroids[c*r.Dim : (c+1)*r.Dim]
}

type runner struct {
	g   group.Group
	o   *options
	log *Logger
	d   int
}

func (r *runner) collective(op group.Op, fn func() error) error {
	start := time.Now()
	err := fn()
	r.o.metricsCollector.RecordCollective(op.String(), time.Since(start), err)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *runner) broadcast(ctx context.Context, buf []float64) error {
	return r.collective(group.OpBroadcast, func() error { return r.g.Broadcast(ctx, buf, 0) })
}

func (r *runner) allReduceFloat64(ctx context.Context, buf []float64) error {
	return r.collective(group.OpSumFloat64, func() error { return r.g.AllReduceFloat64(ctx, buf) })
}

func (r *runner) allReduceInt64(ctx context.Context, buf []int64) error {
	return r.collective(group.OpSumInt64, func() error { return r.g.AllReduceInt64(ctx, buf) })
}

func (r *runner) barrier(ctx context.Context) error {
	return r.collective(group.OpBarrier, func() error { return r.g.Barrier(ctx) })
}

// Run executes distributed k-means as one member of g. Every member of g
// must call Run with its own shard and the same k, d and run options.
//
// points is the rank's n×d row-major shard. It is read concurrently and
// never modified. Rank 0 acts as coordinator.
//
// Run blocks until all ranks finish. ctx is the only way to abandon a run
// whose peers have gone away.
func Run(ctx context.Context, g group.Group, points []float64, d, k int, optFns ...Option) (*Result, error) {
	start := time.Now()
	o := applyOptions(optFns)
	r := &runner{g: g, o: &o, log: o.logger.WithRank(g.Rank()).WithK(k).WithDimension(d), d: d}

	localPoints := 0
	if d > 0 {
		localPoints = len(points) / d
	}
	kd := k * d
	res := &Result{K: k, Dim: d, State: StateInit}

	// INIT: every rank validates locally and rank 0 picks the centroids.
	// The header carries k·d, which all ranks must share, and the stopping
	// rule, which all ranks adopt from rank 0 so they leave the loop together.
	p, localErr := newParticipant(g.Rank(), points, d, k, &o)
	var centroids []float64
	if coord, ok := p.(*Coordinator); ok {
		centroids, localErr = coord.Init()
	}

	header := []float64{float64(kd), float64(o.maxIters), o.tolerance}
	if err := r.broadcast(ctx, header); err != nil {
		return nil, err
	}
	if localErr == nil && int(header[0]) != kd {
		localErr = &ErrShapeMismatch{What: "centroids", Expected: int(header[0]), Actual: kd, cause: ErrShapeDisagreement}
	}

	failed := []int64{0}
	if localErr != nil {
		failed[0] = 1
	}
	if err := r.allReduceInt64(ctx, failed); err != nil {
		return nil, err
	}
	r.log.LogInit(ctx, localPoints, localErr)
	if localErr != nil {
		return nil, localErr
	}
	if failed[0] > 0 {
		return nil, fmt.Errorf("%w: %d rank(s) failed to initialize", ErrShapeDisagreement, failed[0])
	}

	maxIters, tolerance := int(header[1]), header[2]
	if maxIters != o.maxIters || tolerance != o.tolerance {
		r.log.LogStopRule(ctx, maxIters, tolerance, o.maxIters, o.tolerance)
	}

	if centroids == nil {
		centroids = make([]float64, kd)
	}
	if err := r.broadcast(ctx, centroids); err != nil {
		return nil, err
	}
	r.transition(ctx, res, StateIterating)

	coord, isCoord := p.(*Coordinator)
	packet := make([]float64, 1+kd)

	for res.Iterations < maxIters {
		iterStart := time.Now()

		if err := r.broadcast(ctx, centroids); err != nil {
			return nil, err
		}

		step, err := p.Step(ctx, centroids)
		if err != nil {
			return nil, err
		}

		if err := r.allReduceFloat64(ctx, step.Stats.Sums); err != nil {
			return nil, err
		}
		if err := r.allReduceInt64(ctx, step.Stats.Counts); err != nil {
			return nil, err
		}
		res.Iterations++

		empty := 0
		if isCoord {
			u, err := coord.Update(centroids, step.Stats)
			if err != nil {
				return nil, err
			}
			packet[0] = u.Shift
			copy(packet[1:], u.Centroids)

			empty = len(u.Empty)
			if empty > 0 {
				o.metricsCollector.RecordEmptyClusters(empty)
			}
			r.checkpoint(ctx, res.Iterations, u)
		}

		// Shift travels with the centroids so every rank takes the same
		// stop decision.
		if err := r.broadcast(ctx, packet); err != nil {
			return nil, err
		}
		res.Shift = packet[0]
		copy(centroids, packet[1:])

		res.Labels = step.Labels
		res.Counts = step.Stats.Counts
		res.LocalInertia = step.Inertia

		dur := time.Since(iterStart)
		o.metricsCollector.RecordIteration(res.Iterations, res.Shift, dur)
		r.log.LogIteration(ctx, res.Iterations, res.Shift, empty, dur)

		if res.Shift <= tolerance {
			r.transition(ctx, res, StateConverged)
			break
		}
	}
	if res.State != StateConverged {
		r.transition(ctx, res, StateMaxItersReached)
	}

	if err := r.barrier(ctx); err != nil {
		return nil, err
	}

	res.Centroids = centroids
	elapsed := time.Since(start)
	o.metricsCollector.RecordRun(res.State, res.Iterations, elapsed)
	r.log.LogConverged(ctx, res.State, res.Iterations, res.Shift, elapsed)
	return res, nil
}

func (r *runner) transition(ctx context.Context, res *Result, to State) {
	r.log.LogTransition(ctx, res.State, to)
	res.State = to
}

func (r *runner) checkpoint(ctx context.Context, iter int, u Update) {
	if r.o.checkpointer == nil {
		return
	}
	err := r.o.checkpointer.Save(ctx, checkpoint.Snapshot{
		Iteration: iter,
		Shift:     u.Shift,
		Centroids: u.Centroids,
		Dim:       r.d,
	})
	r.log.LogCheckpoint(ctx, iter, err)
}

// RunLocal runs one goroutine per shard over an in-process group and returns
// the results in rank order. All shards must have dimension d.
func RunLocal(ctx context.Context, shards [][]float64, d, k int, optFns ...Option) ([]*Result, error) {
	if len(shards) == 0 {
		return nil, fmt.Errorf("%w: no shards", ErrInvalidConfig)
	}
	members, hub := group.NewLocal(len(shards))
	defer hub.Close()

	results := make([]*Result, len(shards))
	eg, ctx := errgroup.WithContext(ctx)
	for rank, m := range members {
		eg.Go(func() error {
			res, err := Run(ctx, m, shards[rank], d, k, optFns...)
			if err != nil {
				return fmt.Errorf("rank %d: %w", rank, err)
			}
			results[rank] = res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
