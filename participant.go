package distkmeans

import (
	"context"
	"math/rand"

	"github.com/hupe1980/distkmeans/internal/kmeans"
)

// Stats are per-cluster coordinate sums (k×d) and point counts (k).
type Stats struct {
	Sums   []float64
	Counts []int64
}

// StepResult is what one rank computes locally in one iteration.
type StepResult struct {
	Labels []int
	Stats  Stats
	// Inertia is the sum of squared distances from each local point to its
	// assigned centroid.
	Inertia float64
}

// Update is the coordinator's outcome of one iteration.
type Update struct {
	Centroids []float64
	Shift     float64
	// Empty lists the clusters that received no points.
	Empty []int
}

// Participant is the role every rank plays in an iteration.
type Participant interface {
	Rank() int
	// Step assigns the local points to centroids and returns their labels
	// and partial statistics.
	Step(ctx context.Context, centroids []float64) (StepResult, error)
}

var (
	_ Participant = (*Worker)(nil)
	_ Participant = (*Coordinator)(nil)
)

// Worker owns one shard and runs the local part of each iteration.
type Worker struct {
	rank   int
	points []float64
	d, k   int
	pool   kmeans.Pool
}

// Rank returns the worker's rank.
func (w *Worker) Rank() int { return w.rank }

// Points returns the number of local points.
func (w *Worker) Points() int { return len(w.points) / w.d }

// Step implements Participant.
func (w *Worker) Step(ctx context.Context, centroids []float64) (StepResult, error) {
	res, err := kmeans.Step(ctx, w.pool, w.points, w.d, centroids, w.k)
	if err != nil {
		return StepResult{}, translateError(err)
	}
	return StepResult{
		Labels:  res.Labels,
		Stats:   Stats{Sums: res.Stats.Sums, Counts: res.Stats.Counts},
		Inertia: res.Inertia,
	}, nil
}

// Coordinator is the rank 0 participant. On top of the worker role it
// chooses the initial centroids and turns global statistics into the next
// centroid set.
type Coordinator struct {
	*Worker
	seed    int64
	initial []float64
	policy  EmptyClusterPolicy
	rng     *rand.Rand
}

// Init returns the initial centroid set.
func (c *Coordinator) Init() ([]float64, error) {
	if c.initial != nil {
		if len(c.initial) != c.k*c.d {
			return nil, &ErrShapeMismatch{What: "initial centroids", Expected: c.k * c.d, Actual: len(c.initial)}
		}
		return append([]float64(nil), c.initial...), nil
	}
	centroids, err := kmeans.InitialCentroids(c.points, c.d, c.k, c.seed)
	return centroids, translateError(err)
}

// Update computes the next centroid set from the global statistics. old is
// not modified.
func (c *Coordinator) Update(old []float64, global Stats) (Update, error) {
	u, err := kmeans.UpdateCentroids(old, c.k, c.d, kmeans.Stats{Sums: global.Sums, Counts: global.Counts})
	if err != nil {
		return Update{}, translateError(err)
	}
	if c.policy == EmptyClusterReseed {
		kmeans.Reseed(&u, old, c.d, c.points, c.rng)
	}
	return Update{Centroids: u.Centroids, Shift: u.Shift, Empty: u.Empty}, nil
}

// NewParticipant returns a *Coordinator for rank 0 and a *Worker otherwise.
// points is the rank's n×d row-major shard and is not copied.
func NewParticipant(rank int, points []float64, d, k int, optFns ...Option) (Participant, error) {
	o := applyOptions(optFns)
	return newParticipant(rank, points, d, k, &o)
}

func newParticipant(rank int, points []float64, d, k int, o *options) (Participant, error) {
	if d <= 0 {
		return nil, &ErrInvalidDimension{Dimension: d}
	}
	if k <= 0 {
		return nil, ErrInvalidK
	}
	if len(points)%d != 0 {
		return nil, &ErrShapeMismatch{What: "points", Expected: (len(points) / d) * d, Actual: len(points)}
	}
	if err := o.validate(); err != nil {
		return nil, err
	}

	w := &Worker{
		rank:   rank,
		points: points,
		d:      d,
		k:      k,
		pool:   kmeans.Pool{Workers: o.parallelism},
	}
	if rank != 0 {
		return w, nil
	}
	return &Coordinator{
		Worker:  w,
		seed:    o.seed,
		initial: o.initial,
		policy:  o.emptyPolicy,
		rng:     rand.New(rand.NewSource(o.seed)),
	}, nil
}
