package kmeans

import (
	"context"
)

// Stats are per-cluster coordinate sums (k*d) and point counts (k).
type Stats struct {
	Sums   []float64
	Counts []int64
}

// NewStats returns zeroed statistics for k clusters of dimension d.
func NewStats(k, d int) Stats {
	return Stats{
		Sums:   make([]float64, k*d),
		Counts: make([]int64, k),
	}
}

// Total returns the number of points the statistics account for.
func (s Stats) Total() int64 {
	var n int64
	for _, c := range s.Counts {
		n += c
	}
	return n
}

// Add accumulates o into s element-wise.
func (s Stats) Add(o Stats) {
	for i, v := range o.Sums {
		s.Sums[i] += v
	}
	for i, v := range o.Counts {
		s.Counts[i] += v
	}
}

// LocalStats accumulates the coordinates of every point into the sums of its
// labelled cluster. Each chunk fills a private Stats; the chunk buffers are
// merged in chunk order once all chunks have finished.
func LocalStats(ctx context.Context, pool Pool, points []float64, d int, labels []int, k int) (Stats, error) {
	if err := checkShape(points, d, nil, k); err != nil {
		return Stats{}, err
	}
	n := len(points) / d
	if len(labels) != n {
		return Stats{}, &ErrShapeMismatch{What: "labels", Expected: n, Actual: len(labels)}
	}

	spans := pool.spans(n)
	partial := make([]Stats, len(spans))

	err := pool.run(ctx, n, func(_ context.Context, chunk int, s span) error {
		acc := NewStats(k, d)
		for i := s.lo; i < s.hi; i++ {
			c := labels[i]
			if c < 0 || c >= k {
				return &ErrLabelOutOfRange{Index: i, Label: c, K: k}
			}
			sum := acc.Sums[c*d : (c+1)*d]
			for l, x := range points[i*d : (i+1)*d] {
				sum[l] += x
			}
			acc.Counts[c]++
		}
		partial[chunk] = acc
		return nil
	})
	if err != nil {
		return Stats{}, err
	}

	out := NewStats(k, d)
	for _, p := range partial {
		out.Add(p)
	}
	return out, nil
}

// StepResult is the local outcome of one iteration on one shard.
type StepResult struct {
	Labels []int
	Stats  Stats
	// Inertia is the sum of squared distances from each point to its
	// assigned centroid.
	Inertia float64
}

// Step runs distance evaluation, label assignment and local aggregation for
// one shard against one centroid set.
func Step(ctx context.Context, pool Pool, points []float64, d int, centroids []float64, k int) (StepResult, error) {
	m, err := Distances(ctx, pool, points, d, centroids, k)
	if err != nil {
		return StepResult{}, err
	}
	labels, err := AssignLabels(ctx, pool, m)
	if err != nil {
		return StepResult{}, err
	}
	stats, err := LocalStats(ctx, pool, points, d, labels, k)
	if err != nil {
		return StepResult{}, err
	}

	var inertia float64
	for i, c := range labels {
		dist := m.At(i, c)
		inertia += dist * dist
	}

	return StepResult{
		Labels:  labels,
		Stats:   stats,
		Inertia: inertia,
	}, nil
}
