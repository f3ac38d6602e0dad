package kmeans

import (
	"math/rand"
	"slices"

	"github.com/hupe1980/distkmeans/distance"
)

// EmptyPolicy decides what happens to a centroid whose cluster received no
// points in an iteration.
type EmptyPolicy int

const (
	// EmptyKeep leaves the centroid where it was.
	EmptyKeep EmptyPolicy = iota
	// EmptyReseed moves the centroid onto a point of the coordinator's shard.
	EmptyReseed
)

func (p EmptyPolicy) String() string {
	switch p {
	case EmptyKeep:
		return "keep"
	case EmptyReseed:
		return "reseed"
	default:
		return "unknown"
	}
}

// Update is the outcome of one centroid update.
type Update struct {
	Centroids []float64
	// Shift is the L2 norm of the flattened difference between the new and
	// the old centroids.
	Shift float64
	// Empty lists the clusters that received no points.
	Empty []int
}

// UpdateCentroids turns global statistics into a new centroid set. Clusters
// with points move to their mean; empty clusters keep their old centroid.
// old is never modified.
func UpdateCentroids(old []float64, k, d int, global Stats) (Update, error) {
	if err := checkShape(nil, d, old, k); err != nil {
		return Update{}, err
	}
	if len(global.Sums) != k*d {
		return Update{}, &ErrShapeMismatch{What: "sums", Expected: k * d, Actual: len(global.Sums)}
	}
	if len(global.Counts) != k {
		return Update{}, &ErrShapeMismatch{What: "counts", Expected: k, Actual: len(global.Counts)}
	}

	next := slices.Clone(old)
	var empty []int
	for c := range k {
		if global.Counts[c] <= 0 {
			empty = append(empty, c)
			continue
		}
		inv := 1 / float64(global.Counts[c])
		dst := next[c*d : (c+1)*d]
		for l, s := range global.Sums[c*d : (c+1)*d] {
			dst[l] = s * inv
		}
	}

	return Update{
		Centroids: next,
		Shift:     Shift(old, next),
		Empty:     empty,
	}, nil
}

// Shift returns the L2 norm of next - old, both flattened.
func Shift(old, next []float64) float64 {
	return distance.Euclidean(old, next)
}

// Reseed moves every empty centroid onto a point of points chosen by rng and
// returns the recomputed shift against old. Without points it does nothing.
func Reseed(u *Update, old []float64, d int, points []float64, rng *rand.Rand) {
	n := len(points) / d
	if n == 0 || len(u.Empty) == 0 {
		return
	}
	for _, c := range u.Empty {
		i := rng.Intn(n)
		copy(u.Centroids[c*d:(c+1)*d], points[i*d:(i+1)*d])
	}
	u.Shift = Shift(old, u.Centroids)
}
