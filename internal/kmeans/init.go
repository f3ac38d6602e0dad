package kmeans

import (
	"math"
	"math/rand"
)

// InitialCentroids selects k starting centroids from the coordinator's shard.
//
// With at least k points it samples k distinct points through a seeded
// permutation. Otherwise it draws k uniform random vectors inside the
// shard's bounding box, or the unit cube when the shard is empty, so a small
// shard never stalls the group.
func InitialCentroids(points []float64, d, k int, seed int64) ([]float64, error) {
	if err := checkShape(points, d, nil, k); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(seed))
	n := len(points) / d
	centroids := make([]float64, k*d)

	if n >= k {
		perm := rng.Perm(n)
		for c := range k {
			copy(centroids[c*d:(c+1)*d], points[perm[c]*d:(perm[c]+1)*d])
		}
		return centroids, nil
	}

	lo, hi := bounds(points, d)
	for c := range k {
		for l := range d {
			centroids[c*d+l] = lo[l] + rng.Float64()*(hi[l]-lo[l])
		}
	}
	return centroids, nil
}

// bounds returns the per-dimension minimum and maximum of points, or the
// unit cube for an empty set.
func bounds(points []float64, d int) (lo, hi []float64) {
	lo = make([]float64, d)
	hi = make([]float64, d)
	if len(points) == 0 {
		for l := range hi {
			hi[l] = 1
		}
		return lo, hi
	}
	for l := range d {
		lo[l] = math.Inf(1)
		hi[l] = math.Inf(-1)
	}
	for i := 0; i < len(points); i += d {
		for l, x := range points[i : i+d] {
			lo[l] = math.Min(lo[l], x)
			hi[l] = math.Max(hi[l], x)
		}
	}
	return lo, hi
}
