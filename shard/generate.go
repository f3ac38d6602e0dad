package shard

import (
	"fmt"

	"github.com/hupe1980/distkmeans/testutil"
)

const (
	// CenterScale bounds the generated cluster centers to [-CenterScale, CenterScale)^d.
	CenterScale = 10.0
	// Noise is the standard deviation of points around their center.
	Noise = 1.0
)

// SplitCounts divides nTotal points over size ranks as evenly as possible.
// The first nTotal%size ranks get one extra point.
func SplitCounts(nTotal, size int) []int {
	if size <= 0 {
		return nil
	}
	counts := make([]int, size)
	base, extra := nTotal/size, nTotal%size
	for r := range counts {
		counts[r] = base
		if r < extra {
			counts[r]++
		}
	}
	return counts
}

// Generate builds the synthetic shard of rank. All ranks draw from the same
// k centers (derived from seed alone) and each rank uses its own noise
// stream, so the result depends only on (rank, size, nTotal, d, k, seed).
func Generate(rank, size, nTotal, d, k int, seed int64) (*Shard, error) {
	if size <= 0 || rank < 0 || rank >= size {
		return nil, fmt.Errorf("shard: rank %d out of range for size %d", rank, size)
	}
	if d <= 0 {
		return nil, fmt.Errorf("shard: dimension %d must be positive", d)
	}
	if k <= 0 {
		return nil, fmt.Errorf("shard: k %d must be positive", k)
	}
	if nTotal < 0 {
		return nil, fmt.Errorf("shard: n_total %d must not be negative", nTotal)
	}

	centers := testutil.NewRNG(seed).BlobCenters(k, d, CenterScale)
	n := SplitCounts(nTotal, size)[rank]

	rng := testutil.NewRNG(seed + int64(rank) + 1)
	return &Shard{Points: rng.Blobs(n, d, centers, Noise), Dim: d}, nil
}
