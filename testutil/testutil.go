package testutil

import (
	"math"
	"math/rand"
	"sync"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// Perm returns a pseudo-random permutation of [0,n).
func (r *RNG) Perm(n int) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Perm(n)
}

// FillUniform fills dst with random values in range [0, 1).
// Locks only once per call (preferred over calling Float64 in a loop).
func (r *RNG) FillUniform(dst []float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = r.rand.Float64()
	}
}

// FillUniformRange fills dst with random values in range [minVal, maxVal).
func (r *RNG) FillUniformRange(dst []float64, minVal, maxVal float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	span := maxVal - minVal
	for i := range dst {
		dst[i] = minVal + r.rand.Float64()*span
	}
}

// UniformPoints generates num points of the given dimensionality with values
// in [0, 1), returned as one flat row-major slice.
func (r *RNG) UniformPoints(num, dimensions int) []float64 {
	data := make([]float64, num*dimensions)
	r.FillUniform(data)
	return data
}

// GaussianPoints generates num points drawn from a standard normal
// distribution, returned as one flat row-major slice.
func (r *RNG) GaussianPoints(num, dimensions int) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float64, num*dimensions)
	for i := range data {
		data[i] = r.rand.NormFloat64()
	}
	return data
}

// BlobCenters generates k centers in [-scale, scale)^d.
// Centers of the same seed are identical on every process, which is what
// lets independently generated shards share one ground truth.
func (r *RNG) BlobCenters(k, dimensions int, scale float64) []float64 {
	centers := make([]float64, k*dimensions)
	r.FillUniformRange(centers, -scale, scale)
	return centers
}

// Blobs generates num points, point i drawn around center i%k with Gaussian
// noise of the given standard deviation.
func (r *RNG) Blobs(num, dimensions int, centers []float64, noise float64) []float64 {
	k := len(centers) / dimensions

	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float64, num*dimensions)
	for i := range num {
		c := centers[(i%k)*dimensions : (i%k+1)*dimensions]
		vec := data[i*dimensions : (i+1)*dimensions]
		for j := range vec {
			vec[j] = c[j] + r.rand.NormFloat64()*noise
		}
	}
	return data
}

// RelativeDiff returns max_i |a_i - b_i| / max(1, |b_i|).
// Useful for comparing runs whose only difference is summation order.
func RelativeDiff(a, b []float64) float64 {
	var worst float64
	for i := range a {
		scale := math.Max(1, math.Abs(b[i]))
		if d := math.Abs(a[i]-b[i]) / scale; d > worst {
			worst = d
		}
	}
	return worst
}
