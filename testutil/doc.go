// Package testutil provides deterministic data helpers for tests, benchmarks
// and the command-line driver.
//
// # Random Point Generation
//
//	rng := testutil.NewRNG(seed)
//	pts := rng.UniformPoints(n, d)          // flat n*d, uniform [0, 1)
//	centers := rng.BlobCenters(k, d, 10)    // well separated centers
//	pts = rng.Blobs(n, d, centers, 0.5)     // Gaussian noise around centers
package testutil
