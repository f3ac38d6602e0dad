// Package kmeans implements the per-process steps of distributed Lloyd's
// k-means: distance evaluation, label assignment, local aggregation and the
// coordinator-side centroid update.
//
// Points and centroids are flat row-major float64 slices (n*d and k*d).
// Every parallel region splits the point range into contiguous chunks on a
// Pool; chunk results are private and merged sequentially in chunk order
// after the region, so a fixed Pool produces bit-identical output.
package kmeans
