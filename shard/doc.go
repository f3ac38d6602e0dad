// Package shard stores and loads Point Shards, the immutable per-process
// slice of the dataset.
//
// A shard blob is a fixed 40-byte header followed by the points as
// little-endian float64 rows, framed in blocks by internal/compress:
//
//	offset  size  field
//	0       4     magic "DKMS"
//	4       4     version
//	8       8     rows
//	16      4     dimension
//	20      1     compression (0 none, 1 lz4, 2 zstd)
//	24      8     payload size in bytes
//	32      4     CRC32C of the payload
//
// Generate builds a synthetic Gaussian-blob shard for one rank so that the
// shards of all ranks together hold exactly n_total points.
package shard
