// Package compress frames byte streams into independently compressed blocks
// (none, LZ4 or ZSTD). Shard and checkpoint blobs use it for their payload.
//
// Block format: [UncompressedSize u32][CompressedSize u32][Data...].
// CompressedSize 0 marks a block stored verbatim, which is also what happens
// when compression would not save at least 10%.
package compress
