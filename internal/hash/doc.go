// Package hash provides the checksum used by the shard and checkpoint formats.
//
// All checksums are CRC32-Castagnoli (CRC32C), which the Go runtime
// accelerates with SSE4.2 on x86 and the CRC extension on ARM.
//
//	sum := hash.CRC32C(payload)
package hash
