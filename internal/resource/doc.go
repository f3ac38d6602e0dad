// Package resource bounds the IO side of a run: how many shard or
// checkpoint blobs are transferred at once, how much memory their buffers
// may pin, and how fast bytes move.
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes:   1 << 30,
//	    MaxConcurrentIO:    4,
//	    IOLimitBytesPerSec: 100 << 20,
//	})
//
//	if err := rc.AcquireSlot(ctx); err != nil {
//	    return err
//	}
//	defer rc.ReleaseSlot()
//	r := resource.NewRateLimitedReader(ctx, blobReader, rc)
//
// All methods handle a nil Controller gracefully; they become no-ops.
package resource
