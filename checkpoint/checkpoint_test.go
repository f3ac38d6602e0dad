package checkpoint

import (
	"context"
	"testing"

	"github.com/hupe1980/distkmeans/blobstore"
	"github.com/hupe1980/distkmeans/internal/compress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SaveLatest(t *testing.T) {
	ctx := context.Background()
	cp := New(blobstore.NewMemoryStore(), func(o *Options) {
		o.Compression = compress.ZSTD
	})

	_, err := cp.Latest(ctx)
	require.ErrorIs(t, err, ErrNoCheckpoint)

	for iter := 1; iter <= 3; iter++ {
		require.NoError(t, cp.Save(ctx, Snapshot{
			Iteration: iter,
			Shift:     1 / float64(iter),
			Centroids: []float64{float64(iter), 0, 10, float64(iter)},
			Dim:       2,
		}))
	}

	snap, err := cp.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, snap.Iteration)
	assert.InDelta(t, 1.0/3, snap.Shift, 0)
	assert.Equal(t, []float64{3, 0, 10, 3}, snap.Centroids)
	assert.Equal(t, 2, snap.K())
}

func TestStore_Keep(t *testing.T) {
	ctx := context.Background()
	blobs := blobstore.NewMemoryStore()
	cp := New(blobs, func(o *Options) {
		o.Prefix = "run-1/ckpt/"
		o.Keep = 2
	})

	for iter := 1; iter <= 12; iter++ {
		require.NoError(t, cp.Save(ctx, Snapshot{Iteration: iter, Centroids: []float64{1}, Dim: 1}))
	}

	names, err := cp.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"run-1/ckpt/iter-000011.bin", "run-1/ckpt/iter-000012.bin"}, names)

	snap, err := cp.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, 12, snap.Iteration)
}

func TestStore_LoadCorrupt(t *testing.T) {
	ctx := context.Background()
	blobs := blobstore.NewMemoryStore()
	require.NoError(t, blobs.Put(ctx, "checkpoints/iter-000001.bin", []byte("short")))

	_, err := New(blobs).Latest(ctx)
	assert.Error(t, err)
}
