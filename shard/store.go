package shard

import (
	"context"
	"fmt"
	"io"

	"github.com/hupe1980/distkmeans/blobstore"
	"github.com/hupe1980/distkmeans/internal/compress"
	"github.com/hupe1980/distkmeans/internal/resource"
	"golang.org/x/sync/errgroup"
)

// Name returns the conventional blob name of the shard owned by rank.
func Name(rank int) string {
	return fmt.Sprintf("shards/shard-%05d.bin", rank)
}

// Store writes s to name. ctrl throttles the upload and may be nil.
func Store(ctx context.Context, store blobstore.BlobStore, name string, s *Shard, t compress.Type, ctrl *resource.Controller) error {
	data, err := Encode(s, t)
	if err != nil {
		return err
	}

	if err := ctrl.AcquireSlot(ctx); err != nil {
		return err
	}
	defer ctrl.ReleaseSlot()

	w, err := store.Create(ctx, name)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := resource.NewRateLimitedWriter(ctx, w, ctrl).Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	return nil
}

// Load reads and decodes the shard stored under name. ctrl bounds the
// buffered bytes and the read rate and may be nil.
func Load(ctx context.Context, store blobstore.BlobStore, name string, ctrl *resource.Controller) (*Shard, error) {
	if err := ctrl.AcquireSlot(ctx); err != nil {
		return nil, err
	}
	defer ctrl.ReleaseSlot()

	blob, err := store.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer blob.Close()

	size := blob.Size()
	if err := ctrl.AcquireMemory(size); err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	defer ctrl.ReleaseMemory(size)

	r, err := blob.ReadRange(ctx, 0, size)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	defer r.Close()

	data := make([]byte, size)
	if _, err := io.ReadFull(resource.NewRateLimitedReader(ctx, r, ctrl), data); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	s, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return s, nil
}

// LoadAll loads the shards of ranks 0..size-1 concurrently. The number of
// transfers in flight is bounded by ctrl.
func LoadAll(ctx context.Context, store blobstore.BlobStore, size int, ctrl *resource.Controller) ([]*Shard, error) {
	shards := make([]*Shard, size)

	g, ctx := errgroup.WithContext(ctx)
	for rank := range size {
		g.Go(func() error {
			s, err := Load(ctx, store, Name(rank), ctrl)
			if err != nil {
				return err
			}
			shards[rank] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return shards, nil
}
