// Package checkpoint persists the coordinator's centroid set after each
// iteration so a finished or aborted run can be inspected or used to seed a
// new one.
package checkpoint

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/hupe1980/distkmeans/blobstore"
	"github.com/hupe1980/distkmeans/internal/compress"
	"github.com/hupe1980/distkmeans/shard"
)

// ErrNoCheckpoint is returned by Latest when nothing has been saved.
var ErrNoCheckpoint = errors.New("no checkpoint")

const prefixSize = 16

// Snapshot is the coordinator state after one iteration.
type Snapshot struct {
	Iteration int
	Shift     float64
	// Centroids is k×Dim row-major.
	Centroids []float64
	Dim       int
}

// K returns the number of centroids.
func (s Snapshot) K() int {
	if s.Dim == 0 {
		return 0
	}
	return len(s.Centroids) / s.Dim
}

// Options configures a Store.
type Options struct {
	// Prefix is prepended to every snapshot name. Default "checkpoints/".
	Prefix string
	// Compression of the centroid payload. Default none.
	Compression compress.Type
	// Keep is the number of most recent snapshots retained. 0 keeps all.
	Keep int
}

// Store writes snapshots to a blob store.
type Store struct {
	blobs blobstore.BlobStore
	opts  Options
}

// New returns a Store writing to blobs.
func New(blobs blobstore.BlobStore, optFns ...func(*Options)) *Store {
	opts := Options{Prefix: "checkpoints/"}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Store{blobs: blobs, opts: opts}
}

func (s *Store) name(iter int) string {
	return fmt.Sprintf("%siter-%06d.bin", s.opts.Prefix, iter)
}

// Save writes snap and prunes snapshots beyond Options.Keep.
func (s *Store) Save(ctx context.Context, snap Snapshot) error {
	body, err := shard.Encode(&shard.Shard{Points: snap.Centroids, Dim: snap.Dim}, s.opts.Compression)
	if err != nil {
		return fmt.Errorf("checkpoint %d: %w", snap.Iteration, err)
	}

	data := make([]byte, prefixSize, prefixSize+len(body))
	binary.LittleEndian.PutUint64(data[0:], uint64(snap.Iteration))
	binary.LittleEndian.PutUint64(data[8:], math.Float64bits(snap.Shift))
	data = append(data, body...)

	if err := s.blobs.Put(ctx, s.name(snap.Iteration), data); err != nil {
		return fmt.Errorf("checkpoint %d: %w", snap.Iteration, err)
	}

	return s.prune(ctx)
}

func (s *Store) prune(ctx context.Context) error {
	if s.opts.Keep <= 0 {
		return nil
	}
	names, err := s.List(ctx)
	if err != nil {
		return err
	}
	for len(names) > s.opts.Keep {
		if err := s.blobs.Delete(ctx, names[0]); err != nil {
			return err
		}
		names = names[1:]
	}
	return nil
}

// List returns the names of the stored snapshots, oldest first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	names, err := s.blobs.List(ctx, s.opts.Prefix)
	if err != nil {
		return nil, err
	}
	out := names[:0]
	for _, n := range names {
		if strings.HasSuffix(n, ".bin") {
			out = append(out, n)
		}
	}
	return out, nil
}

// Load reads the snapshot stored under name.
func (s *Store) Load(ctx context.Context, name string) (Snapshot, error) {
	data, err := blobstore.ReadAll(ctx, s.blobs, name)
	if err != nil {
		return Snapshot{}, err
	}
	if len(data) < prefixSize {
		return Snapshot{}, fmt.Errorf("%s: %w", name, shard.ErrCorrupt)
	}

	body, err := shard.Decode(data[prefixSize:])
	if err != nil {
		return Snapshot{}, fmt.Errorf("%s: %w", name, err)
	}

	return Snapshot{
		Iteration: int(binary.LittleEndian.Uint64(data[0:])),
		Shift:     math.Float64frombits(binary.LittleEndian.Uint64(data[8:])),
		Centroids: body.Points,
		Dim:       body.Dim,
	}, nil
}

// Latest returns the most recent snapshot.
func (s *Store) Latest(ctx context.Context) (Snapshot, error) {
	names, err := s.List(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	if len(names) == 0 {
		return Snapshot{}, ErrNoCheckpoint
	}
	return s.Load(ctx, names[len(names)-1])
}
