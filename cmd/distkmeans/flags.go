package main

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/hupe1980/distkmeans"
	"github.com/hupe1980/distkmeans/blobstore"
	"github.com/hupe1980/distkmeans/checkpoint"
	"github.com/hupe1980/distkmeans/internal/compress"
)

// dataFlags describe the dataset. Defaults match the reference benchmark.
type dataFlags struct {
	nTotal int
	d      int
	k      int
	seed   int64
}

func (f *dataFlags) register(flags *pflag.FlagSet) {
	flags.IntVar(&f.nTotal, "n-total", 4_000_000, "total number of points over all ranks")
	flags.IntVar(&f.d, "d", 20, "dimension")
	flags.IntVar(&f.k, "k", 3, "number of clusters")
	flags.Int64Var(&f.seed, "seed", distkmeans.DefaultSeed, "seed for data generation and initialization")
}

// runFlags configure the coordinator loop.
type runFlags struct {
	maxIters       int
	tol            float64
	threads        int
	emptyPolicy    string
	load           bool
	checkpoint     bool
	checkpointKeep int
}

func (f *runFlags) register(flags *pflag.FlagSet) {
	flags.IntVar(&f.maxIters, "max-iters", distkmeans.DefaultMaxIters, "iteration budget")
	flags.Float64Var(&f.tol, "tol", distkmeans.DefaultTolerance, "convergence tolerance on the centroid shift")
	flags.IntVar(&f.threads, "threads", 0, "goroutines per rank for the local step (0 = GOMAXPROCS)")
	flags.StringVar(&f.emptyPolicy, "empty-policy", "keep", "empty cluster policy: keep or reseed")
	flags.BoolVar(&f.load, "load", false, "load shards from the blob store instead of generating them")
	flags.BoolVar(&f.checkpoint, "checkpoint", false, "save centroids to the blob store after every iteration")
	flags.IntVar(&f.checkpointKeep, "checkpoint-keep", 3, "checkpoints to retain (0 = all)")
}

func parseEmptyPolicy(s string) (distkmeans.EmptyClusterPolicy, error) {
	switch s {
	case "keep":
		return distkmeans.EmptyClusterKeep, nil
	case "reseed":
		return distkmeans.EmptyClusterReseed, nil
	default:
		return 0, fmt.Errorf("invalid empty cluster policy %q", s)
	}
}

func (f *runFlags) options(root *rootCommand, seed int64, store blobstore.BlobStore) ([]distkmeans.Option, error) {
	policy, err := parseEmptyPolicy(f.emptyPolicy)
	if err != nil {
		return nil, err
	}

	opts := []distkmeans.Option{
		distkmeans.WithMaxIters(f.maxIters),
		distkmeans.WithTolerance(f.tol),
		distkmeans.WithSeed(seed),
		distkmeans.WithParallelism(f.threads),
		distkmeans.WithEmptyClusterPolicy(policy),
		root.logOption(),
		distkmeans.WithMetricsCollector(root.metrics),
	}

	if f.checkpoint {
		if store == nil {
			return nil, fmt.Errorf("--checkpoint: %w", errNoStore)
		}
		opts = append(opts, distkmeans.WithCheckpointer(checkpoint.New(store, func(o *checkpoint.Options) {
			o.Keep = f.checkpointKeep
			o.Compression = compress.ZSTD
		})))
	}
	return opts, nil
}
