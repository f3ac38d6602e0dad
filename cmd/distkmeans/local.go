package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/distkmeans"
	"github.com/hupe1980/distkmeans/blobstore"
	"github.com/hupe1980/distkmeans/shard"
)

const localLongDescription = `Run all ranks as goroutines of this process.

Shards are generated in memory unless --load is given, in which case the
shards written by "distkmeans gen" are read from the blob store.`

func localCommand(root *rootCommand) *cobra.Command {
	var (
		workers int
		data    dataFlags
		run     runFlags
	)

	cmd := &cobra.Command{
		Use:   "local",
		Short: "Run an in-process group",
		Long:  localLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if workers <= 0 {
				return fmt.Errorf("--workers must be positive, got %d", workers)
			}
			ctx, cancel := root.context(cmd)
			defer cancel()

			var store blobstore.BlobStore
			if run.load || run.checkpoint {
				var err error
				if store, err = root.store.open(ctx); err != nil {
					return err
				}
			}

			loadStart := time.Now()
			shards := make([][]float64, workers)
			d := data.d
			if run.load {
				loaded, err := shard.LoadAll(ctx, store, workers, root.store.controller())
				if err != nil {
					return err
				}
				d = loaded[0].Dim
				for r, s := range loaded {
					if s.Dim != d {
						return fmt.Errorf("shard %d has dimension %d, shard 0 has %d", r, s.Dim, d)
					}
					shards[r] = s.Points
				}
			} else {
				for r := range workers {
					s, err := shard.Generate(r, workers, data.nTotal, data.d, data.k, data.seed)
					if err != nil {
						return err
					}
					shards[r] = s.Points
				}
			}
			loadTime := time.Since(loadStart)

			opts, err := run.options(root, data.seed, store)
			if err != nil {
				return err
			}

			runStart := time.Now()
			results, err := distkmeans.RunLocal(ctx, shards, d, data.k, opts...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "workers:     %d\n", workers)
			printResult(out, results[0], loadTime, time.Since(runStart))
			return nil
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 4, "number of in-process ranks")
	data.register(cmd.Flags())
	run.register(cmd.Flags())
	return cmd
}
