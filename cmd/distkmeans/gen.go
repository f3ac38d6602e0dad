package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/distkmeans/internal/compress"
	"github.com/hupe1980/distkmeans/shard"
	"golang.org/x/sync/errgroup"
)

func genCommand(root *rootCommand) *cobra.Command {
	var (
		size        int
		compression string
		data        dataFlags
	)

	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate synthetic shards into the blob store",
		Long: `Generate one Gaussian-blob shard per rank and store it as
shards/shard-NNNNN.bin. Ranks later read them with --load.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if size <= 0 {
				return fmt.Errorf("--size must be positive, got %d", size)
			}
			ct, err := compress.ParseType(compression)
			if err != nil {
				return err
			}
			ctx, cancel := root.context(cmd)
			defer cancel()

			store, err := root.store.open(ctx)
			if err != nil {
				return err
			}
			ctrl := root.store.controller()

			g, gctx := errgroup.WithContext(ctx)
			for rank := range size {
				g.Go(func() error {
					s, err := shard.Generate(rank, size, data.nTotal, data.d, data.k, data.seed)
					if err != nil {
						return err
					}
					return shard.Store(gctx, store, shard.Name(rank), s, ct, ctrl)
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			for rank, n := range shard.SplitCounts(data.nTotal, size) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %d points\n", shard.Name(rank), n)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&size, "size", 4, "number of shards (ranks)")
	flags.StringVar(&compression, "compression", "zstd", "shard compression: none, lz4 or zstd")
	data.register(flags)
	return cmd
}
