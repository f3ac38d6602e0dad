package main

import (
	"fmt"
	"net"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/distkmeans"
	"github.com/hupe1980/distkmeans/blobstore"
	"github.com/hupe1980/distkmeans/group"
	"github.com/hupe1980/distkmeans/group/grpcgroup"
	"github.com/hupe1980/distkmeans/shard"
)

const workerLongDescription = `Run one rank of a group connected over gRPC.

Rank 0 is the coordinator: it listens on --listen and hosts the collectives.
Every other rank connects to it with --coordinator. All ranks must be given
the same --size, --k, --d, --n-total and --seed.`

func workerCommand(root *rootCommand) *cobra.Command {
	var (
		rank        int
		size        int
		listen      string
		coordinator string
		data        dataFlags
		run         runFlags
	)

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run one rank of a gRPC group",
		Long:  workerLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if size <= 0 || rank < 0 || rank >= size {
				return fmt.Errorf("--rank %d must be in [0, %d)", rank, size)
			}
			if rank > 0 && coordinator == "" {
				return fmt.Errorf("--coordinator is required for rank %d", rank)
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
			var s *shard.Shard
			var err error
			if run.load {
				s, err = shard.Load(ctx, store, shard.Name(rank), root.store.controller())
			} else {
				s, err = shard.Generate(rank, size, data.nTotal, data.d, data.k, data.seed)
			}
			if err != nil {
				return err
			}
			loadTime := time.Since(loadStart)

			opts, err := run.options(root, data.seed, store)
			if err != nil {
				return err
			}

			var g group.Group
			if rank == 0 {
				lis, err := net.Listen("tcp", listen)
				if err != nil {
					return fmt.Errorf("listen %s: %w", listen, err)
				}
				host := grpcgroup.NewHost(lis, size, func(o *grpcgroup.Options) {
					o.Logger = root.logger.Logger
				})
				defer host.Close()
				g = host
			} else {
				client, err := grpcgroup.Dial(coordinator, rank, size, func(o *grpcgroup.Options) {
					o.Logger = root.logger.Logger
				})
				if err != nil {
					return err
				}
				defer client.Close()
				g = client
			}

			runStart := time.Now()
			res, err := distkmeans.Run(ctx, g, s.Points, s.Dim, data.k, opts...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "rank:        %d/%d\n", rank, size)
			fmt.Fprintf(out, "local:       %d points, inertia %g\n", len(res.Labels), res.LocalInertia)
			printResult(out, res, loadTime, time.Since(runStart))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&rank, "rank", 0, "rank of this process")
	flags.IntVar(&size, "size", 1, "number of processes in the group")
	flags.StringVar(&listen, "listen", ":7400", "listen address of the coordinator (rank 0)")
	flags.StringVar(&coordinator, "coordinator", "", "address of rank 0 (ranks > 0)")
	data.register(flags)
	run.register(flags)
	return cmd
}
