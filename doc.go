// Package distkmeans runs Lloyd's k-means over a fixed group of processes,
// each owning a disjoint shard of the points.
//
// # Quick Start
//
// In-process, one goroutine per shard:
//
//	results, err := distkmeans.RunLocal(ctx, shards, d, k,
//	    distkmeans.WithMaxIters(100),
//	    distkmeans.WithTolerance(1e-4),
//	)
//	fmt.Println(results[0].State, results[0].Centroids)
//
// Across processes, over gRPC:
//
//	// rank 0
//	lis, _ := net.Listen("tcp", ":7400")
//	g := grpcgroup.NewHost(lis, size)
//	defer g.Close()
//
//	// rank r > 0
//	g, _ := grpcgroup.Dial("coordinator:7400", r, size)
//	defer g.Close()
//
//	res, err := distkmeans.Run(ctx, g, points, d, k)
//
// # Protocol
//
// Every rank executes the same sequence of collectives. INIT broadcasts
// k·d and the initial centroids chosen by rank 0. Each iteration then runs:
//
//  1. broadcast centroids from rank 0
//  2. local step: distances, labels, partial sums and counts
//  3. all-reduce sums, then all-reduce counts
//  4. rank 0 computes the new centroids and their shift
//  5. broadcast shift and centroids from rank 0
//  6. every rank stops if shift <= tolerance or the iteration budget is spent
//
// A closing barrier ends the run. Because the shift is broadcast, all ranks
// leave the loop after the same iteration.
//
// # Empty Clusters
//
// A cluster that receives no points keeps its previous centroid. With
// WithEmptyClusterPolicy(EmptyClusterReseed) the coordinator instead moves
// it onto a point of its own shard chosen by the seeded RNG.
//
// # Determinism
//
// Collective sums are taken in rank order and local sums in chunk order,
// so a run is reproducible for a fixed shard split and parallelism, and
// agrees across parallelism settings up to floating-point summation order.
//
// # Observability
//
//	res, err := distkmeans.Run(ctx, g, points, d, k,
//	    distkmeans.WithLogger(distkmeans.NewJSONLogger(slog.LevelInfo)),
//	    distkmeans.WithMetricsCollector(prometheus.NewCollector(nil)),
//	    distkmeans.WithCheckpointer(checkpoint.New(store)),
//	)
package distkmeans
