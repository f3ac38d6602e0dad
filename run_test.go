package distkmeans

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"

	"github.com/hupe1980/distkmeans/blobstore"
	"github.com/hupe1980/distkmeans/checkpoint"
	"github.com/hupe1980/distkmeans/group"
	"github.com/hupe1980/distkmeans/group/grpcgroup"
	"github.com/hupe1980/distkmeans/shard"
	"github.com/hupe1980/distkmeans/testutil"
)

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// runGroup calls Run on every member concurrently with per-rank points.
func runGroup(ctx context.Context, members []group.Group, shards [][]float64, d, k int, opts ...Option) ([]*Result, []error) {
	results := make([]*Result, len(members))
	errs := make([]error, len(members))
	var wg sync.WaitGroup
	for i, g := range members {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = Run(ctx, g, shards[i], d, k, opts...)
		}()
	}
	wg.Wait()
	return results, errs
}

func generateShards(t *testing.T, size, nTotal, d, k int, seed int64) [][]float64 {
	t.Helper()
	shards := make([][]float64, size)
	for r := range size {
		s, err := shard.Generate(r, size, nTotal, d, k, seed)
		require.NoError(t, err)
		shards[r] = s.Points
	}
	return shards
}

func concat(shards [][]float64) []float64 {
	var out []float64
	for _, s := range shards {
		out = append(out, s...)
	}
	return out
}

func TestRun_FourPoints(t *testing.T) {
	ctx := testContext(t)
	opts := []Option{
		WithInitialCentroids([]float64{0, 0, 10, 0}),
		WithTolerance(1e-6),
	}

	t.Run("single rank", func(t *testing.T) {
		results, err := RunLocal(ctx, [][]float64{{0, 0, 0, 1, 10, 0, 10, 1}}, 2, 2, opts...)
		require.NoError(t, err)

		res := results[0]
		assert.Equal(t, StateConverged, res.State)
		assert.LessOrEqual(t, res.Iterations, 2)
		assert.InDeltaSlice(t, []float64{0, 0.5, 10, 0.5}, res.Centroids, 1e-12)
		assert.Equal(t, []int{0, 0, 1, 1}, res.Labels)
		assert.Equal(t, []int64{2, 2}, res.Counts)
		assert.InDelta(t, 1.0, res.LocalInertia, 1e-12)
	})

	t.Run("two ranks", func(t *testing.T) {
		results, err := RunLocal(ctx, [][]float64{{0, 0, 0, 1}, {10, 0, 10, 1}}, 2, 2, opts...)
		require.NoError(t, err)

		for _, res := range results {
			assert.Equal(t, StateConverged, res.State)
			assert.LessOrEqual(t, res.Iterations, 2)
			assert.InDeltaSlice(t, []float64{0, 0.5, 10, 0.5}, res.Centroids, 1e-12)
		}
		assert.Equal(t, []int{0, 0}, results[0].Labels)
		assert.Equal(t, []int{1, 1}, results[1].Labels)
	})
}

func TestRun_MaxItersReached(t *testing.T) {
	results, err := RunLocal(testContext(t), [][]float64{{0, 0, 0, 1, 10, 0, 10, 1}}, 2, 2,
		WithInitialCentroids([]float64{0, 0, 10, 0}),
		WithMaxIters(1),
	)
	require.NoError(t, err)

	res := results[0]
	assert.Equal(t, StateMaxItersReached, res.State)
	assert.Equal(t, 1, res.Iterations)
	// Both centroids moved by 0.5.
	assert.InDelta(t, 0.7071067811865476, res.Shift, 1e-12)
	assert.InDeltaSlice(t, []float64{0, 0.5, 10, 0.5}, res.Centroids, 1e-12)
}

func TestRun_CenteredClustersConvergeImmediately(t *testing.T) {
	centers := []float64{0, 0, 100, 100, -50, 25}
	var points []float64
	for c := range 3 {
		cx, cy := centers[2*c], centers[2*c+1]
		points = append(points,
			cx+1, cy, cx-1, cy,
			cx, cy+1, cx, cy-1,
		)
	}

	results, err := RunLocal(testContext(t), [][]float64{points[:12], points[12:]}, 2, 3,
		WithInitialCentroids(centers),
	)
	require.NoError(t, err)

	for _, res := range results {
		assert.Equal(t, StateConverged, res.State)
		assert.Equal(t, 1, res.Iterations)
		assert.Equal(t, 0.0, res.Shift)
		assert.Equal(t, centers, res.Centroids)
	}
}

func TestRun_EmptyCluster(t *testing.T) {
	points := []float64{0, 0, 1, 0}
	initial := []float64{0.5, 0, 100, 100}

	t.Run("keep", func(t *testing.T) {
		results, err := RunLocal(testContext(t), [][]float64{points}, 2, 2, WithInitialCentroids(initial))
		require.NoError(t, err)

		res := results[0]
		assert.Equal(t, StateConverged, res.State)
		assert.Equal(t, []int64{2, 0}, res.Counts)
		assert.Equal(t, []float64{100, 100}, res.Centroid(1))
		assert.Equal(t, []int{0, 0}, res.Labels)
	})

	t.Run("reseed", func(t *testing.T) {
		metrics := &BasicMetricsCollector{}
		results, err := RunLocal(testContext(t), [][]float64{points}, 2, 2,
			WithInitialCentroids(initial),
			WithEmptyClusterPolicy(EmptyClusterReseed),
			WithMetricsCollector(metrics),
		)
		require.NoError(t, err)

		res := results[0]
		c1 := res.Centroid(1)
		assert.True(t, (c1[0] == 0 || c1[0] == 1) && c1[1] == 0, "reseeded centroid %v is not a data point", c1)
		assert.Positive(t, metrics.GetStats().EmptyClusters)
	})
}

func TestRun_Deterministic(t *testing.T) {
	const (
		nTotal = 2000
		d      = 4
		k      = 5
	)
	ctx := testContext(t)
	shards := generateShards(t, 4, nTotal, d, k, 42)
	initial := append([]float64(nil), shards[0][:k*d]...)

	opts := []Option{WithInitialCentroids(initial), WithMaxIters(25), WithTolerance(1e-9)}

	distributed, err := RunLocal(ctx, shards, d, k, append(opts, WithParallelism(3))...)
	require.NoError(t, err)

	single, err := RunLocal(ctx, [][]float64{concat(shards)}, d, k, append(opts, WithParallelism(1))...)
	require.NoError(t, err)

	rerun, err := RunLocal(ctx, shards, d, k, append(opts, WithParallelism(3))...)
	require.NoError(t, err)

	ref := distributed[0]
	for _, res := range distributed[1:] {
		assert.Equal(t, ref.Centroids, res.Centroids, "broadcast centroids must be identical")
		assert.Equal(t, ref.Counts, res.Counts)
		assert.Equal(t, ref.Iterations, res.Iterations)
	}
	assert.Equal(t, ref.Centroids, rerun[0].Centroids)
	assert.Less(t, testutil.RelativeDiff(single[0].Centroids, ref.Centroids), 1e-9)

	var total int64
	for _, c := range ref.Counts {
		total += c
	}
	assert.Equal(t, int64(nTotal), total)

	labels := 0
	for r, res := range distributed {
		assert.Len(t, res.Labels, len(shards[r])/d)
		labels += len(res.Labels)
	}
	assert.Equal(t, nTotal, labels)
}

func TestRun_SmallCoordinatorShard(t *testing.T) {
	// Rank 0 holds fewer points than k and initializes inside its bounding
	// box; rank 2 holds none at all.
	shards := [][]float64{
		{0, 0},
		{5, 5, 6, 6, 7, 7, -3, -3},
		{},
	}
	results, err := RunLocal(testContext(t), shards, 2, 3, WithSeed(7))
	require.NoError(t, err)

	var total int64
	for _, c := range results[0].Counts {
		total += c
	}
	assert.Equal(t, int64(5), total)
	assert.Empty(t, results[2].Labels)
	assert.True(t, results[0].State.Terminal())
}

func TestRun_InitFailures(t *testing.T) {
	ctx := testContext(t)

	t.Run("dimension disagreement", func(t *testing.T) {
		members, hub := group.NewLocal(2)
		defer hub.Close()

		results := make([]error, 2)
		var wg sync.WaitGroup
		for r, d := range []int{2, 3} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, results[r] = Run(ctx, members[r], make([]float64, 6), d, 2)
			}()
		}
		wg.Wait()

		var sm *ErrShapeMismatch
		require.ErrorAs(t, results[1], &sm)
		assert.Equal(t, 4, sm.Expected)
		assert.Equal(t, 6, sm.Actual)
		for _, err := range results {
			assert.ErrorIs(t, err, ErrShapeDisagreement)
		}
	})

	t.Run("bad initial centroids", func(t *testing.T) {
		members, hub := group.NewLocal(2)
		defer hub.Close()

		_, errs := runGroup(ctx, members, [][]float64{{0, 0}, {1, 1}}, 2, 2, WithInitialCentroids([]float64{1, 2, 3}))
		var sm *ErrShapeMismatch
		assert.ErrorAs(t, errs[0], &sm)
		assert.ErrorIs(t, errs[1], ErrShapeDisagreement)
	})

	t.Run("stopping rule follows the coordinator", func(t *testing.T) {
		shards := [][]float64{{0, 0, 0, 1}, {10, 0, 10, 1}}
		initial := WithInitialCentroids([]float64{0, 0, 10, 0})

		for name, tt := range map[string]struct {
			perRank [2][]Option
			state   State
			iters   int
		}{
			"worker stops earlier": {
				perRank: [2][]Option{{initial}, {initial, WithMaxIters(1), WithTolerance(100)}},
				state:   StateConverged,
				iters:   2,
			},
			"coordinator stops earlier": {
				perRank: [2][]Option{{initial, WithMaxIters(1)}, {initial}},
				state:   StateMaxItersReached,
				iters:   1,
			},
		} {
			t.Run(name, func(t *testing.T) {
				members, hub := group.NewLocal(2)
				defer hub.Close()

				results := make([]*Result, 2)
				errs := make([]error, 2)
				var wg sync.WaitGroup
				for r := range 2 {
					wg.Add(1)
					go func() {
						defer wg.Done()
						results[r], errs[r] = Run(ctx, members[r], shards[r], 2, 2, tt.perRank[r]...)
					}()
				}
				wg.Wait()

				for r := range 2 {
					require.NoError(t, errs[r], "rank %d", r)
					assert.Equal(t, tt.state, results[r].State, "rank %d", r)
					assert.Equal(t, tt.iters, results[r].Iterations, "rank %d", r)
				}
				assert.Equal(t, results[0].Centroids, results[1].Centroids)
			})
		}
	})

	t.Run("invalid k", func(t *testing.T) {
		_, err := RunLocal(ctx, [][]float64{{0, 0}}, 2, 0)
		assert.ErrorIs(t, err, ErrInvalidK)
	})

	t.Run("invalid max iters", func(t *testing.T) {
		_, err := RunLocal(ctx, [][]float64{{0, 0}}, 2, 1, WithMaxIters(0))
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("no shards", func(t *testing.T) {
		_, err := RunLocal(ctx, nil, 2, 1)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestRun_StateTransitions(t *testing.T) {
	ctx := testContext(t)

	var buf bytes.Buffer
	logger := NewLogger(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := RunLocal(ctx, [][]float64{{0, 0, 0, 1, 10, 0, 10, 1}}, 2, 2,
		WithInitialCentroids([]float64{0, 0, 10, 0}),
		WithLogger(logger),
	)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "from=INIT to=ITERATING")
	assert.Contains(t, out, "from=ITERATING to=CONVERGED")
	assert.NotContains(t, out, "using coordinator stopping rule")
}

func TestRun_ContextCanceled(t *testing.T) {
	members, hub := group.NewLocal(2)
	defer hub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Rank 1 never shows up; rank 0 must return instead of blocking.
	_, err := Run(ctx, members[0], []float64{0, 0}, 2, 1)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRun_GRPC(t *testing.T) {
	ctx := testContext(t)
	const size = 3
	shards := generateShards(t, size, 600, 3, 4, 11)

	lis := bufconn.Listen(1 << 20)
	host := grpcgroup.NewHost(lis, size)
	t.Cleanup(func() { _ = host.Close() })

	members := []group.Group{host}
	for r := 1; r < size; r++ {
		client, err := grpcgroup.Dial("passthrough:///bufnet", r, size, func(o *grpcgroup.Options) {
			o.DialOptions = append(o.DialOptions, grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
				return lis.DialContext(ctx)
			}))
		})
		require.NoError(t, err)
		t.Cleanup(func() { _ = client.Close() })
		members = append(members, client)
	}

	opts := []Option{WithParallelism(2), WithMaxIters(50)}
	remote, errs := runGroup(ctx, members, shards, 3, 4, opts...)
	for _, err := range errs {
		require.NoError(t, err)
	}

	local, err := RunLocal(ctx, shards, 3, 4, opts...)
	require.NoError(t, err)

	for r := range size {
		assert.Equal(t, local[r].Centroids, remote[r].Centroids)
		assert.Equal(t, local[r].Labels, remote[r].Labels)
		assert.Equal(t, local[r].State, remote[r].State)
	}
}

func TestRun_MetricsAndCheckpoints(t *testing.T) {
	ctx := testContext(t)
	metrics := &BasicMetricsCollector{}
	store := checkpoint.New(blobstore.NewMemoryStore())

	results, err := RunLocal(ctx, [][]float64{{0, 0, 0, 1, 10, 0, 10, 1}}, 2, 2,
		WithInitialCentroids([]float64{0, 0, 10, 0}),
		WithMetricsCollector(metrics),
		WithCheckpointer(store),
		WithLogger(NoopLogger()),
	)
	require.NoError(t, err)
	res := results[0]

	stats := metrics.GetStats()
	assert.Equal(t, int64(res.Iterations), stats.IterationCount)
	assert.Equal(t, int64(1), stats.RunCount)
	assert.Equal(t, int64(1), stats.ConvergedCount)
	assert.Zero(t, stats.CollectiveErrors)
	// INIT (3) + 4 per iteration + closing barrier.
	assert.Equal(t, int64(3+4*res.Iterations+1), stats.CollectiveCount)
	assert.Equal(t, res.Shift, stats.LastShift)

	snap, err := store.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, res.Iterations, snap.Iteration)
	assert.Equal(t, res.Centroids, snap.Centroids)
	assert.Equal(t, 2, snap.Dim)
}
