package kmeans

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/distkmeans/testutil"
)

func TestLocalStats(t *testing.T) {
	ctx := context.Background()
	points := []float64{
		0, 0,
		0, 1,
		10, 0,
		10, 1,
	}

	stats, err := LocalStats(ctx, Pool{Workers: 2}, points, 2, []int{0, 0, 1, 1}, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 20, 1}, stats.Sums)
	assert.Equal(t, []int64{2, 2}, stats.Counts)
	assert.Equal(t, int64(4), stats.Total())
}

func TestLocalStats_CountsMatchPoints(t *testing.T) {
	ctx := context.Background()
	rng := testutil.NewRNG(11)

	for _, n := range []int{0, 1, 7, 1000} {
		points := rng.UniformPoints(n, 3)
		labels := make([]int, n)
		for i := range labels {
			labels[i] = rng.Intn(5)
		}
		stats, err := LocalStats(ctx, Pool{Workers: 4}, points, 3, labels, 5)
		require.NoError(t, err)
		assert.Equal(t, int64(n), stats.Total(), "n=%d", n)
	}
}

func TestLocalStats_IndependentOfChunking(t *testing.T) {
	ctx := context.Background()
	rng := testutil.NewRNG(5)
	points := rng.UniformPoints(5000, 4)
	labels := make([]int, 5000)
	for i := range labels {
		labels[i] = rng.Intn(3)
	}

	one, err := LocalStats(ctx, Pool{Workers: 1}, points, 4, labels, 3)
	require.NoError(t, err)
	many, err := LocalStats(ctx, Pool{Workers: 16}, points, 4, labels, 3)
	require.NoError(t, err)

	assert.Equal(t, one.Counts, many.Counts)
	assert.Less(t, testutil.RelativeDiff(many.Sums, one.Sums), 1e-9)

	again, err := LocalStats(ctx, Pool{Workers: 16}, points, 4, labels, 3)
	require.NoError(t, err)
	assert.Equal(t, many.Sums, again.Sums)
}

func TestLocalStats_Errors(t *testing.T) {
	ctx := context.Background()

	var sm *ErrShapeMismatch
	_, err := LocalStats(ctx, Pool{}, []float64{0, 0}, 2, []int{0, 0}, 1)
	assert.ErrorAs(t, err, &sm)

	var lr *ErrLabelOutOfRange
	_, err = LocalStats(ctx, Pool{}, []float64{0, 0}, 2, []int{3}, 2)
	require.ErrorAs(t, err, &lr)
	assert.Equal(t, 3, lr.Label)

	_, err = LocalStats(ctx, Pool{}, nil, 2, nil, 0)
	assert.ErrorIs(t, err, ErrInvalidK)
}

func TestStep(t *testing.T) {
	ctx := context.Background()
	points := []float64{
		0, 0,
		0, 1,
		10, 0,
		10, 1,
	}

	res, err := Step(ctx, Pool{Workers: 2}, points, 2, []float64{0, 0, 10, 0}, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 1, 1}, res.Labels)
	assert.Equal(t, []int64{2, 2}, res.Stats.Counts)
	assert.InDelta(t, 2.0, res.Inertia, 1e-12)
}

func TestStats_Add(t *testing.T) {
	a := NewStats(2, 1)
	a.Add(Stats{Sums: []float64{1, 2}, Counts: []int64{1, 1}})
	a.Add(Stats{Sums: []float64{3, 4}, Counts: []int64{2, 0}})
	assert.Equal(t, []float64{4, 6}, a.Sums)
	assert.Equal(t, []int64{3, 1}, a.Counts)
}
