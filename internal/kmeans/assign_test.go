package kmeans

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/distkmeans/distance"
	"github.com/hupe1980/distkmeans/testutil"
)

func TestDistances(t *testing.T) {
	ctx := context.Background()
	points := []float64{
		0, 0,
		3, 4,
	}
	centroids := []float64{
		0, 0,
		6, 8,
		3, 0,
	}

	m, err := Distances(ctx, Pool{Workers: 2}, points, 2, centroids, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Rows)
	assert.Equal(t, 3, m.Cols)

	assert.InDelta(t, 0, m.At(0, 0), 1e-12)
	assert.InDelta(t, 10, m.At(0, 1), 1e-12)
	assert.InDelta(t, 3, m.At(0, 2), 1e-12)
	assert.InDelta(t, 5, m.At(1, 0), 1e-12)
	assert.InDelta(t, 5, m.At(1, 1), 1e-12)
	assert.InDelta(t, 4, m.At(1, 2), 1e-12)
}

func TestDistances_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := Distances(ctx, Pool{}, []float64{0, 0}, 2, nil, 0)
	assert.ErrorIs(t, err, ErrInvalidK)

	_, err = Distances(ctx, Pool{}, []float64{0, 0}, 0, []float64{0}, 1)
	assert.ErrorIs(t, err, ErrInvalidDimension)

	var sm *ErrShapeMismatch
	_, err = Distances(ctx, Pool{}, []float64{0, 0, 0}, 2, []float64{0, 0}, 1)
	assert.ErrorAs(t, err, &sm)

	_, err = Distances(ctx, Pool{}, []float64{0, 0}, 2, []float64{0, 0, 0}, 1)
	assert.ErrorAs(t, err, &sm)
}

func TestDistances_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	points := testutil.NewRNG(1).UniformPoints(1000, 4)
	_, err := Distances(ctx, Pool{Workers: 4}, points, 4, make([]float64, 8), 2)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestArgMin(t *testing.T) {
	tests := []struct {
		name string
		row  []float64
		want int
	}{
		{"TieLowestIndex", []float64{2.0, 2.0, 5.0}, 0},
		{"Last", []float64{3, 2, 1}, 2},
		{"Middle", []float64{3, 0.5, 1}, 1},
		{"TieLater", []float64{4, 1, 1}, 1},
		{"Single", []float64{7}, 0},
		{"Empty", nil, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ArgMin(tt.row))
		})
	}
}

func TestAssignLabels(t *testing.T) {
	ctx := context.Background()
	m := distance.Matrix{Rows: 3, Cols: 3, Data: []float64{
		2.0, 2.0, 5.0,
		9.0, 1.0, 1.0,
		0.0, 0.0, 0.0,
	}}

	labels, err := AssignLabels(ctx, Pool{Workers: 3}, m)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 0}, labels)
}

func TestAssignLabels_InvalidK(t *testing.T) {
	_, err := AssignLabels(context.Background(), Pool{}, distance.Matrix{Rows: 2})
	assert.ErrorIs(t, err, ErrInvalidK)
}

func TestAssignLabels_Properties(t *testing.T) {
	ctx := context.Background()
	rng := testutil.NewRNG(7)

	for _, k := range []int{1, 2, 5, 13} {
		points := rng.UniformPoints(257, 3)
		centroids := rng.UniformPoints(k, 3)

		m, err := Distances(ctx, Pool{Workers: 4}, points, 3, centroids, k)
		require.NoError(t, err)
		labels, err := AssignLabels(ctx, Pool{Workers: 4}, m)
		require.NoError(t, err)

		require.Len(t, labels, 257)
		for i, l := range labels {
			require.GreaterOrEqual(t, l, 0)
			require.Less(t, l, k)
			row := m.Row(i)
			for j := 0; j < l; j++ {
				assert.Greater(t, row[j], row[l], "point %d: earlier centroid %d must be strictly farther", i, j)
			}
			for j := l + 1; j < k; j++ {
				assert.GreaterOrEqual(t, row[j], row[l])
			}
		}
	}
}

func TestPool_Spans(t *testing.T) {
	spans := Pool{Workers: 3}.spans(10)
	require.Len(t, spans, 3)
	assert.Equal(t, span{0, 4}, spans[0])
	assert.Equal(t, span{4, 7}, spans[1])
	assert.Equal(t, span{7, 10}, spans[2])

	assert.Len(t, Pool{Workers: 8}.spans(2), 2)
	assert.Empty(t, Pool{Workers: 8}.spans(0))
	assert.NotEmpty(t, Pool{}.spans(1))
}

func TestDistances_MatchesSequential(t *testing.T) {
	ctx := context.Background()
	rng := testutil.NewRNG(3)
	points := rng.UniformPoints(100, 5)
	centroids := rng.UniformPoints(4, 5)

	seq, err := Distances(ctx, Pool{Workers: 1}, points, 5, centroids, 4)
	require.NoError(t, err)
	par, err := Distances(ctx, Pool{Workers: 7}, points, 5, centroids, 4)
	require.NoError(t, err)

	assert.Equal(t, seq.Data, par.Data)
	for _, v := range par.Data {
		assert.False(t, math.IsNaN(v))
	}
}
