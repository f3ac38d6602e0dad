package kmeans

import (
	"context"

	"github.com/hupe1980/distkmeans/distance"
)

// Distances computes the n × k matrix of Euclidean distances between every
// point and every centroid. Rows are independent; chunks write disjoint rows.
func Distances(ctx context.Context, pool Pool, points []float64, d int, centroids []float64, k int) (distance.Matrix, error) {
	if err := checkShape(points, d, centroids, k); err != nil {
		return distance.Matrix{}, err
	}
	n := len(points) / d
	m := distance.NewMatrix(n, k)

	err := pool.run(ctx, n, func(_ context.Context, _ int, s span) error {
		for i := s.lo; i < s.hi; i++ {
			p := points[i*d : (i+1)*d]
			row := m.Row(i)
			for j := range k {
				row[j] = distance.Euclidean(p, centroids[j*d:(j+1)*d])
			}
		}
		return nil
	})
	if err != nil {
		return distance.Matrix{}, err
	}
	return m, nil
}

// ArgMin returns the index of the smallest value in row. Ties go to the
// lowest index. It returns -1 for an empty row.
func ArgMin(row []float64) int {
	best := -1
	for j, v := range row {
		if best < 0 || v < row[best] {
			best = j
		}
	}
	return best
}

// AssignLabels returns, for every row of m, the index of its nearest
// centroid.
func AssignLabels(ctx context.Context, pool Pool, m distance.Matrix) ([]int, error) {
	if m.Cols <= 0 {
		return nil, ErrInvalidK
	}
	labels := make([]int, m.Rows)

	err := pool.run(ctx, m.Rows, func(_ context.Context, _ int, s span) error {
		for i := s.lo; i < s.hi; i++ {
			labels[i] = ArgMin(m.Row(i))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return labels, nil
}
