package kmeans

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidK is returned when the cluster count is not positive.
	ErrInvalidK = errors.New("k must be positive")

	// ErrInvalidDimension is returned when the dimensionality is not positive.
	ErrInvalidDimension = errors.New("dimension must be positive")
)

// ErrShapeMismatch is returned when a buffer does not have the length its
// shape parameters require.
type ErrShapeMismatch struct {
	What     string
	Expected int
	Actual   int
}

func (e *ErrShapeMismatch) Error() string {
	return fmt.Sprintf("%s: expected length %d, got %d", e.What, e.Expected, e.Actual)
}

// ErrLabelOutOfRange is returned when a label is not in [0, k).
type ErrLabelOutOfRange struct {
	Index int
	Label int
	K     int
}

func (e *ErrLabelOutOfRange) Error() string {
	return fmt.Sprintf("label %d of point %d outside [0, %d)", e.Label, e.Index, e.K)
}

func checkShape(points []float64, d int, centroids []float64, k int) error {
	if k <= 0 {
		return ErrInvalidK
	}
	if d <= 0 {
		return ErrInvalidDimension
	}
	if len(points)%d != 0 {
		return &ErrShapeMismatch{What: "points", Expected: (len(points) / d) * d, Actual: len(points)}
	}
	if centroids != nil && len(centroids) != k*d {
		return &ErrShapeMismatch{What: "centroids", Expected: k * d, Actual: len(centroids)}
	}
	return nil
}
