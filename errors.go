package distkmeans

import (
	"errors"
	"fmt"

	"github.com/hupe1980/distkmeans/internal/kmeans"
)

var (
	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("k must be positive")

	// ErrInvalidConfig is returned for out-of-range options.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrShapeDisagreement is returned on every rank when the ranks do not
	// agree on k·d or a rank failed to initialize. The run is abandoned
	// before the first iteration.
	ErrShapeDisagreement = errors.New("ranks disagree on centroid shape")
)

// ErrInvalidDimension indicates an invalid dimension.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrInvalidDimension struct {
	Dimension int
	cause     error
}

func (e *ErrInvalidDimension) Error() string {
	return fmt.Sprintf("invalid dimension: %d", e.Dimension)
}

func (e *ErrInvalidDimension) Unwrap() error { return e.cause }

// ErrShapeMismatch indicates that a buffer has the wrong length.
type ErrShapeMismatch struct {
	What     string
	Expected int
	Actual   int
	cause    error
}

func (e *ErrShapeMismatch) Error() string {
	return fmt.Sprintf("%s: expected length %d, got %d", e.What, e.Expected, e.Actual)
}

func (e *ErrShapeMismatch) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, kmeans.ErrInvalidK) {
		return fmt.Errorf("%w: %w", ErrInvalidK, err)
	}
	if errors.Is(err, kmeans.ErrInvalidDimension) {
		return &ErrInvalidDimension{cause: err}
	}
	var sm *kmeans.ErrShapeMismatch
	if errors.As(err, &sm) {
		return &ErrShapeMismatch{What: sm.What, Expected: sm.Expected, Actual: sm.Actual, cause: err}
	}

	return err
}
