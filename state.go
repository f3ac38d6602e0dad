package distkmeans

import "fmt"

// State is a phase of the coordinator loop.
type State int

const (
	StateInit State = iota
	StateIterating
	// StateConverged means the last shift was at most the tolerance.
	StateConverged
	// StateMaxItersReached means the iteration budget ran out first. The
	// centroids are still the result.
	StateMaxItersReached
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateIterating:
		return "ITERATING"
	case StateConverged:
		return "CONVERGED"
	case StateMaxItersReached:
		return "MAX_ITERS_REACHED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Terminal reports whether s ends a run.
func (s State) Terminal() bool {
	return s == StateConverged || s == StateMaxItersReached
}
