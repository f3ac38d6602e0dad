package group

import (
	"context"
	"fmt"
	"sync"
)

// Hub is the rendezvous point of a process group. Members hand their
// Contribution for sequence number s to Exchange and block until all Size
// members have contributed to s.
//
// Sums are folded in rank order, so results do not depend on arrival order.
type Hub struct {
	size int

	mu     sync.Mutex
	rounds map[uint64]*round
	closed bool
}

type round struct {
	first Contribution
	parts []Contribution
	// seen marks every rank that has contributed, including rejected
	// contributions. A failed round is dropped once all ranks have seen its
	// error.
	seen    []bool
	arrived int
	waiting int

	done   chan struct{}
	result Outcome
	err    error
}

// NewHub creates a hub for a group of the given size.
func NewHub(size int) *Hub {
	if size < 1 {
		size = 1
	}
	return &Hub{
		size:   size,
		rounds: make(map[uint64]*round),
	}
}

// Size returns the group size the hub was created for.
func (h *Hub) Size() int {
	return h.size
}

// Exchange registers c and waits for the collective to complete.
func (h *Hub) Exchange(ctx context.Context, c Contribution) (Outcome, error) {
	if c.Rank < 0 || c.Rank >= h.size {
		return Outcome{}, fmt.Errorf("rank %d outside group of size %d", c.Rank, h.size)
	}

	r, err := h.register(c)
	if err != nil {
		return Outcome{}, err
	}

	select {
	case <-r.done:
	case <-ctx.Done():
		h.leave(c.Seq, r)
		return Outcome{}, ctx.Err()
	}

	h.leave(c.Seq, r)
	if r.err != nil {
		return Outcome{}, r.err
	}
	return r.result, nil
}

func (h *Hub) register(c Contribution) (*round, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrClosed
	}

	r, ok := h.rounds[c.Seq]
	if !ok {
		r = &round{
			first: c,
			parts: make([]Contribution, h.size),
			seen:  make([]bool, h.size),
			done:  make(chan struct{}),
		}
		h.rounds[c.Seq] = r
	}

	if r.err != nil {
		h.mark(r, c.Rank)
		h.prune(c.Seq, r)
		return nil, r.err
	}
	if r.seen[c.Rank] {
		dup := &ErrMismatch{Seq: c.Seq, Rank: c.Rank, Expected: "one contribution per rank", Actual: "a duplicate"}
		if r.arrived == h.size {
			// Already released to its members.
			return nil, dup
		}
		r.waiting++
		h.fail(r, dup)
		return r, nil
	}
	r.waiting++
	h.mark(r, c.Rank)

	switch err := h.check(c); {
	case err != nil:
		h.fail(r, err)
	case !compatible(r.first, c):
		h.fail(r, &ErrMismatch{Seq: c.Seq, Rank: c.Rank, Expected: describe(r.first), Actual: describe(c)})
	default:
		r.parts[c.Rank] = c
		if r.arrived == h.size {
			r.result = combine(r.first, r.parts)
			close(r.done)
		}
	}
	return r, nil
}

// check validates a contribution on its own: a known op, a root inside the
// group and a payload of exactly Len values where one is expected.
func (h *Hub) check(c Contribution) error {
	mismatch := func(expected string) error {
		return &ErrMismatch{Seq: c.Seq, Rank: c.Rank, Expected: expected, Actual: describe(c)}
	}
	switch c.Op {
	case OpBarrier:
		if c.Len != 0 || len(c.Floats) != 0 || len(c.Ints) != 0 {
			return mismatch("an empty barrier")
		}
	case OpBroadcast:
		if c.Root < 0 || c.Root >= h.size {
			return mismatch(fmt.Sprintf("a root in [0, %d)", h.size))
		}
		if c.Rank == c.Root && len(c.Floats) != c.Len {
			return mismatch(fmt.Sprintf("%d root values, got %d", c.Len, len(c.Floats)))
		}
	case OpSumFloat64:
		if len(c.Floats) != c.Len {
			return mismatch(fmt.Sprintf("%d values, got %d", c.Len, len(c.Floats)))
		}
	case OpSumInt64:
		if len(c.Ints) != c.Len {
			return mismatch(fmt.Sprintf("%d values, got %d", c.Len, len(c.Ints)))
		}
	default:
		return mismatch("a known collective")
	}
	return nil
}

// Close fails every pending collective with ErrClosed and rejects new ones.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true
	for seq, r := range h.rounds {
		if r.err == nil && r.arrived < h.size {
			h.fail(r, ErrClosed)
		}
		h.prune(seq, r)
	}
	return nil
}

// Pending returns the number of collectives that have not been released by
// every member yet.
func (h *Hub) Pending() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rounds)
}

func (h *Hub) leave(seq uint64, r *round) {
	h.mu.Lock()
	defer h.mu.Unlock()

	r.waiting--
	h.prune(seq, r)
}

// mark must be called with h.mu held.
func (h *Hub) mark(r *round, rank int) {
	if !r.seen[rank] {
		r.seen[rank] = true
		r.arrived++
	}
}

// prune must be called with h.mu held. A round is forgotten once nobody waits
// on it and every rank has taken part, or the hub is closed.
func (h *Hub) prune(seq uint64, r *round) {
	if r.waiting > 0 || h.rounds[seq] != r {
		return
	}
	if r.arrived == h.size || (h.closed && r.err != nil) {
		delete(h.rounds, seq)
	}
}

// fail must be called with h.mu held. Members arriving at the round later
// get the same error without blocking.
func (h *Hub) fail(r *round, err error) {
	if r.err != nil {
		return
	}
	r.err = err
	close(r.done)
}

func compatible(a, b Contribution) bool {
	if a.Op != b.Op || a.Len != b.Len {
		return false
	}
	if a.Op == OpBroadcast && a.Root != b.Root {
		return false
	}
	return true
}

func combine(first Contribution, parts []Contribution) Outcome {
	switch first.Op {
	case OpBroadcast:
		return Outcome{Floats: parts[first.Root].Floats}
	case OpSumFloat64:
		sum := make([]float64, first.Len)
		for _, p := range parts {
			for i, v := range p.Floats {
				sum[i] += v
			}
		}
		return Outcome{Floats: sum}
	case OpSumInt64:
		sum := make([]int64, first.Len)
		for _, p := range parts {
			for i, v := range p.Ints {
				sum[i] += v
			}
		}
		return Outcome{Ints: sum}
	default:
		return Outcome{}
	}
}
