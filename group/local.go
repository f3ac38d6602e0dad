package group

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"
)

// Member is a Group backed by a Hub, either in the same process (NewLocal)
// or behind a transport that forwards Exchange calls to the hub.
type Member struct {
	rank     int
	size     int
	seq      atomic.Uint64
	exchange ExchangeFunc
}

// ExchangeFunc delivers one contribution to the group's hub.
type ExchangeFunc func(ctx context.Context, c Contribution) (Outcome, error)

// NewMember creates a Group member that sends its contributions through fn.
func NewMember(rank, size int, fn ExchangeFunc) *Member {
	return &Member{
		rank:     rank,
		size:     size,
		exchange: fn,
	}
}

// NewLocal returns size members of one in-process group, member i having
// rank i. The returned hub can be closed to abort pending collectives.
func NewLocal(size int) ([]Group, *Hub) {
	hub := NewHub(size)
	members := make([]Group, size)
	for i := range members {
		members[i] = NewMember(i, size, hub.Exchange)
	}
	return members, hub
}

// Rank implements Group.
func (m *Member) Rank() int { return m.rank }

// Size implements Group.
func (m *Member) Size() int { return m.size }

// Broadcast implements Group.
func (m *Member) Broadcast(ctx context.Context, buf []float64, root int) error {
	if root < 0 || root >= m.size {
		return fmt.Errorf("broadcast root %d outside group of size %d", root, m.size)
	}
	c := m.next(OpBroadcast, len(buf))
	c.Root = root
	if m.rank == root {
		c.Floats = slices.Clone(buf)
	}
	out, err := m.exchange(ctx, c)
	if err != nil {
		return err
	}
	if m.rank != root {
		copy(buf, out.Floats)
	}
	return nil
}

// AllReduceFloat64 implements Group.
func (m *Member) AllReduceFloat64(ctx context.Context, buf []float64) error {
	c := m.next(OpSumFloat64, len(buf))
	c.Floats = slices.Clone(buf)
	out, err := m.exchange(ctx, c)
	if err != nil {
		return err
	}
	copy(buf, out.Floats)
	return nil
}

// AllReduceInt64 implements Group.
func (m *Member) AllReduceInt64(ctx context.Context, buf []int64) error {
	c := m.next(OpSumInt64, len(buf))
	c.Ints = slices.Clone(buf)
	out, err := m.exchange(ctx, c)
	if err != nil {
		return err
	}
	copy(buf, out.Ints)
	return nil
}

// Barrier implements Group.
func (m *Member) Barrier(ctx context.Context) error {
	_, err := m.exchange(ctx, m.next(OpBarrier, 0))
	return err
}

func (m *Member) next(op Op, n int) Contribution {
	return Contribution{
		Seq:  m.seq.Add(1),
		Rank: m.rank,
		Op:   op,
		Len:  n,
	}
}
