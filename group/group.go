package group

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrProtocolViolation is returned when members of a group issue
	// different collective calls at the same position of their call sequence.
	ErrProtocolViolation = errors.New("collective protocol violation")

	// ErrClosed is returned by collectives on a closed group or hub.
	ErrClosed = errors.New("group closed")
)

// Group is one member's handle on a fixed process group.
//
// Buffers are updated in place. Implementations must not retain them after
// the call returns.
type Group interface {
	// Rank is this member's index in [0, Size()).
	Rank() int
	// Size is the fixed number of members.
	Size() int
	// Broadcast overwrites buf on every member with root's buf.
	Broadcast(ctx context.Context, buf []float64, root int) error
	// AllReduceFloat64 replaces buf on every member with the element-wise sum
	// of all members' buf.
	AllReduceFloat64(ctx context.Context, buf []float64) error
	// AllReduceInt64 replaces buf on every member with the element-wise sum
	// of all members' buf.
	AllReduceInt64(ctx context.Context, buf []int64) error
	// Barrier returns once every member has entered it.
	Barrier(ctx context.Context) error
}

// Op identifies a collective operation.
type Op uint8

const (
	OpBarrier Op = iota
	OpBroadcast
	OpSumFloat64
	OpSumInt64
)

func (o Op) String() string {
	switch o {
	case OpBarrier:
		return "barrier"
	case OpBroadcast:
		return "broadcast"
	case OpSumFloat64:
		return "allreduce_float64"
	case OpSumInt64:
		return "allreduce_int64"
	default:
		return fmt.Sprintf("op(%d)", o)
	}
}

// Contribution is one member's input to one collective.
type Contribution struct {
	Seq  uint64
	Rank int
	Op   Op
	Root int
	// Len is the buffer length every member must agree on.
	Len    int
	Floats []float64
	Ints   []int64
}

// Outcome is the combined result of one collective. It is shared by all
// members and must be treated as read-only.
type Outcome struct {
	Floats []float64
	Ints   []int64
}

// ErrMismatch describes a protocol violation in detail.
//
// It wraps ErrProtocolViolation so errors.Is works on it.
type ErrMismatch struct {
	Seq      uint64
	Rank     int
	Expected string
	Actual   string
}

func (e *ErrMismatch) Error() string {
	return fmt.Sprintf("collective %d: rank %d issued %s, group expects %s", e.Seq, e.Rank, e.Actual, e.Expected)
}

func (e *ErrMismatch) Unwrap() error { return ErrProtocolViolation }

func describe(c Contribution) string {
	switch c.Op {
	case OpBroadcast:
		return fmt.Sprintf("%s(root=%d, len=%d)", c.Op, c.Root, c.Len)
	case OpBarrier:
		return c.Op.String()
	default:
		return fmt.Sprintf("%s(len=%d)", c.Op, c.Len)
	}
}
