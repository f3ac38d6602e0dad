package grpcgroup

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/hupe1980/distkmeans/group"
)

// ErrBadFrame is returned when a frame cannot be decoded.
var ErrBadFrame = errors.New("malformed collective frame")

const (
	payloadNone   uint8 = 0
	payloadFloats uint8 = 1
	payloadInts   uint8 = 2
)

// Request frame:
// [Seq u64][Rank u32][Size u32][Op u8][Root u32][Len u32][Kind u8][payload Len*8]
const requestHeaderSize = 8 + 4 + 4 + 1 + 4 + 4 + 1

// Response frame: [Kind u8][Len u32][payload Len*8]
const responseHeaderSize = 1 + 4

type request struct {
	size int
	c    group.Contribution
}

func encodeRequest(size int, c group.Contribution) []byte {
	kind, n := payloadKind(c.Floats, c.Ints)
	buf := make([]byte, requestHeaderSize+8*n)
	binary.LittleEndian.PutUint64(buf[0:], c.Seq)
	binary.LittleEndian.PutUint32(buf[8:], uint32(c.Rank))
	binary.LittleEndian.PutUint32(buf[12:], uint32(size))
	buf[16] = byte(c.Op)
	binary.LittleEndian.PutUint32(buf[17:], uint32(c.Root))
	binary.LittleEndian.PutUint32(buf[21:], uint32(c.Len))
	buf[25] = kind
	putPayload(buf[requestHeaderSize:], c.Floats, c.Ints)
	return buf
}

func decodeRequest(buf []byte) (request, error) {
	if len(buf) < requestHeaderSize {
		return request{}, fmt.Errorf("%w: %d bytes", ErrBadFrame, len(buf))
	}
	req := request{
		size: int(binary.LittleEndian.Uint32(buf[12:])),
		c: group.Contribution{
			Seq:  binary.LittleEndian.Uint64(buf[0:]),
			Rank: int(binary.LittleEndian.Uint32(buf[8:])),
			Op:   group.Op(buf[16]),
			Root: int(binary.LittleEndian.Uint32(buf[17:])),
			Len:  int(binary.LittleEndian.Uint32(buf[21:])),
		},
	}
	var err error
	req.c.Floats, req.c.Ints, err = readPayload(buf[25], buf[requestHeaderSize:])
	if err != nil {
		return request{}, err
	}
	if err := checkPayload(req.c); err != nil {
		return request{}, err
	}
	return req, nil
}

// checkPayload verifies that the payload carried by c matches its header.
func checkPayload(c group.Contribution) error {
	var floats, ints int
	switch c.Op {
	case group.OpBarrier:
		if c.Len != 0 {
			return fmt.Errorf("%w: barrier with length %d", ErrBadFrame, c.Len)
		}
	case group.OpBroadcast:
		if c.Rank == c.Root {
			floats = c.Len
		}
	case group.OpSumFloat64:
		floats = c.Len
	case group.OpSumInt64:
		ints = c.Len
	default:
		return fmt.Errorf("%w: unknown op %d", ErrBadFrame, c.Op)
	}
	if len(c.Floats) != floats || len(c.Ints) != ints {
		return fmt.Errorf("%w: %s carries %d floats and %d ints, want %d and %d",
			ErrBadFrame, c.Op, len(c.Floats), len(c.Ints), floats, ints)
	}
	return nil
}

func encodeResponse(out group.Outcome) []byte {
	kind, n := payloadKind(out.Floats, out.Ints)
	buf := make([]byte, responseHeaderSize+8*n)
	buf[0] = kind
	binary.LittleEndian.PutUint32(buf[1:], uint32(n))
	putPayload(buf[responseHeaderSize:], out.Floats, out.Ints)
	return buf
}

func decodeResponse(buf []byte) (group.Outcome, error) {
	if len(buf) < responseHeaderSize {
		return group.Outcome{}, fmt.Errorf("%w: %d bytes", ErrBadFrame, len(buf))
	}
	n := int(binary.LittleEndian.Uint32(buf[1:]))
	if len(buf)-responseHeaderSize != 8*n {
		return group.Outcome{}, fmt.Errorf("%w: payload of %d bytes, header says %d values", ErrBadFrame, len(buf)-responseHeaderSize, n)
	}
	floats, ints, err := readPayload(buf[0], buf[responseHeaderSize:])
	if err != nil {
		return group.Outcome{}, err
	}
	return group.Outcome{Floats: floats, Ints: ints}, nil
}

func payloadKind(floats []float64, ints []int64) (uint8, int) {
	switch {
	case floats != nil:
		return payloadFloats, len(floats)
	case ints != nil:
		return payloadInts, len(ints)
	default:
		return payloadNone, 0
	}
}

func putPayload(dst []byte, floats []float64, ints []int64) {
	for i, v := range floats {
		binary.LittleEndian.PutUint64(dst[8*i:], math.Float64bits(v))
	}
	for i, v := range ints {
		binary.LittleEndian.PutUint64(dst[8*i:], uint64(v))
	}
}

func readPayload(kind uint8, data []byte) ([]float64, []int64, error) {
	if len(data)%8 != 0 {
		return nil, nil, fmt.Errorf("%w: payload of %d bytes", ErrBadFrame, len(data))
	}
	n := len(data) / 8
	switch kind {
	case payloadNone:
		if n != 0 {
			return nil, nil, fmt.Errorf("%w: unexpected payload", ErrBadFrame)
		}
		return nil, nil, nil
	case payloadFloats:
		floats := make([]float64, n)
		for i := range floats {
			floats[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[8*i:]))
		}
		return floats, nil, nil
	case payloadInts:
		ints := make([]int64, n)
		for i := range ints {
			ints[i] = int64(binary.LittleEndian.Uint64(data[8*i:]))
		}
		return nil, ints, nil
	default:
		return nil, nil, fmt.Errorf("%w: payload kind %d", ErrBadFrame, kind)
	}
}
