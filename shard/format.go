package shard

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/hupe1980/distkmeans/internal/compress"
	"github.com/hupe1980/distkmeans/internal/hash"
)

const (
	MagicNumber = 0x534D4B44 // "DKMS"
	Version     = 1
	HeaderSize  = 40
)

var (
	ErrInvalidMagic   = errors.New("invalid magic number")
	ErrInvalidVersion = errors.New("unsupported version")
	// ErrCorrupt reports a shard whose payload does not match its header.
	ErrCorrupt = errors.New("corrupt shard")
)

// Shard is an n×d row-major block of points.
type Shard struct {
	Points []float64
	Dim    int
}

// Rows returns the number of points.
func (s *Shard) Rows() int {
	if s == nil || s.Dim == 0 {
		return 0
	}
	return len(s.Points) / s.Dim
}

// Row returns point i.
func (s *Shard) Row(i int) []float64 {
	return s.Points[i*s.Dim : (i+1)*s.Dim]
}

// Validate checks that Points is a whole number of rows.
func (s *Shard) Validate() error {
	if s.Dim <= 0 {
		return fmt.Errorf("shard: dimension %d must be positive", s.Dim)
	}
	if len(s.Points)%s.Dim != 0 {
		return fmt.Errorf("shard: %d values are not a multiple of dimension %d", len(s.Points), s.Dim)
	}
	return nil
}

// Header describes a shard blob.
type Header struct {
	Magic       uint32
	Version     uint32
	Rows        uint64
	Dim         uint32
	Compression compress.Type
	PayloadSize uint64
	Checksum    uint32
}

func (h *Header) Encode() []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(buf[0:], h.Magic)
	binary.LittleEndian.PutUint32(buf[4:], h.Version)
	binary.LittleEndian.PutUint64(buf[8:], h.Rows)
	binary.LittleEndian.PutUint32(buf[16:], h.Dim)
	buf[20] = byte(h.Compression)
	// Padding [21:24]
	binary.LittleEndian.PutUint64(buf[24:], h.PayloadSize)
	binary.LittleEndian.PutUint32(buf[32:], h.Checksum)
	return buf
}

func DecodeHeader(buf []byte) (*Header, error) {
	if len(buf) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes is too small for a header", ErrCorrupt, len(buf))
	}
	h := &Header{}
	h.Magic = binary.LittleEndian.Uint32(buf[0:])
	if h.Magic != MagicNumber {
		return nil, ErrInvalidMagic
	}
	h.Version = binary.LittleEndian.Uint32(buf[4:])
	if h.Version != Version {
		return nil, ErrInvalidVersion
	}
	h.Rows = binary.LittleEndian.Uint64(buf[8:])
	h.Dim = binary.LittleEndian.Uint32(buf[16:])
	h.Compression = compress.Type(buf[20])
	h.PayloadSize = binary.LittleEndian.Uint64(buf[24:])
	h.Checksum = binary.LittleEndian.Uint32(buf[32:])
	return h, nil
}

// Encode serializes s, compressing the payload with t.
func Encode(s *Shard, t compress.Type) ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	raw := make([]byte, 8*len(s.Points))
	for i, v := range s.Points {
		binary.LittleEndian.PutUint64(raw[8*i:], math.Float64bits(v))
	}

	payload, err := compress.Encode(raw, t)
	if err != nil {
		return nil, err
	}

	h := Header{
		Magic:       MagicNumber,
		Version:     Version,
		Rows:        uint64(s.Rows()),
		Dim:         uint32(s.Dim),
		Compression: t,
		PayloadSize: uint64(len(payload)),
		Checksum:    hash.CRC32C(payload),
	}

	out := make([]byte, 0, HeaderSize+len(payload))
	out = append(out, h.Encode()...)
	return append(out, payload...), nil
}

// Decode parses a blob produced by Encode.
func Decode(data []byte) (*Shard, error) {
	h, err := DecodeHeader(data)
	if err != nil {
		return nil, err
	}
	if h.Dim == 0 {
		return nil, fmt.Errorf("%w: zero dimension", ErrCorrupt)
	}

	payload := data[HeaderSize:]
	if uint64(len(payload)) != h.PayloadSize {
		return nil, fmt.Errorf("%w: payload is %d bytes, header says %d", ErrCorrupt, len(payload), h.PayloadSize)
	}
	if sum := hash.CRC32C(payload); sum != h.Checksum {
		return nil, fmt.Errorf("%w: checksum %08x, header says %08x", ErrCorrupt, sum, h.Checksum)
	}

	raw, err := compress.DecodeAll(payload, h.Compression)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	values := h.Rows * uint64(h.Dim)
	if uint64(len(raw)) != 8*values {
		return nil, fmt.Errorf("%w: %d payload bytes for %d×%d values", ErrCorrupt, len(raw), h.Rows, h.Dim)
	}

	points := make([]float64, values)
	for i := range points {
		points[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[8*i:]))
	}
	return &Shard{Points: points, Dim: int(h.Dim)}, nil
}
