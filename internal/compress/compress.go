package compress

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Type defines the compression algorithm used.
type Type uint8

const (
	// None stores blocks verbatim.
	None Type = 0
	// LZ4 is fast block compression.
	LZ4 Type = 1
	// ZSTD trades speed for a better ratio.
	ZSTD Type = 2
)

func (t Type) String() string {
	switch t {
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case ZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", t)
	}
}

// ParseType maps a name as printed by Type.String back to a Type.
func ParseType(s string) (Type, error) {
	switch s {
	case "", "none":
		return None, nil
	case "lz4":
		return LZ4, nil
	case "zstd":
		return ZSTD, nil
	default:
		return None, fmt.Errorf("unknown compression %q", s)
	}
}

// ErrCorrupt is returned when a block stream cannot be decoded.
var ErrCorrupt = errors.New("corrupt compressed block")

// DefaultBlockSize is used when a writer is created with blockSize <= 0.
const DefaultBlockSize = 256 * 1024

const blockHeaderSize = 8

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func putZstdEncoder(enc *zstd.Encoder) {
	zstdEncoderPool.Put(enc)
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

func putZstdDecoder(dec *zstd.Decoder) {
	zstdDecoderPool.Put(dec)
}

// compressBlock returns data framed as one block.
func compressBlock(data []byte, t Type) ([]byte, error) {
	var compressed []byte
	var err error

	switch t {
	case LZ4:
		compressed, err = compressBlockLZ4(data)
	case ZSTD:
		compressed = compressBlockZSTD(data)
	}
	if err != nil {
		return nil, err
	}

	// Keep the block verbatim unless compression saves at least 10%.
	if len(compressed) == 0 || float64(len(compressed)) > float64(len(data))*0.9 {
		result := make([]byte, blockHeaderSize+len(data))
		binary.LittleEndian.PutUint32(result[0:], uint32(len(data)))
		binary.LittleEndian.PutUint32(result[4:], 0)
		copy(result[blockHeaderSize:], data)
		return result, nil
	}

	result := make([]byte, blockHeaderSize+len(compressed))
	binary.LittleEndian.PutUint32(result[0:], uint32(len(data)))
	binary.LittleEndian.PutUint32(result[4:], uint32(len(compressed)))
	copy(result[blockHeaderSize:], compressed)
	return result, nil
}

func compressBlockLZ4(data []byte) ([]byte, error) {
	compressed := make([]byte, lz4.CompressBlockBound(len(data)))

	n, err := lz4.CompressBlock(data, compressed, nil)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil // Incompressible
	}
	return compressed[:n], nil
}

func compressBlockZSTD(data []byte) []byte {
	enc := getZstdEncoder()
	defer putZstdEncoder(enc)

	return enc.EncodeAll(data, nil)
}

func decompressBlock(compressed []byte, uncompressedSize uint32, t Type) ([]byte, error) {
	result := make([]byte, uncompressedSize)

	switch t {
	case LZ4:
		n, err := lz4.UncompressBlock(compressed, result)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		if uint32(n) != uncompressedSize {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorrupt)
		}
		return result, nil

	case ZSTD:
		dec := getZstdDecoder()
		defer putZstdDecoder(dec)

		decoded, err := dec.DecodeAll(compressed, result[:0])
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		if uint32(len(decoded)) != uncompressedSize {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorrupt)
		}
		return decoded, nil

	default:
		return nil, fmt.Errorf("%w: compressed block with compression %s", ErrCorrupt, t)
	}
}

// BlockWriter writes compressed blocks to an underlying writer.
type BlockWriter struct {
	w         io.Writer
	t         Type
	blockSize int
	buffer    *bytes.Buffer
	written   int64
}

// NewBlockWriter creates a new compressed block writer.
func NewBlockWriter(w io.Writer, t Type, blockSize int) *BlockWriter {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	return &BlockWriter{
		w:         w,
		t:         t,
		blockSize: blockSize,
		buffer:    bytes.NewBuffer(make([]byte, 0, blockSize)),
	}
}

// Write buffers p, flushing full blocks as needed.
func (c *BlockWriter) Write(p []byte) (int, error) {
	total := 0
	for len(p) > 0 {
		space := c.blockSize - c.buffer.Len()
		if space <= 0 {
			if err := c.flushBlock(); err != nil {
				return total, err
			}
			space = c.blockSize
		}

		toWrite := min(len(p), space)
		n, _ := c.buffer.Write(p[:toWrite])
		total += n
		p = p[n:]
	}
	return total, nil
}

func (c *BlockWriter) flushBlock() error {
	if c.buffer.Len() == 0 {
		return nil
	}

	block, err := compressBlock(c.buffer.Bytes(), c.t)
	if err != nil {
		return err
	}

	n, err := c.w.Write(block)
	c.written += int64(n)
	if err != nil {
		return err
	}
	c.buffer.Reset()
	return nil
}

// Flush writes any remaining buffered data as a final block.
func (c *BlockWriter) Flush() error {
	return c.flushBlock()
}

// BytesWritten returns the total framed bytes written.
func (c *BlockWriter) BytesWritten() int64 {
	return c.written
}

// DecodeAll reads every block of data and returns the concatenated payload.
func DecodeAll(data []byte, t Type) ([]byte, error) {
	var out []byte
	for off := 0; off < len(data); {
		if len(data)-off < blockHeaderSize {
			return nil, fmt.Errorf("%w: truncated header at offset %d", ErrCorrupt, off)
		}
		uncompressedSize := binary.LittleEndian.Uint32(data[off:])
		compressedSize := binary.LittleEndian.Uint32(data[off+4:])
		off += blockHeaderSize

		if compressedSize == 0 {
			end := off + int(uncompressedSize)
			if end > len(data) {
				return nil, fmt.Errorf("%w: block extends beyond data", ErrCorrupt)
			}
			out = append(out, data[off:end]...)
			off = end
			continue
		}

		end := off + int(compressedSize)
		if end > len(data) {
			return nil, fmt.Errorf("%w: compressed block extends beyond data", ErrCorrupt)
		}
		block, err := decompressBlock(data[off:end], uncompressedSize, t)
		if err != nil {
			return nil, err
		}
		out = append(out, block...)
		off = end
	}
	return out, nil
}

// Encode frames data as blocks of DefaultBlockSize compressed with t.
func Encode(data []byte, t Type) ([]byte, error) {
	var buf bytes.Buffer
	w := NewBlockWriter(&buf, t, DefaultBlockSize)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
