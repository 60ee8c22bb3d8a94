package native

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/golang/snappy"
	"github.com/pierrec/lz4/v4"
)

// Compression names the algorithm negotiated via the STARTUP COMPRESSION
// option.
type Compression string

const (
	CompressionNone   Compression = ""
	CompressionLZ4    Compression = "lz4"
	CompressionSnappy Compression = "snappy"
)

// Compressor (de)compresses a frame body once the Compression header flag
// is set. Decoders must accept either the compressed or uncompressed body
// according to the flag, so a nil Compressor is a programmer error only
// when the flag is actually present on the wire.
type Compressor interface {
	Name() Compression
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

// NewCompressor returns the Compressor for a negotiated algorithm, or nil
// for CompressionNone.
func NewCompressor(c Compression) (Compressor, error) {
	switch c {
	case CompressionNone:
		return nil, nil
	case CompressionLZ4:
		return lz4Compressor{}, nil
	case CompressionSnappy:
		return snappyCompressor{}, nil
	default:
		return nil, fmt.Errorf("native: unknown compression algorithm %q", c)
	}
}

// lz4Compressor implements the CQL framing for LZ4 bodies: a 4-byte
// big-endian uncompressed length, followed by the LZ4 block.
type lz4Compressor struct{}

func (lz4Compressor) Name() Compression { return CompressionLZ4 }

func (lz4Compressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	var lenPrefix [4]byte
	binary.BigEndian.PutUint32(lenPrefix[:], uint32(len(data)))
	buf.Write(lenPrefix[:])

	compressed := make([]byte, lz4.CompressBlockBound(len(data)))
	var c lz4.Compressor
	n, err := c.CompressBlock(data, compressed)
	if err != nil {
		return nil, fmt.Errorf("native: lz4 compress: %w", err)
	}
	if n == 0 && len(data) > 0 {
		// Incompressible input: lz4 reports 0 when the block would not
		// shrink; store the raw bytes verbatim, still length-prefixed.
		buf.Write(data)
		return buf.Bytes(), nil
	}
	buf.Write(compressed[:n])
	return buf.Bytes(), nil
}

func (lz4Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) < 4 {
		return nil, decodeErr("lz4 body", io.ErrUnexpectedEOF)
	}
	originalLen := binary.BigEndian.Uint32(data[:4])
	payload := data[4:]
	if originalLen == 0 {
		return []byte{}, nil
	}
	out := make([]byte, originalLen)
	n, err := lz4.UncompressBlock(payload, out)
	if err != nil {
		// Fallback for the incompressible-passthrough case above.
		if uint32(len(payload)) == originalLen {
			return payload, nil
		}
		return nil, decodeErr("lz4 body", err)
	}
	return out[:n], nil
}

// snappyCompressor uses the self-describing Snappy block format, which
// needs no extra length prefix.
type snappyCompressor struct{}

func (snappyCompressor) Name() Compression { return CompressionSnappy }

func (snappyCompressor) Compress(data []byte) ([]byte, error) {
	return snappy.Encode(nil, data), nil
}

func (snappyCompressor) Decompress(data []byte) ([]byte, error) {
	out, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, decodeErr("snappy body", err)
	}
	return out, nil
}
