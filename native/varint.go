package native

import (
	"io"
	"math/big"
)

// EncodeVarint encodes n as a minimal-length two's-complement big-endian
// byte slice: zero is a single 0x00 byte; positive values never start with
// 0x00 unless that byte is needed to keep the sign bit clear; negative
// values never start with 0xFF unless needed to keep the sign bit set.
func EncodeVarint(n *big.Int) []byte {
	if n.Sign() == 0 {
		return []byte{0x00}
	}
	if n.Sign() > 0 {
		b := n.Bytes()
		if b[0]&0x80 != 0 {
			b = append([]byte{0x00}, b...)
		}
		return b
	}
	// Negative: two's complement of the smallest width nBytes such that
	// n >= -2^(8*nBytes-1).
	nBytes := 1
	limit := negPow2(8*nBytes - 1)
	for n.Cmp(limit) < 0 {
		nBytes++
		limit = negPow2(8*nBytes - 1)
	}
	twos := new(big.Int).Add(n, new(big.Int).Lsh(big.NewInt(1), uint(nBytes*8)))
	b := twos.Bytes()
	for len(b) < nBytes {
		b = append([]byte{0x00}, b...)
	}
	return b
}

func negPow2(exp int) *big.Int {
	return new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), uint(exp)))
}

// DecodeVarint parses a two's-complement big-endian byte slice into a big.Int.
func DecodeVarint(b []byte) *big.Int {
	if len(b) == 0 {
		return big.NewInt(0)
	}
	n := new(big.Int).SetBytes(b)
	if b[0]&0x80 != 0 {
		n.Sub(n, new(big.Int).Lsh(big.NewInt(1), uint(len(b)*8)))
	}
	return n
}

// EncodeVarintInt64 is the int64 fast path of EncodeVarint.
func EncodeVarintInt64(v int64) []byte {
	return EncodeVarint(big.NewInt(v))
}

// DecodeVarintInt64 parses a varint known to fit in an int64. It does not
// validate that the value actually fits; callers working with arbitrary
// precision values should use DecodeVarint directly.
func DecodeVarintInt64(b []byte) int64 {
	return DecodeVarint(b).Int64()
}

// Decimal is {scale: int, unscaled: varint}, CQL's arbitrary-precision
// decimal representation.
type Decimal struct {
	Scale    int32
	Unscaled *big.Int
}

// WriteDecimal encodes a decimal column value.
func WriteDecimal(w io.Writer, d Decimal) error {
	if err := WriteInt(w, d.Scale); err != nil {
		return err
	}
	_, err := w.Write(EncodeVarint(d.Unscaled))
	return err
}

// DecodeDecimal parses a raw decimal column payload (scale + varint unscaled value).
func DecodeDecimal(raw []byte) (Decimal, error) {
	if len(raw) < 4 {
		return Decimal{}, decodeErr("decimal", io.ErrUnexpectedEOF)
	}
	scale := int32(uint32(raw[0])<<24 | uint32(raw[1])<<16 | uint32(raw[2])<<8 | uint32(raw[3]))
	return Decimal{Scale: scale, Unscaled: DecodeVarint(raw[4:])}, nil
}
