package native

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeVarintVectors(t *testing.T) {
	cases := []struct {
		n    int64
		want []byte
	}{
		{0, []byte{0x00}},
		{127, []byte{0x7F}},
		{128, []byte{0x00, 0x80}},
		{-1, []byte{0xFF}},
		{-128, []byte{0x80}},
		{-129, []byte{0xFF, 0x7F}},
	}
	for _, c := range cases {
		got := EncodeVarint(big.NewInt(c.n))
		require.Equal(t, c.want, got, "encode(%d)", c.n)
		require.Equal(t, c.n, DecodeVarint(got).Int64(), "round trip %d", c.n)
	}
}

func TestDecodeVarintEmpty(t *testing.T) {
	require.Equal(t, int64(0), DecodeVarint(nil).Int64())
}
