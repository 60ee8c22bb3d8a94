package native

import (
	"bytes"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStringRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteString(&buf, "hello"))
	require.Equal(t, []byte{0x00, 0x05, 'h', 'e', 'l', 'l', 'o'}, buf.Bytes())

	got, err := ReadString(&buf)
	require.NoError(t, err)
	require.Equal(t, "hello", got)
}

func TestBytesNullVsEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteBytes(&buf, nil))
	require.Equal(t, []byte{0xFF, 0xFF, 0xFF, 0xFF}, buf.Bytes())
	got, err := ReadBytes(&buf)
	require.NoError(t, err)
	require.Nil(t, got)

	buf.Reset()
	require.NoError(t, WriteBytes(&buf, []byte{}))
	require.Equal(t, []byte{0x00, 0x00, 0x00, 0x00}, buf.Bytes())
	got, err = ReadBytes(&buf)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestStringListRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	in := []string{"a", "bb", "ccc"}
	require.NoError(t, WriteStringList(&buf, in))
	out, err := ReadStringList(&buf)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestStringMultimapRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	in := map[string][]string{"COMPRESSION": {"lz4", "snappy"}}
	require.NoError(t, WriteStringMultimap(&buf, in))
	out, err := ReadStringMultimap(&buf)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestReadStringInvalidUTF8(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteShort(&buf, 1))
	buf.WriteByte(0xFF)
	_, err := ReadString(&buf)
	require.Error(t, err)
}

func TestInetRoundTripV4(t *testing.T) {
	var buf bytes.Buffer
	ip := net.IPv4(192, 168, 1, 1)
	require.NoError(t, WriteInet(&buf, ip, 9042))
	gotIP, gotPort, err := ReadInet(&buf)
	require.NoError(t, err)
	require.True(t, ip.Equal(gotIP))
	require.Equal(t, int32(9042), gotPort)
}
