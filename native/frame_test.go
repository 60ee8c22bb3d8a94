package native

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeHeaderV4Request(t *testing.T) {
	h := &Header{Version: ProtocolVersion4, Request: true, StreamID: 5, OpCode: OpQuery, BodyLength: 10}
	var buf bytes.Buffer
	require.NoError(t, EncodeHeader(h, &buf))
	require.Equal(t, byte(0x04), buf.Bytes()[0])

	got, err := DecodeHeader(&buf)
	require.NoError(t, err)
	require.Equal(t, h, got)
}

func TestEncodeDecodeHeaderResponseByte(t *testing.T) {
	h := &Header{Version: ProtocolVersion4, Request: false, StreamID: 0, OpCode: OpReady, BodyLength: 0}
	var buf bytes.Buffer
	require.NoError(t, EncodeHeader(h, &buf))
	require.Equal(t, byte(0x84), buf.Bytes()[0])
}

func TestDecodeHeaderRejectsUnknownOpcode(t *testing.T) {
	buf := bytes.NewBuffer([]byte{0x04, 0x00, 0x00, 0x00, 0x7F, 0x00, 0x00, 0x00, 0x00})
	_, err := DecodeHeader(buf)
	require.Error(t, err)
}

func TestEncodeDecodeQueryFrameRoundTrip(t *testing.T) {
	q := &Query{
		QueryString: "SELECT * FROM t",
		Params:      QueryParams{Consistency: ConsistencyQuorum},
	}
	frame := NewRequestFrame(ProtocolVersion4, 7, q)

	var buf bytes.Buffer
	require.NoError(t, EncodeFrame(frame, nil, &buf))

	got, err := DecodeFrame(&buf, nil)
	require.NoError(t, err)
	require.Equal(t, int16(7), got.Header.StreamID)
	gotQuery, ok := got.Body.(*Query)
	require.True(t, ok)
	require.Equal(t, q.QueryString, gotQuery.QueryString)
	require.Equal(t, q.Params.Consistency, gotQuery.Params.Consistency)
}

func TestDecodeFrameRejectsNegativeStreamOnNonEvent(t *testing.T) {
	h := &Header{Version: ProtocolVersion4, Request: false, StreamID: -1, OpCode: OpResult, BodyLength: 4}
	var buf bytes.Buffer
	require.NoError(t, EncodeHeader(h, &buf))
	require.NoError(t, WriteInt(&buf, 1))

	_, err := DecodeFrame(&buf, nil)
	require.Error(t, err)
}

func TestEncodeFrameCompression(t *testing.T) {
	comp, err := NewCompressor(CompressionLZ4)
	require.NoError(t, err)

	q := &Query{QueryString: "SELECT * FROM system.local", Params: QueryParams{Consistency: ConsistencyOne}}
	frame := NewRequestFrame(ProtocolVersion4, 1, q)
	frame.Header.Flags |= FlagCompression

	var buf bytes.Buffer
	require.NoError(t, EncodeFrame(frame, comp, &buf))

	got, err := DecodeFrame(&buf, comp)
	require.NoError(t, err)
	gotQuery := got.Body.(*Query)
	require.Equal(t, q.QueryString, gotQuery.QueryString)
}
