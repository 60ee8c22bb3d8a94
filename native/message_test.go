package native

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStartupRoundTrip(t *testing.T) {
	startup := NewStartup("3.0.0")
	frame := NewRequestFrame(ProtocolVersion4, 0, startup)

	var buf bytes.Buffer
	require.NoError(t, EncodeFrame(frame, nil, &buf))
	got, err := DecodeFrame(&buf, nil)
	require.NoError(t, err)
	gotStartup := got.Body.(*Startup)
	require.Equal(t, "3.0.0", gotStartup.Options["CQL_VERSION"])
}

func TestSupportedDecodesMultimap(t *testing.T) {
	supported := &Supported{Options: map[string][]string{
		"CQL_VERSION": {"3.0.0"},
		"COMPRESSION": {"lz4", "snappy"},
	}}
	frame := &Frame{
		Header: &Header{Version: ProtocolVersion4, StreamID: 1, OpCode: OpSupported},
		Body:   supported,
	}
	var buf bytes.Buffer
	require.NoError(t, EncodeFrame(frame, nil, &buf))
	got, err := DecodeFrame(&buf, nil)
	require.NoError(t, err)
	gotSupported := got.Body.(*Supported)
	require.Contains(t, gotSupported.Options, "CQL_VERSION")
	require.Contains(t, gotSupported.Options, "COMPRESSION")
}

func TestSchemaChangeEventCreateTable(t *testing.T) {
	ev := &SchemaChangeEvent{Change: "CREATED", Target: "TABLE", Keyspace: "ks", Name: "t"}
	frame := &Frame{
		Header: &Header{Version: ProtocolVersion4, StreamID: -1, OpCode: OpEvent},
		Body:   ev,
	}
	var buf bytes.Buffer
	require.NoError(t, EncodeFrame(frame, nil, &buf))
	got, err := DecodeFrame(&buf, nil)
	require.NoError(t, err)
	gotEv := got.Body.(*SchemaChangeEvent)
	require.Equal(t, "CREATED", gotEv.Change)
	require.Equal(t, "TABLE", gotEv.Target)
	require.Equal(t, "ks", gotEv.Keyspace)
	require.Equal(t, "t", gotEv.Name)
}

func TestQueryFrameByteLayout(t *testing.T) {
	q := &Query{QueryString: "SELECT * FROM t", Params: QueryParams{Consistency: ConsistencyOne}}
	frame := NewRequestFrame(ProtocolVersion4, 3, q)

	var buf bytes.Buffer
	require.NoError(t, EncodeFrame(frame, nil, &buf))
	b := buf.Bytes()

	require.Equal(t, byte(0x04), b[0])       // version, request
	require.Equal(t, byte(0x00), b[1])       // flags
	require.Equal(t, byte(0x07), b[4])       // opcode QUERY
	bodyLen := int32(b[5])<<24 | int32(b[6])<<16 | int32(b[7])<<8 | int32(b[8])
	require.Equal(t, int(bodyLen), len(b)-HeaderLength)

	body := b[HeaderLength:]
	strLen := int32(body[0])<<24 | int32(body[1])<<16 | int32(body[2])<<8 | int32(body[3])
	require.Equal(t, int32(len("SELECT * FROM t")), strLen)
	tail := body[4+strLen:]
	require.Equal(t, []byte{0x00, 0x01, 0x00}, tail) // consistency=ONE, flags=0
}
