package native

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestColumnTypeRoundTripPrimitive(t *testing.T) {
	var buf bytes.Buffer
	in := &ColumnType{ID: TypeInt}
	require.NoError(t, WriteColumnType(&buf, in))
	out, err := ReadColumnType(&buf)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestColumnTypeRoundTripList(t *testing.T) {
	var buf bytes.Buffer
	in := &ColumnType{ID: TypeList, Elem: &ColumnType{ID: TypeVarchar}}
	require.NoError(t, WriteColumnType(&buf, in))
	out, err := ReadColumnType(&buf)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestColumnTypeRoundTripUDT(t *testing.T) {
	var buf bytes.Buffer
	in := &ColumnType{
		ID:         TypeUDT,
		Keyspace:   "ks",
		UDTName:    "address",
		FieldNames: []string{"street", "zip"},
		FieldTypes: []*ColumnType{{ID: TypeVarchar}, {ID: TypeInt}},
	}
	require.NoError(t, WriteColumnType(&buf, in))
	out, err := ReadColumnType(&buf)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestDecodeValueList(t *testing.T) {
	elemType := &ColumnType{ID: TypeInt}
	var inner bytes.Buffer
	require.NoError(t, WriteInt(&inner, 2)) // count
	a, err := EncodeValue(elemType, int32(1))
	require.NoError(t, err)
	require.NoError(t, WriteBytes(&inner, a))
	b, err := EncodeValue(elemType, int32(2))
	require.NoError(t, err)
	require.NoError(t, WriteBytes(&inner, b))

	listType := &ColumnType{ID: TypeList, Elem: elemType}
	got, err := DecodeValue(listType, inner.Bytes())
	require.NoError(t, err)
	require.Equal(t, []interface{}{int32(1), int32(2)}, got)
}

func TestDecodeTupleTrailingNull(t *testing.T) {
	fieldTypes := []*ColumnType{{ID: TypeInt}, {ID: TypeVarchar}}
	var buf bytes.Buffer
	b, err := EncodeValue(fieldTypes[0], int32(42))
	require.NoError(t, err)
	require.NoError(t, WriteBytes(&buf, b))
	// second field omitted entirely: schema-evolution trailing-null case

	got, err := decodeTuple(fieldTypes, buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, int32(42), got[0])
	require.Nil(t, got[1])
}

func TestDecodeDuration(t *testing.T) {
	// months=1, days=2, nanoseconds=0 encoded as zigzag vints.
	raw := []byte{0x02, 0x04, 0x00}
	d, err := decodeDuration(raw)
	require.NoError(t, err)
	require.Equal(t, Duration{Months: 1, Days: 2, Nanoseconds: 0}, d)
}
