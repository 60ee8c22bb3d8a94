package native

import (
	"bytes"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
)

// DecodeValue converts a raw column payload to a Go value according to its
// declared type. A nil raw slice (CQL null) always decodes to a nil
// interface regardless of type.
//
// Primitive mappings: ascii/varchar/text -> string, bigint/counter -> int64,
// blob -> []byte, boolean -> bool, decimal -> Decimal, double -> float64,
// float -> float32, int -> int32, timestamp -> time.Time, uuid/timeuuid ->
// uuid.UUID, varint -> *big.Int, inet -> net.IP, date -> time.Time (UTC
// midnight), time -> time.Duration (nanoseconds since midnight), smallint ->
// int16, tinyint -> int8, duration -> Duration.
//
// Collections recurse: list/set -> []interface{}, map -> map[interface{}]interface{},
// tuple -> []interface{} (positional, missing trailing elements are nil per
// schema evolution), UDT -> map[string]interface{} keyed by field name (same
// trailing-null rule).
func DecodeValue(t *ColumnType, raw []byte) (interface{}, error) {
	if raw == nil {
		return nil, nil
	}
	switch t.ID {
	case TypeASCII, TypeVarchar:
		return validUTF8("column "+t.String(), raw)
	case TypeBigint, TypeCounter:
		if len(raw) != 8 {
			return nil, decodeErr(t.String(), fmt.Errorf("expected 8 bytes, got %d", len(raw)))
		}
		v, err := ReadLong(bytes.NewReader(raw))
		return v, err
	case TypeBlob, TypeCustom:
		return raw, nil
	case TypeBoolean:
		if len(raw) != 1 {
			return nil, decodeErr("boolean", fmt.Errorf("expected 1 byte, got %d", len(raw)))
		}
		return raw[0] != 0, nil
	case TypeDecimal:
		return DecodeDecimal(raw)
	case TypeDouble:
		if len(raw) != 8 {
			return nil, decodeErr("double", fmt.Errorf("expected 8 bytes, got %d", len(raw)))
		}
		v, err := ReadDouble(bytes.NewReader(raw))
		return v, err
	case TypeFloat:
		if len(raw) != 4 {
			return nil, decodeErr("float", fmt.Errorf("expected 4 bytes, got %d", len(raw)))
		}
		v, err := ReadFloat(bytes.NewReader(raw))
		return v, err
	case TypeInt:
		if len(raw) != 4 {
			return nil, decodeErr("int", fmt.Errorf("expected 4 bytes, got %d", len(raw)))
		}
		v, err := ReadInt(bytes.NewReader(raw))
		return v, err
	case TypeTimestamp:
		if len(raw) != 8 {
			return nil, decodeErr("timestamp", fmt.Errorf("expected 8 bytes, got %d", len(raw)))
		}
		ms, err := ReadLong(bytes.NewReader(raw))
		if err != nil {
			return nil, err
		}
		return time.UnixMilli(ms).UTC(), nil
	case TypeUUID, TypeTimeUUID:
		id, err := uuid.FromBytes(raw)
		if err != nil {
			return nil, decodeErr(t.String(), err)
		}
		return id, nil
	case TypeVarint:
		return DecodeVarint(raw), nil
	case TypeInet:
		return ReadInetAddr(raw)
	case TypeDate:
		if len(raw) != 4 {
			return nil, decodeErr("date", fmt.Errorf("expected 4 bytes, got %d", len(raw)))
		}
		days, err := ReadInt(bytes.NewReader(raw))
		if err != nil {
			return nil, err
		}
		epochDay := int64(uint32(days)) - (1 << 31)
		return time.Unix(epochDay*86400, 0).UTC(), nil
	case TypeTime:
		if len(raw) != 8 {
			return nil, decodeErr("time", fmt.Errorf("expected 8 bytes, got %d", len(raw)))
		}
		ns, err := ReadLong(bytes.NewReader(raw))
		return time.Duration(ns), err
	case TypeSmallint:
		if len(raw) != 2 {
			return nil, decodeErr("smallint", fmt.Errorf("expected 2 bytes, got %d", len(raw)))
		}
		v, err := ReadShort(bytes.NewReader(raw))
		return int16(v), err
	case TypeTinyint:
		if len(raw) != 1 {
			return nil, decodeErr("tinyint", fmt.Errorf("expected 1 byte, got %d", len(raw)))
		}
		return int8(raw[0]), nil
	case TypeDuration:
		return decodeDuration(raw)
	case TypeList, TypeSet:
		return decodeCollection(t.Elem, raw)
	case TypeMap:
		return decodeMap(t.Key, t.Elem, raw)
	case TypeTuple:
		return decodeTuple(t.FieldTypes, raw)
	case TypeUDT:
		return decodeUDT(t.FieldNames, t.FieldTypes, raw)
	default:
		return nil, decodeErr("column", fmt.Errorf("unsupported type %s", t))
	}
}

// Duration is CQL's month/day/nanosecond duration, each component a signed
// (zigzag) vint on the wire.
type Duration struct {
	Months      int32
	Days        int32
	Nanoseconds int64
}

// decodeDuration parses CQL's three concatenated signed vints (months, days,
// nanoseconds). Unlike the [varint] type used elsewhere, a vint is
// self-delimiting: the number of leading one-bits in its first byte gives
// the count of following extra bytes, so three can be read back-to-back with
// no outer length prefix.
func decodeDuration(raw []byte) (Duration, error) {
	r := bytes.NewReader(raw)
	months, err := readSignedVInt(r)
	if err != nil {
		return Duration{}, err
	}
	days, err := readSignedVInt(r)
	if err != nil {
		return Duration{}, err
	}
	nanos, err := readSignedVInt(r)
	if err != nil {
		return Duration{}, err
	}
	return Duration{Months: int32(months), Days: int32(days), Nanoseconds: nanos}, nil
}

func readUnsignedVInt(r *bytes.Reader) (uint64, error) {
	first, err := r.ReadByte()
	if err != nil {
		return 0, decodeErr("vint", err)
	}
	extraBytes := 0
	for mask := byte(0x80); first&mask != 0 && extraBytes < 8; mask >>= 1 {
		extraBytes++
	}
	value := uint64(first) & (uint64(0xFF) >> uint(extraBytes))
	for i := 0; i < extraBytes; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, decodeErr("vint", err)
		}
		value = value<<8 | uint64(b)
	}
	return value, nil
}

func readSignedVInt(r *bytes.Reader) (int64, error) {
	u, err := readUnsignedVInt(r)
	if err != nil {
		return 0, err
	}
	return int64(u>>1) ^ -int64(u&1), nil
}

// decodeCollection parses a [int] count followed by that many [bytes]
// elements (list/set wire format shared with DecodeValue's recursive Elem).
func decodeCollection(elemType *ColumnType, raw []byte) ([]interface{}, error) {
	r := bytes.NewReader(raw)
	count, err := ReadInt(r)
	if err != nil {
		return nil, err
	}
	out := make([]interface{}, count)
	for i := range out {
		eb, err := ReadBytes(r)
		if err != nil {
			return nil, err
		}
		if out[i], err = DecodeValue(elemType, eb); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func decodeMap(keyType, valType *ColumnType, raw []byte) (map[interface{}]interface{}, error) {
	r := bytes.NewReader(raw)
	count, err := ReadInt(r)
	if err != nil {
		return nil, err
	}
	out := make(map[interface{}]interface{}, count)
	for i := int32(0); i < count; i++ {
		kb, err := ReadBytes(r)
		if err != nil {
			return nil, err
		}
		k, err := DecodeValue(keyType, kb)
		if err != nil {
			return nil, err
		}
		vb, err := ReadBytes(r)
		if err != nil {
			return nil, err
		}
		v, err := DecodeValue(valType, vb)
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

// decodeTuple parses positional [bytes] fields with no count prefix: the
// number of fields is fixed by the declared type. A schema change that adds
// fields after a tuple column was created can leave the wire payload shorter
// than fieldTypes; missing trailing fields decode as nil.
func decodeTuple(fieldTypes []*ColumnType, raw []byte) ([]interface{}, error) {
	r := bytes.NewReader(raw)
	out := make([]interface{}, len(fieldTypes))
	for i, ft := range fieldTypes {
		if r.Len() == 0 {
			continue
		}
		fb, err := ReadBytes(r)
		if err != nil {
			return nil, err
		}
		if out[i], err = DecodeValue(ft, fb); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// decodeUDT mirrors decodeTuple but keys the result by field name.
func decodeUDT(fieldNames []string, fieldTypes []*ColumnType, raw []byte) (map[string]interface{}, error) {
	r := bytes.NewReader(raw)
	out := make(map[string]interface{}, len(fieldNames))
	for i, name := range fieldNames {
		if r.Len() == 0 {
			out[name] = nil
			continue
		}
		fb, err := ReadBytes(r)
		if err != nil {
			return nil, err
		}
		v, err := DecodeValue(fieldTypes[i], fb)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}

// EncodeValue serializes a Go value back to its raw column payload for the
// given declared type, producing the raw bytes that QueryParams.Values and
// BatchStatement.Values carry. It is the inverse of DecodeValue for the
// primitive types handled below only; decimal, inet, date, time, duration,
// list, set, map, tuple and UDT return an error.
func EncodeValue(t *ColumnType, v interface{}) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	var buf bytes.Buffer
	switch t.ID {
	case TypeASCII, TypeVarchar:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("native: expected string for %s, got %T", t, v)
		}
		buf.WriteString(s)
	case TypeBigint, TypeCounter:
		n, ok := v.(int64)
		if !ok {
			return nil, fmt.Errorf("native: expected int64 for %s, got %T", t, v)
		}
		if err := WriteLong(&buf, n); err != nil {
			return nil, err
		}
	case TypeBlob, TypeCustom:
		b, ok := v.([]byte)
		if !ok {
			return nil, fmt.Errorf("native: expected []byte for %s, got %T", t, v)
		}
		buf.Write(b)
	case TypeBoolean:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("native: expected bool for %s, got %T", t, v)
		}
		if err := writeBool(&buf, b); err != nil {
			return nil, err
		}
	case TypeDouble:
		f, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("native: expected float64 for %s, got %T", t, v)
		}
		if err := WriteDouble(&buf, f); err != nil {
			return nil, err
		}
	case TypeFloat:
		f, ok := v.(float32)
		if !ok {
			return nil, fmt.Errorf("native: expected float32 for %s, got %T", t, v)
		}
		if err := WriteFloat(&buf, f); err != nil {
			return nil, err
		}
	case TypeInt:
		n, ok := v.(int32)
		if !ok {
			return nil, fmt.Errorf("native: expected int32 for %s, got %T", t, v)
		}
		if err := WriteInt(&buf, n); err != nil {
			return nil, err
		}
	case TypeTimestamp:
		tm, ok := v.(time.Time)
		if !ok {
			return nil, fmt.Errorf("native: expected time.Time for %s, got %T", t, v)
		}
		if err := WriteLong(&buf, tm.UnixMilli()); err != nil {
			return nil, err
		}
	case TypeUUID, TypeTimeUUID:
		id, ok := v.(uuid.UUID)
		if !ok {
			return nil, fmt.Errorf("native: expected uuid.UUID for %s, got %T", t, v)
		}
		if err := WriteUUID(&buf, id); err != nil {
			return nil, err
		}
	case TypeVarint:
		n, ok := v.(*big.Int)
		if !ok {
			return nil, fmt.Errorf("native: expected *big.Int for %s, got %T", t, v)
		}
		buf.Write(EncodeVarint(n))
	case TypeSmallint:
		n, ok := v.(int16)
		if !ok {
			return nil, fmt.Errorf("native: expected int16 for %s, got %T", t, v)
		}
		if err := WriteShort(&buf, uint16(n)); err != nil {
			return nil, err
		}
	case TypeTinyint:
		n, ok := v.(int8)
		if !ok {
			return nil, fmt.Errorf("native: expected int8 for %s, got %T", t, v)
		}
		buf.WriteByte(byte(n))
	default:
		return nil, fmt.Errorf("native: EncodeValue not implemented for type %s", t)
	}
	return buf.Bytes(), nil
}
