package native

import (
	"fmt"
	"io"
)

// BatchFlags is the flag byte trailing a BATCH body's statement list,
// reusing the same bit positions as QueryFlag for the fields BATCH accepts
// (serial consistency and default timestamp; BATCH never paginates).
type BatchFlags = QueryFlag

// BatchStatement is one entry of a BATCH: either a bare query string or a
// prepared-statement id, plus its bound values.
type BatchStatement struct {
	ID     []byte // nil: Query is used instead
	Query  string
	Values [][]byte
}

func (s BatchStatement) isPrepared() bool { return s.ID != nil }

// Batch is the BATCH request body: a batch type, its statements, and the
// same consistency/serial-consistency/timestamp parameters as QUERY.
type Batch struct {
	Type              BatchType
	Statements        []BatchStatement
	Consistency       Consistency
	SerialConsistency *Consistency
	Timestamp         *int64
}

func (*Batch) OpCode() OpCode { return OpBatch }

func encodeBatch(w io.Writer, b *Batch, _ Version) error {
	if _, err := w.Write([]byte{byte(b.Type)}); err != nil {
		return err
	}
	if err := WriteShort(w, uint16(len(b.Statements))); err != nil {
		return err
	}
	for _, stmt := range b.Statements {
		if stmt.isPrepared() {
			if _, err := w.Write([]byte{0x01}); err != nil {
				return err
			}
			if err := WriteShortBytes(w, stmt.ID); err != nil {
				return err
			}
		} else {
			if _, err := w.Write([]byte{0x00}); err != nil {
				return err
			}
			if err := WriteLongString(w, stmt.Query); err != nil {
				return err
			}
		}
		if err := WriteShort(w, uint16(len(stmt.Values))); err != nil {
			return err
		}
		for _, v := range stmt.Values {
			if err := WriteBytes(w, v); err != nil {
				return err
			}
		}
	}
	if err := WriteShort(w, uint16(b.Consistency)); err != nil {
		return err
	}
	var flags BatchFlags
	if b.SerialConsistency != nil {
		flags |= QueryFlagWithSerialConsistency
	}
	if b.Timestamp != nil {
		flags |= QueryFlagWithDefaultTimestamp
	}
	if _, err := w.Write([]byte{byte(flags)}); err != nil {
		return err
	}
	if flags.Has(QueryFlagWithSerialConsistency) {
		if err := WriteShort(w, uint16(*b.SerialConsistency)); err != nil {
			return err
		}
	}
	if flags.Has(QueryFlagWithDefaultTimestamp) {
		if err := WriteLong(w, *b.Timestamp); err != nil {
			return err
		}
	}
	return nil
}

func decodeBatch(r io.Reader, _ Version) (Body, error) {
	typeByte, err := readFull(r, 1)
	if err != nil {
		return nil, decodeErr("batch type", err)
	}
	b := &Batch{Type: BatchType(typeByte[0])}
	n, err := ReadShort(r)
	if err != nil {
		return nil, err
	}
	b.Statements = make([]BatchStatement, n)
	for i := range b.Statements {
		kindByte, err := readFull(r, 1)
		if err != nil {
			return nil, decodeErr("batch statement kind", err)
		}
		stmt := &b.Statements[i]
		switch kindByte[0] {
		case 0x00:
			if stmt.Query, err = ReadLongString(r); err != nil {
				return nil, err
			}
		case 0x01:
			if stmt.ID, err = ReadShortBytes(r); err != nil {
				return nil, err
			}
		default:
			return nil, decodeErr("batch statement kind", fmt.Errorf("unknown kind byte 0x%02x", kindByte[0]))
		}
		valCount, err := ReadShort(r)
		if err != nil {
			return nil, err
		}
		stmt.Values = make([][]byte, valCount)
		for v := range stmt.Values {
			if stmt.Values[v], err = ReadBytes(r); err != nil {
				return nil, err
			}
		}
	}
	cons, err := ReadShort(r)
	if err != nil {
		return nil, err
	}
	b.Consistency = Consistency(cons)
	flagByte, err := readFull(r, 1)
	if err != nil {
		return nil, decodeErr("batch flags", err)
	}
	flags := BatchFlags(flagByte[0])
	if flags.Has(QueryFlagWithSerialConsistency) {
		v, err := ReadShort(r)
		if err != nil {
			return nil, err
		}
		sc := Consistency(v)
		b.SerialConsistency = &sc
	}
	if flags.Has(QueryFlagWithDefaultTimestamp) {
		v, err := ReadLong(r)
		if err != nil {
			return nil, err
		}
		b.Timestamp = &v
	}
	return b, nil
}
