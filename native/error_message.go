package native

import "io"

// ErrorMessage is the ERROR body: a code, a human-readable message, and
// whatever extra fields that code mandates.
type ErrorMessage struct {
	Code    ErrorCode
	Message string

	// Unavailable
	Consistency Consistency
	Required    int32
	Alive       int32

	// WriteTimeout / ReadTimeout / WriteFailure / ReadFailure
	Received  int32
	BlockFor  int32
	WriteType string
	DataPresent bool
	NumFailures int32

	// FunctionFailure
	Keyspace string
	Function string
	ArgTypes []string

	// AlreadyExists
	Table string

	// Unprepared
	UnpreparedID []byte
}

func (*ErrorMessage) OpCode() OpCode { return OpError }

func encodeError(w io.Writer, e *ErrorMessage) error {
	if err := WriteInt(w, int32(e.Code)); err != nil {
		return err
	}
	if err := WriteString(w, e.Message); err != nil {
		return err
	}
	switch e.Code {
	case ErrorCodeUnavailable:
		if err := WriteShort(w, uint16(e.Consistency)); err != nil {
			return err
		}
		if err := WriteInt(w, e.Required); err != nil {
			return err
		}
		return WriteInt(w, e.Alive)
	case ErrorCodeWriteTimeout:
		if err := WriteShort(w, uint16(e.Consistency)); err != nil {
			return err
		}
		if err := WriteInt(w, e.Received); err != nil {
			return err
		}
		if err := WriteInt(w, e.BlockFor); err != nil {
			return err
		}
		return WriteString(w, e.WriteType)
	case ErrorCodeReadTimeout:
		if err := WriteShort(w, uint16(e.Consistency)); err != nil {
			return err
		}
		if err := WriteInt(w, e.Received); err != nil {
			return err
		}
		if err := WriteInt(w, e.BlockFor); err != nil {
			return err
		}
		return writeBool(w, e.DataPresent)
	case ErrorCodeWriteFailure:
		if err := WriteShort(w, uint16(e.Consistency)); err != nil {
			return err
		}
		if err := WriteInt(w, e.Received); err != nil {
			return err
		}
		if err := WriteInt(w, e.BlockFor); err != nil {
			return err
		}
		if err := WriteInt(w, e.NumFailures); err != nil {
			return err
		}
		return WriteString(w, e.WriteType)
	case ErrorCodeReadFailure:
		if err := WriteShort(w, uint16(e.Consistency)); err != nil {
			return err
		}
		if err := WriteInt(w, e.Received); err != nil {
			return err
		}
		if err := WriteInt(w, e.BlockFor); err != nil {
			return err
		}
		if err := WriteInt(w, e.NumFailures); err != nil {
			return err
		}
		return writeBool(w, e.DataPresent)
	case ErrorCodeFunctionFailure:
		if err := WriteString(w, e.Keyspace); err != nil {
			return err
		}
		if err := WriteString(w, e.Function); err != nil {
			return err
		}
		return WriteStringList(w, e.ArgTypes)
	case ErrorCodeAlreadyExists:
		if err := WriteString(w, e.Keyspace); err != nil {
			return err
		}
		return WriteString(w, e.Table)
	case ErrorCodeUnprepared:
		return WriteShortBytes(w, e.UnpreparedID)
	default:
		return nil
	}
}

func decodeError(r io.Reader) (Body, error) {
	code, err := ReadInt(r)
	if err != nil {
		return nil, err
	}
	msg, err := ReadString(r)
	if err != nil {
		return nil, err
	}
	e := &ErrorMessage{Code: ErrorCode(code), Message: msg}
	switch e.Code {
	case ErrorCodeUnavailable:
		cons, err := ReadShort(r)
		if err != nil {
			return nil, err
		}
		e.Consistency = Consistency(cons)
		if e.Required, err = ReadInt(r); err != nil {
			return nil, err
		}
		if e.Alive, err = ReadInt(r); err != nil {
			return nil, err
		}
	case ErrorCodeWriteTimeout:
		cons, err := ReadShort(r)
		if err != nil {
			return nil, err
		}
		e.Consistency = Consistency(cons)
		if e.Received, err = ReadInt(r); err != nil {
			return nil, err
		}
		if e.BlockFor, err = ReadInt(r); err != nil {
			return nil, err
		}
		if e.WriteType, err = ReadString(r); err != nil {
			return nil, err
		}
	case ErrorCodeReadTimeout:
		cons, err := ReadShort(r)
		if err != nil {
			return nil, err
		}
		e.Consistency = Consistency(cons)
		if e.Received, err = ReadInt(r); err != nil {
			return nil, err
		}
		if e.BlockFor, err = ReadInt(r); err != nil {
			return nil, err
		}
		if e.DataPresent, err = readBool(r); err != nil {
			return nil, err
		}
	case ErrorCodeWriteFailure:
		cons, err := ReadShort(r)
		if err != nil {
			return nil, err
		}
		e.Consistency = Consistency(cons)
		if e.Received, err = ReadInt(r); err != nil {
			return nil, err
		}
		if e.BlockFor, err = ReadInt(r); err != nil {
			return nil, err
		}
		if e.NumFailures, err = ReadInt(r); err != nil {
			return nil, err
		}
		if e.WriteType, err = ReadString(r); err != nil {
			return nil, err
		}
	case ErrorCodeReadFailure:
		cons, err := ReadShort(r)
		if err != nil {
			return nil, err
		}
		e.Consistency = Consistency(cons)
		if e.Received, err = ReadInt(r); err != nil {
			return nil, err
		}
		if e.BlockFor, err = ReadInt(r); err != nil {
			return nil, err
		}
		if e.NumFailures, err = ReadInt(r); err != nil {
			return nil, err
		}
		if e.DataPresent, err = readBool(r); err != nil {
			return nil, err
		}
	case ErrorCodeFunctionFailure:
		if e.Keyspace, err = ReadString(r); err != nil {
			return nil, err
		}
		if e.Function, err = ReadString(r); err != nil {
			return nil, err
		}
		if e.ArgTypes, err = ReadStringList(r); err != nil {
			return nil, err
		}
	case ErrorCodeAlreadyExists:
		if e.Keyspace, err = ReadString(r); err != nil {
			return nil, err
		}
		if e.Table, err = ReadString(r); err != nil {
			return nil, err
		}
	case ErrorCodeUnprepared:
		if e.UnpreparedID, err = ReadShortBytes(r); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func writeBool(w io.Writer, b bool) error {
	if b {
		_, err := w.Write([]byte{0x01})
		return err
	}
	_, err := w.Write([]byte{0x00})
	return err
}

func readBool(r io.Reader) (bool, error) {
	b, err := readFull(r, 1)
	if err != nil {
		return false, decodeErr("bool", err)
	}
	return b[0] != 0, nil
}
