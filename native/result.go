package native

import (
	"fmt"
	"io"
)

// VoidResult is the RESULT body returned by a statement with no return value.
type VoidResult struct{}

func (*VoidResult) OpCode() OpCode { return OpResult }

// Row is one decoded row: raw column bytes in metadata column order. Use
// DecodeValue with the corresponding ColumnType to obtain a Go value; a nil
// entry is a CQL null.
type Row [][]byte

// RowsResult is the RESULT body for a SELECT: metadata plus the raw row data.
type RowsResult struct {
	Metadata *RowsMetadata
	Rows     []Row
}

func (*RowsResult) OpCode() OpCode { return OpResult }

// SetKeyspaceResult is the RESULT body for a USE statement.
type SetKeyspaceResult struct {
	Keyspace string
}

func (*SetKeyspaceResult) OpCode() OpCode { return OpResult }

// PreparedResult is the RESULT body for a PREPARE request.
type PreparedResult struct {
	ID               []byte
	ResultMetadataID []byte // protocol v5+
	VariablesMetadata *RowsMetadata
	ResultMetadata    *RowsMetadata
}

func (*PreparedResult) OpCode() OpCode { return OpResult }

// SchemaChangeResult is the RESULT body announcing a DDL side effect of the
// statement that produced it; shape matches SchemaChangeEvent.
type SchemaChangeResult struct {
	Change   string
	Target   string
	Keyspace string
	Name     string
	ArgTypes []string
}

func (*SchemaChangeResult) OpCode() OpCode { return OpResult }

func encodeResult(w io.Writer, body Body, version Version) error {
	switch res := body.(type) {
	case *VoidResult:
		return WriteInt(w, int32(ResultKindVoid))
	case *RowsResult:
		if err := WriteInt(w, int32(ResultKindRows)); err != nil {
			return err
		}
		if err := writeRowsMetadata(w, res.Metadata); err != nil {
			return err
		}
		if err := WriteInt(w, int32(len(res.Rows))); err != nil {
			return err
		}
		for _, row := range res.Rows {
			for _, col := range row {
				if err := WriteBytes(w, col); err != nil {
					return err
				}
			}
		}
		return nil
	case *SetKeyspaceResult:
		if err := WriteInt(w, int32(ResultKindSetKeyspace)); err != nil {
			return err
		}
		return WriteString(w, res.Keyspace)
	case *PreparedResult:
		if err := WriteInt(w, int32(ResultKindPrepared)); err != nil {
			return err
		}
		if err := WriteShortBytes(w, res.ID); err != nil {
			return err
		}
		if version.SupportsV5Framing() {
			if err := WriteShortBytes(w, res.ResultMetadataID); err != nil {
				return err
			}
		}
		if err := writeRowsMetadata(w, res.VariablesMetadata); err != nil {
			return err
		}
		return writeRowsMetadata(w, res.ResultMetadata)
	case *SchemaChangeResult:
		if err := WriteInt(w, int32(ResultKindSchemaChange)); err != nil {
			return err
		}
		ev := &SchemaChangeEvent{Change: res.Change, Target: res.Target, Keyspace: res.Keyspace, Name: res.Name, ArgTypes: res.ArgTypes}
		return encodeSchemaChangeFields(w, ev)
	default:
		return fmt.Errorf("native: no encoder for result type %T", body)
	}
}

// encodeSchemaChangeFields writes the change/target/keyspace/name/argTypes
// fields of a SCHEMA_CHANGE result body, after its result kind. The layout
// matches a SCHEMA_CHANGE event body minus the event's leading kind string.
func encodeSchemaChangeFields(w io.Writer, ev *SchemaChangeEvent) error {
	if err := WriteString(w, ev.Change); err != nil {
		return err
	}
	if err := WriteString(w, ev.Target); err != nil {
		return err
	}
	switch ev.Target {
	case "KEYSPACE":
		return WriteString(w, ev.Keyspace)
	case "TABLE", "TYPE":
		if err := WriteString(w, ev.Keyspace); err != nil {
			return err
		}
		return WriteString(w, ev.Name)
	case "FUNCTION", "AGGREGATE":
		if err := WriteString(w, ev.Keyspace); err != nil {
			return err
		}
		if err := WriteString(w, ev.Name); err != nil {
			return err
		}
		return WriteStringList(w, ev.ArgTypes)
	default:
		return fmt.Errorf("native: unknown schema change target %q", ev.Target)
	}
}

func decodeResult(r io.Reader, version Version) (Body, error) {
	kind, err := ReadInt(r)
	if err != nil {
		return nil, err
	}
	switch ResultKind(kind) {
	case ResultKindVoid:
		return &VoidResult{}, nil
	case ResultKindRows:
		meta, err := readRowsMetadata(r)
		if err != nil {
			return nil, err
		}
		count, err := ReadInt(r)
		if err != nil {
			return nil, err
		}
		rows := make([]Row, count)
		for i := range rows {
			row := make(Row, meta.ColumnCount)
			for c := range row {
				if row[c], err = ReadBytes(r); err != nil {
					return nil, err
				}
			}
			rows[i] = row
		}
		return &RowsResult{Metadata: meta, Rows: rows}, nil
	case ResultKindSetKeyspace:
		ks, err := ReadString(r)
		return &SetKeyspaceResult{Keyspace: ks}, err
	case ResultKindPrepared:
		res := &PreparedResult{}
		if res.ID, err = ReadShortBytes(r); err != nil {
			return nil, err
		}
		if version.SupportsV5Framing() {
			if res.ResultMetadataID, err = ReadShortBytes(r); err != nil {
				return nil, err
			}
		}
		if res.VariablesMetadata, err = readRowsMetadata(r); err != nil {
			return nil, err
		}
		if res.ResultMetadata, err = readRowsMetadata(r); err != nil {
			return nil, err
		}
		return res, nil
	case ResultKindSchemaChange:
		res := &SchemaChangeResult{}
		if res.Change, err = ReadString(r); err != nil {
			return nil, err
		}
		if res.Target, err = ReadString(r); err != nil {
			return nil, err
		}
		switch res.Target {
		case "KEYSPACE":
			if res.Keyspace, err = ReadString(r); err != nil {
				return nil, err
			}
		case "TABLE", "TYPE":
			if res.Keyspace, err = ReadString(r); err != nil {
				return nil, err
			}
			if res.Name, err = ReadString(r); err != nil {
				return nil, err
			}
		case "FUNCTION", "AGGREGATE":
			if res.Keyspace, err = ReadString(r); err != nil {
				return nil, err
			}
			if res.Name, err = ReadString(r); err != nil {
				return nil, err
			}
			if res.ArgTypes, err = ReadStringList(r); err != nil {
				return nil, err
			}
		default:
			return nil, decodeErr("schema change result", fmt.Errorf("unknown target %q", res.Target))
		}
		return res, nil
	default:
		return nil, decodeErr("result", fmt.Errorf("unknown result kind %d", kind))
	}
}
