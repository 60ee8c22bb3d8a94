package native

import (
	"fmt"
	"io"
)

// TypeID is the [short] tag identifying a CQL column type on the wire.
type TypeID uint16

const (
	TypeCustom    TypeID = 0x0000
	TypeASCII     TypeID = 0x0001
	TypeBigint    TypeID = 0x0002
	TypeBlob      TypeID = 0x0003
	TypeBoolean   TypeID = 0x0004
	TypeCounter   TypeID = 0x0005
	TypeDecimal   TypeID = 0x0006
	TypeDouble    TypeID = 0x0007
	TypeFloat     TypeID = 0x0008
	TypeInt       TypeID = 0x0009
	TypeTimestamp TypeID = 0x000B
	TypeUUID      TypeID = 0x000C
	TypeVarchar   TypeID = 0x000D
	TypeVarint    TypeID = 0x000E
	TypeTimeUUID  TypeID = 0x000F
	TypeInet      TypeID = 0x0010
	TypeDate      TypeID = 0x0011
	TypeTime      TypeID = 0x0012
	TypeSmallint  TypeID = 0x0013
	TypeTinyint   TypeID = 0x0014
	TypeDuration  TypeID = 0x0015
	TypeList      TypeID = 0x0020
	TypeMap       TypeID = 0x0021
	TypeSet       TypeID = 0x0022
	TypeUDT       TypeID = 0x0030
	TypeTuple     TypeID = 0x0031
)

var typeIDNames = map[TypeID]string{
	TypeCustom: "custom", TypeASCII: "ascii", TypeBigint: "bigint", TypeBlob: "blob",
	TypeBoolean: "boolean", TypeCounter: "counter", TypeDecimal: "decimal", TypeDouble: "double",
	TypeFloat: "float", TypeInt: "int", TypeTimestamp: "timestamp", TypeUUID: "uuid",
	TypeVarchar: "varchar", TypeVarint: "varint", TypeTimeUUID: "timeuuid", TypeInet: "inet",
	TypeDate: "date", TypeTime: "time", TypeSmallint: "smallint", TypeTinyint: "tinyint",
	TypeDuration: "duration", TypeList: "list", TypeMap: "map", TypeSet: "set",
	TypeUDT: "udt", TypeTuple: "tuple",
}

func (id TypeID) String() string {
	if name, ok := typeIDNames[id]; ok {
		return name
	}
	return fmt.Sprintf("unknown(0x%04x)", uint16(id))
}

// ColumnType is the recursive descriptor of a CQL column's declared type.
// Primitive types carry no children; list/set carry Elem; map carries Key
// and Elem; tuple and UDT carry FieldTypes/FieldNames.
type ColumnType struct {
	ID TypeID

	// Custom
	CustomClassName string

	// List, Set, Map
	Key  *ColumnType
	Elem *ColumnType

	// UDT
	Keyspace   string
	UDTName    string
	FieldNames []string

	// Tuple and UDT
	FieldTypes []*ColumnType
}

func (t *ColumnType) String() string {
	switch t.ID {
	case TypeCustom:
		return fmt.Sprintf("custom(%s)", t.CustomClassName)
	case TypeList:
		return fmt.Sprintf("list<%s>", t.Elem)
	case TypeSet:
		return fmt.Sprintf("set<%s>", t.Elem)
	case TypeMap:
		return fmt.Sprintf("map<%s, %s>", t.Key, t.Elem)
	case TypeTuple:
		return fmt.Sprintf("tuple%v", t.FieldTypes)
	case TypeUDT:
		return fmt.Sprintf("udt(%s.%s)", t.Keyspace, t.UDTName)
	default:
		return t.ID.String()
	}
}

// WriteColumnType serializes a type descriptor in the [option] wire format.
func WriteColumnType(w io.Writer, t *ColumnType) error {
	if err := WriteShort(w, uint16(t.ID)); err != nil {
		return err
	}
	switch t.ID {
	case TypeCustom:
		return WriteString(w, t.CustomClassName)
	case TypeList, TypeSet:
		return WriteColumnType(w, t.Elem)
	case TypeMap:
		if err := WriteColumnType(w, t.Key); err != nil {
			return err
		}
		return WriteColumnType(w, t.Elem)
	case TypeTuple:
		if err := WriteShort(w, uint16(len(t.FieldTypes))); err != nil {
			return err
		}
		for _, ft := range t.FieldTypes {
			if err := WriteColumnType(w, ft); err != nil {
				return err
			}
		}
		return nil
	case TypeUDT:
		if err := WriteString(w, t.Keyspace); err != nil {
			return err
		}
		if err := WriteString(w, t.UDTName); err != nil {
			return err
		}
		if err := WriteShort(w, uint16(len(t.FieldNames))); err != nil {
			return err
		}
		for i, name := range t.FieldNames {
			if err := WriteString(w, name); err != nil {
				return err
			}
			if err := WriteColumnType(w, t.FieldTypes[i]); err != nil {
				return err
			}
		}
		return nil
	default:
		return nil
	}
}

// ReadColumnType parses a single [option] type descriptor, recursing into
// any nested element/key/field types.
func ReadColumnType(r io.Reader) (*ColumnType, error) {
	id, err := ReadShort(r)
	if err != nil {
		return nil, err
	}
	t := &ColumnType{ID: TypeID(id)}
	switch t.ID {
	case TypeCustom:
		if t.CustomClassName, err = ReadString(r); err != nil {
			return nil, err
		}
	case TypeList, TypeSet:
		if t.Elem, err = ReadColumnType(r); err != nil {
			return nil, err
		}
	case TypeMap:
		if t.Key, err = ReadColumnType(r); err != nil {
			return nil, err
		}
		if t.Elem, err = ReadColumnType(r); err != nil {
			return nil, err
		}
	case TypeTuple:
		n, err := ReadShort(r)
		if err != nil {
			return nil, err
		}
		t.FieldTypes = make([]*ColumnType, n)
		for i := range t.FieldTypes {
			if t.FieldTypes[i], err = ReadColumnType(r); err != nil {
				return nil, err
			}
		}
	case TypeUDT:
		if t.Keyspace, err = ReadString(r); err != nil {
			return nil, err
		}
		if t.UDTName, err = ReadString(r); err != nil {
			return nil, err
		}
		n, err := ReadShort(r)
		if err != nil {
			return nil, err
		}
		t.FieldNames = make([]string, n)
		t.FieldTypes = make([]*ColumnType, n)
		for i := 0; i < int(n); i++ {
			if t.FieldNames[i], err = ReadString(r); err != nil {
				return nil, err
			}
			if t.FieldTypes[i], err = ReadColumnType(r); err != nil {
				return nil, err
			}
		}
	}
	return t, nil
}

// ColumnSpec describes one column of a RESULT metadata block: its name and
// declared type, plus (unless GlobalTableSpec applies) its keyspace/table.
type ColumnSpec struct {
	Keyspace string
	Table    string
	Name     string
	Type     *ColumnType
}

// ResultMetadataFlag is the bitmask in a ROWS/PREPARED metadata block.
type ResultMetadataFlag uint32

const (
	MetadataGlobalTableSpec ResultMetadataFlag = 0x0001
	MetadataHasMorePages    ResultMetadataFlag = 0x0002
	MetadataNoMetadata      ResultMetadataFlag = 0x0004
	MetadataMetadataChanged ResultMetadataFlag = 0x0008
)

func (f ResultMetadataFlag) Has(bit ResultMetadataFlag) bool { return f&bit != 0 }

// RowsMetadata is the metadata block shared by ROWS and PREPARED results.
type RowsMetadata struct {
	Flags           ResultMetadataFlag
	ColumnCount     int32
	PagingState     []byte
	NewMetadataID   []byte
	GlobalKeyspace  string
	GlobalTable     string
	Columns         []ColumnSpec
}

func writeRowsMetadata(w io.Writer, m *RowsMetadata) error {
	if err := WriteInt(w, int32(m.Flags)); err != nil {
		return err
	}
	if err := WriteInt(w, m.ColumnCount); err != nil {
		return err
	}
	if m.Flags.Has(MetadataHasMorePages) {
		if err := WriteBytes(w, m.PagingState); err != nil {
			return err
		}
	}
	if m.Flags.Has(MetadataMetadataChanged) {
		if err := WriteShortBytes(w, m.NewMetadataID); err != nil {
			return err
		}
	}
	if m.Flags.Has(MetadataNoMetadata) {
		return nil
	}
	hasGlobalSpec := m.Flags.Has(MetadataGlobalTableSpec)
	if hasGlobalSpec {
		if err := WriteString(w, m.GlobalKeyspace); err != nil {
			return err
		}
		if err := WriteString(w, m.GlobalTable); err != nil {
			return err
		}
	}
	for _, col := range m.Columns {
		if !hasGlobalSpec {
			if err := WriteString(w, col.Keyspace); err != nil {
				return err
			}
			if err := WriteString(w, col.Table); err != nil {
				return err
			}
		}
		if err := WriteString(w, col.Name); err != nil {
			return err
		}
		if err := WriteColumnType(w, col.Type); err != nil {
			return err
		}
	}
	return nil
}

func readRowsMetadata(r io.Reader) (*RowsMetadata, error) {
	flags, err := ReadInt(r)
	if err != nil {
		return nil, err
	}
	m := &RowsMetadata{Flags: ResultMetadataFlag(flags)}
	if m.ColumnCount, err = ReadInt(r); err != nil {
		return nil, err
	}
	if m.Flags.Has(MetadataHasMorePages) {
		if m.PagingState, err = ReadBytes(r); err != nil {
			return nil, err
		}
	}
	if m.Flags.Has(MetadataMetadataChanged) {
		if m.NewMetadataID, err = ReadShortBytes(r); err != nil {
			return nil, err
		}
	}
	if m.Flags.Has(MetadataNoMetadata) {
		return m, nil
	}
	hasGlobalSpec := m.Flags.Has(MetadataGlobalTableSpec)
	if hasGlobalSpec {
		if m.GlobalKeyspace, err = ReadString(r); err != nil {
			return nil, err
		}
		if m.GlobalTable, err = ReadString(r); err != nil {
			return nil, err
		}
	}
	m.Columns = make([]ColumnSpec, m.ColumnCount)
	for i := range m.Columns {
		col := &m.Columns[i]
		if hasGlobalSpec {
			col.Keyspace, col.Table = m.GlobalKeyspace, m.GlobalTable
		} else {
			if col.Keyspace, err = ReadString(r); err != nil {
				return nil, err
			}
			if col.Table, err = ReadString(r); err != nil {
				return nil, err
			}
		}
		if col.Name, err = ReadString(r); err != nil {
			return nil, err
		}
		if col.Type, err = ReadColumnType(r); err != nil {
			return nil, err
		}
	}
	return m, nil
}
