package native

import (
	"fmt"
	"io"
	"net"
)

// EventKind names the REGISTER-able push-event categories.
type EventKind string

const (
	EventTopologyChange EventKind = "TOPOLOGY_CHANGE"
	EventStatusChange   EventKind = "STATUS_CHANGE"
	EventSchemaChange   EventKind = "SCHEMA_CHANGE"
)

// TopologyChangeEvent announces a node joining or leaving the ring.
type TopologyChangeEvent struct {
	Change  string // NEW_NODE, REMOVED_NODE
	Address net.IP
	Port    int32
}

func (*TopologyChangeEvent) OpCode() OpCode { return OpEvent }

// StatusChangeEvent announces a node going up or down.
type StatusChangeEvent struct {
	Change  string // UP, DOWN
	Address net.IP
	Port    int32
}

func (*StatusChangeEvent) OpCode() OpCode { return OpEvent }

// SchemaChangeEvent announces a DDL change; the fields populated depend on
// Target (KEYSPACE/TABLE/TYPE/FUNCTION/AGGREGATE).
type SchemaChangeEvent struct {
	Change    string // CREATED, UPDATED, DROPPED
	Target    string // KEYSPACE, TABLE, TYPE, FUNCTION, AGGREGATE
	Keyspace  string
	Name      string   // table/type name, when Target != KEYSPACE
	ArgTypes  []string // function/aggregate signature, when Target is FUNCTION/AGGREGATE
}

func (*SchemaChangeEvent) OpCode() OpCode { return OpEvent }

func encodeEvent(w io.Writer, body Body) error {
	switch ev := body.(type) {
	case *TopologyChangeEvent:
		if err := WriteString(w, string(EventTopologyChange)); err != nil {
			return err
		}
		if err := WriteString(w, ev.Change); err != nil {
			return err
		}
		return WriteInet(w, ev.Address, ev.Port)
	case *StatusChangeEvent:
		if err := WriteString(w, string(EventStatusChange)); err != nil {
			return err
		}
		if err := WriteString(w, ev.Change); err != nil {
			return err
		}
		return WriteInet(w, ev.Address, ev.Port)
	case *SchemaChangeEvent:
		if err := WriteString(w, string(EventSchemaChange)); err != nil {
			return err
		}
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
	default:
		return fmt.Errorf("native: no encoder for event type %T", body)
	}
}

func decodeEvent(r io.Reader) (Body, error) {
	kind, err := ReadString(r)
	if err != nil {
		return nil, err
	}
	switch EventKind(kind) {
	case EventTopologyChange:
		ev := &TopologyChangeEvent{}
		if ev.Change, err = ReadString(r); err != nil {
			return nil, err
		}
		if ev.Address, ev.Port, err = ReadInet(r); err != nil {
			return nil, err
		}
		return ev, nil
	case EventStatusChange:
		ev := &StatusChangeEvent{}
		if ev.Change, err = ReadString(r); err != nil {
			return nil, err
		}
		if ev.Address, ev.Port, err = ReadInet(r); err != nil {
			return nil, err
		}
		return ev, nil
	case EventSchemaChange:
		ev := &SchemaChangeEvent{}
		if ev.Change, err = ReadString(r); err != nil {
			return nil, err
		}
		if ev.Target, err = ReadString(r); err != nil {
			return nil, err
		}
		switch ev.Target {
		case "KEYSPACE":
			if ev.Keyspace, err = ReadString(r); err != nil {
				return nil, err
			}
		case "TABLE", "TYPE":
			if ev.Keyspace, err = ReadString(r); err != nil {
				return nil, err
			}
			if ev.Name, err = ReadString(r); err != nil {
				return nil, err
			}
		case "FUNCTION", "AGGREGATE":
			if ev.Keyspace, err = ReadString(r); err != nil {
				return nil, err
			}
			if ev.Name, err = ReadString(r); err != nil {
				return nil, err
			}
			if ev.ArgTypes, err = ReadStringList(r); err != nil {
				return nil, err
			}
		default:
			return nil, decodeErr("schema change event", fmt.Errorf("unknown target %q", ev.Target))
		}
		return ev, nil
	default:
		return nil, decodeErr("event", fmt.Errorf("unknown event kind %q", kind))
	}
}
