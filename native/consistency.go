package native

import "fmt"

// Consistency is the wire-level consistency level short.
type Consistency uint16

const (
	ConsistencyAny         Consistency = 0x00
	ConsistencyOne         Consistency = 0x01
	ConsistencyTwo         Consistency = 0x02
	ConsistencyThree       Consistency = 0x03
	ConsistencyQuorum      Consistency = 0x04
	ConsistencyAll         Consistency = 0x05
	ConsistencyLocalQuorum Consistency = 0x06
	ConsistencyEachQuorum  Consistency = 0x07
	ConsistencySerial      Consistency = 0x08
	ConsistencyLocalSerial Consistency = 0x09
	ConsistencyLocalOne    Consistency = 0x0A
)

var consistencyNames = map[Consistency]string{
	ConsistencyAny:         "ANY",
	ConsistencyOne:         "ONE",
	ConsistencyTwo:         "TWO",
	ConsistencyThree:       "THREE",
	ConsistencyQuorum:      "QUORUM",
	ConsistencyAll:         "ALL",
	ConsistencyLocalQuorum: "LOCAL_QUORUM",
	ConsistencyEachQuorum:  "EACH_QUORUM",
	ConsistencySerial:      "SERIAL",
	ConsistencyLocalSerial: "LOCAL_SERIAL",
	ConsistencyLocalOne:    "LOCAL_ONE",
}

func (c Consistency) String() string {
	if name, ok := consistencyNames[c]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(0x%02x)", uint16(c))
}

// QueryFlag is the byte bitmask carried by QUERY, EXECUTE, and BATCH bodies.
type QueryFlag uint8

const (
	QueryFlagValues            QueryFlag = 0x01
	QueryFlagSkipMetadata       QueryFlag = 0x02
	QueryFlagPageSize           QueryFlag = 0x04
	QueryFlagWithPagingState    QueryFlag = 0x08
	QueryFlagWithSerialConsistency QueryFlag = 0x10
	QueryFlagWithDefaultTimestamp  QueryFlag = 0x20
	// QueryFlagWithNamesForValues is part of the wire format but must never
	// be set by this driver: the server-side handling of named values is a
	// documented upstream defect.
	QueryFlagWithNamesForValues QueryFlag = 0x40
)

func (f QueryFlag) Has(bit QueryFlag) bool { return f&bit != 0 }

// ResultKind is the tag discriminating a RESULT body.
type ResultKind int32

const (
	ResultKindVoid        ResultKind = 1
	ResultKindRows        ResultKind = 2
	ResultKindSetKeyspace ResultKind = 3
	ResultKindPrepared    ResultKind = 4
	ResultKindSchemaChange ResultKind = 5
)

func (k ResultKind) String() string {
	switch k {
	case ResultKindVoid:
		return "VOID"
	case ResultKindRows:
		return "ROWS"
	case ResultKindSetKeyspace:
		return "SET_KEYSPACE"
	case ResultKindPrepared:
		return "PREPARED"
	case ResultKindSchemaChange:
		return "SCHEMA_CHANGE"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int32(k))
	}
}

// BatchType distinguishes logged, unlogged, and counter batches.
type BatchType uint8

const (
	BatchTypeLogged   BatchType = 0x00
	BatchTypeUnlogged BatchType = 0x01
	BatchTypeCounter  BatchType = 0x02
)

// ErrorCode is the 4-byte code prefixing an ERROR body.
type ErrorCode int32

const (
	ErrorCodeServerError     ErrorCode = 0x0000
	ErrorCodeProtocolError   ErrorCode = 0x000A
	ErrorCodeAuthError       ErrorCode = 0x0100
	ErrorCodeUnavailable     ErrorCode = 0x1000
	ErrorCodeOverloaded      ErrorCode = 0x1001
	ErrorCodeIsBootstrapping ErrorCode = 0x1002
	ErrorCodeTruncateError   ErrorCode = 0x1003
	ErrorCodeWriteTimeout    ErrorCode = 0x1100
	ErrorCodeReadTimeout     ErrorCode = 0x1200
	ErrorCodeReadFailure     ErrorCode = 0x1300
	ErrorCodeFunctionFailure ErrorCode = 0x1400
	ErrorCodeWriteFailure    ErrorCode = 0x1500
	ErrorCodeSyntaxError     ErrorCode = 0x2000
	ErrorCodeUnauthorized    ErrorCode = 0x2100
	ErrorCodeInvalid         ErrorCode = 0x2200
	ErrorCodeConfigError     ErrorCode = 0x2300
	ErrorCodeAlreadyExists   ErrorCode = 0x2400
	ErrorCodeUnprepared      ErrorCode = 0x2500
)

// IsFatalError reports whether this error code should cause the connection
// carrying it to be closed rather than merely surfaced to the caller.
// Protocol-level errors (malformed request framing) are fatal; ordinary
// query-execution errors are not.
func (c ErrorCode) IsFatalError() bool {
	switch c {
	case ErrorCodeProtocolError, ErrorCodeServerError:
		return true
	default:
		return false
	}
}
