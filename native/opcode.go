package native

import "fmt"

// Version is the CQL native protocol version. The wire byte is the version
// number itself for a request, with the high bit set for a response
// (0x03/0x83 for v3, 0x04/0x84 for v4, 0x05/0x85 for v5).
type Version uint8

const (
	ProtocolVersion3 Version = 0x03
	ProtocolVersion4 Version = 0x04
	ProtocolVersion5 Version = 0x05
)

func (v Version) String() string {
	switch v {
	case ProtocolVersion3:
		return "v3"
	case ProtocolVersion4:
		return "v4"
	case ProtocolVersion5:
		return "v5"
	default:
		return fmt.Sprintf("unknown(0x%02x)", uint8(v))
	}
}

// SupportsV5Framing reports whether this version carries a result-metadata
// id on prepared statements (EXECUTE).
func (v Version) SupportsV5Framing() bool {
	return v == ProtocolVersion5
}

const versionResponseBit = 0x80

// versionByte returns the wire byte for this version in the given direction.
func (v Version) versionByte(request bool) byte {
	if request {
		return byte(v)
	}
	return byte(v) | versionResponseBit
}

// DecodeVersionByte splits a header's first byte into its version and
// request/response direction. An unrecognized version is a decode failure.
func DecodeVersionByte(b byte) (version Version, request bool, err error) {
	request = b&versionResponseBit == 0
	raw := b &^ versionResponseBit
	switch Version(raw) {
	case ProtocolVersion3, ProtocolVersion4, ProtocolVersion5:
		return Version(raw), request, nil
	default:
		return 0, false, decodeErr("version", fmt.Errorf("unsupported protocol version byte 0x%02x", b))
	}
}

// OpCode is the message-kind field of the frame header.
type OpCode uint8

const (
	OpError         OpCode = 0x00
	OpStartup       OpCode = 0x01
	OpReady         OpCode = 0x02
	OpAuthenticate  OpCode = 0x03
	OpOptions       OpCode = 0x05
	OpSupported     OpCode = 0x06
	OpQuery         OpCode = 0x07
	OpResult        OpCode = 0x08
	OpPrepare       OpCode = 0x09
	OpExecute       OpCode = 0x0A
	OpRegister      OpCode = 0x0B
	OpEvent         OpCode = 0x0C
	OpBatch         OpCode = 0x0D
	OpAuthChallenge OpCode = 0x0E
	OpAuthResponse  OpCode = 0x0F
	OpAuthSuccess   OpCode = 0x10
)

var opCodeNames = map[OpCode]string{
	OpError:         "ERROR",
	OpStartup:       "STARTUP",
	OpReady:         "READY",
	OpAuthenticate:  "AUTHENTICATE",
	OpOptions:       "OPTIONS",
	OpSupported:     "SUPPORTED",
	OpQuery:         "QUERY",
	OpResult:        "RESULT",
	OpPrepare:       "PREPARE",
	OpExecute:       "EXECUTE",
	OpRegister:      "REGISTER",
	OpEvent:         "EVENT",
	OpBatch:         "BATCH",
	OpAuthChallenge: "AUTH_CHALLENGE",
	OpAuthResponse:  "AUTH_RESPONSE",
	OpAuthSuccess:   "AUTH_SUCCESS",
}

func (op OpCode) String() string {
	if name, ok := opCodeNames[op]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(0x%02x)", uint8(op))
}

// ValidOpCode reports whether b names one of the sixteen known opcodes.
// Any other wire byte is a decode failure, never silently accepted.
func ValidOpCode(b byte) (OpCode, error) {
	op := OpCode(b)
	if _, ok := opCodeNames[op]; !ok {
		return 0, decodeErr("opcode", fmt.Errorf("unknown opcode 0x%02x", b))
	}
	return op, nil
}

// HeaderFlag is the frame header's flag bitmask.
type HeaderFlag uint8

const (
	FlagCompression  HeaderFlag = 0x01
	FlagTracing      HeaderFlag = 0x02
	FlagCustomPayload HeaderFlag = 0x04
	FlagWarning      HeaderFlag = 0x08
)

func (f HeaderFlag) Has(bit HeaderFlag) bool { return f&bit != 0 }
