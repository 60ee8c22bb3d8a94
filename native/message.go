package native

import (
	"fmt"
	"io"
)

// EncodeBody writes the opcode-specific payload of body (everything after
// the tracing/warning/custom-payload prefix, if any).
func EncodeBody(body Body, version Version, w io.Writer) error {
	switch msg := body.(type) {
	case *Startup:
		return WriteStringMap(w, msg.Options)
	case *Ready:
		return nil
	case *Authenticate:
		return WriteString(w, msg.Authenticator)
	case *OptionsMessage:
		return nil
	case *Supported:
		return WriteStringMultimap(w, msg.Options)
	case *Register:
		return WriteStringList(w, msg.EventTypes)
	case *AuthChallenge:
		return WriteBytes(w, msg.Token)
	case *AuthResponse:
		return WriteBytes(w, msg.Token)
	case *AuthSuccess:
		return WriteBytes(w, msg.Token)
	case *Query:
		return encodeQuery(w, msg, version)
	case *Execute:
		return encodeExecute(w, msg, version)
	case *Prepare:
		return WriteLongString(w, msg.Query)
	case *Batch:
		return encodeBatch(w, msg, version)
	case *VoidResult, *RowsResult, *SetKeyspaceResult, *PreparedResult, *SchemaChangeResult:
		return encodeResult(w, msg, version)
	case *TopologyChangeEvent, *StatusChangeEvent, *SchemaChangeEvent:
		return encodeEvent(w, msg)
	case *ErrorMessage:
		return encodeError(w, msg)
	default:
		return fmt.Errorf("native: no encoder registered for body type %T", body)
	}
}

// DecodeBody reads the opcode-specific payload for op from r. An
// unrecognized opcode is rejected earlier, by ValidOpCode during header
// decode, so this dispatch only needs to cover the sixteen known opcodes.
func DecodeBody(op OpCode, version Version, r io.Reader) (Body, error) {
	switch op {
	case OpError:
		return decodeError(r)
	case OpStartup:
		opts, err := ReadStringMap(r)
		return &Startup{Options: opts}, err
	case OpReady:
		return &Ready{}, nil
	case OpAuthenticate:
		name, err := ReadString(r)
		return &Authenticate{Authenticator: name}, err
	case OpOptions:
		return &OptionsMessage{}, nil
	case OpSupported:
		opts, err := ReadStringMultimap(r)
		return &Supported{Options: opts}, err
	case OpQuery:
		return decodeQuery(r)
	case OpResult:
		return decodeResult(r, version)
	case OpPrepare:
		q, err := ReadLongString(r)
		return &Prepare{Query: q}, err
	case OpExecute:
		return decodeExecute(r, version)
	case OpRegister:
		types, err := ReadStringList(r)
		return &Register{EventTypes: types}, err
	case OpEvent:
		return decodeEvent(r)
	case OpBatch:
		return decodeBatch(r, version)
	case OpAuthChallenge:
		t, err := ReadBytes(r)
		return &AuthChallenge{Token: t}, err
	case OpAuthResponse:
		t, err := ReadBytes(r)
		return &AuthResponse{Token: t}, err
	case OpAuthSuccess:
		t, err := ReadBytes(r)
		return &AuthSuccess{Token: t}, err
	default:
		return nil, decodeErr("body", fmt.Errorf("unhandled opcode %v", op))
	}
}

// Startup is the STARTUP request body: a string->string options map. Only
// CQL_VERSION is required; COMPRESSION is optional.
type Startup struct {
	Options map[string]string
}

func (*Startup) OpCode() OpCode { return OpStartup }

// NewStartup builds a Startup with the given CQL version and no compression.
func NewStartup(cqlVersion string) *Startup {
	return &Startup{Options: map[string]string{"CQL_VERSION": cqlVersion}}
}

// SetCompression records the negotiated compression algorithm in the
// startup options.
func (s *Startup) SetCompression(c Compression) {
	if c == CompressionNone {
		delete(s.Options, "COMPRESSION")
		return
	}
	s.Options["COMPRESSION"] = string(c)
}

// Ready is the server's affirmative response to STARTUP when no
// authentication is required.
type Ready struct{}

func (*Ready) OpCode() OpCode { return OpReady }

// Authenticate is the server's response to STARTUP demanding SASL auth.
type Authenticate struct {
	Authenticator string
}

func (*Authenticate) OpCode() OpCode { return OpAuthenticate }

// OptionsMessage is the empty-bodied OPTIONS request.
type OptionsMessage struct{}

func (*OptionsMessage) OpCode() OpCode { return OpOptions }

// Supported is the server's response to OPTIONS: a string->string-list
// multimap of supported values per option name (e.g. CQL_VERSION, COMPRESSION).
type Supported struct {
	Options map[string][]string
}

func (*Supported) OpCode() OpCode { return OpSupported }

// Register asks the server to start pushing EVENT frames of the given kinds.
type Register struct {
	EventTypes []string
}

func (*Register) OpCode() OpCode { return OpRegister }

// AuthChallenge/AuthResponse/AuthSuccess carry the SASL-like handshake bytes.
type AuthChallenge struct{ Token []byte }
type AuthResponse struct{ Token []byte }
type AuthSuccess struct{ Token []byte }

func (*AuthChallenge) OpCode() OpCode { return OpAuthChallenge }
func (*AuthResponse) OpCode() OpCode  { return OpAuthResponse }
func (*AuthSuccess) OpCode() OpCode   { return OpAuthSuccess }
