package native

import (
	"bytes"
	"fmt"
	"io"

	"github.com/google/uuid"
)

const HeaderLength = 9

// Header is the fixed 9-byte frame header: version(1), flags(1), stream(2,
// signed), opcode(1), body length(4).
type Header struct {
	Version    Version
	Request    bool
	Flags      HeaderFlag
	StreamID   int16
	OpCode     OpCode
	BodyLength int32
}

// EncodeHeader writes the 9-byte header.
func EncodeHeader(h *Header, w io.Writer) error {
	if _, err := w.Write([]byte{h.Version.versionByte(h.Request), byte(h.Flags)}); err != nil {
		return err
	}
	if err := WriteShort(w, uint16(h.StreamID)); err != nil {
		return err
	}
	if _, err := w.Write([]byte{byte(h.OpCode)}); err != nil {
		return err
	}
	return WriteInt(w, h.BodyLength)
}

// DecodeHeader reads the 9-byte header. Any undersized input, unrecognized
// version or opcode, or negative body length is a decode failure.
func DecodeHeader(r io.Reader) (*Header, error) {
	buf := make([]byte, HeaderLength)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, decodeErr("header", err)
	}
	version, request, err := DecodeVersionByte(buf[0])
	if err != nil {
		return nil, err
	}
	streamID := int16(uint16(buf[2])<<8 | uint16(buf[3]))
	op, err := ValidOpCode(buf[4])
	if err != nil {
		return nil, err
	}
	bodyLength := int32(uint32(buf[5])<<24 | uint32(buf[6])<<16 | uint32(buf[7])<<8 | uint32(buf[8]))
	if bodyLength < 0 {
		return nil, decodeErr("header", fmt.Errorf("negative body length %d", bodyLength))
	}
	return &Header{
		Version:    version,
		Request:    request,
		Flags:      HeaderFlag(buf[1]),
		StreamID:   streamID,
		OpCode:     op,
		BodyLength: bodyLength,
	}, nil
}

// Body is any CQL message that can appear after a frame header.
type Body interface {
	OpCode() OpCode
}

// Frame is the unit of protocol exchange: a header plus its decoded
// metadata prefix (tracing id, warnings, custom payload) and opcode-specific
// body.
type Frame struct {
	Header        *Header
	TracingID     *uuid.UUID
	Warnings      []string
	CustomPayload map[string][]byte
	Body          Body
}

// NewRequestFrame builds a request frame for the given body, leaving
// tracing/warning/payload unset.
func NewRequestFrame(version Version, streamID int16, body Body) *Frame {
	return &Frame{
		Header: &Header{
			Version:  version,
			Request:  true,
			StreamID: streamID,
			OpCode:   body.OpCode(),
		},
		Body: body,
	}
}

// EncodeFrame serializes header and body, applying compression to the body
// when compressor is non-nil and the caller has set FlagCompression.
func EncodeFrame(f *Frame, compressor Compressor, w io.Writer) error {
	var body bytes.Buffer
	if f.Header.Flags.Has(FlagTracing) {
		if f.TracingID == nil {
			return fmt.Errorf("native: tracing flag set without a tracing id")
		}
		if err := WriteUUID(&body, *f.TracingID); err != nil {
			return err
		}
	}
	if f.Header.Flags.Has(FlagWarning) {
		if err := WriteStringList(&body, f.Warnings); err != nil {
			return err
		}
	}
	if f.Header.Flags.Has(FlagCustomPayload) {
		if err := WriteBytesMap(&body, f.CustomPayload); err != nil {
			return err
		}
	}
	if err := EncodeBody(f.Body, f.Header.Version, &body); err != nil {
		return err
	}

	payload := body.Bytes()
	if f.Header.Flags.Has(FlagCompression) {
		if compressor == nil {
			return fmt.Errorf("native: compression flag set without a compressor")
		}
		compressed, err := compressor.Compress(payload)
		if err != nil {
			return err
		}
		payload = compressed
	}

	h := *f.Header
	h.BodyLength = int32(len(payload))
	if err := EncodeHeader(&h, w); err != nil {
		return err
	}
	if len(payload) == 0 {
		return nil
	}
	_, err := w.Write(payload)
	return err
}

// DecodeFrame reads one full frame (header + body) from r, decompressing
// and parsing the metadata prefix and opcode body.
func DecodeFrame(r io.Reader, compressor Compressor) (*Frame, error) {
	header, err := DecodeHeader(r)
	if err != nil {
		return nil, err
	}
	raw, err := readFull(r, int(header.BodyLength))
	if err != nil {
		return nil, decodeErr("body", err)
	}
	if header.Flags.Has(FlagCompression) {
		if compressor == nil {
			return nil, decodeErr("body", fmt.Errorf("compressed frame received with no compressor configured"))
		}
		if raw, err = compressor.Decompress(raw); err != nil {
			return nil, err
		}
	}

	body := bytes.NewReader(raw)
	f := &Frame{Header: header}

	if header.StreamID < 0 && header.OpCode != OpEvent {
		return nil, decodeErr("frame", fmt.Errorf("negative stream id %d carries non-event opcode %v", header.StreamID, header.OpCode))
	}

	if header.Flags.Has(FlagTracing) {
		id, err := ReadUUID(body)
		if err != nil {
			return nil, err
		}
		f.TracingID = &id
	}
	if header.Flags.Has(FlagWarning) {
		if f.Warnings, err = ReadStringList(body); err != nil {
			return nil, err
		}
	}
	if header.Flags.Has(FlagCustomPayload) {
		if f.CustomPayload, err = ReadBytesMap(body); err != nil {
			return nil, err
		}
	}

	f.Body, err = DecodeBody(header.OpCode, header.Version, body)
	if err != nil {
		return nil, err
	}
	return f, nil
}
