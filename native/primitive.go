// Package native implements the CQL native protocol wire format: the
// primitive codec, the frame header and body codecs, and the CQL column
// type decoder. It has no knowledge of sockets, pools, or clusters — see
// package proxycore for the runtime that drives connections using it.
package native

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"net"
	"unicode/utf8"

	"github.com/google/uuid"
)

// ErrDecode wraps any failure to parse bytes off the wire. It is always
// fatal to the enclosing frame: the connection that produced it must be
// closed, since framing can no longer be trusted.
type ErrDecode struct {
	Where string
	Err   error
}

func (e *ErrDecode) Error() string {
	return fmt.Sprintf("native: decode %s: %v", e.Where, e.Err)
}

func (e *ErrDecode) Unwrap() error { return e.Err }

func decodeErr(where string, err error) error {
	if err == nil {
		return nil
	}
	return &ErrDecode{Where: where, Err: err}
}

func readFull(r io.Reader, n int) ([]byte, error) {
	if n == 0 {
		return []byte{}, nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// WriteShort writes a 2-byte big-endian unsigned short.
func WriteShort(w io.Writer, v uint16) error {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	_, err := w.Write(b[:])
	return err
}

// ReadShort reads a 2-byte big-endian unsigned short.
func ReadShort(r io.Reader) (uint16, error) {
	b, err := readFull(r, 2)
	if err != nil {
		return 0, decodeErr("short", err)
	}
	return binary.BigEndian.Uint16(b), nil
}

// WriteInt writes a 4-byte big-endian signed int.
func WriteInt(w io.Writer, v int32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	_, err := w.Write(b[:])
	return err
}

// ReadInt reads a 4-byte big-endian signed int.
func ReadInt(r io.Reader) (int32, error) {
	b, err := readFull(r, 4)
	if err != nil {
		return 0, decodeErr("int", err)
	}
	return int32(binary.BigEndian.Uint32(b)), nil
}

// WriteLong writes an 8-byte big-endian signed long.
func WriteLong(w io.Writer, v int64) error {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	_, err := w.Write(b[:])
	return err
}

// ReadLong reads an 8-byte big-endian signed long.
func ReadLong(r io.Reader) (int64, error) {
	b, err := readFull(r, 8)
	if err != nil {
		return 0, decodeErr("long", err)
	}
	return int64(binary.BigEndian.Uint64(b)), nil
}

// WriteFloat writes a 4-byte big-endian IEEE-754 float.
func WriteFloat(w io.Writer, v float32) error {
	return WriteInt(w, int32(math.Float32bits(v)))
}

// ReadFloat reads a 4-byte big-endian IEEE-754 float.
func ReadFloat(r io.Reader) (float32, error) {
	v, err := ReadInt(r)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(uint32(v)), nil
}

// WriteDouble writes an 8-byte big-endian IEEE-754 double.
func WriteDouble(w io.Writer, v float64) error {
	return WriteLong(w, int64(math.Float64bits(v)))
}

// ReadDouble reads an 8-byte big-endian IEEE-754 double.
func ReadDouble(r io.Reader) (float64, error) {
	v, err := ReadLong(r)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(uint64(v)), nil
}

// WriteString writes a [short] length followed by UTF-8 bytes.
func WriteString(w io.Writer, s string) error {
	if len(s) > math.MaxUint16 {
		return fmt.Errorf("native: string too long: %d bytes", len(s))
	}
	if err := WriteShort(w, uint16(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

// ReadString reads a [short] length-prefixed UTF-8 string.
func ReadString(r io.Reader) (string, error) {
	n, err := ReadShort(r)
	if err != nil {
		return "", err
	}
	b, err := readFull(r, int(n))
	if err != nil {
		return "", decodeErr("string", err)
	}
	return validUTF8("string", b)
}

// WriteLongString writes an [int] length followed by UTF-8 bytes.
func WriteLongString(w io.Writer, s string) error {
	if err := WriteInt(w, int32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

// ReadLongString reads an [int] length-prefixed UTF-8 string.
func ReadLongString(r io.Reader) (string, error) {
	n, err := ReadInt(r)
	if err != nil {
		return "", err
	}
	if n < 0 {
		return "", decodeErr("long string", fmt.Errorf("negative length %d", n))
	}
	b, err := readFull(r, int(n))
	if err != nil {
		return "", decodeErr("long string", err)
	}
	return validUTF8("long string", b)
}

// WriteStringList writes a [short] count followed by that many [string]s.
func WriteStringList(w io.Writer, list []string) error {
	if err := WriteShort(w, uint16(len(list))); err != nil {
		return err
	}
	for _, s := range list {
		if err := WriteString(w, s); err != nil {
			return err
		}
	}
	return nil
}

// ReadStringList reads a [short] count followed by that many [string]s.
func ReadStringList(r io.Reader) ([]string, error) {
	n, err := ReadShort(r)
	if err != nil {
		return nil, err
	}
	list := make([]string, n)
	for i := range list {
		if list[i], err = ReadString(r); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// WriteBytes writes an [int] length followed by raw bytes. A nil slice is
// encoded as length -1 (null); a non-nil empty slice is encoded as length 0
// and no body — the two are distinct on the wire.
func WriteBytes(w io.Writer, b []byte) error {
	if b == nil {
		return WriteInt(w, -1)
	}
	if err := WriteInt(w, int32(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

// ReadBytes reads an [int] length-prefixed byte slice. Returns nil for a
// null value (length < 0), and a non-nil empty slice for an empty value.
func ReadBytes(r io.Reader) ([]byte, error) {
	n, err := ReadInt(r)
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, nil
	}
	return readFull(r, int(n))
}

// WriteShortBytes writes a [short] length followed by raw bytes.
func WriteShortBytes(w io.Writer, b []byte) error {
	if err := WriteShort(w, uint16(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

// ReadShortBytes reads a [short] length-prefixed byte slice.
func ReadShortBytes(r io.Reader) ([]byte, error) {
	n, err := ReadShort(r)
	if err != nil {
		return nil, err
	}
	return readFull(r, int(n))
}

// WriteInet writes a 1-byte address length, the raw address (4 or 16
// bytes), then a 4-byte port.
func WriteInet(w io.Writer, ip net.IP, port int32) error {
	addr := ip.To4()
	if addr == nil {
		addr = ip.To16()
	}
	if addr == nil {
		return fmt.Errorf("native: invalid IP address %v", ip)
	}
	if _, err := w.Write([]byte{byte(len(addr))}); err != nil {
		return err
	}
	if _, err := w.Write(addr); err != nil {
		return err
	}
	return WriteInt(w, port)
}

// ReadInet reads an address-length byte, the raw address, then a port.
func ReadInet(r io.Reader) (net.IP, int32, error) {
	lenBuf, err := readFull(r, 1)
	if err != nil {
		return nil, 0, decodeErr("inet", err)
	}
	n := int(lenBuf[0])
	if n != 4 && n != 16 {
		return nil, 0, decodeErr("inet", fmt.Errorf("invalid address length %d", n))
	}
	addr, err := readFull(r, n)
	if err != nil {
		return nil, 0, decodeErr("inet", err)
	}
	port, err := ReadInt(r)
	if err != nil {
		return nil, 0, err
	}
	return net.IP(addr), port, nil
}

// ReadInetAddr reads a raw address (4 or 16 bytes, no port) as used inside
// column payloads of CQL type inet.
func ReadInetAddr(raw []byte) (net.IP, error) {
	switch len(raw) {
	case 4, 16:
		return net.IP(raw), nil
	default:
		return nil, decodeErr("inet column", fmt.Errorf("invalid address length %d", len(raw)))
	}
}

// WriteUUID writes a 16-byte UUID.
func WriteUUID(w io.Writer, id uuid.UUID) error {
	_, err := w.Write(id[:])
	return err
}

// ReadUUID reads a 16-byte UUID.
func ReadUUID(r io.Reader) (uuid.UUID, error) {
	b, err := readFull(r, 16)
	if err != nil {
		return uuid.UUID{}, decodeErr("uuid", err)
	}
	var id uuid.UUID
	copy(id[:], b)
	return id, nil
}

// WriteStringMap writes a [short] count followed by that many [string][string] pairs.
func WriteStringMap(w io.Writer, m map[string]string) error {
	if err := WriteShort(w, uint16(len(m))); err != nil {
		return err
	}
	for k, v := range m {
		if err := WriteString(w, k); err != nil {
			return err
		}
		if err := WriteString(w, v); err != nil {
			return err
		}
	}
	return nil
}

// ReadStringMap reads a [short] count followed by that many [string][string] pairs.
func ReadStringMap(r io.Reader) (map[string]string, error) {
	n, err := ReadShort(r)
	if err != nil {
		return nil, err
	}
	m := make(map[string]string, n)
	for i := uint16(0); i < n; i++ {
		k, err := ReadString(r)
		if err != nil {
			return nil, err
		}
		v, err := ReadString(r)
		if err != nil {
			return nil, err
		}
		m[k] = v
	}
	return m, nil
}

// WriteStringMultimap writes a [short] count followed by that many
// [string][string list] pairs, used by SUPPORTED.
func WriteStringMultimap(w io.Writer, m map[string][]string) error {
	if err := WriteShort(w, uint16(len(m))); err != nil {
		return err
	}
	for k, v := range m {
		if err := WriteString(w, k); err != nil {
			return err
		}
		if err := WriteStringList(w, v); err != nil {
			return err
		}
	}
	return nil
}

// ReadStringMultimap reads a [short] count followed by that many
// [string][string list] pairs.
func ReadStringMultimap(r io.Reader) (map[string][]string, error) {
	n, err := ReadShort(r)
	if err != nil {
		return nil, err
	}
	m := make(map[string][]string, n)
	for i := uint16(0); i < n; i++ {
		k, err := ReadString(r)
		if err != nil {
			return nil, err
		}
		v, err := ReadStringList(r)
		if err != nil {
			return nil, err
		}
		m[k] = v
	}
	return m, nil
}

// WriteBytesMap writes a [short] count followed by that many [string][bytes]
// pairs, used for the custom payload frame prefix.
func WriteBytesMap(w io.Writer, m map[string][]byte) error {
	if err := WriteShort(w, uint16(len(m))); err != nil {
		return err
	}
	for k, v := range m {
		if err := WriteString(w, k); err != nil {
			return err
		}
		if err := WriteBytes(w, v); err != nil {
			return err
		}
	}
	return nil
}

// ReadBytesMap reads a [short] count followed by that many [string][bytes] pairs.
func ReadBytesMap(r io.Reader) (map[string][]byte, error) {
	n, err := ReadShort(r)
	if err != nil {
		return nil, err
	}
	m := make(map[string][]byte, n)
	for i := uint16(0); i < n; i++ {
		k, err := ReadString(r)
		if err != nil {
			return nil, err
		}
		v, err := ReadBytes(r)
		if err != nil {
			return nil, err
		}
		m[k] = v
	}
	return m, nil
}

func validUTF8(where string, b []byte) (string, error) {
	if !utf8.Valid(b) {
		return "", decodeErr(where, fmt.Errorf("invalid UTF-8"))
	}
	return string(b), nil
}
