// Package wire implements the length-prefixed dictionary framing spoken by devrepl clients.
//
// A frame is a flat map of strings encoded as
//
//	d <len>:<key> <len>:<value> ... e
//
// with no whitespace, byte-length prefixes and keys in ascending byte order.
package wire

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/uber/devrepl/src/devrepl/internal/errors"
)

// DefaultMaxElementBytes bounds the length prefix of a single key or value.
const DefaultMaxElementBytes = 16 << 20

const _maxPrefixDigits = 19

// Message is a single decoded frame.
type Message map[string]string

// Clone returns a shallow copy of the message.
func (m Message) Clone() Message {
	out := make(Message, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Decoder reads frames from a stream.
type Decoder struct {
	r        *bufio.Reader
	maxBytes int64
	offset   int64
}

// NewDecoder returns a Decoder reading from r. A non-positive maxBytes selects DefaultMaxElementBytes.
func NewDecoder(r io.Reader, maxBytes int64) *Decoder {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxElementBytes
	}
	return &Decoder{r: bufio.NewReader(r), maxBytes: maxBytes}
}

// Decode reads the next frame. It returns io.EOF only when the stream ends cleanly between frames.
func (d *Decoder) Decode() (Message, error) {
	b, err := d.readByte()
	if err != nil {
		return nil, err
	}
	if b != 'd' {
		return nil, d.frameErr("expected 'd' at start of frame, found %q", b)
	}

	msg := Message{}
	for {
		b, err := d.readByte()
		if err != nil {
			return nil, d.truncated(err)
		}
		if b == 'e' {
			return msg, nil
		}

		key, err := d.readString(b)
		if err != nil {
			return nil, err
		}

		b, err = d.readByte()
		if err != nil {
			return nil, d.truncated(err)
		}
		var value string
		switch {
		case b == 'i':
			value, err = d.readInteger()
		case b >= '0' && b <= '9':
			value, err = d.readString(b)
		default:
			err = d.frameErr("unsupported value type %q for key %q", b, key)
		}
		if err != nil {
			return nil, err
		}
		msg[key] = value
	}
}

func (d *Decoder) readByte() (byte, error) {
	b, err := d.r.ReadByte()
	if err == nil {
		d.offset++
	}
	return b, err
}

// readString reads "<len>:<bytes>" where first is the already consumed leading digit.
func (d *Decoder) readString(first byte) (string, error) {
	if first < '0' || first > '9' {
		return "", d.frameErr("expected length prefix, found %q", first)
	}

	n := int64(first - '0')
	digits := 1
	for {
		b, err := d.readByte()
		if err != nil {
			return "", d.truncated(err)
		}
		if b == ':' {
			break
		}
		if b < '0' || b > '9' {
			return "", d.frameErr("non-numeric length prefix byte %q", b)
		}
		digits++
		if digits > _maxPrefixDigits {
			return "", d.frameErr("length prefix too long")
		}
		n = n*10 + int64(b-'0')
	}
	if n > d.maxBytes {
		return "", &errors.FrameSizeLimitError{Size: n, Limit: d.maxBytes}
	}

	buf := make([]byte, n)
	read, err := io.ReadFull(d.r, buf)
	d.offset += int64(read)
	if err != nil {
		return "", d.truncated(err)
	}
	return string(buf), nil
}

func (d *Decoder) readInteger() (string, error) {
	var sb bytes.Buffer
	for {
		b, err := d.readByte()
		if err != nil {
			return "", d.truncated(err)
		}
		if b == 'e' {
			break
		}
		if (b < '0' || b > '9') && !(b == '-' && sb.Len() == 0) {
			return "", d.frameErr("non-numeric integer byte %q", b)
		}
		sb.WriteByte(b)
	}
	if _, err := strconv.ParseInt(sb.String(), 10, 64); err != nil {
		return "", d.frameErr("invalid integer %q", sb.String())
	}
	return sb.String(), nil
}

func (d *Decoder) truncated(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return &errors.FrameError{Offset: d.offset, Reason: "stream ended inside frame"}
	}
	return err
}

func (d *Decoder) frameErr(format string, args ...any) error {
	return &errors.FrameError{Offset: d.offset, Reason: fmt.Sprintf(format, args...)}
}

// Encoder writes frames to a stream.
type Encoder struct {
	w *bufio.Writer
}

// NewEncoder returns an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: bufio.NewWriter(w)}
}

// Encode writes one frame and flushes it.
func (e *Encoder) Encode(msg Message) error {
	if _, err := e.w.Write(Marshal(msg)); err != nil {
		return err
	}
	return e.w.Flush()
}

// Marshal returns the frame encoding of msg with keys in ascending order.
func Marshal(msg Message) []byte {
	keys := make([]string, 0, len(msg))
	for k := range msg {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('d')
	for _, k := range keys {
		writeString(&buf, k)
		writeString(&buf, msg[k])
	}
	buf.WriteByte('e')
	return buf.Bytes()
}

// Unmarshal decodes exactly one frame from data.
func Unmarshal(data []byte) (Message, error) {
	d := NewDecoder(bytes.NewReader(data), int64(len(data))+1)
	msg, err := d.Decode()
	if err == io.EOF {
		return nil, &errors.FrameError{Reason: "empty input"}
	}
	return msg, err
}

func writeString(buf *bytes.Buffer, s string) {
	buf.WriteString(strconv.Itoa(len(s)))
	buf.WriteByte(':')
	buf.WriteString(s)
}
