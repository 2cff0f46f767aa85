package packet

import (
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

var (
	ErrEmptyPacket   = errors.New("empty packet")
	ErrUnknownOpcode = errors.New("unknown opcode")
)

// Reader wraps one inbound payload: byte 0 is the opcode, the rest is the
// msgpack body.
type Reader struct {
	data []byte
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

func (r *Reader) Opcode() byte {
	if len(r.data) == 0 {
		return 0
	}
	return r.data[0]
}

func (r *Reader) Body() []byte {
	if len(r.data) < 2 {
		return nil
	}
	return r.data[1:]
}

// Decode unmarshals the body into v. An empty body is an error.
func (r *Reader) Decode(v any) error {
	body := r.Body()
	if len(body) == 0 {
		return fmt.Errorf("opcode %d: %w", r.Opcode(), ErrEmptyPacket)
	}
	if err := msgpack.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode opcode %d: %w", r.Opcode(), err)
	}
	return nil
}

// Encode builds [opcode][msgpack(v)]. A nil v produces an opcode-only packet.
func Encode(opcode byte, v any) ([]byte, error) {
	if v == nil {
		return []byte{opcode}, nil
	}
	body, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode opcode %d: %w", opcode, err)
	}
	out := make([]byte, 0, len(body)+1)
	out = append(out, opcode)
	return append(out, body...), nil
}

// MarshalValue encodes a component body for ComponentValue.Value.
func MarshalValue(v any) (msgpack.RawMessage, error) {
	b, err := msgpack.Marshal(v)
	return msgpack.RawMessage(b), err
}

// UnmarshalValue decodes ComponentValue.Value into v.
func UnmarshalValue(raw msgpack.RawMessage, v any) error {
	return msgpack.Unmarshal(raw, v)
}
