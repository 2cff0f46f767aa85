package net

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// MaxFrameSize bounds one TCP frame including its 2-byte length header.
const MaxFrameSize = 65535

// flagZstd marks a payload whose [opcode][body] part is zstd-compressed.
const flagZstd byte = 0x01

var (
	ErrFrameTooLarge = errors.New("frame too large")
	ErrInvalidFrame  = errors.New("invalid frame")

	// ErrBadPayload marks a payload that arrived intact but could not be
	// decoded. Framing is still in sync, so the reader may skip it.
	ErrBadPayload = errors.New("bad payload")
)

// ReadFrame reads one TCP frame from r.
// Wire format: [2 bytes LE: total length including header][payload].
// Returns the payload bytes (without the 2-byte length header).
func ReadFrame(r io.Reader) ([]byte, error) {
	var header [2]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("read frame header: %w", err)
	}

	totalLen := int(binary.LittleEndian.Uint16(header[:]))
	payloadLen := totalLen - 2
	if payloadLen <= 0 {
		return nil, fmt.Errorf("frame length %d: %w", totalLen, ErrInvalidFrame)
	}

	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("read frame payload (%d bytes): %w", payloadLen, err)
	}
	return payload, nil
}

// WriteFrame writes one TCP frame to w.
// Wire format: [2 bytes LE: len(data)+2][data].
func WriteFrame(w io.Writer, data []byte) error {
	totalLen := len(data) + 2
	if totalLen > MaxFrameSize {
		return fmt.Errorf("write %d bytes: %w", totalLen, ErrFrameTooLarge)
	}
	buf := make([]byte, totalLen)
	binary.LittleEndian.PutUint16(buf[:2], uint16(totalLen))
	copy(buf[2:], data)
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// Codec turns a packet ([opcode][msgpack]) into a payload ([flags][packet])
// and back. Packets larger than the threshold are zstd-compressed. A Codec
// is safe for concurrent use; EncodeAll/DecodeAll do not share state.
type Codec struct {
	threshold int
	enc       *zstd.Encoder
	dec       *zstd.Decoder
}

// NewCodec builds a codec. threshold <= 0 disables compression on send;
// compressed input is always accepted.
func NewCodec(threshold int) (*Codec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(MaxFrameSize*4))
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	return &Codec{threshold: threshold, enc: enc, dec: dec}, nil
}

// Pack prefixes the flags byte, compressing when worthwhile.
func (c *Codec) Pack(pkt []byte) []byte {
	if c.threshold > 0 && len(pkt) > c.threshold {
		out := make([]byte, 1, len(pkt)/2+1)
		out[0] = flagZstd
		out = c.enc.EncodeAll(pkt, out)
		if len(out) < len(pkt)+1 {
			return out
		}
	}
	out := make([]byte, len(pkt)+1)
	copy(out[1:], pkt)
	return out
}

// Unpack strips the flags byte and decompresses if needed.
func (c *Codec) Unpack(payload []byte) ([]byte, error) {
	if len(payload) < 2 {
		return nil, fmt.Errorf("payload of %d bytes: %w", len(payload), ErrBadPayload)
	}
	flags, body := payload[0], payload[1:]
	if flags&^flagZstd != 0 {
		return nil, fmt.Errorf("flags 0x%02x: %w", flags, ErrBadPayload)
	}
	if flags&flagZstd == 0 {
		return body, nil
	}
	pkt, err := c.dec.DecodeAll(body, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd: %w: %w", ErrBadPayload, err)
	}
	if len(pkt) == 0 {
		return nil, fmt.Errorf("empty compressed packet: %w", ErrBadPayload)
	}
	return pkt, nil
}

func (c *Codec) Close() {
	c.enc.Close()
	c.dec.Close()
}
