package net

import (
	"fmt"
	"net"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is one client transport. The payloads exchanged are full packets
// ([opcode][msgpack]); framing and compression live below this interface.
type Conn interface {
	ReadPacket(timeout time.Duration) ([]byte, error)
	WritePacket(pkt []byte, timeout time.Duration) error
	RemoteAddr() string
	Close() error
}

type tcpConn struct {
	c     net.Conn
	codec *Codec
}

// NewTCPConn wraps a stream connection with length-prefixed framing.
func NewTCPConn(c net.Conn, codec *Codec) Conn {
	return &tcpConn{c: c, codec: codec}
}

func (t *tcpConn) ReadPacket(timeout time.Duration) ([]byte, error) {
	if timeout > 0 {
		_ = t.c.SetReadDeadline(time.Now().Add(timeout))
	}
	payload, err := ReadFrame(t.c)
	if err != nil {
		return nil, err
	}
	return t.codec.Unpack(payload)
}

func (t *tcpConn) WritePacket(pkt []byte, timeout time.Duration) error {
	if timeout > 0 {
		_ = t.c.SetWriteDeadline(time.Now().Add(timeout))
	}
	return WriteFrame(t.c, t.codec.Pack(pkt))
}

func (t *tcpConn) RemoteAddr() string { return t.c.RemoteAddr().String() }
func (t *tcpConn) Close() error       { return t.c.Close() }

type wsConn struct {
	c     *websocket.Conn
	codec *Codec
}

// NewWSConn wraps a websocket; each binary message is one payload.
func NewWSConn(c *websocket.Conn, codec *Codec) Conn {
	c.SetReadLimit(MaxFrameSize)
	return &wsConn{c: c, codec: codec}
}

func (w *wsConn) ReadPacket(timeout time.Duration) ([]byte, error) {
	if timeout > 0 {
		_ = w.c.SetReadDeadline(time.Now().Add(timeout))
	}
	for {
		kind, msg, err := w.c.ReadMessage()
		if err != nil {
			return nil, err
		}
		if kind != websocket.BinaryMessage {
			continue
		}
		return w.codec.Unpack(msg)
	}
}

func (w *wsConn) WritePacket(pkt []byte, timeout time.Duration) error {
	if timeout > 0 {
		_ = w.c.SetWriteDeadline(time.Now().Add(timeout))
	}
	payload := w.codec.Pack(pkt)
	if len(payload) > MaxFrameSize {
		return fmt.Errorf("write %d bytes: %w", len(payload), ErrFrameTooLarge)
	}
	return w.c.WriteMessage(websocket.BinaryMessage, payload)
}

func (w *wsConn) RemoteAddr() string { return w.c.RemoteAddr().String() }

func (w *wsConn) Close() error {
	_ = w.c.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return w.c.Close()
}
