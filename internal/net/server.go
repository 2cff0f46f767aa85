package net

import (
	"fmt"
	"net"
	"sync/atomic"

	"go.uber.org/zap"
)

// Hub admits connections from every transport, assigns client ids and
// hands sessions to the game loop through one channel.
type Hub struct {
	nextID     atomic.Uint64
	active     atomic.Int64
	maxClients int
	newConns   chan *Session
	opts       SessionOptions
	codec      *Codec
	log        *zap.Logger
}

func NewHub(maxClients int, opts SessionOptions, codec *Codec, log *zap.Logger) *Hub {
	return &Hub{
		maxClients: maxClients,
		newConns:   make(chan *Session, 64),
		opts:       opts,
		codec:      codec,
		log:        log,
	}
}

// Admit wraps conn in a started session and queues it for the game loop.
// It returns nil when the server is full or the queue is saturated.
func (h *Hub) Admit(conn Conn) *Session {
	if h.maxClients > 0 && h.active.Load() >= int64(h.maxClients) {
		h.log.Warn("連線數已達上限，拒絕新連線", zap.String("ip", conn.RemoteAddr()))
		conn.Close()
		return nil
	}
	id := h.nextID.Add(1)
	sess := NewSession(conn, id, h.opts, h.log)

	select {
	case h.newConns <- sess:
	default:
		h.log.Warn("連線佇列已滿，拒絕新連線")
		conn.Close()
		return nil
	}
	h.active.Add(1)
	sess.Start()
	h.log.Info(fmt.Sprintf("玩家連線  client=%d  ip=%s", id, sess.IP))
	return sess
}

// NewSessions returns the channel of newly connected sessions.
func (h *Hub) NewSessions() <-chan *Session {
	return h.newConns
}

// Release is called by the game loop once a session is fully cleaned up.
func (h *Hub) Release(_ uint64) {
	h.active.Add(-1)
}

func (h *Hub) Codec() *Codec { return h.codec }

// Server accepts TCP connections and admits them through the Hub.
type Server struct {
	listener net.Listener
	hub      *Hub
	log      *zap.Logger
	closeCh  chan struct{}
}

func NewServer(bindAddr string, hub *Hub, log *zap.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", bindAddr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", bindAddr, err)
	}
	return &Server{
		listener: ln,
		hub:      hub,
		log:      log,
		closeCh:  make(chan struct{}),
	}, nil
}

// AcceptLoop runs in its own goroutine until Shutdown.
func (s *Server) AcceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.closeCh:
				return // server shutting down
			default:
			}
			s.log.Error("連線接受失敗", zap.Error(err))
			continue
		}
		if tc, ok := conn.(*net.TCPConn); ok {
			_ = tc.SetNoDelay(true)
		}
		s.hub.Admit(NewTCPConn(conn, s.hub.Codec()))
	}
}

// Shutdown stops accepting new connections.
func (s *Server) Shutdown() {
	close(s.closeCh)
	s.listener.Close()
}

// Addr returns the listener's address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}
