package net

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WSServer admits browser clients over websocket. Each binary message is
// one [flags][opcode][msgpack] payload.
type WSServer struct {
	hub      *Hub
	upgrader websocket.Upgrader
	srv      *http.Server
	listener net.Listener
	log      *zap.Logger
}

func NewWSServer(addr, path string, hub *Hub, log *zap.Logger) (*WSServer, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	s := &WSServer{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		listener: ln,
		log:      log,
	}
	mux := http.NewServeMux()
	mux.HandleFunc(path, s.Handler())
	s.srv = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	return s, nil
}

// Handler upgrades the request and admits the connection. The session
// goroutines own the socket after that, so the handler returns at once.
func (s *WSServer) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			s.log.Debug("websocket 升級失敗", zap.Error(err))
			return
		}
		s.hub.Admit(NewWSConn(conn, s.hub.Codec()))
	}
}

// Serve blocks until Shutdown.
func (s *WSServer) Serve() error {
	if err := s.srv.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("websocket server: %w", err)
	}
	return nil
}

func (s *WSServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *WSServer) Addr() net.Addr { return s.listener.Addr() }
