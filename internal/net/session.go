package net

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/zombrise/server/internal/net/packet"
)

// SessionOptions size the queues and deadlines of every session.
type SessionOptions struct {
	InQueueSize  int
	OutQueueSize int
	PktPerSec    int // 0 = unlimited; excess packets are dropped
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Session represents a single client connection. Network I/O runs in
// dedicated goroutines; game state is accessed only from the game loop.
//
// Outbound traffic has two lanes. Reliable frames are queued in order on a
// bounded channel; a client that lets it fill up is disconnected. The
// unreliable lane is a single slot holding the newest frame: publishing a
// new one discards the previous frame if the writer has not taken it yet.
type Session struct {
	ID   uint64
	conn Conn

	state atomic.Int32 // packet.SessionState stored as int32

	InQueue  chan []byte // game loop reads packets from here
	OutQueue chan []byte // reliable lane, writer goroutine reads from here

	IP string

	outBuf     [][]byte // buffered reliable packets, game loop only
	pendingURL []byte   // buffered unreliable packet, game loop only

	slotMu  sync.Mutex
	slot    []byte
	wake    chan struct{}
	dropped atomic.Uint64

	kickCh   chan struct{}
	kickOnce sync.Once
	kicked   atomic.Bool

	closeCh   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool

	opts SessionOptions

	// Per-second packet rate limiter (readLoop goroutine only, no lock needed)
	pktCount   int
	pktDropped int
	pktResetAt int64

	log *zap.Logger
}

func NewSession(conn Conn, id uint64, opts SessionOptions, log *zap.Logger) *Session {
	s := &Session{
		ID:       id,
		conn:     conn,
		InQueue:  make(chan []byte, opts.InQueueSize),
		OutQueue: make(chan []byte, opts.OutQueueSize),
		IP:       conn.RemoteAddr(),
		wake:     make(chan struct{}, 1),
		kickCh:   make(chan struct{}),
		closeCh:  make(chan struct{}),
		opts:     opts,
		log:      log.With(zap.Uint64("client", id)),
	}
	s.state.Store(int32(packet.StateConnected))
	return s
}

func (s *Session) State() packet.SessionState {
	return packet.SessionState(s.state.Load())
}

func (s *Session) SetState(st packet.SessionState) {
	s.state.Store(int32(st))
}

// Start launches the reader and writer goroutines.
func (s *Session) Start() {
	go s.readLoop()
	go s.writeLoop()
}

// Send buffers a reliable packet until FlushOutput.
// Called only from the game loop goroutine.
func (s *Session) Send(data []byte) {
	if s.closed.Load() || s.kicked.Load() {
		return
	}
	s.outBuf = append(s.outBuf, data)
}

// SendUnreliable buffers the tick's unreliable packet, replacing any packet
// buffered earlier in the same tick. Called only from the game loop.
func (s *Session) SendUnreliable(data []byte) {
	if s.closed.Load() || s.kicked.Load() {
		return
	}
	s.pendingURL = data
}

// FlushOutput hands this tick's packets to the writer: reliable packets
// first, then the unreliable slot. Called by OutputSystem once per tick.
// Non-blocking: if OutQueue is full, the session is disconnected (backpressure).
func (s *Session) FlushOutput() {
	for _, data := range s.outBuf {
		select {
		case s.OutQueue <- data:
		default:
			s.log.Warn("輸出佇列已滿，斷開慢速連線", zap.Int("queued", len(s.OutQueue)))
			s.Close()
			s.outBuf = s.outBuf[:0]
			s.pendingURL = nil
			return
		}
	}
	s.outBuf = s.outBuf[:0]

	if s.pendingURL != nil {
		s.slotMu.Lock()
		if s.slot != nil {
			s.dropped.Add(1)
		}
		s.slot = s.pendingURL
		s.slotMu.Unlock()
		s.pendingURL = nil
		select {
		case s.wake <- struct{}{}:
		default:
		}
	}
}

// Kick sends the final reliable packet, flushes, and closes the connection
// once the writer has drained every reliable packet queued before it.
// Called only from the game loop; later Send calls are ignored.
func (s *Session) Kick(final []byte) {
	if s.closed.Load() || s.kicked.Load() {
		return
	}
	if final != nil {
		s.outBuf = append(s.outBuf, final)
	}
	s.pendingURL = nil
	s.FlushOutput()
	s.kicked.Store(true)
	s.SetState(packet.StateDisconnecting)
	s.kickOnce.Do(func() { close(s.kickCh) })
}

func (s *Session) Kicked() bool { return s.kicked.Load() }

// DroppedUnreliable counts unreliable packets overwritten before the writer
// took them.
func (s *Session) DroppedUnreliable() uint64 { return s.dropped.Load() }

// Close shuts down the session immediately.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.SetState(packet.StateDisconnecting)
		close(s.closeCh)
		s.conn.Close()
	})
}

func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// Done is closed when the session closes.
func (s *Session) Done() <-chan struct{} { return s.closeCh }

// readLoop pushes decoded packets onto InQueue for the game loop.
// Undecodable payloads and packets over the per-second budget are dropped;
// only transport errors end the session.
func (s *Session) readLoop() {
	defer s.Close()

	for {
		pkt, err := s.conn.ReadPacket(s.opts.ReadTimeout)
		if err != nil {
			if errors.Is(err, ErrBadPayload) {
				s.log.Debug("封包解碼失敗，丟棄", zap.Error(err))
				continue
			}
			if !s.closed.Load() {
				s.log.Debug("讀取錯誤", zap.Error(err))
			}
			return
		}

		if s.overRate() {
			s.pktDropped++
			if s.pktDropped == 1 {
				s.log.Debug("封包速率超限，丟棄", zap.Int("pps", s.pktCount))
			}
			continue
		}

		// Move input is superseded every tick, so a full queue drops the
		// packet instead of stalling the reader.
		select {
		case s.InQueue <- pkt:
		case <-s.closeCh:
			return
		default:
			s.log.Debug("輸入佇列已滿，丟棄封包", zap.Uint8("opcode", pkt[0]))
		}
	}
}

// overRate counts one packet against the current one-second window.
func (s *Session) overRate() bool {
	if s.opts.PktPerSec <= 0 {
		return false
	}
	now := time.Now().Unix()
	if now != s.pktResetAt {
		s.pktCount = 0
		s.pktDropped = 0
		s.pktResetAt = now
	}
	s.pktCount++
	return s.pktCount > s.opts.PktPerSec
}

// writeLoop writes reliable packets in order and the newest unreliable
// packet whenever it is woken. On wake it takes the slot first and drains
// the reliable lane before writing it, so every reliable packet flushed
// before the slot was filled reaches the wire ahead of it.
func (s *Session) writeLoop() {
	defer s.Close()

	for {
		select {
		case data := <-s.OutQueue:
			if !s.writeOne(data) {
				return
			}
		case <-s.wake:
			s.slotMu.Lock()
			u := s.slot
			s.slot = nil
			s.slotMu.Unlock()
			if !s.drainReliable() {
				return
			}
			if u != nil && !s.writeOne(u) {
				return
			}
		case <-s.kickCh:
			s.drainReliable()
			return
		case <-s.closeCh:
			return
		}
	}
}

func (s *Session) drainReliable() bool {
	for {
		select {
		case data := <-s.OutQueue:
			if !s.writeOne(data) {
				return false
			}
		default:
			return true
		}
	}
}

func (s *Session) writeOne(data []byte) bool {
	if err := s.conn.WritePacket(data, s.opts.WriteTimeout); err != nil {
		if !s.closed.Load() {
			s.log.Debug("寫入錯誤", zap.Error(err))
		}
		return false
	}
	return true
}
