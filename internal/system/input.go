package system

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/zombrise/server/internal/component"
	"github.com/zombrise/server/internal/config"
	coresys "github.com/zombrise/server/internal/core/system"
	"github.com/zombrise/server/internal/geom"
	"github.com/zombrise/server/internal/net"
	"github.com/zombrise/server/internal/net/packet"
	"github.com/zombrise/server/internal/replication"
	"github.com/zombrise/server/internal/world"
)

// SessionSource hands newly admitted sessions to the game loop.
type SessionSource interface {
	NewSessions() <-chan *net.Session
	Release(id uint64)
}

// InputSystem admits new sessions, cleans up closed ones and drains packet
// queues through the packet registry. Phase 0 (Input).
type InputSystem struct {
	source   SessionSource
	registry *packet.Registry
	store    *net.SessionStore
	world    *world.State
	encoder  *replication.Encoder
	cfg      *config.Config
	log      *zap.Logger
}

func NewInputSystem(
	source SessionSource,
	registry *packet.Registry,
	store *net.SessionStore,
	ws *world.State,
	encoder *replication.Encoder,
	cfg *config.Config,
	log *zap.Logger,
) *InputSystem {
	return &InputSystem{
		source:   source,
		registry: registry,
		store:    store,
		world:    ws,
		encoder:  encoder,
		cfg:      cfg,
		log:      log,
	}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(_ time.Duration) {
	s.world.Tick++

	// Accept new sessions
	for accepting := true; accepting; {
		select {
		case sess := <-s.source.NewSessions():
			s.handleConnect(sess)
		default:
			accepting = false
		}
	}

	for _, sess := range s.store.Snapshot() {
		if sess.IsClosed() {
			s.handleDisconnect(sess)
			continue
		}
		s.drain(sess)
	}
}

// drain dispatches at most MaxPacketsPerTick queued packets of one session.
// Input of a kicked session is discarded.
func (s *InputSystem) drain(sess *net.Session) {
	for i := 0; i < s.cfg.Network.MaxPacketsPerTick; i++ {
		select {
		case data := <-sess.InQueue:
			if sess.Kicked() {
				continue
			}
			if err := s.registry.Dispatch(sess, sess.State(), data); err != nil {
				s.log.Debug("封包分派錯誤",
					zap.Uint64("client", sess.ID),
					zap.Error(err),
				)
			}
		default:
			return
		}
	}
}

// handleConnect spawns the player of a new session and greets it.
func (s *InputSystem) handleConnect(sess *net.Session) {
	s.store.Add(sess)
	s.encoder.AddClient(component.ClientID(sess.ID))

	g := s.cfg.Game
	spawn := geom.V(g.PlayerSpawn[0], g.PlayerSpawn[1], g.PlayerSpawn[2])
	if _, ok := s.world.SpawnPlayer(component.ClientID(sess.ID), spawn, g.PlayerMaxHealth); !ok {
		s.log.Warn("重複連線事件，忽略", zap.Uint64("client", sess.ID))
		return
	}

	welcome, err := packet.Encode(packet.S_OPCODE_WELCOME, &packet.Welcome{
		ClientID:   sess.ID,
		TickHz:     s.cfg.Network.TickHz,
		ServerName: s.cfg.Server.Name,
		Tick:       s.world.Tick,
	})
	if err == nil {
		sess.Send(welcome)
	}
}

// handleDisconnect removes a closed session's player and forgets the
// session. The player is destroyed in this tick's cleanup, before
// replication runs.
func (s *InputSystem) handleDisconnect(sess *net.Session) {
	client := component.ClientID(sess.ID)
	if s.world.RemovePlayer(client, component.RemovedDisconnected) {
		s.log.Info(fmt.Sprintf("玩家斷線  client=%d", sess.ID))
	}
	s.encoder.RemoveClient(client)
	s.store.Remove(sess.ID)
	s.source.Release(sess.ID)
}
