package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/zombrise/server/internal/component"
	"github.com/zombrise/server/internal/core/event"
	coresys "github.com/zombrise/server/internal/core/system"
	"github.com/zombrise/server/internal/net"
	"github.com/zombrise/server/internal/net/packet"
	"github.com/zombrise/server/internal/replication"
	"github.com/zombrise/server/internal/world"
)

// OutputSystem hands buffered frames to the session writers and kicks
// clients whose player was killed or fell this tick. The kick goes out after
// the frames that carry the removal. Phase 8 (Output).
type OutputSystem struct {
	world   *world.State
	store   *net.SessionStore
	encoder *replication.Encoder
	kicks   map[component.ClientID]component.RemovalReason
	log     *zap.Logger
}

func NewOutputSystem(ws *world.State, store *net.SessionStore, encoder *replication.Encoder, log *zap.Logger) *OutputSystem {
	s := &OutputSystem{
		world:   ws,
		store:   store,
		encoder: encoder,
		kicks:   make(map[component.ClientID]component.RemovalReason),
		log:     log,
	}
	event.Subscribe(ws.Bus, func(ev event.PlayerRemoved) {
		if ev.Reason != component.RemovedDisconnected {
			s.kicks[ev.Client] = ev.Reason
		}
	})
	return s
}

func (s *OutputSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *OutputSystem) Update(_ time.Duration) {
	s.store.ForEach(func(sess *net.Session) {
		client := component.ClientID(sess.ID)
		reason, kick := s.kicks[client]
		if !kick {
			sess.FlushOutput()
			return
		}
		final, err := packet.Encode(packet.S_OPCODE_DISCONNECT, &packet.Disconnect{Reason: reason.String()})
		if err != nil {
			final = nil
		}
		sess.Kick(final)
		s.encoder.RemoveClient(client)
		s.log.Info("踢出連線", zap.Uint64("client", sess.ID), zap.Stringer("reason", reason))
	})
	clear(s.kicks)
	s.world.Commands.Reset()
}
