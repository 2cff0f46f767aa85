package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/zombrise/server/internal/component"
	coresys "github.com/zombrise/server/internal/core/system"
	"github.com/zombrise/server/internal/net"
	"github.com/zombrise/server/internal/net/packet"
	"github.com/zombrise/server/internal/replication"
	"github.com/zombrise/server/internal/world"
)

// ReplicationSystem delivers the tick's events, then diffs the world for
// every session and buffers the resulting frames. Phase 7 (Replication).
type ReplicationSystem struct {
	world   *world.State
	store   *net.SessionStore
	encoder *replication.Encoder
	log     *zap.Logger
}

func NewReplicationSystem(ws *world.State, store *net.SessionStore, encoder *replication.Encoder, log *zap.Logger) *ReplicationSystem {
	return &ReplicationSystem{world: ws, store: store, encoder: encoder, log: log}
}

func (s *ReplicationSystem) Phase() coresys.Phase { return coresys.PhaseReplication }

func (s *ReplicationSystem) Update(_ time.Duration) {
	s.world.Bus.Dispatch()
	s.encoder.Begin(s.world.Tick)
	defer s.encoder.End()

	s.store.ForEach(func(sess *net.Session) {
		if sess.IsClosed() || sess.Kicked() {
			return
		}
		rel, unrel := s.encoder.Frames(component.ClientID(sess.ID))
		if rel != nil {
			if data, err := packet.Encode(packet.S_OPCODE_RELIABLE, rel); err == nil {
				sess.Send(data)
			} else {
				s.log.Error("可靠幀編碼失敗", zap.Uint64("client", sess.ID), zap.Error(err))
			}
		}
		if unrel != nil {
			if data, err := packet.Encode(packet.S_OPCODE_UNRELIABLE, unrel); err == nil {
				sess.SendUnreliable(data)
			} else {
				s.log.Error("非可靠幀編碼失敗", zap.Uint64("client", sess.ID), zap.Error(err))
			}
		}
	})
}
