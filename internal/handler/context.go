package handler

import (
	"go.uber.org/zap"

	"github.com/zombrise/server/internal/config"
	"github.com/zombrise/server/internal/net"
	"github.com/zombrise/server/internal/net/packet"
	"github.com/zombrise/server/internal/replication"
	"github.com/zombrise/server/internal/world"
)

// Deps holds shared dependencies injected into all packet handlers.
type Deps struct {
	Config  *config.Config
	Log     *zap.Logger
	World   *world.State
	Encoder *replication.Encoder
}

// RegisterAll registers all packet handlers into the registry.
func RegisterAll(reg *packet.Registry, deps *Deps) {
	live := []packet.SessionState{packet.StateConnected, packet.StateJoined}

	reg.Register(packet.C_OPCODE_JOIN,
		[]packet.SessionState{packet.StateConnected},
		func(sess any, r *packet.Reader) {
			HandleJoin(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_MOVE, live,
		func(sess any, r *packet.Reader) {
			HandleMove(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_ATTACK, live,
		func(sess any, r *packet.Reader) {
			HandleAttack(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_ACK, live,
		func(sess any, r *packet.Reader) {
			HandleAck(sess.(*net.Session), r, deps)
		},
	)
}
