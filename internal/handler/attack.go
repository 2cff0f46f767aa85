package handler

import (
	"github.com/zombrise/server/internal/component"
	"github.com/zombrise/server/internal/net"
	"github.com/zombrise/server/internal/net/packet"
)

// HandleAttack processes C_ATTACK (no body). The attack is bound to the
// sender; CombatSystem resolves the sender's entity through the owner index.
func HandleAttack(sess *net.Session, _ *packet.Reader, deps *Deps) {
	deps.World.Commands.Attack(component.ClientID(sess.ID))
}

// HandleAck processes C_ACK.
func HandleAck(sess *net.Session, r *packet.Reader, deps *Deps) {
	var msg packet.Ack
	if err := r.Decode(&msg); err != nil {
		return
	}
	deps.Encoder.Ack(component.ClientID(sess.ID), msg.Tick)
}
