package handler

import (
	"math"

	"go.uber.org/zap"

	"github.com/zombrise/server/internal/component"
	"github.com/zombrise/server/internal/geom"
	"github.com/zombrise/server/internal/net"
	"github.com/zombrise/server/internal/net/packet"
	"github.com/zombrise/server/internal/world"
)

// HandleMove processes C_MOVE. The last move a client sends in a tick wins.
// Non-finite input is dropped.
func HandleMove(sess *net.Session, r *packet.Reader, deps *Deps) {
	var msg packet.Move
	if err := r.Decode(&msg); err != nil {
		deps.Log.Debug("C_MOVE 解碼失敗", zap.Uint64("client", sess.ID), zap.Error(err))
		return
	}
	dir := geom.V(float64(msg.Direction[0]), float64(msg.Direction[1]), float64(msg.Direction[2]))
	yaw := float64(msg.CameraYaw)
	if !dir.Finite() || math.IsNaN(yaw) || math.IsInf(yaw, 0) {
		deps.Log.Debug("C_MOVE 非有限數值，丟棄", zap.Uint64("client", sess.ID))
		return
	}
	deps.World.Commands.Move(component.ClientID(sess.ID), world.MoveCommand{Direction: dir, CameraYaw: yaw})
}
