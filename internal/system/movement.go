package system

import (
	"math"
	"time"

	"github.com/zombrise/server/internal/component"
	"github.com/zombrise/server/internal/config"
	coresys "github.com/zombrise/server/internal/core/system"
	"github.com/zombrise/server/internal/geom"
	"github.com/zombrise/server/internal/world"
)

// MovementSystem turns each client's move of this tick into velocity and
// facing intent on its player's body. Phase 1 (Movement).
type MovementSystem struct {
	world *world.State
	cfg   *config.GameConfig
}

func NewMovementSystem(ws *world.State, cfg *config.GameConfig) *MovementSystem {
	return &MovementSystem{world: ws, cfg: cfg}
}

func (s *MovementSystem) Phase() coresys.Phase { return coresys.PhaseMovement }

func (s *MovementSystem) Update(_ time.Duration) {
	s.world.Commands.EachMove(func(client component.ClientID, m world.MoveCommand) {
		id, ok := s.world.PlayerOf(client)
		if !ok || s.world.ECS.PendingDestruction(id) {
			return
		}
		vel, ok := s.world.Physics.Velocity(id)
		if !ok {
			return
		}
		dir := geom.YawRotation(m.CameraYaw).Rotate(m.Direction)
		vel.X = dir.X * s.cfg.PlayerSpeed
		vel.Z = dir.Z * s.cfg.PlayerSpeed

		if q, ok := geom.FacingRotation(dir); ok {
			s.world.Physics.SetRotation(id, q)
		}
		// Approximate ground check: only near-zero vertical speed may jump.
		if m.Direction.Y > 0 && math.Abs(vel.Y) < s.cfg.GroundedEpsilon {
			vel.Y = s.cfg.JumpVelocity
		}
		s.world.Physics.SetVelocity(id, vel)
	})
}
