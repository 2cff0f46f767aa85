package system

import (
	"time"

	"github.com/zombrise/server/internal/component"
	"github.com/zombrise/server/internal/core/ecs"
	coresys "github.com/zombrise/server/internal/core/system"
	"github.com/zombrise/server/internal/world"
)

// PhysicsSystem steps the physics engine once and copies poses back into
// Transform components. Phase 2 (Physics).
type PhysicsSystem struct {
	world *world.State
}

func NewPhysicsSystem(ws *world.State) *PhysicsSystem {
	return &PhysicsSystem{world: ws}
}

func (s *PhysicsSystem) Phase() coresys.Phase { return coresys.PhasePhysics }

func (s *PhysicsSystem) Update(dt time.Duration) {
	eng := s.world.Physics
	eng.Step(dt.Seconds())

	readBack := func(id ecs.EntityID, tr *component.Transform) {
		if pos, rot, ok := eng.Transform(id); ok {
			tr.Position = pos
			tr.Rotation = rot
		}
	}
	ecs.Each2(s.world.Players, s.world.Transforms, func(id ecs.EntityID, _ *component.Player, tr *component.Transform) {
		readBack(id, tr)
	})
	ecs.Each2(s.world.Zombies, s.world.Transforms, func(id ecs.EntityID, _ *component.Zombie, tr *component.Transform) {
		readBack(id, tr)
	})
}
