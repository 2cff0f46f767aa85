package system

import (
	"math"
	"time"

	"github.com/zombrise/server/internal/component"
	"github.com/zombrise/server/internal/config"
	"github.com/zombrise/server/internal/core/ecs"
	coresys "github.com/zombrise/server/internal/core/system"
	"github.com/zombrise/server/internal/geom"
	"github.com/zombrise/server/internal/world"
)

// PresentationState is the client-facing animation hint of a zombie. It is
// derived from distance on demand and never stored.
type PresentationState int

const (
	StateIdle PresentationState = iota
	StateWalking
	StateAttacking
)

func (p PresentationState) String() string {
	switch p {
	case StateWalking:
		return "walking"
	case StateAttacking:
		return "attacking"
	default:
		return "idle"
	}
}

// presentation maps the distance to the nearest player onto a
// PresentationState. found is false when no player exists.
func presentation(dist float64, found bool, g *config.GameConfig) PresentationState {
	switch {
	case !found:
		return StateIdle
	case dist < g.CollisionDistance:
		return StateAttacking
	default:
		return StateWalking
	}
}

// ZombieAISystem steers every zombie toward the nearest player in range or
// lets it wander. Phase 3 (AI).
type ZombieAISystem struct {
	world   *world.State
	cfg     *config.GameConfig
	touched map[ecs.EntityID]struct{}
}

func NewZombieAISystem(ws *world.State, cfg *config.GameConfig) *ZombieAISystem {
	return &ZombieAISystem{
		world:   ws,
		cfg:     cfg,
		touched: make(map[ecs.EntityID]struct{}),
	}
}

func (s *ZombieAISystem) Phase() coresys.Phase { return coresys.PhaseAI }

func (s *ZombieAISystem) Update(_ time.Duration) {
	clear(s.touched)
	for _, c := range s.world.Physics.Contacts() {
		s.touched[c.Body] = struct{}{}
	}

	ecs.Each2(s.world.Zombies, s.world.Transforms, func(id ecs.EntityID, _ *component.Zombie, tr *component.Transform) {
		if s.world.ECS.PendingDestruction(id) {
			return
		}
		vel, ok := s.world.Physics.Velocity(id)
		if !ok {
			return
		}
		target, dist, found := nearestPlayer(s.world, tr.Position)

		var heading geom.Vec3
		if found && dist < s.cfg.ChaseRange {
			heading = target.Sub(tr.Position).Horizontal().NormalizeOrZero()
		} else {
			heading = s.wander(id, vel)
		}

		vel.X = heading.X * s.cfg.ZombieSpeed
		vel.Z = heading.Z * s.cfg.ZombieSpeed
		s.world.Physics.SetVelocity(id, vel)
		if q, ok := geom.FacingRotation(heading); ok {
			s.world.Physics.SetRotation(id, q)
		}
	})
}

// wander keeps the current heading until the zombie stalls or bumps into a
// solid. It also turns at random now and then.
func (s *ZombieAISystem) wander(id ecs.EntityID, vel geom.Vec3) geom.Vec3 {
	h := vel.Horizontal()
	_, bumped := s.touched[id]
	if h.LengthSquared() <= 0.01 || bumped || s.world.Rand.Float64() < s.cfg.WanderChangeChance {
		rx := s.world.Rand.Float64()*2 - 1
		rz := s.world.Rand.Float64()*2 - 1
		return geom.V(rx, 0, rz).NormalizeOrZero()
	}
	return h.NormalizeOrZero()
}

// nearestPlayer returns the position of and distance to the closest live
// player. found is false when there is none.
func nearestPlayer(ws *world.State, from geom.Vec3) (geom.Vec3, float64, bool) {
	best := math.Inf(1)
	var pos geom.Vec3
	found := false
	ecs.Each2(ws.Players, ws.Transforms, func(id ecs.EntityID, _ *component.Player, tr *component.Transform) {
		if ws.ECS.PendingDestruction(id) {
			return
		}
		if d := from.Distance(tr.Position); d < best {
			best, pos, found = d, tr.Position, true
		}
	})
	return pos, best, found
}
