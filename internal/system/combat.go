package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/zombrise/server/internal/component"
	"github.com/zombrise/server/internal/config"
	"github.com/zombrise/server/internal/core/ecs"
	"github.com/zombrise/server/internal/core/event"
	coresys "github.com/zombrise/server/internal/core/system"
	"github.com/zombrise/server/internal/world"
)

// CombatSystem counts down hit flashes, applies zombie contact damage and
// resolves queued attacks. Phase 4 (Combat).
type CombatSystem struct {
	world *world.State
	cfg   *config.GameConfig
	rules Rules
	log   *zap.Logger
}

func NewCombatSystem(ws *world.State, cfg *config.GameConfig, rules Rules, log *zap.Logger) *CombatSystem {
	if rules == nil {
		rules = DefaultRules{}
	}
	return &CombatSystem{world: ws, cfg: cfg, rules: rules, log: log}
}

func (s *CombatSystem) Phase() coresys.Phase { return coresys.PhaseCombat }

func (s *CombatSystem) Update(dt time.Duration) {
	sec := dt.Seconds()

	s.world.Flashes.Each(func(_ ecs.EntityID, f *component.DamageFlash) {
		f.Tick(sec)
	})

	s.proximity(sec)

	for _, client := range s.world.Commands.Attacks() {
		s.attack(client)
	}
}

func (s *CombatSystem) proximity(sec float64) {
	dmg := s.rules.ProximityDamage(s.cfg.DamagePerSecond, sec)
	ecs.Each2(s.world.Zombies, s.world.Transforms, func(zid ecs.EntityID, _ *component.Zombie, ztr *component.Transform) {
		if s.world.ECS.PendingDestruction(zid) {
			return
		}
		ecs.Each3(s.world.Players, s.world.Transforms, s.world.Healths,
			func(pid ecs.EntityID, _ *component.Player, ptr *component.Transform, hp *component.Health) {
				if hp.Dead() || ztr.Position.Distance(ptr.Position) >= s.cfg.CollisionDistance {
					return
				}
				s.damage(pid, hp, dmg)
			})
	})
}

// attack resolves one attack by client. Zombies in range die, other live
// players in range take damage.
func (s *CombatSystem) attack(client component.ClientID) {
	attacker, ok := s.world.PlayerOf(client)
	if !ok || s.world.ECS.PendingDestruction(attacker) {
		return
	}
	hp, ok := s.world.Healths.Get(attacker)
	if !ok || hp.Dead() {
		return
	}
	atr, ok := s.world.Transforms.Get(attacker)
	if !ok {
		return
	}
	origin := atr.Position

	var kills []ecs.EntityID
	ecs.Each2(s.world.Zombies, s.world.Transforms, func(zid ecs.EntityID, _ *component.Zombie, ztr *component.Transform) {
		if origin.Distance(ztr.Position) < s.cfg.AttackRange {
			kills = append(kills, zid)
		}
	})
	for _, zid := range kills {
		s.world.KillZombie(zid, attacker)
	}
	if len(kills) > 0 {
		s.log.Debug("攻擊命中", zap.Uint64("client", uint64(client)), zap.Int("zombies", len(kills)))
	}

	dmg := s.rules.AttackDamage(s.cfg.PlayerDamage)
	ecs.Each3(s.world.Players, s.world.Transforms, s.world.Healths,
		func(pid ecs.EntityID, _ *component.Player, ptr *component.Transform, php *component.Health) {
			if pid == attacker || php.Dead() || origin.Distance(ptr.Position) >= s.cfg.AttackRange {
				return
			}
			s.damage(pid, php, dmg)
		})
}

func (s *CombatSystem) damage(id ecs.EntityID, hp *component.Health, amount float64) {
	hp.Apply(-amount)
	if f, ok := s.world.Flashes.Get(id); ok {
		f.Trigger(s.cfg.FlashDuration)
	}
	event.Emit(s.world.Bus, event.PlayerDamaged{Entity: id, Amount: amount, Health: hp.Current})
}
