package system

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/zombrise/server/internal/component"
	"github.com/zombrise/server/internal/config"
	"github.com/zombrise/server/internal/core/ecs"
	coresys "github.com/zombrise/server/internal/core/system"
	"github.com/zombrise/server/internal/world"
)

// LifecycleSystem reaps dead and fallen players plus fallen zombies.
// Runs after combat so a lethal hit is removed in the same tick.
// Phase 5 (Lifecycle).
type LifecycleSystem struct {
	world *world.State
	cfg   *config.GameConfig
	log   *zap.Logger
}

func NewLifecycleSystem(ws *world.State, cfg *config.GameConfig, log *zap.Logger) *LifecycleSystem {
	return &LifecycleSystem{world: ws, cfg: cfg, log: log}
}

func (s *LifecycleSystem) Phase() coresys.Phase { return coresys.PhaseLifecycle }

func (s *LifecycleSystem) Update(_ time.Duration) {
	type removal struct {
		client component.ClientID
		reason component.RemovalReason
	}
	var out []removal

	ecs.Each3(s.world.Players, s.world.Owners, s.world.Transforms,
		func(id ecs.EntityID, _ *component.Player, o *component.Owner, tr *component.Transform) {
			hp, ok := s.world.Healths.Get(id)
			switch {
			case ok && hp.Dead():
				out = append(out, removal{o.Client, component.RemovedKilled})
			case tr.Position.Y < s.cfg.FallDeathY:
				out = append(out, removal{o.Client, component.RemovedFell})
			}
		})
	// RemovePlayer must not run inside the iteration above.
	for _, r := range out {
		if s.world.RemovePlayer(r.client, r.reason) {
			s.log.Info(fmt.Sprintf("玩家移除  client=%d  reason=%s", r.client, r.reason))
		}
	}

	ecs.Each2(s.world.Zombies, s.world.Transforms, func(id ecs.EntityID, _ *component.Zombie, tr *component.Transform) {
		if tr.Position.Y < s.cfg.FallDeathY && !s.world.ECS.PendingDestruction(id) {
			s.world.ECS.MarkForDestruction(id)
			s.log.Info("殭屍掉出場地", zap.Stringer("zombie", id))
		}
	})
}
