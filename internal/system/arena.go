package system

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/zombrise/server/internal/component"
	"github.com/zombrise/server/internal/config"
	"github.com/zombrise/server/internal/core/ecs"
	coresys "github.com/zombrise/server/internal/core/system"
	"github.com/zombrise/server/internal/world"
)

// ArenaSystem grows the ground with the player count. Phase 5 (Lifecycle).
type ArenaSystem struct {
	world *world.State
	cfg   *config.GameConfig
	log   *zap.Logger
}

func NewArenaSystem(ws *world.State, cfg *config.GameConfig, log *zap.Logger) *ArenaSystem {
	return &ArenaSystem{world: ws, cfg: cfg, log: log}
}

func (s *ArenaSystem) Phase() coresys.Phase { return coresys.PhaseLifecycle }

func (s *ArenaSystem) Update(_ time.Duration) {
	marker, ok := s.world.MapMarkers.Get(s.world.Ground)
	if !ok {
		return
	}
	players := 0
	s.world.Players.Each(func(id ecs.EntityID, _ *component.Player) {
		if !s.world.ECS.PendingDestruction(id) {
			players++
		}
	})
	want := 1 + s.cfg.ArenaGrowthPerPlayer*float64(players)
	if math.Abs(marker.Scale-want) <= 0.01 {
		return
	}
	marker.Scale = want
	s.world.Physics.SetGroundScale(want)
	s.log.Info("場地縮放", zap.Float64("scale", want), zap.Int("players", players))
}
