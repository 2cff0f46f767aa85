package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/zombrise/server/internal/config"
	coresys "github.com/zombrise/server/internal/core/system"
	"github.com/zombrise/server/internal/world"
)

// SpawnSystem adds one zombie per timer expiry while the population is
// under the cap. Phase 5 (Lifecycle).
type SpawnSystem struct {
	world      *world.State
	cfg        *config.GameConfig
	rules      Rules
	log        *zap.Logger
	suppressed uint64
}

func NewSpawnSystem(ws *world.State, cfg *config.GameConfig, rules Rules, log *zap.Logger) *SpawnSystem {
	if rules == nil {
		rules = DefaultRules{}
	}
	if ws.SpawnTimer == nil {
		ws.SpawnTimer = world.NewTimer(cfg.SpawnInterval)
	}
	return &SpawnSystem{world: ws, cfg: cfg, rules: rules, log: log}
}

func (s *SpawnSystem) Phase() coresys.Phase { return coresys.PhaseLifecycle }

// Suppressed counts expiries skipped because the cap was reached.
func (s *SpawnSystem) Suppressed() uint64 { return s.suppressed }

func (s *SpawnSystem) Update(dt time.Duration) {
	for n := s.world.SpawnTimer.Advance(dt); n > 0; n-- {
		if s.world.ZombieCount() >= s.cfg.ZombieCap {
			s.suppressed++
			s.log.Debug("殭屍數量已達上限", zap.Int("cap", s.cfg.ZombieCap))
			continue
		}
		pos := s.rules.ZombieSpawnPoint(s.world.Rand, s.cfg.ZombieSpawnExtent, s.cfg.ZombieSpawnY)
		s.world.SpawnZombie(pos)
	}
}
