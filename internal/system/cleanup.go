package system

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/zombrise/server/internal/core/system"
	"github.com/zombrise/server/internal/world"
)

// CleanupSystem flushes the deferred entity destruction queue before
// replication, so despawns reach clients in the tick they happen.
// Phase 6 (Cleanup).
type CleanupSystem struct {
	world *world.State
	log   *zap.Logger
}

func NewCleanupSystem(ws *world.State, log *zap.Logger) *CleanupSystem {
	return &CleanupSystem{world: ws, log: log}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	if n := s.world.ECS.FlushDestroyQueue(); n > 0 {
		s.log.Debug("實體已銷毀", zap.Int("count", n), zap.Uint64("tick", s.world.Tick))
	}
}
