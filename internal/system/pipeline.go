package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/zombrise/server/internal/config"
	coresys "github.com/zombrise/server/internal/core/system"
	"github.com/zombrise/server/internal/net"
	"github.com/zombrise/server/internal/net/packet"
	"github.com/zombrise/server/internal/replication"
	"github.com/zombrise/server/internal/world"
)

// Deps holds what the tick pipeline is built from.
type Deps struct {
	Config  *config.Config
	World   *world.State
	Source  SessionSource
	Packets *packet.Registry
	Store   *net.SessionStore
	Encoder *replication.Encoder
	Rules   Rules
	Started time.Time
	Log     *zap.Logger
}

// Register builds every gameplay system and adds it to r. Systems sharing a
// phase run in the order added: within Lifecycle, dead and fallen entities
// are reaped before spawning, and the arena is resized last so it counts
// only surviving players. Stats runs after Output.
func Register(r *coresys.Runner, d Deps) *StatsSystem {
	g := &d.Config.Game
	spawn := NewSpawnSystem(d.World, g, d.Rules, d.Log)
	stats := NewStatsSystem(d.World, d.Store, spawn, g, d.Started, d.Config.Logging.StatsInterval, d.Log)

	r.Register(NewInputSystem(d.Source, d.Packets, d.Store, d.World, d.Encoder, d.Config, d.Log))
	r.Register(NewMovementSystem(d.World, g))
	r.Register(NewPhysicsSystem(d.World))
	r.Register(NewZombieAISystem(d.World, g))
	r.Register(NewCombatSystem(d.World, g, d.Rules, d.Log))
	r.Register(NewLifecycleSystem(d.World, g, d.Log))
	r.Register(spawn)
	r.Register(NewArenaSystem(d.World, g, d.Log))
	r.Register(NewCleanupSystem(d.World, d.Log))
	r.Register(NewReplicationSystem(d.World, d.Store, d.Encoder, d.Log))
	r.Register(NewOutputSystem(d.World, d.Store, d.Encoder, d.Log))
	r.Register(stats)
	return stats
}
