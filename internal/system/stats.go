package system

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/zombrise/server/internal/component"
	"github.com/zombrise/server/internal/config"
	"github.com/zombrise/server/internal/core/ecs"
	"github.com/zombrise/server/internal/core/event"
	coresys "github.com/zombrise/server/internal/core/system"
	"github.com/zombrise/server/internal/net"
	"github.com/zombrise/server/internal/world"
)

// Stats is a point-in-time summary of the running match.
type Stats struct {
	Players           int
	Zombies           int
	ZombiesByState    [3]int // indexed by PresentationState
	Kills             uint64
	Hits              uint64
	DamageDealt       float64
	SuppressedSpawns  uint64
	DroppedUnreliable uint64
	NextSpawn         time.Duration
	Uptime            time.Duration
}

// StatsSystem logs gameplay events as the bus delivers them and writes a
// summary line every interval. Phase 8 (Output), registered after
// OutputSystem.
type StatsSystem struct {
	world   *world.State
	store   *net.SessionStore
	spawns  *SpawnSystem
	cfg     *config.GameConfig
	started time.Time
	timer   *world.Timer // nil disables the summary
	log     *zap.Logger

	kills  uint64
	hits   uint64
	damage float64
}

func NewStatsSystem(ws *world.State, store *net.SessionStore, spawns *SpawnSystem, cfg *config.GameConfig, started time.Time, interval time.Duration, log *zap.Logger) *StatsSystem {
	s := &StatsSystem{
		world:   ws,
		store:   store,
		spawns:  spawns,
		cfg:     cfg,
		started: started,
		log:     log,
	}
	if interval > 0 {
		s.timer = world.NewTimer(interval)
	}

	event.Subscribe(ws.Bus, func(ev event.PlayerSpawned) {
		s.log.Info(fmt.Sprintf("玩家生成  client=%d  entity=%s", ev.Client, ev.Entity))
	})
	event.Subscribe(ws.Bus, func(ev event.ZombieSpawned) {
		fields := []zap.Field{
			zap.Stringer("zombie", ev.Entity),
			zap.Int("population", ws.ZombieCount()),
		}
		if tr, ok := ws.Transforms.Get(ev.Entity); ok {
			fields = append(fields, zap.Float64("x", tr.Position.X), zap.Float64("z", tr.Position.Z))
		}
		s.log.Info("殭屍生成", fields...)
	})
	event.Subscribe(ws.Bus, func(ev event.ZombieKilled) {
		s.kills++
		s.log.Info("殭屍被擊殺", zap.Stringer("zombie", ev.Entity), zap.Stringer("killer", ev.Killer))
	})
	event.Subscribe(ws.Bus, func(ev event.PlayerDamaged) {
		s.hits++
		s.damage += ev.Amount
		s.log.Debug("玩家受傷",
			zap.Stringer("player", ev.Entity),
			zap.Float64("amount", ev.Amount),
			zap.Float64("health", ev.Health),
		)
	})
	return s
}

func (s *StatsSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *StatsSystem) Update(dt time.Duration) {
	if s.timer == nil || s.timer.Advance(dt) == 0 {
		return
	}
	st := s.Snapshot()
	s.log.Info("伺服器狀態",
		zap.Int("players", st.Players),
		zap.Int("zombies", st.Zombies),
		zap.Int(StateIdle.String(), st.ZombiesByState[StateIdle]),
		zap.Int(StateWalking.String(), st.ZombiesByState[StateWalking]),
		zap.Int(StateAttacking.String(), st.ZombiesByState[StateAttacking]),
		zap.Uint64("kills", st.Kills),
		zap.Uint64("hits", st.Hits),
		zap.Float64("damage", st.DamageDealt),
		zap.Uint64("suppressed_spawns", st.SuppressedSpawns),
		zap.Uint64("dropped_unreliable", st.DroppedUnreliable),
		zap.Duration("next_spawn", st.NextSpawn),
		zap.Duration("uptime", st.Uptime.Truncate(time.Second)),
	)
}

// Snapshot collects the current counters. Event totals include only
// batches already dispatched.
func (s *StatsSystem) Snapshot() Stats {
	st := Stats{
		Players:     s.world.PlayerCount(),
		Zombies:     s.world.ZombieCount(),
		Kills:       s.kills,
		Hits:        s.hits,
		DamageDealt: s.damage,
		Uptime:      time.Since(s.started),
	}
	if s.spawns != nil {
		st.SuppressedSpawns = s.spawns.Suppressed()
	}
	if s.world.SpawnTimer != nil {
		st.NextSpawn = s.world.SpawnTimer.Remaining()
	}
	s.store.ForEach(func(sess *net.Session) {
		st.DroppedUnreliable += sess.DroppedUnreliable()
	})
	ecs.Each2(s.world.Zombies, s.world.Transforms, func(id ecs.EntityID, _ *component.Zombie, tr *component.Transform) {
		if s.world.ECS.PendingDestruction(id) {
			return
		}
		_, dist, found := nearestPlayer(s.world, tr.Position)
		st.ZombiesByState[presentation(dist, found, s.cfg)]++
	})
	return st
}
