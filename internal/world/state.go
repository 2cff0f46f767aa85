package world

import (
	"math/rand"

	"go.uber.org/zap"

	"github.com/zombrise/server/internal/component"
	"github.com/zombrise/server/internal/core/ecs"
	"github.com/zombrise/server/internal/core/event"
	"github.com/zombrise/server/internal/data"
	"github.com/zombrise/server/internal/geom"
	"github.com/zombrise/server/internal/physics"
)

// State is the canonical world. Accessed only from the game loop goroutine,
// so nothing here locks.
type State struct {
	ECS *ecs.World

	Players     *ecs.Store[component.Player]
	Zombies     *ecs.Store[component.Zombie]
	Owners      *ecs.Store[component.Owner]
	Healths     *ecs.Store[component.Health]
	Flashes     *ecs.Store[component.DamageFlash]
	Transforms  *ecs.Store[component.Transform]
	MapMarkers  *ecs.Store[component.MapMarker]
	TreeMarkers *ecs.Store[component.TreeMarker]
	Nicknames   *ecs.Store[component.Nickname]
	Replicated  *ecs.Store[component.Replicated]

	Physics  physics.Engine
	Bus      *event.Bus
	Rand     *rand.Rand
	Commands *Commands

	// SpawnTimer paces zombie spawns; nil until the spawn system installs it.
	SpawnTimer *Timer

	// Tick numbers the pipeline pass in progress, starting at 1.
	Tick uint64

	// Ground is the single MapMarker entity (zero until SpawnArena).
	Ground ecs.EntityID

	owners map[component.ClientID]ecs.EntityID
	log    *zap.Logger
}

func NewState(engine physics.Engine, seed int64, log *zap.Logger) *State {
	w := ecs.NewWorld()
	s := &State{
		ECS:         w,
		Players:     ecs.NewStore[component.Player](),
		Zombies:     ecs.NewStore[component.Zombie](),
		Owners:      ecs.NewStore[component.Owner](),
		Healths:     ecs.NewStore[component.Health](),
		Flashes:     ecs.NewStore[component.DamageFlash](),
		Transforms:  ecs.NewStore[component.Transform](),
		MapMarkers:  ecs.NewStore[component.MapMarker](),
		TreeMarkers: ecs.NewStore[component.TreeMarker](),
		Nicknames:   ecs.NewStore[component.Nickname](),
		Replicated:  ecs.NewStore[component.Replicated](),
		Physics:     engine,
		Bus:         event.NewBus(),
		Rand:        rand.New(rand.NewSource(seed)),
		Commands:    NewCommands(),
		owners:      make(map[component.ClientID]ecs.EntityID),
		log:         log,
	}
	reg := w.Registry()
	reg.Register(s.Players)
	reg.Register(s.Zombies)
	reg.Register(s.Owners)
	reg.Register(s.Healths)
	reg.Register(s.Flashes)
	reg.Register(s.Transforms)
	reg.Register(s.MapMarkers)
	reg.Register(s.TreeMarkers)
	reg.Register(s.Nicknames)
	reg.Register(s.Replicated)
	reg.OnDestroy(s.onDestroy)
	return s
}

// onDestroy runs inside FlushDestroyQueue while the components are still
// readable. The owner mapping and the physics body go away in the same step
// as the entity.
func (s *State) onDestroy(id ecs.EntityID) {
	if o, ok := s.Owners.Get(id); ok {
		s.UnbindOwner(o.Client, id)
	}
	if s.Physics != nil {
		s.Physics.RemoveBody(id)
	}
}

// BindOwner maps client to id. An existing binding is kept and false is
// returned.
func (s *State) BindOwner(client component.ClientID, id ecs.EntityID) bool {
	if _, bound := s.owners[client]; bound {
		return false
	}
	s.owners[client] = id
	return true
}

// UnbindOwner drops the mapping only while it still points at id.
func (s *State) UnbindOwner(client component.ClientID, id ecs.EntityID) {
	if bound, ok := s.owners[client]; ok && bound == id {
		delete(s.owners, client)
	}
}

// PlayerOf resolves a client to its live player entity.
func (s *State) PlayerOf(client component.ClientID) (ecs.EntityID, bool) {
	id, ok := s.owners[client]
	if !ok || !s.ECS.Alive(id) {
		return 0, false
	}
	return id, true
}

func (s *State) PlayerCount() int { return s.Players.Len() }
func (s *State) ZombieCount() int { return s.Zombies.Len() }

// SpawnPlayer creates the player for client at pos. A client that already
// owns a player gets no second one; ok reports whether a spawn happened.
func (s *State) SpawnPlayer(client component.ClientID, pos geom.Vec3, maxHealth float64) (ecs.EntityID, bool) {
	if _, bound := s.owners[client]; bound {
		return 0, false
	}
	id := s.ECS.CreateEntity()
	s.BindOwner(client, id)
	tr := component.NewTransform(pos)
	hp := component.NewHealth(maxHealth)
	s.Players.Set(id, &component.Player{})
	s.Owners.Set(id, &component.Owner{Client: client})
	s.Healths.Set(id, &hp)
	s.Flashes.Set(id, &component.DamageFlash{})
	s.Transforms.Set(id, &tr)
	s.Replicated.Set(id, &component.Replicated{})
	if s.Physics != nil {
		s.Physics.AddBody(id, pos)
	}
	event.Emit(s.Bus, event.PlayerSpawned{Entity: id, Client: client})
	return id, true
}

// RemovePlayer queues client's player for destruction and emits the
// terminal PlayerRemoved event. Calling it twice in one tick emits once.
func (s *State) RemovePlayer(client component.ClientID, reason component.RemovalReason) bool {
	id, ok := s.PlayerOf(client)
	if !ok || s.ECS.PendingDestruction(id) {
		return false
	}
	s.ECS.MarkForDestruction(id)
	event.Emit(s.Bus, event.PlayerRemoved{Entity: id, Client: client, Reason: reason})
	return true
}

func (s *State) SpawnZombie(pos geom.Vec3) ecs.EntityID {
	id := s.ECS.CreateEntity()
	tr := component.NewTransform(pos)
	s.Zombies.Set(id, &component.Zombie{})
	s.Transforms.Set(id, &tr)
	s.Replicated.Set(id, &component.Replicated{})
	if s.Physics != nil {
		s.Physics.AddBody(id, pos)
	}
	event.Emit(s.Bus, event.ZombieSpawned{Entity: id})
	return id
}

// KillZombie queues a zombie for destruction once; later calls in the same
// tick report false.
func (s *State) KillZombie(id, killer ecs.EntityID) bool {
	if !s.Zombies.Has(id) || s.ECS.PendingDestruction(id) {
		return false
	}
	s.ECS.MarkForDestruction(id)
	event.Emit(s.Bus, event.ZombieKilled{Entity: id, Killer: killer})
	return true
}

// SpawnArena creates the ground and the trees. Called once at startup.
func (s *State) SpawnArena(a *data.Arena) {
	g := s.ECS.CreateEntity()
	tr := component.NewTransform(geom.V(a.Ground.Position[0], a.Ground.Position[1], a.Ground.Position[2]))
	s.MapMarkers.Set(g, &component.MapMarker{Scale: 1})
	s.Transforms.Set(g, &tr)
	s.Replicated.Set(g, &component.Replicated{})
	s.Ground = g

	for _, t := range a.Trees {
		id := s.ECS.CreateEntity()
		ttr := component.NewTransform(t.Vec())
		s.TreeMarkers.Set(id, &component.TreeMarker{})
		s.Transforms.Set(id, &ttr)
		s.Replicated.Set(id, &component.Replicated{})
		if s.Physics != nil {
			s.Physics.AddObstacle(t.Vec(), t.Radius)
		}
	}
	s.log.Info("競技場已生成",
		zap.Float64("half_extent", a.Ground.HalfExtent),
		zap.Int("trees", len(a.Trees)),
	)
}
