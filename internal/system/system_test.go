package system

import (
	"io"
	"math"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/zombrise/server/internal/component"
	"github.com/zombrise/server/internal/config"
	"github.com/zombrise/server/internal/core/ecs"
	"github.com/zombrise/server/internal/core/event"
	coresys "github.com/zombrise/server/internal/core/system"
	"github.com/zombrise/server/internal/data"
	"github.com/zombrise/server/internal/geom"
	"github.com/zombrise/server/internal/handler"
	"github.com/zombrise/server/internal/net"
	"github.com/zombrise/server/internal/net/packet"
	"github.com/zombrise/server/internal/physics"
	"github.com/zombrise/server/internal/replication"
	"github.com/zombrise/server/internal/world"
)

const dt = time.Second / 60

// stubEngine integrates velocity without gravity, so positions only move
// when a system asks them to.
type stubEngine struct {
	bodies   map[ecs.EntityID]*stubBody
	scale    float64
	contacts []physics.Contact
}

type stubBody struct {
	pos, vel geom.Vec3
	rot      geom.Quat
}

func newStubEngine() *stubEngine {
	return &stubEngine{bodies: make(map[ecs.EntityID]*stubBody), scale: 1}
}

func (e *stubEngine) AddBody(id ecs.EntityID, pos geom.Vec3) {
	e.bodies[id] = &stubBody{pos: pos, rot: geom.Identity}
}

func (e *stubEngine) AddObstacle(geom.Vec3, float64) {}

func (e *stubEngine) RemoveBody(id ecs.EntityID)   { delete(e.bodies, id) }
func (e *stubEngine) SetGroundScale(scale float64) { e.scale = scale }
func (e *stubEngine) Contacts() []physics.Contact  { return e.contacts }

func (e *stubEngine) SetRotation(id ecs.EntityID, q geom.Quat) {
	if b, ok := e.bodies[id]; ok {
		b.rot = q
	}
}

func (e *stubEngine) Velocity(id ecs.EntityID) (geom.Vec3, bool) {
	b, ok := e.bodies[id]
	if !ok {
		return geom.Vec3{}, false
	}
	return b.vel, true
}

func (e *stubEngine) SetVelocity(id ecs.EntityID, v geom.Vec3) {
	if b, ok := e.bodies[id]; ok {
		b.vel = v
	}
}

func (e *stubEngine) Transform(id ecs.EntityID) (geom.Vec3, geom.Quat, bool) {
	b, ok := e.bodies[id]
	if !ok {
		return geom.Vec3{}, geom.Quat{}, false
	}
	return b.pos, b.rot, true
}

func (e *stubEngine) Step(dt float64) {
	for _, b := range e.bodies {
		b.pos = b.pos.Add(b.vel.Scale(dt))
	}
}

func (e *stubEngine) place(id ecs.EntityID, pos geom.Vec3) {
	e.bodies[id].pos = pos
}

// idleConn never yields input. Sessions built on it are never started, so
// tests read OutQueue directly.
type idleConn struct{ closed chan struct{} }

func (c *idleConn) ReadPacket(time.Duration) ([]byte, error) {
	<-c.closed
	return nil, io.EOF
}

func (c *idleConn) WritePacket([]byte, time.Duration) error { return nil }
func (c *idleConn) RemoteAddr() string                      { return "test" }
func (c *idleConn) Close() error                            { return nil }

type chanSource struct {
	ch       chan *net.Session
	released []uint64
}

func (s *chanSource) NewSessions() <-chan *net.Session { return s.ch }
func (s *chanSource) Release(id uint64)                { s.released = append(s.released, id) }

type harness struct {
	t       *testing.T
	cfg     *config.Config
	engine  *stubEngine
	world   *world.State
	store   *net.SessionStore
	encoder *replication.Encoder
	source  *chanSource
	nextID  uint64

	input   *InputSystem
	move    *MovementSystem
	phys    *PhysicsSystem
	ai      *ZombieAISystem
	combat  *CombatSystem
	life    *LifecycleSystem
	spawn   *SpawnSystem
	arena   *ArenaSystem
	cleanup *CleanupSystem
	repl    *ReplicationSystem
	output  *OutputSystem
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := zap.NewNop()
	cfg := config.Default()
	eng := newStubEngine()
	ws := world.NewState(eng, 1, log)
	store := net.NewSessionStore()
	enc := replication.NewEncoder(ws, log)
	src := &chanSource{ch: make(chan *net.Session, 8)}

	reg := packet.NewRegistry(log)
	handler.RegisterAll(reg, &handler.Deps{Config: cfg, Log: log, World: ws, Encoder: enc})

	g := &cfg.Game
	return &harness{
		t:       t,
		cfg:     cfg,
		engine:  eng,
		world:   ws,
		store:   store,
		encoder: enc,
		source:  src,
		input:   NewInputSystem(src, reg, store, ws, enc, cfg, log),
		move:    NewMovementSystem(ws, g),
		phys:    NewPhysicsSystem(ws),
		ai:      NewZombieAISystem(ws, g),
		combat:  NewCombatSystem(ws, g, DefaultRules{}, log),
		life:    NewLifecycleSystem(ws, g, log),
		spawn:   NewSpawnSystem(ws, g, DefaultRules{}, log),
		arena:   NewArenaSystem(ws, g, log),
		cleanup: NewCleanupSystem(ws, log),
		repl:    NewReplicationSystem(ws, store, enc, log),
		output:  NewOutputSystem(ws, store, enc, log),
	}
}

// connect admits a session through the input phase and returns it with its
// player entity.
func (h *harness) connect() (*net.Session, ecs.EntityID) {
	h.t.Helper()
	h.nextID++
	sess := net.NewSession(&idleConn{closed: make(chan struct{})}, h.nextID,
		net.SessionOptions{InQueueSize: 8, OutQueueSize: 64}, zap.NewNop())
	h.source.ch <- sess
	h.input.Update(dt)
	id, ok := h.world.PlayerOf(component.ClientID(sess.ID))
	if !ok {
		h.t.Fatal("connect did not spawn a player")
	}
	return sess, id
}

// tail runs the phases after combat.
func (h *harness) tail() {
	h.life.Update(dt)
	h.cleanup.Update(dt)
	h.repl.Update(dt)
	h.output.Update(dt)
}

func (h *harness) zombieAt(pos geom.Vec3) ecs.EntityID {
	return h.world.SpawnZombie(pos)
}

func (h *harness) setPos(id ecs.EntityID, pos geom.Vec3) {
	tr, _ := h.world.Transforms.Get(id)
	tr.Position = pos
	h.engine.place(id, pos)
}

func drainOut(sess *net.Session) [][]byte {
	var out [][]byte
	for {
		select {
		case p := <-sess.OutQueue:
			out = append(out, p)
		default:
			return out
		}
	}
}

func decodeReliable(t *testing.T, pkt []byte) *packet.ReliableFrame {
	t.Helper()
	r := packet.NewReader(pkt)
	if r.Opcode() != packet.S_OPCODE_RELIABLE {
		t.Fatalf("opcode %d, want reliable", r.Opcode())
	}
	var f packet.ReliableFrame
	if err := r.Decode(&f); err != nil {
		t.Fatal(err)
	}
	return &f
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestConnectSendsWelcomeThenSpawns(t *testing.T) {
	h := newHarness(t)
	sess, id := h.connect()
	h.tail()

	out := drainOut(sess)
	if len(out) != 2 {
		t.Fatalf("got %d packets, want welcome + reliable", len(out))
	}
	if out[0][0] != packet.S_OPCODE_WELCOME {
		t.Fatalf("first packet opcode %d", out[0][0])
	}
	var w packet.Welcome
	if err := packet.NewReader(out[0]).Decode(&w); err != nil {
		t.Fatal(err)
	}
	if w.ClientID != sess.ID || w.TickHz != 60 || w.Tick != 1 {
		t.Fatalf("welcome = %+v", w)
	}
	f := decodeReliable(t, out[1])
	found := false
	for _, op := range f.Ops {
		if op.Kind != packet.OpSpawn {
			t.Fatalf("unexpected op kind %d in first frame", op.Kind)
		}
		if op.Entity == uint64(id) {
			found = true
		}
	}
	if !found {
		t.Fatal("own player not spawned")
	}
}

func TestProximityDamageOverOneSecond(t *testing.T) {
	h := newHarness(t)
	_, pid := h.connect()
	h.setPos(pid, geom.V(0, 1, 0))
	h.zombieAt(geom.V(0.5, 1, 0))

	for i := 0; i < 60; i++ {
		h.combat.Update(dt)
	}
	hp, _ := h.world.Healths.Get(pid)
	if math.Abs(hp.Current-90) > 1e-6 {
		t.Fatalf("health = %v, want 90", hp.Current)
	}
	f, _ := h.world.Flashes.Get(pid)
	if !near(f.Timer, 0.3) {
		t.Fatalf("flash = %v, want 0.3", f.Timer)
	}
}

func TestFlashCountsDownToZero(t *testing.T) {
	h := newHarness(t)
	_, pid := h.connect()
	f, _ := h.world.Flashes.Get(pid)
	f.Trigger(0.3)
	for i := 0; i < 30; i++ {
		h.combat.Update(dt)
	}
	if f.Timer != 0 {
		t.Fatalf("flash = %v after 0.5s", f.Timer)
	}
}

func TestAttackKillsZombiesInRangeOnce(t *testing.T) {
	h := newHarness(t)
	sess, pid := h.connect()
	h.setPos(pid, geom.V(0, 1, 0))
	close1 := h.zombieAt(geom.V(1, 1, 0))
	far := h.zombieAt(geom.V(3, 1, 0))

	kills := 0
	event.Subscribe(h.world.Bus, func(event.ZombieKilled) { kills++ })

	client := component.ClientID(sess.ID)
	h.world.Commands.Attack(client)
	h.world.Commands.Attack(client)
	h.combat.Update(dt)
	h.tail()

	if h.world.ECS.Alive(close1) {
		t.Fatal("zombie at distance 1 survived")
	}
	if !h.world.ECS.Alive(far) {
		t.Fatal("zombie at distance 3 killed")
	}
	if kills != 1 {
		t.Fatalf("ZombieKilled emitted %d times", kills)
	}
	if len(h.world.Commands.Attacks()) != 0 {
		t.Fatal("commands not reset at end of tick")
	}
}

func TestAttackDamagesOtherPlayersOnly(t *testing.T) {
	h := newHarness(t)
	a, aid := h.connect()
	_, bid := h.connect()
	h.setPos(aid, geom.V(0, 1, 0))
	h.setPos(bid, geom.V(1, 1, 0))

	h.world.Commands.Attack(component.ClientID(a.ID))
	h.combat.Update(dt)

	ahp, _ := h.world.Healths.Get(aid)
	bhp, _ := h.world.Healths.Get(bid)
	if ahp.Current != 100 {
		t.Fatalf("attacker health = %v", ahp.Current)
	}
	if bhp.Current != 90 {
		t.Fatalf("victim health = %v, want 90", bhp.Current)
	}
	if f, _ := h.world.Flashes.Get(bid); !near(f.Timer, 0.3) {
		t.Fatalf("victim flash = %v", f.Timer)
	}
}

func TestAttackFromDeadPlayerIgnored(t *testing.T) {
	h := newHarness(t)
	sess, pid := h.connect()
	h.setPos(pid, geom.V(0, 1, 0))
	z := h.zombieAt(geom.V(1, 1, 0))
	hp, _ := h.world.Healths.Get(pid)
	hp.Apply(-hp.Max)

	h.world.Commands.Attack(component.ClientID(sess.ID))
	h.world.Commands.Attack(component.ClientID(999)) // no player
	h.combat.Update(dt)
	if h.world.ECS.PendingDestruction(z) {
		t.Fatal("dead player's attack resolved")
	}
}

func TestHealthStaysInBounds(t *testing.T) {
	h := newHarness(t)
	_, pid := h.connect()
	h.setPos(pid, geom.V(0, 1, 0))
	for i := 0; i < 40; i++ {
		h.zombieAt(geom.V(0.1, 1, 0))
	}
	for i := 0; i < 120; i++ {
		h.combat.Update(dt)
		hp, _ := h.world.Healths.Get(pid)
		if hp.Current < 0 || hp.Current > hp.Max {
			t.Fatalf("tick %d: health %v out of [0,%v]", i, hp.Current, hp.Max)
		}
	}
}

func TestDeadPlayerRemovedAndKickedInSameTick(t *testing.T) {
	h := newHarness(t)
	sess, pid := h.connect()
	watcher, _ := h.connect()
	h.tail()
	drainOut(sess)
	drainOut(watcher)

	hp, _ := h.world.Healths.Get(pid)
	hp.Apply(-1000)
	h.world.Tick++
	h.tail()

	if _, ok := h.world.PlayerOf(component.ClientID(sess.ID)); ok {
		t.Fatal("dead player still bound")
	}
	if h.world.ECS.Alive(pid) {
		t.Fatal("dead player survived the tick")
	}
	if !sess.Kicked() {
		t.Fatal("dead player's session not kicked")
	}
	if watcher.Kicked() {
		t.Fatal("bystander kicked")
	}

	out := drainOut(sess)
	if len(out) != 2 {
		t.Fatalf("got %d packets, want reliable + disconnect", len(out))
	}
	f := decodeReliable(t, out[0])
	if len(f.Ops) < 2 || f.Ops[0].Kind != packet.OpPlayerRemoved || f.Ops[0].Reason != "killed" {
		t.Fatalf("first op = %+v", f.Ops)
	}
	if f.Ops[1].Kind != packet.OpDespawn || f.Ops[1].Entity != uint64(pid) {
		t.Fatalf("second op = %+v", f.Ops[1])
	}
	var d packet.Disconnect
	r := packet.NewReader(out[1])
	if r.Opcode() != packet.S_OPCODE_DISCONNECT {
		t.Fatalf("last opcode %d", r.Opcode())
	}
	if err := r.Decode(&d); err != nil || d.Reason != "killed" {
		t.Fatalf("disconnect = %+v, %v", d, err)
	}

	wf := decodeReliable(t, drainOut(watcher)[0])
	if wf.Ops[0].Kind != packet.OpPlayerRemoved {
		t.Fatal("bystander missed removal")
	}
}

func TestFallenPlayerAndZombieRemoved(t *testing.T) {
	h := newHarness(t)
	sess, pid := h.connect()
	z := h.zombieAt(geom.V(0, 1, 0))
	h.setPos(pid, geom.V(0, -11, 0))
	zt, _ := h.world.Transforms.Get(z)
	zt.Position.Y = -20

	removed := component.RemovalReason(0)
	event.Subscribe(h.world.Bus, func(ev event.PlayerRemoved) { removed = ev.Reason })
	h.tail()

	if removed != component.RemovedFell {
		t.Fatalf("reason = %v, want fell", removed)
	}
	if h.world.ECS.Alive(pid) || h.world.ECS.Alive(z) {
		t.Fatal("fallen entities survived")
	}
	if !sess.Kicked() {
		t.Fatal("fallen player's session not kicked")
	}
}

func TestDisconnectRemovesPlayerWithoutKick(t *testing.T) {
	h := newHarness(t)
	sess, pid := h.connect()
	sess.Close()
	h.input.Update(dt)
	h.tail()

	if h.world.ECS.Alive(pid) {
		t.Fatal("player of closed session survived")
	}
	if h.store.Len() != 0 {
		t.Fatal("closed session still stored")
	}
	if len(h.source.released) != 1 || h.source.released[0] != sess.ID {
		t.Fatalf("released = %v", h.source.released)
	}
}

func TestZeroMoveKeepsPosition(t *testing.T) {
	h := newHarness(t)
	sess, pid := h.connect()
	start := geom.V(2, 1, 3)
	h.setPos(pid, start)

	for i := 0; i < 10; i++ {
		h.world.Commands.Move(component.ClientID(sess.ID), world.MoveCommand{})
		h.move.Update(dt)
		h.phys.Update(dt)
		h.world.Commands.Reset()
	}
	tr, _ := h.world.Transforms.Get(pid)
	if !tr.Position.ApproxEqual(start, 1e-12) {
		t.Fatalf("position drifted to %+v", tr.Position)
	}
}

func TestMoveRotatesByCameraYawAndJumps(t *testing.T) {
	h := newHarness(t)
	sess, pid := h.connect()
	h.world.Commands.Move(component.ClientID(sess.ID), world.MoveCommand{
		Direction: geom.V(0, 1, -1),
		CameraYaw: math.Pi / 2,
	})
	h.move.Update(dt)

	v, _ := h.engine.Velocity(pid)
	if !v.ApproxEqual(geom.V(-5, 5, 0), 1e-9) {
		t.Fatalf("velocity = %+v, want (-5,5,0)", v)
	}
	_, rot, _ := h.engine.Transform(pid)
	if facing := rot.Rotate(geom.Forward); !facing.ApproxEqual(geom.V(-1, 0, 0), 1e-9) {
		t.Fatalf("facing = %+v", facing)
	}
}

func TestMoveNoJumpWhileAirborne(t *testing.T) {
	h := newHarness(t)
	sess, pid := h.connect()
	h.engine.SetVelocity(pid, geom.V(0, -3, 0))
	h.world.Commands.Move(component.ClientID(sess.ID), world.MoveCommand{Direction: geom.V(0, 1, 0)})
	h.move.Update(dt)
	if v, _ := h.engine.Velocity(pid); v.Y != -3 {
		t.Fatalf("vy = %v, want -3", v.Y)
	}
}

func TestZombieChasesNearestPlayer(t *testing.T) {
	h := newHarness(t)
	_, pid := h.connect()
	h.setPos(pid, geom.V(0, 1, 0))
	z := h.zombieAt(geom.V(5, 1, 0))

	h.ai.Update(dt)
	v, _ := h.engine.Velocity(z)
	if !near(v.X, -2) || !near(v.Z, 0) {
		t.Fatalf("chase velocity = %+v, want (-2,_,0)", v)
	}
}

func TestZombieWandersOutOfRange(t *testing.T) {
	h := newHarness(t)
	_, pid := h.connect()
	h.setPos(pid, geom.V(0, 1, 0))
	z := h.zombieAt(geom.V(15, 1, 0))

	h.ai.Update(dt)
	v, _ := h.engine.Velocity(z)
	if s := v.Horizontal().Length(); !near(s, 2) {
		t.Fatalf("wander speed = %v, want 2", s)
	}
}

func TestPresentationDerivedFromDistance(t *testing.T) {
	g := &config.Default().Game
	cases := []struct {
		dist  float64
		found bool
		want  PresentationState
	}{
		{0, false, StateIdle},
		{1, true, StateAttacking},
		{5, true, StateWalking},
	}
	for _, c := range cases {
		if got := presentation(c.dist, c.found, g); got != c.want {
			t.Errorf("presentation(%v,%v) = %v, want %v", c.dist, c.found, got, c.want)
		}
	}
}

func TestSpawnRespectsCap(t *testing.T) {
	h := newHarness(t)
	h.spawn.Update(h.cfg.Game.SpawnInterval)
	if h.world.ZombieCount() != 1 {
		t.Fatalf("zombies = %d after one interval", h.world.ZombieCount())
	}
	z, _ := h.world.Transforms.Get(h.world.Zombies.IDs()[0])
	if math.Abs(z.Position.X) > 20 || math.Abs(z.Position.Z) > 20 || z.Position.Y != 1 {
		t.Fatalf("spawn point %+v out of bounds", z.Position)
	}

	for h.world.ZombieCount() < h.cfg.Game.ZombieCap {
		h.world.SpawnZombie(geom.V(0, 1, 0))
	}
	h.spawn.Update(h.cfg.Game.SpawnInterval)
	if h.world.ZombieCount() != 30 {
		t.Fatalf("zombies = %d, cap is 30", h.world.ZombieCount())
	}
	if h.spawn.Suppressed() != 1 {
		t.Fatalf("suppressed = %d", h.spawn.Suppressed())
	}
}

func TestArenaScalesWithPlayers(t *testing.T) {
	h := newHarness(t)
	h.world.SpawnArena(data.DefaultArena())
	h.connect()
	h.connect()
	h.arena.Update(dt)

	m, _ := h.world.MapMarkers.Get(h.world.Ground)
	if !near(m.Scale, 1.4) || !near(h.engine.scale, 1.4) {
		t.Fatalf("scale marker=%v engine=%v, want 1.4", m.Scale, h.engine.scale)
	}
}

func TestStatsCountOnlyDispatchedEvents(t *testing.T) {
	h := newHarness(t)
	stats := NewStatsSystem(h.world, h.store, h.spawn, &h.cfg.Game, time.Now().Add(-time.Minute), 0, zap.NewNop())
	sess, pid := h.connect()
	h.setPos(pid, geom.V(0, 1, 0))
	h.zombieAt(geom.V(1, 1, 0))
	h.zombieAt(geom.V(5, 1, 0))

	h.combat.Update(dt)
	h.world.Commands.Attack(component.ClientID(sess.ID))
	h.combat.Update(dt)

	if st := stats.Snapshot(); st.Hits != 0 || st.Kills != 0 {
		t.Fatalf("counted before dispatch: %+v", st)
	}
	h.tail()

	st := stats.Snapshot()
	if st.Kills != 1 || st.Hits != 2 || !near(st.DamageDealt, 2*10*dt.Seconds()) {
		t.Fatalf("kills=%d hits=%d damage=%v", st.Kills, st.Hits, st.DamageDealt)
	}
	if st.Players != 1 || st.Zombies != 1 || st.ZombiesByState[StateWalking] != 1 {
		t.Fatalf("population %+v", st)
	}
	if st.NextSpawn != h.cfg.Game.SpawnInterval || st.Uptime < time.Minute {
		t.Fatalf("next spawn %v uptime %v", st.NextSpawn, st.Uptime)
	}
}

func TestStatsLogsSpawnsAndSummary(t *testing.T) {
	h := newHarness(t)
	core, logs := observer.New(zap.InfoLevel)
	stats := NewStatsSystem(h.world, h.store, h.spawn, &h.cfg.Game, time.Now(), time.Second, zap.New(core))

	h.zombieAt(geom.V(3, 1, 4))
	h.repl.Update(dt)
	spawned := logs.FilterMessage("殭屍生成").All()
	if len(spawned) != 1 || spawned[0].ContextMap()["population"] != int64(1) {
		t.Fatalf("spawn log = %+v", spawned)
	}

	stats.Update(time.Second / 2)
	if logs.FilterMessage("伺服器狀態").Len() != 0 {
		t.Fatal("summary before the interval elapsed")
	}
	stats.Update(time.Second / 2)
	summary := logs.FilterMessage("伺服器狀態").All()
	if len(summary) != 1 || summary[0].ContextMap()["zombies"] != int64(1) {
		t.Fatalf("summary = %+v", summary)
	}
}

// TestPipelineKillAndKickSameTick drives the registered system set: a
// player at 5 health next to a zombie dies from one contact tick, is
// removed, and is kicked with the reason before the tick ends.
func TestPipelineKillAndKickSameTick(t *testing.T) {
	cfg := config.Default()
	cfg.Game.DamagePerSecond = 600
	log := zap.NewNop()
	eng := newStubEngine()
	ws := world.NewState(eng, 1, log)
	ws.SpawnArena(data.DefaultArena())
	store := net.NewSessionStore()
	enc := replication.NewEncoder(ws, log)
	src := &chanSource{ch: make(chan *net.Session, 1)}
	reg := packet.NewRegistry(log)
	handler.RegisterAll(reg, &handler.Deps{Config: cfg, Log: log, World: ws, Encoder: enc})

	runner := coresys.NewRunner()
	Register(runner, Deps{
		Config:  cfg,
		World:   ws,
		Source:  src,
		Packets: reg,
		Store:   store,
		Encoder: enc,
		Started: time.Now(),
		Log:     log,
	})

	sess := net.NewSession(&idleConn{closed: make(chan struct{})}, 1,
		net.SessionOptions{InQueueSize: 8, OutQueueSize: 64}, zap.NewNop())
	src.ch <- sess
	runner.Tick(dt)
	pid, ok := ws.PlayerOf(1)
	if !ok {
		t.Fatal("player not spawned")
	}
	if !near(eng.scale, 1.2) {
		t.Fatalf("arena scale %v with one player", eng.scale)
	}
	drainOut(sess)

	hp, _ := ws.Healths.Get(pid)
	hp.Current = 5
	z := ws.SpawnZombie(geom.V(0.5, 1, 0))

	runner.Tick(dt)

	if ws.ECS.Alive(pid) {
		t.Fatal("player survived the killing tick")
	}
	if _, ok := ws.PlayerOf(1); ok {
		t.Fatal("client still owns a player")
	}
	if !ws.ECS.Alive(z) {
		t.Fatal("zombie removed")
	}
	if !near(eng.scale, 1) {
		t.Fatalf("arena scale %v after the only player died", eng.scale)
	}
	if !sess.Kicked() {
		t.Fatal("session not kicked")
	}

	out := drainOut(sess)
	if len(out) < 2 {
		t.Fatalf("got %d packets", len(out))
	}
	last := out[len(out)-1]
	if last[0] != packet.S_OPCODE_DISCONNECT {
		t.Fatalf("last opcode %d, want disconnect", last[0])
	}
	var d packet.Disconnect
	if err := packet.NewReader(last).Decode(&d); err != nil || d.Reason != "killed" {
		t.Fatalf("disconnect = %+v, %v", d, err)
	}
	removed := false
	for _, p := range out[:len(out)-1] {
		if p[0] != packet.S_OPCODE_RELIABLE {
			continue
		}
		for _, op := range decodeReliable(t, p).Ops {
			if op.Kind == packet.OpPlayerRemoved && op.Entity == uint64(pid) && op.Reason == "killed" {
				removed = true
			}
		}
	}
	if !removed {
		t.Fatal("removal not replicated ahead of the disconnect")
	}
}
