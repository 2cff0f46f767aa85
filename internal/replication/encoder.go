// Package replication mirrors the world to each client. Every client has a
// baseline of what it was last sent; each tick the encoder diffs the world
// against that baseline and emits two frames: a reliable frame of ordered
// structural ops and an unreliable frame of continuous fields.
package replication

import (
	"sort"

	"go.uber.org/zap"

	"github.com/zombrise/server/internal/component"
	"github.com/zombrise/server/internal/core/ecs"
	"github.com/zombrise/server/internal/core/event"
	"github.com/zombrise/server/internal/net/packet"
	"github.com/zombrise/server/internal/world"
)

// Continuous fields, resent until acknowledged.
const (
	fieldTransform = iota
	fieldHealth
	fieldFlash
	numFields
)

type entityBaseline struct {
	sent      view
	spawnTick uint64
}

type clientBaseline struct {
	entities map[ecs.EntityID]*entityBaseline
	ackTick  uint64
	lastTick uint64 // newest tick a frame was built for
}

type liveEntity struct {
	id        ecs.EntityID
	cur       view
	changedAt [numFields]uint64
}

// Encoder builds per-client frames. Game loop only.
type Encoder struct {
	st      *world.State
	clients map[component.ClientID]*clientBaseline

	tick    uint64
	live    []liveEntity
	index   map[ecs.EntityID]int
	prev    map[ecs.EntityID]liveEntity
	removed []event.PlayerRemoved

	log *zap.Logger
}

// NewEncoder subscribes to PlayerRemoved on the world bus; the events must be
// dispatched before Begin each tick.
func NewEncoder(st *world.State, log *zap.Logger) *Encoder {
	e := &Encoder{
		st:      st,
		clients: make(map[component.ClientID]*clientBaseline),
		index:   make(map[ecs.EntityID]int),
		prev:    make(map[ecs.EntityID]liveEntity),
		log:     log,
	}
	event.Subscribe(st.Bus, func(ev event.PlayerRemoved) {
		e.removed = append(e.removed, ev)
	})
	return e
}

func (e *Encoder) AddClient(id component.ClientID) {
	if _, ok := e.clients[id]; ok {
		return
	}
	e.clients[id] = &clientBaseline{entities: make(map[ecs.EntityID]*entityBaseline)}
}

func (e *Encoder) RemoveClient(id component.ClientID) {
	delete(e.clients, id)
}

// Ack records the newest tick the client applied. Acks beyond the last
// frame built for the client are clamped.
func (e *Encoder) Ack(id component.ClientID, tick uint64) {
	c, ok := e.clients[id]
	if !ok {
		return
	}
	if tick > c.lastTick {
		tick = c.lastTick
	}
	if tick > c.ackTick {
		c.ackTick = tick
	}
}

// Begin captures the world for tick. Call once per tick after cleanup.
func (e *Encoder) Begin(tick uint64) {
	e.tick = tick
	e.live = e.live[:0]
	clear(e.index)

	e.st.Replicated.Each(func(id ecs.EntityID, _ *component.Replicated) {
		le := liveEntity{id: id, cur: capture(e.st, id)}
		if p, ok := e.prev[id]; ok {
			le.changedAt = p.changedAt
			if p.cur.transform != le.cur.transform {
				le.changedAt[fieldTransform] = tick
			}
			if p.cur.health != le.cur.health {
				le.changedAt[fieldHealth] = tick
			}
			if p.cur.flash != le.cur.flash {
				le.changedAt[fieldFlash] = tick
			}
		} else {
			le.changedAt = [numFields]uint64{tick, tick, tick}
		}
		e.index[id] = len(e.live)
		e.live = append(e.live, le)
	})

	clear(e.prev)
	for _, le := range e.live {
		e.prev[le.id] = le
	}
}

// End drops this tick's removal events.
func (e *Encoder) End() {
	e.removed = e.removed[:0]
}

// Frames diffs the world against client id's baseline and advances the
// baseline. Either frame is nil when it would be empty.
func (e *Encoder) Frames(id component.ClientID) (*packet.ReliableFrame, *packet.UnreliableFrame) {
	c, ok := e.clients[id]
	if !ok {
		return nil, nil
	}
	c.lastTick = e.tick

	var removedOps, despawns, spawns, inserts, removes, updates []packet.Op

	for _, ev := range e.removed {
		if _, seen := c.entities[ev.Entity]; !seen {
			continue
		}
		removedOps = append(removedOps, packet.Op{
			Kind:   packet.OpPlayerRemoved,
			Entity: uint64(ev.Entity),
			Reason: ev.Reason.String(),
		})
	}

	gone := make([]ecs.EntityID, 0)
	for eid := range c.entities {
		if _, ok := e.index[eid]; !ok {
			gone = append(gone, eid)
		}
	}
	sort.Slice(gone, func(i, j int) bool { return gone[i] < gone[j] })
	for _, eid := range gone {
		despawns = append(despawns, packet.Op{Kind: packet.OpDespawn, Entity: uint64(eid)})
		delete(c.entities, eid)
	}

	var unreliable []packet.Update
	for i := range e.live {
		le := &e.live[i]
		b, known := c.entities[le.id]
		if !known {
			spawns = append(spawns, packet.Op{
				Kind:       packet.OpSpawn,
				Entity:     uint64(le.id),
				Components: le.cur.values(le.cur.comps),
			})
			c.entities[le.id] = &entityBaseline{sent: le.cur, spawnTick: e.tick}
			continue
		}

		added := le.cur.comps &^ b.sent.comps
		dropped := b.sent.comps &^ le.cur.comps
		common := le.cur.comps & b.sent.comps
		if added != 0 {
			inserts = append(inserts, packet.Op{
				Kind:       packet.OpInsert,
				Entity:     uint64(le.id),
				Components: le.cur.values(added),
			})
		}
		if dropped != 0 {
			var ids []packet.ComponentID
			for _, cid := range componentOrder {
				if dropped.has(cid) {
					ids = append(ids, cid)
				}
			}
			removes = append(removes, packet.Op{Kind: packet.OpRemove, Entity: uint64(le.id), Removed: ids})
		}
		if changed := structuralChanges(&b.sent, &le.cur, common); changed != 0 {
			updates = append(updates, packet.Op{
				Kind:       packet.OpUpdate,
				Entity:     uint64(le.id),
				Components: le.cur.values(changed),
			})
		}

		if b.spawnTick < e.tick {
			if u, ok := e.continuous(c, b, le, common); ok {
				unreliable = append(unreliable, u)
			}
		}
		b.sent.comps = le.cur.comps
		b.sent.owner = le.cur.owner
		b.sent.health.Max = le.cur.health.Max
		if le.cur.health.Current == 0 {
			b.sent.health.Current = 0
		}
		b.sent.mapScale = le.cur.mapScale
		b.sent.nickname = le.cur.nickname
		if added.has(packet.CompTransform) {
			b.sent.transform = le.cur.transform
		}
		if added.has(packet.CompDamageFlash) {
			b.sent.flash = le.cur.flash
		}
		if added.has(packet.CompHealth) {
			b.sent.health = le.cur.health
		}
	}

	var rel *packet.ReliableFrame
	ops := concat(removedOps, despawns, spawns, inserts, removes, updates)
	if len(ops) > 0 {
		rel = &packet.ReliableFrame{Tick: e.tick, Ops: ops}
	}
	var unrel *packet.UnreliableFrame
	if len(unreliable) > 0 {
		unrel = &packet.UnreliableFrame{Tick: e.tick, Updates: unreliable}
	}
	return rel, unrel
}

// continuous collects the unreliable fields of one entity for one client:
// a field goes out when it differs from what was last sent, or when it
// changed after the client's newest ack.
func (e *Encoder) continuous(c *clientBaseline, b *entityBaseline, le *liveEntity, common compSet) (packet.Update, bool) {
	var set compSet
	if common.has(packet.CompTransform) &&
		(b.sent.transform != le.cur.transform || le.changedAt[fieldTransform] > c.ackTick) {
		set |= bit(packet.CompTransform)
		b.sent.transform = le.cur.transform
	}
	if common.has(packet.CompHealth) && le.cur.health.Current > 0 &&
		(b.sent.health.Current != le.cur.health.Current || le.changedAt[fieldHealth] > c.ackTick) {
		set |= bit(packet.CompHealth)
		b.sent.health.Current = le.cur.health.Current
	}
	if common.has(packet.CompDamageFlash) &&
		(b.sent.flash != le.cur.flash || le.changedAt[fieldFlash] > c.ackTick) {
		set |= bit(packet.CompDamageFlash)
		b.sent.flash = le.cur.flash
	}
	if set == 0 {
		return packet.Update{}, false
	}
	return packet.Update{Entity: uint64(le.id), Components: le.cur.values(set)}, true
}

func concat(groups ...[]packet.Op) []packet.Op {
	n := 0
	for _, g := range groups {
		n += len(g)
	}
	if n == 0 {
		return nil
	}
	out := make([]packet.Op, 0, n)
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
