package replication

import (
	"github.com/zombrise/server/internal/component"
	"github.com/zombrise/server/internal/core/ecs"
	"github.com/zombrise/server/internal/net/packet"
	"github.com/zombrise/server/internal/world"
)

// componentOrder is the order components appear inside an op.
var componentOrder = []packet.ComponentID{
	packet.CompPlayer,
	packet.CompOwner,
	packet.CompHealth,
	packet.CompDamageFlash,
	packet.CompZombie,
	packet.CompTransform,
	packet.CompMapMarker,
	packet.CompTreeMarker,
	packet.CompNickname,
}

type compSet uint32

func bit(c packet.ComponentID) compSet { return 1 << (c - packet.CompPlayer) }

func (s compSet) has(c packet.ComponentID) bool { return s&bit(c) != 0 }

// view is the wire-precision state of one replicated entity.
type view struct {
	comps     compSet
	owner     uint64
	health    packet.HealthValue
	flash     float32
	transform packet.TransformValue
	mapScale  float32
	nickname  string
}

func capture(st *world.State, id ecs.EntityID) view {
	var v view
	if st.Players.Has(id) {
		v.comps |= bit(packet.CompPlayer)
	}
	if o, ok := st.Owners.Get(id); ok {
		v.comps |= bit(packet.CompOwner)
		v.owner = uint64(o.Client)
	}
	if h, ok := st.Healths.Get(id); ok {
		v.comps |= bit(packet.CompHealth)
		v.health = packet.HealthValue{Current: float32(h.Current), Max: float32(h.Max)}
	}
	if f, ok := st.Flashes.Get(id); ok {
		v.comps |= bit(packet.CompDamageFlash)
		v.flash = float32(f.Timer)
	}
	if st.Zombies.Has(id) {
		v.comps |= bit(packet.CompZombie)
	}
	if t, ok := st.Transforms.Get(id); ok {
		v.comps |= bit(packet.CompTransform)
		v.transform = transformValue(t)
	}
	if m, ok := st.MapMarkers.Get(id); ok {
		v.comps |= bit(packet.CompMapMarker)
		v.mapScale = float32(m.Scale)
	}
	if st.TreeMarkers.Has(id) {
		v.comps |= bit(packet.CompTreeMarker)
	}
	if n, ok := st.Nicknames.Get(id); ok {
		v.comps |= bit(packet.CompNickname)
		v.nickname = n.Name
	}
	return v
}

func transformValue(t *component.Transform) packet.TransformValue {
	return packet.TransformValue{
		Position: [3]float32{float32(t.Position.X), float32(t.Position.Y), float32(t.Position.Z)},
		Rotation: [4]float32{float32(t.Rotation.X), float32(t.Rotation.Y), float32(t.Rotation.Z), float32(t.Rotation.W)},
		Scale:    [3]float32{float32(t.Scale.X), float32(t.Scale.Y), float32(t.Scale.Z)},
	}
}

// value encodes component c of v. Markers carry no body.
func (v *view) value(c packet.ComponentID) packet.ComponentValue {
	var body any
	switch c {
	case packet.CompOwner:
		body = packet.OwnerValue{Client: v.owner}
	case packet.CompHealth:
		body = v.health
	case packet.CompDamageFlash:
		body = packet.FlashValue{Timer: v.flash}
	case packet.CompTransform:
		body = v.transform
	case packet.CompMapMarker:
		body = packet.MapMarkerValue{Scale: v.mapScale}
	case packet.CompNickname:
		body = packet.NicknameValue{Name: v.nickname}
	default:
		return packet.ComponentValue{ID: c}
	}
	raw, err := packet.MarshalValue(body)
	if err != nil {
		// Fixed-shape structs; msgpack cannot fail on them.
		return packet.ComponentValue{ID: c}
	}
	return packet.ComponentValue{ID: c, Value: raw}
}

// values encodes every component in set, in componentOrder.
func (v *view) values(set compSet) []packet.ComponentValue {
	var out []packet.ComponentValue
	for _, c := range componentOrder {
		if set.has(c) {
			out = append(out, v.value(c))
		}
	}
	return out
}

// structuralChanges lists components whose reliable-class value differs
// between sent and cur. Both views must contain c.
func structuralChanges(sent, cur *view, common compSet) compSet {
	var out compSet
	if common.has(packet.CompOwner) && sent.owner != cur.owner {
		out |= bit(packet.CompOwner)
	}
	if common.has(packet.CompHealth) {
		died := cur.health.Current == 0 && sent.health.Current != 0
		if died || sent.health.Max != cur.health.Max {
			out |= bit(packet.CompHealth)
		}
	}
	if common.has(packet.CompMapMarker) && sent.mapScale != cur.mapScale {
		out |= bit(packet.CompMapMarker)
	}
	if common.has(packet.CompNickname) && sent.nickname != cur.nickname {
		out |= bit(packet.CompNickname)
	}
	return out
}
