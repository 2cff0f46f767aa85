package physics

import (
	"math"

	"github.com/solarlune/resolv"

	"github.com/zombrise/server/internal/core/ecs"
	"github.com/zombrise/server/internal/geom"
)

const (
	tagBody  = "body"
	tagSolid = "solid"

	cellSize = 4
)

type body struct {
	obj *resolv.Object
	y   float64
	vel geom.Vec3
	rot geom.Quat
}

// ResolvEngine resolves horizontal collisions in a resolv.Space laid over the
// x/z plane and integrates y analytically against a flat ground slab. The
// space is shifted by SpaceHalfExtent so arena coordinates map to
// non-negative cells.
type ResolvEngine struct {
	p           Params
	space       *resolv.Space
	bodies      map[ecs.EntityID]*body
	order       []ecs.EntityID
	groundScale float64
	contacts    []Contact
}

func NewResolvEngine(p Params) *ResolvEngine {
	p = p.withDefaults()
	size := p.SpaceHalfExtent * 2
	return &ResolvEngine{
		p:           p,
		space:       resolv.NewSpace(size, size, cellSize, cellSize),
		bodies:      make(map[ecs.EntityID]*body),
		groundScale: 1,
	}
}

func (e *ResolvEngine) toSpace(x, z float64) (float64, float64) {
	off := float64(e.p.SpaceHalfExtent)
	return x + off, z + off
}

func (e *ResolvEngine) fromSpace(obj *resolv.Object) (float64, float64) {
	off := float64(e.p.SpaceHalfExtent)
	h := e.p.BodyHalfSize
	return obj.X + h - off, obj.Y + h - off
}

func (e *ResolvEngine) AddBody(id ecs.EntityID, pos geom.Vec3) {
	if _, ok := e.bodies[id]; ok {
		return
	}
	h := e.p.BodyHalfSize
	sx, sz := e.toSpace(pos.X, pos.Z)
	obj := resolv.NewObject(sx-h, sz-h, 2*h, 2*h, tagBody)
	obj.SetShape(resolv.NewRectangle(0, 0, 2*h, 2*h))
	obj.Data = id
	e.space.Add(obj)
	e.bodies[id] = &body{obj: obj, y: pos.Y, rot: geom.Identity}
	e.order = append(e.order, id)
}

func (e *ResolvEngine) RemoveBody(id ecs.EntityID) {
	b, ok := e.bodies[id]
	if !ok {
		return
	}
	e.space.Remove(b.obj)
	delete(e.bodies, id)
	for i, o := range e.order {
		if o == id {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
}

// AddObstacle places a static circular solid (a tree trunk).
func (e *ResolvEngine) AddObstacle(pos geom.Vec3, radius float64) {
	sx, sz := e.toSpace(pos.X, pos.Z)
	obj := resolv.NewObject(sx-radius, sz-radius, 2*radius, 2*radius, tagSolid)
	obj.SetShape(resolv.NewCircle(radius, radius, radius))
	e.space.Add(obj)
}

func (e *ResolvEngine) Velocity(id ecs.EntityID) (geom.Vec3, bool) {
	b, ok := e.bodies[id]
	if !ok {
		return geom.Zero, false
	}
	return b.vel, true
}

func (e *ResolvEngine) SetVelocity(id ecs.EntityID, v geom.Vec3) {
	if b, ok := e.bodies[id]; ok && v.Finite() {
		b.vel = v
	}
}

func (e *ResolvEngine) SetRotation(id ecs.EntityID, q geom.Quat) {
	if b, ok := e.bodies[id]; ok {
		b.rot = q
	}
}

func (e *ResolvEngine) Transform(id ecs.EntityID) (geom.Vec3, geom.Quat, bool) {
	b, ok := e.bodies[id]
	if !ok {
		return geom.Zero, geom.Identity, false
	}
	x, z := e.fromSpace(b.obj)
	return geom.V(x, b.y, z), b.rot, true
}

func (e *ResolvEngine) SetGroundScale(scale float64) {
	if scale > 0 {
		e.groundScale = scale
	}
}

func (e *ResolvEngine) Contacts() []Contact { return e.contacts }

// Step advances every body by dt seconds in insertion order.
func (e *ResolvEngine) Step(dt float64) {
	e.contacts = e.contacts[:0]
	damp := 1 / (1 + dt*e.p.LinearDamping)
	for _, id := range e.order {
		b := e.bodies[id]
		b.vel.Y -= e.p.Gravity * dt
		b.vel = b.vel.Scale(damp)

		touched := false
		var normal geom.Vec3
		if dx := b.vel.X * dt; dx != 0 {
			if c := e.solidContact(b.obj, dx, 0); c != nil {
				dx = c.X()
				normal.X = -math.Copysign(1, b.vel.X)
				b.vel.X = 0
				touched = true
			}
			b.obj.X += dx
		}
		if dz := b.vel.Z * dt; dz != 0 {
			if c := e.solidContact(b.obj, 0, dz); c != nil {
				dz = c.Y()
				normal.Z = -math.Copysign(1, b.vel.Z)
				b.vel.Z = 0
				touched = true
			}
			b.obj.Y += dz
		}
		b.obj.Update()
		if touched {
			e.contacts = append(e.contacts, Contact{Body: id, Normal: normal})
		}

		e.integrateVertical(b, dt)
	}
}

type contactVector interface {
	X() float64
	Y() float64
}

// solidContact returns the push-back for moving obj by (dx, dy) into the
// nearest solid it would overlap. resolv reports cell neighbours, so the
// candidates are filtered by an exact bounds test first.
func (e *ResolvEngine) solidContact(obj *resolv.Object, dx, dy float64) contactVector {
	check := obj.Check(dx, dy, tagSolid)
	if check == nil {
		return nil
	}
	var best contactVector
	bestDist := math.Inf(1)
	for _, s := range check.ObjectsByTags(tagSolid) {
		if !overlaps(obj, s, dx, dy) {
			continue
		}
		c := check.ContactWithObject(s)
		if d := math.Abs(c.X()) + math.Abs(c.Y()); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func overlaps(a, b *resolv.Object, dx, dy float64) bool {
	ax, ay := a.X+dx, a.Y+dy
	return ax < b.X+b.W && ax+a.W > b.X && ay < b.Y+b.H && ay+a.H > b.Y
}

func (e *ResolvEngine) integrateVertical(b *body, dt float64) {
	prevBottom := b.y - e.p.BodyHalfHeight
	b.y += b.vel.Y * dt
	if !e.overGround(b.obj) {
		return
	}
	const landSlack = 0.05
	bottom := b.y - e.p.BodyHalfHeight
	if bottom < e.p.GroundTop && prevBottom >= e.p.GroundTop-landSlack {
		b.y = e.p.GroundTop + e.p.BodyHalfHeight
		if b.vel.Y < 0 {
			b.vel.Y = 0
		}
	}
}

func (e *ResolvEngine) overGround(obj *resolv.Object) bool {
	x, z := e.fromSpace(obj)
	half := e.p.GroundHalfSize * e.groundScale
	return math.Abs(x) <= half && math.Abs(z) <= half
}
