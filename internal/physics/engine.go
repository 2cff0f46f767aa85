// Package physics is the rigid-body collaborator of the simulation. The game
// systems only speak to the Engine interface: they push velocity and
// rotation intent and read transforms back after Step.
package physics

import (
	"github.com/zombrise/server/internal/core/ecs"
	"github.com/zombrise/server/internal/geom"
)

// Contact reports a body touching a static solid during the last Step.
type Contact struct {
	Body   ecs.EntityID
	Normal geom.Vec3 // horizontal push-out direction, may be zero
}

type Engine interface {
	AddBody(id ecs.EntityID, pos geom.Vec3)
	RemoveBody(id ecs.EntityID)
	AddObstacle(pos geom.Vec3, radius float64)

	Velocity(id ecs.EntityID) (geom.Vec3, bool)
	SetVelocity(id ecs.EntityID, v geom.Vec3)
	SetRotation(id ecs.EntityID, q geom.Quat)
	Transform(id ecs.EntityID) (pos geom.Vec3, rot geom.Quat, ok bool)

	// SetGroundScale resizes the arena floor; bodies outside it fall.
	SetGroundScale(scale float64)
	Step(dt float64)
	Contacts() []Contact
}

// Params tune the resolv engine. Zero values are replaced by defaults.
type Params struct {
	Gravity         float64
	LinearDamping   float64
	GroundTop       float64
	GroundHalfSize  float64
	BodyHalfSize    float64 // horizontal
	BodyHalfHeight  float64
	SpaceHalfExtent int
}

func DefaultParams() Params {
	return Params{
		Gravity:         9.81,
		LinearDamping:   0.5,
		GroundTop:       -0.5,
		GroundHalfSize:  28,
		BodyHalfSize:    0.5,
		BodyHalfHeight:  1.0,
		SpaceHalfExtent: 512,
	}
}

func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.Gravity == 0 {
		p.Gravity = d.Gravity
	}
	if p.LinearDamping == 0 {
		p.LinearDamping = d.LinearDamping
	}
	if p.GroundHalfSize == 0 {
		p.GroundHalfSize = d.GroundHalfSize
	}
	if p.BodyHalfSize == 0 {
		p.BodyHalfSize = d.BodyHalfSize
	}
	if p.BodyHalfHeight == 0 {
		p.BodyHalfHeight = d.BodyHalfHeight
	}
	if p.SpaceHalfExtent == 0 {
		p.SpaceHalfExtent = d.SpaceHalfExtent
	}
	return p
}
