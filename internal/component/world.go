package component

import "github.com/zombrise/server/internal/geom"

// Transform is the post-physics pose read back every tick.
type Transform struct {
	Position geom.Vec3
	Rotation geom.Quat
	Scale    geom.Vec3
}

func NewTransform(pos geom.Vec3) Transform {
	return Transform{Position: pos, Rotation: geom.Identity, Scale: geom.V(1, 1, 1)}
}

// Zombie marks an AI-driven enemy. Its behavior is recomputed every tick
// from positions, so the marker carries no state.
type Zombie struct{}

// MapMarker is the arena ground. Scale grows with the player count.
type MapMarker struct {
	Scale float64
}

// TreeMarker is a static circular obstacle.
type TreeMarker struct{}

// Replicated tags entities mirrored to clients.
type Replicated struct{}
