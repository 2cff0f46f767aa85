package system

import (
	"math/rand"

	"github.com/zombrise/server/internal/geom"
)

// Rules is the gameplay arithmetic the combat and spawn systems consult.
// scripting.Engine implements it on top of Lua.
type Rules interface {
	ProximityDamage(dps, dt float64) float64
	AttackDamage(base float64) float64
	ZombieSpawnPoint(rng *rand.Rand, extent, y float64) geom.Vec3
}

// DefaultRules is the built-in rule set.
type DefaultRules struct{}

func (DefaultRules) ProximityDamage(dps, dt float64) float64 { return dps * dt }
func (DefaultRules) AttackDamage(base float64) float64       { return base }

// ZombieSpawnPoint picks x and z uniformly in [-extent, extent).
func (DefaultRules) ZombieSpawnPoint(rng *rand.Rand, extent, y float64) geom.Vec3 {
	x := -extent + 2*extent*rng.Float64()
	z := -extent + 2*extent*rng.Float64()
	return geom.V(x, y, z)
}
