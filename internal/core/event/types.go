package event

import (
	"github.com/zombrise/server/internal/component"
	"github.com/zombrise/server/internal/core/ecs"
)

type PlayerSpawned struct {
	Entity ecs.EntityID
	Client component.ClientID
}

// PlayerRemoved is the single terminal signal for a player entity.
type PlayerRemoved struct {
	Entity ecs.EntityID
	Client component.ClientID
	Reason component.RemovalReason
}

type ZombieSpawned struct {
	Entity ecs.EntityID
}

type ZombieKilled struct {
	Entity ecs.EntityID
	Killer ecs.EntityID
}

type PlayerDamaged struct {
	Entity ecs.EntityID
	Amount float64
	Health float64
}
