package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput       Phase = iota // 0: connection events, drain packet queues
	PhaseMovement                 // 1: apply move intents to the physics engine
	PhasePhysics                  // 2: step physics, read transforms back
	PhaseAI                       // 3: zombie steering
	PhaseCombat                   // 4: flash countdown, proximity and action damage
	PhaseLifecycle                // 5: reap dead/fallen, spawn zombies, arena scale
	PhaseCleanup                  // 6: destroy queued entities
	PhaseReplication              // 7: diff world state per subscriber
	PhaseOutput                   // 8: flush frames, kick sessions
)

var phaseNames = [...]string{
	"input", "movement", "physics", "ai", "combat",
	"lifecycle", "cleanup", "replication", "output",
}

func (p Phase) String() string {
	if p >= 0 && int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "unknown"
}

// System is the interface every pipeline stage implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
