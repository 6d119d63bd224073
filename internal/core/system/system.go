package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseAI         Phase = iota // 0: target acquisition + scripted decisions
	PhaseMovement                // 1: apply motion, flush the grid scheduler
	PhaseCombat                  // 2: melee swings, damage, deaths
	PhaseProjectile              // 3: advance shots, collision prediction
	PhaseSpawn                   // 4: corpse timers, respawns, regen
	PhaseOutput                  // 5: telemetry frames
	PhasePersist                 // 6: battle log batch flush
	PhaseCleanup                 // 7: grid sweep + despawn queue
)

// System is the interface every simulation system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
