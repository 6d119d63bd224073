package system

import (
	"time"

	coresys "github.com/arenago/server/internal/core/system"
	"github.com/arenago/server/internal/world"
)

// regenPulse 每次回血之間的間隔。
const regenPulse = time.Second

// RegenSystem restores HP to living actors whose archetype carries a
// regen stat. Runs every tick; per-actor timers gate the actual pulses.
// Phase 4 (Spawn), after combat has settled the tick's damage.
type RegenSystem struct {
	world *world.State
}

func NewRegenSystem(ws *world.State) *RegenSystem {
	return &RegenSystem{world: ws}
}

func (s *RegenSystem) Phase() coresys.Phase { return coresys.PhaseSpawn }

func (s *RegenSystem) Update(dt time.Duration) {
	for _, a := range s.world.Actors() {
		if a.Dead || a.HPRegen <= 0 || a.HP >= a.MaxHP {
			continue
		}
		a.RegenTimer -= dt
		if a.RegenTimer > 0 {
			continue
		}
		a.RegenTimer = regenPulse

		a.HP += a.HPRegen
		if a.HP > a.MaxHP {
			a.HP = a.MaxHP
		}
	}
}
