package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/arenago/server/internal/core/event"
	coresys "github.com/arenago/server/internal/core/system"
	"github.com/arenago/server/internal/world"
)

// SweepSystem flushes the deferred despawn queue at tick end and runs the
// periodic grid consistency sweep. The sweep is a safety net: death and
// despawn both unregister eagerly, so it only finds records when some
// path forgot to. Phase 7 (Cleanup).
type SweepSystem struct {
	world *world.State
	bus   *event.Bus
	log   *zap.Logger

	every     int // sweep every N ticks; 0 disables
	tickCount int
}

func NewSweepSystem(ws *world.State, bus *event.Bus, log *zap.Logger, everyTicks int) *SweepSystem {
	return &SweepSystem{world: ws, bus: bus, log: log, every: everyTicks}
}

func (s *SweepSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *SweepSystem) Update(_ time.Duration) {
	s.world.FlushDespawns()

	if s.every <= 0 {
		return
	}
	s.tickCount++
	if s.tickCount < s.every {
		return
	}
	s.tickCount = 0

	purged := s.world.Grid().Sweep()
	if purged > 0 {
		// Eager unregistration should keep this at zero; anything else
		// means a write path bypassed KillActor/RemoveActor.
		s.log.Warn("格網清掃回收了殘留紀錄", zap.Int("purged", purged))
		event.Emit(s.bus, event.SweepCompleted{
			Purged: purged,
			Tick:   s.world.TickNo(),
		})
	}
}
