package system

import (
	"time"

	coresys "github.com/arenago/server/internal/core/system"
	"github.com/arenago/server/internal/world"
)

// GridFlushSystem drives the spatial index's batched relocation scheduler
// right after the AI phase has moved actors. The index itself decides
// whether accumulated time has crossed the flush interval. Phase 1
// (Movement).
type GridFlushSystem struct {
	world *world.State
}

func NewGridFlushSystem(ws *world.State) *GridFlushSystem {
	return &GridFlushSystem{world: ws}
}

func (s *GridFlushSystem) Phase() coresys.Phase { return coresys.PhaseMovement }

func (s *GridFlushSystem) Update(dt time.Duration) {
	s.world.TickGrid(dt)
}
