package system

import (
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/arenago/server/internal/core/event"
	"github.com/arenago/server/internal/grid"
	"github.com/arenago/server/internal/scripting"
	"github.com/arenago/server/internal/world"
)

const testTick = 100 * time.Millisecond

// newTestWorld builds a world over a small bounded grid that flushes on
// every TickGrid call, so tests never wait out a flush interval.
func newTestWorld(t *testing.T) *world.State {
	t.Helper()
	ix, err := grid.NewIndex(grid.Config{
		CellSize:      64,
		WorldWidth:    2048,
		WorldHeight:   2048,
		ClampToBounds: true,
		FlushInterval: 0,
	}, nil)
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	return world.NewState(ix, nil)
}

// newTestEngine returns an engine with no scripts loaded: damage falls
// back to the raw base value and every brain resolves to the built-in,
// which keeps combat numbers deterministic.
func newTestEngine(t *testing.T) *scripting.Engine {
	t.Helper()
	e, err := scripting.NewEngine(filepath.Join(t.TempDir(), "none"), zap.NewNop())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

// combatant fills in the stats every combat test needs; callers tweak
// fields afterwards.
func combatant(t *testing.T, ws *world.State, name string, faction uint8, x, y float64) *world.Actor {
	t.Helper()
	a := &world.Actor{
		ID:           ws.AllocID(),
		Name:         name,
		Faction:      faction,
		Kind:         world.KindHero,
		X:            x,
		Y:            y,
		SpawnX:       x,
		SpawnY:       y,
		HP:           100,
		MaxHP:        100,
		MoveSpeed:    100,
		AttackDamage: 10,
		AttackRange:  20,
		AggroRadius:  200,
		AttackEvery:  time.Second,
	}
	if err := ws.AddActor(a); err != nil {
		t.Fatalf("AddActor(%s): %v", name, err)
	}
	return a
}

// collect subscribes a capture handler for one event type.
func collect[T any](bus *event.Bus) *[]T {
	var got []T
	event.Subscribe(bus, func(e T) { got = append(got, e) })
	return &got
}

// dispatch swaps and delivers everything emitted so far.
func dispatch(bus *event.Bus) {
	bus.SwapBuffers()
	bus.DispatchAll()
}
