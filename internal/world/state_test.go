package world

import (
	"testing"
	"time"

	"github.com/arenago/server/internal/grid"
)

func newTestState(t *testing.T) *State {
	t.Helper()
	ix, err := grid.NewIndex(grid.Config{
		CellSize:      64,
		FlushInterval: 300 * time.Millisecond,
	}, nil)
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	return NewState(ix, nil)
}

func spawnTestActor(t *testing.T, s *State, name string, faction, kind uint8, x, y float64) *Actor {
	t.Helper()
	a := &Actor{
		ID:      s.AllocID(),
		Name:    name,
		Faction: faction,
		Kind:    kind,
		X:       x,
		Y:       y,
		HP:      100,
		MaxHP:   100,
	}
	if err := s.AddActor(a); err != nil {
		t.Fatalf("AddActor(%s): %v", name, err)
	}
	return a
}

func TestAddRemoveActor(t *testing.T) {
	s := newTestState(t)
	a := spawnTestActor(t, s, "grunt", FactionWild, KindMonster, 100, 100)

	if s.Get(a.ID) != a || s.GetByName("grunt") != a {
		t.Fatalf("actor not reachable by id or name")
	}
	if !s.Alive(a.ID) {
		t.Fatalf("fresh actor not alive")
	}
	if !s.Grid().Contains(uint64(a.ID)) {
		t.Fatalf("actor not registered in the grid")
	}

	s.RemoveActor(a.ID)
	if s.Get(a.ID) != nil || s.GetByName("grunt") != nil {
		t.Fatalf("actor still reachable after removal")
	}
	if s.Grid().Contains(uint64(a.ID)) {
		t.Fatalf("actor still in the grid after removal")
	}
	if s.Alive(a.ID) {
		t.Fatalf("removed actor id still alive")
	}
}

func TestAddActorRejectsDuplicatesAndBadIDs(t *testing.T) {
	s := newTestState(t)
	a := spawnTestActor(t, s, "one", FactionRed, KindHero, 0, 0)
	if err := s.AddActor(a); err == nil {
		t.Fatalf("expected duplicate add to fail")
	}
	if err := s.AddActor(&Actor{Name: "noid"}); err == nil {
		t.Fatalf("expected zero-id add to fail")
	}
}

func TestMoveActorDefersGridUpdateToFlush(t *testing.T) {
	s := newTestState(t)
	a := spawnTestActor(t, s, "walker", FactionRed, KindHero, 10, 10)
	home := s.Grid().WorldToCell(10, 10)

	s.MoveActor(a, 500, 500)
	if a.X != 500 || a.Y != 500 {
		t.Fatalf("live position not updated")
	}
	if got := s.Grid().WorldToCell(10, 10); got != home {
		t.Fatalf("sanity: home cell changed")
	}
	// Before the flush interval the grid still files the actor under its
	// old cell; crossing the interval applies the move.
	s.TickGrid(100 * time.Millisecond)
	if _, ok := s.Grid().Nearest(500, 500, 1, grid.Filter{}); ok {
		t.Fatalf("grid learned the move before the flush interval")
	}
	s.TickGrid(250 * time.Millisecond)
	hit, ok := s.Grid().Nearest(500, 500, 1, grid.Filter{})
	if !ok || hit.ID != uint64(a.ID) {
		t.Fatalf("grid did not apply the move at flush, ok=%v", ok)
	}
}

func TestNearestEnemyAcrossFactions(t *testing.T) {
	s := newTestState(t)
	red := spawnTestActor(t, s, "red", FactionRed, KindHero, 0, 0)
	spawnTestActor(t, s, "ally", FactionRed, KindHero, 5, 0)
	blue := spawnTestActor(t, s, "blue", FactionBlue, KindHero, 40, 0)
	wild := spawnTestActor(t, s, "wild", FactionWild, KindMonster, 30, 0)

	enemy, dist, ok := s.NearestEnemy(red, 200)
	if !ok {
		t.Fatalf("expected an enemy")
	}
	if enemy.ID != wild.ID {
		t.Fatalf("expected the wild monster at 30, got %q", enemy.Name)
	}
	if dist != 30 {
		t.Errorf("distance = %v, want 30", dist)
	}

	// The wild monster ignores its own faction and the nearer ally rule
	// applies across both teams.
	enemy, _, ok = s.NearestEnemy(wild, 200)
	if !ok || enemy.ID != blue.ID {
		t.Fatalf("expected blue at 10 for the monster, got %+v", enemy)
	}
}

func TestNearestEnemySkipsDeadAndSameFaction(t *testing.T) {
	s := newTestState(t)
	red := spawnTestActor(t, s, "red", FactionRed, KindHero, 0, 0)
	blue := spawnTestActor(t, s, "blue", FactionBlue, KindHero, 20, 0)
	far := spawnTestActor(t, s, "far-blue", FactionBlue, KindHero, 90, 0)

	blue.Dead = true
	enemy, _, ok := s.NearestEnemy(red, 200)
	if !ok || enemy.ID != far.ID {
		t.Fatalf("expected the living far enemy, got %+v ok=%v", enemy, ok)
	}
}

func TestEnemiesInRangeSortedAndReused(t *testing.T) {
	s := newTestState(t)
	red := spawnTestActor(t, s, "red", FactionRed, KindHero, 0, 0)
	spawnTestActor(t, s, "b1", FactionBlue, KindHero, 50, 0)
	spawnTestActor(t, s, "w1", FactionWild, KindMonster, 30, 0)
	spawnTestActor(t, s, "b2", FactionBlue, KindHero, 10, 0)

	hits := s.EnemiesInRange(red, 100)
	if len(hits) != 3 {
		t.Fatalf("expected 3 enemies, got %d", len(hits))
	}
	for i := 1; i < len(hits); i++ {
		if hits[i].Dist < hits[i-1].Dist {
			t.Fatalf("enemies not sorted by distance: %+v", hits)
		}
	}
	if hits[0].Dist != 10 || hits[2].Dist != 50 {
		t.Fatalf("unexpected distances: %+v", hits)
	}

	again := s.EnemiesInRange(red, 100)
	if len(again) != 3 {
		t.Fatalf("expected buffer reuse to return 3 enemies, got %d", len(again))
	}
}

func TestDespawnQueueFlush(t *testing.T) {
	s := newTestState(t)
	a := spawnTestActor(t, s, "a", FactionWild, KindMonster, 0, 0)
	b := spawnTestActor(t, s, "b", FactionWild, KindMonster, 10, 0)

	s.MarkDespawn(a.ID)
	s.MarkDespawn(a.ID) // double-mark is harmless
	if s.Get(a.ID) == nil {
		t.Fatalf("actor removed before flush")
	}
	if n := s.FlushDespawns(); n != 1 {
		t.Fatalf("expected 1 despawn, got %d", n)
	}
	if s.Get(a.ID) != nil || s.Get(b.ID) == nil {
		t.Fatalf("wrong actor despawned")
	}
	if len(s.Actors()) != 1 {
		t.Fatalf("actor list not compacted")
	}
}

func TestOccupiedNear(t *testing.T) {
	s := newTestState(t)
	spawnTestActor(t, s, "blocker", FactionWild, KindMonster, 100, 100)

	if !s.OccupiedNear(102, 100, 5) {
		t.Fatalf("expected spot next to the blocker to read occupied")
	}
	if s.OccupiedNear(200, 200, 5) {
		t.Fatalf("expected empty spot to read free")
	}
}

func TestHostileMatrix(t *testing.T) {
	cases := []struct {
		a, b uint8
		want bool
	}{
		{FactionRed, FactionBlue, true},
		{FactionBlue, FactionRed, true},
		{FactionRed, FactionRed, false},
		{FactionWild, FactionRed, true},
		{FactionWild, FactionBlue, true},
		{FactionWild, FactionWild, false},
		{FactionNone, FactionRed, false},
		{FactionRed, FactionNone, false},
	}
	for _, c := range cases {
		if got := Hostile(c.a, c.b); got != c.want {
			t.Errorf("Hostile(%d, %d) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}
