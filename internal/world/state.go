package world

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/arenago/server/internal/grid"
)

// State tracks every actor currently in-world and owns the spatial index
// over them. Single-goroutine access only (simulation loop).
type State struct {
	log  *zap.Logger
	pool *actorPool

	actors map[ActorID]*Actor
	byName map[string]*Actor
	list   []*Actor // stable iteration order for tick systems

	grid *grid.Index

	despawnQueue []ActorID

	tick uint64

	// 可重用查詢 buffer（模擬迴圈單線程，無需鎖）
	hitBuf []grid.Hit
}

// NewState wires the world to an explicitly constructed grid index. One
// grid per world; nothing here is a process-wide singleton.
func NewState(ix *grid.Index, log *zap.Logger) *State {
	if log == nil {
		log = zap.NewNop()
	}
	return &State{
		log:    log,
		pool:   newActorPool(),
		actors: make(map[ActorID]*Actor),
		byName: make(map[string]*Actor),
		grid:   ix,
	}
}

// Grid exposes the spatial index for read-side consumers (AI targeting,
// projectile prediction, diagnostics).
func (s *State) Grid() *grid.Index { return s.grid }

// AdvanceTick bumps the simulation tick counter. Called once per loop
// iteration before any system runs.
func (s *State) AdvanceTick() uint64 {
	s.tick++
	return s.tick
}

// TickNo returns the current simulation tick number.
func (s *State) TickNo() uint64 { return s.tick }

// AllocID hands out a fresh actor identity.
func (s *State) AllocID() ActorID { return s.pool.create() }

// AddActor registers a fully built actor in the world and the grid.
// The actor must carry an ID from AllocID and must not already be present.
func (s *State) AddActor(a *Actor) error {
	if a.ID.IsZero() || !s.pool.alive(a.ID) {
		return fmt.Errorf("world: actor %q has no valid id", a.Name)
	}
	if _, dup := s.actors[a.ID]; dup {
		return fmt.Errorf("world: actor %d already in-world", a.ID)
	}
	meta := grid.Meta{Faction: a.Faction, Kind: a.Kind}
	if err := s.grid.Register(uint64(a.ID), a, meta); err != nil {
		return fmt.Errorf("world: add actor %d: %w", a.ID, err)
	}
	s.actors[a.ID] = a
	if a.Name != "" {
		s.byName[a.Name] = a
	}
	s.list = append(s.list, a)
	return nil
}

// RemoveActor takes an actor out of the world immediately and reclaims its
// identity. Safe on unknown ids.
func (s *State) RemoveActor(id ActorID) *Actor {
	a, ok := s.actors[id]
	if !ok {
		return nil
	}
	s.grid.Unregister(uint64(id))
	delete(s.actors, id)
	if a.Name != "" {
		delete(s.byName, a.Name)
	}
	for i, x := range s.list {
		if x.ID == id {
			s.list[i] = s.list[len(s.list)-1]
			s.list = s.list[:len(s.list)-1]
			break
		}
	}
	s.pool.destroy(id)
	return a
}

// MarkDespawn queues an actor for removal at the cleanup phase. Systems
// iterating the actor list this tick keep seeing a consistent world.
func (s *State) MarkDespawn(id ActorID) {
	s.despawnQueue = append(s.despawnQueue, id)
}

// FlushDespawns removes every queued actor. Called once per tick by the
// cleanup system.
func (s *State) FlushDespawns() int {
	n := 0
	for _, id := range s.despawnQueue {
		if s.RemoveActor(id) != nil {
			n++
		}
	}
	s.despawnQueue = s.despawnQueue[:0]
	return n
}

// Get returns an in-world actor by id, or nil.
func (s *State) Get(id ActorID) *Actor { return s.actors[id] }

// GetByName returns an in-world actor by name, or nil.
func (s *State) GetByName(name string) *Actor { return s.byName[name] }

// Alive reports whether the id refers to a live, in-world actor.
func (s *State) Alive(id ActorID) bool {
	if !s.pool.alive(id) {
		return false
	}
	a := s.actors[id]
	return a != nil && !a.Dead
}

// Count returns the number of actors in-world, corpses included.
func (s *State) Count() int { return len(s.actors) }

// Actors returns the actor list for tick iteration. Callers must not
// add or remove actors while ranging; use MarkDespawn instead.
func (s *State) Actors() []*Actor { return s.list }

// MoveActor applies a position change. All actor movement MUST go through
// this method: it writes the position and marks the grid dirty so the next
// scheduler flush refreshes cell membership.
func (s *State) MoveActor(a *Actor, x, y float64) {
	a.X = x
	a.Y = y
	s.grid.MarkDirty(uint64(a.ID))
}

// TickGrid drives the grid's batched relocation scheduler.
func (s *State) TickGrid(dt time.Duration) { s.grid.Tick(dt) }

// NearestEnemy finds the closest living hostile within radius of the
// actor, running one ring search per hostile faction and keeping the
// overall minimum. Equal distances resolve to the lower id.
func (s *State) NearestEnemy(a *Actor, radius float64) (*Actor, float64, bool) {
	var (
		best     *Actor
		bestDist float64
		found    bool
	)
	for _, f := range HostileFactions(a.Faction) {
		hit, ok := s.grid.Nearest(a.X, a.Y, radius, grid.Filter{
			Faction:   f,
			Exclude:   uint64(a.ID),
			AliveOnly: true,
		})
		if !ok {
			continue
		}
		cand := s.actors[ActorID(hit.ID)]
		if cand == nil {
			continue // stale grid record; the next sweep clears it
		}
		if !found || hit.Dist < bestDist || (hit.Dist == bestDist && cand.ID < best.ID) {
			best, bestDist, found = cand, hit.Dist, true
		}
	}
	return best, bestDist, found
}

// EnemiesInRange collects every living hostile within radius, nearest
// first. The returned slice is reused across calls.
func (s *State) EnemiesInRange(a *Actor, radius float64) []grid.Hit {
	s.hitBuf = s.hitBuf[:0]
	for _, f := range HostileFactions(a.Faction) {
		s.hitBuf = s.grid.InRangeInto(s.hitBuf, a.X, a.Y, radius, grid.Filter{
			Faction:   f,
			Exclude:   uint64(a.ID),
			AliveOnly: true,
		})
	}
	sortHitsByDistance(s.hitBuf)
	return s.hitBuf
}

// OccupiedNear reports whether any living actor stands within gap of the
// position. Respawn placement uses it to avoid stacking spawns.
func (s *State) OccupiedNear(x, y, gap float64) bool {
	s.hitBuf = s.grid.InRangeInto(s.hitBuf[:0], x, y, gap, grid.Filter{AliveOnly: true})
	return len(s.hitBuf) > 0
}

func sortHitsByDistance(hits []grid.Hit) {
	// Insertion sort: per-faction sub-slices arrive pre-sorted, so the
	// merged slice is nearly ordered and n stays small.
	for i := 1; i < len(hits); i++ {
		h := hits[i]
		j := i - 1
		for j >= 0 && (hits[j].Dist > h.Dist || (hits[j].Dist == h.Dist && hits[j].ID > h.ID)) {
			hits[j+1] = hits[j]
			j--
		}
		hits[j+1] = h
	}
}
