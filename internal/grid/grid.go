// Package grid implements a uniform cell index over a 2D world: entity
// registration, batched relocation, and proximity queries for AI targeting
// and collision prediction.
//
// Accessed only from the simulation goroutine — no locks.
package grid

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrAlreadyRegistered reports a double Register for the same identity.
	ErrAlreadyRegistered = errors.New("grid: entity already registered")
	// ErrNotRegistered reports a Relocate for an unknown identity.
	ErrNotRegistered = errors.New("grid: entity not registered")
)

// Locatable is the live view an entity's owner exposes to the grid. The
// grid caches position at register/flush time; Alive gates sweep and
// liveness-filtered queries.
type Locatable interface {
	GridPosition() (x, y float64)
	Alive() bool
}

// Meta carries the tags queries filter on. Zero values mean "untagged".
type Meta struct {
	Faction uint8
	Kind    uint8
}

// record is the grid's cached view of one tracked entity. Updated in
// place, never replaced.
type record struct {
	id      uint64
	x, y    float64
	cell    CellCoord
	meta    Meta
	src     Locatable
	updated time.Time
}

// Index is the unified spatial grid: cell store, reverse entity index,
// query engine and update scheduler in one explicitly constructed value.
// One Index per world; pass it to the subsystems that need it.
type Index struct {
	mapper mapper
	log    *zap.Logger

	cells   map[CellCoord]map[uint64]*record // cell → resident records
	entries map[uint64]*record               // id → record, O(1) reverse lookup

	capWarn int
	warned  map[CellCoord]struct{} // cells already warned about overflow

	// scheduler state, see scheduler.go
	pending  []uint64
	pendSet  map[uint64]struct{}
	interval time.Duration
	accum    time.Duration

	stats Snapshot
}

// Snapshot is a point-in-time statistics view for diagnostics.
type Snapshot struct {
	Cells     int
	Entities  int
	Pending   int
	Queries   uint64
	Relocates uint64
	Flushes   uint64
	Purged    uint64
}

// NewIndex builds an empty grid index. Configuration errors (non-positive
// cell size, missing bounds with clamping on) are reported here, loudly.
func NewIndex(cfg Config, log *zap.Logger) (*Index, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Index{
		mapper:   newMapper(cfg),
		log:      log,
		cells:    make(map[CellCoord]map[uint64]*record),
		entries:  make(map[uint64]*record),
		capWarn:  cfg.CellCapacityWarn,
		warned:   make(map[CellCoord]struct{}),
		pendSet:  make(map[uint64]struct{}),
		interval: cfg.FlushInterval,
	}, nil
}

// Register starts tracking an entity. The initial cached position is read
// from src. The entity is discoverable by queries immediately. Registering
// an identity that is already tracked is a usage error.
func (ix *Index) Register(id uint64, src Locatable, meta Meta) error {
	if _, dup := ix.entries[id]; dup {
		return fmt.Errorf("%w: id %d", ErrAlreadyRegistered, id)
	}
	x, y := src.GridPosition()
	rec := &record{
		id:      id,
		x:       x,
		y:       y,
		cell:    ix.mapper.cell(x, y),
		meta:    meta,
		src:     src,
		updated: time.Now(),
	}
	ix.entries[id] = rec
	ix.insert(rec)
	return nil
}

// Unregister stops tracking an entity. Safe to call for identities that
// were never registered; teardown paths call it defensively.
func (ix *Index) Unregister(id uint64) {
	rec, ok := ix.entries[id]
	if !ok {
		return
	}
	ix.remove(rec)
	delete(ix.entries, id)
	// Clear the dirty mark; the queued slot is skipped at flush.
	delete(ix.pendSet, id)
}

// Relocate moves an entity's cached position. The cell membership only
// changes when the position crosses a cell edge; same-cell moves refresh
// the cache and nothing else, which keeps small per-frame movements cheap.
func (ix *Index) Relocate(id uint64, x, y float64) error {
	rec, ok := ix.entries[id]
	if !ok {
		return fmt.Errorf("%w: id %d", ErrNotRegistered, id)
	}
	ix.relocate(rec, x, y)
	return nil
}

func (ix *Index) relocate(rec *record, x, y float64) {
	rec.x, rec.y = x, y
	rec.updated = time.Now()
	ix.stats.Relocates++
	next := ix.mapper.cell(x, y)
	if next == rec.cell {
		return
	}
	ix.remove(rec)
	rec.cell = next
	ix.insert(rec)
}

func (ix *Index) insert(rec *record) {
	cell := ix.cells[rec.cell]
	if cell == nil {
		cell = make(map[uint64]*record)
		ix.cells[rec.cell] = cell
	}
	cell[rec.id] = rec
	if ix.capWarn > 0 && len(cell) > ix.capWarn {
		if _, done := ix.warned[rec.cell]; !done {
			ix.warned[rec.cell] = struct{}{}
			ix.log.Warn("grid cell over soft capacity",
				zap.Int("col", rec.cell.Col), zap.Int("row", rec.cell.Row),
				zap.Int("count", len(cell)), zap.Int("ceiling", ix.capWarn))
		}
	}
}

func (ix *Index) remove(rec *record) {
	cell := ix.cells[rec.cell]
	if cell == nil {
		return
	}
	delete(cell, rec.id)
	if len(cell) == 0 {
		delete(ix.cells, rec.cell)
		delete(ix.warned, rec.cell)
	} else if ix.capWarn > 0 && len(cell) <= ix.capWarn {
		delete(ix.warned, rec.cell)
	}
}

// Sweep drops every tracked entity whose live view reports dead. Stale
// records are expected — owners may destroy entities without unregistering
// — so this is routine cleanup, not an error path. Returns the purge count.
func (ix *Index) Sweep() int {
	var doomed []uint64
	for id, rec := range ix.entries {
		if rec.src == nil || !rec.src.Alive() {
			doomed = append(doomed, id)
		}
	}
	for _, id := range doomed {
		ix.Unregister(id)
	}
	ix.stats.Purged += uint64(len(doomed))
	return len(doomed)
}

// Stats returns a snapshot of the index counters.
func (ix *Index) Stats() Snapshot {
	s := ix.stats
	s.Cells = len(ix.cells)
	s.Entities = len(ix.entries)
	s.Pending = len(ix.pending)
	return s
}

// Contains reports whether an identity is currently tracked.
func (ix *Index) Contains(id uint64) bool {
	_, ok := ix.entries[id]
	return ok
}
