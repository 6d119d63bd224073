package grid

import (
	"fmt"
	"math"
	"time"
)

// Config controls cell geometry and scheduler cadence for an Index.
type Config struct {
	// CellSize is the side length of one square cell in world units.
	// Must be > 0.
	CellSize float64

	// WorldWidth/WorldHeight bound the world when ClampToBounds is set.
	// Ignored otherwise.
	WorldWidth  float64
	WorldHeight float64

	// ClampToBounds maps out-of-world positions to the nearest edge cell
	// instead of letting cell coordinates grow without bound.
	ClampToBounds bool

	// FlushInterval is how much accumulated tick time passes between
	// batched relocation flushes.
	FlushInterval time.Duration

	// CellCapacityWarn is a soft ceiling on entities per cell. Exceeding
	// it logs a warning, once per cell until the cell drains. 0 disables.
	CellCapacityWarn int
}

func (c Config) validate() error {
	if c.CellSize <= 0 {
		return fmt.Errorf("grid: cell size must be positive, got %v", c.CellSize)
	}
	if c.ClampToBounds && (c.WorldWidth <= 0 || c.WorldHeight <= 0) {
		return fmt.Errorf("grid: clamping requires positive world bounds, got %vx%v", c.WorldWidth, c.WorldHeight)
	}
	if c.FlushInterval < 0 {
		return fmt.Errorf("grid: flush interval must not be negative, got %v", c.FlushInterval)
	}
	return nil
}

// CellCoord identifies one cell. Cells are half-open squares:
// a position with x exactly on a cell edge belongs to the higher column.
type CellCoord struct {
	Col int
	Row int
}

// mapper converts world positions to cell coordinates. Pure; all state is
// fixed at construction.
type mapper struct {
	cellSize float64
	width    float64
	height   float64
	cols     int
	rows     int
	clamp    bool
}

func newMapper(cfg Config) mapper {
	m := mapper{
		cellSize: cfg.CellSize,
		width:    cfg.WorldWidth,
		height:   cfg.WorldHeight,
		clamp:    cfg.ClampToBounds,
	}
	if m.clamp {
		m.cols = int(math.Ceil(cfg.WorldWidth / cfg.CellSize))
		m.rows = int(math.Ceil(cfg.WorldHeight / cfg.CellSize))
		if m.cols < 1 {
			m.cols = 1
		}
		if m.rows < 1 {
			m.rows = 1
		}
	}
	return m
}

func (m mapper) cell(x, y float64) CellCoord {
	c := CellCoord{
		Col: int(math.Floor(x / m.cellSize)),
		Row: int(math.Floor(y / m.cellSize)),
	}
	if m.clamp {
		c.Col = clampInt(c.Col, 0, m.cols-1)
		c.Row = clampInt(c.Row, 0, m.rows-1)
	}
	return c
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// WorldToCell exposes the position→cell mapping used internally.
// Deterministic for a fixed configuration.
func (ix *Index) WorldToCell(x, y float64) CellCoord {
	return ix.mapper.cell(x, y)
}

// CellSize reports the configured cell side length.
func (ix *Index) CellSize() float64 {
	return ix.mapper.cellSize
}

// Bounds reports the configured world extents. Both are zero when the
// index was built without bounds.
func (ix *Index) Bounds() (width, height float64) {
	return ix.mapper.width, ix.mapper.height
}
