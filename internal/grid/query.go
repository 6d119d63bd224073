package grid

import (
	"math"
	"sort"
)

// Filter narrows query candidates. Zero value accepts everything. Fields
// combine with AND; matching is pure and cheap since it runs once per
// candidate per query.
type Filter struct {
	Faction   uint8  // match this faction tag; 0 = any
	Kind      uint8  // match this kind tag; 0 = any
	Exclude   uint64 // skip this identity (typically the querier itself)
	AliveOnly bool   // reject entities whose live view reports dead
}

func (f Filter) match(rec *record) bool {
	if f.Exclude != 0 && rec.id == f.Exclude {
		return false
	}
	if f.Faction != 0 && rec.meta.Faction != f.Faction {
		return false
	}
	if f.Kind != 0 && rec.meta.Kind != f.Kind {
		return false
	}
	if f.AliveOnly && (rec.src == nil || !rec.src.Alive()) {
		return false
	}
	return true
}

// Hit is one query result. Dist is the true Euclidean distance; internally
// comparisons run on squared distances and the root is taken once per
// reported hit.
type Hit struct {
	ID   uint64
	X, Y float64
	Dist float64
}

// Nearest returns the closest matching entity within maxDist of the
// origin. Cells are visited ring by ring outward from the origin's cell,
// so most queries touch a handful of cells. Equal distances resolve to the
// lower identity, which keeps target selection deterministic.
func (ix *Index) Nearest(x, y, maxDist float64, f Filter) (Hit, bool) {
	ix.stats.Queries++
	return ix.nearest(x, y, maxDist, f)
}

func (ix *Index) nearest(x, y, maxDist float64, f Filter) (Hit, bool) {
	if maxDist < 0 || len(ix.entries) == 0 {
		return Hit{}, false
	}
	origin := ix.mapper.cell(x, y)
	maxRing := int(math.Ceil(maxDist / ix.mapper.cellSize))
	maxDistSq := maxDist * maxDist

	var best *record
	bestDistSq := math.MaxFloat64
	for ring := 0; ring <= maxRing; ring++ {
		// No point in a farther ring can beat the best hit once
		// (ring-1)*cellSize exceeds it; stop expanding there.
		if best != nil {
			minD := float64(ring-1) * ix.mapper.cellSize
			if minD*minD > bestDistSq {
				break
			}
		}
		ix.visitRing(origin, ring, func(rec *record) {
			if !f.match(rec) {
				return
			}
			dx, dy := rec.x-x, rec.y-y
			distSq := dx*dx + dy*dy
			if distSq > maxDistSq {
				return
			}
			if distSq < bestDistSq || (distSq == bestDistSq && best != nil && rec.id < best.id) {
				best = rec
				bestDistSq = distSq
			}
		})
	}
	if best == nil {
		return Hit{}, false
	}
	return Hit{ID: best.id, X: best.x, Y: best.y, Dist: math.Sqrt(bestDistSq)}, true
}

// InRange returns every matching entity within radius of the origin,
// sorted ascending by distance. Callers rely on the first element being
// the nearest; ties order by identity.
func (ix *Index) InRange(x, y, radius float64, f Filter) []Hit {
	return ix.InRangeInto(nil, x, y, radius, f)
}

// InRangeInto appends results to dst and returns it, letting steady-state
// callers reuse one buffer across frames.
func (ix *Index) InRangeInto(dst []Hit, x, y, radius float64, f Filter) []Hit {
	ix.stats.Queries++
	start := len(dst)
	if radius < 0 || len(ix.entries) == 0 {
		return dst
	}
	origin := ix.mapper.cell(x, y)
	maxRing := int(math.Ceil(radius / ix.mapper.cellSize))
	radiusSq := radius * radius

	for ring := 0; ring <= maxRing; ring++ {
		ix.visitRing(origin, ring, func(rec *record) {
			if !f.match(rec) {
				return
			}
			dx, dy := rec.x-x, rec.y-y
			distSq := dx*dx + dy*dy
			if distSq > radiusSq {
				return
			}
			dst = append(dst, Hit{ID: rec.id, X: rec.x, Y: rec.y, Dist: math.Sqrt(distSq)})
		})
	}
	out := dst[start:]
	sort.Slice(out, func(i, j int) bool {
		if out[i].Dist != out[j].Dist {
			return out[i].Dist < out[j].Dist
		}
		return out[i].ID < out[j].ID
	})
	return dst
}

// PredictPath samples the ray from (x, y) along (dirX, dirY) every half
// cell and probes for the nearest match around each sample point, with a
// final probe at maxDist when the path is shorter or ends between
// samples. First hit wins. This is a deliberate undersampling trade-off:
// cheap and good enough for projectile prediction, but it can step past
// targets much thinner than half a cell. It is not continuous collision
// detection.
func (ix *Index) PredictPath(x, y, dirX, dirY, maxDist float64, f Filter) (Hit, bool) {
	ix.stats.Queries++
	norm := math.Hypot(dirX, dirY)
	if norm == 0 || maxDist <= 0 {
		return Hit{}, false
	}
	dirX, dirY = dirX/norm, dirY/norm
	step := ix.mapper.cellSize / 2
	d := step
	for ; d <= maxDist; d += step {
		hit, ok := ix.nearest(x+dirX*d, y+dirY*d, step, f)
		if ok {
			return hit, true
		}
	}
	if d-step < maxDist {
		hit, ok := ix.nearest(x+dirX*maxDist, y+dirY*maxDist, step, f)
		if ok {
			return hit, true
		}
	}
	return Hit{}, false
}

// visitRing invokes fn for every record in the cells at Chebyshev cell
// distance ring from the center. Ring 0 is the center cell itself.
func (ix *Index) visitRing(center CellCoord, ring int, fn func(*record)) {
	if ring == 0 {
		for _, rec := range ix.cells[center] {
			fn(rec)
		}
		return
	}
	for col := center.Col - ring; col <= center.Col+ring; col++ {
		for _, rec := range ix.cells[CellCoord{Col: col, Row: center.Row - ring}] {
			fn(rec)
		}
		for _, rec := range ix.cells[CellCoord{Col: col, Row: center.Row + ring}] {
			fn(rec)
		}
	}
	for row := center.Row - ring + 1; row <= center.Row+ring-1; row++ {
		for _, rec := range ix.cells[CellCoord{Col: center.Col - ring, Row: row}] {
			fn(rec)
		}
		for _, rec := range ix.cells[CellCoord{Col: center.Col + ring, Row: row}] {
			fn(rec)
		}
	}
}
