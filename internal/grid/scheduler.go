package grid

import "time"

// Update scheduler. Movement code marks entities dirty as often as it
// likes; the index refreshes cell membership in one batch per flush
// interval. Relocating on every movement event would cost a cell
// remove/insert pair per entity per frame, while batching bounds query
// staleness by the interval and amortizes the churn.

// MarkDirty queues an entity for relocation at the next flush. Marks are
// deduplicated and flushed in first-mark order.
func (ix *Index) MarkDirty(id uint64) {
	if _, queued := ix.pendSet[id]; queued {
		return
	}
	ix.pendSet[id] = struct{}{}
	ix.pending = append(ix.pending, id)
}

// Tick advances the scheduler clock and flushes once the configured
// interval has accumulated. At most one flush happens per call; a single
// oversized dt does not trigger catch-up flushes, because flushing twice
// in a row with no movement in between is pure waste.
func (ix *Index) Tick(dt time.Duration) {
	if ix.interval <= 0 {
		ix.Flush()
		return
	}
	ix.accum += dt
	if ix.accum < ix.interval {
		return
	}
	ix.accum = 0
	ix.Flush()
}

// Flush applies every pending mark now: each dirty entity's cached
// position is refreshed from its live view and its cell updated. Entities
// that died or vanished since being marked are purged here rather than
// relocated — the scheduler is the natural place to notice staleness.
func (ix *Index) Flush() {
	if len(ix.pending) == 0 {
		return
	}
	ix.stats.Flushes++
	for _, id := range ix.pending {
		if _, queued := ix.pendSet[id]; !queued {
			continue // unregistered after being marked
		}
		rec, ok := ix.entries[id]
		if !ok {
			continue
		}
		if rec.src == nil || !rec.src.Alive() {
			ix.Unregister(id)
			ix.stats.Purged++
			continue
		}
		x, y := rec.src.GridPosition()
		ix.relocate(rec, x, y)
	}
	ix.pending = ix.pending[:0]
	clear(ix.pendSet)
}
