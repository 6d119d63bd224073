// gridbench exercises the spatial index under synthetic load and reports
// query latency quantiles. It drives the index directly, without the
// simulation on top, so numbers isolate grid cost from game logic.
//
// Usage:
//
//	go run ./cmd/gridbench -entities 5000 -ticks 2000
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/arenago/server/internal/grid"
)

type benchEntity struct {
	x, y float64
}

func (e *benchEntity) GridPosition() (float64, float64) { return e.x, e.y }
func (e *benchEntity) Alive() bool                      { return true }

func main() {
	entities := flag.Int("entities", 2000, "tracked entities")
	cellSize := flag.Float64("cell", 64, "cell size in world units")
	worldSize := flag.Float64("world", 4096, "square world side length")
	ticks := flag.Int("ticks", 1000, "simulated ticks")
	tickDt := flag.Duration("tick", 100*time.Millisecond, "tick duration")
	flushEvery := flag.Duration("flush", 300*time.Millisecond, "relocation flush interval")
	queries := flag.Int("queries", 200, "queries per tick")
	moveFrac := flag.Float64("move", 0.3, "fraction of entities moved per tick")
	radius := flag.Float64("radius", 150, "query radius")
	seed := flag.Int64("seed", 1, "rng seed")
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))

	ix, err := grid.NewIndex(grid.Config{
		CellSize:      *cellSize,
		WorldWidth:    *worldSize,
		WorldHeight:   *worldSize,
		ClampToBounds: true,
		FlushInterval: *flushEvery,
	}, nil)
	if err != nil {
		log.Fatalf("build index: %v", err)
	}

	// ---- Seed entities ----
	ents := make([]*benchEntity, *entities)
	for i := range ents {
		ents[i] = &benchEntity{
			x: rng.Float64() * *worldSize,
			y: rng.Float64() * *worldSize,
		}
		meta := grid.Meta{Faction: uint8(1 + rng.Intn(3)), Kind: uint8(1 + rng.Intn(2))}
		if err := ix.Register(uint64(i+1), ents[i], meta); err != nil {
			log.Fatalf("register: %v", err)
		}
	}

	// ---- Churn + query loop ----
	latencies := make([]float64, 0, *ticks**queries)
	moved := int(float64(*entities) * *moveFrac)
	start := time.Now()

	for t := 0; t < *ticks; t++ {
		for i := 0; i < moved; i++ {
			n := rng.Intn(len(ents))
			e := ents[n]
			e.x += (rng.Float64()*2 - 1) * *cellSize
			e.y += (rng.Float64()*2 - 1) * *cellSize
			clampPos(e, *worldSize)
			ix.MarkDirty(uint64(n + 1))
		}
		ix.Tick(*tickDt)

		for q := 0; q < *queries; q++ {
			qx := rng.Float64() * *worldSize
			qy := rng.Float64() * *worldSize
			f := grid.Filter{Faction: uint8(1 + rng.Intn(3))}

			qs := time.Now()
			switch q % 10 {
			case 9:
				// every tenth query traces a path
				ix.PredictPath(qx, qy, 1, 0, *radius, f)
			case 7, 8:
				var buf [64]grid.Hit
				ix.InRangeInto(buf[:0], qx, qy, *radius, f)
			default:
				ix.Nearest(qx, qy, *radius, f)
			}
			latencies = append(latencies, float64(time.Since(qs).Nanoseconds()))
		}
	}
	elapsed := time.Since(start)

	// ---- Report ----
	sort.Float64s(latencies)
	snap := ix.Stats()

	fmt.Printf("entities=%d cell=%.0f world=%.0f ticks=%d queries/tick=%d\n\n",
		*entities, *cellSize, *worldSize, *ticks, *queries)
	fmt.Printf("total time     %v\n", elapsed.Round(time.Millisecond))
	fmt.Printf("query mean     %s\n", fmtNs(stat.Mean(latencies, nil)))
	fmt.Printf("query p50      %s\n", fmtNs(stat.Quantile(0.50, stat.Empirical, latencies, nil)))
	fmt.Printf("query p95      %s\n", fmtNs(stat.Quantile(0.95, stat.Empirical, latencies, nil)))
	fmt.Printf("query p99      %s\n", fmtNs(stat.Quantile(0.99, stat.Empirical, latencies, nil)))
	fmt.Println()
	fmt.Printf("cells=%d entities=%d pending=%d\n", snap.Cells, snap.Entities, snap.Pending)
	fmt.Printf("queries=%d relocates=%d flushes=%d purged=%d\n",
		snap.Queries, snap.Relocates, snap.Flushes, snap.Purged)
}

func clampPos(e *benchEntity, size float64) {
	if e.x < 0 {
		e.x = 0
	} else if e.x > size {
		e.x = size
	}
	if e.y < 0 {
		e.y = 0
	} else if e.y > size {
		e.y = size
	}
}

func fmtNs(ns float64) string {
	return time.Duration(ns).Round(10 * time.Nanosecond).String()
}
