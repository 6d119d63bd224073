// spawnconv converts a spawn sheet (CSV, the format designers edit) into
// the spawns.yaml the server loads at boot. Rows are validated against
// the archetype table so a typo'd template ID fails here, not at startup.
//
// Produces:
//   - data/spawns.yaml — validated spawn entries, sorted
//
// Usage:
//
//	go run ./cmd/spawnconv [spawns.csv]
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/gocarina/gocsv"
	"gopkg.in/yaml.v3"

	"github.com/arenago/server/internal/data"
)

type spawnRow struct {
	Archetype int32   `csv:"archetype"`
	Name      string  `csv:"name"`
	X         float64 `csv:"x"`
	Y         float64 `csv:"y"`
	Count     int     `csv:"count"`
	Spread    float64 `csv:"spread"`
}

type spawnFile struct {
	Spawns []data.SpawnEntry `yaml:"spawns"`
}

func main() {
	inputPath := filepath.Join("data", "spawns.csv")
	outputPath := filepath.Join("data", "spawns.yaml")
	archetypePath := filepath.Join("data", "archetypes.yaml")

	if len(os.Args) >= 2 {
		inputPath = os.Args[1]
	}

	// ---- Load the archetype table for validation ----
	archetypes, err := data.LoadArchetypeTable(archetypePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading %s: %v\n", archetypePath, err)
		os.Exit(1)
	}

	// ---- Read & parse CSV ----
	f, err := os.Open(inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error reading %s: %v\n", inputPath, err)
		os.Exit(1)
	}
	defer f.Close()

	var rows []spawnRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		fmt.Fprintf(os.Stderr, "error parsing CSV: %v\n", err)
		os.Exit(1)
	}

	// ---- Validate and convert ----
	var entries []data.SpawnEntry
	skipped := 0
	for i, row := range rows {
		if archetypes.Get(row.Archetype) == nil {
			fmt.Fprintf(os.Stderr, "warning: row %d: unknown archetype %d, skipping\n", i+2, row.Archetype)
			skipped++
			continue
		}
		if row.Count <= 0 {
			fmt.Fprintf(os.Stderr, "warning: row %d: count %d, skipping\n", i+2, row.Count)
			skipped++
			continue
		}
		if row.Spread < 0 {
			row.Spread = 0
		}
		entries = append(entries, data.SpawnEntry{
			Archetype: row.Archetype,
			Name:      row.Name,
			X:         row.X,
			Y:         row.Y,
			Count:     row.Count,
			Spread:    row.Spread,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Archetype != entries[j].Archetype {
			return entries[i].Archetype < entries[j].Archetype
		}
		return entries[i].Name < entries[j].Name
	})

	// ---- Write spawns.yaml ----
	out := spawnFile{Spawns: entries}
	yamlData, err := yaml.Marshal(&out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error marshalling YAML: %v\n", err)
		os.Exit(1)
	}
	header := "# Spawn entries - converted from " + filepath.Base(inputPath) + "\n\n"
	if err := os.WriteFile(outputPath, append([]byte(header), yamlData...), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "error writing %s: %v\n", outputPath, err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %d spawn entries to %s", len(entries), outputPath)
	if skipped > 0 {
		fmt.Printf(" (%d skipped)", skipped)
	}
	fmt.Println()
}
