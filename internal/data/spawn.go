package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SpawnEntry defines where and how many actors to place at boot.
type SpawnEntry struct {
	Archetype int32   `yaml:"archetype"`
	Name      string  `yaml:"name,omitempty"` // base name, numbered when count > 1
	X         float64 `yaml:"x"`
	Y         float64 `yaml:"y"`
	Count     int     `yaml:"count"`
	Spread    float64 `yaml:"spread"` // random placement radius around (x, y)
}

type spawnListFile struct {
	Spawns []SpawnEntry `yaml:"spawns"`
}

// LoadSpawnTable loads spawn entries from a YAML file.
func LoadSpawnTable(path string) ([]SpawnEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spawns: %w", err)
	}
	var f spawnListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse spawns: %w", err)
	}
	return f.Spawns, nil
}
