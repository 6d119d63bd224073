package data

import (
	"os"
	"path/filepath"
	"testing"
)

const testArchetypes = `
archetypes:
  - id: 1
    name: Wolf
    kind: monster
    faction: wild
    hp: 60
    move_speed: 120
    attack_damage: 8
    attack_range: 24
    attack_every: 1.2
    aggro_radius: 220
    ai_script: ai_basic
    corpse_delay: 4
    respawn_delay: 12
  - id: 2
    name: Archer
    kind: hero
    faction: red
    hp: 90
    move_speed: 140
    attack_damage: 11
    attack_range: 300
    attack_every: 1.5
    ranged: true
    projectile_speed: 480
    projectile_range: 320
`

const testSpawns = `
spawns:
  - archetype: 1
    name: wolf
    x: 512
    y: 512
    count: 3
    spread: 96
  - archetype: 2
    name: archer
    x: 128
    y: 128
    count: 1
`

func writeTemp(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadArchetypeTable(t *testing.T) {
	table, err := LoadArchetypeTable(writeTemp(t, "archetypes.yaml", testArchetypes))
	if err != nil {
		t.Fatalf("LoadArchetypeTable: %v", err)
	}
	if table.Count() != 2 {
		t.Fatalf("expected 2 templates, got %d", table.Count())
	}

	wolf := table.Get(1)
	if wolf == nil {
		t.Fatalf("wolf template missing")
	}
	if wolf.Name != "Wolf" || wolf.Kind != "monster" || wolf.Faction != "wild" {
		t.Errorf("wolf tags wrong: %+v", wolf)
	}
	if wolf.AggroRadius != 220 || wolf.AttackEvery != 1.2 {
		t.Errorf("wolf numbers wrong: %+v", wolf)
	}

	archer := table.Get(2)
	if archer == nil || !archer.Ranged || archer.ProjectileSpeed != 480 {
		t.Errorf("archer ranged fields wrong: %+v", archer)
	}
	if table.Get(99) != nil {
		t.Errorf("expected nil for unknown id")
	}
}

func TestLoadSpawnTable(t *testing.T) {
	spawns, err := LoadSpawnTable(writeTemp(t, "spawns.yaml", testSpawns))
	if err != nil {
		t.Fatalf("LoadSpawnTable: %v", err)
	}
	if len(spawns) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(spawns))
	}
	if spawns[0].Archetype != 1 || spawns[0].Count != 3 || spawns[0].Spread != 96 {
		t.Errorf("first entry wrong: %+v", spawns[0])
	}
	if spawns[1].Count != 1 || spawns[1].Spread != 0 {
		t.Errorf("second entry wrong: %+v", spawns[1])
	}
}

func TestLoadMissingFiles(t *testing.T) {
	if _, err := LoadArchetypeTable("no-such-file.yaml"); err == nil {
		t.Fatalf("expected error for missing archetype file")
	}
	if _, err := LoadSpawnTable("no-such-file.yaml"); err == nil {
		t.Fatalf("expected error for missing spawn file")
	}
}
