package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ArchetypeTemplate holds static combat data for an actor type loaded
// from YAML. Timing fields are seconds.
type ArchetypeTemplate struct {
	ID      int32  `yaml:"id"`
	Name    string `yaml:"name"`
	Kind    string `yaml:"kind"`    // "hero" or "monster"
	Faction string `yaml:"faction"` // "red", "blue" or "wild"

	HP           int32   `yaml:"hp"`
	MoveSpeed    float64 `yaml:"move_speed"` // world units per second
	AttackDamage int32   `yaml:"attack_damage"`
	AttackRange  float64 `yaml:"attack_range"`
	AttackEvery  float64 `yaml:"attack_every"` // seconds between swings
	AggroRadius  float64 `yaml:"aggro_radius"`

	AIScript string `yaml:"ai_script"` // Lua decision function, empty = built-in

	Ranged          bool    `yaml:"ranged"`
	ProjectileSpeed float64 `yaml:"projectile_speed"`
	ProjectileRange float64 `yaml:"projectile_range"`

	CorpseDelay  float64 `yaml:"corpse_delay"`  // seconds the corpse stays visible
	RespawnDelay float64 `yaml:"respawn_delay"` // seconds from removal to respawn

	HPRegen int32 `yaml:"hp_regen"` // HP restored per regen pulse
}

type archetypeListFile struct {
	Archetypes []ArchetypeTemplate `yaml:"archetypes"`
}

// ArchetypeTable holds all archetype templates indexed by ID.
type ArchetypeTable struct {
	templates map[int32]*ArchetypeTemplate
}

// LoadArchetypeTable loads archetype templates from a YAML file.
func LoadArchetypeTable(path string) (*ArchetypeTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read archetypes: %w", err)
	}
	var f archetypeListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse archetypes: %w", err)
	}
	t := &ArchetypeTable{templates: make(map[int32]*ArchetypeTemplate, len(f.Archetypes))}
	for i := range f.Archetypes {
		a := &f.Archetypes[i]
		t.templates[a.ID] = a
	}
	return t, nil
}

// Get returns an archetype template by ID, or nil if not found.
func (t *ArchetypeTable) Get(id int32) *ArchetypeTemplate {
	return t.templates[id]
}

// Count returns the number of loaded templates.
func (t *ArchetypeTable) Count() int {
	return len(t.templates)
}
