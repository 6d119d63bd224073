package world

import (
	"fmt"
	"time"

	"github.com/arenago/server/internal/data"
)

// ParseFaction maps a table faction string to its tag.
func ParseFaction(s string) (uint8, error) {
	switch s {
	case "red":
		return FactionRed, nil
	case "blue":
		return FactionBlue, nil
	case "wild":
		return FactionWild, nil
	case "", "none":
		return FactionNone, nil
	}
	return 0, fmt.Errorf("world: unknown faction %q", s)
}

// ParseKind maps a table kind string to its tag.
func ParseKind(s string) (uint8, error) {
	switch s {
	case "hero":
		return KindHero, nil
	case "monster":
		return KindMonster, nil
	case "", "none":
		return KindNone, nil
	}
	return 0, fmt.Errorf("world: unknown kind %q", s)
}

// SpawnFromTemplate builds an actor from an archetype template and places
// it in-world at (x, y). Boot spawning and respawns both come through
// here so stat wiring lives in one place.
func (s *State) SpawnFromTemplate(tpl *data.ArchetypeTemplate, name string, x, y float64) (*Actor, error) {
	faction, err := ParseFaction(tpl.Faction)
	if err != nil {
		return nil, err
	}
	kind, err := ParseKind(tpl.Kind)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = tpl.Name
	}
	a := &Actor{
		ID:              s.AllocID(),
		Name:            name,
		Archetype:       tpl.ID,
		Faction:         faction,
		Kind:            kind,
		X:               x,
		Y:               y,
		SpawnX:          x,
		SpawnY:          y,
		HP:              tpl.HP,
		MaxHP:           tpl.HP,
		MoveSpeed:       tpl.MoveSpeed,
		AttackDamage:    tpl.AttackDamage,
		AttackRange:     tpl.AttackRange,
		AggroRadius:     tpl.AggroRadius,
		AttackEvery:     secondsToDuration(tpl.AttackEvery),
		Ranged:          tpl.Ranged,
		ProjectileSpeed: tpl.ProjectileSpeed,
		ProjectileRange: tpl.ProjectileRange,
		HPRegen:         tpl.HPRegen,
		AIScript:        tpl.AIScript,
		CorpseDelay:     secondsToDuration(tpl.CorpseDelay),
		RespawnDelay:    secondsToDuration(tpl.RespawnDelay),
	}
	if err := s.AddActor(a); err != nil {
		return nil, err
	}
	return a, nil
}

// KillActor marks an actor dead and takes it out of the spatial index at
// once so no query can target the corpse. The corpse itself stays
// in-world until the respawn system removes it after CorpseDelay.
func (s *State) KillActor(a *Actor) {
	if a.Dead {
		return
	}
	a.Dead = true
	a.AggroTarget = 0
	a.ThreatList = nil
	a.CorpseTimer = a.CorpseDelay
	s.grid.Unregister(uint64(a.ID))
}

func secondsToDuration(sec float64) time.Duration {
	return time.Duration(sec * float64(time.Second))
}
