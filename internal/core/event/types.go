package event

import "github.com/arenago/server/internal/world"

// Simulation events. Emitted by gameplay systems, consumed one tick later
// by the battle log writer and the telemetry publisher.

type ActorSpawned struct {
	ID      world.ActorID
	Name    string
	Faction uint8
	Kind    uint8
	X, Y    float64
}

type ActorDied struct {
	ID     world.ActorID
	Name   string
	Killer world.ActorID
	X, Y   float64
	Tick   uint64
}

type DamageDealt struct {
	Attacker world.ActorID
	Target   world.ActorID
	Amount   int32
	Ranged   bool
	Tick     uint64
}

type ProjectileHit struct {
	Shooter world.ActorID
	Target  world.ActorID
	X, Y    float64
	Tick    uint64
}

// SweepCompleted reports a grid cleanup pass that purged stale records.
type SweepCompleted struct {
	Purged int
	Tick   uint64
}
