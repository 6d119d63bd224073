package world

import "time"

// Faction tags carried into the grid. Untagged (FactionNone) actors fight
// nobody and are targeted by nobody.
const (
	FactionNone uint8 = iota
	FactionRed
	FactionBlue
	FactionWild // hostile to both teams
)

// Kind tags carried into the grid.
const (
	KindNone uint8 = iota
	KindHero
	KindMonster
)

// Hostile reports whether faction a attacks faction b.
func Hostile(a, b uint8) bool {
	if a == FactionNone || b == FactionNone {
		return false
	}
	return a != b
}

// hostileTo lists the factions each faction may target; query loops walk it.
var hostileTo = map[uint8][]uint8{
	FactionRed:  {FactionBlue, FactionWild},
	FactionBlue: {FactionRed, FactionWild},
	FactionWild: {FactionRed, FactionBlue},
}

// HostileFactions returns the factions f may target. Shared slice, do not mutate.
func HostileFactions(f uint8) []uint8 {
	return hostileTo[f]
}

// Actor holds in-memory data for one combatant in-world.
// Accessed only from the simulation goroutine — no locks needed.
type Actor struct {
	ID        ActorID
	Name      string
	Archetype int32 // template ID from the archetype table, 0 = none
	Faction   uint8
	Kind      uint8

	X, Y float64
	// Spawn anchor: respawn target and wander tether.
	SpawnX, SpawnY float64

	HP    int32
	MaxHP int32

	MoveSpeed   float64 // world units per second
	AttackDamage int32
	AttackRange  float64
	AggroRadius  float64
	AttackEvery  time.Duration // cooldown between swings

	// Ranged attackers launch projectiles instead of swinging.
	Ranged          bool
	ProjectileSpeed float64
	ProjectileRange float64

	HPRegen    int32         // HP restored per regen pulse, 0 = none
	RegenTimer time.Duration // counts down to the next regen pulse

	Dead bool

	// AI bookkeeping.
	AIScript    string
	AggroTarget ActorID
	ThreatList  map[ActorID]int32 // damage taken per attacker
	AttackTimer time.Duration     // counts down to the next allowed swing
	WanderTimer time.Duration     // counts down to the next wander impulse
	WanderDirX  float64
	WanderDirY  float64

	// Death/respawn phase durations from the archetype table.
	CorpseDelay  time.Duration
	RespawnDelay time.Duration

	// Death/respawn phase timers, driven by the respawn system.
	// CorpseTimer > 0: corpse on the ground, not yet removed.
	// RespawnTimer is tracked on the pending respawn record, not here.
	CorpseTimer time.Duration
}

// GridPosition is the live view the grid reads at registration and at
// scheduler flushes.
func (a *Actor) GridPosition() (float64, float64) { return a.X, a.Y }

// Alive gates liveness-filtered queries and grid sweeps.
func (a *Actor) Alive() bool { return !a.Dead }
