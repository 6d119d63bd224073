package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/arenago/server/internal/core/event"
	coresys "github.com/arenago/server/internal/core/system"
	"github.com/arenago/server/internal/data"
	"github.com/arenago/server/internal/world"
)

// respawnGap 重生點淨空半徑：半徑內有活人就往外找位置。
const respawnGap = 8.0

// pendingRespawn 是一筆等待重生的紀錄。舊角色已移出世界，重生會配發
// 全新的世代 ID，任何殘留的舊引用自然失效。
type pendingRespawn struct {
	archetype int32
	name      string
	x, y      float64
	timer     time.Duration
}

// RespawnSystem processes corpse timers and respawn timers each tick.
// Flow: actor dies → corpse lingers for CorpseDelay → removed from the
// world → RespawnDelay counts down → a fresh actor spawns at the spawn
// anchor. Phase 4 (Spawn).
type RespawnSystem struct {
	world      *world.State
	archetypes *data.ArchetypeTable
	bus        *event.Bus
	log        *zap.Logger

	pending []pendingRespawn
}

func NewRespawnSystem(ws *world.State, archetypes *data.ArchetypeTable, bus *event.Bus, log *zap.Logger) *RespawnSystem {
	return &RespawnSystem{world: ws, archetypes: archetypes, bus: bus, log: log}
}

func (s *RespawnSystem) Phase() coresys.Phase { return coresys.PhaseSpawn }

// Pending returns the number of queued respawns.
func (s *RespawnSystem) Pending() int { return len(s.pending) }

func (s *RespawnSystem) Update(dt time.Duration) {
	// Phase 1: corpse timers — 屍體停留結束 → 移出世界，排入重生
	for _, a := range s.world.Actors() {
		if !a.Dead {
			continue
		}
		a.CorpseTimer -= dt
		if a.CorpseTimer > 0 {
			continue
		}
		s.world.MarkDespawn(a.ID)
		if a.RespawnDelay > 0 && a.Archetype != 0 {
			s.pending = append(s.pending, pendingRespawn{
				archetype: a.Archetype,
				name:      a.Name,
				x:         a.SpawnX,
				y:         a.SpawnY,
				timer:     a.RespawnDelay,
			})
		}
	}

	// Phase 2: respawn timers
	waiting := s.pending[:0]
	for i := range s.pending {
		p := &s.pending[i]
		p.timer -= dt
		if p.timer > 0 {
			waiting = append(waiting, *p)
			continue
		}
		s.respawn(*p)
	}
	s.pending = waiting
}

func (s *RespawnSystem) respawn(p pendingRespawn) {
	tpl := s.archetypes.Get(p.archetype)
	if tpl == nil {
		s.log.Warn("重生找不到原型", zap.Int32("archetype", p.archetype), zap.String("name", p.name))
		return
	}

	x, y := s.freeSpotNear(p.x, p.y)
	a, err := s.world.SpawnFromTemplate(tpl, p.name, x, y)
	if err != nil {
		s.log.Error("重生失敗", zap.String("name", p.name), zap.Error(err))
		return
	}

	event.Emit(s.bus, event.ActorSpawned{
		ID:      a.ID,
		Name:    a.Name,
		Faction: a.Faction,
		Kind:    a.Kind,
		X:       a.X,
		Y:       a.Y,
	})
}

// freeSpotNear finds an unoccupied spot at or around the spawn anchor.
// 螺旋外推：半徑 1~3 圈、每圈 8 方位，找不到就原地疊放。
func (s *RespawnSystem) freeSpotNear(x, y float64) (float64, float64) {
	if !s.world.OccupiedNear(x, y, respawnGap) {
		return x, y
	}
	for r := 1; r <= 3; r++ {
		d := float64(r) * respawnGap
		for _, dir := range spawnProbeDirs {
			tx, ty := x+dir[0]*d, y+dir[1]*d
			if !s.world.OccupiedNear(tx, ty, respawnGap) {
				return tx, ty
			}
		}
	}
	return x, y
}

var spawnProbeDirs = [8][2]float64{
	{0, -1}, {1, -1}, {1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1},
}
