package system

import (
	"math"
	"time"

	"github.com/arenago/server/internal/core/event"
	coresys "github.com/arenago/server/internal/core/system"
	"github.com/arenago/server/internal/grid"
	"github.com/arenago/server/internal/world"
)

// projectile 是一枚飛行中的箭矢。直線飛行，不追蹤；路徑上第一個敵對
// 目標吃下命中，未必是瞄準的那個。
type projectile struct {
	shooter world.ActorID
	faction uint8 // 發射時的陣營，射手中途死亡仍沿用
	x, y    float64
	dirX    float64
	dirY    float64
	speed   float64
	left    float64 // 剩餘射程
	damage  int32
}

// ProjectileSystem advances every projectile each tick, probing the path
// segment it covers for hostile actors. Phase 3 (Projectile).
type ProjectileSystem struct {
	world  *world.State
	combat *CombatSystem
	bus    *event.Bus

	shots []projectile
}

func NewProjectileSystem(ws *world.State, combat *CombatSystem, bus *event.Bus) *ProjectileSystem {
	return &ProjectileSystem{world: ws, combat: combat, bus: bus}
}

func (s *ProjectileSystem) Phase() coresys.Phase { return coresys.PhaseProjectile }

// Launch fires a projectile from the shooter toward the target's current
// position. The flight is dumb-fire: the target keeps moving, the arrow
// does not correct.
func (s *ProjectileSystem) Launch(shooter, target *world.Actor) {
	dx, dy := target.X-shooter.X, target.Y-shooter.Y
	n := math.Hypot(dx, dy)
	if n == 0 || shooter.ProjectileSpeed <= 0 || shooter.ProjectileRange <= 0 {
		return
	}
	s.shots = append(s.shots, projectile{
		shooter: shooter.ID,
		faction: shooter.Faction,
		x:       shooter.X,
		y:       shooter.Y,
		dirX:    dx / n,
		dirY:    dy / n,
		speed:   shooter.ProjectileSpeed,
		left:    shooter.ProjectileRange,
		damage:  shooter.AttackDamage,
	})
}

// InFlight returns the number of live projectiles.
func (s *ProjectileSystem) InFlight() int { return len(s.shots) }

func (s *ProjectileSystem) Update(dt time.Duration) {
	live := s.shots[:0]
	for i := range s.shots {
		if s.advance(&s.shots[i], dt) {
			live = append(live, s.shots[i])
		}
	}
	s.shots = live
}

// advance flies one projectile for dt and reports whether it stays alive.
func (s *ProjectileSystem) advance(p *projectile, dt time.Duration) bool {
	step := p.speed * dt.Seconds()
	if step > p.left {
		step = p.left
	}
	if step <= 0 {
		return false
	}

	if hit, ok := s.firstHostileOnPath(p, step); ok {
		s.impact(p, hit)
		return false
	}

	p.x += p.dirX * step
	p.y += p.dirY * step
	p.left -= step
	return p.left > 0
}

// firstHostileOnPath probes the segment the projectile covers this tick,
// one path prediction per hostile faction, and keeps the hit closest to
// the projectile. 同距離取較小 ID，與格網查詢的決勝規則一致。
func (s *ProjectileSystem) firstHostileOnPath(p *projectile, step float64) (grid.Hit, bool) {
	ix := s.world.Grid()
	var (
		best      grid.Hit
		bestAlong = math.MaxFloat64
		found     bool
	)
	for _, f := range world.HostileFactions(p.faction) {
		hit, ok := ix.PredictPath(p.x, p.y, p.dirX, p.dirY, step, grid.Filter{
			Faction:   f,
			AliveOnly: true,
		})
		if !ok {
			continue
		}
		along := math.Hypot(hit.X-p.x, hit.Y-p.y)
		if !found || along < bestAlong || (along == bestAlong && hit.ID < best.ID) {
			best, bestAlong, found = hit, along, true
		}
	}
	return best, found
}

func (s *ProjectileSystem) impact(p *projectile, hit grid.Hit) {
	tgt := s.world.Get(world.ActorID(hit.ID))
	if tgt == nil || tgt.Dead {
		return // 過期格網紀錄，下次清掃會處理
	}
	att := s.world.Get(p.shooter)
	if att == nil {
		return // 射手已離場 → 箭矢失效
	}

	event.Emit(s.bus, event.ProjectileHit{
		Shooter: p.shooter,
		Target:  tgt.ID,
		X:       tgt.X,
		Y:       tgt.Y,
		Tick:    s.world.TickNo(),
	})

	dist := math.Hypot(tgt.X-att.X, tgt.Y-att.Y)
	s.combat.ApplyDamage(att, tgt, p.damage, true, dist)
}
