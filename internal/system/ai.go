package system

import (
	"math"
	"math/rand"
	"time"

	coresys "github.com/arenago/server/internal/core/system"
	"github.com/arenago/server/internal/scripting"
	"github.com/arenago/server/internal/world"
)

// AI 行為參數。距離為世界座標單位。
const (
	chaseStopFactor   = 0.8 // 追擊到攻擊距離的這個比例就停步
	leashFactor       = 2.0 // 目標超出警戒半徑這個倍數 → 脫戰
	wanderSpeedFactor = 0.5 // 閒晃移速比例
	homeArriveGap     = 0.5 // 回家判定距離
)

// AISystem processes actor AI via Lua: Go handles target detection and
// command execution, Lua handles decision logic. Actors without a working
// brain script fall back to a built-in Go brain. Phase 0 (AI).
type AISystem struct {
	world       *world.State
	lua         *scripting.Engine
	combat      *CombatSystem
	projectiles *ProjectileSystem
}

func NewAISystem(ws *world.State, lua *scripting.Engine, combat *CombatSystem, projectiles *ProjectileSystem) *AISystem {
	return &AISystem{world: ws, lua: lua, combat: combat, projectiles: projectiles}
}

func (s *AISystem) Phase() coresys.Phase { return coresys.PhaseAI }

func (s *AISystem) Update(dt time.Duration) {
	for _, a := range s.world.Actors() {
		if a.Dead {
			continue
		}
		s.tickActor(a, dt)
	}
}

func (s *AISystem) tickActor(a *world.Actor, dt time.Duration) {
	// Decrement timers
	if a.AttackTimer > 0 {
		a.AttackTimer -= dt
	}
	if a.WanderTimer > 0 {
		a.WanderTimer -= dt
	}

	// --- Target detection (Go engine responsibility) ---
	target := s.currentTarget(a)

	// 無目標 → 掃描警戒半徑內最近的敵人
	if target == nil && a.AggroRadius > 0 {
		if enemy, _, ok := s.world.NearestEnemy(a, a.AggroRadius); ok {
			target = enemy
			a.AggroTarget = enemy.ID
			a.WanderTimer = 0 // snap out of wander — react immediately
		}
	}

	// --- Build AIContext for Lua ---
	engage := a.AttackRange
	if a.Ranged {
		engage = a.ProjectileRange
	}
	targetDist := 0.0
	var targetID uint64
	targetX, targetY := 0.0, 0.0
	if target != nil {
		targetDist = math.Hypot(target.X-a.X, target.Y-a.Y)
		targetID = uint64(target.ID)
		targetX, targetY = target.X, target.Y
	}

	ctx := scripting.AIContext{
		ActorID:     uint64(a.ID),
		X:           a.X,
		Y:           a.Y,
		HP:          int(a.HP),
		MaxHP:       int(a.MaxHP),
		Faction:     int(a.Faction),
		Kind:        int(a.Kind),
		AttackRange: engage,
		AggroRadius: a.AggroRadius,
		Ranged:      a.Ranged,
		TargetID:    targetID,
		TargetX:     targetX,
		TargetY:     targetY,
		TargetDist:  targetDist,
		CanAttack:   a.AttackTimer <= 0,
		SpawnDist:   math.Hypot(a.X-a.SpawnX, a.Y-a.SpawnY),
	}

	// --- Decide: Lua brain, built-in fallback ---
	var cmds []scripting.AICommand
	if a.AIScript != "" {
		cmds = s.lua.RunActorAI(a.AIScript, ctx)
	}
	if cmds == nil {
		cmds = builtinBrain(ctx)
	}

	// --- Execute commands ---
	for _, cmd := range cmds {
		switch cmd.Type {
		case "attack":
			if target != nil && a.AttackTimer <= 0 {
				s.combat.QueueMelee(a.ID, target.ID)
				a.AttackTimer = a.AttackEvery
			}
		case "shoot":
			if target != nil && a.AttackTimer <= 0 {
				s.projectiles.Launch(a, target)
				a.AttackTimer = a.AttackEvery
			}
		case "move_toward":
			if target != nil {
				s.moveToward(a, target.X, target.Y, engage*chaseStopFactor, dt)
			}
		case "wander":
			s.wander(a, cmd.DirX, cmd.DirY, dt)
		case "return_home":
			s.moveToward(a, a.SpawnX, a.SpawnY, homeArriveGap, dt)
		case "lose_aggro":
			ClearThreat(a)
		}
	}
}

// currentTarget validates the cached aggro target, falling back to the
// highest-threat attacker still in-world. 失效目標順手從威脅表剔除。
func (s *AISystem) currentTarget(a *world.Actor) *world.Actor {
	if !a.AggroTarget.IsZero() {
		if t := s.world.Get(a.AggroTarget); t != nil && !t.Dead {
			return t
		}
		RemoveThreatTarget(a, a.AggroTarget)
	}
	for {
		next := MaxThreatTarget(a)
		if next.IsZero() {
			return nil
		}
		if t := s.world.Get(next); t != nil && !t.Dead {
			a.AggroTarget = next
			return t
		}
		RemoveThreatTarget(a, next)
	}
}

// ==================== 行動執行 ====================

// moveToward walks the actor toward (tx, ty), stopping stopAt short of it.
func (s *AISystem) moveToward(a *world.Actor, tx, ty, stopAt float64, dt time.Duration) {
	dx, dy := tx-a.X, ty-a.Y
	dist := math.Hypot(dx, dy)
	if dist <= stopAt || dist == 0 {
		return
	}
	step := a.MoveSpeed * dt.Seconds()
	if step > dist-stopAt {
		step = dist - stopAt
	}
	s.world.MoveActor(a, a.X+dx/dist*step, a.Y+dy/dist*step)
}

// wander ambles along the current heading, picking a fresh one when the
// impulse expires. A caller-supplied direction steers immediately — 腳本
// 持續給方向時等於連續轉向。Headings bounce off world bounds.
func (s *AISystem) wander(a *world.Actor, dirX, dirY float64, dt time.Duration) {
	if dirX != 0 || dirY != 0 {
		n := math.Hypot(dirX, dirY)
		a.WanderDirX, a.WanderDirY = dirX/n, dirY/n
		a.WanderTimer = time.Duration(2+rand.Intn(3)) * time.Second
	} else if a.WanderTimer <= 0 || (a.WanderDirX == 0 && a.WanderDirY == 0) {
		ang := rand.Float64() * 2 * math.Pi
		a.WanderDirX, a.WanderDirY = math.Cos(ang), math.Sin(ang)
		a.WanderTimer = time.Duration(2+rand.Intn(3)) * time.Second
	}

	step := a.MoveSpeed * wanderSpeedFactor * dt.Seconds()
	nx := a.X + a.WanderDirX*step
	ny := a.Y + a.WanderDirY*step
	if w, h := s.world.Grid().Bounds(); w > 0 && h > 0 {
		if nx < 0 || nx > w {
			a.WanderDirX = -a.WanderDirX
			nx = a.X + a.WanderDirX*step
		}
		if ny < 0 || ny > h {
			a.WanderDirY = -a.WanderDirY
			ny = a.Y + a.WanderDirY*step
		}
	}
	s.world.MoveActor(a, nx, ny)
}

// ==================== 內建 AI ====================

// builtinBrain mirrors the default Lua brain in Go. Used when an actor has
// no script or its script fails, so a broken brain never freezes the arena.
func builtinBrain(ctx scripting.AIContext) []scripting.AICommand {
	if ctx.TargetID != 0 {
		// 目標超出追擊繩 → 脫戰回家
		if ctx.TargetDist > ctx.AggroRadius*leashFactor {
			return []scripting.AICommand{{Type: "lose_aggro"}, {Type: "return_home"}}
		}
		if ctx.TargetDist <= ctx.AttackRange {
			if !ctx.CanAttack {
				return []scripting.AICommand{{Type: "idle"}}
			}
			if ctx.Ranged {
				return []scripting.AICommand{{Type: "shoot"}}
			}
			return []scripting.AICommand{{Type: "attack"}}
		}
		return []scripting.AICommand{{Type: "move_toward"}}
	}
	if ctx.SpawnDist > ctx.AggroRadius {
		return []scripting.AICommand{{Type: "return_home"}}
	}
	return []scripting.AICommand{{Type: "wander"}}
}
