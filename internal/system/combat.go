package system

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/arenago/server/internal/core/event"
	coresys "github.com/arenago/server/internal/core/system"
	"github.com/arenago/server/internal/scripting"
	"github.com/arenago/server/internal/world"
)

// meleeIntent 是 AI 階段排入的一次揮擊，於戰鬥階段結算。
// 世代 ID 讓過期請求自然失效：任一方在本 tick 稍早死亡或移除，
// 查詢回傳 nil，該次揮擊直接丟棄。
type meleeIntent struct {
	attacker world.ActorID
	target   world.ActorID
}

// CombatSystem 結算 AI 階段排入的近戰攻擊，並供投射物系統套用命中傷害。
// 所有傷害數值都經過 Lua 公式；所有死亡都從這裡走 KillActor。
type CombatSystem struct {
	world *world.State
	lua   *scripting.Engine
	bus   *event.Bus
	log   *zap.Logger

	queue []meleeIntent
}

func NewCombatSystem(ws *world.State, lua *scripting.Engine, bus *event.Bus, log *zap.Logger) *CombatSystem {
	return &CombatSystem{world: ws, lua: lua, bus: bus, log: log}
}

func (s *CombatSystem) Phase() coresys.Phase { return coresys.PhaseCombat }

// QueueMelee 排入一次近戰揮擊，本 tick 的戰鬥階段結算。
func (s *CombatSystem) QueueMelee(attacker, target world.ActorID) {
	s.queue = append(s.queue, meleeIntent{attacker: attacker, target: target})
}

func (s *CombatSystem) Update(_ time.Duration) {
	for _, in := range s.queue {
		s.resolveMelee(in)
	}
	s.queue = s.queue[:0]
}

// ==================== 近戰結算 ====================

func (s *CombatSystem) resolveMelee(in meleeIntent) {
	att := s.world.Get(in.attacker)
	tgt := s.world.Get(in.target)
	if att == nil || att.Dead || tgt == nil || tgt.Dead {
		return
	}

	dx, dy := tgt.X-att.X, tgt.Y-att.Y
	distSq := dx*dx + dy*dy
	if distSq > att.AttackRange*att.AttackRange {
		return // 目標在決策後移出範圍 → 揮空，冷卻照扣
	}

	s.ApplyDamage(att, tgt, att.AttackDamage, false, math.Sqrt(distSq))
}

// ApplyDamage 跑 Lua 傷害公式並套用結果。近戰結算與投射物命中共用。
func (s *CombatSystem) ApplyDamage(att, tgt *world.Actor, base int32, ranged bool, dist float64) {
	if tgt.Dead {
		return
	}

	res := s.lua.CalcDamage(scripting.DamageContext{
		BaseDamage:    int(base),
		Ranged:        ranged,
		AttackerHP:    int(att.HP),
		AttackerMaxHP: int(att.MaxHP),
		TargetHP:      int(tgt.HP),
		TargetMaxHP:   int(tgt.MaxHP),
		TargetDist:    dist,
	})
	if !res.Hit || res.Damage <= 0 {
		return
	}
	damage := int32(res.Damage)

	tgt.HP -= damage
	AddThreat(tgt, att.ID, damage)

	event.Emit(s.bus, event.DamageDealt{
		Attacker: att.ID,
		Target:   tgt.ID,
		Amount:   damage,
		Ranged:   ranged,
		Tick:     s.world.TickNo(),
	})

	if tgt.HP <= 0 {
		tgt.HP = 0
		s.handleDeath(att, tgt)
	}
}

// ==================== 死亡處理 ====================

func (s *CombatSystem) handleDeath(killer, victim *world.Actor) {
	s.world.KillActor(victim)

	// 擊殺者若正鎖定死者，立即脫戰
	if killer.AggroTarget == victim.ID {
		killer.AggroTarget = 0
	}

	event.Emit(s.bus, event.ActorDied{
		ID:     victim.ID,
		Name:   victim.Name,
		Killer: killer.ID,
		X:      victim.X,
		Y:      victim.Y,
		Tick:   s.world.TickNo(),
	})

	s.log.Info("角色死亡",
		zap.String("name", victim.Name),
		zap.String("killer", killer.Name),
		zap.Float64("x", victim.X),
		zap.Float64("y", victim.Y))
}
