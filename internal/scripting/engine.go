package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM for tunable simulation logic:
// damage formulas and per-archetype AI brains.
// Single-goroutine access only (simulation loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads all scripts from the given directory.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	// Set API version global
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}
	if err := e.loadDir(scriptsDir); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load scripts: %w", err)
	}
	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// DamageContext holds pre-packed data for an attack calculation.
type DamageContext struct {
	BaseDamage int
	Ranged     bool

	AttackerHP    int
	AttackerMaxHP int

	TargetHP    int
	TargetMaxHP int
	TargetDist  float64
}

// DamageResult is returned by the Lua damage function.
type DamageResult struct {
	Hit    bool
	Damage int
}

// CalcDamage calls the Lua calc_damage function. Falls back to the raw
// base damage when the function is missing or errors, so a broken combat
// script degrades the formulas but never stops the fight.
func (e *Engine) CalcDamage(ctx DamageContext) DamageResult {
	fallback := DamageResult{Hit: true, Damage: ctx.BaseDamage}

	fn := e.vm.GetGlobal("calc_damage")
	if fn == lua.LNil {
		return fallback
	}

	t := e.vm.NewTable()
	t.RawSetString("base_damage", lua.LNumber(ctx.BaseDamage))
	t.RawSetString("ranged", lBool(ctx.Ranged))

	atk := e.vm.NewTable()
	atk.RawSetString("hp", lua.LNumber(ctx.AttackerHP))
	atk.RawSetString("max_hp", lua.LNumber(ctx.AttackerMaxHP))
	t.RawSetString("attacker", atk)

	tgt := e.vm.NewTable()
	tgt.RawSetString("hp", lua.LNumber(ctx.TargetHP))
	tgt.RawSetString("max_hp", lua.LNumber(ctx.TargetMaxHP))
	tgt.RawSetString("dist", lua.LNumber(ctx.TargetDist))
	t.RawSetString("target", tgt)

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua calc_damage error", zap.Error(err))
		return fallback
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	rt, ok := result.(*lua.LTable)
	if !ok {
		e.log.Error("lua calc_damage returned non-table")
		return fallback
	}

	return DamageResult{
		Hit:    rt.RawGetString("hit") == lua.LTrue,
		Damage: lInt(rt, "damage"),
	}
}

// AIContext holds pre-packed data for one actor's AI decision.
type AIContext struct {
	ActorID   uint64
	X, Y      float64
	HP, MaxHP int
	Faction   int
	Kind      int

	AttackRange float64
	AggroRadius float64
	Ranged      bool

	// Target (detected by Go; 0 = no hostile in aggro radius)
	TargetID   uint64
	TargetX    float64
	TargetY    float64
	TargetDist float64

	CanAttack bool    // attack cooldown elapsed
	SpawnDist float64 // distance from the spawn anchor
}

// AICommand is a single action returned by a Lua brain.
type AICommand struct {
	Type string // "attack", "shoot", "move_toward", "wander", "return_home", "lose_aggro", "idle"

	// Wander heading; (0,0) = let Go pick a fresh direction.
	DirX, DirY float64
}

// RunActorAI calls the named Lua brain function and returns its command
// list. A nil return (missing function, script error, non-table result)
// tells the caller to use the built-in brain instead.
func (e *Engine) RunActorAI(brain string, ctx AIContext) []AICommand {
	fn := e.vm.GetGlobal(brain)
	if fn == lua.LNil {
		return nil
	}

	// Build context table
	t := e.vm.NewTable()
	t.RawSetString("actor_id", lua.LNumber(ctx.ActorID))
	t.RawSetString("x", lua.LNumber(ctx.X))
	t.RawSetString("y", lua.LNumber(ctx.Y))
	t.RawSetString("hp", lua.LNumber(ctx.HP))
	t.RawSetString("max_hp", lua.LNumber(ctx.MaxHP))
	t.RawSetString("faction", lua.LNumber(ctx.Faction))
	t.RawSetString("kind", lua.LNumber(ctx.Kind))
	t.RawSetString("attack_range", lua.LNumber(ctx.AttackRange))
	t.RawSetString("aggro_radius", lua.LNumber(ctx.AggroRadius))
	t.RawSetString("ranged", lBool(ctx.Ranged))

	t.RawSetString("target_id", lua.LNumber(ctx.TargetID))
	t.RawSetString("target_x", lua.LNumber(ctx.TargetX))
	t.RawSetString("target_y", lua.LNumber(ctx.TargetY))
	t.RawSetString("target_dist", lua.LNumber(ctx.TargetDist))

	t.RawSetString("can_attack", lBool(ctx.CanAttack))
	t.RawSetString("spawn_dist", lua.LNumber(ctx.SpawnDist))

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua brain error",
			zap.String("brain", brain),
			zap.Uint64("actor_id", ctx.ActorID),
			zap.Error(err))
		return nil
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	rt, ok := result.(*lua.LTable)
	if !ok {
		return nil
	}

	// Parse commands array
	var cmds []AICommand
	rt.ForEach(func(_, v lua.LValue) {
		if row, ok := v.(*lua.LTable); ok {
			cmds = append(cmds, AICommand{
				Type: lStr(row, "type"),
				DirX: lFloat(row, "dir_x"),
				DirY: lFloat(row, "dir_y"),
			})
		}
	})
	return cmds
}

// HasBrain reports whether the named AI function is defined.
func (e *Engine) HasBrain(brain string) bool {
	return e.vm.GetGlobal(brain) != lua.LNil
}

// --- Lua helpers ---

// lInt reads an integer field from a Lua table.
func lInt(t *lua.LTable, key string) int {
	return int(lua.LVAsNumber(t.RawGetString(key)))
}

// lFloat reads a float field from a Lua table.
func lFloat(t *lua.LTable, key string) float64 {
	return float64(lua.LVAsNumber(t.RawGetString(key)))
}

// lStr reads a string field from a Lua table.
func lStr(t *lua.LTable, key string) string {
	return lua.LVAsString(t.RawGetString(key))
}

func lBool(b bool) lua.LValue {
	if b {
		return lua.LTrue
	}
	return lua.LFalse
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
