package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM holding the combat formulas. Hit
// chance and damage dice live in scripts so they can be tuned without a
// rebuild. Single-goroutine access only (game loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads all scripts from the given
// directory tree (scripts/combat first, then any sibling dirs).
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}

	if err := e.loadDir(filepath.Join(scriptsDir, "combat")); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load combat scripts: %w", err)
	}

	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
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

func (e *Engine) Close() {
	e.vm.Close()
}

// AttackContext holds pre-packed data for one attack resolution.
type AttackContext struct {
	AttackerLevel    int
	AttackerAttack   int
	AttackerStrength int
	AttackerRanged   int
	TargetLevel      int
	TargetDefense    int
	Ranged           bool
}

// AttackResult is the scripted outcome of one attack.
type AttackResult struct {
	Hit    bool
	Damage int
}

// ResolveAttack calls the Lua resolve_attack(ctx) -> hit, damage formula.
// On script error it logs and returns a miss rather than crashing the loop.
func (e *Engine) ResolveAttack(ctx AttackContext) AttackResult {
	tbl := e.vm.NewTable()
	e.vm.SetField(tbl, "attacker_level", lua.LNumber(ctx.AttackerLevel))
	e.vm.SetField(tbl, "attacker_attack", lua.LNumber(ctx.AttackerAttack))
	e.vm.SetField(tbl, "attacker_strength", lua.LNumber(ctx.AttackerStrength))
	e.vm.SetField(tbl, "attacker_ranged", lua.LNumber(ctx.AttackerRanged))
	e.vm.SetField(tbl, "target_level", lua.LNumber(ctx.TargetLevel))
	e.vm.SetField(tbl, "target_defense", lua.LNumber(ctx.TargetDefense))
	e.vm.SetField(tbl, "ranged", lua.LBool(ctx.Ranged))

	fn := e.vm.GetGlobal("resolve_attack")
	if fn == lua.LNil {
		e.log.Error("lua resolve_attack not defined")
		return AttackResult{}
	}

	if err := e.vm.CallByParam(lua.P{Fn: fn, NRet: 2, Protect: true}, tbl); err != nil {
		e.log.Error("lua resolve_attack failed", zap.Error(err))
		return AttackResult{}
	}

	damage := e.vm.Get(-1)
	hit := e.vm.Get(-2)
	e.vm.Pop(2)

	res := AttackResult{
		Hit: lua.LVAsBool(hit),
	}
	if n, ok := damage.(lua.LNumber); ok {
		res.Damage = int(n)
	}
	if !res.Hit || res.Damage < 0 {
		res.Damage = 0
	}
	return res
}
