package scripting

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/zombrise/server/internal/geom"
)

// Rules is the tunable gameplay arithmetic. The Engine answers through Lua
// and falls back to the wrapped Rules when a function is missing or fails.
type Rules interface {
	ProximityDamage(dps, dt float64) float64
	AttackDamage(base float64) float64
	ZombieSpawnPoint(rng *rand.Rand, extent, y float64) geom.Vec3
}

// Engine wraps a single gopher-lua VM. Single-goroutine access only (game loop).
type Engine struct {
	vm       *lua.LState
	fallback Rules
	log      *zap.Logger
}

// NewEngine creates a Lua VM and loads every script under scriptsDir: the
// root first, then the combat and world subdirectories.
func NewEngine(scriptsDir string, fallback Rules, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{SkipOpenLibs: false})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, fallback: fallback, log: log}
	for _, sub := range []string{"", "combat", "world"} {
		if err := e.loadDir(filepath.Join(scriptsDir, sub)); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load scripts %q: %w", sub, err)
		}
	}
	return e, nil
}

// LoadString runs a chunk in the VM. Used by tests and for inline overrides.
func (e *Engine) LoadString(src string) error {
	return e.vm.DoString(src)
}

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

func (e *Engine) has(name string) bool {
	return e.vm.GetGlobal(name).Type() == lua.LTFunction
}

// call invokes a global function and returns nret numbers. ok is false when
// the function is missing, errors, or returns something that is not a
// finite number.
func (e *Engine) call(name string, nret int, args ...lua.LValue) ([]float64, bool) {
	fn := e.vm.GetGlobal(name)
	if fn.Type() != lua.LTFunction {
		return nil, false
	}
	if err := e.vm.CallByParam(lua.P{Fn: fn, NRet: nret, Protect: true}, args...); err != nil {
		e.log.Error("lua call error", zap.String("fn", name), zap.Error(err))
		return nil, false
	}
	out := make([]float64, nret)
	ok := true
	for i := nret - 1; i >= 0; i-- {
		v := e.vm.Get(-1)
		e.vm.Pop(1)
		n, isNum := v.(lua.LNumber)
		f := float64(n)
		if !isNum || math.IsNaN(f) || math.IsInf(f, 0) {
			ok = false
			continue
		}
		out[i] = f
	}
	if !ok {
		e.log.Error("lua returned non-number", zap.String("fn", name))
	}
	return out, ok
}

// ProximityDamage calls calc_proximity_damage(dps, dt).
func (e *Engine) ProximityDamage(dps, dt float64) float64 {
	if r, ok := e.call("calc_proximity_damage", 1, lua.LNumber(dps), lua.LNumber(dt)); ok && r[0] >= 0 {
		return r[0]
	}
	return e.fallback.ProximityDamage(dps, dt)
}

// AttackDamage calls calc_attack_damage(base).
func (e *Engine) AttackDamage(base float64) float64 {
	if r, ok := e.call("calc_attack_damage", 1, lua.LNumber(base)); ok && r[0] >= 0 {
		return r[0]
	}
	return e.fallback.AttackDamage(base)
}

// ZombieSpawnPoint calls zombie_spawn_point(u, v, extent, y) with u, v drawn
// uniformly from [0,1) by the Go rng, so Lua stays deterministic. On failure
// the fallback picks the point and draws its own numbers from rng.
func (e *Engine) ZombieSpawnPoint(rng *rand.Rand, extent, y float64) geom.Vec3 {
	if !e.has("zombie_spawn_point") {
		return e.fallback.ZombieSpawnPoint(rng, extent, y)
	}
	u, v := rng.Float64(), rng.Float64()
	r, ok := e.call("zombie_spawn_point", 3,
		lua.LNumber(u), lua.LNumber(v), lua.LNumber(extent), lua.LNumber(y))
	if ok {
		return geom.V(r[0], r[1], r[2])
	}
	return e.fallback.ZombieSpawnPoint(rng, extent, y)
}

func (e *Engine) Close() {
	e.vm.Close()
}
