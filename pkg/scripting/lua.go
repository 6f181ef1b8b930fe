package scripting

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	convoerrors "github.com/savdolab/convoctx/pkg/errors"
	"github.com/savdolab/convoctx/pkg/log"
	lua "github.com/yuin/gopher-lua"
)

// LuaEngine implements the Engine interface on a single gopher-lua state.
// LState is not safe for concurrent use, so all calls serialize on a mutex.
type LuaEngine struct {
	mu     sync.Mutex
	state  *lua.LState
	config Config

	// loadedScripts tracks script names for diagnostics
	loadedScripts []string
}

// NewLuaEngine creates a new Lua engine with the given configuration.
func NewLuaEngine(config Config) (*LuaEngine, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: config.EnableSandboxing})

	if config.EnableSandboxing {
		setupSandbox(L)
	} else {
		L.OpenLibs()
	}

	registerAPIFunctions(L)

	engine := &LuaEngine{
		state:  L,
		config: config,
	}

	log.Debug("Lua scripting engine initialized",
		"sandboxed", config.EnableSandboxing,
		"timeout_ms", config.ScriptTimeoutMs,
	)

	return engine, nil
}

// LoadScript implements the Engine interface.
func (e *LuaEngine) LoadScript(name string, content []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.state.DoString(string(content)); err != nil {
		return convoerrors.Wrap(convoerrors.ErrLuaExecution, "failed to load script %s: %v", name, err)
	}

	e.loadedScripts = append(e.loadedScripts, name)
	return nil
}

// LoadScriptFile implements the Engine interface.
func (e *LuaEngine) LoadScriptFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read script file: %w", err)
	}
	return e.LoadScript(filepath.Base(path), content)
}

// LoadScriptDir implements the Engine interface.
func (e *LuaEngine) LoadScriptDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read script directory: %w", err)
	}

	var loaded int
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".lua") {
			continue
		}
		if err := e.LoadScriptFile(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
		loaded++
	}

	log.Debug("Loaded Lua scripts from directory", "dir", dir, "count", loaded)
	return nil
}

// HasFunction implements the Engine interface.
func (e *LuaEngine) HasFunction(funcName string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	_, ok := e.state.GetGlobal(funcName).(*lua.LFunction)
	return ok
}

// ExecuteFunction implements the Engine interface.
func (e *LuaEngine) ExecuteFunction(ctx context.Context, funcName string, args ...interface{}) (interface{}, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	fn, ok := e.state.GetGlobal(funcName).(*lua.LFunction)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFunctionNotFound, funcName)
	}

	// Bound script execution with the configured timeout
	execCtx := ctx
	if e.config.ScriptTimeoutMs > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, time.Duration(e.config.ScriptTimeoutMs)*time.Millisecond)
		defer cancel()
	}
	e.state.SetContext(execCtx)
	defer e.state.RemoveContext()

	luaArgs := make([]lua.LValue, len(args))
	for i, arg := range args {
		luaArgs[i] = convertGoToLua(e.state, arg)
	}

	err := e.state.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, luaArgs...)
	if err != nil {
		log.Debug("Lua function call failed", "function", funcName, "error", err)
		return nil, convoerrors.Wrap(convoerrors.ErrLuaExecution, "error calling %s: %v", funcName, err)
	}

	ret := e.state.Get(-1)
	e.state.Pop(1)

	return convertLuaToGo(ret), nil
}

// Close implements the Engine interface.
func (e *LuaEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state.Close()
	return nil
}

// convertGoToLua converts a Go value to its Lua representation.
func convertGoToLua(L *lua.LState, value interface{}) lua.LValue {
	switch v := value.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(v)
	case int:
		return lua.LNumber(v)
	case int64:
		return lua.LNumber(v)
	case float64:
		return lua.LNumber(v)
	case string:
		return lua.LString(v)
	case []string:
		table := L.NewTable()
		for _, item := range v {
			table.Append(lua.LString(item))
		}
		return table
	case []interface{}:
		table := L.NewTable()
		for _, item := range v {
			table.Append(convertGoToLua(L, item))
		}
		return table
	case map[string]interface{}:
		table := L.NewTable()
		for key, item := range v {
			table.RawSetString(key, convertGoToLua(L, item))
		}
		return table
	default:
		return lua.LString(fmt.Sprintf("%v", v))
	}
}

// convertLuaToGo converts a Lua value to its Go representation.
func convertLuaToGo(value lua.LValue) interface{} {
	switch v := value.(type) {
	case *lua.LNilType:
		return nil
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		return float64(v)
	case lua.LString:
		return string(v)
	case *lua.LTable:
		// Array-style tables become slices, everything else maps
		maxN := v.MaxN()
		if maxN > 0 {
			slice := make([]interface{}, 0, maxN)
			for i := 1; i <= maxN; i++ {
				slice = append(slice, convertLuaToGo(v.RawGetInt(i)))
			}
			return slice
		}
		result := make(map[string]interface{})
		v.ForEach(func(key, item lua.LValue) {
			result[key.String()] = convertLuaToGo(item)
		})
		return result
	default:
		return v.String()
	}
}
