// Package scripting embeds a sandboxed Lua engine so individual tenants can
// override classification rules without a redeploy. Scripts only see a small
// API surface and the safe standard libraries.
package scripting

import (
	"context"
	"errors"
)

// ErrFunctionNotFound is returned when a requested Lua function has not been
// defined by any loaded script.
var ErrFunctionNotFound = errors.New("lua function not found")

// Engine is the interface for the Lua scripting engine.
type Engine interface {
	// LoadScript loads a Lua script with the given name and content.
	LoadScript(name string, content []byte) error

	// LoadScriptFile loads a Lua script from a file path.
	LoadScriptFile(path string) error

	// LoadScriptDir loads all Lua scripts from a directory.
	LoadScriptDir(dir string) error

	// HasFunction reports whether a global Lua function with the given
	// name has been defined by a loaded script.
	HasFunction(funcName string) bool

	// ExecuteFunction calls a Lua function with the given arguments.
	// The function should be previously loaded via LoadScript or LoadScriptFile.
	ExecuteFunction(ctx context.Context, funcName string, args ...interface{}) (interface{}, error)

	// Close releases resources associated with the engine.
	Close() error
}

// Config contains configuration options for the scripting engine.
type Config struct {
	// EnableSandboxing restricts access to potentially dangerous Lua modules like os and io
	EnableSandboxing bool

	// ScriptTimeoutMs sets a maximum execution time for scripts in milliseconds
	ScriptTimeoutMs int
}

// DefaultConfig returns the default configuration for the scripting engine.
func DefaultConfig() Config {
	return Config{
		EnableSandboxing: true,
		ScriptTimeoutMs:  1000,
	}
}
