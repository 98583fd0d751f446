// Package runtime evaluates parsed Lox programs: a chain of environments
// holding variables and a tree-walking interpreter over them.
package runtime

import (
	"fmt"
	"sort"
	"sync"

	"github.com/lemonberrylabs/golox/pkg/scanner"
	"github.com/lemonberrylabs/golox/pkg/types"
)

// Environment is one frame of variable bindings. Lookups that miss the
// local frame continue in the enclosing frame; definitions always land in
// the local frame.
type Environment struct {
	enclosing *Environment
	values    map[string]types.Value
	mu        sync.RWMutex
}

// NewEnvironment creates a frame nested in enclosing. A nil enclosing
// frame creates the global frame.
func NewEnvironment(enclosing *Environment) *Environment {
	return &Environment{
		enclosing: enclosing,
		values:    make(map[string]types.Value),
	}
}

// Enclosing returns the parent frame, or nil for the global frame.
func (e *Environment) Enclosing() *Environment {
	return e.enclosing
}

// Define binds name in this frame, replacing any existing binding.
func (e *Environment) Define(name string, value types.Value) {
	e.mu.Lock()
	e.values[name] = value
	e.mu.Unlock()
}

// Get looks the variable up, searching outward through enclosing frames.
func (e *Environment) Get(name scanner.Token) (types.Value, error) {
	for env := e; env != nil; env = env.enclosing {
		env.mu.RLock()
		v, ok := env.values[name.Lexeme]
		env.mu.RUnlock()
		if ok {
			return v, nil
		}
	}
	return types.Nil, undefined(name)
}

// Assign overwrites the nearest existing binding of name. It never
// creates a binding.
func (e *Environment) Assign(name scanner.Token, value types.Value) error {
	for env := e; env != nil; env = env.enclosing {
		env.mu.Lock()
		if _, ok := env.values[name.Lexeme]; ok {
			env.values[name.Lexeme] = value
			env.mu.Unlock()
			return nil
		}
		env.mu.Unlock()
	}
	return undefined(name)
}

// Names returns the names bound in this frame, sorted.
func (e *Environment) Names() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.values))
	for name := range e.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot copies the bindings visible from this frame. Inner bindings
// shadow outer ones.
func (e *Environment) Snapshot() map[string]types.Value {
	var chain []*Environment
	for env := e; env != nil; env = env.enclosing {
		chain = append(chain, env)
	}

	out := make(map[string]types.Value)
	for i := len(chain) - 1; i >= 0; i-- {
		env := chain[i]
		env.mu.RLock()
		for k, v := range env.values {
			out[k] = v
		}
		env.mu.RUnlock()
	}
	return out
}

func undefined(name scanner.Token) *types.RuntimeError {
	return types.NewRuntimeError(name.Line, name.Lexeme,
		fmt.Sprintf("Undefined variable '%s'.", name.Lexeme))
}
