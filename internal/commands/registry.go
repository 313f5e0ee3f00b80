// Package commands holds the named commands the scribe front end can run
// and the registry that dispatches to them.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/bethropolis/scribe/internal/logger"
)

// ErrUnknownCommand is returned by Run for names nobody registered.
var ErrUnknownCommand = errors.New("unknown command")

// CommandFunc runs a command with its own arguments (flags included).
type CommandFunc func(ctx context.Context, env *Env, args []string) error

// Command is one registered command.
type Command struct {
	Name    string
	Summary string
	Run     CommandFunc
}

// Registry maps command names to commands.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]Command
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Command)}
}

// Register adds a command. Names must be unique and non-empty.
func (r *Registry) Register(cmd Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cmd.Name == "" {
		return fmt.Errorf("command registration failed: name cannot be empty")
	}
	if cmd.Run == nil {
		return fmt.Errorf("command registration failed: '%s' has no run function", cmd.Name)
	}
	if _, exists := r.commands[cmd.Name]; exists {
		return fmt.Errorf("command registration failed: '%s' already registered", cmd.Name)
	}
	r.commands[cmd.Name] = cmd
	logger.DebugTagf("commands", "Commands: registered '%s'", cmd.Name)
	return nil
}

// Lookup returns the command registered under name.
func (r *Registry) Lookup(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[name]
	return cmd, ok
}

// Names lists registered command names in order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run executes the named command.
func (r *Registry) Run(ctx context.Context, env *Env, name string, args []string) error {
	cmd, ok := r.Lookup(name)
	if !ok {
		return fmt.Errorf("%q: %w", name, ErrUnknownCommand)
	}
	logger.Debugf("Commands: running '%s' with %d args", name, len(args))
	if err := cmd.Run(ctx, env, args); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// PrintUsage writes one line per command.
func (r *Registry) PrintUsage(w io.Writer) {
	for _, name := range r.Names() {
		cmd, _ := r.Lookup(name)
		fmt.Fprintf(w, "  %-10s %s\n", name, cmd.Summary)
	}
}
