// Package tasks is the registry of named actions run against an assembled
// configuration.
//
// A task's output is buffered while it runs and written to the caller only when the
// action succeeds, so a failing task leaves no partial output behind.
package tasks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
)

var (
	ErrDuplicateTask = errors.New("task already registered")
	ErrUnknownTask   = errors.New("unknown task")
	ErrInvalidTask   = errors.New("invalid task")
)

// Action is the body of a task.
type Action func(ctx context.Context, env Env) error

// Task is a registered action.
type Task struct {
	Name        string
	Description string
	Action      Action
}

// Registry holds tasks by name, in registration order.
type Registry struct {
	mu    sync.RWMutex
	order []string
	tasks map[string]Task
}

func NewRegistry() *Registry {
	return &Registry{tasks: make(map[string]Task)}
}

// Register adds a task. A name that is already taken returns ErrDuplicateTask and
// leaves the original registration in place.
func (r *Registry) Register(name, description string, action Action) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidTask)
	}
	if action == nil {
		return fmt.Errorf("%w: %s has no action", ErrInvalidTask, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tasks[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTask, name)
	}
	r.tasks[name] = Task{Name: name, Description: description, Action: action}
	r.order = append(r.order, name)
	return nil
}

// Lookup returns the task registered under name.
func (r *Registry) Lookup(name string) (Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[name]
	return t, ok
}

// Tasks returns all tasks in registration order.
func (r *Registry) Tasks() []Task {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Task, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tasks[name])
	}
	return out
}

// Run executes the named task. Errors from the action are returned wrapped with the
// task name.
func (r *Registry) Run(ctx context.Context, name string, env Env) error {
	task, ok := r.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}
	if env.Config == nil {
		return fmt.Errorf("task %s: no configuration", name)
	}

	out := env.Out
	if out == nil {
		out = io.Discard
	}
	if env.Log == nil {
		env.Log = zap.NewNop()
	}
	env.Log = env.Log.With(zap.String("task", name), zap.String("network", env.Config.Network()))

	var buf bytes.Buffer
	env.Out = &buf

	env.Log.Debug("running task")
	if err := task.Action(ctx, env); err != nil {
		env.Log.Debug("task failed", zap.Error(err), zap.Int("discarded_bytes", buf.Len()))
		return fmt.Errorf("task %s: %w", name, err)
	}

	if _, err := buf.WriteTo(out); err != nil {
		return fmt.Errorf("task %s: write output: %w", name, err)
	}
	return nil
}
