// Package hotkey provides the ordered registry of key combinations and the
// key-down dispatch rule.
package hotkey

import (
	"fmt"
	"log/slog"
	"sync"

	"textexpand/internal/action"
	"textexpand/internal/input"
	"textexpand/internal/keys"
)

// Entry is one registered hotkey. Entries are immutable once registered.
type Entry struct {
	Binding     keys.Binding
	Action      action.Action
	Swallow     bool
	Description string
}

// Describe returns the description, or one derived from the binding and
// action when none was given.
func (e Entry) Describe() string {
	if e.Description != "" {
		return e.Description
	}
	if e.Action == nil {
		return e.Binding.String()
	}
	return fmt.Sprintf("%s: %s", e.Binding, e.Action)
}

// Option customizes an entry at registration.
type Option func(*Entry)

// Swallow stops the matched key-down from reaching other applications.
func Swallow() Option {
	return func(e *Entry) { e.Swallow = true }
}

// Describe sets the entry's description.
func Describe(description string) Option {
	return func(e *Entry) { e.Description = description }
}

// Registry matches key-downs against hotkeys in registration order.
type Registry struct {
	mu       sync.RWMutex
	entries  []Entry
	injector input.Injector
	logger   *slog.Logger
	observer func(Entry)
}

// NewRegistry creates an empty registry whose actions run against inj.
func NewRegistry(inj input.Injector, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{injector: inj, logger: logger}
}

// Register appends a hotkey. Duplicates are allowed; the earliest one wins.
func (r *Registry) Register(vk keys.VKey, mods keys.ModifierSet, a action.Action, opts ...Option) Entry {
	e := Entry{
		Binding: keys.Binding{Key: vk, Modifiers: mods},
		Action:  a,
	}
	for _, opt := range opts {
		opt(&e)
	}

	r.mu.Lock()
	r.entries = append(r.entries, e)
	r.mu.Unlock()
	return e
}

// SetObserver registers fn to be called with each matched entry before its
// action runs.
func (r *Registry) SetObserver(fn func(Entry)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observer = fn
}

// Dispatch looks for the first entry with exactly this key and modifier set
// and runs its action synchronously. Entries whose modifiers are a subset or
// superset of mods do not match.
func (r *Registry) Dispatch(vk keys.VKey, mods keys.ModifierSet) (matched, swallow bool) {
	want := keys.Binding{Key: vk, Modifiers: mods}

	r.mu.RLock()
	var hit *Entry
	for i := range r.entries {
		if r.entries[i].Binding == want {
			e := r.entries[i]
			hit = &e
			break
		}
	}
	observer := r.observer
	r.mu.RUnlock()

	if hit == nil {
		return false, false
	}
	if observer != nil {
		observer(*hit)
	}

	r.logger.Debug("[hotkey] triggered", "binding", hit.Binding.String(), "swallow", hit.Swallow)
	if hit.Action != nil {
		if err := action.Safely(hit.Action, r.injector, r.logger); err != nil {
			r.logger.Warn("[hotkey] action failed", "binding", hit.Binding.String(), "error", err)
		}
	}
	return true, hit.Swallow
}

// Entries returns a copy of the registered hotkeys in order.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Entry(nil), r.entries...)
}

// Len returns the number of registered hotkeys.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Clear removes all registered hotkeys
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
}
