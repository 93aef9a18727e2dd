// Package engine ties the keyboard source, hotkeys and hotstrings together.
//
// An Engine is an explicit context object: it owns its registries and typed
// text buffer and is bound to an input.Source only while started. Any number
// of engines may exist, but only one may be active in a process because the
// host offers a single system-wide interception point.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"textexpand/internal/action"
	"textexpand/internal/hotkey"
	"textexpand/internal/hotstring"
	"textexpand/internal/input"
	"textexpand/internal/keys"
)

// ErrAnotherEngineActive is returned by Start when a different engine is
// already bound to the keyboard.
var ErrAnotherEngineActive = errors.New("engine: another engine is already active")

var active atomic.Pointer[Engine]

// Options tunes an engine. Zero values select the defaults; a negative delay
// disables that pause.
type Options struct {
	// BufferSize bounds the typed-text window.
	BufferSize int
	// EndChars lists the characters that complete an end-character trigger.
	EndChars     string
	TriggerDelay time.Duration
	SettleDelay  time.Duration
	// Sleep replaces time.Sleep in the replacement executor.
	Sleep  func(time.Duration)
	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.BufferSize < 1 {
		o.BufferSize = hotstring.DefaultBufferSize
	}
	if o.EndChars == "" {
		o.EndChars = keys.DefaultEndChars
	}
	if o.TriggerDelay == 0 {
		o.TriggerDelay = hotstring.DefaultTriggerDelay
	}
	if o.SettleDelay == 0 {
		o.SettleDelay = hotstring.DefaultSettleDelay
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Info describes a registered trigger for listings.
type Info struct {
	// Trigger is the key binding or the hotstring text.
	Trigger     string
	Description string
}

// Kind tells hotkeys and hotstrings apart in a Fired report.
type Kind string

const (
	KindHotkey    Kind = "hotkey"
	KindHotstring Kind = "hotstring"
)

// Fired reports a trigger that matched live input.
type Fired struct {
	Kind        Kind
	Trigger     string
	Description string
	Time        time.Time
}

// Engine matches live keyboard input against registered hotkeys and
// hotstrings.
type Engine struct {
	source   input.Source
	injector input.Injector
	logger   *slog.Logger

	hotkeys    *hotkey.Registry
	hotstrings *hotstring.Matcher

	// textMu guards the typed text window and the settings it depends on.
	textMu   sync.Mutex
	buffer   *hotstring.Buffer
	endChars keys.EndChars
	executor *hotstring.Executor

	mu      sync.Mutex
	running bool
	// started is closed and replaced on every Start.
	started chan struct{}

	observer atomic.Pointer[func(Fired)]
}

// New creates a stopped engine with no triggers.
func New(src input.Source, inj input.Injector, opts Options) *Engine {
	opts = opts.withDefaults()
	e := &Engine{
		source:     src,
		injector:   inj,
		logger:     opts.Logger,
		hotkeys:    hotkey.NewRegistry(inj, opts.Logger),
		hotstrings: hotstring.NewMatcher(),
		started:    make(chan struct{}),
	}
	e.hotkeys.SetObserver(func(h hotkey.Entry) {
		e.notify(Fired{Kind: KindHotkey, Trigger: h.Binding.String(), Description: h.Describe()})
	})
	e.configure(opts)
	return e
}

// OnFire registers fn to be told about every matched trigger. fn runs on
// the keyboard event thread and must not block; nil removes it.
func (e *Engine) OnFire(fn func(Fired)) {
	if fn == nil {
		e.observer.Store(nil)
		return
	}
	e.observer.Store(&fn)
}

func (e *Engine) notify(f Fired) {
	if fn := e.observer.Load(); fn != nil {
		f.Time = time.Now()
		(*fn)(f)
	}
}

// Configure replaces the buffer bound, end characters and delays. The typed
// text window is reset.
func (e *Engine) Configure(opts Options) {
	if opts.Logger == nil {
		opts.Logger = e.logger
	}
	e.configure(opts.withDefaults())
}

func (e *Engine) configure(opts Options) {
	x := hotstring.NewExecutor(e.injector, opts.Logger)
	x.TriggerDelay = opts.TriggerDelay
	x.SettleDelay = opts.SettleDelay
	x.Sleep = opts.Sleep
	if s, ok := e.injector.(input.Settler); ok {
		s.SetSettleDelay(opts.SettleDelay)
	}

	e.textMu.Lock()
	defer e.textMu.Unlock()
	e.buffer = hotstring.NewBuffer(opts.BufferSize)
	e.endChars = keys.NewEndChars(opts.EndChars)
	e.executor = x
}

// RegisterHotkey adds a key combination. Registration order decides which
// of several identical combinations fires.
func (e *Engine) RegisterHotkey(vk keys.VKey, mods keys.ModifierSet, a action.Action, opts ...hotkey.Option) hotkey.Entry {
	return e.hotkeys.Register(vk, mods, a, opts...)
}

// RegisterHotstring adds a trigger that is replaced with replacement text.
func (e *Engine) RegisterHotstring(trigger, replacement string, opts ...hotstring.Option) error {
	entry, err := hotstring.NewEntry(trigger, replacement, nil, opts...)
	if err != nil {
		return err
	}
	return e.hotstrings.Add(entry)
}

// RegisterHotstringAction adds a trigger that runs a instead of typing text.
func (e *Engine) RegisterHotstringAction(trigger string, a action.Action, opts ...hotstring.Option) error {
	if a == nil {
		return fmt.Errorf("engine: hotstring %q has no action", trigger)
	}
	entry, err := hotstring.NewEntry(trigger, "", a, opts...)
	if err != nil {
		return err
	}
	return e.hotstrings.Add(entry)
}

// ClearRegistrations removes every hotkey and hotstring.
func (e *Engine) ClearRegistrations() {
	e.hotkeys.Clear()
	e.hotstrings.Clear()
	e.resetText()
}

// Hotkeys lists the registered hotkeys in order.
func (e *Engine) Hotkeys() []Info {
	entries := e.hotkeys.Entries()
	out := make([]Info, len(entries))
	for i, h := range entries {
		out[i] = Info{Trigger: h.Binding.String(), Description: h.Describe()}
	}
	return out
}

// Hotstrings lists the registered hotstrings in order.
func (e *Engine) Hotstrings() []Info {
	entries := e.hotstrings.Entries()
	out := make([]Info, len(entries))
	for i, h := range entries {
		out[i] = Info{Trigger: h.Trigger, Description: h.Describe()}
	}
	return out
}

// CurrentModifiers reads the held modifier keys from the source.
func (e *Engine) CurrentModifiers() keys.ModifierSet {
	return keys.Snapshot(e.source.IsKeyDown)
}

// BufferText returns the typed text window.
func (e *Engine) BufferText() string {
	e.textMu.Lock()
	defer e.textMu.Unlock()
	return e.buffer.String()
}

func (e *Engine) resetText() {
	e.textMu.Lock()
	e.buffer.Clear()
	e.textMu.Unlock()
}

// HandleKey processes one key transition and reports whether it must be
// swallowed. Input synthesized by this engine, or any other program, is
// always forwarded untouched.
func (e *Engine) HandleKey(ev input.KeyEvent) (swallow bool) {
	if ev.Injected || !ev.Down {
		return false
	}

	mods := e.CurrentModifiers()
	if matched, consume := e.hotkeys.Dispatch(ev.Key, mods); matched && consume {
		return true
	}

	if !mods.PermitsText() {
		e.resetText()
		return false
	}

	match, ok, x := e.typed(ev.Key, mods.Has(keys.ModShift))
	if !ok {
		return false
	}

	e.logger.Debug("[engine] hotstring matched", "trigger", match.Entry.Trigger, "consumed", match.Consumed)
	e.notify(Fired{Kind: KindHotstring, Trigger: match.Entry.Trigger, Description: match.Entry.Describe()})
	if err := x.Execute(match); err != nil {
		e.logger.Warn("[engine] replacement failed", "trigger", match.Entry.Trigger, "error", err)
	}
	return false
}

// typed applies a key-down to the text window and returns a match together
// with the executor that should produce it.
func (e *Engine) typed(vk keys.VKey, shift bool) (hotstring.Match, bool, *hotstring.Executor) {
	e.textMu.Lock()
	defer e.textMu.Unlock()

	switch vk {
	case keys.VKEscape:
		e.buffer.Clear()
		return hotstring.Match{}, false, nil
	case keys.VKBack:
		e.buffer.Backspace()
		return hotstring.Match{}, false, nil
	}

	r, ok := keys.ToRune(vk, shift)
	if !ok {
		return hotstring.Match{}, false, nil
	}
	match, ok := e.hotstrings.OnCharacter(e.buffer, r, e.endChars.Contains(r))
	return match, ok, e.executor
}

// Running reports whether the engine is bound to the keyboard.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Start binds the engine to its source. Starting a running engine does
// nothing.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return nil
	}
	if !active.CompareAndSwap(nil, e) {
		return ErrAnotherEngineActive
	}
	if err := e.source.Install(e.HandleKey); err != nil {
		active.CompareAndSwap(e, nil)
		return fmt.Errorf("engine: install keyboard source: %w", err)
	}

	e.resetText()
	e.running = true
	close(e.started)
	e.started = make(chan struct{})
	e.logger.Info("[engine] started",
		"hotkeys", e.hotkeys.Len(),
		"hotstrings", e.hotstrings.Len(),
	)
	return nil
}

// Stop unbinds the engine. The engine can be started again.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return nil
	}
	err := e.source.Uninstall()
	active.CompareAndSwap(e, nil)
	e.running = false
	e.resetText()

	if err != nil {
		return fmt.Errorf("engine: uninstall keyboard source: %w", err)
	}
	e.logger.Info("[engine] stopped")
	return nil
}

// Run starts the engine and delivers keyboard events until ctx is done or
// the source ends, then stops it. A Stop made elsewhere while Run is active
// pauses delivery; Run waits for the next Start instead of returning.
func (e *Engine) Run(ctx context.Context) (err error) {
	if err := e.Start(); err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, e.Stop())
	}()

	for {
		pumpErr := e.source.Pump(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if e.Running() {
			if pumpErr != nil {
				return fmt.Errorf("engine: pump events: %w", pumpErr)
			}
			return nil
		}

		e.logger.Debug("[engine] paused, waiting for start")
		if !e.waitStarted(ctx) {
			return nil
		}
	}
}

// waitStarted blocks until the engine is running or ctx is done.
func (e *Engine) waitStarted(ctx context.Context) bool {
	for {
		e.mu.Lock()
		running, started := e.running, e.started
		e.mu.Unlock()
		if running {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-started:
		}
	}
}
