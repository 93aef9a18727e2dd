// Package action defines what a hotkey or hotstring does when it fires.
//
// Actions are values rather than bare closures so that they can be listed,
// decoded from configuration and replaced by fakes in tests.
package action

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"textexpand/internal/input"
	"textexpand/internal/keys"
)

// Action is invoked synchronously on the event thread when its trigger
// matches. It must return quickly: all keyboard input waits for it.
type Action interface {
	Invoke(inj input.Injector) error
	String() string
}

// Func adapts a Go function.
type Func func(inj input.Injector) error

func (f Func) Invoke(inj input.Injector) error { return f(inj) }
func (f Func) String() string                  { return "func" }

// TypeText types Text as keystrokes.
type TypeText struct {
	Text string
}

func (a TypeText) Invoke(inj input.Injector) error { return inj.TypeText(a.Text) }
func (a TypeText) String() string                  { return "type " + quote(a.Text) }

// Paste puts Text on the clipboard and pastes it.
type Paste struct {
	Text string
}

func (a Paste) Invoke(inj input.Injector) error { return inj.SetClipboardAndPaste(a.Text) }
func (a Paste) String() string                  { return "paste " + quote(a.Text) }

// SendKey taps a single key.
type SendKey struct {
	Key keys.VKey
}

func (a SendKey) Invoke(inj input.Injector) error { return inj.PressAndRelease(a.Key) }
func (a SendKey) String() string                  { return "send " + a.Key.String() }

// Launch starts a program, document or URL.
type Launch struct {
	Command string
}

func (a Launch) Invoke(inj input.Injector) error { return inj.Launch(a.Command) }
func (a Launch) String() string                  { return "launch " + a.Command }

// DefaultDateLayout is used by Date when no layout is set.
const DefaultDateLayout = "2006-01-02"

// Date types the current time formatted with a Go time layout.
type Date struct {
	Layout string
	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

func (a Date) Invoke(inj input.Injector) error {
	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	return inj.TypeText(now().Format(a.layout()))
}

func (a Date) String() string { return "date " + a.layout() }

func (a Date) layout() string {
	if a.Layout == "" {
		return DefaultDateLayout
	}
	return a.Layout
}

// Sequence runs actions in order and stops at the first error.
type Sequence []Action

func (s Sequence) Invoke(inj input.Injector) error {
	for i, a := range s {
		if err := a.Invoke(inj); err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, a, err)
		}
	}
	return nil
}

func (s Sequence) String() string {
	parts := make([]string, len(s))
	for i, a := range s {
		parts[i] = a.String()
	}
	return strings.Join(parts, "; ")
}

// Safely invokes a and turns a panic into an error so a faulty action cannot
// take down the keyboard hook thread.
func Safely(a Action, inj input.Injector, logger *slog.Logger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if logger == nil {
				logger = slog.Default()
			}
			logger.Error("[action] recovered from panic",
				"action", a.String(),
				"panic", r,
				"stack", string(debug.Stack()),
			)
			err = fmt.Errorf("action %s panicked: %v", a, r)
		}
	}()
	return a.Invoke(inj)
}

func quote(s string) string {
	const limit = 40
	r := []rune(s)
	if len(r) > limit {
		return strconv.Quote(string(r[:limit])) + "..."
	}
	return strconv.Quote(s)
}
