// Package input connects the engine to the host keyboard: a Source delivers
// physical key transitions and an Injector synthesizes keystrokes, text and
// clipboard pastes.
package input

import (
	"context"
	"errors"
	"time"

	"textexpand/internal/keys"
)

// ErrUnsupported is returned by platform operations that have no
// implementation on the running OS.
var ErrUnsupported = errors.New("input: not supported on this platform")

// DefaultSettleDelay is the pause between synthetic caret moves.
const DefaultSettleDelay = 10 * time.Millisecond

// KeyEvent is one key transition delivered by the host.
type KeyEvent struct {
	Key  keys.VKey
	Down bool
	// Injected is set for synthesized input, ours or another program's.
	Injected bool
}

// Handler processes a key event and reports whether it must be swallowed
// (not forwarded to the rest of the system).
type Handler func(KeyEvent) (swallow bool)

// Source is the host keyboard event source.
type Source interface {
	// Install binds h to the system-wide keyboard stream.
	Install(h Handler) error
	// Uninstall removes the binding. It is safe to call when not installed.
	Uninstall() error
	// IsKeyDown reports the live physical state of vk.
	IsKeyDown(vk keys.VKey) bool
	// Pump blocks delivering events until ctx is done or the binding ends.
	Pump(ctx context.Context) error
}

// Injector synthesizes input. Everything it produces reaches the Source
// with Injected set.
type Injector interface {
	PressAndRelease(vk keys.VKey) error
	TypeText(text string) error
	// SelectBackward holds Shift and moves the caret left count times.
	SelectBackward(count int) error
	// SetClipboardAndPaste places text on the clipboard and sends a paste
	// command. If the clipboard cannot be written, nothing is pasted.
	SetClipboardAndPaste(text string) error
	// Launch starts a program, document or URL by name or path.
	Launch(command string) error
}

// Settler is implemented by injectors that pause between the synthetic caret
// moves of SelectBackward. A delay of zero or less means no pause.
type Settler interface {
	SetSettleDelay(d time.Duration)
}
