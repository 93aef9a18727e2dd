package hotstring

import (
	"fmt"
	"log/slog"
	"time"

	"textexpand/internal/action"
	"textexpand/internal/input"
	"textexpand/internal/keys"
)

const (
	// DefaultTriggerDelay lets the focused application finish handling the
	// key that completed the trigger before any text is rewritten.
	DefaultTriggerDelay = 50 * time.Millisecond
	// DefaultSettleDelay separates consecutive synthetic backspaces.
	DefaultSettleDelay = 10 * time.Millisecond
)

// Executor turns a Match into synthetic input.
type Executor struct {
	Injector     input.Injector
	TriggerDelay time.Duration
	SettleDelay  time.Duration
	// Sleep waits between steps; nil means time.Sleep.
	Sleep  func(time.Duration)
	Logger *slog.Logger
}

// NewExecutor creates an executor with the default delays.
func NewExecutor(inj input.Injector, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		Injector:     inj,
		TriggerDelay: DefaultTriggerDelay,
		SettleDelay:  DefaultSettleDelay,
		Logger:       logger,
	}
}

func (x *Executor) sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	if x.Sleep != nil {
		x.Sleep(d)
		return
	}
	time.Sleep(d)
}

func (x *Executor) logger() *slog.Logger {
	if x.Logger == nil {
		return slog.Default()
	}
	return x.Logger
}

// Execute removes the consumed text and produces the entry's replacement or
// runs its action. Text already erased is not restored when a later step
// fails.
func (x *Executor) Execute(m Match) error {
	x.sleep(x.TriggerDelay)

	switch m.Entry.ReplaceMode {
	case ReplaceSelectPaste:
		return x.selectAndPaste(m)
	default:
		return x.rewrite(m)
	}
}

func (x *Executor) rewrite(m Match) error {
	if m.Entry.ConsumeTriggerText {
		for i := 0; i < m.Consumed; i++ {
			if err := x.Injector.PressAndRelease(keys.VKBack); err != nil {
				return fmt.Errorf("erase trigger %q: %w", m.Entry.Trigger, err)
			}
			x.sleep(x.SettleDelay)
		}
	}

	if m.Entry.Action != nil {
		return action.Safely(m.Entry.Action, x.Injector, x.logger())
	}
	if m.Entry.Replacement == "" {
		return nil
	}
	if err := x.Injector.TypeText(m.Entry.Replacement); err != nil {
		return fmt.Errorf("type replacement for %q: %w", m.Entry.Trigger, err)
	}
	return nil
}

func (x *Executor) selectAndPaste(m Match) error {
	if err := x.Injector.SelectBackward(m.Consumed); err != nil {
		return fmt.Errorf("select trigger %q: %w", m.Entry.Trigger, err)
	}

	if m.Entry.Action == nil && m.Entry.Replacement != "" {
		if err := x.Injector.SetClipboardAndPaste(m.Entry.Replacement); err != nil {
			// The selection stays in place; the user can still type over it.
			x.logger().Warn("[hotstring] paste failed", "trigger", m.Entry.Trigger, "error", err)
		}
		return nil
	}

	if err := x.Injector.PressAndRelease(keys.VKDelete); err != nil {
		return fmt.Errorf("delete selection for %q: %w", m.Entry.Trigger, err)
	}
	if m.Entry.Action != nil {
		return action.Safely(m.Entry.Action, x.Injector, x.logger())
	}
	return nil
}
