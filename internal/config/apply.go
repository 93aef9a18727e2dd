package config

import (
	"fmt"
	"log/slog"
	"time"

	"textexpand/internal/action"
	"textexpand/internal/engine"
	"textexpand/internal/hotkey"
	"textexpand/internal/hotstring"
	"textexpand/internal/keys"
)

// EngineOptions converts the engine section into engine options.
func (c *Config) EngineOptions(logger *slog.Logger) engine.Options {
	return engine.Options{
		BufferSize:   c.Engine.BufferSize,
		EndChars:     c.Engine.EndChars,
		TriggerDelay: nonZero(c.Engine.TriggerDelay),
		SettleDelay:  nonZero(c.Engine.SettleDelay),
		Logger:       logger,
	}
}

// A configured zero delay means no pause, which the engine spells negative.
func nonZero(d Duration) time.Duration {
	if d == 0 {
		return -1
	}
	return time.Duration(d)
}

// Apply replaces the engine's settings and triggers with those in c.
// Triggers are registered in file order so earlier entries shadow later ones.
func Apply(c *Config, e *engine.Engine, logger *slog.Logger) error {
	if err := c.Validate(); err != nil {
		return err
	}

	e.Configure(c.EngineOptions(logger))
	e.ClearRegistrations()

	for i, h := range c.Hotkeys {
		b, err := keys.ParseBinding(h.Keys)
		if err != nil {
			return fmt.Errorf("hotkeys[%d]: %w", i, err)
		}
		a, err := action.Decode(h.Action)
		if err != nil {
			return fmt.Errorf("hotkeys[%d]: %w", i, err)
		}
		var opts []hotkey.Option
		if h.Swallow {
			opts = append(opts, hotkey.Swallow())
		}
		if h.Description != "" {
			opts = append(opts, hotkey.Describe(h.Description))
		}
		e.RegisterHotkey(b.Key, b.Modifiers, a, opts...)
	}

	for i, h := range c.Hotstrings {
		opts := hotstringOptions(h)
		var err error
		if h.Action != nil {
			var a action.Action
			if a, err = action.Decode(*h.Action); err == nil {
				err = e.RegisterHotstringAction(h.Trigger, a, opts...)
			}
		} else {
			err = e.RegisterHotstring(h.Trigger, h.Replacement, opts...)
		}
		if err != nil {
			return fmt.Errorf("hotstrings[%d]: %w", i, err)
		}
	}
	return nil
}

func hotstringOptions(h HotstringConfig) []hotstring.Option {
	var opts []hotstring.Option
	if h.CaseSensitive {
		opts = append(opts, hotstring.CaseSensitive())
	}
	if h.Immediate {
		opts = append(opts, hotstring.Immediate())
	}
	if h.KeepTrigger {
		opts = append(opts, hotstring.KeepTriggerText())
	}
	if h.Paste {
		opts = append(opts, hotstring.SelectAndPaste())
	}
	if h.Description != "" {
		opts = append(opts, hotstring.Describe(h.Description))
	}
	return opts
}
