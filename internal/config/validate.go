package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"unicode/utf8"

	"textexpand/internal/action"
	"textexpand/internal/keys"
)

// ErrInvalidConfig is wrapped by every parse and validation failure.
var ErrInvalidConfig = errors.New("invalid config")

const maxBufferSize = 256

var logLevels = map[string]bool{"": true, "debug": true, "info": true, "warn": true, "error": true}

// Validate reports every problem found, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if c.Engine.BufferSize < 1 || c.Engine.BufferSize > maxBufferSize {
		add("engine.buffer_size must be between 1 and %d, got %d", maxBufferSize, c.Engine.BufferSize)
	}
	if c.Engine.TriggerDelay < 0 {
		add("engine.trigger_delay must not be negative")
	}
	if c.Engine.SettleDelay < 0 {
		add("engine.settle_delay must not be negative")
	}
	if !logLevels[strings.ToLower(c.LogLevel)] {
		add("log_level %q is not one of debug, info, warn, error", c.LogLevel)
	}

	if c.API.Enabled {
		if _, _, err := net.SplitHostPort(c.API.Addr); err != nil {
			add("api.addr %q: %v", c.API.Addr, err)
		}
	}

	for i, h := range c.Hotkeys {
		if _, err := keys.ParseBinding(h.Keys); err != nil {
			add("hotkeys[%d]: %v", i, err)
		}
		if _, err := action.Decode(h.Action); err != nil {
			add("hotkeys[%d] (%s): %v", i, h.Keys, err)
		}
	}

	for i, h := range c.Hotstrings {
		if h.Trigger == "" {
			add("hotstrings[%d]: trigger is required", i)
			continue
		}
		need := utf8.RuneCountInString(h.Trigger)
		if !h.Immediate {
			need++
		}
		if c.Engine.BufferSize > 0 && need > c.Engine.BufferSize {
			add("hotstrings[%d] (%s): trigger cannot fit in a buffer of %d", i, h.Trigger, c.Engine.BufferSize)
		}
		switch {
		case h.Action != nil:
			if _, err := action.Decode(*h.Action); err != nil {
				add("hotstrings[%d] (%s): %v", i, h.Trigger, err)
			}
		case h.Replacement == "":
			add("hotstrings[%d] (%s): replacement or action is required", i, h.Trigger)
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
}
