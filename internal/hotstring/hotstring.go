// Package hotstring recognizes typed trigger text and replaces it.
//
// A Buffer holds the characters typed since the last word boundary, a
// Matcher decides whether the latest character completes a registered
// trigger, and an Executor removes the trigger text and produces the
// replacement through an input.Injector.
package hotstring

import (
	"errors"
	"fmt"
	"strconv"

	"textexpand/internal/action"
)

// ErrEmptyTrigger is returned when registering a hotstring without trigger text.
var ErrEmptyTrigger = errors.New("hotstring: trigger must not be empty")

// TriggerMode selects how a trigger is detected.
type TriggerMode int

const (
	// TriggerEndChar fires when an end character follows the exact trigger
	// text.
	TriggerEndChar TriggerMode = iota
	// TriggerImmediate fires as soon as the typed text ends with the trigger.
	TriggerImmediate
)

func (m TriggerMode) String() string {
	switch m {
	case TriggerEndChar:
		return "endchar"
	case TriggerImmediate:
		return "immediate"
	default:
		return fmt.Sprintf("TriggerMode(%d)", int(m))
	}
}

// ReplaceMode selects how the consumed text is replaced.
type ReplaceMode int

const (
	// ReplaceRewrite erases the consumed text with backspaces and types the
	// replacement.
	ReplaceRewrite ReplaceMode = iota
	// ReplaceSelectPaste selects the consumed text and pastes over it.
	ReplaceSelectPaste
)

func (m ReplaceMode) String() string {
	switch m {
	case ReplaceRewrite:
		return "rewrite"
	case ReplaceSelectPaste:
		return "paste"
	default:
		return fmt.Sprintf("ReplaceMode(%d)", int(m))
	}
}

// Entry is one registered hotstring. When Action is set it is invoked
// instead of producing Replacement.
type Entry struct {
	Trigger       string
	Replacement   string
	Action        action.Action
	CaseSensitive bool
	TriggerMode   TriggerMode
	// ConsumeTriggerText erases the trigger before the replacement. It only
	// applies to ReplaceRewrite.
	ConsumeTriggerText bool
	ReplaceMode        ReplaceMode
	Description        string
}

// Option customizes an entry at registration.
type Option func(*Entry)

// CaseSensitive requires the typed text to match the trigger's casing.
func CaseSensitive() Option {
	return func(e *Entry) { e.CaseSensitive = true }
}

// Immediate fires without waiting for an end character.
func Immediate() Option {
	return func(e *Entry) { e.TriggerMode = TriggerImmediate }
}

// KeepTriggerText leaves the typed trigger in place.
func KeepTriggerText() Option {
	return func(e *Entry) { e.ConsumeTriggerText = false }
}

// SelectAndPaste replaces the trigger through the clipboard.
func SelectAndPaste() Option {
	return func(e *Entry) { e.ReplaceMode = ReplaceSelectPaste }
}

// Describe sets the entry's description.
func Describe(description string) Option {
	return func(e *Entry) { e.Description = description }
}

// NewEntry builds an entry that fires on an end character and rewrites by
// deletion, then applies opts.
func NewEntry(trigger, replacement string, a action.Action, opts ...Option) (Entry, error) {
	if trigger == "" {
		return Entry{}, ErrEmptyTrigger
	}
	e := Entry{
		Trigger:            trigger,
		Replacement:        replacement,
		Action:             a,
		ConsumeTriggerText: true,
	}
	for _, opt := range opts {
		opt(&e)
	}
	return e, nil
}

// Describe returns the description, or one derived from the trigger and
// what it produces.
func (e Entry) Describe() string {
	if e.Description != "" {
		return e.Description
	}
	if e.Action != nil {
		return fmt.Sprintf("%s: %s", e.Trigger, e.Action)
	}
	return fmt.Sprintf("%s: %s", e.Trigger, strconv.Quote(e.Replacement))
}
