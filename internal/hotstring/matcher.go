package hotstring

import (
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// Match is a detected trigger. Consumed counts the characters that were
// typed for it, including the end character in TriggerEndChar mode.
type Match struct {
	Entry    Entry
	Consumed int
}

type compiled struct {
	Entry
	// folded is the trigger in comparison form
	folded string
}

// Matcher holds hotstrings in registration order and tests each typed
// character against them.
type Matcher struct {
	mu      sync.RWMutex
	entries []compiled
}

func NewMatcher() *Matcher {
	return &Matcher{}
}

// Add appends e. An earlier entry shadows later ones that match the same
// text.
func (m *Matcher) Add(e Entry) error {
	if e.Trigger == "" {
		return ErrEmptyTrigger
	}
	c := compiled{Entry: e, folded: e.Trigger}
	if !e.CaseSensitive {
		c.folded = cases.Fold().String(e.Trigger)
	}

	m.mu.Lock()
	m.entries = append(m.entries, c)
	m.mu.Unlock()
	return nil
}

// Entries returns a copy of the registered hotstrings in order.
func (m *Matcher) Entries() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Entry, len(m.entries))
	for i, c := range m.entries {
		out[i] = c.Entry
	}
	return out
}

func (m *Matcher) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *Matcher) Clear() {
	m.mu.Lock()
	m.entries = nil
	m.mu.Unlock()
}

// OnCharacter appends r to buf and looks for the first entry that the new
// text completes. A match clears buf. Without a match an end character also
// clears buf, while any other character leaves it to keep accumulating.
func (m *Matcher) OnCharacter(buf *Buffer, r rune, isEndChar bool) (Match, bool) {
	buf.Append(r)

	text := buf.String()
	// Text before the end character, for TriggerEndChar comparisons.
	body := strings.TrimSuffix(text, string(r))

	var foldedText, foldedBody string
	fold := cases.Fold()
	folds := func() {
		if foldedText == "" {
			foldedText = fold.String(text)
			foldedBody = fold.String(body)
		}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.entries {
		t, b := text, body
		if !c.CaseSensitive {
			folds()
			t, b = foldedText, foldedBody
		}

		var consumed int
		switch c.TriggerMode {
		case TriggerImmediate:
			if !strings.HasSuffix(t, c.folded) {
				continue
			}
			consumed = utf8.RuneCountInString(c.Trigger)
		default:
			if !isEndChar || b != c.folded {
				continue
			}
			consumed = utf8.RuneCountInString(c.Trigger) + 1
		}

		buf.Clear()
		return Match{Entry: c.Entry, Consumed: consumed}, true
	}

	if isEndChar {
		buf.Clear()
	}
	return Match{}, false
}
