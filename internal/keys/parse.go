package keys

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownKey is returned when a binding names a key or modifier that has
// no virtual-key code.
var ErrUnknownKey = errors.New("unknown key")

// Binding is a key together with the exact modifier set that must be held.
type Binding struct {
	Key       VKey
	Modifiers ModifierSet
}

// String renders the binding as "Ctrl+Shift+K".
func (b Binding) String() string {
	if b.Modifiers.IsEmpty() {
		return b.Key.String()
	}
	return b.Modifiers.String() + "+" + b.Key.String()
}

var modifierByName = map[string]ModifierSet{
	"CTRL":    ModCtrl,
	"CONTROL": ModCtrl,
	"ALT":     ModAlt,
	"SHIFT":   ModShift,
	"WIN":     ModMeta,
	"SUPER":   ModMeta,
	"META":    ModMeta,
	"CMD":     ModMeta,
}

var keyByName = map[string]VKey{
	"BACKSPACE":   VKBack,
	"TAB":         VKTab,
	"ENTER":       VKReturn,
	"RETURN":      VKReturn,
	"PAUSE":       VKPause,
	"CAPSLOCK":    VKCapital,
	"ESC":         VKEscape,
	"ESCAPE":      VKEscape,
	"SPACE":       VKSpace,
	"PAGEUP":      VKPrior,
	"PAGEDOWN":    VKNext,
	"END":         VKEnd,
	"HOME":        VKHome,
	"LEFT":        VKLeft,
	"UP":          VKUp,
	"RIGHT":       VKRight,
	"DOWN":        VKDown,
	"PRINTSCREEN": VKSnapshot,
	"INSERT":      VKInsert,
	"DELETE":      VKDelete,
	"DEL":         VKDelete,
	"SCROLLLOCK":  VKScroll,
	"BACKQUOTE":   VKOem3,
	"GRAVE":       VKOem3,
}

// ParseBinding parses strings like "Ctrl+Shift+K", "Alt+F4" or "F9".
// Modifier and key names are case-insensitive; a binding without modifiers
// is allowed.
func ParseBinding(spec string) (Binding, error) {
	raw := strings.TrimSpace(spec)
	if raw == "" {
		return Binding{}, errors.New("binding is empty")
	}

	parts := strings.Split(raw, "+")
	// "Ctrl++" binds the plus key.
	if strings.HasSuffix(raw, "++") {
		parts = append(parts[:len(parts)-2], "+")
	}

	var mods ModifierSet
	for _, token := range parts[:len(parts)-1] {
		name := strings.ToUpper(strings.TrimSpace(token))
		mod, ok := modifierByName[name]
		if !ok {
			return Binding{}, fmt.Errorf("%w: modifier %q in %q", ErrUnknownKey, token, raw)
		}
		mods = mods.With(mod)
	}

	key, err := ParseKey(parts[len(parts)-1])
	if err != nil {
		return Binding{}, fmt.Errorf("binding %q: %w", raw, err)
	}
	return Binding{Key: key, Modifiers: mods}, nil
}

// ParseKey resolves a single key token: a letter, digit, punctuation
// character, F1-F24, a key name such as "Space", or a hex code like "0x41".
func ParseKey(token string) (VKey, error) {
	tok := strings.ToUpper(strings.TrimSpace(token))
	if tok == "" {
		return 0, fmt.Errorf("%w: missing key token", ErrUnknownKey)
	}
	if vk, ok := keyByName[tok]; ok {
		return vk, nil
	}
	if len(tok) == 1 {
		ch := tok[0]
		switch {
		case ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
			return VKey(ch), nil
		}
		for vk, pair := range oemPairs {
			if rune(ch) == pair[0] || rune(ch) == pair[1] {
				return vk, nil
			}
		}
	}
	if strings.HasPrefix(tok, "F") {
		if n, err := strconv.Atoi(tok[1:]); err == nil && n >= 1 && n <= 24 {
			return VKF1 + VKey(n-1), nil
		}
	}
	if strings.HasPrefix(tok, "0X") {
		value, err := strconv.ParseUint(tok[2:], 16, 16)
		if err != nil || value == 0 {
			return 0, fmt.Errorf("%w: invalid hex key %q", ErrUnknownKey, token)
		}
		return VKey(value), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKey, token)
}
