package keys

import "strings"

// ModifierSet is a set over {Ctrl, Alt, Shift, Meta}. Two sets match only
// when they are equal; a superset is a different set.
type ModifierSet uint8

const (
	ModCtrl ModifierSet = 1 << iota
	ModAlt
	ModShift
	// ModMeta is the Windows/Super/Command key.
	ModMeta

	// ModNone is the empty set.
	ModNone ModifierSet = 0
)

// Has reports whether m contains every modifier in mod.
func (m ModifierSet) Has(mod ModifierSet) bool {
	return m&mod == mod
}

// With returns m with mod added.
func (m ModifierSet) With(mod ModifierSet) ModifierSet {
	return m | mod
}

// Without returns m with mod removed.
func (m ModifierSet) Without(mod ModifierSet) ModifierSet {
	return m &^ mod
}

// IsEmpty reports whether no modifier is held.
func (m ModifierSet) IsEmpty() bool {
	return m == ModNone
}

// PermitsText reports whether typing under m should feed the hotstring
// buffer: only the empty set and exactly {Shift} do.
func (m ModifierSet) PermitsText() bool {
	return m == ModNone || m == ModShift
}

// String renders the set as "Ctrl+Alt+Shift+Meta" (in that order).
func (m ModifierSet) String() string {
	if m == ModNone {
		return ""
	}
	var parts []string
	if m.Has(ModCtrl) {
		parts = append(parts, "Ctrl")
	}
	if m.Has(ModAlt) {
		parts = append(parts, "Alt")
	}
	if m.Has(ModShift) {
		parts = append(parts, "Shift")
	}
	if m.Has(ModMeta) {
		parts = append(parts, "Meta")
	}
	return strings.Join(parts, "+")
}

// modifierKeys lists, per modifier, the generic and side-specific virtual
// keys whose held state sets it.
var modifierKeys = []struct {
	mod  ModifierSet
	keys []VKey
}{
	{ModCtrl, []VKey{VKControl, VKLControl, VKRControl}},
	{ModAlt, []VKey{VKMenu, VKLMenu, VKRMenu}},
	{ModShift, []VKey{VKShift, VKLShift, VKRShift}},
	{ModMeta, []VKey{VKLWin, VKRWin}},
}

// Snapshot builds a ModifierSet from a live "is key held" query.
func Snapshot(isDown func(VKey) bool) ModifierSet {
	var m ModifierSet
	for _, mk := range modifierKeys {
		for _, vk := range mk.keys {
			if isDown(vk) {
				m = m.With(mk.mod)
				break
			}
		}
	}
	return m
}
