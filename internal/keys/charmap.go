package keys

// DefaultEndChars are the characters that complete an EndChar hotstring.
// The colon is left out so that triggers such as "::date" can accumulate.
const DefaultEndChars = "-()[]{}';\"/\\,.?!\n\t "

type charKey struct {
	vk    VKey
	shift bool
}

// oemPairs maps punctuation keys to their unshifted and shifted characters
// on a US layout.
var oemPairs = map[VKey][2]rune{
	VKOem1:     {';', ':'},
	VKOemPlus:  {'=', '+'},
	VKOemComma: {',', '<'},
	VKOemMinus: {'-', '_'},
	VKOemDot:   {'.', '>'},
	VKOem2:     {'/', '?'},
	VKOem3:     {'`', '~'},
	VKOem4:     {'[', '{'},
	VKOem5:     {'\\', '|'},
	VKOem6:     {']', '}'},
	VKOem7:     {'\'', '"'},
}

const shiftedDigits = ")!@#$%^&*("

// shiftInvariant keys produce the same character with or without Shift.
var shiftInvariant = map[VKey]rune{
	VKSpace:    ' ',
	VKTab:      '\t',
	VKReturn:   '\n',
	VKMultiply: '*',
	VKAdd:      '+',
	VKSubtract: '-',
	VKDecimal:  '.',
	VKDivide:   '/',
}

var charTable = buildCharTable()

func buildCharTable() map[charKey]rune {
	t := make(map[charKey]rune, 128)
	for vk := VKey('A'); vk <= 'Z'; vk++ {
		t[charKey{vk, false}] = rune(vk) + ('a' - 'A')
		t[charKey{vk, true}] = rune(vk)
	}
	for vk := VKey('0'); vk <= '9'; vk++ {
		t[charKey{vk, false}] = rune(vk)
		t[charKey{vk, true}] = rune(shiftedDigits[vk-'0'])
	}
	for vk := VKNumpad0; vk <= VKNumpad9; vk++ {
		r := rune('0' + (vk - VKNumpad0))
		t[charKey{vk, false}] = r
		t[charKey{vk, true}] = r
	}
	for vk, pair := range oemPairs {
		t[charKey{vk, false}] = pair[0]
		t[charKey{vk, true}] = pair[1]
	}
	for vk, r := range shiftInvariant {
		t[charKey{vk, false}] = r
		t[charKey{vk, true}] = r
	}
	return t
}

// ToRune translates a key press into the character it types. ok is false
// for keys that produce no character (arrows, function keys, modifiers).
func ToRune(vk VKey, shift bool) (r rune, ok bool) {
	r, ok = charTable[charKey{vk, shift}]
	return r, ok
}

// EndChars is the set of characters that terminate a word.
type EndChars map[rune]struct{}

// NewEndChars builds a set from the runes of s.
func NewEndChars(s string) EndChars {
	set := make(EndChars, len(s))
	for _, r := range s {
		set[r] = struct{}{}
	}
	return set
}

// Contains reports whether r is an end character.
func (e EndChars) Contains(r rune) bool {
	_, ok := e[r]
	return ok
}
