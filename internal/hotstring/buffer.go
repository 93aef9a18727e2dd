package hotstring

// DefaultBufferSize bounds the typed-text window.
const DefaultBufferSize = 32

// Buffer is a bounded sliding window over recently typed characters.
// Appending to a full buffer drops the oldest character.
type Buffer struct {
	runes []rune
	size  int
}

// NewBuffer creates a buffer holding at most size runes. A size below one
// selects DefaultBufferSize.
func NewBuffer(size int) *Buffer {
	if size < 1 {
		size = DefaultBufferSize
	}
	return &Buffer{runes: make([]rune, 0, size), size: size}
}

// Append adds r at the tail.
func (b *Buffer) Append(r rune) {
	if len(b.runes) == b.size {
		copy(b.runes, b.runes[1:])
		b.runes = b.runes[:b.size-1]
	}
	b.runes = append(b.runes, r)
}

// Backspace drops the last rune, mirroring a caret deletion.
func (b *Buffer) Backspace() {
	if len(b.runes) > 0 {
		b.runes = b.runes[:len(b.runes)-1]
	}
}

func (b *Buffer) Clear() {
	b.runes = b.runes[:0]
}

func (b *Buffer) String() string {
	return string(b.runes)
}

func (b *Buffer) Len() int {
	return len(b.runes)
}

// Size returns the bound.
func (b *Buffer) Size() int {
	return b.size
}
