// Package keys defines virtual-key codes, modifier sets and the lookup tables
// that turn key presses into characters for hotstring matching.
package keys

import "fmt"

// VKey is a Win32 virtual-key code. It is the key identity used throughout
// the engine regardless of which platform produced the event.
type VKey uint16

const (
	VKBack     VKey = 0x08
	VKTab      VKey = 0x09
	VKReturn   VKey = 0x0D
	VKShift    VKey = 0x10
	VKControl  VKey = 0x11
	VKMenu     VKey = 0x12 // Alt
	VKPause    VKey = 0x13
	VKCapital  VKey = 0x14
	VKEscape   VKey = 0x1B
	VKSpace    VKey = 0x20
	VKPrior    VKey = 0x21
	VKNext     VKey = 0x22
	VKEnd      VKey = 0x23
	VKHome     VKey = 0x24
	VKLeft     VKey = 0x25
	VKUp       VKey = 0x26
	VKRight    VKey = 0x27
	VKDown     VKey = 0x28
	VKSnapshot VKey = 0x2C
	VKInsert   VKey = 0x2D
	VKDelete   VKey = 0x2E
	VKLWin     VKey = 0x5B
	VKRWin     VKey = 0x5C
	VKNumpad0  VKey = 0x60
	VKNumpad9  VKey = 0x69
	VKMultiply VKey = 0x6A
	VKAdd      VKey = 0x6B
	VKSubtract VKey = 0x6D
	VKDecimal  VKey = 0x6E
	VKDivide   VKey = 0x6F
	VKF1       VKey = 0x70
	VKF24      VKey = 0x87
	VKScroll   VKey = 0x91
	VKLShift   VKey = 0xA0
	VKRShift   VKey = 0xA1
	VKLControl VKey = 0xA2
	VKRControl VKey = 0xA3
	VKLMenu    VKey = 0xA4
	VKRMenu    VKey = 0xA5
	VKOem1     VKey = 0xBA // ;:
	VKOemPlus  VKey = 0xBB // =+
	VKOemComma VKey = 0xBC // ,<
	VKOemMinus VKey = 0xBD // -_
	VKOemDot   VKey = 0xBE // .>
	VKOem2     VKey = 0xBF // /?
	VKOem3     VKey = 0xC0 // `~
	VKOem4     VKey = 0xDB // [{
	VKOem5     VKey = 0xDC // \|
	VKOem6     VKey = 0xDD // ]}
	VKOem7     VKey = 0xDE // '"
)

var namedKeys = map[VKey]string{
	VKBack:     "Backspace",
	VKTab:      "Tab",
	VKReturn:   "Enter",
	VKPause:    "Pause",
	VKCapital:  "CapsLock",
	VKEscape:   "Esc",
	VKSpace:    "Space",
	VKPrior:    "PageUp",
	VKNext:     "PageDown",
	VKEnd:      "End",
	VKHome:     "Home",
	VKLeft:     "Left",
	VKUp:       "Up",
	VKRight:    "Right",
	VKDown:     "Down",
	VKSnapshot: "PrintScreen",
	VKInsert:   "Insert",
	VKDelete:   "Delete",
	VKScroll:   "ScrollLock",
	VKOem1:     ";",
	VKOemPlus:  "=",
	VKOemComma: ",",
	VKOemMinus: "-",
	VKOemDot:   ".",
	VKOem2:     "/",
	VKOem3:     "`",
	VKOem4:     "[",
	VKOem5:     "\\",
	VKOem6:     "]",
	VKOem7:     "'",
}

// IsModifier reports whether vk is one of the Ctrl/Alt/Shift/Win keys.
func (vk VKey) IsModifier() bool {
	switch vk {
	case VKShift, VKControl, VKMenu, VKLWin, VKRWin,
		VKLShift, VKRShift, VKLControl, VKRControl, VKLMenu, VKRMenu:
		return true
	}
	return false
}

// String returns the display name used in binding strings, e.g. "K", "F5", "Space".
func (vk VKey) String() string {
	if name, ok := namedKeys[vk]; ok {
		return name
	}
	switch {
	case vk >= 'A' && vk <= 'Z', vk >= '0' && vk <= '9':
		return string(rune(vk))
	case vk >= VKF1 && vk <= VKF24:
		return fmt.Sprintf("F%d", vk-VKF1+1)
	case vk >= VKNumpad0 && vk <= VKNumpad9:
		return fmt.Sprintf("Numpad%d", vk-VKNumpad0)
	}
	return fmt.Sprintf("0x%02X", uint16(vk))
}
