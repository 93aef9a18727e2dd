//go:build windows

package input

import (
	"fmt"
	"sync/atomic"
	"time"
	"unicode/utf16"
	"unsafe"

	"textexpand/internal/keys"
	"textexpand/internal/osutils"
)

// Windows implementation of input injection using SendInput

var procSendInput = user32.NewProc("SendInput")

const (
	inputKeyboard     = 1
	keyeventfExtended = 0x0001
	keyeventfKeyUp    = 0x0002
	keyeventfUnicode  = 0x0004
)

type keyboardInput struct {
	WVK         uint16
	WScan       uint16
	DwFlags     uint32
	Time        uint32
	DwExtraInfo uintptr
}

// sendInput mirrors INPUT for the keyboard member of the union.
type sendInput struct {
	Type  uint32
	_pad1 uint32
	Ki    keyboardInput
	_pad2 uint64
}

// Keys that need KEYEVENTF_EXTENDEDKEY to be told apart from the numpad.
var extendedKeys = map[keys.VKey]bool{
	keys.VKPrior: true, keys.VKNext: true, keys.VKEnd: true, keys.VKHome: true,
	keys.VKLeft: true, keys.VKUp: true, keys.VKRight: true, keys.VKDown: true,
	keys.VKInsert: true, keys.VKDelete: true, keys.VKDivide: true,
	keys.VKRControl: true, keys.VKRMenu: true,
}

// HostInjector synthesizes input with SendInput. The OS flags everything it
// sends as injected.
type HostInjector struct {
	// settle is slept after each Left press in SelectBackward.
	settle atomic.Int64
}

// NewHostInjector creates a SendInput injector.
func NewHostInjector() *HostInjector {
	i := &HostInjector{}
	i.SetSettleDelay(DefaultSettleDelay)
	return i
}

// SetSettleDelay changes the pause between caret moves. It may be called
// while input is being synthesized.
func (i *HostInjector) SetSettleDelay(d time.Duration) {
	i.settle.Store(int64(max(d, 0)))
}

// SettleDelay returns the pause between caret moves.
func (i *HostInjector) SettleDelay() time.Duration {
	return time.Duration(i.settle.Load())
}

func vkInput(vk keys.VKey, up bool) sendInput {
	var flags uint32
	if up {
		flags |= keyeventfKeyUp
	}
	if extendedKeys[vk] {
		flags |= keyeventfExtended
	}
	return sendInput{Type: inputKeyboard, Ki: keyboardInput{WVK: uint16(vk), DwFlags: flags}}
}

func unicodeInput(unit uint16, up bool) sendInput {
	flags := uint32(keyeventfUnicode)
	if up {
		flags |= keyeventfKeyUp
	}
	return sendInput{Type: inputKeyboard, Ki: keyboardInput{WScan: unit, DwFlags: flags}}
}

func send(ins ...sendInput) error {
	if len(ins) == 0 {
		return nil
	}
	ret, _, err := procSendInput.Call(
		uintptr(len(ins)),
		uintptr(unsafe.Pointer(&ins[0])),
		unsafe.Sizeof(sendInput{}),
	)
	if int(ret) != len(ins) {
		return fmt.Errorf("SendInput sent %d of %d events: %w", ret, len(ins), err)
	}
	return nil
}

// PressAndRelease taps a single key.
func (i *HostInjector) PressAndRelease(vk keys.VKey) error {
	return send(vkInput(vk, false), vkInput(vk, true))
}

// TypeText types text as Unicode keystrokes. Newlines and tabs are sent as
// Enter and Tab key presses since many controls ignore them as characters.
func (i *HostInjector) TypeText(text string) error {
	ins := make([]sendInput, 0, len(text)*2)
	for _, r := range text {
		switch r {
		case '\r':
			continue
		case '\n':
			ins = append(ins, vkInput(keys.VKReturn, false), vkInput(keys.VKReturn, true))
			continue
		case '\t':
			ins = append(ins, vkInput(keys.VKTab, false), vkInput(keys.VKTab, true))
			continue
		}
		for _, unit := range utf16.Encode([]rune{r}) {
			ins = append(ins, unicodeInput(unit, false), unicodeInput(unit, true))
		}
	}
	return send(ins...)
}

// SelectBackward holds Shift and presses Left count times.
func (i *HostInjector) SelectBackward(count int) error {
	if count <= 0 {
		return nil
	}
	if err := send(vkInput(keys.VKShift, false)); err != nil {
		return err
	}
	var err error
	for n := 0; n < count && err == nil; n++ {
		err = i.PressAndRelease(keys.VKLeft)
		if d := i.SettleDelay(); d > 0 {
			time.Sleep(d)
		}
	}
	if upErr := send(vkInput(keys.VKShift, true)); err == nil {
		err = upErr
	}
	return err
}

// SetClipboardAndPaste writes the clipboard and sends Ctrl+V.
func (i *HostInjector) SetClipboardAndPaste(text string) error {
	if err := writeClipboard(text); err != nil {
		return err
	}
	return send(
		vkInput(keys.VKControl, false),
		vkInput('V', false),
		vkInput('V', true),
		vkInput(keys.VKControl, true),
	)
}

// Launch opens command through the shell.
func (i *HostInjector) Launch(command string) error {
	return osutils.Open(command)
}
