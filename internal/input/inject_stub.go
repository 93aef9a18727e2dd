//go:build !windows

package input

import (
	"fmt"
	"sync/atomic"
	"time"

	"textexpand/internal/keys"
	"textexpand/internal/osutils"
)

// Stub implementation for non-Windows platforms. Clipboard writes and
// launching still work; keystroke synthesis does not.

// HostInjector represents a stub input injector
type HostInjector struct {
	settle atomic.Int64
}

// NewHostInjector creates a new stub injector
func NewHostInjector() *HostInjector {
	i := &HostInjector{}
	i.SetSettleDelay(DefaultSettleDelay)
	return i
}

// SetSettleDelay records the pause between caret moves
func (i *HostInjector) SetSettleDelay(d time.Duration) {
	i.settle.Store(int64(max(d, 0)))
}

// SettleDelay returns the pause between caret moves
func (i *HostInjector) SettleDelay() time.Duration {
	return time.Duration(i.settle.Load())
}

// PressAndRelease is not supported (stub)
func (i *HostInjector) PressAndRelease(vk keys.VKey) error {
	return fmt.Errorf("press %s: %w", vk, ErrUnsupported)
}

// TypeText is not supported (stub)
func (i *HostInjector) TypeText(_ string) error {
	return fmt.Errorf("type text: %w", ErrUnsupported)
}

// SelectBackward is not supported (stub)
func (i *HostInjector) SelectBackward(_ int) error {
	return fmt.Errorf("select backward: %w", ErrUnsupported)
}

// SetClipboardAndPaste writes the clipboard but cannot send the paste
// keystroke (stub)
func (i *HostInjector) SetClipboardAndPaste(text string) error {
	if err := writeClipboard(text); err != nil {
		return err
	}
	return fmt.Errorf("paste: %w", ErrUnsupported)
}

// Launch opens command with the desktop opener
func (i *HostInjector) Launch(command string) error {
	return osutils.Open(command)
}
