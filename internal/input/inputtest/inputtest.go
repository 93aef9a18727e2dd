// Package inputtest provides in-memory fakes of the input ports.
package inputtest

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"textexpand/internal/input"
	"textexpand/internal/keys"
)

// Recorder is an Injector that records every call as a short string such as
// `key Backspace`, `type "by the way"`, `select 4` or `paste "a@b.com"`.
type Recorder struct {
	mu        sync.Mutex
	ops       []string
	clipboard string
	settle    time.Duration

	// ClipboardErr, when set, makes SetClipboardAndPaste fail before pasting.
	ClipboardErr error
	// Err, when set, is returned by every other call after recording it.
	Err error
}

var (
	_ input.Injector = (*Recorder)(nil)
	_ input.Settler  = (*Recorder)(nil)
)

func (r *Recorder) record(op string) {
	r.mu.Lock()
	r.ops = append(r.ops, op)
	r.mu.Unlock()
}

func (r *Recorder) PressAndRelease(vk keys.VKey) error {
	r.record("key " + vk.String())
	return r.Err
}

func (r *Recorder) TypeText(text string) error {
	r.record("type " + strconv.Quote(text))
	return r.Err
}

func (r *Recorder) SelectBackward(count int) error {
	r.record(fmt.Sprintf("select %d", count))
	return r.Err
}

func (r *Recorder) SetClipboardAndPaste(text string) error {
	if r.ClipboardErr != nil {
		return r.ClipboardErr
	}
	r.mu.Lock()
	r.clipboard = text
	r.mu.Unlock()
	r.record("paste " + strconv.Quote(text))
	return r.Err
}

func (r *Recorder) Launch(command string) error {
	r.record("launch " + command)
	return r.Err
}

func (r *Recorder) SetSettleDelay(d time.Duration) {
	r.mu.Lock()
	r.settle = d
	r.mu.Unlock()
}

// SettleDelay returns the last delay passed to SetSettleDelay.
func (r *Recorder) SettleDelay() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.settle
}

// Ops returns a copy of the recorded calls.
func (r *Recorder) Ops() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ops...)
}

// Clipboard returns the last pasted text.
func (r *Recorder) Clipboard() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clipboard
}

// Reset forgets recorded calls.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.ops = nil
	r.mu.Unlock()
}

// Source is a Source driven by the test: it holds keys and delivers events
// to the installed handler.
type Source struct {
	mu      sync.Mutex
	handler input.Handler
	held    map[keys.VKey]bool
	stop    chan struct{}

	// InstallErr, when set, makes Install fail.
	InstallErr error
	// Installs counts successful Install calls.
	Installs int
}

var _ input.Source = (*Source)(nil)

// NewSource creates a fake source with no keys held.
func NewSource() *Source {
	return &Source{held: make(map[keys.VKey]bool)}
}

func (s *Source) Install(h input.Handler) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.InstallErr != nil {
		return s.InstallErr
	}
	if s.handler != nil {
		return errors.New("already installed")
	}
	s.handler = h
	s.stop = make(chan struct{})
	s.Installs++
	return nil
}

func (s *Source) Uninstall() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handler == nil {
		return nil
	}
	s.handler = nil
	close(s.stop)
	return nil
}

func (s *Source) IsKeyDown(vk keys.VKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.held[vk]
}

func (s *Source) Pump(ctx context.Context) error {
	s.mu.Lock()
	stop := s.stop
	s.mu.Unlock()
	if stop == nil {
		return errors.New("not installed")
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-stop:
		return nil
	}
}

// Installed reports whether a handler is bound.
func (s *Source) Installed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handler != nil
}

// Hold marks keys as physically held without delivering events.
func (s *Source) Hold(vks ...keys.VKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, vk := range vks {
		s.held[vk] = true
	}
}

// Release marks keys as released without delivering events.
func (s *Source) Release(vks ...keys.VKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, vk := range vks {
		delete(s.held, vk)
	}
}

// Send delivers ev to the handler and returns its swallow decision. With no
// handler installed the event is forwarded.
func (s *Source) Send(ev input.KeyEvent) bool {
	s.mu.Lock()
	h := s.handler
	s.mu.Unlock()
	if h == nil {
		return false
	}
	return h(ev)
}

// Press delivers a physical key-down then key-up for vk and returns whether
// the key-down was swallowed.
func (s *Source) Press(vk keys.VKey) bool {
	swallowed := s.Send(input.KeyEvent{Key: vk, Down: true})
	s.Send(input.KeyEvent{Key: vk, Down: false})
	return swallowed
}

// Type presses the key for each rune of text on a US layout, holding Shift
// for shifted characters. It fails the test helper contract by panicking on
// characters with no key.
func (s *Source) Type(text string) {
	for _, r := range text {
		vk, shift, ok := KeyFor(r)
		if !ok {
			panic(fmt.Sprintf("inputtest: no key types %q", r))
		}
		if shift {
			s.Hold(keys.VKLShift)
		}
		s.Press(vk)
		if shift {
			s.Release(keys.VKLShift)
		}
	}
}

// KeyFor finds the key (and Shift state) that types r.
func KeyFor(r rune) (vk keys.VKey, shift bool, ok bool) {
	for code := keys.VKey(1); code < 0xFF; code++ {
		if code >= keys.VKNumpad0 && code <= keys.VKDivide {
			continue
		}
		for _, sh := range []bool{false, true} {
			if got, mapped := keys.ToRune(code, sh); mapped && got == r {
				return code, sh, true
			}
		}
	}
	return 0, false, false
}
