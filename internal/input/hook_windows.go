//go:build windows

package input

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"

	"textexpand/internal/keys"
)

// Windows implementation of the event source using a low-level keyboard hook

var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procSetWindowsHookEx    = user32.NewProc("SetWindowsHookExW")
	procUnhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	procCallNextHookEx      = user32.NewProc("CallNextHookEx")
	procGetMessage          = user32.NewProc("GetMessageW")
	procPeekMessage         = user32.NewProc("PeekMessageW")
	procTranslateMessage    = user32.NewProc("TranslateMessage")
	procDispatchMessage     = user32.NewProc("DispatchMessageW")
	procPostThreadMessage   = user32.NewProc("PostThreadMessageW")
	procGetAsyncKeyState    = user32.NewProc("GetAsyncKeyState")
	procGetModuleHandle     = kernel32.NewProc("GetModuleHandleW")
	procGetCurrentThreadID  = kernel32.NewProc("GetCurrentThreadId")
)

const (
	whKeyboardLL = 13
	hcAction     = 0

	wmQuit        = 0x0012
	wmKeyDown     = 0x0100
	wmSysKeyDown  = 0x0104
	pmNoRemove    = 0x0000
	llkhfInjected = 0x00000010

	uninstallTimeout = 2 * time.Second
)

// kbdLLHookStruct mirrors KBDLLHOOKSTRUCT.
type kbdLLHookStruct struct {
	VkCode      uint32
	ScanCode    uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

type point struct {
	x, y int32
}

// winMsg mirrors the Win32 MSG struct.
type winMsg struct {
	hWnd    uintptr
	message uint32
	wParam  uintptr
	lParam  uintptr
	time    uint32
	pt      point
}

type hookReady struct {
	threadID uint32
	err      error
}

// The OS callback carries no context, so the installed hook is reached
// through this pointer. Only one hook may be installed at a time.
var (
	activeHook   atomic.Pointer[Hook]
	hookCallback = windows.NewCallback(lowLevelKeyboardProc)
)

// Hook is the WH_KEYBOARD_LL event source.
type Hook struct {
	mu       sync.Mutex
	handler  Handler
	threadID uint32
	doneCh   chan struct{}
	logger   *slog.Logger
}

// NewHook creates an uninstalled keyboard hook.
func NewHook(logger *slog.Logger) *Hook {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hook{logger: logger}
}

// Install sets the hook on a dedicated OS thread that runs its message loop.
// It returns once the hook is in place or installation failed.
func (h *Hook) Install(handler Handler) error {
	if handler == nil {
		return errors.New("hook handler is required")
	}
	if err := user32.Load(); err != nil {
		return fmt.Errorf("user32.dll is unavailable: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.doneCh != nil {
		return nil
	}
	if !activeHook.CompareAndSwap(nil, h) {
		return errors.New("another keyboard hook is already installed")
	}
	h.handler = handler

	readyCh := make(chan hookReady, 1)
	doneCh := make(chan struct{})
	go h.hookLoop(readyCh, doneCh)

	ready := <-readyCh
	if ready.err != nil {
		activeHook.CompareAndSwap(h, nil)
		h.handler = nil
		return fmt.Errorf("install keyboard hook: %w", ready.err)
	}
	h.threadID = ready.threadID
	h.doneCh = doneCh
	return nil
}

// Uninstall stops the message loop, which unhooks on exit.
func (h *Hook) Uninstall() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.doneCh == nil {
		return nil
	}
	doneCh := h.doneCh
	h.doneCh = nil

	var err error
	if res, _, callErr := procPostThreadMessage.Call(uintptr(h.threadID), wmQuit, 0, 0); res == 0 {
		err = fmt.Errorf("PostThreadMessageW: %w", callErr)
	}

	timer := time.NewTimer(uninstallTimeout)
	defer timer.Stop()
	select {
	case <-doneCh:
	case <-timer.C:
		h.logger.Warn("[hook] message loop stop timed out, thread may leak", "threadID", h.threadID)
		err = errors.Join(err, errors.New("keyboard hook loop stop timed out"))
	}

	activeHook.CompareAndSwap(h, nil)
	h.handler = nil
	return err
}

// IsKeyDown queries GetAsyncKeyState. A failed query reads as released.
func (h *Hook) IsKeyDown(vk keys.VKey) bool {
	state, _, _ := procGetAsyncKeyState.Call(uintptr(vk))
	return state&0x8000 != 0
}

// Pump blocks until ctx is done or the hook's message loop exits.
func (h *Hook) Pump(ctx context.Context) error {
	h.mu.Lock()
	doneCh := h.doneCh
	h.mu.Unlock()
	if doneCh == nil {
		return errors.New("keyboard hook is not installed")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-doneCh:
		return nil
	}
}

func (h *Hook) hookLoop(readyCh chan<- hookReady, doneCh chan struct{}) {
	// Hooks must be set on the thread that runs the message loop
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(doneCh)

	tid, _, err := procGetCurrentThreadID.Call()
	if tid == 0 {
		readyCh <- hookReady{err: fmt.Errorf("GetCurrentThreadId: %w", err)}
		return
	}

	// Create the thread message queue so Uninstall can post WM_QUIT.
	var qmsg winMsg
	procPeekMessage.Call(uintptr(unsafe.Pointer(&qmsg)), 0, 0, 0, pmNoRemove)

	hMod, _, _ := procGetModuleHandle.Call(0)
	hook, _, err := procSetWindowsHookEx.Call(whKeyboardLL, hookCallback, hMod, 0)
	if hook == 0 {
		readyCh <- hookReady{err: fmt.Errorf("SetWindowsHookExW: %w", err)}
		return
	}
	defer func() {
		if res, _, err := procUnhookWindowsHookEx.Call(hook); res == 0 {
			h.logger.Error("[hook] UnhookWindowsHookEx failed", "error", err)
		}
	}()

	h.logger.Info("[hook] keyboard hook installed", "threadID", tid)
	readyCh <- hookReady{threadID: uint32(tid)}

	for {
		var msg winMsg
		ret, _, lastErr := procGetMessage.Call(uintptr(unsafe.Pointer(&msg)), 0, 0, 0)
		switch int32(ret) {
		case -1:
			h.logger.Warn("[hook] GetMessageW returned error, exiting loop", "error", lastErr)
			return
		case 0:
			h.logger.Info("[hook] message loop received WM_QUIT")
			return
		}
		procTranslateMessage.Call(uintptr(unsafe.Pointer(&msg)))
		procDispatchMessage.Call(uintptr(unsafe.Pointer(&msg)))
	}
}

func lowLevelKeyboardProc(nCode int, wParam uintptr, lParam uintptr) uintptr {
	if h := activeHook.Load(); nCode == hcAction && h != nil && h.handler != nil {
		kbd := (*kbdLLHookStruct)(unsafe.Pointer(lParam))
		ev := KeyEvent{
			Key:      keys.VKey(kbd.VkCode),
			Down:     wParam == wmKeyDown || wParam == wmSysKeyDown,
			Injected: kbd.Flags&llkhfInjected != 0,
		}
		if h.handler(ev) {
			return 1
		}
	}
	ret, _, _ := procCallNextHookEx.Call(0, uintptr(nCode), wParam, lParam)
	return ret
}
