package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"textexpand/internal/action"
	"textexpand/internal/hotkey"
	"textexpand/internal/hotstring"
	"textexpand/internal/input"
	"textexpand/internal/input/inputtest"
	"textexpand/internal/keys"
)

type harness struct {
	engine *Engine
	source *inputtest.Source
	rec    *inputtest.Recorder
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	if opts.Sleep == nil {
		opts.Sleep = func(time.Duration) {}
	}
	h := &harness{source: inputtest.NewSource(), rec: &inputtest.Recorder{}}
	h.engine = New(h.source, h.rec, opts)
	t.Cleanup(func() { _ = h.engine.Stop() })
	return h
}

func (h *harness) start(t *testing.T) {
	t.Helper()
	require.NoError(t, h.engine.Start())
}

func TestRewriteByDeletionScenario(t *testing.T) {
	h := newHarness(t, Options{})
	require.NoError(t, h.engine.RegisterHotstring("btw", "by the way"))
	h.start(t)

	h.source.Type("btw")
	assert.Empty(t, h.rec.Ops())
	h.source.Type(" ")

	assert.Equal(t, []string{
		"key Backspace", "key Backspace", "key Backspace", "key Backspace",
		`type "by the way"`,
	}, h.rec.Ops())
	assert.Equal(t, "", h.engine.BufferText())
}

func TestSelectAndPasteScenario(t *testing.T) {
	h := newHarness(t, Options{})
	require.NoError(t, h.engine.RegisterHotstring("eml", "a@b.com", hotstring.SelectAndPaste()))
	h.start(t)

	h.source.Type("eml ")
	assert.Equal(t, []string{"select 4", `paste "a@b.com"`}, h.rec.Ops())
}

func TestSwallowedHotkeyScenario(t *testing.T) {
	h := newHarness(t, Options{})
	var count int
	h.engine.RegisterHotkey('K', keys.ModCtrl, action.Func(func(input.Injector) error {
		count++
		return nil
	}), hotkey.Swallow())
	h.start(t)

	h.source.Hold(keys.VKLControl)
	assert.True(t, h.source.Press('K'), "matched key-down is swallowed")
	assert.Equal(t, 1, count)

	h.source.Hold(keys.VKRShift)
	assert.False(t, h.source.Press('K'), "Ctrl+Shift+K must not match Ctrl+K")
	assert.Equal(t, 1, count)
}

func TestImmediateScenario(t *testing.T) {
	h := newHarness(t, Options{})
	fixed := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	require.NoError(t, h.engine.RegisterHotstringAction("::date",
		action.Date{Now: func() time.Time { return fixed }}, hotstring.Immediate()))
	h.start(t)

	h.source.Type("::dat")
	assert.Empty(t, h.rec.Ops())
	h.source.Type("e")

	ops := h.rec.Ops()
	require.Len(t, ops, 7)
	assert.Equal(t, `type "2024-03-09"`, ops[6])
}

func TestInjectedEventsAreIgnored(t *testing.T) {
	h := newHarness(t, Options{})
	var count int
	h.engine.RegisterHotkey(keys.VKF1 + 4, keys.ModNone, action.Func(func(input.Injector) error {
		count++
		return nil
	}), hotkey.Swallow())
	require.NoError(t, h.engine.RegisterHotstring("btw", "by the way"))
	h.start(t)

	for _, vk := range []keys.VKey{'B', 'T', 'W', keys.VKSpace, keys.VKF1 + 4} {
		swallowed := h.source.Send(input.KeyEvent{Key: vk, Down: true, Injected: true})
		assert.False(t, swallowed)
	}
	assert.Equal(t, 0, count)
	assert.Empty(t, h.rec.Ops())
	assert.Equal(t, "", h.engine.BufferText())
}

func TestKeyUpIsIgnored(t *testing.T) {
	h := newHarness(t, Options{})
	h.start(t)

	h.source.Send(input.KeyEvent{Key: 'A', Down: false})
	assert.Equal(t, "", h.engine.BufferText())
}

func TestHotstringGating(t *testing.T) {
	h := newHarness(t, Options{})
	require.NoError(t, h.engine.RegisterHotstring("btw", "by the way"))
	h.start(t)

	h.source.Type("bt")
	assert.Equal(t, "bt", h.engine.BufferText())

	h.source.Hold(keys.VKLMenu)
	h.source.Press('X')
	h.source.Release(keys.VKLMenu)
	assert.Equal(t, "", h.engine.BufferText(), "chords clear the window")

	h.source.Type("w ")
	assert.Empty(t, h.rec.Ops())

	h.source.Type("BTW ")
	assert.Len(t, h.rec.Ops(), 5, "Shift alone still types")
}

func TestEscapeAndBackspace(t *testing.T) {
	h := newHarness(t, Options{})
	require.NoError(t, h.engine.RegisterHotstring("btw", "by the way"))
	h.start(t)

	h.source.Type("btx")
	h.source.Press(keys.VKBack)
	assert.Equal(t, "bt", h.engine.BufferText())
	h.source.Type("w ")
	assert.Len(t, h.rec.Ops(), 5)

	h.rec.Reset()
	h.source.Type("bt")
	h.source.Press(keys.VKEscape)
	assert.Equal(t, "", h.engine.BufferText())
	h.source.Type("w ")
	assert.Empty(t, h.rec.Ops())
}

func TestHotkeyWithoutSwallowFallsThrough(t *testing.T) {
	h := newHarness(t, Options{})
	var count int
	h.engine.RegisterHotkey('W', keys.ModNone, action.Func(func(input.Injector) error {
		count++
		return nil
	}))
	require.NoError(t, h.engine.RegisterHotstring("btw", "by the way"))
	h.start(t)

	h.source.Type("btw ")
	assert.Equal(t, 1, count)
	assert.Len(t, h.rec.Ops(), 5)
}

func TestHotstringFirstMatchWins(t *testing.T) {
	h := newHarness(t, Options{})
	require.NoError(t, h.engine.RegisterHotstring("on", "first", hotstring.Immediate(), hotstring.KeepTriggerText()))
	require.NoError(t, h.engine.RegisterHotstring("ion", "second", hotstring.Immediate(), hotstring.KeepTriggerText()))
	h.start(t)

	h.source.Type("ion")
	assert.Equal(t, []string{`type "first"`}, h.rec.Ops())
}

func TestSlidingWindow(t *testing.T) {
	h := newHarness(t, Options{BufferSize: 3})
	h.start(t)

	h.source.Type("abcd")
	assert.Equal(t, "bcd", h.engine.BufferText())
}

func TestCustomEndChars(t *testing.T) {
	h := newHarness(t, Options{EndChars: "#"})
	require.NoError(t, h.engine.RegisterHotstring("btw", "by the way"))
	h.start(t)

	h.source.Type("btw ")
	assert.Empty(t, h.rec.Ops())

	h.engine.Configure(Options{EndChars: "#", Sleep: func(time.Duration) {}})
	h.source.Type("btw#")
	assert.Len(t, h.rec.Ops(), 5)
}

func TestRegistrationErrors(t *testing.T) {
	h := newHarness(t, Options{})
	assert.ErrorIs(t, h.engine.RegisterHotstring("", "x"), hotstring.ErrEmptyTrigger)
	assert.Error(t, h.engine.RegisterHotstringAction("x", nil))
}

func TestIntrospection(t *testing.T) {
	h := newHarness(t, Options{})
	h.engine.RegisterHotkey('K', keys.ModCtrl, action.Launch{Command: "calc"}, hotkey.Describe("calculator"))
	h.engine.RegisterHotkey('J', keys.ModCtrl|keys.ModAlt, action.SendKey{Key: keys.VKHome})
	require.NoError(t, h.engine.RegisterHotstring("btw", "by the way"))
	require.NoError(t, h.engine.RegisterHotstringAction("::d", action.Date{}, hotstring.Describe("today")))

	assert.Equal(t, []Info{
		{Trigger: "Ctrl+K", Description: "calculator"},
		{Trigger: "Ctrl+Alt+J", Description: "Ctrl+Alt+J: send Home"},
	}, h.engine.Hotkeys())
	assert.Equal(t, []Info{
		{Trigger: "btw", Description: `btw: "by the way"`},
		{Trigger: "::d", Description: "today"},
	}, h.engine.Hotstrings())

	h.engine.ClearRegistrations()
	assert.Empty(t, h.engine.Hotkeys())
	assert.Empty(t, h.engine.Hotstrings())
}

func TestLifecycle(t *testing.T) {
	h := newHarness(t, Options{})
	assert.False(t, h.engine.Running())
	assert.NoError(t, h.engine.Stop(), "stopping a stopped engine is a no-op")

	h.start(t)
	assert.True(t, h.engine.Running())
	assert.NoError(t, h.engine.Start(), "starting twice is a no-op")
	assert.Equal(t, 1, h.source.Installs)

	require.NoError(t, h.engine.Stop())
	assert.False(t, h.engine.Running())
	assert.False(t, h.source.Installed())

	h.start(t)
	assert.Equal(t, 2, h.source.Installs)
}

func TestOnlyOneActiveEngine(t *testing.T) {
	first := newHarness(t, Options{})
	second := newHarness(t, Options{})

	first.start(t)
	assert.ErrorIs(t, second.engine.Start(), ErrAnotherEngineActive)
	assert.False(t, second.engine.Running())

	require.NoError(t, first.engine.Stop())
	second.start(t)
}

func TestStartFailureLeavesEngineInactive(t *testing.T) {
	h := newHarness(t, Options{})
	h.source.InstallErr = errors.New("access denied")

	err := h.engine.Start()
	require.Error(t, err)
	assert.ErrorIs(t, err, h.source.InstallErr)
	assert.False(t, h.engine.Running())

	other := newHarness(t, Options{})
	other.start(t)
}

func TestRunStopsOnCancel(t *testing.T) {
	h := newHarness(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- h.engine.Run(ctx) }()

	require.Eventually(t, h.engine.Running, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.False(t, h.engine.Running())
	assert.False(t, h.source.Installed())
}

func TestRunKeepsWaitingAcrossStopAndStart(t *testing.T) {
	h := newHarness(t, Options{})
	require.NoError(t, h.engine.RegisterHotstring("btw", "by the way"))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- h.engine.Run(ctx) }()
	require.Eventually(t, h.engine.Running, time.Second, time.Millisecond)

	require.NoError(t, h.engine.Stop())
	select {
	case err := <-done:
		t.Fatalf("Run returned after Stop: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, h.engine.Start())
	h.source.Type("btw ")
	assert.Contains(t, h.rec.Ops(), `type "by the way"`)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.False(t, h.engine.Running())
}

func TestRunCancelWhilePaused(t *testing.T) {
	h := newHarness(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- h.engine.Run(ctx) }()
	require.Eventually(t, h.engine.Running, time.Second, time.Millisecond)
	require.NoError(t, h.engine.Stop())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestConfigurePassesSettleDelayToInjector(t *testing.T) {
	h := newHarness(t, Options{})
	assert.Equal(t, hotstring.DefaultSettleDelay, h.rec.SettleDelay())

	h.engine.Configure(Options{SettleDelay: 30 * time.Millisecond})
	assert.Equal(t, 30*time.Millisecond, h.rec.SettleDelay())

	h.engine.Configure(Options{SettleDelay: -1})
	assert.Equal(t, -1*time.Nanosecond, h.rec.SettleDelay())
}

func TestFailingActionsDoNotBreakDispatch(t *testing.T) {
	h := newHarness(t, Options{})
	h.engine.RegisterHotkey(keys.VKF1 + 1, keys.ModNone, action.Func(func(input.Injector) error {
		panic("bad action")
	}), hotkey.Swallow())
	require.NoError(t, h.engine.RegisterHotstring("btw", "by the way"))
	h.start(t)

	assert.True(t, h.source.Press(keys.VKF1 + 1))
	h.source.Type("btw ")
	assert.Len(t, h.rec.Ops(), 5)
}

func TestOnFireReportsMatches(t *testing.T) {
	h := newHarness(t, Options{})
	h.engine.RegisterHotkey('K', keys.ModCtrl, nil, hotkey.Swallow())
	require.NoError(t, h.engine.RegisterHotstring("btw", "by the way"))

	var fired []Fired
	h.engine.OnFire(func(f Fired) { fired = append(fired, f) })
	h.start(t)

	h.source.Hold(keys.VKControl)
	h.source.Press('K')
	h.source.Release(keys.VKControl)
	h.source.Type("btw ")

	require.Len(t, fired, 2)
	assert.Equal(t, KindHotkey, fired[0].Kind)
	assert.Equal(t, "Ctrl+K", fired[0].Trigger)
	assert.Equal(t, KindHotstring, fired[1].Kind)
	assert.Equal(t, `btw: "by the way"`, fired[1].Description)
	assert.False(t, fired[1].Time.IsZero())

	h.engine.OnFire(nil)
	h.source.Type("btw ")
	assert.Len(t, fired, 2)
}
