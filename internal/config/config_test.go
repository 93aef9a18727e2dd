package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"textexpand/internal/action"
	"textexpand/internal/engine"
	"textexpand/internal/hotstring"
	"textexpand/internal/input/inputtest"
	"textexpand/internal/keys"
)

const sampleYAML = `
log_level: debug
tray: false
engine:
  buffer_size: 16
  trigger_delay: 0s
  settle_delay: 0s
hotkeys:
  - keys: Ctrl+Alt+N
    swallow: true
    description: notepad
    action: {type: launch, command: notepad.exe}
  - keys: F8
    action: {type: key, key: Home}
hotstrings:
  - trigger: btw
    replacement: by the way
  - trigger: eml
    replacement: a@b.com
    paste: true
  - trigger: "::date"
    immediate: true
    action: {type: date, layout: "02/01/2006"}
`

const sampleTOML = `
log_level = "warn"

[engine]
buffer_size = 20
trigger_delay = "25ms"

[api]
enabled = true
token = "t0ken"

[[hotkeys]]
keys = "Ctrl+K"
swallow = true
action = { type = "type", text = "hello" }

[[hotstrings]]
trigger = "NASA"
replacement = "space agency"
case_sensitive = true
keep_trigger = true
`

func TestParseYAML(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML), FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.False(t, cfg.Tray)
	assert.Equal(t, 16, cfg.Engine.BufferSize)
	assert.Equal(t, Duration(0), cfg.Engine.TriggerDelay)
	require.Len(t, cfg.Hotkeys, 2)
	assert.Equal(t, "notepad.exe", cfg.Hotkeys[0].Action.Command)
	require.Len(t, cfg.Hotstrings, 3)
	assert.True(t, cfg.Hotstrings[1].Paste)
	require.NotNil(t, cfg.Hotstrings[2].Action)
	assert.Equal(t, "date", cfg.Hotstrings[2].Action.Type)
}

func TestParseTOML(t *testing.T) {
	cfg, err := Parse([]byte(sampleTOML), FormatTOML)
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.LogLevel)
	assert.True(t, cfg.Tray, "unset fields keep their defaults")
	assert.Equal(t, "127.0.0.1:18080", cfg.API.Addr)
	assert.True(t, cfg.API.Enabled)
	assert.Equal(t, "t0ken", cfg.API.Token)
	assert.Equal(t, 20, cfg.Engine.BufferSize)
	assert.Equal(t, Duration(25*time.Millisecond), cfg.Engine.TriggerDelay)
	assert.Equal(t, Duration(10*time.Millisecond), cfg.Engine.SettleDelay)
	require.Len(t, cfg.Hotstrings, 1)
	assert.True(t, cfg.Hotstrings[0].CaseSensitive)
	assert.True(t, cfg.Hotstrings[0].KeepTrigger)
}

func TestParseEmptyIsDefault(t *testing.T) {
	cfg, err := Parse([]byte("  \n"), FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		format Format
		want   string
	}{
		{"unknown field", "bogus: 1\n", FormatYAML, "bogus"},
		{"unknown toml field", "bogus = 1\n", FormatTOML, ""},
		{"bad duration", "engine:\n  trigger_delay: soon\n", FormatYAML, "invalid duration"},
		{"buffer too small", "engine:\n  buffer_size: 0\n", FormatYAML, "buffer_size"},
		{"bad level", "log_level: loud\n", FormatYAML, "log_level"},
		{"bad api addr", "api:\n  enabled: true\n  addr: localhost\n", FormatYAML, "api.addr"},
		{"bad keys", "hotkeys:\n  - keys: Ctrl+Nope\n    action: {type: type, text: x}\n", FormatYAML, "hotkeys[0]"},
		{"bad action", "hotkeys:\n  - keys: Ctrl+K\n    action: {type: explode}\n", FormatYAML, "unknown action"},
		{"empty trigger", "hotstrings:\n  - replacement: x\n", FormatYAML, "trigger is required"},
		{"nothing to do", "hotstrings:\n  - trigger: x\n", FormatYAML, "replacement or action"},
		{"trigger too long", "engine:\n  buffer_size: 3\nhotstrings:\n  - trigger: abc\n    replacement: x\n", FormatYAML, "cannot fit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.raw), tt.format)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestFormatOf(t *testing.T) {
	assert.Equal(t, FormatTOML, FormatOf("/x/config.TOML"))
	assert.Equal(t, FormatYAML, FormatOf("config.yml"))
	assert.Equal(t, FormatYAML, FormatOf("config"))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(sampleTOML), 0o644))
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)

	big := filepath.Join(dir, "big.yaml")
	require.NoError(t, os.WriteFile(big, []byte("# "+strings.Repeat("x", int(maxConfigFileBytes))), 0o644))
	_, err = Load(big)
	assert.ErrorContains(t, err, "exceeds")

	_, err = Load("")
	assert.Error(t, err)
}

func TestManagerLoadKeepsPreviousOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))

	m, err := NewManager(path)
	require.NoError(t, err)
	assert.Equal(t, path, m.Path())

	var seen *Config
	m.RegisterChangeCallback(func(c *Config) { seen = c })
	require.NoError(t, m.Load())
	require.NotNil(t, seen)
	assert.Len(t, m.Get().Hotstrings, 3)

	require.NoError(t, os.WriteFile(path, []byte("log_level: loud\n"), 0o644))
	assert.ErrorIs(t, m.Load(), ErrInvalidConfig)
	assert.Len(t, m.Get().Hotstrings, 3)
}

func TestApply(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML), FormatYAML)
	require.NoError(t, err)

	src := inputtest.NewSource()
	rec := &inputtest.Recorder{}
	e := engine.New(src, rec, engine.Options{})
	e.RegisterHotkey(keys.VKF1, keys.ModNone, action.TypeText{Text: "stale"})

	require.NoError(t, Apply(cfg, e, nil))
	require.NoError(t, e.Start())
	t.Cleanup(func() { _ = e.Stop() })

	assert.Equal(t, []engine.Info{
		{Trigger: "Ctrl+Alt+N", Description: "notepad"},
		{Trigger: "F8", Description: "F8: send Home"},
	}, e.Hotkeys())
	require.Len(t, e.Hotstrings(), 3)

	src.Hold(keys.VKControl, keys.VKMenu)
	assert.True(t, src.Press('N'))
	src.Release(keys.VKControl, keys.VKMenu)
	assert.Equal(t, []string{"launch notepad.exe"}, rec.Ops())

	rec.Reset()
	src.Type("eml ")
	assert.Equal(t, []string{"select 4", `paste "a@b.com"`}, rec.Ops())
	// A configured zero settle delay reaches the injector as no pause.
	assert.LessOrEqual(t, rec.SettleDelay(), time.Duration(0))

	cfg.Engine.SettleDelay = Duration(15 * time.Millisecond)
	require.NoError(t, Apply(cfg, e, nil))
	assert.Equal(t, 15*time.Millisecond, rec.SettleDelay())
}

func TestApplyRejectsInvalid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Hotstrings = []HotstringConfig{{Trigger: ""}}
	e := engine.New(inputtest.NewSource(), &inputtest.Recorder{}, engine.Options{})
	assert.ErrorIs(t, Apply(cfg, e, nil), ErrInvalidConfig)
}

func TestHotstringOptions(t *testing.T) {
	e, err := hotstring.NewEntry("x", "y", nil, hotstringOptions(HotstringConfig{
		CaseSensitive: true, Immediate: true, KeepTrigger: true, Paste: true, Description: "d",
	})...)
	require.NoError(t, err)
	assert.True(t, e.CaseSensitive)
	assert.Equal(t, hotstring.TriggerImmediate, e.TriggerMode)
	assert.False(t, e.ConsumeTriggerText)
	assert.Equal(t, hotstring.ReplaceSelectPaste, e.ReplaceMode)
	assert.Equal(t, "d", e.Description)
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tray: true\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, 20*time.Millisecond, func() { calls.Add(1) }, nil)
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte("tray: false\n"), 0o644))

	require.Eventually(t, func() bool { return calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}
