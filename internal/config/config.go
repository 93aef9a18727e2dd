// Package config loads the trigger definitions and engine settings.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"
	"go.yaml.in/yaml/v3"

	"textexpand/internal/action"
)

const (
	maxConfigFileBytes int64 = 1 << 20 // 1MB
	appDirName               = "textexpand"
	defaultFileName          = "config.yaml"
)

// Config represents the application configuration
type Config struct {
	// Engine tunes matching and replacement timing
	Engine EngineConfig `yaml:"engine" toml:"engine" json:"engine"`

	// LogLevel is one of debug, info, warn or error
	LogLevel string `yaml:"log_level" toml:"log_level" json:"log_level"`

	// Tray shows the notification area icon
	Tray bool `yaml:"tray" toml:"tray" json:"tray"`

	// API serves the local control API and event stream
	API APIConfig `yaml:"api" toml:"api" json:"api"`

	Hotkeys    []HotkeyConfig    `yaml:"hotkeys" toml:"hotkeys" json:"hotkeys"`
	Hotstrings []HotstringConfig `yaml:"hotstrings" toml:"hotstrings" json:"hotstrings"`
}

// EngineConfig contains engine settings
type EngineConfig struct {
	// BufferSize bounds the typed text window (default: 32)
	BufferSize int `yaml:"buffer_size" toml:"buffer_size" json:"buffer_size"`

	// EndChars overrides the characters that complete a trigger
	EndChars string `yaml:"end_chars,omitempty" toml:"end_chars,omitempty" json:"end_chars,omitempty"`

	// TriggerDelay is the pause before a replacement starts (e.g. "50ms")
	TriggerDelay Duration `yaml:"trigger_delay" toml:"trigger_delay" json:"trigger_delay"`

	// SettleDelay is the pause between synthetic backspaces and caret moves (e.g. "10ms")
	SettleDelay Duration `yaml:"settle_delay" toml:"settle_delay" json:"settle_delay"`
}

// APIConfig contains local API settings
type APIConfig struct {
	Enabled bool `yaml:"enabled" toml:"enabled" json:"enabled"`

	// Addr is the listen address (default: 127.0.0.1:18080)
	Addr string `yaml:"addr" toml:"addr" json:"addr"`

	// Token is an optional bearer token required on every request
	Token string `yaml:"token,omitempty" toml:"token,omitempty" json:"token,omitempty"`
}

// HotkeyConfig declares one hotkey
type HotkeyConfig struct {
	// Keys is the combination, e.g. "Ctrl+Alt+N"
	Keys        string      `yaml:"keys" toml:"keys" json:"keys"`
	Swallow     bool        `yaml:"swallow" toml:"swallow" json:"swallow"`
	Description string      `yaml:"description,omitempty" toml:"description,omitempty" json:"description,omitempty"`
	Action      action.Spec `yaml:"action" toml:"action" json:"action"`
}

// HotstringConfig declares one hotstring. Action takes precedence over
// Replacement when both are set.
type HotstringConfig struct {
	Trigger       string       `yaml:"trigger" toml:"trigger" json:"trigger"`
	Replacement   string       `yaml:"replacement,omitempty" toml:"replacement,omitempty" json:"replacement,omitempty"`
	Action        *action.Spec `yaml:"action,omitempty" toml:"action,omitempty" json:"action,omitempty"`
	CaseSensitive bool         `yaml:"case_sensitive" toml:"case_sensitive" json:"case_sensitive"`
	Immediate     bool         `yaml:"immediate" toml:"immediate" json:"immediate"`
	// KeepTrigger leaves the typed trigger in place
	KeepTrigger bool `yaml:"keep_trigger" toml:"keep_trigger" json:"keep_trigger"`
	// Paste replaces through the clipboard instead of retyping
	Paste       bool   `yaml:"paste" toml:"paste" json:"paste"`
	Description string `yaml:"description,omitempty" toml:"description,omitempty" json:"description,omitempty"`
}

// Duration is a time.Duration written as "50ms" in config files.
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(v)
	return nil
}

// DefaultConfig returns a new Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			BufferSize:   32,
			TriggerDelay: Duration(50 * time.Millisecond),
			SettleDelay:  Duration(10 * time.Millisecond),
		},
		LogLevel: "info",
		Tray:     true,
		API: APIConfig{
			Addr: "127.0.0.1:18080",
		},
	}
}

// DefaultPath returns the path to the configuration file
func DefaultPath() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		configDir = filepath.Join(appData, appDirName)
	default:
		dir, err := os.UserConfigDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(dir, appDirName)
	}

	return filepath.Join(configDir, defaultFileName), nil
}

// Format is a config file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatOf picks the encoding from the file extension. Unknown extensions
// are read as YAML.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML
	default:
		return FormatYAML
	}
}

// Parse decodes raw over the defaults and validates the result.
func Parse(raw []byte, format Format) (*Config, error) {
	cfg := DefaultConfig()
	if len(bytes.TrimSpace(raw)) == 0 {
		return cfg, nil
	}

	switch format {
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(raw))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads the configuration at path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path required")
	}
	raw, err := readLimitedFile(path, maxConfigFileBytes)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, err
	}
	cfg, err := Parse(raw, FormatOf(path))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return cfg, nil
}

func readLimitedFile(path string, maxBytes int64) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	raw, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(raw)) > maxBytes {
		return nil, fmt.Errorf("config file exceeds %d bytes", maxBytes)
	}
	return raw, nil
}

// Manager holds the loaded configuration and reloads it on request
type Manager struct {
	mu         sync.Mutex
	configPath string
	config     *Config
	onChanged  func(*Config)
}

// NewManager creates a configuration manager for path, or for DefaultPath
// when path is empty.
func NewManager(path string) (*Manager, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return &Manager{
		configPath: path,
		config:     DefaultConfig(),
	}, nil
}

// Path returns the watched configuration file.
func (m *Manager) Path() string {
	return m.configPath
}

// Load reads the configuration from disk. On error the previous
// configuration is kept.
func (m *Manager) Load() error {
	cfg, err := Load(m.configPath)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.config = cfg
	fn := m.onChanged
	m.mu.Unlock()

	if fn != nil {
		fn(cfg)
	}
	return nil
}

// Get returns the current configuration
func (m *Manager) Get() *Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.config
}

// RegisterChangeCallback registers a function to be called after each
// successful Load
func (m *Manager) RegisterChangeCallback(fn func(*Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChanged = fn
}
