//go:build !windows

package input

import (
	"context"
	"log/slog"

	"textexpand/internal/keys"
)

// Stub implementation for non-Windows platforms

// Hook represents a stub keyboard hook
type Hook struct{}

// NewHook creates a new stub hook
func NewHook(_ *slog.Logger) *Hook {
	return &Hook{}
}

// Install always fails on this platform
func (h *Hook) Install(_ Handler) error {
	return ErrUnsupported
}

// Uninstall is a no-op
func (h *Hook) Uninstall() error {
	return nil
}

// IsKeyDown always reports released
func (h *Hook) IsKeyDown(_ keys.VKey) bool {
	return false
}

// Pump blocks until ctx is done
func (h *Hook) Pump(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}
