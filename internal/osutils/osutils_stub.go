//go:build !windows

// Package osutils wraps the few OS services the expander needs outside the
// keyboard path: privilege checks and opening programs or documents.
package osutils

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// IsAdmin is a stub for non-Windows platforms
func IsAdmin() bool {
	return false
}

// Open hands command to the desktop opener (open on macOS, xdg-open elsewhere)
func Open(command string) error {
	command = strings.TrimSpace(command)
	if command == "" {
		return errors.New("command is empty")
	}

	opener := "xdg-open"
	if runtime.GOOS == "darwin" {
		opener = "open"
	}
	cmd := exec.Command(opener, command)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%s %q: %w", opener, command, err)
	}
	go cmd.Wait()
	return nil
}
