// Package autostart registers the program to start on login.
package autostart

import (
	"fmt"
	"os"
)

const appName = "textexpand"

// Test seams.
var (
	homeDirFn    = os.UserHomeDir
	executableFn = os.Executable
)

// Enable enables auto-start on login for the running executable
func Enable() error {
	execPath, err := executableFn()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}
	return enable(execPath)
}

// Disable disables auto-start on login
func Disable() error {
	return disable()
}

// IsEnabled checks if auto-start is enabled
func IsEnabled() bool {
	return isEnabled()
}

// Set enables or disables auto-start.
func Set(on bool) error {
	if on {
		return Enable()
	}
	return Disable()
}
