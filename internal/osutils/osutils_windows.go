//go:build windows

// Package osutils wraps the few OS services the expander needs outside the
// keyboard path: privilege checks and opening programs or documents.
package osutils

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sys/windows"
)

const swShowNormal = 1

// IsAdmin checks if the current process has administrative privileges
func IsAdmin() bool {
	var token windows.Token
	h, _ := windows.GetCurrentProcess()
	err := windows.OpenProcessToken(h, windows.TOKEN_QUERY, &token)
	if err != nil {
		return false
	}
	defer token.Close()

	var sid *windows.SID
	err = windows.AllocateAndInitializeSid(
		&windows.SECURITY_NT_AUTHORITY,
		2,
		windows.SECURITY_BUILTIN_DOMAIN_RID,
		windows.DOMAIN_ALIAS_RID_ADMINS,
		0, 0, 0, 0, 0, 0,
		&sid,
	)
	if err != nil {
		return false
	}
	defer windows.FreeSid(sid)

	member, err := token.IsMember(sid)
	if err != nil {
		return false
	}

	return member
}

// Open starts a program, document or URL through ShellExecute, the same way
// the Run dialog does. Arguments after the first space-separated token are
// passed as parameters unless the whole command names an existing target.
func Open(command string) error {
	command = strings.TrimSpace(command)
	if command == "" {
		return errors.New("command is empty")
	}

	file, params := splitCommand(command)
	verbPtr, _ := windows.UTF16PtrFromString("open")
	filePtr, err := windows.UTF16PtrFromString(file)
	if err != nil {
		return fmt.Errorf("invalid command %q: %w", command, err)
	}
	var paramsPtr *uint16
	if params != "" {
		if paramsPtr, err = windows.UTF16PtrFromString(params); err != nil {
			return fmt.Errorf("invalid arguments %q: %w", params, err)
		}
	}

	if err := windows.ShellExecute(0, verbPtr, filePtr, paramsPtr, nil, swShowNormal); err != nil {
		return fmt.Errorf("ShellExecute %q: %w", file, err)
	}
	return nil
}

// splitCommand separates a leading (optionally quoted) target from its
// arguments.
func splitCommand(command string) (file, params string) {
	if strings.HasPrefix(command, `"`) {
		if end := strings.Index(command[1:], `"`); end >= 0 {
			return command[1 : end+1], strings.TrimSpace(command[end+2:])
		}
	}
	if strings.Contains(command, "://") {
		return command, ""
	}
	file, params, _ = strings.Cut(command, " ")
	return file, strings.TrimSpace(params)
}
