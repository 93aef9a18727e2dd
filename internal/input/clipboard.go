package input

import (
	"fmt"

	"github.com/atotto/clipboard"
)

// writeClipboard replaces the system clipboard text.
func writeClipboard(text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	return nil
}
