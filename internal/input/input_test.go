package input

import (
	"testing"
	"time"
)

var (
	_ Source   = (*Hook)(nil)
	_ Injector = (*HostInjector)(nil)
	_ Settler  = (*HostInjector)(nil)
)

// TestHostInjectorSettleDelay tests the default and runtime changes of the
// caret settle delay
func TestHostInjectorSettleDelay(t *testing.T) {
	inj := NewHostInjector()
	if got := inj.SettleDelay(); got != DefaultSettleDelay {
		t.Errorf("Expected settle delay %v, got %v", DefaultSettleDelay, got)
	}

	inj.SetSettleDelay(25 * time.Millisecond)
	if got := inj.SettleDelay(); got != 25*time.Millisecond {
		t.Errorf("Expected settle delay 25ms, got %v", got)
	}

	inj.SetSettleDelay(-1)
	if got := inj.SettleDelay(); got != 0 {
		t.Errorf("Expected a negative delay to mean no pause, got %v", got)
	}
}
