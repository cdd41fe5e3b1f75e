package systemd

import (
	"testing"
	"time"
)

func TestNotifyWithoutSystemd(t *testing.T) {
	t.Setenv("NOTIFY_SOCKET", "")

	if IsSystemdService() {
		t.Fatal("expected not to be running under systemd")
	}
	for name, notify := range map[string]func() error{
		"ready":    NotifyReady,
		"stopping": NotifyStopping,
		"watchdog": NotifyWatchdog,
	} {
		if err := notify(); err != nil {
			t.Errorf("%s: expected no error outside systemd, got %v", name, err)
		}
	}
}

func TestControlListenerWithoutActivation(t *testing.T) {
	t.Setenv("LISTEN_PID", "")
	t.Setenv("LISTEN_FDS", "")

	ln, err := ControlListener()
	if err != nil {
		t.Fatalf("control listener: %v", err)
	}
	if ln != nil {
		t.Fatalf("expected no listener, got %v", ln.Addr())
	}
}

func TestWatchdogInterval(t *testing.T) {
	t.Setenv("WATCHDOG_USEC", "")
	if got := WatchdogInterval(); got != 0 {
		t.Fatalf("expected watchdog off, got %v", got)
	}

	t.Setenv("WATCHDOG_PID", "")
	t.Setenv("WATCHDOG_USEC", "30000000")
	if got := WatchdogInterval(); got != 30*time.Second {
		t.Fatalf("expected 30s watchdog, got %v", got)
	}
}
