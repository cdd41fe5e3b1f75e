// Package systemd wraps sd_notify and socket activation.
package systemd

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/coreos/go-systemd/v22/activation"
	"github.com/coreos/go-systemd/v22/daemon"
)

// ControlListenerName is the FileDescriptorName= the socket unit gives the
// control API socket.
const ControlListenerName = "control"

// ControlListener returns the socket-activated control listener, or nil when
// the process was not started through socket activation.
func ControlListener() (net.Listener, error) {
	// Check if systemd socket activation is available
	if len(activation.Files(false)) == 0 {
		return nil, nil
	}

	// Named file descriptors need systemd 227+
	named, err := activation.ListenersWithNames()
	if err != nil {
		return nil, fmt.Errorf("failed to get systemd listeners: %w", err)
	}

	if lns, ok := named[ControlListenerName]; ok && len(lns) > 0 && lns[0] != nil {
		return lns[0], nil
	}

	// A unit with a single unnamed socket
	var only []net.Listener
	for _, lns := range named {
		only = append(only, lns...)
	}
	if len(only) == 1 {
		return only[0], nil
	}

	return nil, nil
}

// NotifyReady sends READY=1 notification to systemd
// This tells systemd that the service has finished starting up
func NotifyReady() error {
	if _, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		return fmt.Errorf("failed to send sd_notify: %w", err)
	}
	return nil
}

// NotifyStopping sends STOPPING=1 notification to systemd
func NotifyStopping() error {
	if _, err := daemon.SdNotify(false, daemon.SdNotifyStopping); err != nil {
		return fmt.Errorf("failed to send sd_notify stopping: %w", err)
	}
	return nil
}

// NotifyWatchdog sends WATCHDOG=1 notification to systemd.
// Watchdog sends it on its own ticker.
func NotifyWatchdog() error {
	if _, err := daemon.SdNotify(false, daemon.SdNotifyWatchdog); err != nil {
		return fmt.Errorf("failed to send sd_notify watchdog: %w", err)
	}
	return nil
}

// WatchdogInterval returns the WatchdogSec= of the unit, or zero when the
// watchdog is off.
func WatchdogInterval() time.Duration {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		return 0
	}
	return interval
}

// IsSystemdService returns true if running as a systemd service
func IsSystemdService() bool {
	return os.Getenv("NOTIFY_SOCKET") != ""
}
