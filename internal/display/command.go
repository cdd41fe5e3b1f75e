package display

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Command drives the display through shell commands, so desktops without a
// native driver can plug in gsettings, xrandr or similar.
//
// Without a status command the port reports the mode it last set.
type Command struct {
	status  string
	enable  string
	disable string
	timeout time.Duration
	logger  zerolog.Logger

	last atomic.Bool
}

// NewCommand returns a Command port.
func NewCommand(status, enable, disable string, timeout time.Duration, logger zerolog.Logger) (*Command, error) {
	if enable == "" || disable == "" {
		return nil, fmt.Errorf("command driver needs both an enable and a disable command")
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Command{
		status:  status,
		enable:  enable,
		disable: disable,
		timeout: timeout,
		logger:  logger,
	}, nil
}

func (c *Command) Mode(ctx context.Context) (bool, error) {
	if c.status == "" {
		return c.last.Load(), nil
	}
	out, err := c.run(ctx, c.status)
	if err != nil {
		return false, fmt.Errorf("status command: %w", err)
	}
	on, err := ParseState(out)
	if err != nil {
		return false, err
	}
	c.last.Store(on)
	return on, nil
}

func (c *Command) SetMode(ctx context.Context, on bool) error {
	script := c.disable
	if on {
		script = c.enable
	}
	if _, err := c.run(ctx, script); err != nil {
		if on {
			return fmt.Errorf("enable command: %w", err)
		}
		return fmt.Errorf("disable command: %w", err)
	}
	c.last.Store(on)
	return nil
}

func (c *Command) run(ctx context.Context, script string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "sh", "-c", script)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Children of sh can hold the pipes open after sh is killed.
	cmd.WaitDelay = time.Second

	start := time.Now()
	err := cmd.Run()
	c.logger.Debug().
		Str("command", script).
		Dur("duration", time.Since(start)).
		Err(err).
		Msg("Ran display command")
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%w: %s", err, msg)
		}
		return "", err
	}
	return stdout.String(), nil
}

// ParseState interprets status command output. 1, true, on, yes and enabled
// mean night mode; 0, false, off, no, disabled and empty output mean day.
func ParseState(out string) (bool, error) {
	switch strings.ToLower(strings.Trim(strings.TrimSpace(out), `'"`)) {
	case "1", "true", "on", "yes", "enabled":
		return true, nil
	case "", "0", "false", "off", "no", "disabled":
		return false, nil
	default:
		return false, fmt.Errorf("unrecognised display state %q", strings.TrimSpace(out))
	}
}
