// Package display talks to whatever holds the real night-mode flag: the
// macOS grayscale filter, a user-supplied shell command, or memory.
package display

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// ErrUnsupported is returned when a driver is not available on this platform.
var ErrUnsupported = errors.New("display: driver not supported on this platform")

// Port reads and writes the external night-mode flag. Implementations must be
// safe for concurrent use.
type Port interface {
	Mode(ctx context.Context) (bool, error)
	SetMode(ctx context.Context, on bool) error
}

// Options configures driver selection.
type Options struct {
	Driver         string
	StatusCommand  string
	EnableCommand  string
	DisableCommand string
	CommandTimeout time.Duration
}

// Open returns the port named by opts.Driver.
func Open(opts Options, logger zerolog.Logger) (Port, error) {
	log := logger.With().Str("component", "display").Logger()

	switch opts.Driver {
	case "coregraphics":
		return NewCoreGraphics()
	case "command":
		return NewCommand(opts.StatusCommand, opts.EnableCommand, opts.DisableCommand, opts.CommandTimeout, log)
	case "memory":
		return NewMemory(false), nil
	case "", "auto":
		if port, err := NewCoreGraphics(); err == nil {
			log.Debug().Msg("Using CoreGraphics grayscale driver")
			return port, nil
		}
		if opts.EnableCommand != "" && opts.DisableCommand != "" {
			log.Debug().Msg("Using command driver")
			return NewCommand(opts.StatusCommand, opts.EnableCommand, opts.DisableCommand, opts.CommandTimeout, log)
		}
		log.Warn().Msg("No display driver available, night mode will only be tracked in memory")
		return NewMemory(false), nil
	default:
		return nil, fmt.Errorf("unknown display driver %q", opts.Driver)
	}
}
