//go:build darwin && cgo

package display

/*
#cgo LDFLAGS: -framework ApplicationServices
#include <stdbool.h>

bool CGDisplayUsesForceToGray(void);
void CGDisplayForceToGray(bool forceToGray);
*/
import "C"

import (
	"context"
	"sync"
)

// CoreGraphics toggles the system-wide grayscale filter through the private
// CoreGraphics calls the accessibility pane uses.
type CoreGraphics struct {
	mu sync.Mutex
}

// NewCoreGraphics returns the CoreGraphics port.
func NewCoreGraphics() (*CoreGraphics, error) {
	return &CoreGraphics{}, nil
}

func (g *CoreGraphics) Mode(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return bool(C.CGDisplayUsesForceToGray()), nil
}

func (g *CoreGraphics) SetMode(ctx context.Context, on bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	C.CGDisplayForceToGray(C.bool(on))
	return nil
}
