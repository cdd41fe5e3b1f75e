//go:build !darwin || !cgo

package display

import "context"

// CoreGraphics is only available on macOS.
type CoreGraphics struct{}

// NewCoreGraphics always fails off macOS.
func NewCoreGraphics() (*CoreGraphics, error) {
	return nil, ErrUnsupported
}

func (g *CoreGraphics) Mode(ctx context.Context) (bool, error) {
	return false, ErrUnsupported
}

func (g *CoreGraphics) SetMode(ctx context.Context, on bool) error {
	return ErrUnsupported
}
