package display

import (
	"context"
	"sync/atomic"
)

// Memory keeps the mode in process. Used for dry runs and tests.
type Memory struct {
	on atomic.Bool
}

// NewMemory returns a Memory port starting in the given mode.
func NewMemory(on bool) *Memory {
	m := &Memory{}
	m.on.Store(on)
	return m
}

func (m *Memory) Mode(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return m.on.Load(), nil
}

func (m *Memory) SetMode(ctx context.Context, on bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.on.Store(on)
	return nil
}
