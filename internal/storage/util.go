package storage

import (
	"context"
	"fmt"
	"os"
	"time"
)

// EnsureDir ensures a directory exists with default permissions.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// Prune deletes transitions older than retention. A zero retention keeps
// everything.
func Prune(ctx context.Context, store Store, retention time.Duration, now time.Time) (int, error) {
	if store == nil || retention <= 0 {
		return 0, nil
	}
	deleted, err := store.Transitions().DeleteBefore(ctx, now.Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("prune transitions: %w", err)
	}
	return deleted, nil
}
