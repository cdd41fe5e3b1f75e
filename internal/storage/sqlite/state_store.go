package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goodtune/nighttime/internal/storage"
)

type stateStore struct {
	db *sql.DB
}

func (s *stateStore) Load(ctx context.Context) (*storage.State, error) {
	var (
		restoreMode, running bool
		updatedAt            int64
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT restore_mode, running, updated_at FROM state WHERE id = 1",
	).Scan(&restoreMode, &running, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}

	return &storage.State{
		RestoreMode: restoreMode,
		Running:     running,
		UpdatedAt:   time.Unix(0, updatedAt).UTC(),
	}, nil
}

func (s *stateStore) Save(ctx context.Context, state storage.State) error {
	if state.UpdatedAt.IsZero() {
		state.UpdatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO state (id, restore_mode, running, updated_at) VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			restore_mode = excluded.restore_mode,
			running = excluded.running,
			updated_at = excluded.updated_at
	`, state.RestoreMode, state.Running, state.UpdatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}
