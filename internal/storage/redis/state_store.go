package redis

import (
	"context"
	"time"

	"github.com/goodtune/nighttime/internal/storage"
	"github.com/redis/go-redis/v9"
)

type stateStore struct {
	client *redis.Client
	keys   keyspace
}

// Load retrieves the scheduler state
func (s *stateStore) Load(ctx context.Context) (*storage.State, error) {
	data, err := s.client.HGetAll(ctx, s.keys.state()).Result()
	if err != nil {
		return nil, err
	}
	return parseState(data)
}

// Save replaces the scheduler state
func (s *stateStore) Save(ctx context.Context, state storage.State) error {
	if state.UpdatedAt.IsZero() {
		state.UpdatedAt = time.Now().UTC()
	}
	return s.client.HSet(ctx, s.keys.state(),
		"restore_mode", formatBool(state.RestoreMode),
		"running", formatBool(state.Running),
		"updated_at", state.UpdatedAt.Format(time.RFC3339Nano),
	).Err()
}
