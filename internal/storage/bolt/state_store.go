package bolt

import (
	"context"
	"time"

	"github.com/goodtune/nighttime/internal/storage"
	"go.etcd.io/bbolt"
)

type stateStore struct {
	db *bbolt.DB
}

func (s *stateStore) Load(ctx context.Context) (*storage.State, error) {
	return getBucketValue[storage.State](ctx, s.db, bucketState, stateKey)
}

func (s *stateStore) Save(ctx context.Context, state storage.State) error {
	if state.UpdatedAt.IsZero() {
		state.UpdatedAt = time.Now().UTC()
	}
	return putBucketValue(ctx, s.db, bucketState, stateKey, state)
}
