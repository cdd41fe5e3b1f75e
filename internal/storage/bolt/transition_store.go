package bolt

import (
	"context"
	"fmt"
	"time"

	"github.com/goodtune/nighttime/internal/storage"
	"go.etcd.io/bbolt"
)

type transitionStore struct {
	db *bbolt.DB
}

func (s *transitionStore) Add(ctx context.Context, transition storage.Transition) error {
	if transition.Timestamp.IsZero() {
		transition.Timestamp = time.Now().UTC()
	}
	if transition.ID == "" {
		key, err := logKey("transition", transition.Timestamp)
		if err != nil {
			return err
		}
		transition.ID = key
	}
	return putBucketValue(ctx, s.db, bucketTransitions, transition.ID, transition)
}

// List walks the bucket backwards; keys sort by timestamp so the newest
// entries come first.
func (s *transitionStore) List(ctx context.Context, filter storage.TransitionFilter) ([]storage.Transition, error) {
	items := make([]storage.Transition, 0)
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketTransitions))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			var item storage.Transition
			if err := unmarshal(v, &item); err != nil {
				return err
			}
			if !filter.Matches(item) {
				continue
			}
			items = append(items, item)
			if filter.Limit > 0 && len(items) >= filter.Limit {
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *transitionStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int, error) {
	deleted := 0
	err := s.db.Update(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b := tx.Bucket([]byte(bucketTransitions))
		if b == nil {
			return nil
		}

		// Deleting through the cursor while iterating skips entries.
		var stale [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var item storage.Transition
			if err := unmarshal(v, &item); err != nil {
				return err
			}
			if item.Timestamp.Before(cutoff) {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return fmt.Errorf("delete transition %s: %w", k, err)
			}
			deleted++
		}
		return nil
	})
	return deleted, err
}
