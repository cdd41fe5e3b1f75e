package redis

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/goodtune/nighttime/internal/storage"
	"github.com/redis/go-redis/v9"
)

var (
	addTransition           = redis.NewScript(addTransitionScript)
	deleteTransitionsBefore = redis.NewScript(deleteTransitionsBeforeScript)
)

type transitionStore struct {
	client *redis.Client
	keys   keyspace
}

// Add journals a transition
func (s *transitionStore) Add(ctx context.Context, transition storage.Transition) error {
	if transition.Timestamp.IsZero() {
		transition.Timestamp = time.Now().UTC()
	}
	if transition.ID == "" {
		id, err := transitionID(transition.Timestamp)
		if err != nil {
			return err
		}
		transition.ID = id
	}

	keys := []string{s.keys.transition(transition.ID), s.keys.transitions()}
	args := []interface{}{
		transition.ID,
		transition.Timestamp.Format(time.RFC3339Nano),
		string(transition.Source),
		formatBool(transition.From),
		formatBool(transition.To),
		score(transition.Timestamp),
	}

	return addTransition.Run(ctx, s.client, keys, args...).Err()
}

// List returns transitions newest first
func (s *transitionStore) List(ctx context.Context, filter storage.TransitionFilter) ([]storage.Transition, error) {
	lower := "-inf"
	if filter.Since != nil {
		lower = strconv.FormatFloat(score(*filter.Since), 'f', -1, 64)
	}

	ids, err := s.client.ZRevRangeByScore(ctx, s.keys.transitions(), &redis.ZRangeBy{
		Min: lower,
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, err
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, s.keys.transition(id))
	}
	if len(ids) > 0 {
		if _, err := pipe.Exec(ctx); err != nil {
			return nil, err
		}
	}

	transitions := make([]storage.Transition, 0, len(ids))
	for _, cmd := range cmds {
		transition, err := parseTransition(cmd.Val())
		if errors.Is(err, storage.ErrNotFound) {
			// Index entry outlived its hash
			continue
		}
		if err != nil {
			return nil, err
		}
		if !filter.Matches(*transition) {
			continue
		}
		transitions = append(transitions, *transition)
		if filter.Limit > 0 && len(transitions) >= filter.Limit {
			break
		}
	}

	return transitions, nil
}

// DeleteBefore removes transitions older than cutoff
func (s *transitionStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int, error) {
	keys := []string{s.keys.transitions()}
	args := []interface{}{
		s.keys.transition(""),
		strconv.FormatFloat(score(cutoff), 'f', -1, 64),
	}

	deleted, err := deleteTransitionsBefore.Run(ctx, s.client, keys, args...).Int()
	if err != nil {
		return 0, err
	}
	return deleted, nil
}
