package redis

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/goodtune/nighttime/internal/storage"
)

// keyspace namespaces every key under a configurable prefix so several
// machines can share one Redis database.
type keyspace struct {
	prefix string
}

func newKeyspace(prefix string) keyspace {
	if prefix == "" {
		prefix = "nighttime"
	}
	return keyspace{prefix: prefix}
}

func (k keyspace) state() string { return k.prefix + ":state" }
func (k keyspace) transitions() string { return k.prefix + ":transitions" }
func (k keyspace) transition(id string) string { return k.prefix + ":transition:" + id }

func transitionID(ts time.Time) (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("random suffix: %w", err)
	}
	return fmt.Sprintf("%020d-%s", ts.UnixNano(), hex.EncodeToString(buf)), nil
}

// score orders transitions in the index. Microseconds keep the value exact
// in a float64.
func score(ts time.Time) float64 {
	return float64(ts.UnixMicro())
}

func formatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// parseState converts a Redis hash to State
func parseState(data map[string]string) (*storage.State, error) {
	if len(data) == 0 {
		return nil, storage.ErrNotFound
	}

	restoreMode, err := strconv.ParseBool(data["restore_mode"])
	if err != nil {
		return nil, fmt.Errorf("failed to parse restore_mode: %w", err)
	}

	running, err := strconv.ParseBool(data["running"])
	if err != nil {
		return nil, fmt.Errorf("failed to parse running: %w", err)
	}

	updatedAt, err := time.Parse(time.RFC3339Nano, data["updated_at"])
	if err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return &storage.State{
		RestoreMode: restoreMode,
		Running:     running,
		UpdatedAt:   updatedAt,
	}, nil
}

// parseTransition converts a Redis hash to Transition
func parseTransition(data map[string]string) (*storage.Transition, error) {
	if len(data) == 0 {
		return nil, storage.ErrNotFound
	}

	timestamp, err := time.Parse(time.RFC3339Nano, data["timestamp"])
	if err != nil {
		return nil, fmt.Errorf("failed to parse timestamp: %w", err)
	}

	source, err := storage.ParseSource(data["source"])
	if err != nil {
		return nil, err
	}

	from, err := strconv.ParseBool(data["from"])
	if err != nil {
		return nil, fmt.Errorf("failed to parse from: %w", err)
	}

	to, err := strconv.ParseBool(data["to"])
	if err != nil {
		return nil, fmt.Errorf("failed to parse to: %w", err)
	}

	return &storage.Transition{
		ID:        data["id"],
		Timestamp: timestamp,
		Source:    source,
		From:      from,
		To:        to,
	}, nil
}
