package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/goodtune/nighttime/internal/storage"
	"github.com/google/uuid"
)

type transitionStore struct {
	db *sql.DB
}

func (s *transitionStore) Add(ctx context.Context, transition storage.Transition) error {
	if transition.Timestamp.IsZero() {
		transition.Timestamp = time.Now().UTC()
	}
	if transition.ID == "" {
		transition.ID = uuid.NewString()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO transitions (id, timestamp, source, from_mode, to_mode) VALUES (?, ?, ?, ?, ?)",
		transition.ID,
		transition.Timestamp.UnixNano(),
		string(transition.Source),
		transition.From,
		transition.To,
	)
	if err != nil {
		return fmt.Errorf("add transition: %w", err)
	}
	return nil
}

func (s *transitionStore) List(ctx context.Context, filter storage.TransitionFilter) ([]storage.Transition, error) {
	var (
		where []string
		args  []any
	)
	if filter.Since != nil {
		where = append(where, "timestamp >= ?")
		args = append(args, filter.Since.UnixNano())
	}
	if filter.Source != "" {
		where = append(where, "source = ?")
		args = append(args, string(filter.Source))
	}

	query := "SELECT id, timestamp, source, from_mode, to_mode FROM transitions"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY timestamp DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transitions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	items := make([]storage.Transition, 0)
	for rows.Next() {
		var (
			item   storage.Transition
			ts     int64
			source string
		)
		if err := rows.Scan(&item.ID, &ts, &source, &item.From, &item.To); err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}
		item.Timestamp = time.Unix(0, ts).UTC()
		item.Source = storage.Source(source)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transitions: %w", err)
	}
	return items, nil
}

func (s *transitionStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM transitions WHERE timestamp < ?", cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("delete transitions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete transitions: %w", err)
	}
	return int(n), nil
}
