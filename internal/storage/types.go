package storage

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Source records what caused a mode transition.
type Source string

const (
	SourceSchedule Source = "schedule"
	SourceManual   Source = "manual"
	SourceRestore  Source = "restore"
)

// ParseSource normalizes s and checks it names a known source.
func ParseSource(s string) (Source, error) {
	normalized := Source(strings.ToLower(strings.TrimSpace(s)))
	switch normalized {
	case SourceSchedule, SourceManual, SourceRestore:
		return normalized, nil
	default:
		return "", fmt.Errorf("invalid source: %s (must be schedule, manual, or restore)", s)
	}
}

// UnmarshalJSON implements json.Unmarshaler to normalize the source to lowercase.
func (s *Source) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseSource(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// State is what a restarted process needs to know about its predecessor.
type State struct {
	// RestoreMode is the mode to put back on exit.
	RestoreMode bool `json:"restore_mode"`
	// Running stays true until a clean shutdown; finding it set at startup
	// means the previous process never restored the display.
	Running   bool      `json:"running"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Transition is a single journalled mode change.
type Transition struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Source    Source    `json:"source"`
	From      bool      `json:"from"`
	To        bool      `json:"to"`
}
