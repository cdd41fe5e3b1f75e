package timewindow

import (
	"testing"
	"time"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		input   string
		want    TimeOfDay
		wantErr bool
	}{
		{"00:00", 0, false},
		{"2:03", NewTimeOfDay(2, 3, 0), false},
		{"21:55", NewTimeOfDay(21, 55, 0), false},
		{"23:59:59", NewTimeOfDay(23, 59, 59), false},
		{"24:00", 0, true},
		{"20:67", 0, true},
		{"", 0, true},
		{"noon", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseTimeOfDay(%q) expected error, got %s", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTimeOfDay(%q): %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseTimeOfDay(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestTimeOfDayWraps(t *testing.T) {
	if got := NewTimeOfDay(24, 0, 0); got != 0 {
		t.Errorf("24:00:00 should wrap to midnight, got %s", got)
	}
	if got := NewTimeOfDay(0, 0, -1); got != NewTimeOfDay(23, 59, 59) {
		t.Errorf("-1s should wrap to 23:59:59, got %s", got)
	}
	if got := NewTimeOfDay(23, 0, 0).Add(2 * time.Hour); got != NewTimeOfDay(1, 0, 0) {
		t.Errorf("23:00 + 2h = %s, want 01:00", got)
	}
}

func TestTimeOfDayUntil(t *testing.T) {
	tests := []struct {
		from, to TimeOfDay
		want     time.Duration
	}{
		{NewTimeOfDay(1, 0, 0), NewTimeOfDay(3, 0, 0), 2 * time.Hour},
		{NewTimeOfDay(23, 0, 0), NewTimeOfDay(1, 0, 0), 2 * time.Hour},
		{NewTimeOfDay(5, 0, 0), NewTimeOfDay(5, 0, 0), 0},
		{NewTimeOfDay(0, 26, 1), NewTimeOfDay(0, 25, 0), 23*time.Hour + 58*time.Minute + 59*time.Second},
	}

	for _, tt := range tests {
		if got := tt.from.Until(tt.to); got != tt.want {
			t.Errorf("%s.Until(%s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestOfKeepsSubSecondPrecision(t *testing.T) {
	ts := time.Date(2021, 1, 1, 0, 25, 59, 500_000_000, time.UTC)
	got := Of(ts)

	if got.Hour() != 0 || got.Minute() != 25 || got.Second() != 59 {
		t.Fatalf("Of(%s) = %s", ts, got)
	}
	if got.Until(NewTimeOfDay(0, 26, 0)) != 500*time.Millisecond {
		t.Errorf("expected half a second to the next minute, got %v", got.Until(NewTimeOfDay(0, 26, 0)))
	}
}

func TestTimeOfDayText(t *testing.T) {
	var tod TimeOfDay
	if err := tod.UnmarshalText([]byte("07:05")); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	text, err := tod.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText: %v", err)
	}
	if string(text) != "07:05" {
		t.Errorf("MarshalText() = %q, want %q", text, "07:05")
	}
	if got := NewTimeOfDay(7, 5, 9).String(); got != "07:05:09" {
		t.Errorf("String() = %q, want %q", got, "07:05:09")
	}
}
