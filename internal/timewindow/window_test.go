package timewindow

import (
	"testing"
	"time"
)

func hms(h, m, s int) TimeOfDay {
	return NewTimeOfDay(h, m, s)
}

func mustRFC3339(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("parse %q: %v", value, err)
	}
	return ts
}

func TestWindowIncludesAndDistance(t *testing.T) {
	sameDay := New(hms(1, 30, 0), hms(10, 0, 0))
	overnight := New(hms(22, 0, 0), hms(7, 0, 0))

	tests := []struct {
		name         string
		window       Window
		at           TimeOfDay
		wantIncludes bool
		wantBoundary TimeOfDay
		wantDistance time.Duration
	}{
		{"same day before start", sameDay, hms(0, 0, 0), false, hms(1, 30, 0), 90 * time.Minute},
		{"same day inside", sameDay, hms(3, 0, 0), true, hms(10, 0, 0), 7 * time.Hour},
		{"same day after end", sameDay, hms(12, 0, 0), false, hms(1, 30, 0), 13*time.Hour + 30*time.Minute},
		{"same day evening", sameDay, hms(18, 0, 0), false, hms(1, 30, 0), 7*time.Hour + 30*time.Minute},
		{"overnight before start", overnight, hms(18, 0, 0), false, hms(22, 0, 0), 4 * time.Hour},
		{"overnight late evening", overnight, hms(23, 0, 0), true, hms(7, 0, 0), 8 * time.Hour},
		{"overnight midnight", overnight, hms(0, 0, 0), true, hms(7, 0, 0), 7 * time.Hour},
		{"overnight early morning", overnight, hms(6, 0, 0), true, hms(7, 0, 0), time.Hour},
		{"overnight after end", overnight, hms(8, 0, 0), false, hms(22, 0, 0), 14 * time.Hour},
		{"exactly at start", sameDay, hms(1, 30, 0), false, hms(1, 30, 0), 0},
		{"exactly at end", sameDay, hms(10, 0, 0), false, hms(1, 30, 0), 15*time.Hour + 30*time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.window.Includes(tt.at); got != tt.wantIncludes {
				t.Errorf("Includes(%s) = %v, want %v", tt.at, got, tt.wantIncludes)
			}
			if got := tt.window.NextBoundaryFrom(tt.at); got != tt.wantBoundary {
				t.Errorf("NextBoundaryFrom(%s) = %s, want %s", tt.at, got, tt.wantBoundary)
			}
			if got := tt.window.DistanceUntilBoundaryFrom(tt.at); got != tt.wantDistance {
				t.Errorf("DistanceUntilBoundaryFrom(%s) = %v, want %v", tt.at, got, tt.wantDistance)
			}
		})
	}
}

func TestWindowProperties(t *testing.T) {
	windows := []Window{
		New(hms(1, 30, 0), hms(10, 0, 0)),
		New(hms(22, 0, 0), hms(7, 0, 0)),
		New(hms(0, 25, 0), hms(0, 26, 0)),
		New(hms(0, 25, 0), hms(0, 25, 0)),
		New(hms(0, 0, 0), hms(23, 59, 59)),
		New(hms(23, 59, 59), hms(0, 0, 0)),
	}

	for _, w := range windows {
		if w.Includes(w.Start) {
			t.Errorf("%s: start must not be included", w)
		}
		if w.Includes(w.End) {
			t.Errorf("%s: end must not be included", w)
		}

		for sec := 0; sec < int(Day/time.Second); sec += 17 {
			at := hms(0, 0, sec)

			var want bool
			if w.Start < w.End {
				want = at > w.Start && at < w.End
			} else {
				want = at > w.Start || at < w.End
			}
			if got := w.Includes(at); got != want {
				t.Fatalf("%s: Includes(%s) = %v, want %v", w, at, got, want)
			}

			dist := w.DistanceUntilBoundaryFrom(at)
			if dist < 0 || dist >= Day {
				t.Fatalf("%s: distance from %s out of range: %v", w, at, dist)
			}
			if got, want := at.Add(dist), w.NextBoundaryFrom(at); got != want {
				t.Fatalf("%s: %s + %v = %s, want %s", w, at, dist, got, want)
			}
		}
	}
}

func TestWindowStartEqualsEndIsAlwaysNight(t *testing.T) {
	w := New(hms(0, 25, 0), hms(0, 25, 0))

	if w.SameDay() {
		t.Fatal("expected a degenerate window to be treated as wrapping")
	}
	if w.Includes(hms(0, 25, 0)) {
		t.Error("boundary itself must not be included")
	}
	for _, at := range []TimeOfDay{hms(0, 0, 0), hms(0, 24, 59), hms(0, 25, 1), hms(12, 0, 0), hms(23, 59, 59)} {
		if !w.Includes(at) {
			t.Errorf("expected %s to be inside %s", at, w)
		}
	}
	if got := w.DistanceUntilBoundaryFrom(hms(0, 26, 0)); got != 23*time.Hour+59*time.Minute {
		t.Errorf("distance from 00:26 = %v, want 23h59m", got)
	}
}

func TestCrossedBoundary(t *testing.T) {
	overnight := New(hms(22, 0, 0), hms(7, 0, 0))

	tests := []struct {
		name   string
		window Window
		since  string
		until  string
		want   bool
	}{
		{"one minute in the afternoon", overnight, "2021-01-01T12:30:00Z", "2021-01-01T12:31:00Z", false},
		{"afternoon into night", overnight, "2021-01-01T12:30:00Z", "2021-01-01T23:30:00Z", true},
		{"two months asleep", overnight, "2021-01-01T12:30:00Z", "2021-03-01T12:31:00Z", true},
		{"time going backwards", overnight, "2021-03-01T12:31:00Z", "2021-01-01T12:30:00Z", false},
		{"same instant", overnight, "2021-01-01T12:30:00Z", "2021-01-01T12:30:00Z", false},
		{"degenerate window after boundary", New(hms(0, 25, 0), hms(0, 25, 0)), "2021-01-01T00:26:00Z", "2021-01-01T00:26:05Z", false},
		{"ten second window already passed", New(hms(0, 25, 0), hms(0, 25, 10)), "2021-01-01T00:26:00Z", "2021-01-01T00:26:05Z", false},
		{"one second before end", New(hms(0, 25, 0), hms(0, 26, 0)), "2021-01-01T00:25:59Z", "2021-01-01T00:26:05Z", true},
		{"one second after end", New(hms(0, 25, 0), hms(0, 26, 0)), "2021-01-01T00:26:01Z", "2021-01-01T00:26:05Z", false},
		{"minutes after a one minute window", New(hms(0, 25, 0), hms(0, 26, 0)), "2021-01-01T00:30:00Z", "2021-01-01T00:30:05Z", false},
		{"after a window starting at midnight", New(hms(0, 0, 0), hms(0, 26, 0)), "2021-01-01T00:30:00Z", "2021-01-01T04:30:05Z", false},
		{"eight hours after a short window", New(hms(0, 22, 0), hms(0, 26, 0)), "2021-01-01T00:30:00Z", "2021-01-01T08:30:05Z", false},
		{"after a wrapping window ends", New(hms(22, 0, 0), hms(0, 26, 0)), "2021-01-01T00:30:00Z", "2021-01-01T08:30:05Z", false},
		{"hour long wrapping window", New(hms(23, 26, 0), hms(0, 26, 0)), "2021-01-01T00:30:00Z", "2021-01-01T08:30:05Z", false},
		{"half hour wrapping window", New(hms(23, 56, 0), hms(0, 26, 0)), "2021-01-01T00:30:00Z", "2021-01-01T08:30:05Z", false},
		{"twenty minute window", New(hms(0, 6, 0), hms(0, 26, 0)), "2021-01-01T00:30:00Z", "2021-01-01T08:30:05Z", false},
		{"twenty seven minute wrapping window", New(hms(23, 59, 0), hms(0, 26, 0)), "2021-01-01T00:30:00Z", "2021-01-01T08:30:05Z", false},
		{"morning after a short window", New(hms(0, 0, 0), hms(0, 27, 0)), "2021-01-01T04:30:00Z", "2021-01-01T10:30:05Z", false},
		{"morning after a four hour window", New(hms(0, 0, 0), hms(4, 0, 0)), "2021-01-01T04:30:00Z", "2021-01-01T10:30:05Z", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			since := mustRFC3339(t, tt.since)
			until := mustRFC3339(t, tt.until)
			if got := tt.window.CrossedBoundary(since, until); got != tt.want {
				t.Errorf("CrossedBoundary(%s, %s) = %v, want %v", tt.since, tt.until, got, tt.want)
			}
		})
	}
}

func TestCrossedBoundaryExactDistanceIsNotACrossing(t *testing.T) {
	w := New(hms(22, 0, 0), hms(7, 0, 0))
	since := time.Date(2021, 1, 1, 21, 0, 0, 0, time.UTC)

	if w.CrossedBoundary(since, since.Add(time.Hour)) {
		t.Error("arriving exactly at the boundary must not count as a crossing")
	}
	if !w.CrossedBoundary(since, since.Add(time.Hour+time.Nanosecond)) {
		t.Error("passing the boundary must count as a crossing")
	}
}

func TestCrossedBoundaryFromEpoch(t *testing.T) {
	w := New(hms(22, 0, 0), hms(7, 0, 0))
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	if !w.CrossedBoundary(time.Unix(0, 0), now) {
		t.Error("a check from the epoch must always count as a crossing")
	}
}

func TestCrossedBoundaryIgnoresMonotonicClock(t *testing.T) {
	w := New(hms(22, 0, 0), hms(7, 0, 0))
	since := time.Now()
	// A wall clock jump with no monotonic progress, as seen after resume.
	until := since.Round(0).Add(25 * time.Hour)

	if !w.CrossedBoundary(since, until) {
		t.Error("expected wall clock progress to be credited")
	}
}

func TestNextBoundaryAfter(t *testing.T) {
	w := New(hms(22, 0, 0), hms(7, 0, 0))

	at := time.Date(2024, 3, 10, 23, 0, 0, 0, time.UTC)
	want := time.Date(2024, 3, 11, 7, 0, 0, 0, time.UTC)
	if got := w.NextBoundaryAfter(at); !got.Equal(want) {
		t.Errorf("NextBoundaryAfter(%s) = %s, want %s", at, got, want)
	}

	at = time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	want = time.Date(2024, 3, 10, 22, 0, 0, 0, time.UTC)
	if got := w.NextBoundaryAfter(at); !got.Equal(want) {
		t.Errorf("NextBoundaryAfter(%s) = %s, want %s", at, got, want)
	}
}

func TestWindowString(t *testing.T) {
	w := New(hms(0, 30, 0), hms(10, 0, 0))
	if got := w.String(); got != "00:30-10:00" {
		t.Errorf("String() = %q, want %q", got, "00:30-10:00")
	}

	precise := New(hms(0, 25, 0), hms(0, 25, 10))
	if got := precise.String(); got != "00:25-00:25" {
		t.Errorf("String() = %q, want %q", got, "00:25-00:25")
	}
	text, err := precise.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText: %v", err)
	}
	if string(text) != "00:25-00:25:10" {
		t.Errorf("MarshalText() = %q, want %q", text, "00:25-00:25:10")
	}

	var back Window
	if err := back.UnmarshalText(text); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if back != precise {
		t.Errorf("UnmarshalText(%q) = %v, want %v", text, back, precise)
	}
}

func TestParseWindow(t *testing.T) {
	tests := []struct {
		input   string
		want    Window
		wantErr bool
	}{
		{"22:00-07:00", New(hms(22, 0, 0), hms(7, 0, 0)), false},
		{" 1:30 - 10:00 ", New(hms(1, 30, 0), hms(10, 0, 0)), false},
		{"00:25:00-00:26:30", New(hms(0, 25, 0), hms(0, 26, 30)), false},
		{"22:00", Window{}, true},
		{"25:00-07:00", Window{}, true},
		{"22:00-07:60", Window{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseWindow(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseWindow(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseWindow(%q): %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseWindow(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
