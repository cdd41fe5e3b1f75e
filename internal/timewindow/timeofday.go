package timewindow

import (
	"fmt"
	"strings"
	"time"
)

// Day is the length of the cycle all time-of-day arithmetic wraps at.
const Day = 24 * time.Hour

// TimeOfDay is a point within a day, held as the offset from midnight.
// Values are always in [0, Day).
type TimeOfDay time.Duration

// NewTimeOfDay returns hour:minute:second. Values outside a single day wrap.
func NewTimeOfDay(hour, minute, second int) TimeOfDay {
	return wrap(time.Duration(hour)*time.Hour +
		time.Duration(minute)*time.Minute +
		time.Duration(second)*time.Second)
}

// Of returns the wall clock time of day of t, read in t's own location.
func Of(t time.Time) TimeOfDay {
	return TimeOfDay(time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second +
		time.Duration(t.Nanosecond()))
}

// ParseTimeOfDay parses "15:04" or "15:04:05".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return Of(t), nil
		}
	}
	return 0, fmt.Errorf("invalid time of day %q (expected HH:MM or HH:MM:SS)", s)
}

func wrap(d time.Duration) TimeOfDay {
	d %= Day
	if d < 0 {
		d += Day
	}
	return TimeOfDay(d)
}

// Duration returns the offset from midnight.
func (t TimeOfDay) Duration() time.Duration {
	return time.Duration(t)
}

// Hour returns the hour of the day, in [0, 23].
func (t TimeOfDay) Hour() int { return int(time.Duration(t) / time.Hour) }

// Minute returns the minute within the hour, in [0, 59].
func (t TimeOfDay) Minute() int { return int(time.Duration(t) % time.Hour / time.Minute) }

// Second returns the second within the minute, in [0, 59].
func (t TimeOfDay) Second() int { return int(time.Duration(t) % time.Minute / time.Second) }

// Until returns how long it takes to get from t forward to u, wrapping
// through midnight when u is earlier in the day. The result is in [0, Day).
func (t TimeOfDay) Until(u TimeOfDay) time.Duration {
	return time.Duration(wrap(time.Duration(u) - time.Duration(t)))
}

// Add returns the time of day d after t, wrapping at midnight.
func (t TimeOfDay) Add(d time.Duration) TimeOfDay {
	return wrap(time.Duration(t) + d)
}

// HourMinute formats t as HH:MM, dropping seconds.
func (t TimeOfDay) HourMinute() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// String formats t as HH:MM, or HH:MM:SS when it has a seconds component.
func (t TimeOfDay) String() string {
	if t.Second() == 0 {
		return t.HourMinute()
	}
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour(), t.Minute(), t.Second())
}

// MarshalText implements encoding.TextMarshaler.
func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *TimeOfDay) UnmarshalText(text []byte) error {
	parsed, err := ParseTimeOfDay(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
