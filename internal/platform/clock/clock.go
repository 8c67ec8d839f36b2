package clock

import "time"

// Clock abstracts time to keep day bucketing and session lengths deterministic in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock reports local wall time; calendar-day keys follow the user's zone.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// Fixed always returns the same instant.
type Fixed struct {
	At time.Time
}

func (f Fixed) Now() time.Time {
	return f.At
}

// DayKey formats t as YYYY-MM-DD in loc.
func DayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(time.DateOnly)
}
