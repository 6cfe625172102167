package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MinuteOfDay is a local wall-clock time expressed as minutes since midnight.
// Appointments are keyed to a single calendar date, so the valid range is
// [0, 1440].
type MinuteOfDay int

// ParseTime parses an "HH:MM" string into a MinuteOfDay.
func ParseTime(s string) (MinuteOfDay, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("malformed time %q: want HH:MM", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("malformed time %q: bad hour", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("malformed time %q: bad minute", s)
	}
	return MinuteOfDay(hour*60 + minute), nil
}

// String formats the time as "HH:MM".
func (m MinuteOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(m)/60, int(m)%60)
}

// Add returns the time shifted forward by the given number of minutes.
// The result may exceed the end of the day; callers reject bookings that
// cross midnight.
func (m MinuteOfDay) Add(minutes int) MinuteOfDay {
	return m + MinuteOfDay(minutes)
}

// EndOfDay is the exclusive upper bound for a same-day interval.
const EndOfDay MinuteOfDay = 24 * 60

// Interval is a half-open time range [Start, End) within a single day.
type Interval struct {
	Start MinuteOfDay
	End   MinuteOfDay
}

// Overlaps reports whether two half-open intervals share any instant.
// [aStart,aEnd) overlaps [bStart,bEnd) iff aStart < bEnd && bStart < aEnd;
// adjacent intervals do not overlap.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start < other.End && other.Start < i.End
}

// DayHours is the configured opening window for one weekday.
type DayHours struct {
	Start  string `json:"start"`
	End    string `json:"end"`
	Active bool   `json:"active"`
}

// WorkingHours maps lowercase weekday names ("monday".."sunday") to their
// opening windows. Owned by the store; read-only to the scheduling engine.
type WorkingHours map[string]DayHours

// ConfigurationError indicates malformed working-hours data. It is fatal for
// the request: the store must be reconfigured before slots can be computed.
type ConfigurationError struct {
	Weekday string
	Reason  string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid working hours for %s: %s", e.Weekday, e.Reason)
}

// WeekdayName returns the lowercase English weekday name for a date.
func WeekdayName(date time.Time) string {
	return strings.ToLower(date.Weekday().String())
}

// OpenInterval resolves the weekly schedule for a specific date. It returns
// nil when the store is closed that day, and a ConfigurationError when the
// stored times are malformed or inverted.
func OpenInterval(wh WorkingHours, date time.Time) (*Interval, error) {
	weekday := WeekdayName(date)
	day, ok := wh[weekday]
	if !ok || !day.Active {
		return nil, nil
	}

	start, err := ParseTime(day.Start)
	if err != nil {
		return nil, &ConfigurationError{Weekday: weekday, Reason: err.Error()}
	}
	end, err := ParseTime(day.End)
	if err != nil {
		return nil, &ConfigurationError{Weekday: weekday, Reason: err.Error()}
	}
	if start >= end {
		return nil, &ConfigurationError{Weekday: weekday, Reason: "start must be before end"}
	}

	return &Interval{Start: start, End: end}, nil
}
