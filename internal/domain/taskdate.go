package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTaskDate is returned when a task date does not describe a real
// calendar instant (e.g. month 13 or minute 75).
var ErrInvalidTaskDate = errors.New("invalid task date")

// TaskDate is a minute-resolution timestamp broken into calendar fields,
// matching the wire format used by clients. The service assumes a single
// implicit time zone (the process-local zone); TaskDate carries no zone
// information of its own.
type TaskDate struct {
	Year   int `json:"year"`
	Month  int `json:"month"`
	Day    int `json:"day"`
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// TaskDateFromTime converts a time.Time to a TaskDate, truncating to
// minute resolution.
func TaskDateFromTime(t time.Time) TaskDate {
	return TaskDate{
		Year:   t.Year(),
		Month:  int(t.Month()),
		Day:    t.Day(),
		Hour:   t.Hour(),
		Minute: t.Minute(),
	}
}

// Time converts the TaskDate to a time.Time in the local zone.
// All ordering and arithmetic on TaskDates goes through this conversion
// to a single absolute instant; comparing field-by-field (or worse, as
// concatenated digit strings) is not calendar ordering.
func (d TaskDate) Time() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, d.Hour, d.Minute, 0, 0, time.Local)
}

// Validate checks that the TaskDate round-trips through time.Date without
// normalization, i.e. every field is within calendar range.
func (d TaskDate) Validate() error {
	if TaskDateFromTime(d.Time()) != d {
		return fmt.Errorf("%w: %s", ErrInvalidTaskDate, d)
	}
	return nil
}

// Before reports whether d is strictly earlier than other.
func (d TaskDate) Before(other TaskDate) bool {
	return d.Time().Before(other.Time())
}

// Equal reports whether d and other denote the same minute.
func (d TaskDate) Equal(other TaskDate) bool {
	return d.Time().Equal(other.Time())
}

// AddDays returns the TaskDate n calendar days later. The addition is
// calendar-aware: month and year boundaries roll over correctly
// (Jan 31 + 1 day is Feb 1, Dec 31 + 1 day is Jan 1 of the next year).
func (d TaskDate) AddDays(n int) TaskDate {
	return TaskDateFromTime(d.Time().AddDate(0, 0, n))
}

// String renders the date in a human-readable form for logs and
// notifications.
func (d TaskDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d", d.Year, d.Month, d.Day, d.Hour, d.Minute)
}
