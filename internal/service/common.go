package service

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrNotFound is wrapped by every lookup that matches no row.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput matches every validation failure, so boundaries can
	// tell caller mistakes from storage failures.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotConfigured means a remote provider is missing credentials or
	// wiring.
	ErrNotConfigured = errors.New("is not configured")
)

type inputError struct {
	err error
}

func (e *inputError) Error() string        { return e.err.Error() }
func (e *inputError) Unwrap() error        { return e.err }
func (e *inputError) Is(target error) bool { return target == ErrInvalidInput }

func invalidf(format string, args ...any) error {
	return &inputError{err: fmt.Errorf(format, args...)}
}

// invalid marks an existing error, such as an enum parse failure, as a
// validation error.
func invalid(err error) error {
	if err == nil {
		return nil
	}
	return &inputError{err: err}
}

// Timestamps are stored as UTC RFC3339 so that string order matches time order.
const timeLayout = time.RFC3339

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(raw string) (time.Time, error) {
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", raw, err)
	}
	return t, nil
}

func validateNonNegativeFloat(name string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return invalidf("%s must be a finite number", name)
	}
	if value < 0 {
		return invalidf("%s must be >= 0", name)
	}
	return nil
}

func validatePositiveFloat(name string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return invalidf("%s must be a finite number", name)
	}
	if value <= 0 {
		return invalidf("%s must be > 0", name)
	}
	return nil
}

func validateOptionalFloat(name string, value *float64) error {
	if value == nil {
		return nil
	}
	return validateNonNegativeFloat(name, *value)
}

func parseIDLoose(value string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("not numeric")
	}
	return id, nil
}

// ParseDate reads a YYYY-MM-DD date as the start of that day in loc.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, invalidf("invalid date %q, expected YYYY-MM-DD", value)
	}
	y, m, d := t.Date()
	return dayStart(y, m, d, loc), nil
}

// DayBounds returns [start, end) of the calendar day containing t in loc.
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := t.In(loc).Date()
	return dayStart(y, m, d, loc), dayStart(y, m, d+1, loc)
}

// dayStart is the first instant of the date in loc. Where clocks skip
// midnight, time.Date may land in the previous day, so step forward until
// the local date matches.
func dayStart(y int, m time.Month, d int, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	want := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	t := time.Date(y, m, d, 0, 0, 0, 0, loc)
	for i := 0; i < 4; i++ {
		ly, lm, ld := t.In(loc).Date()
		if !time.Date(ly, lm, ld, 0, 0, 0, 0, time.UTC).Before(want) {
			break
		}
		t = t.Add(time.Hour)
	}
	return t
}

func nullableString(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return s
}

func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
