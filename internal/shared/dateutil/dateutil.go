package dateutil

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const DateLayout = "2006-01-02"

var (
	ErrInvalidDate      = errors.New("invalid date, expected YYYY-MM-DD or RFC3339")
	ErrInvalidTimestamp = errors.New("invalid timestamp, expected RFC3339")
	ErrEndBeforeStart   = errors.New("end date precedes start date")
)

var halfDay = decimal.RequireFromString("0.5")

// Day truncates t to midnight UTC of its UTC calendar day.
func Day(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate accepts a plain calendar date or a full RFC3339 timestamp and
// returns the UTC calendar day it falls on.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return Day(t), nil
}

// ParseTimestamp returns now when s is empty.
func ParseTimestamp(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return now.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, ErrInvalidTimestamp
	}
	return t.UTC(), nil
}

func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

func IsWeekend(t time.Time) bool {
	wd := t.UTC().Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

type HolidaySet map[string]struct{}

// ParseHolidays reads a comma separated list of YYYY-MM-DD dates. Blank
// entries are skipped.
func ParseHolidays(list string) (HolidaySet, error) {
	set := HolidaySet{}
	for _, raw := range strings.Split(list, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		d, err := time.Parse(DateLayout, raw)
		if err != nil {
			return nil, err
		}
		set[d.Format(DateLayout)] = struct{}{}
	}
	return set, nil
}

func (h HolidaySet) Contains(t time.Time) bool {
	if h == nil {
		return false
	}
	_, ok := h[FormatDate(t)]
	return ok
}

// Dates lists the holidays in ascending order.
func (h HolidaySet) Dates() []string {
	out := make([]string, 0, len(h))
	for d := range h {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// LeaveDays counts the working days in the inclusive range [start, end].
// A half day always counts as 0.5; callers enforce start == end for it.
func LeaveDays(start, end time.Time, halfDayLeave bool, holidays HolidaySet) (decimal.Decimal, error) {
	start, end = Day(start), Day(end)
	if end.Before(start) {
		return decimal.Zero, ErrEndBeforeStart
	}
	if halfDayLeave {
		return halfDay, nil
	}

	var n int64
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if IsWeekend(d) || holidays.Contains(d) {
			continue
		}
		n++
	}
	return decimal.NewFromInt(n), nil
}

// DurationMinutes is floor((clockOut - clockIn) / 1 minute). It is negative
// when clockOut precedes clockIn.
func DurationMinutes(clockIn, clockOut time.Time) int64 {
	ms := clockOut.Sub(clockIn).Milliseconds()
	q := ms / 60000
	if ms%60000 != 0 && ms < 0 {
		q--
	}
	return q
}
