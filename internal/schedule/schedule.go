// Package schedule implements the scheduled-ordering window rules:
// date-key normalization, the advance-booking window and the order
// cutoff. All functions are pure; "now" is always a parameter.
package schedule

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// ErrBadDate is returned for date input the normalizer cannot parse.
var ErrBadDate = errors.New("malformed date")

// DateRe is the shape callers are expected to send for a scheduled
// delivery date. Anything else should be rejected before it reaches
// the normalizer.
var DateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

var cutoffRe = regexp.MustCompile(`^\d{2}:\d{2}$`)

// TimeConfig is the per-tenant ordering time configuration, owned by
// the University record and re-read on every request.
type TimeConfig struct {
	Timezone       string // IANA zone, e.g. "Asia/Ho_Chi_Minh"
	CutoffTime     string // "HH:mm", wall clock local to Timezone
	MaxAdvanceDays int    // 1..14
}

// Validate checks the field invariants enforced by the settings
// handler. Zone validity beyond presence is deliberately not checked
// here; an unloadable zone surfaces as an error from the checks.
func (c TimeConfig) Validate() error {
	if c.Timezone == "" {
		return errors.New("timezone is required")
	}
	if !cutoffRe.MatchString(c.CutoffTime) {
		return errors.New("order cutoff time must be HH:mm")
	}
	if hh, mm, err := parseCutoff(c.CutoffTime); err != nil || hh > 23 || mm > 59 {
		return errors.New("order cutoff time must be a valid time of day")
	}
	if c.MaxAdvanceDays < 1 || c.MaxAdvanceDays > 14 {
		return errors.New("max advance days must be between 1 and 14")
	}
	return nil
}

// DateKey truncates t to 00:00:00 UTC on the calendar day t denotes
// in UTC. This is a naive normalization, not a timezone converter:
// the year/month/day are read off t's UTC rendering, so a zone-aware
// timestamp near midnight can land on the neighbouring day. Callers
// pass plain dates.
func DateKey(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDateKey parses a YYYY-MM-DD or RFC 3339 string and normalizes
// it with DateKey. Malformed input yields ErrBadDate.
func ParseDateKey(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return DateKey(t), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return DateKey(t), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrBadDate, s)
}

// WithinAdvanceWindow reports whether target (a UTC-midnight date
// key) is no further ahead than cfg.MaxAdvanceDays from now's local
// calendar date in the tenant's zone. The boundary is inclusive:
// ordering exactly MaxAdvanceDays ahead is allowed.
func WithinAdvanceWindow(target time.Time, cfg TimeConfig, now time.Time) (bool, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return false, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}

	todayLocal := localDate(now, loc)
	lastAllowed := todayLocal.AddDate(0, 0, cfg.MaxAdvanceDays)
	targetLocal := localDate(target, loc)

	return !targetLocal.After(lastAllowed), nil
}

// PastCutoff reports whether the cutoff for ordering on target has
// already elapsed. Orders for local day D close at cfg.CutoffTime on
// day D-1, so once a day's cutoff passes, same-day ordering for the
// following day stays closed until its own cutoff; ordering for
// "today" is always past cutoff during normal hours.
func PastCutoff(target time.Time, cfg TimeConfig, now time.Time) (bool, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return false, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}

	hh, mm, err := parseCutoff(cfg.CutoffTime)
	if err != nil {
		return false, err
	}

	targetLocal := localDate(target, loc)
	cutoffDay := targetLocal.AddDate(0, 0, -1)
	cutoff := time.Date(cutoffDay.Year(), cutoffDay.Month(), cutoffDay.Day(), hh, mm, 0, 0, loc)

	return now.After(cutoff), nil
}

// localDate renders t in loc and returns the start of that local
// calendar day.
func localDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func parseCutoff(s string) (hh, mm int, err error) {
	if !cutoffRe.MatchString(s) {
		return 0, 0, fmt.Errorf("malformed cutoff time %q", s)
	}
	hh, _ = strconv.Atoi(s[:2])
	mm, _ = strconv.Atoi(s[3:])
	return hh, mm, nil
}
