package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rae-systems/scheduler/internal/job"
)

var (
	reDateTime  = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})[ T](\d{2}):(\d{2})(?::(\d{2}))?$`)
	reClockOnly = regexp.MustCompile(`^(\d{2}):(\d{2})(?::(\d{2}))?$`)
	reRelative  = regexp.MustCompile(`^in\s+(\d+)\s+(minute|minutes|hour|hours|day|days)$`)
	reTodayAt   = regexp.MustCompile(`^today\s+at\s+(\d{2}):(\d{2})(?::(\d{2}))?$`)
	reTomorrow  = regexp.MustCompile(`^tomorrow\s+at\s+(\d{2}):(\d{2})(?::(\d{2}))?$`)
)

// ParseHumanTime accepts the forms in spec.md §4.1: an absolute
// "YYYY-MM-DD HH:MM[:SS]", a bare "HH:MM[:SS]" anchored on today (UTC),
// a relative "in N {minute[s]|hour[s]|day[s]}", or "today at HH:MM" /
// "tomorrow at HH:MM". Keywords are case-insensitive; surrounding and
// repeated whitespace is normalized before matching.
func ParseHumanTime(s string, now time.Time) (time.Time, error) {
	norm := strings.ToLower(strings.Join(strings.Fields(s), " "))
	now = now.UTC()

	if m := reDateTime.FindStringSubmatch(norm); m != nil {
		return buildDateTime(m[1], m[2], m[3], m[4], m[5], m[6])
	}
	if m := reClockOnly.FindStringSubmatch(norm); m != nil {
		return buildClockOn(now, m[1], m[2], m[3])
	}
	if m := reRelative.FindStringSubmatch(norm); m != nil {
		return buildRelative(now, m[1], m[2])
	}
	if m := reTodayAt.FindStringSubmatch(norm); m != nil {
		return buildClockOn(now, m[1], m[2], m[3])
	}
	if m := reTomorrow.FindStringSubmatch(norm); m != nil {
		t, err := buildClockOn(now, m[1], m[2], m[3])
		if err != nil {
			return time.Time{}, err
		}
		return t.AddDate(0, 0, 1), nil
	}
	return time.Time{}, fmt.Errorf("%w: unrecognized human time %q", job.ErrValidation, s)
}

func buildDateTime(year, month, day, hour, minute, second string) (time.Time, error) {
	sec := "00"
	if second != "" {
		sec = second
	}
	layout := "2006-01-02 15:04:05"
	str := fmt.Sprintf("%s-%s-%s %s:%s:%s", year, month, day, hour, minute, sec)
	t, err := time.ParseInLocation(layout, str, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid human time %q: %v", job.ErrValidation, str, err)
	}
	return t, nil
}

func buildClockOn(now time.Time, hour, minute, second string) (time.Time, error) {
	h, _ := strconv.Atoi(hour)
	m, _ := strconv.Atoi(minute)
	s := 0
	if second != "" {
		s, _ = strconv.Atoi(second)
	}
	if h > 23 || m > 59 || s > 59 {
		return time.Time{}, fmt.Errorf("%w: invalid clock time %02d:%02d:%02d", job.ErrValidation, h, m, s)
	}
	return time.Date(now.Year(), now.Month(), now.Day(), h, m, s, 0, time.UTC), nil
}

func buildRelative(now time.Time, count, unit string) (time.Time, error) {
	n, err := strconv.Atoi(count)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid relative count %q: %v", job.ErrValidation, count, err)
	}
	switch {
	case strings.HasPrefix(unit, "minute"):
		return now.Add(time.Duration(n) * time.Minute), nil
	case strings.HasPrefix(unit, "hour"):
		return now.Add(time.Duration(n) * time.Hour), nil
	case strings.HasPrefix(unit, "day"):
		return now.AddDate(0, 0, n), nil
	default:
		return time.Time{}, fmt.Errorf("%w: unrecognized relative unit %q", job.ErrValidation, unit)
	}
}
