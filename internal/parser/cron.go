// Package parser turns cron expressions, ISO/human time strings, and
// timezone names into normalized schedule values, and computes the next
// forward occurrence of a Schedule. All functions here are pure.
package parser

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/rae-systems/scheduler/internal/job"
)

// cronParser5 matches the teacher's internal/schedule parser
// construction for standard 5-field cron. cronParser6 additionally
// accepts a leading seconds field, selected when the expression carries
// six whitespace-separated tokens.
var (
	cronParser5 = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	cronParser6 = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
)

// ParseCron validates a cron expression and returns its robfig/cron
// schedule, from which successive occurrences can be computed. Accepts
// standard cron with an optional leading seconds field.
func ParseCron(expr string) (cron.Schedule, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("%w: cron expression must not be empty", job.ErrValidation)
	}
	fields := strings.Fields(expr)
	p := cronParser5
	if len(fields) == 6 {
		p = cronParser6
	}
	sched, err := p.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid cron expression %q: %v", job.ErrValidation, expr, err)
	}
	return sched, nil
}

// ParseTimezone resolves an IANA zone name, defaulting to UTC when
// empty.
func ParseTimezone(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid timezone %q: %v", job.ErrValidation, name, err)
	}
	return loc, nil
}

// ParseTime parses an RFC 3339 instant and normalizes it to UTC.
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid time format %q: %v", job.ErrValidation, s, err)
	}
	return t.UTC(), nil
}
