package parser

import (
	"fmt"
	"time"

	"github.com/rae-systems/scheduler/internal/job"
)

// ValidateSchedule checks that every trigger present in s is internally
// consistent: cron parses, timezone parses, file-event triggers carry a
// path, and pattern triggers have threshold >= 0 and window > 0. It does
// not check HasTrigger — that invariant belongs to Job.Validate, since a
// bare Schedule may legitimately be empty while being built up.
func ValidateSchedule(s job.Schedule) error {
	if s.Cron != "" {
		if _, err := ParseCron(s.Cron); err != nil {
			return err
		}
	}
	if s.Timezone != "" {
		if _, err := ParseTimezone(s.Timezone); err != nil {
			return err
		}
	}
	if s.Event != nil && s.Event.EventType.IsFileEvent() && s.Event.Path == "" {
		return fmt.Errorf("%w: file event trigger requires a path", job.ErrValidation)
	}
	if s.Pattern != nil {
		if s.Pattern.Threshold < 0 {
			return fmt.Errorf("%w: pattern threshold must be >= 0", job.ErrValidation)
		}
		if s.Pattern.Window <= 0 {
			return fmt.Errorf("%w: pattern window must be > 0", job.ErrValidation)
		}
	}
	return nil
}

// NextExecution computes the next occurrence of s strictly after after,
// or nil if the schedule has no predictable next time (no cron/at, or
// an event/pattern-only trigger, which is "always due" rather than
// time-keyed — see the queue's always-due handling).
func NextExecution(s job.Schedule, after time.Time) (*time.Time, error) {
	if s.IsUnpredictable() {
		return nil, nil
	}

	loc, err := ParseTimezone(s.Timezone)
	if err != nil {
		return nil, err
	}

	var candidates []time.Time

	if s.Cron != "" {
		sched, err := ParseCron(s.Cron)
		if err != nil {
			return nil, err
		}
		next := sched.Next(after.In(loc)).UTC()
		candidates = append(candidates, next)
	}

	if s.At != nil && s.At.After(after) {
		candidates = append(candidates, s.At.UTC())
	}

	if len(candidates) == 0 {
		return nil, nil
	}

	earliest := candidates[0]
	for _, c := range candidates[1:] {
		if c.Before(earliest) {
			earliest = c
		}
	}
	return &earliest, nil
}
