package scheduler

import (
	"fmt"
	"github.com/modfin/brevq"
	"github.com/robfig/cron/v3"
	"time"
)

// DefaultInterval is used for stale claim detection when the schedule can not
// be parsed.
const DefaultInterval = 5 * time.Minute

// ParseSchedule parses a standard five field cron expression.
func ParseSchedule(expr string) (cron.Schedule, error) {
	s, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, brevq.Invalid("cronSchedule", "could not parse %q: %v", expr, err)
	}
	return s, nil
}

// NextFire is the first fire time of s at or after t, evaluated in loc.
func NextFire(s cron.Schedule, t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return s.Next(t.In(loc).Add(-time.Nanosecond)).UTC()
}

// Interval is the time between the next two fires after t.
func Interval(s cron.Schedule, t time.Time) time.Duration {
	first := s.Next(t)
	second := s.Next(first)
	if first.IsZero() || second.IsZero() {
		return DefaultInterval
	}
	return second.Sub(first)
}

// NextSendTime is when the next tick could dispatch something: the first fire
// at or after both now and the earliest queued record becoming due.
func NextSendTime(settings brevq.Settings, earliest *brevq.QueuedEmail, now time.Time, loc *time.Location) (*time.Time, error) {
	if !settings.Enabled || earliest == nil {
		return nil, nil
	}
	s, err := ParseSchedule(settings.CronSchedule)
	if err != nil {
		return nil, fmt.Errorf("settings hold an invalid schedule: %w", err)
	}
	from := now
	if earliest.ScheduledFor != nil && earliest.ScheduledFor.After(now) {
		from = *earliest.ScheduledFor
	}
	next := NextFire(s, from, loc)
	if next.IsZero() {
		return nil, nil
	}
	return &next, nil
}
