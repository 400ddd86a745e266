// Package blacklist decides whether an email may be dispatched at a given
// point in time.
//
// A rule set holds up to three independent kinds of rules. Days of week and
// time ranges are allow lists, date ranges are deny lists. Every kind that is
// present must pass; a kind that is absent (or empty) does not restrict.
package blacklist

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type Rule interface {
	Allows(t time.Time) bool
	Validate() error
}

type Rules struct {
	DaysOfWeek DaysOfWeek `json:"daysOfWeek,omitempty"`
	TimeRanges TimeRanges `json:"timeRanges,omitempty"`
	DateRanges DateRanges `json:"dateRanges,omitempty"`
}

func (r *Rules) rules() []Rule {
	if r == nil {
		return nil
	}
	var rs []Rule
	if len(r.DaysOfWeek) > 0 {
		rs = append(rs, r.DaysOfWeek)
	}
	if len(r.TimeRanges) > 0 {
		rs = append(rs, r.TimeRanges)
	}
	if len(r.DateRanges) > 0 {
		rs = append(rs, r.DateRanges)
	}
	return rs
}

// Allowed reports whether t passes every present rule. A nil rule set allows
// everything.
func (r *Rules) Allowed(t time.Time) bool {
	for _, rule := range r.rules() {
		if !rule.Allows(t) {
			return false
		}
	}
	return true
}

func (r *Rules) Validate() error {
	var errs []error
	for _, rule := range r.rules() {
		if err := rule.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Rules) Empty() bool {
	return len(r.rules()) == 0
}

func (r Rules) Value() (driver.Value, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("could not marshal blacklist rules: %w", err)
	}
	return string(b), nil
}

func (r *Rules) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("cannot scan %T into blacklist rules", src)
	}
	*r = Rules{}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, r)
}

// DaysOfWeek allows dispatch on the listed weekdays, 0 = Sunday .. 6 = Saturday.
type DaysOfWeek []int

func (d DaysOfWeek) Allows(t time.Time) bool {
	wd := int(t.Weekday())
	for _, day := range d {
		if day == wd {
			return true
		}
	}
	return false
}

func (d DaysOfWeek) Validate() error {
	for _, day := range d {
		if day < 0 || day > 6 {
			return fmt.Errorf("daysOfWeek: %d is not a weekday, expected 0-6", day)
		}
	}
	return nil
}

// TimeRange is a same-day, half open [Start, End) window in HH:MM.
type TimeRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func (r TimeRange) bounds() (start int, end int, err error) {
	start, err = ParseClock(r.Start)
	if err != nil {
		return 0, 0, err
	}
	end, err = ParseClock(r.End)
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

func (r TimeRange) contains(t time.Time) bool {
	start, end, err := r.bounds()
	if err != nil {
		return false
	}
	m := t.Hour()*60 + t.Minute()
	return start <= m && m < end
}

// TimeRanges allows dispatch when the time of day is inside any of the ranges.
type TimeRanges []TimeRange

func (rs TimeRanges) Allows(t time.Time) bool {
	for _, r := range rs {
		if r.contains(t) {
			return true
		}
	}
	return false
}

func (rs TimeRanges) Validate() error {
	for i, r := range rs {
		start, end, err := r.bounds()
		if err != nil {
			return fmt.Errorf("timeRanges[%d]: %w", i, err)
		}
		if end <= start {
			return fmt.Errorf("timeRanges[%d]: end %s must be after start %s, overnight ranges are not supported", i, r.End, r.Start)
		}
	}
	return nil
}

// DateRange is an inclusive [StartDate, EndDate] exclusion window.
type DateRange struct {
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	Reason    string    `json:"reason,omitempty"`
}

func (r DateRange) contains(t time.Time) bool {
	return !t.Before(r.StartDate) && !t.After(r.EndDate)
}

// DateRanges denies dispatch while inside any of the ranges.
type DateRanges []DateRange

func (rs DateRanges) Allows(t time.Time) bool {
	for _, r := range rs {
		if r.contains(t) {
			return false
		}
	}
	return true
}

func (rs DateRanges) Validate() error {
	for i, r := range rs {
		if r.StartDate.IsZero() || r.EndDate.IsZero() {
			return fmt.Errorf("dateRanges[%d]: startDate and endDate are required", i)
		}
		if r.EndDate.Before(r.StartDate) {
			return fmt.Errorf("dateRanges[%d]: endDate is before startDate", i)
		}
	}
	return nil
}

// ParseClock parses HH:MM into minutes after midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil || len(s) != 5 {
		return 0, fmt.Errorf("%q is not a HH:MM time of day", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Covers returns the reasons of the date ranges that deny t, used for logging
// why a record was held back.
func (r *Rules) Covers(t time.Time) []string {
	if r == nil {
		return nil
	}
	var reasons []string
	for _, dr := range r.DateRanges {
		if dr.contains(t) {
			reasons = append(reasons, dr.Reason)
		}
	}
	return reasons
}
