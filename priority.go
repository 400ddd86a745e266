package brevq

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// Priority is the dispatch urgency of a queued email. Lower values are more
// urgent, so sorting by Priority sorts by urgency.
type Priority uint8

const (
	PriorityNow Priority = iota
	PriorityHigh
	PriorityStandard
	PriorityLow
)

var priorityNames = [...]string{
	PriorityNow:      "now",
	PriorityHigh:     "high",
	PriorityStandard: "standard",
	PriorityLow:      "low",
}

func (p Priority) Valid() bool {
	return int(p) < len(priorityNames)
}

func (p Priority) String() string {
	if !p.Valid() {
		return fmt.Sprintf("priority(%d)", uint8(p))
	}
	return priorityNames[p]
}

// Before reports whether p is dispatched ahead of o.
func (p Priority) Before(o Priority) bool {
	return p < o
}

func ParsePriority(s string) (Priority, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return PriorityStandard, nil
	}
	for i, name := range priorityNames {
		if name == s {
			return Priority(i), nil
		}
	}
	return 0, fmt.Errorf("unknown priority %q", s)
}

func (p Priority) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("unknown priority %d", uint8(p))
	}
	return []byte(p.String()), nil
}

func (p *Priority) UnmarshalText(text []byte) error {
	pp, err := ParsePriority(string(text))
	if err != nil {
		return err
	}
	*p = pp
	return nil
}

func (p Priority) Value() (driver.Value, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("unknown priority %d", uint8(p))
	}
	return p.String(), nil
}

func (p *Priority) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		return p.UnmarshalText([]byte(v))
	case []byte:
		return p.UnmarshalText(v)
	}
	return fmt.Errorf("cannot scan %T into priority", src)
}

// Status is the lifecycle state of a queued email.
type Status string

const (
	StatusPending    Status = "pending"
	StatusScheduled  Status = "scheduled"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

func (s Status) String() string {
	return string(s)
}

// Terminal statuses never transition again.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Queued reports whether the record is waiting for dispatch.
func (s Status) Queued() bool {
	return s == StatusPending || s == StatusScheduled
}
