package dao

import (
	"github.com/modfin/brevq"
	"github.com/modfin/brevq/pkg/blacklist"
	"time"
)

// Patch is an edit of a queued record, nil fields are left as is.
type Patch struct {
	Subject        *string
	HTML           *string
	Priority       *brevq.Priority
	ScheduledFor   *time.Time
	BlacklistRules *blacklist.Rules
	EditableUntil  *time.Time
}

func (p Patch) apply(e *brevq.QueuedEmail, now time.Time) {
	if p.Subject != nil {
		e.Subject = *p.Subject
	}
	if p.HTML != nil {
		e.HTML = *p.HTML
	}
	if p.Priority != nil {
		e.Priority = *p.Priority
	}
	if p.ScheduledFor != nil {
		at := p.ScheduledFor.UTC()
		e.ScheduledFor = &at
		e.Status = brevq.StatusFor(e.ScheduledFor, now)
	}
	if p.BlacklistRules != nil {
		e.BlacklistRules = p.BlacklistRules
		if p.BlacklistRules.Empty() {
			e.BlacklistRules = nil
		}
	}
	if p.EditableUntil != nil {
		at := p.EditableUntil.UTC()
		e.EditableUntil = &at
	}
}

type LogEntry struct {
	ID        int64     `db:"id" json:"-"`
	EmailID   string    `db:"email_id" json:"emailId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	Log       string    `db:"log" json:"log"`
}
