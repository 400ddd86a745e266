package brevq

import (
	"fmt"
	"github.com/modfin/brevq/pkg/blacklist"
	"github.com/modfin/brevq/pkg/zid"
	"github.com/modfin/brevq/tools"
	"net/mail"
	"strings"
	"time"
)

const (
	DefaultMaxAttempts = 3
	MinMaxAttempts     = 1
	MaxMaxAttempts     = 10
)

// QueuedEmail is one send intent, as stored in the queue and returned by the api.
type QueuedEmail struct {
	ID            zid.ID  `db:"id" json:"id"`
	BatchID       *string `db:"batch_id" json:"batchId,omitempty"`
	BatchPosition *int    `db:"batch_position" json:"batchPosition,omitempty"`

	Priority Priority `db:"priority" json:"priority"`
	Status   Status   `db:"status" json:"status"`

	To      string `db:"to_" json:"to"`
	From    string `db:"from_" json:"from"`
	Subject string `db:"subject" json:"subject"`
	HTML    string `db:"html" json:"html"`

	ScheduledFor   *time.Time       `db:"scheduled_for" json:"scheduledFor,omitempty"`
	BlacklistRules *blacklist.Rules `db:"blacklist_rules" json:"blacklistRules,omitempty"`
	EditableUntil  *time.Time       `db:"editable_until" json:"editableUntil,omitempty"`

	Attempts    int     `db:"attempts" json:"attempts"`
	MaxAttempts int     `db:"max_attempts" json:"maxAttempts"`
	LastError   *string `db:"last_error" json:"lastError,omitempty"`

	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updatedAt"`
	ProcessedAt *time.Time `db:"processed_at" json:"processedAt,omitempty"`
	ClaimedAt   *time.Time `db:"claimed_at" json:"-"`
}

// Due reports whether the scheduled time has been reached.
func (e QueuedEmail) Due(now time.Time) bool {
	return e.ScheduledFor == nil || !e.ScheduledFor.After(now)
}

// Editable reports whether the record may still be edited or cancelled at now.
func (e QueuedEmail) Editable(now time.Time) error {
	if !e.Status.Queued() {
		return &LockedError{ID: e.ID.String(), Reason: fmt.Sprintf("status is %s", e.Status)}
	}
	if e.EditableUntil != nil && !now.Before(*e.EditableUntil) {
		return &LockedError{ID: e.ID.String(), Reason: fmt.Sprintf("editable until %s", e.EditableUntil.Format(time.RFC3339))}
	}
	return nil
}

// StatusFor is the initial queued status for a record scheduled at scheduledFor.
func StatusFor(scheduledFor *time.Time, now time.Time) Status {
	if scheduledFor != nil && scheduledFor.After(now) {
		return StatusScheduled
	}
	return StatusPending
}

// Content is shared by single and batch submissions.
type Content struct {
	From           string           `json:"from,omitempty"`
	Subject        string           `json:"subject"`
	HTML           string           `json:"html"`
	Priority       string           `json:"priority,omitempty"`
	ScheduledFor   *time.Time       `json:"scheduledFor,omitempty"`
	BlacklistRules *blacklist.Rules `json:"blacklistRules,omitempty"`
	EditableUntil  *time.Time       `json:"editableUntil,omitempty"`
	MaxAttempts    *int             `json:"maxAttempts,omitempty"`
}

func (c Content) Validate() error {
	if c.From != "" {
		if _, err := ParseAddress(c.From); err != nil {
			return Invalid("from", "%v", err)
		}
	}
	if strings.TrimSpace(c.Subject) == "" {
		return Invalid("subject", "a subject must be provided")
	}
	if strings.TrimSpace(c.HTML) == "" {
		return Invalid("html", "content of the email must be provided")
	}
	if _, err := ParsePriority(c.Priority); err != nil {
		return Invalid("priority", "%v", err)
	}
	if c.MaxAttempts != nil && (*c.MaxAttempts < MinMaxAttempts || *c.MaxAttempts > MaxMaxAttempts) {
		return Invalid("maxAttempts", "must be between %d and %d, got %d", MinMaxAttempts, MaxMaxAttempts, *c.MaxAttempts)
	}
	if c.BlacklistRules != nil {
		if err := c.BlacklistRules.Validate(); err != nil {
			return Invalid("blacklistRules", "%v", err)
		}
	}
	return nil
}

// Record builds a queue record for one recipient. Validate must have passed.
// A scheduled time in the past is moved up to now so that it never precedes
// the creation time.
func (c Content) Record(to string, defaultFrom string, now time.Time) QueuedEmail {
	priority, _ := ParsePriority(c.Priority)

	maxAttempts := DefaultMaxAttempts
	if c.MaxAttempts != nil {
		maxAttempts = *c.MaxAttempts
	}

	from := c.From
	if from == "" {
		from = defaultFrom
	}

	var scheduledFor *time.Time
	if c.ScheduledFor != nil {
		at := c.ScheduledFor.UTC()
		if at.Before(now) {
			at = now
		}
		scheduledFor = &at
	}

	var rules *blacklist.Rules
	if c.BlacklistRules != nil && !c.BlacklistRules.Empty() {
		rules = c.BlacklistRules
	}

	return QueuedEmail{
		ID:             zid.NewWithTime(now),
		Priority:       priority,
		Status:         StatusFor(scheduledFor, now),
		To:             to,
		From:           from,
		Subject:        c.Subject,
		HTML:           c.HTML,
		ScheduledFor:   scheduledFor,
		BlacklistRules: rules,
		EditableUntil:  utcPtr(c.EditableUntil),
		MaxAttempts:    maxAttempts,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

type ScheduleRequest struct {
	To string `json:"to"`
	Content
}

func (r ScheduleRequest) Validate() error {
	if _, err := ParseAddress(r.To); err != nil {
		return Invalid("to", "%v", err)
	}
	return r.Content.Validate()
}

type BatchRequest struct {
	Recipients []string `json:"recipients"`
	Content
}

func (r BatchRequest) Validate() error {
	if len(r.Recipients) == 0 {
		return Invalid("recipients", "at least one recipient must be provided")
	}
	for i, rcpt := range r.Recipients {
		if _, err := ParseAddress(rcpt); err != nil {
			return Invalid(fmt.Sprintf("recipients[%d]", i), "%v", err)
		}
	}
	return r.Content.Validate()
}

// UpdateRequest edits a queued record. Nil fields are left unchanged.
type UpdateRequest struct {
	ID             string           `json:"id"`
	Subject        *string          `json:"subject,omitempty"`
	HTML           *string          `json:"html,omitempty"`
	Priority       *string          `json:"priority,omitempty"`
	ScheduledFor   *time.Time       `json:"scheduledFor,omitempty"`
	BlacklistRules *blacklist.Rules `json:"blacklistRules,omitempty"`
	EditableUntil  *time.Time       `json:"editableUntil,omitempty"`
}

func (r UpdateRequest) Validate() error {
	if _, err := zid.FromString(r.ID); err != nil {
		return Invalid("id", "%v", err)
	}
	if r.Subject != nil && strings.TrimSpace(*r.Subject) == "" {
		return Invalid("subject", "subject can not be empty")
	}
	if r.HTML != nil && strings.TrimSpace(*r.HTML) == "" {
		return Invalid("html", "content can not be empty")
	}
	if r.Priority != nil {
		if _, err := ParsePriority(*r.Priority); err != nil || *r.Priority == "" {
			return Invalid("priority", "unknown priority %q", *r.Priority)
		}
	}
	if r.BlacklistRules != nil {
		if err := r.BlacklistRules.Validate(); err != nil {
			return Invalid("blacklistRules", "%v", err)
		}
	}
	return nil
}

type Receipt struct {
	ID string `json:"id"`
}

type BatchReceipt struct {
	BatchID string   `json:"batchId"`
	IDs     []string `json:"ids"`
}

// BatchStatus is the aggregate of all records of a batch, computed on read.
type BatchStatus struct {
	BatchID string         `json:"batchId"`
	Status  Status         `json:"status"`
	Total   int            `json:"total"`
	Counts  map[Status]int `json:"counts"`
	Emails  []QueuedEmail  `json:"emails"`
}

type QueueStatus struct {
	QueueLength       int        `json:"queueLength"`
	DailyCount        int        `json:"dailyCount"`
	DailyLimit        int        `json:"dailyLimit"`
	RemainingCapacity int        `json:"remainingCapacity"`
	NextSendTime      *time.Time `json:"nextSendTime,omitempty"`
	IsEnabled         bool       `json:"isEnabled"`
}

type Page struct {
	Emails     []QueuedEmail `json:"emails"`
	Total      int           `json:"total"`
	Page       int           `json:"page"`
	PageSize   int           `json:"pageSize"`
	TotalPages int           `json:"totalPages"`
}

const (
	MinDailyLimit = 1
	MaxDailyLimit = 100000
)

// Settings is the process wide scheduling configuration.
type Settings struct {
	DailyLimit   int       `db:"daily_limit" json:"dailyLimit"`
	CronSchedule string    `db:"cron_schedule" json:"cronSchedule"`
	Enabled      bool      `db:"enabled" json:"enabled"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

type SettingsUpdate struct {
	DailyLimit   *int    `json:"dailyLimit,omitempty"`
	CronSchedule *string `json:"cronSchedule,omitempty"`
	Enabled      *bool   `json:"enabled,omitempty"`
}

// Validate checks ranges; the cron expression itself is checked by the
// scheduler, which owns the parser.
func (u SettingsUpdate) Validate() error {
	if u.DailyLimit != nil && (*u.DailyLimit < MinDailyLimit || *u.DailyLimit > MaxDailyLimit) {
		return Invalid("dailyLimit", "must be between %d and %d, got %d", MinDailyLimit, MaxDailyLimit, *u.DailyLimit)
	}
	if u.CronSchedule != nil && strings.TrimSpace(*u.CronSchedule) == "" {
		return Invalid("cronSchedule", "can not be empty")
	}
	return nil
}

// ParseAddress accepts 'email' or 'name <email>' and requires a domain part.
func ParseAddress(address string) (*mail.Address, error) {
	addr, err := mail.ParseAddress(address)
	if err != nil {
		return nil, fmt.Errorf("email %s, is not a valid email address", address)
	}
	domain, err := tools.DomainOfEmail(addr.Address)
	if err != nil || domain == "" {
		return nil, fmt.Errorf("email %s, has no domain", address)
	}
	return addr, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
