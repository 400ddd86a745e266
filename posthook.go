package brevq

import "time"

type PosthookEvent string

func (p PosthookEvent) String() string {
	return string(p)
}

// EventDelivered the transport accepted the email.
const EventDelivered PosthookEvent = "delivered"

// EventDeferred sending failed and the email is back in the queue for another attempt.
const EventDeferred PosthookEvent = "deferred"

// EventFailed sending failed and no attempts are left.
const EventFailed PosthookEvent = "failed"

// Posthook is posted as json to the configured posthook url after every send attempt.
type Posthook struct {
	EmailID   string        `json:"emailId"`
	BatchID   *string       `json:"batchId,omitempty"`
	To        string        `json:"to"`
	Attempt   int           `json:"attempt"`
	Event     PosthookEvent `json:"event"`
	Info      string        `json:"info,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
}
