package transport

import (
	"context"
	"fmt"
	"github.com/resend/resend-go/v2"
	"net/url"
)

// Resend delivers through the Resend HTTP API.
type Resend struct {
	client *resend.Client
}

func NewResend(apiKey string) *Resend {
	return &Resend{client: resend.NewClient(apiKey)}
}

// WithBaseURL points the client at another api host, eg a local mock.
func (r *Resend) WithBaseURL(base string) (*Resend, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("could not parse resend base url: %w", err)
	}
	r.client.BaseURL = u
	return r, nil
}

func (r *Resend) Name() string { return "resend" }

// Send uses the email id and attempt as idempotency key, so a request that
// timed out on our side is not delivered twice if the same attempt is resent.
func (r *Resend) Send(ctx context.Context, msg Message) error {
	params := &resend.SendEmailRequest{
		From:    msg.From,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
		Headers: map[string]string{"X-Brevq-Id": msg.ID},
	}
	_, err := r.client.Emails.SendWithOptions(ctx, params, &resend.SendEmailOptions{
		IdempotencyKey: fmt.Sprintf("%s/%d", msg.ID, msg.Attempt),
	})
	if err != nil {
		return fmt.Errorf("resend could not send email %s: %w", msg.ID, err)
	}
	return nil
}

func (r *Resend) Close() error { return nil }
