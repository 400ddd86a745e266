// Package transport hands rendered emails to a mail provider.
package transport

import (
	"context"
	"errors"
	"fmt"
	"github.com/modfin/brevq"
	"time"
)

var ErrTimeout = errors.New("transport timed out")

// Message is a single recipient email ready to be handed off.
type Message struct {
	ID      string
	Attempt int // 1 based
	From    string
	To      string
	Subject string
	HTML    string
}

func MessageOf(e brevq.QueuedEmail) Message {
	return Message{
		ID:      e.ID.String(),
		Attempt: e.Attempts + 1,
		From:    e.From,
		To:      e.To,
		Subject: e.Subject,
		HTML:    e.HTML,
	}
}

type Transport interface {
	Name() string
	Send(ctx context.Context, msg Message) error
	Close() error
}

// Func adapts a function to a Transport.
type Func func(ctx context.Context, msg Message) error

func (f Func) Name() string { return "func" }

func (f Func) Send(ctx context.Context, msg Message) error { return f(ctx, msg) }

func (f Func) Close() error { return nil }

// WithTimeout bounds every Send of t by d. A send that does not return in time
// is reported as failed with ErrTimeout, whatever it eventually returns.
func WithTimeout(t Transport, d time.Duration) Transport {
	if d <= 0 {
		return t
	}
	return &timeout{Transport: t, d: d}
}

type timeout struct {
	Transport
	d time.Duration
}

func (t *timeout) Send(ctx context.Context, msg Message) error {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()

	res := make(chan error, 1)
	go func() {
		res <- t.Transport.Send(ctx, msg)
	}()

	select {
	case err := <-res:
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w after %s: %w", ErrTimeout, t.d, err)
		}
		return err
	case <-ctx.Done():
		return fmt.Errorf("%w after %s: %w", ErrTimeout, t.d, ctx.Err())
	}
}
