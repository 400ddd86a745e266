// Package ratelimit gates dispatch on a rolling 24 hour send counter.
package ratelimit

import (
	"context"
	"fmt"
	"time"
)

const Window = 24 * time.Hour

type Counter interface {
	CountSentSince(ctx context.Context, since time.Time) (int, error)
}

// Limiter holds no state of its own, every call recounts completed sends in
// the store. Capacity is never reserved ahead of dispatch.
type Limiter struct {
	counter Counter
	window  time.Duration
}

func New(counter Counter) *Limiter {
	return &Limiter{counter: counter, window: Window}
}

// Sent is the number of completed sends in the window ending at now.
func (l *Limiter) Sent(ctx context.Context, now time.Time) (int, error) {
	sent, err := l.counter.CountSentSince(ctx, now.Add(-l.window))
	if err != nil {
		return 0, fmt.Errorf("could not count sent emails: %w", err)
	}
	return sent, nil
}

// Remaining is dailyLimit minus the sends in the window, never negative.
func (l *Limiter) Remaining(ctx context.Context, now time.Time, dailyLimit int) (int, error) {
	sent, err := l.Sent(ctx, now)
	if err != nil {
		return 0, err
	}
	return Remaining(dailyLimit, sent), nil
}

func Remaining(dailyLimit int, sent int) int {
	if sent >= dailyLimit {
		return 0
	}
	return dailyLimit - sent
}
