// Package retry records the outcome of a delivery attempt on a claimed email.
package retry

import (
	"context"
	"errors"
	"fmt"
	"github.com/modfin/brevq"
	"github.com/modfin/brevq/tools"
	"github.com/modfin/henry/compare"
	"github.com/sirupsen/logrus"
	"time"
)

// MaxErrorLength bounds the stored lastError.
const MaxErrorLength = 1024

type Store interface {
	Complete(ctx context.Context, id string, attempts int, now time.Time) error
	Release(ctx context.Context, id string, status brevq.Status, attempts int, lastError string, now time.Time) error
}

type Outcome int

const (
	Sent Outcome = iota
	Requeued
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Sent:
		return "sent"
	case Requeued:
		return "requeued"
	case Failed:
		return "failed"
	}
	return "unknown"
}

type Manager struct {
	store Store
	log   *logrus.Logger
}

func New(store Store, log *logrus.Logger) *Manager {
	return &Manager{store: store, log: tools.LoggerCloner(log).New("retry")}
}

// Next decides the outcome of an attempt on e, without touching the store.
// The attempt that just finished is counted.
func Next(e brevq.QueuedEmail, sendErr error) (outcome Outcome, attempts int) {
	attempts = e.Attempts + 1
	if sendErr == nil {
		return Sent, attempts
	}
	if attempts < e.MaxAttempts {
		return Requeued, attempts
	}
	return Failed, attempts
}

// Resolve persists the outcome of a send attempt on the claimed email e.
// A requeued email goes back to pending and is picked up on a later tick.
func (m *Manager) Resolve(ctx context.Context, e brevq.QueuedEmail, sendErr error, now time.Time) (Outcome, error) {
	outcome, attempts := Next(e, sendErr)
	id := e.ID.String()

	var err error
	switch outcome {
	case Sent:
		err = m.store.Complete(ctx, id, attempts, now)
	default:
		status := compare.Ternary(outcome == Failed, brevq.StatusFailed, brevq.StatusPending)
		err = m.store.Release(ctx, id, status, attempts, tools.Truncate(sendErr.Error(), MaxErrorLength), now)
	}

	if errors.Is(err, brevq.ErrConflict) {
		m.log.WithField("eid", id).Warn("email was no longer claimed when resolving the attempt, skipping")
		return outcome, err
	}
	if err != nil {
		return outcome, fmt.Errorf("could not mark email %s as %s: %w", id, outcome, err)
	}

	l := m.log.WithField("eid", id).WithField("attempts", attempts)
	switch outcome {
	case Sent:
		l.Debug("email sent")
	case Requeued:
		l.WithError(sendErr).Infof("send failed, requeued, %d of %d attempts used", attempts, e.MaxAttempts)
	case Failed:
		l.WithError(sendErr).Warn("send failed, no attempts left")
	}
	return outcome, nil
}
