// Package batch submits multi recipient sends and reports on them.
package batch

import (
	"context"
	"fmt"
	"github.com/modfin/brevq"
	"github.com/modfin/henry/slicez"
	"time"
)

type Store interface {
	EnqueueBatch(ctx context.Context, emails []brevq.QueuedEmail) (batchID string, err error)
	ListBatch(ctx context.Context, batchID string) ([]brevq.QueuedEmail, error)
}

type Coordinator struct {
	store       Store
	defaultFrom string
}

func New(store Store, defaultFrom string) *Coordinator {
	return &Coordinator{store: store, defaultFrom: defaultFrom}
}

// Submit fans req out into one record per recipient, sharing content and
// options, and stores them atomically. Ids are returned in recipient order.
func (c *Coordinator) Submit(ctx context.Context, req brevq.BatchRequest, now time.Time) (brevq.BatchReceipt, error) {
	if err := req.Validate(); err != nil {
		return brevq.BatchReceipt{}, err
	}

	emails := slicez.Map(req.Recipients, func(rcpt string) brevq.QueuedEmail {
		return req.Content.Record(rcpt, c.defaultFrom, now)
	})

	batchID, err := c.store.EnqueueBatch(ctx, emails)
	if err != nil {
		return brevq.BatchReceipt{}, fmt.Errorf("could not enqueue batch: %w", err)
	}

	return brevq.BatchReceipt{
		BatchID: batchID,
		IDs: slicez.Map(emails, func(e brevq.QueuedEmail) string {
			return e.ID.String()
		}),
	}, nil
}

// Status computes the aggregate of a batch from its members.
func (c *Coordinator) Status(ctx context.Context, batchID string) (brevq.BatchStatus, error) {
	emails, err := c.store.ListBatch(ctx, batchID)
	if err != nil {
		return brevq.BatchStatus{}, err
	}
	return Aggregate(batchID, emails), nil
}

func Aggregate(batchID string, emails []brevq.QueuedEmail) brevq.BatchStatus {
	groups := slicez.GroupBy(emails, func(e brevq.QueuedEmail) brevq.Status {
		return e.Status
	})
	counts := map[brevq.Status]int{}
	for status, members := range groups {
		counts[status] = len(members)
	}

	return brevq.BatchStatus{
		BatchID: batchID,
		Status:  aggregate(emails),
		Total:   len(emails),
		Counts:  counts,
		Emails:  emails,
	}
}

func aggregate(emails []brevq.QueuedEmail) brevq.Status {
	is := func(statuses ...brevq.Status) func(e brevq.QueuedEmail) bool {
		return func(e brevq.QueuedEmail) bool {
			return slicez.Contains(statuses, e.Status)
		}
	}

	switch {
	case slicez.EveryFunc(emails, is(brevq.StatusCompleted)):
		return brevq.StatusCompleted
	case slicez.EveryFunc(emails, is(brevq.StatusCompleted, brevq.StatusFailed)):
		return brevq.StatusFailed
	case slicez.EveryFunc(emails, is(brevq.StatusPending, brevq.StatusScheduled)):
		return brevq.StatusPending
	}
	return brevq.StatusProcessing
}
