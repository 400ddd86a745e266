package batch

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/modfin/brevq"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	batches map[string][]brevq.QueuedEmail
	err     error
}

func (f *fakeStore) EnqueueBatch(ctx context.Context, emails []brevq.QueuedEmail) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	id := fmt.Sprintf("batch-%d", len(f.batches))
	for i := range emails {
		pos := i
		emails[i].BatchID = &id
		emails[i].BatchPosition = &pos
	}
	f.batches[id] = emails
	return id, nil
}

func (f *fakeStore) ListBatch(ctx context.Context, batchID string) ([]brevq.QueuedEmail, error) {
	emails, ok := f.batches[batchID]
	if !ok {
		return nil, brevq.ErrNotFound
	}
	return emails, nil
}

var now = time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC)

func TestSubmit(t *testing.T) {
	store := &fakeStore{batches: map[string][]brevq.QueuedEmail{}}
	c := New(store, "noreply@example.com")

	receipt, err := c.Submit(context.Background(), brevq.BatchRequest{
		Recipients: []string{"a@example.com", "b@example.com", "c@example.com"},
		Content:    brevq.Content{Subject: "hello", HTML: "<p>hi</p>", Priority: "high"},
	}, now)
	require.NoError(t, err)
	require.Len(t, receipt.IDs, 3)

	emails := store.batches[receipt.BatchID]
	for i, e := range emails {
		require.Equal(t, receipt.IDs[i], e.ID.String())
		require.Equal(t, i, *e.BatchPosition)
		require.Equal(t, brevq.PriorityHigh, e.Priority)
		require.Equal(t, "noreply@example.com", e.From)
		require.Equal(t, brevq.StatusPending, e.Status)
	}
	require.Equal(t, "b@example.com", emails[1].To)
}

func TestSubmit_Invalid(t *testing.T) {
	store := &fakeStore{batches: map[string][]brevq.QueuedEmail{}}
	c := New(store, "noreply@example.com")

	_, err := c.Submit(context.Background(), brevq.BatchRequest{
		Recipients: []string{"a@example.com", "not-an-address"},
		Content:    brevq.Content{Subject: "hello", HTML: "<p>hi</p>"},
	}, now)
	require.ErrorIs(t, err, brevq.ErrValidation)
	require.Empty(t, store.batches)

	_, err = c.Submit(context.Background(), brevq.BatchRequest{
		Content: brevq.Content{Subject: "hello", HTML: "<p>hi</p>"},
	}, now)
	require.ErrorIs(t, err, brevq.ErrValidation)
}

func TestSubmit_StoreError(t *testing.T) {
	store := &fakeStore{batches: map[string][]brevq.QueuedEmail{}, err: errors.New("disk full")}
	c := New(store, "noreply@example.com")

	_, err := c.Submit(context.Background(), brevq.BatchRequest{
		Recipients: []string{"a@example.com"},
		Content:    brevq.Content{Subject: "hello", HTML: "<p>hi</p>"},
	}, now)
	require.Error(t, err)
}

func TestStatus_NotFound(t *testing.T) {
	c := New(&fakeStore{batches: map[string][]brevq.QueuedEmail{}}, "")
	_, err := c.Status(context.Background(), "nope")
	require.ErrorIs(t, err, brevq.ErrNotFound)
}

func TestAggregate(t *testing.T) {
	const (
		p = brevq.StatusPending
		s = brevq.StatusScheduled
		r = brevq.StatusProcessing
		c = brevq.StatusCompleted
		f = brevq.StatusFailed
	)
	tests := []struct {
		name     string
		statuses []brevq.Status
		want     brevq.Status
	}{
		{name: "all completed", statuses: []brevq.Status{c, c, c}, want: c},
		{name: "all failed", statuses: []brevq.Status{f, f}, want: f},
		{name: "terminal with a failure", statuses: []brevq.Status{c, f, c}, want: f},
		{name: "all waiting", statuses: []brevq.Status{p, s, p}, want: p},
		{name: "one processing", statuses: []brevq.Status{p, r, p}, want: r},
		{name: "partly done", statuses: []brevq.Status{c, p}, want: r},
		{name: "failed and waiting", statuses: []brevq.Status{f, s}, want: r},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var emails []brevq.QueuedEmail
			for _, st := range test.statuses {
				emails = append(emails, brevq.QueuedEmail{Status: st})
			}
			got := Aggregate("b", emails)
			if got.Status != test.want {
				t.Errorf("ERROR: got %s, want %s", got.Status, test.want)
			}
			if got.Total != len(test.statuses) {
				t.Errorf("ERROR: got total %d, want %d", got.Total, len(test.statuses))
			}
		})
	}

	got := Aggregate("b", []brevq.QueuedEmail{{Status: c}, {Status: c}, {Status: f}, {Status: p}})
	require.Equal(t, map[brevq.Status]int{c: 2, f: 1, p: 1}, got.Counts)
}
