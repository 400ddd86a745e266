package dao

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/modfin/brevq"
	"github.com/modfin/brevq/pkg/blacklist"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC)

func setup(t *testing.T) DAO {
	t.Helper()
	db, err := NewSQLite(DriverMattn, filepath.Join(t.TempDir(), "brevq.sqlite"), brevq.Settings{
		DailyLimit:   100,
		CronSchedule: "*/5 * * * *",
		Enabled:      true,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func record(to string, now time.Time) brevq.QueuedEmail {
	return brevq.Content{Subject: "Hello", HTML: "<p>hello</p>"}.Record(to, "noreply@example.com", now)
}

func TestEnqueueAndGet(t *testing.T) {
	db := setup(t)
	ctx := context.Background()

	e := record("to@example.com", t0)
	e.BlacklistRules = &blacklist.Rules{DaysOfWeek: blacklist.DaysOfWeek{1, 2}}
	require.NoError(t, db.Enqueue(ctx, e))

	got, err := db.Get(ctx, e.ID.String())
	require.NoError(t, err)
	require.Equal(t, e.ID, got.ID)
	require.Equal(t, brevq.StatusPending, got.Status)
	require.Equal(t, brevq.PriorityStandard, got.Priority)
	require.Equal(t, "to@example.com", got.To)
	require.Equal(t, 3, got.MaxAttempts)
	require.Nil(t, got.ScheduledFor)
	require.Nil(t, got.BatchID)
	require.NotNil(t, got.BlacklistRules)
	require.Equal(t, blacklist.DaysOfWeek{1, 2}, got.BlacklistRules.DaysOfWeek)
	require.True(t, got.CreatedAt.Equal(t0))

	_, err = db.Get(ctx, "cmmtq2h7g7n7r1v9ssv0")
	require.ErrorIs(t, err, brevq.ErrNotFound)
}

func TestEnqueueBatch(t *testing.T) {
	db := setup(t)
	ctx := context.Background()

	var emails []brevq.QueuedEmail
	for i := 0; i < 10; i++ {
		emails = append(emails, record(fmt.Sprintf("user%d@example.com", i), t0))
	}

	batchID, err := db.EnqueueBatch(ctx, emails)
	require.NoError(t, err)
	require.NotEmpty(t, batchID)

	members, err := db.ListBatch(ctx, batchID)
	require.NoError(t, err)
	require.Len(t, members, 10)
	for i, m := range members {
		require.Equal(t, batchID, *m.BatchID)
		require.Equal(t, i, *m.BatchPosition)
		require.Equal(t, fmt.Sprintf("user%d@example.com", i), m.To)
	}
}

func TestEnqueueBatch_MalformedAddressPersistsNothing(t *testing.T) {
	db := setup(t)
	ctx := context.Background()

	var emails []brevq.QueuedEmail
	for i := 0; i < 10; i++ {
		emails = append(emails, record(fmt.Sprintf("user%d@example.com", i), t0))
	}
	emails = append(emails[:5], append([]brevq.QueuedEmail{record("not an address", t0)}, emails[5:]...)...)

	_, err := db.EnqueueBatch(ctx, emails)
	require.ErrorIs(t, err, brevq.ErrValidation)

	_, total, err := db.List(ctx, 1, 50)
	require.NoError(t, err)
	require.Equal(t, 0, total)
}

func TestEnqueueBatch_InsertFailureRollsBack(t *testing.T) {
	db := setup(t)
	ctx := context.Background()

	a := record("a@example.com", t0)
	b := record("b@example.com", t0)
	b.ID = a.ID // primary key violation on the second insert

	_, err := db.EnqueueBatch(ctx, []brevq.QueuedEmail{a, b})
	require.Error(t, err)

	_, total, err := db.List(ctx, 1, 50)
	require.NoError(t, err)
	require.Equal(t, 0, total)
}

func TestListDue(t *testing.T) {
	db := setup(t)
	ctx := context.Background()

	now := record("now@example.com", t0)
	later := record("later@example.com", t0)
	at := t0.Add(time.Hour)
	later.ScheduledFor = &at
	later.Status = brevq.StatusScheduled

	require.NoError(t, db.Enqueue(ctx, now))
	require.NoError(t, db.Enqueue(ctx, later))

	due, err := db.ListDue(ctx, t0)
	require.NoError(t, err)
	require.Len(t, due, 1)
	require.Equal(t, now.ID, due[0].ID)

	due, err = db.ListDue(ctx, at)
	require.NoError(t, err)
	require.Len(t, due, 2)

	earliest, err := db.Earliest(ctx)
	require.NoError(t, err)
	require.Equal(t, now.ID, earliest.ID)
}

func TestUpdate(t *testing.T) {
	db := setup(t)
	ctx := context.Background()

	e := record("to@example.com", t0)
	until := t0.Add(time.Hour)
	e.EditableUntil = &until
	require.NoError(t, db.Enqueue(ctx, e))

	subject := "Changed"
	high := brevq.PriorityHigh
	at := t0.Add(2 * time.Hour)
	got, err := db.Update(ctx, e.ID.String(), Patch{Subject: &subject, Priority: &high, ScheduledFor: &at}, t0.Add(time.Minute))
	require.NoError(t, err)
	require.Equal(t, "Changed", got.Subject)
	require.Equal(t, brevq.StatusScheduled, got.Status)

	stored, err := db.Get(ctx, e.ID.String())
	require.NoError(t, err)
	require.Equal(t, "Changed", stored.Subject)
	require.Equal(t, brevq.PriorityHigh, stored.Priority)
	require.Equal(t, brevq.StatusScheduled, stored.Status)
	require.True(t, stored.UpdatedAt.Equal(t0.Add(time.Minute)))

	before := t0.Add(-time.Hour)
	_, err = db.Update(ctx, e.ID.String(), Patch{ScheduledFor: &before}, t0.Add(time.Minute))
	require.ErrorIs(t, err, brevq.ErrValidation)
}

func TestUpdate_AfterEditableUntilIsLocked(t *testing.T) {
	db := setup(t)
	ctx := context.Background()

	e := record("to@example.com", t0)
	until := t0.Add(time.Hour)
	e.EditableUntil = &until
	require.NoError(t, db.Enqueue(ctx, e))

	subject := "Too late"
	_, err := db.Update(ctx, e.ID.String(), Patch{Subject: &subject}, until)
	require.ErrorIs(t, err, brevq.ErrLocked)
	var locked *brevq.LockedError
	require.True(t, errors.As(err, &locked))

	stored, err := db.Get(ctx, e.ID.String())
	require.NoError(t, err)
	require.Equal(t, "Hello", stored.Subject)
	require.True(t, stored.UpdatedAt.Equal(t0))

	require.ErrorIs(t, db.Cancel(ctx, e.ID.String(), until.Add(time.Second)), brevq.ErrLocked)
}

// claim selects the current row and claims it, the way the scheduler does.
func claim(ctx context.Context, db DAO, id string, now time.Time) error {
	e, err := db.Get(ctx, id)
	if err != nil {
		return err
	}
	_, err = db.Claim(ctx, e, now)
	return err
}

func TestClaimLifecycle(t *testing.T) {
	db := setup(t)
	ctx := context.Background()

	e := record("to@example.com", t0)
	require.NoError(t, db.Enqueue(ctx, e))
	id := e.ID.String()

	require.NoError(t, claim(ctx, db, id, t0))
	require.ErrorIs(t, claim(ctx, db, id, t0), brevq.ErrConflict)

	subject := "x"
	_, err := db.Update(ctx, id, Patch{Subject: &subject}, t0)
	require.ErrorIs(t, err, brevq.ErrLocked)
	require.ErrorIs(t, db.Cancel(ctx, id, t0), brevq.ErrLocked)

	require.NoError(t, db.Release(ctx, id, brevq.StatusPending, 1, "boom", t0))
	stored, err := db.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, brevq.StatusPending, stored.Status)
	require.Equal(t, 1, stored.Attempts)
	require.Equal(t, "boom", *stored.LastError)
	require.Nil(t, stored.ClaimedAt)

	require.NoError(t, claim(ctx, db, id, t0.Add(time.Minute)))
	require.NoError(t, db.Complete(ctx, id, 2, t0.Add(time.Minute)))
	require.ErrorIs(t, db.Complete(ctx, id, 2, t0.Add(time.Minute)), brevq.ErrConflict)

	stored, err = db.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, brevq.StatusCompleted, stored.Status)
	require.Equal(t, 2, stored.Attempts)
	require.NotNil(t, stored.ProcessedAt)

	sent, err := db.CountSentSince(ctx, t0)
	require.NoError(t, err)
	require.Equal(t, 1, sent)
	sent, err = db.CountSentSince(ctx, t0.Add(2*time.Minute))
	require.NoError(t, err)
	require.Equal(t, 0, sent)

	entries, err := db.Log(ctx, id)
	require.NoError(t, err)
	require.Len(t, entries, 5)
}

func TestClaim_ReturnsClaimedRow(t *testing.T) {
	db := setup(t)
	ctx := context.Background()

	e := record("to@example.com", t0)
	require.NoError(t, db.Enqueue(ctx, e))

	selected, err := db.Get(ctx, e.ID.String())
	require.NoError(t, err)

	claimed, err := db.Claim(ctx, selected, t0.Add(time.Minute))
	require.NoError(t, err)
	require.Equal(t, brevq.StatusProcessing, claimed.Status)
	require.NotNil(t, claimed.ClaimedAt)
	require.True(t, claimed.UpdatedAt.Equal(t0.Add(time.Minute)))
	require.Equal(t, selected.Subject, claimed.Subject)
}

func TestClaim_StaleSelection(t *testing.T) {
	db := setup(t)
	ctx := context.Background()

	t.Run("edited", func(t *testing.T) {
		e := record("edited@example.com", t0)
		require.NoError(t, db.Enqueue(ctx, e))
		selected, err := db.Get(ctx, e.ID.String())
		require.NoError(t, err)

		subject := "EDITED"
		_, err = db.Update(ctx, e.ID.String(), Patch{Subject: &subject}, t0.Add(time.Second))
		require.NoError(t, err)

		_, err = db.Claim(ctx, selected, t0.Add(time.Minute))
		require.ErrorIs(t, err, brevq.ErrConflict)

		stored, err := db.Get(ctx, e.ID.String())
		require.NoError(t, err)
		require.Equal(t, brevq.StatusPending, stored.Status)
	})

	t.Run("attempted", func(t *testing.T) {
		e := record("attempted@example.com", t0)
		require.NoError(t, db.Enqueue(ctx, e))
		selected, err := db.Get(ctx, e.ID.String())
		require.NoError(t, err)

		require.NoError(t, claim(ctx, db, e.ID.String(), t0))
		require.NoError(t, db.Release(ctx, e.ID.String(), brevq.StatusPending, 1, "boom", t0))

		_, err = db.Claim(ctx, selected, t0)
		require.ErrorIs(t, err, brevq.ErrConflict)
	})

	t.Run("cancelled", func(t *testing.T) {
		e := record("cancelled@example.com", t0)
		require.NoError(t, db.Enqueue(ctx, e))
		selected, err := db.Get(ctx, e.ID.String())
		require.NoError(t, err)

		require.NoError(t, db.Cancel(ctx, e.ID.String(), t0))

		_, err = db.Claim(ctx, selected, t0)
		require.ErrorIs(t, err, brevq.ErrConflict)
	})
}

func TestRelease_AttemptsCanNotExceedMax(t *testing.T) {
	db := setup(t)
	ctx := context.Background()

	e := record("to@example.com", t0)
	require.NoError(t, db.Enqueue(ctx, e))
	id := e.ID.String()

	require.NoError(t, claim(ctx, db, id, t0))
	require.Error(t, db.Release(ctx, id, brevq.StatusFailed, 4, "boom", t0))
	require.NoError(t, db.Release(ctx, id, brevq.StatusFailed, 3, "boom", t0))
}

func TestReleaseStale(t *testing.T) {
	db := setup(t)
	ctx := context.Background()

	stale := record("stale@example.com", t0)
	fresh := record("fresh@example.com", t0)
	require.NoError(t, db.Enqueue(ctx, stale))
	require.NoError(t, db.Enqueue(ctx, fresh))

	require.NoError(t, claim(ctx, db, stale.ID.String(), t0))
	require.NoError(t, claim(ctx, db, fresh.ID.String(), t0.Add(9*time.Minute)))

	ids, err := db.ReleaseStale(ctx, t0.Add(5*time.Minute), t0.Add(10*time.Minute))
	require.NoError(t, err)
	require.Equal(t, []string{stale.ID.String()}, ids)

	got, err := db.Get(ctx, stale.ID.String())
	require.NoError(t, err)
	require.Equal(t, brevq.StatusPending, got.Status)
	require.Equal(t, 0, got.Attempts)

	got, err = db.Get(ctx, fresh.ID.String())
	require.NoError(t, err)
	require.Equal(t, brevq.StatusProcessing, got.Status)
}

func TestCancel(t *testing.T) {
	db := setup(t)
	ctx := context.Background()

	e := record("to@example.com", t0)
	require.NoError(t, db.Enqueue(ctx, e))

	require.NoError(t, db.Cancel(ctx, e.ID.String(), t0))
	_, err := db.Get(ctx, e.ID.String())
	require.ErrorIs(t, err, brevq.ErrNotFound)
	require.ErrorIs(t, db.Cancel(ctx, e.ID.String(), t0), brevq.ErrNotFound)
}

func TestListPagination(t *testing.T) {
	db := setup(t)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		require.NoError(t, db.Enqueue(ctx, record(fmt.Sprintf("u%d@example.com", i), t0.Add(time.Duration(i)*time.Second))))
	}

	page, total, err := db.List(ctx, 2, 3)
	require.NoError(t, err)
	require.Equal(t, 7, total)
	require.Len(t, page, 3)
	require.Equal(t, "u3@example.com", page[0].To)

	page, _, err = db.List(ctx, 3, 3)
	require.NoError(t, err)
	require.Len(t, page, 1)

	queued, err := db.CountQueued(ctx)
	require.NoError(t, err)
	require.Equal(t, 7, queued)
}

func TestSettings(t *testing.T) {
	db := setup(t)
	ctx := context.Background()

	s, err := db.GetSettings(ctx)
	require.NoError(t, err)
	require.Equal(t, 100, s.DailyLimit)
	require.Equal(t, "*/5 * * * *", s.CronSchedule)
	require.True(t, s.Enabled)

	limit := 5
	enabled := false
	s, err = db.UpdateSettings(ctx, brevq.SettingsUpdate{DailyLimit: &limit, Enabled: &enabled}, t0)
	require.NoError(t, err)
	require.Equal(t, 5, s.DailyLimit)

	s, err = db.GetSettings(ctx)
	require.NoError(t, err)
	require.Equal(t, 5, s.DailyLimit)
	require.False(t, s.Enabled)
	require.Equal(t, "*/5 * * * *", s.CronSchedule)
}
