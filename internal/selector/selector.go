// Package selector picks which queued emails to dispatch on a tick.
package selector

import (
	"github.com/modfin/brevq"
	"slices"
	"time"
)

type Selection struct {
	// Selected is in dispatch order and never longer than the capacity.
	Selected []brevq.QueuedEmail
	// Held are due records rejected by their blacklist rules at now. They are
	// left untouched and reconsidered on the next tick.
	Held []brevq.QueuedEmail
	// Deferred are eligible records that did not fit in the capacity.
	Deferred int
}

// Select filters candidates to the ones eligible at now, orders them by
// priority and age, and takes up to capacity from the head. The candidates
// slice is not modified.
func Select(candidates []brevq.QueuedEmail, now time.Time, capacity int) Selection {
	var sel Selection

	var eligible []brevq.QueuedEmail
	for _, e := range candidates {
		if !e.Status.Queued() || !e.Due(now) {
			continue
		}
		if !e.BlacklistRules.Allowed(now) {
			sel.Held = append(sel.Held, e)
			continue
		}
		eligible = append(eligible, e)
	}

	Order(eligible)

	if capacity < 0 {
		capacity = 0
	}
	if len(eligible) > capacity {
		sel.Deferred = len(eligible) - capacity
		eligible = eligible[:capacity]
	}
	sel.Selected = eligible
	return sel
}

// Order stable sorts by priority, most urgent first, then oldest first.
func Order(emails []brevq.QueuedEmail) {
	slices.SortStableFunc(emails, func(a, b brevq.QueuedEmail) int {
		if a.Priority != b.Priority {
			if a.Priority.Before(b.Priority) {
				return -1
			}
			return 1
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
}
