package signals

import (
	"sync"
)

type Signal string

// UrgentEmailQueued is raised when a now priority email is submitted, so the
// scheduler does not wait for the next cron fire.
const UrgentEmailQueued Signal = "urgent-email-queued"

// SettingsChanged is raised when the settings row is updated.
const SettingsChanged Signal = "settings-changed"

var mu sync.RWMutex
var sigs = map[Signal][]chan struct{}{}

// Broadcast wakes every listener of channel that is not already signaled.
func Broadcast(channel Signal) {
	mu.RLock()
	defer mu.RUnlock()
	chans := sigs[channel]
	for _, c := range chans {
		select {
		case c <- struct{}{}:
		default:
		}
	}
}

// Listen registers a listener. Signals raised while the listener is busy are
// coalesced into one.
func Listen(channel Signal) (signal <-chan struct{}, cancel func()) {
	mu.Lock()
	defer mu.Unlock()
	c := make(chan struct{}, 1)

	sigs[channel] = append(sigs[channel], c)

	return c, func() {
		mu.Lock()
		defer mu.Unlock()

		var chans []chan struct{}
		for _, cc := range sigs[channel] {
			if cc == c {
				continue
			}
			chans = append(chans, cc)
		}
		sigs[channel] = chans
	}
}
