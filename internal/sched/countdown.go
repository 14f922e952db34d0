package sched

import (
	"sync"
	"time"
)

// Countdown drives the simulated van journey for active bookings: one timer
// for arrival after the offer's ETA, then a second for completion after a
// short dwell. The chain is keyed by booking ID and cancelling a booking
// tears down both timers, so a cancelled booking can never complete late.
type Countdown struct {
	mu            sync.Mutex
	chains        map[string]*chain
	minuteUnit    time.Duration // wall-clock length of one simulated ETA minute
	completeDelay time.Duration // dwell between arrival and completion
}

type chain struct {
	arrival    *time.Timer
	completion *time.Timer
}

func New(minuteUnit, completeDelay time.Duration) *Countdown {
	if minuteUnit <= 0 {
		minuteUnit = time.Second
	}
	if completeDelay <= 0 {
		completeDelay = 3 * time.Second
	}
	return &Countdown{
		chains:        make(map[string]*chain),
		minuteUnit:    minuteUnit,
		completeDelay: completeDelay,
	}
}

// Schedule starts the timer chain for a booking. A second schedule for the
// same booking replaces the first.
func (c *Countdown) Schedule(bookingID string, etaMinutes int, onArrive, onComplete func()) {
	if etaMinutes < 1 {
		etaMinutes = 1
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.chains[bookingID]; ok {
		old.stop()
	}
	ch := &chain{}
	c.chains[bookingID] = ch
	ch.arrival = time.AfterFunc(time.Duration(etaMinutes)*c.minuteUnit, func() {
		c.arrived(bookingID, onArrive, onComplete)
	})
}

func (c *Countdown) arrived(bookingID string, onArrive, onComplete func()) {
	c.mu.Lock()
	ch, ok := c.chains[bookingID]
	if !ok {
		// cancelled while the arrival callback was in flight
		c.mu.Unlock()
		return
	}
	ch.completion = time.AfterFunc(c.completeDelay, func() {
		if c.Cancel(bookingID) {
			onComplete()
		}
	})
	c.mu.Unlock()
	if onArrive != nil {
		onArrive()
	}
}

// Cancel stops any pending arrival/completion for the booking and reports
// whether a chain was still live.
func (c *Countdown) Cancel(bookingID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch, ok := c.chains[bookingID]
	if !ok {
		return false
	}
	ch.stop()
	delete(c.chains, bookingID)
	return true
}

// Active reports whether a timer chain is still pending for the booking.
func (c *Countdown) Active(bookingID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.chains[bookingID]
	return ok
}

func (ch *chain) stop() {
	if ch.arrival != nil {
		ch.arrival.Stop()
	}
	if ch.completion != nil {
		ch.completion.Stop()
	}
}
