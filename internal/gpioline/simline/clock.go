// Package simline simulates a DHT11 on a virtual-time GPIO line. Delays
// advance the virtual clock instantly, so whole transactions run in
// microseconds of real time and are fully deterministic.
package simline

import (
	"context"
	"time"
)

// Clock is a virtual clock implementing dht11.Clock. It is not safe for
// concurrent use; one transaction owns it at a time.
type Clock struct {
	now time.Duration
}

// Now returns the virtual time since the clock was created.
func (c *Clock) Now() time.Duration { return c.now }

// DelayMicros advances the clock by n microseconds.
func (c *Clock) DelayMicros(n int) {
	if n > 0 {
		c.now += time.Duration(n) * time.Microsecond
	}
}

// Sleep advances the clock by d unless ctx is already done.
func (c *Clock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d > 0 {
		c.now += d
	}
	return nil
}
