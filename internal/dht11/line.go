// Package dht11 decodes the single-wire protocol of DHT11-class
// humidity/temperature sensors. The host bit-bangs one GPIO line and times the
// sensor's pulses with busy-wait polling.
package dht11

import (
	"context"
	"time"
)

// Level is the logic level of the data line.
type Level bool

const (
	Low  Level = false
	High Level = true
)

func (l Level) String() string {
	if l {
		return "high"
	}
	return "low"
}

// Direction selects who drives the line.
type Direction uint8

const (
	Input Direction = iota
	Output
)

func (d Direction) String() string {
	if d == Output {
		return "out"
	}
	return "in"
}

// Line is a half-duplex GPIO line. A direction change must take effect
// before the next SetLevel or Level call returns.
type Line interface {
	SetDirection(d Direction) error
	SetLevel(l Level) error
	Level() Level
}

// Sleeper suspends the calling goroutine and lets the scheduler run others.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// Clock provides the two delay primitives the protocol needs. DelayMicros
// busy-waits and never yields; Sleep yields and has millisecond granularity.
// Mixing them up breaks sub-millisecond timing.
type Clock interface {
	Sleeper
	DelayMicros(n int)
}

// SystemClock is the wall-clock implementation of Clock.
type SystemClock struct{}

// DelayMicros spins until n microseconds have elapsed.
func (SystemClock) DelayMicros(n int) {
	if n <= 0 {
		return
	}
	deadline := time.Now().Add(time.Duration(n) * time.Microsecond)
	for time.Now().Before(deadline) {
	}
}

// Sleep waits for d or until ctx is done.
func (SystemClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
