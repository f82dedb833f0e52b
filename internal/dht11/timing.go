package dht11

import (
	"fmt"
	"time"
)

// Timing holds every timing constant of a transaction. Poll counts are
// iteration caps: a loop gives up after that many polls of its tick, which
// bounds worst-case latency without a hardware timer.
type Timing struct {
	// HostResetHold is how long the host holds the line low. It yields.
	HostResetHold time.Duration
	// ReleasePulseMicros is the high pulse driven before switching to input.
	ReleasePulseMicros int

	// ResponseTickMicros and ResponseBudget bound the acknowledgement wait
	// (low then high), shared across both edges.
	ResponseTickMicros int
	ResponseBudget     int

	// DataStartBudget bounds the wait for the first data bit, in response ticks.
	DataStartBudget int

	// BitTickMicros is the polling granularity while sampling a bit.
	// BitCap bounds the polls per bit across its low and high phases.
	BitTickMicros int
	BitCap        int
	// BitThreshold classifies a bit: more high polls than this is a 1.
	BitThreshold int
}

// DefaultTiming returns the timing that matches the DHT11 datasheet when
// polled at 10µs: a 0 bit stays high 26-28µs (3 polls), a 1 bit 70µs (7 polls).
func DefaultTiming() Timing {
	return Timing{
		HostResetHold:      30 * time.Millisecond,
		ReleasePulseMicros: 40,
		ResponseTickMicros: 1,
		ResponseBudget:     200,
		DataStartBudget:    200,
		BitTickMicros:      10,
		BitCap:             1000,
		BitThreshold:       3,
	}
}

// Validate reports the first inconsistent field.
func (t Timing) Validate() error {
	switch {
	case t.HostResetHold < 18*time.Millisecond:
		return fmt.Errorf("host reset hold %v is below the 18ms the sensor needs", t.HostResetHold)
	case t.ReleasePulseMicros < 0:
		return fmt.Errorf("release pulse must not be negative, got %d", t.ReleasePulseMicros)
	case t.ResponseTickMicros <= 0 || t.ResponseBudget <= 0:
		return fmt.Errorf("response tick and budget must be positive, got %dµs x %d", t.ResponseTickMicros, t.ResponseBudget)
	case t.DataStartBudget < 0:
		return fmt.Errorf("data start budget must not be negative, got %d", t.DataStartBudget)
	case t.BitTickMicros <= 0 || t.BitCap <= 0:
		return fmt.Errorf("bit tick and cap must be positive, got %dµs x %d", t.BitTickMicros, t.BitCap)
	case t.BitThreshold < 0 || t.BitThreshold >= t.BitCap:
		return fmt.Errorf("bit threshold %d out of range [0, %d)", t.BitThreshold, t.BitCap)
	}
	return nil
}
