package dht11

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"periph.io/x/conn/v3/physic"
)

// Options configures a Sensor. Zero fields take defaults.
type Options struct {
	Name   string
	Timing Timing
	Clock  Clock
	Logger *slog.Logger
	// Critical, when set, runs each transaction. It is where callers lock the
	// OS thread or pause the garbage collector. It wraps the whole
	// transaction, so the 30ms host reset hold also runs inside it: the thread
	// stays locked and GC stays paused across that sleep.
	Critical func(fn func())
	// Now stamps published snapshots.
	Now func() time.Time
}

// Stats counts transaction outcomes since the sensor was created.
type Stats struct {
	Successes        uint64
	ResponseTimeouts uint64
	ChecksumFailures uint64
	LineErrors       uint64
	Aborted          uint64
}

// Sensor runs transactions on one line and keeps the last good reading.
type Sensor struct {
	name     string
	line     Line
	clock    Clock
	timing   Timing
	logger   *slog.Logger
	critical func(fn func())
	now      func() time.Time

	mu    sync.Mutex // held for a whole transaction
	store Store

	successes, timeouts, checksums, lineErrs, aborted atomic.Uint64
}

// New prepares the line (output, idle high) and returns a Sensor.
func New(line Line, opts Options) (*Sensor, error) {
	if line == nil {
		return nil, errors.New("dht11: line is nil")
	}
	var zero Timing
	if opts.Timing == zero {
		opts.Timing = DefaultTiming()
	}
	if err := opts.Timing.Validate(); err != nil {
		return nil, fmt.Errorf("dht11: %w", err)
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Name == "" {
		opts.Name = "dht11"
	}

	if err := line.SetDirection(Output); err != nil {
		return nil, fmt.Errorf("dht11: set line output: %w", err)
	}
	if err := line.SetLevel(High); err != nil {
		return nil, fmt.Errorf("dht11: drive line high: %w", err)
	}

	return &Sensor{
		name:     opts.Name,
		line:     line,
		clock:    opts.Clock,
		timing:   opts.Timing,
		logger:   opts.Logger.With("sensor", opts.Name),
		critical: opts.Critical,
		now:      opts.Now,
	}, nil
}

// Read runs one transaction. On success the new reading is published before
// Read returns. It returns ErrBusy without touching the line if another
// transaction is in flight.
func (s *Sensor) Read(ctx context.Context) (Reading, error) {
	if !s.mu.TryLock() {
		return Reading{}, ErrBusy
	}
	defer s.mu.Unlock()

	s.logger.Debug("dht11: reading sensor data")
	var published Snapshot
	tx := newTransaction(s.line, s.clock, s.timing, func(r Reading) {
		published = s.store.Publish(r, s.now())
	})
	run := func() { tx.run(ctx) }
	if s.critical != nil {
		s.critical(run)
	} else {
		run()
	}

	s.logger.Debug("dht11: transaction finished", "path", tx.path, "frame", tx.frame.String())
	if tx.state == StateSuccess {
		s.successes.Add(1)
		s.logger.Debug("dht11: read ok",
			"temperature_c", published.Reading.Temperature,
			"humidity_pct", published.Reading.Humidity,
			"seq", published.Seq,
		)
		return published.Reading, nil
	}

	s.count(tx.err)
	s.logger.Warn("dht11: read failed", "state", tx.path[len(tx.path)-2].String(), "error", tx.err)
	return Reading{}, tx.err
}

func (s *Sensor) count(err error) {
	switch {
	case errors.Is(err, ErrResponseTimeout):
		s.timeouts.Add(1)
	case errors.Is(err, ErrChecksumMismatch):
		s.checksums.Add(1)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		s.aborted.Add(1)
	default:
		s.lineErrs.Add(1)
	}
}

// Reading returns the last validated reading, or the zero Reading if no
// transaction has succeeded yet. It never blocks.
func (s *Sensor) Reading() Reading {
	return s.store.Load().Reading
}

// Snapshot returns the last validated reading with its time and sequence.
func (s *Sensor) Snapshot() Snapshot {
	return s.store.Load()
}

// Stats returns the outcome counters.
func (s *Sensor) Stats() Stats {
	return Stats{
		Successes:        s.successes.Load(),
		ResponseTimeouts: s.timeouts.Load(),
		ChecksumFailures: s.checksums.Load(),
		LineErrors:       s.lineErrs.Load(),
		Aborted:          s.aborted.Load(),
	}
}

// Sense fills env with the last validated reading. Pressure is not measured.
func (s *Sensor) Sense(env *physic.Env) error {
	r := s.Reading()
	env.Temperature = physic.ZeroCelsius + physic.Temperature(math.Round(r.Temperature*float64(physic.Kelvin)))
	env.Humidity = physic.RelativeHumidity(math.Round(r.Humidity * float64(physic.PercentRH)))
	env.Pressure = 0
	return nil
}

// Precision reports the resolution of the decimal bytes.
func (s *Sensor) Precision(env *physic.Env) {
	env.Temperature = 100 * physic.MilliKelvin
	env.Humidity = physic.PercentRH / 10
	env.Pressure = 0
}

// Halt waits for any transaction in flight and leaves the line driven high.
func (s *Sensor) Halt() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.line.SetDirection(Output); err != nil {
		return fmt.Errorf("dht11: set line output: %w", err)
	}
	return s.line.SetLevel(High)
}

func (s *Sensor) String() string {
	return s.name
}
