package simline

import (
	"errors"
	"time"

	"cloudpico-dht11/internal/dht11"
)

// Segment is a level the device holds for a number of microseconds.
type Segment struct {
	Level  dht11.Level
	Micros int
}

// High and Low build segments.
func High(us int) Segment { return Segment{Level: dht11.High, Micros: us} }
func Low(us int) Segment  { return Segment{Level: dht11.Low, Micros: us} }

// Edge is one host action on the line.
type Edge struct {
	At        time.Duration
	Direction dht11.Direction
	Level     dht11.Level
}

// ErrInjected is returned by a Wire configured to fail.
var ErrInjected = errors.New("simline: injected gpio failure")

// Wire is a line whose device side plays a scripted waveform. When the host
// drives the line it reads back the host level; otherwise the waveform, and
// the idle level once the waveform has ended.
type Wire struct {
	clock *Clock
	dir   dht11.Direction
	host  dht11.Level
	idle  dht11.Level

	wave  []Segment
	start time.Duration

	// FailDirection makes SetDirection return ErrInjected.
	FailDirection bool
	// Edges records every host call, in order.
	Edges []Edge
}

// NewWire returns an input line pulled up to high.
func NewWire(clock *Clock) *Wire {
	return &Wire{clock: clock, dir: dht11.Input, host: dht11.High, idle: dht11.High}
}

// SetIdle sets the level read when neither side drives the line. A line
// shorted to ground idles low.
func (w *Wire) SetIdle(l dht11.Level) { w.idle = l }

// Play starts a waveform at the current virtual time.
func (w *Wire) Play(segs ...Segment) {
	w.wave = append(w.wave[:0], segs...)
	w.start = w.clock.Now()
}

func (w *Wire) SetDirection(d dht11.Direction) error {
	if w.FailDirection {
		return ErrInjected
	}
	w.dir = d
	w.Edges = append(w.Edges, Edge{At: w.clock.Now(), Direction: d, Level: w.host})
	return nil
}

func (w *Wire) SetLevel(l dht11.Level) error {
	w.host = l
	w.Edges = append(w.Edges, Edge{At: w.clock.Now(), Direction: w.dir, Level: l})
	return nil
}

func (w *Wire) Level() dht11.Level {
	if w.dir == dht11.Output {
		return w.host
	}
	at := w.clock.Now() - w.start
	for _, s := range w.wave {
		d := time.Duration(s.Micros) * time.Microsecond
		if at < d {
			return s.Level
		}
		at -= d
	}
	return w.idle
}
