// Package rpioline drives a sensor line through go-rpio's memory-mapped GPIO
// on a Raspberry Pi. Register access is much faster than sysfs, which helps
// with the 10µs polling the bit sampler does.
package rpioline

import (
	"fmt"

	rpio "github.com/stianeikeland/go-rpio/v4"

	"cloudpico-dht11/internal/dht11"
)

// Line is a BCM-numbered pin.
type Line struct {
	pin rpio.Pin
}

// Open maps the GPIO registers. Call Close when done.
func Open(bcm int) (*Line, error) {
	if bcm < 0 || bcm > 53 {
		return nil, fmt.Errorf("bcm pin %d out of range", bcm)
	}
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("rpio open: %w", err)
	}
	return &Line{pin: rpio.Pin(bcm)}, nil
}

func (l *Line) SetDirection(d dht11.Direction) error {
	if d == dht11.Output {
		l.pin.Output()
		return nil
	}
	l.pin.Input()
	l.pin.PullUp()
	return nil
}

func (l *Line) SetLevel(v dht11.Level) error {
	l.pin.Write(state(v))
	return nil
}

func (l *Line) Level() dht11.Level {
	return l.pin.Read() == rpio.High
}

// Close unmaps the GPIO registers.
func (l *Line) Close() error {
	return rpio.Close()
}

func (l *Line) String() string {
	return fmt.Sprintf("BCM%d", int(l.pin))
}

func state(v dht11.Level) rpio.State {
	if v == dht11.High {
		return rpio.High
	}
	return rpio.Low
}
