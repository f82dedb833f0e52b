// Package periphline drives a sensor line through periph.io.
package periphline

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"cloudpico-dht11/internal/dht11"
)

// Line adapts a periph gpio.PinIO to dht11.Line. The input side relies on the
// internal pull-up to idle high.
type Line struct {
	pin gpio.PinIO
	out gpio.Level
}

// Open initialises the periph host drivers and looks the pin up by name,
// e.g. "GPIO18".
func Open(name string) (*Line, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("gpio pin %q not found", name)
	}
	return New(p), nil
}

func New(pin gpio.PinIO) *Line {
	return &Line{pin: pin, out: gpio.High}
}

func (l *Line) SetDirection(d dht11.Direction) error {
	if d == dht11.Output {
		return l.pin.Out(l.out)
	}
	return l.pin.In(gpio.PullUp, gpio.NoEdge)
}

func (l *Line) SetLevel(v dht11.Level) error {
	l.out = gpio.Level(v)
	return l.pin.Out(l.out)
}

func (l *Line) Level() dht11.Level {
	return dht11.Level(l.pin.Read())
}

func (l *Line) String() string {
	return l.pin.Name()
}
