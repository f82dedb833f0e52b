package simline

import (
	"math"
	"math/rand/v2"
	"time"

	"cloudpico-dht11/internal/dht11"
)

// Datasheet pulse widths in microseconds.
const (
	AckLowMicros   = 80
	AckHighMicros  = 80
	BitLowMicros   = 50
	ZeroHighMicros = 26
	OneHighMicros  = 70

	// minResetHold is the shortest low the sensor treats as a start signal.
	minResetHold = 18 * time.Millisecond
)

// Source yields the next frame to transmit. ok=false means the sensor stays
// silent, as a disconnected one would.
type Source func() (frame dht11.Frame, ok bool)

// Waveform is what a sensor drives after the host releases the line:
// acknowledgement, 40 bits MSB first, then a trailing low.
func Waveform(f dht11.Frame) []Segment {
	segs := make([]Segment, 0, 2+2*8*dht11.FrameLen+1)
	segs = append(segs, Low(AckLowMicros), High(AckHighMicros))
	for _, b := range f {
		for i := 7; i >= 0; i-- {
			high := ZeroHighMicros
			if b>>i&1 == 1 {
				high = OneHighMicros
			}
			segs = append(segs, Low(BitLowMicros), High(high))
		}
	}
	return append(segs, Low(BitLowMicros))
}

// Device models a DHT11 on a Wire. It answers a host reset of at least 18ms
// by playing the next frame from its Source.
type Device struct {
	*Wire
	src Source

	lowAt time.Duration
	armed bool
	// Transactions counts the resets the device answered.
	Transactions int
}

func NewDevice(clock *Clock, src Source) *Device {
	return &Device{Wire: NewWire(clock), src: src}
}

func (d *Device) SetLevel(l dht11.Level) error {
	if err := d.Wire.SetLevel(l); err != nil {
		return err
	}
	if d.dir != dht11.Output {
		return nil
	}
	if l == dht11.Low {
		d.lowAt = d.clock.Now()
		d.armed = false
		return nil
	}
	d.armed = d.clock.Now()-d.lowAt >= minResetHold
	return nil
}

func (d *Device) SetDirection(dir dht11.Direction) error {
	if err := d.Wire.SetDirection(dir); err != nil {
		return err
	}
	if dir != dht11.Input || !d.armed {
		return nil
	}
	d.armed = false
	f, ok := d.src()
	if !ok {
		return nil
	}
	d.Transactions++
	d.Play(Waveform(f)...)
	return nil
}

// Encode builds a frame with a valid checksum from a reading. Values are
// clamped to what one byte of integer and one decimal digit can carry.
func Encode(r dht11.Reading) dht11.Frame {
	hi, hd := split(r.Humidity)
	ti, td := split(r.Temperature)
	f := dht11.Frame{hi, hd, ti, td}
	f[4] = f.Sum()
	return f
}

func split(v float64) (byte, byte) {
	tenths := math.Round(math.Max(0, math.Min(v, 255.9)) * 10)
	return byte(int(tenths) / 10), byte(int(tenths) % 10)
}

// Queue replays frames in order, then goes silent.
func Queue(frames ...dht11.Frame) Source {
	return func() (dht11.Frame, bool) {
		if len(frames) == 0 {
			return dht11.Frame{}, false
		}
		f := frames[0]
		frames = frames[1:]
		return f, true
	}
}

// Drift produces a slowly wandering indoor climate. One frame in corruptEvery
// has its checksum broken and one in silentEvery gets no answer; zero
// disables either fault.
func Drift(seed uint64, corruptEvery, silentEvery int) Source {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	r := dht11.Reading{Temperature: 22, Humidity: 45}
	return func() (dht11.Frame, bool) {
		if silentEvery > 0 && rng.IntN(silentEvery) == 0 {
			return dht11.Frame{}, false
		}
		r.Temperature = math.Max(0, math.Min(50, r.Temperature+rng.NormFloat64()*0.2))
		r.Humidity = math.Max(20, math.Min(90, r.Humidity+rng.NormFloat64()*0.5))
		f := Encode(r)
		if corruptEvery > 0 && rng.IntN(corruptEvery) == 0 {
			f[4]++
		}
		return f, true
	}
}
