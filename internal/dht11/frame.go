package dht11

import "fmt"

// FrameLen is the number of bytes a sensor sends per transaction.
const FrameLen = 5

// Frame is one raw transmission: humidity integer and decimal, temperature
// integer and decimal, checksum.
type Frame [FrameLen]byte

// Sum is the 8-bit sum of the four data bytes.
func (f Frame) Sum() byte {
	return f[0] + f[1] + f[2] + f[3]
}

// Valid reports whether the checksum byte matches the data.
func (f Frame) Valid() bool {
	return f.Sum() == f[4]
}

// Reading decodes the data bytes. It does not check the checksum.
func (f Frame) Reading() Reading {
	return Reading{
		Temperature: float64(f[2]) + float64(f[3])/10,
		Humidity:    float64(f[0]) + float64(f[1])/10,
	}
}

func (f Frame) String() string {
	return fmt.Sprintf("% X", f[:])
}

// Reading is a validated measurement in °C and %RH.
type Reading struct {
	Temperature float64
	Humidity    float64
}

func (r Reading) String() string {
	return fmt.Sprintf("%.1f°C %.1f%%RH", r.Temperature, r.Humidity)
}
