package dht11

import (
	"errors"
	"fmt"
)

var (
	// ErrResponseTimeout means the sensor never acknowledged the reset pulse.
	ErrResponseTimeout = errors.New("dht11: no response from sensor")
	// ErrChecksumMismatch means the frame failed its checksum. A stuck line
	// also ends up here, since the bit sampler cannot tell it apart.
	ErrChecksumMismatch = errors.New("dht11: checksum mismatch")
	// ErrBusy means another transaction owns the line.
	ErrBusy = errors.New("dht11: transaction in progress")
)

// ChecksumError carries the rejected frame.
type ChecksumError struct {
	Frame Frame
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("%v: frame %v, sum 0x%02X, checksum 0x%02X", ErrChecksumMismatch, e.Frame, e.Frame.Sum(), e.Frame[4])
}

func (e *ChecksumError) Unwrap() error { return ErrChecksumMismatch }
