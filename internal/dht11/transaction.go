package dht11

import (
	"context"
	"fmt"
)

// State is a phase of one transaction.
type State uint8

const (
	StateIdle State = iota
	StateHostReset
	StateLineRelease
	StateAwaitResponse
	StateReadBytes
	StateValidate
	StateSuccess
	StateFail
)

var stateNames = [...]string{
	StateIdle:          "idle",
	StateHostReset:     "host_reset",
	StateLineRelease:   "line_release",
	StateAwaitResponse: "await_response",
	StateReadBytes:     "read_bytes",
	StateValidate:      "validate",
	StateSuccess:       "success",
	StateFail:          "fail",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// Terminal reports whether the transaction has finished.
func (s State) Terminal() bool {
	return s == StateSuccess || s == StateFail
}

// transaction is a single exchange with the sensor. It is not reentrant: it
// drives the line from Idle to a terminal state without interruption.
type transaction struct {
	sampler
	publish func(Reading)

	state State
	frame Frame
	err   error
	path  []State
}

func newTransaction(line Line, clock Clock, timing Timing, publish func(Reading)) *transaction {
	return &transaction{
		sampler: sampler{line: line, clock: clock, timing: timing},
		publish: publish,
		state:   StateIdle,
		path:    make([]State, 0, 8),
	}
}

// run steps the machine until it reaches Success or Fail.
func (t *transaction) run(ctx context.Context) State {
	t.path = append(t.path, t.state)
	for !t.state.Terminal() {
		t.state = t.step(ctx)
		t.path = append(t.path, t.state)
	}
	return t.state
}

// step performs the work of the current state and returns the next one.
func (t *transaction) step(ctx context.Context) State {
	switch t.state {
	case StateIdle:
		return StateHostReset
	case StateHostReset:
		return t.hostReset(ctx)
	case StateLineRelease:
		return t.release()
	case StateAwaitResponse:
		return t.awaitResponse()
	case StateReadBytes:
		return t.readBytes()
	case StateValidate:
		return t.validate()
	default:
		return t.state
	}
}

func (t *transaction) fail(err error) State {
	t.err = err
	return StateFail
}

// hostReset pulls the line low long enough for the sensor to wake up, then
// drives a short high pulse.
func (t *transaction) hostReset(ctx context.Context) State {
	if err := t.line.SetDirection(Output); err != nil {
		return t.fail(fmt.Errorf("dht11: set line output: %w", err))
	}
	if err := t.line.SetLevel(Low); err != nil {
		return t.fail(fmt.Errorf("dht11: drive line low: %w", err))
	}
	if err := t.clock.Sleep(ctx, t.timing.HostResetHold); err != nil {
		_ = t.line.SetLevel(High)
		return t.fail(err)
	}
	if err := t.line.SetLevel(High); err != nil {
		return t.fail(fmt.Errorf("dht11: drive line high: %w", err))
	}
	t.clock.DelayMicros(t.timing.ReleasePulseMicros)
	return StateLineRelease
}

// release hands the line to the sensor.
func (t *transaction) release() State {
	if err := t.line.SetDirection(Input); err != nil {
		return t.fail(fmt.Errorf("dht11: set line input: %w", err))
	}
	return StateAwaitResponse
}

// awaitResponse waits for the acknowledgement: the sensor pulls low, then
// high, then low again. Both edges share ResponseBudget polls.
func (t *transaction) awaitResponse() State {
	left := t.timing.ResponseBudget
	tick := t.timing.ResponseTickMicros
	if !t.waitWhile(Low, tick, &left) || !t.waitWhile(High, tick, &left) {
		return t.fail(ErrResponseTimeout)
	}
	return StateReadBytes
}

// readBytes waits for the first data bit to start, then reads the frame.
func (t *transaction) readBytes() State {
	left := t.timing.DataStartBudget
	t.waitWhile(Low, t.timing.ResponseTickMicros, &left)
	for i := range t.frame {
		t.frame[i] = t.readByte()
	}
	return StateValidate
}

// validate checks the frame and, when it holds, publishes the reading.
func (t *transaction) validate() State {
	if !t.frame.Valid() {
		return t.fail(&ChecksumError{Frame: t.frame})
	}
	if t.publish != nil {
		t.publish(t.frame.Reading())
	}
	return StateSuccess
}
