package dht11

import "context"

func SampleBit(line Line, clock Clock, t Timing) byte {
	s := sampler{line: line, clock: clock, timing: t}
	return s.sampleBit()
}

func HighPolls(line Line, clock Clock, t Timing) int {
	s := sampler{line: line, clock: clock, timing: t}
	return s.highPolls()
}

func ReadByte(line Line, clock Clock, t Timing) byte {
	s := sampler{line: line, clock: clock, timing: t}
	return s.readByte()
}

// Transaction exposes one run of the state machine.
type Transaction struct {
	Path  []State
	Frame Frame
	Err   error
}

func RunTransaction(ctx context.Context, line Line, clock Clock, t Timing, publish func(Reading)) Transaction {
	tx := newTransaction(line, clock, t, publish)
	tx.run(ctx)
	return Transaction{Path: tx.path, Frame: tx.frame, Err: tx.err}
}

// StepFrom runs the single transition out of state.
func StepFrom(ctx context.Context, line Line, clock Clock, t Timing, state State) (State, error) {
	tx := newTransaction(line, clock, t, nil)
	tx.state = state
	next := tx.step(ctx)
	return next, tx.err
}
