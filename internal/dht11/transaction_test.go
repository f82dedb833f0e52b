package dht11_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"cloudpico-dht11/internal/dht11"
	"cloudpico-dht11/internal/gpioline/simline"
)

var successPath = []dht11.State{
	dht11.StateIdle,
	dht11.StateHostReset,
	dht11.StateLineRelease,
	dht11.StateAwaitResponse,
	dht11.StateReadBytes,
	dht11.StateValidate,
	dht11.StateSuccess,
}

func runFrames(t *testing.T, frames ...dht11.Frame) (dht11.Transaction, []dht11.Reading) {
	t.Helper()
	clk := &simline.Clock{}
	dev := simline.NewDevice(clk, simline.Queue(frames...))
	var published []dht11.Reading
	tx := dht11.RunTransaction(context.Background(), dev, clk, dht11.DefaultTiming(), func(r dht11.Reading) {
		published = append(published, r)
	})
	return tx, published
}

func TestTransaction_ValidFrame(t *testing.T) {
	tx, published := runFrames(t, dht11.Frame{45, 0, 23, 5, 73})

	require.NoError(t, tx.Err)
	require.Equal(t, successPath, tx.Path)
	require.Equal(t, dht11.Frame{45, 0, 23, 5, 73}, tx.Frame)
	require.Equal(t, []dht11.Reading{{Temperature: 23.5, Humidity: 45.0}}, published)
}

func TestTransaction_DecodesValidFrames(t *testing.T) {
	tests := []struct {
		name  string
		frame dht11.Frame
		want  dht11.Reading
	}{
		{name: "all zero", frame: dht11.Frame{0, 0, 0, 0, 0}, want: dht11.Reading{}},
		{name: "decimals", frame: dht11.Frame{61, 3, 19, 9, 92}, want: dht11.Reading{Temperature: 19.9, Humidity: 61.3}},
		{name: "checksum wraps", frame: dht11.Frame{200, 9, 100, 9, 62}, want: dht11.Reading{Temperature: 100.9, Humidity: 200.9}},
		{name: "all ones", frame: dht11.Frame{255, 255, 255, 255, 252}, want: dht11.Reading{Temperature: 280.5, Humidity: 280.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.True(t, tt.frame.Valid())
			tx, published := runFrames(t, tt.frame)
			require.NoError(t, tx.Err)
			require.Len(t, published, 1)
			require.InDelta(t, tt.want.Temperature, published[0].Temperature, 1e-9)
			require.InDelta(t, tt.want.Humidity, published[0].Humidity, 1e-9)
		})
	}
}

func TestTransaction_ChecksumMismatch(t *testing.T) {
	tx, published := runFrames(t, dht11.Frame{45, 0, 23, 5, 74})

	require.ErrorIs(t, tx.Err, dht11.ErrChecksumMismatch)
	var ce *dht11.ChecksumError
	require.True(t, errors.As(tx.Err, &ce))
	require.Equal(t, dht11.Frame{45, 0, 23, 5, 74}, ce.Frame)
	require.Equal(t, dht11.StateValidate, tx.Path[len(tx.Path)-2])
	require.Equal(t, dht11.StateFail, tx.Path[len(tx.Path)-1])
	require.Empty(t, published)
}

func TestTransaction_NoResponse(t *testing.T) {
	clk := &simline.Clock{}
	dev := simline.NewDevice(clk, simline.Queue())
	timing := dht11.DefaultTiming()

	tx := dht11.RunTransaction(context.Background(), dev, clk, timing, func(dht11.Reading) {
		t.Fatal("published without a response")
	})

	require.ErrorIs(t, tx.Err, dht11.ErrResponseTimeout)
	require.Equal(t, []dht11.State{
		dht11.StateIdle,
		dht11.StateHostReset,
		dht11.StateLineRelease,
		dht11.StateAwaitResponse,
		dht11.StateFail,
	}, tx.Path)

	released := dev.Edges[len(dev.Edges)-1]
	require.Equal(t, dht11.Input, released.Direction)
	budget := time.Duration(timing.ResponseBudget*timing.ResponseTickMicros) * time.Microsecond
	require.LessOrEqual(t, clk.Now()-released.At, budget)
}

func TestAwaitResponse(t *testing.T) {
	tests := []struct {
		name string
		wave []simline.Segment
		want dht11.State
	}{
		{name: "datasheet acknowledgement", wave: []simline.Segment{simline.Low(80), simline.High(80), simline.Low(50)}, want: dht11.StateReadBytes},
		{name: "just within budget", wave: []simline.Segment{simline.Low(100), simline.High(99), simline.Low(50)}, want: dht11.StateReadBytes},
		{name: "exhausts budget", wave: []simline.Segment{simline.Low(100), simline.High(100), simline.Low(50)}, want: dht11.StateFail},
		{name: "high too long", wave: []simline.Segment{simline.Low(80), simline.High(150), simline.Low(50)}, want: dht11.StateFail},
		{name: "never pulls low", wave: nil, want: dht11.StateFail},
		{name: "stuck low", wave: []simline.Segment{simline.Low(10000)}, want: dht11.StateFail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, clk := newWire()
			w.Play(tt.wave...)
			got, err := dht11.StepFrom(context.Background(), w, clk, dht11.DefaultTiming(), dht11.StateAwaitResponse)
			require.Equal(t, tt.want, got)
			if tt.want == dht11.StateFail {
				require.ErrorIs(t, err, dht11.ErrResponseTimeout)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestHostReset(t *testing.T) {
	w, clk := newWire()
	timing := dht11.DefaultTiming()

	next, err := dht11.StepFrom(context.Background(), w, clk, timing, dht11.StateHostReset)
	require.NoError(t, err)
	require.Equal(t, dht11.StateLineRelease, next)

	require.Equal(t, []simline.Edge{
		{At: 0, Direction: dht11.Output, Level: dht11.High},
		{At: 0, Direction: dht11.Output, Level: dht11.Low},
		{At: timing.HostResetHold, Direction: dht11.Output, Level: dht11.High},
	}, w.Edges)
	require.Equal(t, timing.HostResetHold+40*time.Microsecond, clk.Now())

	next, err = dht11.StepFrom(context.Background(), w, clk, timing, dht11.StateLineRelease)
	require.NoError(t, err)
	require.Equal(t, dht11.StateAwaitResponse, next)
	require.Equal(t, dht11.Input, w.Edges[len(w.Edges)-1].Direction)
}

func TestTransaction_LineError(t *testing.T) {
	w, clk := newWire()
	w.FailDirection = true

	tx := dht11.RunTransaction(context.Background(), w, clk, dht11.DefaultTiming(), nil)
	require.ErrorIs(t, tx.Err, simline.ErrInjected)
	require.Equal(t, []dht11.State{dht11.StateIdle, dht11.StateHostReset, dht11.StateFail}, tx.Path)
}

func TestTransaction_CancelledDuringReset(t *testing.T) {
	clk := &simline.Clock{}
	dev := simline.NewDevice(clk, simline.Queue(dht11.Frame{45, 0, 23, 5, 73}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tx := dht11.RunTransaction(ctx, dev, clk, dht11.DefaultTiming(), nil)
	require.ErrorIs(t, tx.Err, context.Canceled)
	require.Equal(t, dht11.High, dev.Level(), "line must be left idle")
	require.Zero(t, dev.Transactions)
}

func TestState(t *testing.T) {
	for _, s := range successPath[:len(successPath)-1] {
		require.False(t, s.Terminal(), s.String())
	}
	require.True(t, dht11.StateSuccess.Terminal())
	require.True(t, dht11.StateFail.Terminal())
	require.Equal(t, "await_response", dht11.StateAwaitResponse.String())
	require.Equal(t, "state(42)", dht11.State(42).String())
}

// ackThenStuckLow acknowledges a host reset and then holds the line low.
type ackThenStuckLow struct {
	*simline.Wire
}

func (l ackThenStuckLow) SetDirection(d dht11.Direction) error {
	if err := l.Wire.SetDirection(d); err != nil {
		return err
	}
	if d == dht11.Input {
		l.SetIdle(dht11.Low)
		l.Play(simline.Low(simline.AckLowMicros), simline.High(simline.AckHighMicros))
	}
	return nil
}

func TestTransaction_StuckLowAfterAckDecodesZero(t *testing.T) {
	w, clk := newWire()
	w.Play(simline.Low(simline.AckLowMicros), simline.High(simline.AckHighMicros))
	w.SetIdle(dht11.Low)

	next, err := dht11.StepFrom(context.Background(), w, clk, dht11.DefaultTiming(), dht11.StateAwaitResponse)
	require.NoError(t, err)
	require.Equal(t, dht11.StateReadBytes, next)

	next, err = dht11.StepFrom(context.Background(), w, clk, dht11.DefaultTiming(), dht11.StateReadBytes)
	require.NoError(t, err)
	require.Equal(t, dht11.StateValidate, next)

	// The all-zero frame has a valid checksum, so a whole transaction
	// succeeds and publishes a zero reading.
	line, clk := newWire()
	var published []dht11.Reading
	tx := dht11.RunTransaction(context.Background(), ackThenStuckLow{line}, clk, dht11.DefaultTiming(), func(r dht11.Reading) {
		published = append(published, r)
	})
	require.NoError(t, tx.Err)
	require.Equal(t, successPath, tx.Path)
	require.Equal(t, dht11.Frame{}, tx.Frame)
	require.True(t, tx.Frame.Valid())
	require.Equal(t, []dht11.Reading{{}}, published)
}
