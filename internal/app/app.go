package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"cloudpico-dht11/internal/config"
	"cloudpico-dht11/internal/dht11"
	"cloudpico-dht11/internal/gpioline/periphline"
	"cloudpico-dht11/internal/gpioline/rpioline"
	"cloudpico-dht11/internal/gpioline/simline"
	"cloudpico-dht11/internal/rt"

	"periph.io/x/conn/v3/physic"
)

// backend is an opened sensor line and the clock that times it.
type backend struct {
	line  dht11.Line
	clock dht11.Clock
	close func() error
}

func openBackend(cfg config.Config) (backend, error) {
	switch cfg.Backend {
	case config.BackendPeriph:
		l, err := periphline.Open(cfg.Pin)
		if err != nil {
			return backend{}, err
		}
		return backend{line: l, clock: dht11.SystemClock{}, close: func() error { return nil }}, nil
	case config.BackendRPIO:
		bcm, err := cfg.BCM()
		if err != nil {
			return backend{}, err
		}
		l, err := rpioline.Open(bcm)
		if err != nil {
			return backend{}, err
		}
		return backend{line: l, clock: dht11.SystemClock{}, close: l.Close}, nil
	case config.BackendSim:
		clk := &simline.Clock{}
		dev := simline.NewDevice(clk, simline.Drift(uint64(time.Now().UnixNano()), 10, 20))
		return backend{line: dev, clock: clk, close: func() error { return nil }}, nil
	default:
		return backend{}, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

func Run(ctx context.Context, cfg config.Config) error {
	slog.Info("initializing sensor",
		"backend", cfg.Backend,
		"pin", cfg.Pin,
		"goos", runtime.GOOS,
		"goarch", runtime.GOARCH,
		"cpus", runtime.NumCPU(),
		"success_interval", cfg.SuccessInterval,
		"failure_interval", cfg.FailureInterval,
		"bit_threshold", cfg.BitThreshold,
		"bit_tick", cfg.BitTick,
	)

	b, err := openBackend(cfg)
	if err != nil {
		return fmt.Errorf("open %s line: %w", cfg.Backend, err)
	}
	defer func() {
		if err := b.close(); err != nil {
			slog.Error("line close", "error", err)
		}
	}()

	timing := dht11.DefaultTiming()
	timing.BitThreshold = cfg.BitThreshold
	timing.BitTickMicros = int(cfg.BitTick / time.Microsecond)

	section := rt.Section{CPU: cfg.CPU, PauseGC: cfg.PauseGC, Logger: slog.Default()}
	sensor, err := dht11.New(b.line, dht11.Options{
		Name:     cfg.DeviceStationID,
		Timing:   timing,
		Clock:    b.clock,
		Logger:   slog.Default(),
		Critical: section.Run,
	})
	if err != nil {
		return err
	}

	poller := dht11.NewPoller(sensor, dht11.PollerOptions{
		SuccessInterval: cfg.SuccessInterval,
		FailureInterval: cfg.FailureInterval,
		Logger:          slog.Default(),
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- poller.Run(ctx)
	}()

	report(ctx, sensor, cfg.ReportDelay, cfg.ReportInterval)

	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if err := sensor.Halt(); err != nil {
		slog.Warn("sensor halt", "error", err)
	}

	slog.Info("sensor shutting down", "stats", fmt.Sprintf("%+v", sensor.Stats()))
	return nil
}

// report logs the current reading every interval after an initial delay,
// independently of how often the poller acquires one.
func report(ctx context.Context, sensor *dht11.Sensor, delay, interval time.Duration) {
	clock := dht11.SystemClock{}
	if err := clock.Sleep(ctx, delay); err != nil {
		return
	}

	var precision physic.Env
	sensor.Precision(&precision)
	slog.Info("reporting started",
		"interval", interval,
		"temperature_resolution", precision.Temperature.String(),
		"humidity_resolution", precision.Humidity.String(),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		logReading(sensor)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func logReading(sensor *dht11.Sensor) {
	var env physic.Env
	if err := sensor.Sense(&env); err != nil {
		slog.Warn("sense failed", "error", err)
		return
	}
	snap := sensor.Snapshot()
	st := sensor.Stats()
	slog.Info("reading",
		"temperature_c", env.Temperature.Celsius(),
		"humidity_pct", float64(env.Humidity)/float64(physic.PercentRH),
		"valid", snap.Seq > 0,
		"seq", snap.Seq,
		"acquired_at", snap.At,
		"failures", st.ResponseTimeouts+st.ChecksumFailures+st.LineErrors,
	)
}
