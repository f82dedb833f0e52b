package dht11

import (
	"context"
	"log/slog"
	"time"
)

const (
	// DefaultSuccessInterval is the steady-state polling period.
	DefaultSuccessInterval = 15 * time.Second
	// DefaultFailureInterval is the retry period after a failed transaction.
	DefaultFailureInterval = 3 * time.Second
)

// Reader runs one transaction.
type Reader interface {
	Read(ctx context.Context) (Reading, error)
}

// PollerOptions configures a Poller. Zero fields take defaults.
type PollerOptions struct {
	SuccessInterval time.Duration
	FailureInterval time.Duration
	Sleeper         Sleeper
	Logger          *slog.Logger
}

// Poller drives acquisition. After a success it waits SuccessInterval, after
// a failure the shorter FailureInterval. Consumers read the Sensor directly,
// so acquisition and consumption run at independent cadences.
type Poller struct {
	r       Reader
	success time.Duration
	failure time.Duration
	sleeper Sleeper
	logger  *slog.Logger
}

func NewPoller(r Reader, opts PollerOptions) *Poller {
	if opts.SuccessInterval <= 0 {
		opts.SuccessInterval = DefaultSuccessInterval
	}
	if opts.FailureInterval <= 0 {
		opts.FailureInterval = DefaultFailureInterval
	}
	if opts.Sleeper == nil {
		opts.Sleeper = SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Poller{
		r:       r,
		success: opts.SuccessInterval,
		failure: opts.FailureInterval,
		sleeper: opts.Sleeper,
		logger:  opts.Logger,
	}
}

// Run polls until ctx is done and returns ctx.Err(). A transaction in flight
// is never interrupted; cancellation takes effect between transactions and
// during the host reset hold.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("dht11 poller started", "success_interval", p.success, "failure_interval", p.failure)
	for {
		if err := ctx.Err(); err != nil {
			p.logger.Info("dht11 poller stopped")
			return err
		}
		next := p.Once(ctx)
		if err := p.sleeper.Sleep(ctx, next); err != nil {
			p.logger.Info("dht11 poller stopped")
			return err
		}
	}
}

// Once runs a single transaction and returns the delay before the next one.
func (p *Poller) Once(ctx context.Context) time.Duration {
	if _, err := p.r.Read(ctx); err != nil {
		p.logger.Debug("dht11: retrying soon", "after", p.failure, "error", err)
		return p.failure
	}
	p.logger.Debug("dht11: next read scheduled", "after", p.success)
	return p.success
}
