package poller

import (
	"context"
	"fmt"
	"time"

	"github.com/oneconcern/registrysync/pkg/engine"
	"github.com/oneconcern/registrysync/pkg/metrics"
	"go.uber.org/zap"
)

// Cycler runs one synchronization cycle
type Cycler interface {
	Cycle(context.Context) (engine.Report, error)
}

// Poller runs cycles one after the other, waiting for the interval between two cycles
type Poller struct {
	cycler   Cycler
	interval time.Duration
	trigger  Trigger
	timeout  time.Duration
	metrics  *metrics.Sync
	l        *zap.Logger
}

// New poll loop
func New(cycler Cycler, interval time.Duration, opts ...Option) *Poller {
	p := &Poller{
		cycler:   cycler,
		interval: interval,
		trigger:  time.After,
		l:        zap.NewNop(),
	}
	for _, apply := range opts {
		apply(p)
	}
	return p
}

// Run the first cycle immediately, then one cycle per interval.
//
// Run returns nil when the context is cancelled. A cycle in flight is given the same context,
// so it stops at its next cancellation check.
func (p *Poller) Run(ctx context.Context) error {
	p.l.Info("poll loop started", zap.Duration("interval", p.interval))
	for {
		p.runOnce(ctx)

		select {
		case <-ctx.Done():
			p.l.Info("poll loop stopped")
			return nil
		case <-p.trigger(p.interval):
		}
	}
}

func (p *Poller) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			p.metrics.Failure(metrics.StagePanic)
			p.l.Error("recovered from panic in sync cycle",
				zap.String("panic", fmt.Sprintf("%v", r)),
				zap.Stack("stack"),
			)
		}
	}()

	cycleCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		cycleCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	report, err := p.cycler.Cycle(cycleCtx)
	if err != nil {
		p.l.Error("sync cycle failed", zap.String("cycle", report.ID), zap.Error(err))
		return
	}
	if failures := report.Err(); failures != nil {
		p.l.Warn("sync cycle completed with failures",
			zap.String("cycle", report.ID),
			zap.Int("failures", len(report.Failures)),
			zap.Duration("duration", report.Duration),
		)
	}
}
