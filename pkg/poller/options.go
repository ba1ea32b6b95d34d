package poller

import (
	"time"

	"github.com/oneconcern/registrysync/pkg/metrics"
	"go.uber.org/zap"
)

// Option for the poll loop
type Option func(*Poller)

// Trigger returns a channel firing once the interval has elapsed
type Trigger func(time.Duration) <-chan time.Time

// WithTrigger replaces the interval timer. Tests use it to drive cycles explicitly.
func WithTrigger(trigger Trigger) Option {
	return func(p *Poller) {
		if trigger != nil {
			p.trigger = trigger
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(p *Poller) {
		if l != nil {
			p.l = l
		}
	}
}

// WithMetrics counts recovered panics
func WithMetrics(m *metrics.Sync) Option {
	return func(p *Poller) {
		p.metrics = m
	}
}

// WithCycleTimeout puts a deadline on every cycle. Zero means no deadline.
func WithCycleTimeout(timeout time.Duration) Option {
	return func(p *Poller) {
		p.timeout = timeout
	}
}
