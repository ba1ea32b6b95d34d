package replicator

import (
	"github.com/oneconcern/registrysync/pkg/metrics"
	"go.uber.org/zap"
)

// Option for the replicator
type Option func(*Replicator)

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(r *Replicator) {
		if l != nil {
			r.l = l
		}
	}
}

// WithMetrics records replication metrics
func WithMetrics(m *metrics.Sync) Option {
	return func(r *Replicator) {
		r.metrics = m
	}
}
