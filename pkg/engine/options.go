package engine

import (
	"github.com/oneconcern/registrysync/pkg/metrics"
	"go.uber.org/zap"
)

// Option for the sync engine
type Option func(*Engine)

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.l = l
		}
	}
}

// WithMetrics records cycle metrics
func WithMetrics(m *metrics.Sync) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}
