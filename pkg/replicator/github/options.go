package github

import (
	"net/http"

	"go.uber.org/zap"
)

// Option for the GitHub publisher
type Option func(*Publisher)

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(p *Publisher) {
		if l != nil {
			p.l = l
		}
	}
}

// WithHTTPClient sets the base HTTP client. The token is added on top of its transport.
func WithHTTPClient(client *http.Client) Option {
	return func(p *Publisher) {
		if client != nil {
			p.base = client
		}
	}
}
