package nifi

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Option for the NiFi client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.base = client
			c.client = client
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.l = l
		}
	}
}

// WithPollInterval sets the delay between two checks of a version update request
func WithPollInterval(interval time.Duration) Option {
	return func(c *Client) {
		if interval > 0 {
			c.pollInterval = interval
		}
	}
}

// WithUpdateTimeout bounds the wait for a version update request to complete
func WithUpdateTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.updateTimeout = timeout
		}
	}
}
