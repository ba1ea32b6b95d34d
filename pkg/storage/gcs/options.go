package gcs

import (
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Option is a functor to pass optional parameters to the gcs store
type Option func(*gcs)

// Logger specifies a logger for this store
func Logger(logger *zap.Logger) Option {
	return func(g *gcs) {
		if logger != nil {
			g.l = logger
		}
	}
}

// CredentialsFile uses a service account key file instead of the application default credentials
func CredentialsFile(file string) Option {
	return func(g *gcs) {
		if file != "" {
			g.clientOpts = append(g.clientOpts, option.WithCredentialsFile(file))
		}
	}
}

// ClientOptions passes extra options to the google API client (e.g. endpoint, http client)
func ClientOptions(opts ...option.ClientOption) Option {
	return func(g *gcs) {
		g.clientOpts = append(g.clientOpts, opts...)
	}
}
