package state

import (
	"github.com/oneconcern/registrysync/pkg/storage/gcs"
	"github.com/oneconcern/registrysync/pkg/storage/sthree"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Option for the state store
type Option func(*State)

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(s *State) {
		if l != nil {
			s.l = l
		}
	}
}

// WithFs sets the file system used for local locations. Defaults to the OS file system.
func WithFs(fs afero.Fs) Option {
	return func(s *State) {
		if fs != nil {
			s.fs = fs
		}
	}
}

// WithS3Options passes extra options to the S3 backend
func WithS3Options(opts ...sthree.Option) Option {
	return func(s *State) {
		s.s3Opts = append(s.s3Opts, opts...)
	}
}

// WithGCSOptions passes extra options to the GCS backend
func WithGCSOptions(opts ...gcs.Option) Option {
	return func(s *State) {
		s.gcsOpts = append(s.gcsOpts, opts...)
	}
}

// WithLatency records storage operation timings
func WithLatency(latency prometheus.ObserverVec) Option {
	return func(s *State) {
		s.latency = latency
	}
}
