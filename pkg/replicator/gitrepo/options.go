package gitrepo

import (
	"time"

	"github.com/go-git/go-billy/v5"
	"go.uber.org/zap"
)

// Option for the git publisher
type Option func(*Publisher)

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(p *Publisher) {
		if l != nil {
			p.l = l
		}
	}
}

// WithFilesystem hosts the working copy on a given file system (e.g. in memory)
// instead of the configured directory.
func WithFilesystem(fs billy.Filesystem) Option {
	return func(p *Publisher) {
		if fs != nil {
			p.fs = fs
		}
	}
}

// WithClock sets the time source for commit signatures
func WithClock(now func() time.Time) Option {
	return func(p *Publisher) {
		if now != nil {
			p.now = now
		}
	}
}
