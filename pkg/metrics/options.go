package metrics

import "github.com/prometheus/client_golang/prometheus"

// Option defines some options to the metrics initialization
type Option func(*options)

type options struct {
	registerer prometheus.Registerer
}

func defaultOptions(opts []Option) *options {
	o := &options{
		registerer: prometheus.DefaultRegisterer,
	}
	for _, apply := range opts {
		apply(o)
	}
	return o
}

// WithRegisterer registers collectors with a specific registry rather than the default one
func WithRegisterer(registerer prometheus.Registerer) Option {
	return func(o *options) {
		if registerer != nil {
			o.registerer = registerer
		}
	}
}
