package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

type metricsServer struct {
	srv *http.Server
	l   *zap.Logger
}

func newMetricsServer(addr string, gatherer prometheus.Gatherer, l *zap.Logger) *metricsServer {
	return &metricsServer{
		srv: &http.Server{
			Addr:              addr,
			Handler:           newMetricsHandler(gatherer, l),
			ReadHeaderTimeout: 10 * time.Second,
		},
		l: l,
	}
}

func newMetricsHandler(gatherer prometheus.Gatherer, l *zap.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	ok := func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	}
	mux.HandleFunc("/healthz", ok)
	mux.HandleFunc("/readyz", ok)
	return accessLog(mux, l)
}

func accessLog(next http.Handler, l *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		l.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", m.Code),
			zap.Int64("written", m.Written),
			zap.Duration("elapsed", m.Duration),
		)
	})
}

func (s *metricsServer) serve() {
	s.l.Info("serving metrics", zap.String("addr", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.l.Error("metrics server stopped", zap.Error(err))
	}
}

func (s *metricsServer) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	_ = s.srv.Shutdown(ctx)
}
