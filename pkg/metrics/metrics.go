// Package metrics declares the prometheus collectors exposed by registrysync
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace of all registrysync metrics
	Namespace = "registrysync"

	// Failure stages
	StageList    = "list"
	StageFetch   = "fetch"
	StagePublish = "publish"
	StageSave    = "save"
	StageCycle   = "cycle"
	StagePanic   = "panic"

	resultOK    = "ok"
	resultError = "error"
)

// Sync collects metrics about synchronization cycles
type Sync struct {
	Cycles          *prometheus.CounterVec
	CycleDuration   prometheus.Histogram
	Replicated      *prometheus.CounterVec
	ReplicatedBytes prometheus.Counter
	Failures        *prometheus.CounterVec
	Saves           *prometheus.CounterVec
	StorageLatency  *prometheus.HistogramVec
	LastSuccess     prometheus.Gauge
}

// NewSync registers the sync collectors
func NewSync(opts ...Option) *Sync {
	o := defaultOptions(opts)
	factory := promauto.With(o.registerer)

	return &Sync{
		Cycles: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "sync",
			Name:      "cycles_total",
			Help:      "Number of synchronization cycles, by result.",
		}, []string{"result"}),
		CycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "sync",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of synchronization cycles.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		Replicated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "sync",
			Name:      "versions_replicated_total",
			Help:      "Number of flow versions replicated, by publisher.",
		}, []string{"publisher"}),
		ReplicatedBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "sync",
			Name:      "replicated_bytes_total",
			Help:      "Size of the replicated flow version documents.",
		}),
		Failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "sync",
			Name:      "failures_total",
			Help:      "Number of failures, by stage.",
		}, []string{"stage"}),
		Saves: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "sync",
			Name:      "checkpoint_saves_total",
			Help:      "Number of checkpoint saves, by result.",
		}, []string{"result"}),
		StorageLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "storage",
			Name:      "operation_duration_seconds",
			Help:      "Latency of checkpoint storage operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op", "result"}),
		LastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "sync",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last cycle that completed without error.",
		}),
	}
}

// CycleDone records the outcome of a cycle. A nil receiver is a no-op.
func (m *Sync) CycleDone(start time.Time, err error) {
	if m == nil {
		return
	}
	m.CycleDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		m.Cycles.WithLabelValues(resultError).Inc()
		return
	}
	m.Cycles.WithLabelValues(resultOK).Inc()
	m.LastSuccess.SetToCurrentTime()
}

// Failure counts a failure at some stage. A nil receiver is a no-op.
func (m *Sync) Failure(stage string) {
	if m == nil {
		return
	}
	m.Failures.WithLabelValues(stage).Inc()
}

// Replication counts a replicated version. A nil receiver is a no-op.
func (m *Sync) Replication(publisher string, size int) {
	if m == nil {
		return
	}
	m.Replicated.WithLabelValues(publisher).Inc()
	m.ReplicatedBytes.Add(float64(size))
}

// Save counts a checkpoint save. A nil receiver is a no-op.
func (m *Sync) Save(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.Saves.WithLabelValues(resultError).Inc()
		return
	}
	m.Saves.WithLabelValues(resultOK).Inc()
}

// Deploy collects metrics about deployments
type Deploy struct {
	Deploys *prometheus.CounterVec
}

// NewDeploy registers the deploy collectors
func NewDeploy(opts ...Option) *Deploy {
	o := defaultOptions(opts)
	factory := promauto.With(o.registerer)

	return &Deploy{
		Deploys: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "deploy",
			Name:      "deploys_total",
			Help:      "Number of deployments, by outcome (created, updated, failed).",
		}, []string{"outcome"}),
	}
}

// Outcome counts a deployment. A nil receiver is a no-op.
func (m *Deploy) Outcome(outcome string) {
	if m == nil {
		return
	}
	m.Deploys.WithLabelValues(outcome).Inc()
}
