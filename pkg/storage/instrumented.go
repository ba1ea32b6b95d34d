// Copyright © 2018 One Concern

package storage

import (
	"context"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Instrument a store with debug logging and, when a latency observer is provided,
// per-operation timings labelled by "op" and "result".
func Instrument(l *zap.Logger, latency prometheus.ObserverVec, store Store) Store {
	if l == nil {
		l = zap.NewNop()
	}
	return &instrumentedStore{
		store:   store,
		latency: latency,
		l:       l.With(zap.String("store", store.String())),
	}
}

type instrumentedStore struct {
	store   Store
	latency prometheus.ObserverVec
	l       *zap.Logger
}

func (i *instrumentedStore) observe(op string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	if i.latency != nil {
		i.latency.WithLabelValues(op, result).Observe(time.Since(start).Seconds())
	}
}

func (i *instrumentedStore) Has(ctx context.Context, key string) (has bool, err error) {
	defer func(start time.Time) { i.observe("has", start, err) }(time.Now())
	i.l.Debug("storage has", zap.String("key", key))

	has, err = i.store.Has(ctx, key)
	return
}

func (i *instrumentedStore) Get(ctx context.Context, key string) (rdr io.ReadCloser, err error) {
	defer func(start time.Time) { i.observe("get", start, err) }(time.Now())
	i.l.Debug("storage get", zap.String("key", key))

	rdr, err = i.store.Get(ctx, key)
	return
}

func (i *instrumentedStore) Put(ctx context.Context, key string, rdr io.Reader) (err error) {
	defer func(start time.Time) { i.observe("put", start, err) }(time.Now())
	i.l.Debug("storage put", zap.String("key", key))

	err = i.store.Put(ctx, key, rdr)
	return
}

func (i *instrumentedStore) Delete(ctx context.Context, key string) (err error) {
	defer func(start time.Time) { i.observe("delete", start, err) }(time.Now())
	i.l.Debug("storage delete", zap.String("key", key))

	err = i.store.Delete(ctx, key)
	return
}

func (i *instrumentedStore) String() string {
	return i.store.String()
}
