package state

import (
	"bytes"
	"context"
	"errors"

	"github.com/oneconcern/registrysync/pkg/model"
	"github.com/oneconcern/registrysync/pkg/storage"
	"github.com/oneconcern/registrysync/pkg/storage/gcs"
	"github.com/oneconcern/registrysync/pkg/storage/localfs"
	"github.com/oneconcern/registrysync/pkg/storage/status"
	"github.com/oneconcern/registrysync/pkg/storage/sthree"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// State loads and saves checkpoints as a single object in a store
type State struct {
	store    storage.Store
	key      string
	location string

	fs      afero.Fs
	s3Opts  []sthree.Option
	gcsOpts []gcs.Option
	latency prometheus.ObserverVec
	l       *zap.Logger
}

func defaultState(opts []Option) *State {
	s := &State{
		fs: afero.NewOsFs(),
		l:  zap.NewNop(),
	}
	for _, apply := range opts {
		apply(s)
	}
	return s
}

// New state persisted under key in the given store
func New(store storage.Store, key string, opts ...Option) *State {
	s := defaultState(opts)
	s.store = storage.Instrument(s.l, s.latency, store)
	s.key = key
	s.location = store.String() + "/" + key
	return s
}

// Open resolves a location (see ParseLocation) to a store backend and returns the state persisted there
func Open(ctx context.Context, location string, opts ...Option) (*State, error) {
	loc, err := ParseLocation(location)
	if err != nil {
		return nil, err
	}

	s := defaultState(opts)
	var store storage.Store

	switch loc.Scheme {
	case SchemeS3:
		store, err = sthree.New(sthree.Bucket(loc.Bucket), s.s3Opts...)
	case SchemeGCS:
		store, err = gcs.New(ctx, loc.Bucket, append([]gcs.Option{gcs.Logger(s.l)}, s.gcsOpts...)...)
	default:
		store = localfs.New(s.fs, localfs.Root(loc.Bucket))
	}
	if err != nil {
		return nil, err
	}

	s.store = storage.Instrument(s.l, s.latency, store)
	s.key = loc.Key
	s.location = loc.String()
	return s, nil
}

// String representation of the checkpoint location
func (s *State) String() string {
	return s.location
}

// Load the checkpoints.
//
// Load never fails: a missing, unreadable or corrupt document yields empty checkpoints,
// so that the sync resumes from scratch.
func (s *State) Load(ctx context.Context) model.Checkpoints {
	data, err := storage.ReadAll(ctx, s.store, s.key)
	if err != nil {
		if errors.Is(err, status.ErrNotExists) {
			s.l.Info("no checkpoints found, starting from scratch", zap.String("location", s.location))
		} else {
			s.l.Warn("could not read checkpoints, starting from scratch", zap.String("location", s.location), zap.Error(err))
		}
		return model.NewCheckpoints()
	}

	checkpoints, err := model.UnmarshalCheckpoints(data)
	if err != nil {
		s.l.Warn("corrupt checkpoints document, starting from scratch", zap.String("location", s.location), zap.Error(err))
		return model.NewCheckpoints()
	}

	s.l.Info("checkpoints loaded", zap.String("location", s.location), zap.Int("flows", checkpoints.Len()))
	return checkpoints
}

// Save the checkpoints, replacing the previous document atomically
func (s *State) Save(ctx context.Context, checkpoints model.Checkpoints) error {
	data, err := model.MarshalCheckpoints(checkpoints)
	if err != nil {
		return status.ErrWrite.Wrap(err)
	}
	if err = s.store.Put(ctx, s.key, bytes.NewReader(data)); err != nil {
		return err
	}
	s.l.Debug("checkpoints saved", zap.String("location", s.location), zap.Int("flows", checkpoints.Len()))
	return nil
}

// Reset removes checkpoints, so that the next sync replicates the latest version again.
//
// With an empty bucketID, the whole document is removed. With an empty flowID, all the
// checkpoints of the bucket are removed. It reports whether anything was removed.
func (s *State) Reset(ctx context.Context, bucketID, flowID string) (bool, error) {
	if bucketID == "" {
		has, err := s.store.Has(ctx, s.key)
		if err != nil {
			return false, err
		}
		if !has {
			return false, nil
		}
		return true, s.store.Delete(ctx, s.key)
	}

	checkpoints := s.Load(ctx)
	var removed bool
	if flowID == "" {
		removed = checkpoints.DeleteBucket(bucketID)
	} else {
		removed = checkpoints.Delete(bucketID, flowID)
	}
	if !removed {
		return false, nil
	}
	return true, s.Save(ctx, checkpoints)
}
