// Copyright © 2018 One Concern

package storage

import (
	"context"
	"io"
	"io/ioutil"
)

// Store implementations know how to write objects to a K/V model.
//
// Typically this is something file system-like. Examples are S3, GCS, local FS, ...
// Implementations of this interface are assumed to be fairly simple.
//
// Put must be atomic: a reader never observes a partially written object,
// even when the writing process crashes midway.
type Store interface {
	String() string
	Has(context.Context, string) (bool, error)
	Get(context.Context, string) (io.ReadCloser, error)
	Put(context.Context, string, io.Reader) error
	Delete(context.Context, string) error
}

// ReadAll retrieves a whole object from a store
func ReadAll(ctx context.Context, store Store, key string) ([]byte, error) {
	rdr, err := store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rdr.Close()
	}()
	return ioutil.ReadAll(rdr)
}
