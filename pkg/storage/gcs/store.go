// Copyright © 2018 One Concern

package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"

	gcsStorage "cloud.google.com/go/storage"
	"github.com/oneconcern/registrysync/pkg/storage"
	"github.com/oneconcern/registrysync/pkg/storage/status"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

type gcs struct {
	client     *gcsStorage.Client
	bucket     string
	clientOpts []option.ClientOption
	l          *zap.Logger
}

// New builds a store for a google cloud storage bucket.
//
// Objects become visible when the upload completes, so readers never see a partial object.
func New(ctx context.Context, bucket string, opts ...Option) (storage.Store, error) {
	if bucket == "" {
		return nil, status.ErrInvalidResource.WrapMessage("a GCS bucket is required")
	}
	googleStore := &gcs{
		bucket: bucket,
		l:      zap.NewNop(),
	}
	for _, apply := range opts {
		apply(googleStore)
	}

	clientOpts := append([]option.ClientOption{option.WithScopes(gcsStorage.ScopeReadWrite)}, googleStore.clientOpts...)
	client, err := gcsStorage.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, toSentinelErrors(err)
	}
	googleStore.client = client
	return googleStore, nil
}

func (g *gcs) String() string {
	return "gcs://" + g.bucket
}

func (g *gcs) Has(ctx context.Context, objectName string) (bool, error) {
	_, err := g.client.Bucket(g.bucket).Object(objectName).Attrs(ctx)
	if err != nil {
		if errors.Is(err, gcsStorage.ErrObjectNotExist) {
			return false, nil
		}
		return false, toSentinelErrors(err)
	}
	return true, nil
}

func (g *gcs) Get(ctx context.Context, objectName string) (io.ReadCloser, error) {
	objectReader, err := g.client.Bucket(g.bucket).Object(objectName).NewReader(ctx)
	if err != nil {
		return nil, toSentinelErrors(err)
	}
	return objectReader, nil
}

func (g *gcs) Put(ctx context.Context, objectName string, reader io.Reader) error {
	// cancelling the context aborts the upload and leaves the previous object in place
	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	writer := g.client.Bucket(g.bucket).Object(objectName).NewWriter(wctx)
	writer.ContentType = "application/json"
	written, err := io.Copy(writer, reader)
	if err != nil {
		cancel()
		_ = writer.Close()
		return status.ErrWrite.Wrap(fmt.Errorf("uploading %q: %w", objectName, err))
	}
	if err = writer.Close(); err != nil {
		return status.ErrWrite.Wrap(toSentinelErrors(err))
	}
	g.l.Debug("object written", zap.String("bucket", g.bucket), zap.String("object", objectName), zap.Int64("size", written))
	return nil
}

func (g *gcs) Delete(ctx context.Context, objectName string) error {
	err := g.client.Bucket(g.bucket).Object(objectName).Delete(ctx)
	if err != nil && !errors.Is(err, gcsStorage.ErrObjectNotExist) {
		return toSentinelErrors(err)
	}
	return nil
}
