package engine

import (
	"context"

	"github.com/oneconcern/registrysync/pkg/model"
)

// Inventory lists what the registry holds
type Inventory interface {
	ListBuckets(context.Context) ([]model.Bucket, error)
	ListFlows(ctx context.Context, bucketID string) ([]model.Flow, error)
	ListVersions(ctx context.Context, bucketID, flowID string) (model.Versions, error)
}

// Fetcher retrieves the content of a flow version
type Fetcher interface {
	FetchVersion(ctx context.Context, bucketID, flowID string, version int64) (model.Document, error)
}

// Replicator publishes a flow version to the external repository
type Replicator interface {
	Replicate(ctx context.Context, bucket model.Bucket, flow model.Flow, version int64, doc model.Document) error
}

// CheckpointStore persists checkpoints
type CheckpointStore interface {
	Load(context.Context) model.Checkpoints
	Save(context.Context, model.Checkpoints) error
}
