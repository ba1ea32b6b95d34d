package replicator

import (
	"context"

	units "github.com/docker/go-units"
	"github.com/oneconcern/registrysync/pkg/metrics"
	"github.com/oneconcern/registrysync/pkg/model"
	"github.com/oneconcern/registrysync/pkg/replicator/status"
	"go.uber.org/zap"
)

// Publisher writes a record to a source control repository, as a single commit.
//
// Publishing the same record twice is harmless.
type Publisher interface {
	Publish(context.Context, model.FileRecord) error
	String() string
}

// Replicator builds file records from flow versions and publishes them
type Replicator struct {
	publisher Publisher
	metrics   *metrics.Sync
	l         *zap.Logger
}

// New replicator publishing with the given backend
func New(publisher Publisher, opts ...Option) *Replicator {
	r := &Replicator{
		publisher: publisher,
		l:         zap.NewNop(),
	}
	for _, apply := range opts {
		apply(r)
	}
	return r
}

// BuildRecord renders a flow version as a file record
func BuildRecord(bucketName, flowName string, version int64, doc model.Document) (model.FileRecord, error) {
	content, err := doc.Format()
	if err != nil {
		return model.FileRecord{}, status.ErrFormat.Wrap(err)
	}
	return model.FileRecord{
		Path:    model.GetPathToFlowVersion(bucketName, flowName, version),
		Content: content,
		Message: model.GetCommitMessage(bucketName, flowName, version),
	}, nil
}

// Replicate publishes one flow version
func (r *Replicator) Replicate(ctx context.Context, bucket model.Bucket, flow model.Flow, version int64, doc model.Document) error {
	record, err := BuildRecord(bucket.Name, flow.Name, version, doc)
	if err != nil {
		return err
	}

	if err = r.publisher.Publish(ctx, record); err != nil {
		return err
	}

	r.metrics.Replication(r.publisher.String(), len(record.Content))
	r.l.Info("flow version replicated",
		zap.String("path", record.Path),
		zap.String("size", units.HumanSize(float64(len(record.Content)))),
		zap.String("publisher", r.publisher.String()),
	)
	return nil
}

// String representation of the publishing backend
func (r *Replicator) String() string {
	return r.publisher.String()
}
