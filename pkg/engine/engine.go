package engine

import (
	"context"
	"sync"
	"time"

	"github.com/oneconcern/registrysync/pkg/engine/status"
	"github.com/oneconcern/registrysync/pkg/metrics"
	"github.com/oneconcern/registrysync/pkg/model"
	"github.com/segmentio/ksuid"
	"go.uber.org/zap"
)

// Engine runs synchronization cycles. Cycles never overlap.
type Engine struct {
	inventory  Inventory
	fetcher    Fetcher
	replicator Replicator
	store      CheckpointStore

	mx          sync.Mutex
	checkpoints model.Checkpoints
	dirty       bool

	metrics *metrics.Sync
	l       *zap.Logger
}

// New sync engine. Checkpoints are loaded once from the store, then kept in memory.
func New(ctx context.Context, inventory Inventory, fetcher Fetcher, replicator Replicator, store CheckpointStore, opts ...Option) *Engine {
	e := &Engine{
		inventory:  inventory,
		fetcher:    fetcher,
		replicator: replicator,
		store:      store,
		l:          zap.NewNop(),
	}
	for _, apply := range opts {
		apply(e)
	}

	e.checkpoints = store.Load(ctx)
	if e.checkpoints == nil {
		e.checkpoints = model.NewCheckpoints()
	}
	return e
}

// Checkpoints returns a copy of the in-memory checkpoints
func (e *Engine) Checkpoints() model.Checkpoints {
	e.mx.Lock()
	defer e.mx.Unlock()
	return e.checkpoints.Clone()
}

// Cycle runs one synchronization cycle.
//
// Failures are handled at the smallest scope (bucket, flow, version) and reported.
// An error is returned only when the buckets cannot be listed.
func (e *Engine) Cycle(ctx context.Context) (report Report, err error) {
	e.mx.Lock()
	defer e.mx.Unlock()

	start := time.Now()
	report.ID = ksuid.New().String()
	lg := e.l.With(zap.String("cycle", report.ID))
	defer func() {
		report.Duration = time.Since(start)
		e.metrics.CycleDone(start, err)
	}()

	lg.Info("polling registry")
	buckets, err := e.inventory.ListBuckets(ctx)
	if err != nil {
		e.metrics.Failure(metrics.StageList)
		return report, status.ErrListBuckets.Wrap(err)
	}

	for _, bucket := range buckets {
		if ctx.Err() != nil {
			break
		}
		report.Buckets++
		e.syncBucket(ctx, lg, bucket, &report)
	}

	switch {
	case ctx.Err() != nil:
		lg.Warn("cycle interrupted, checkpoints are not saved", zap.Error(ctx.Err()))
	case e.dirty:
		e.save(ctx, lg, &report)
	}

	if len(report.Replicated) == 0 {
		lg.Info("no changes detected",
			zap.Int("buckets", report.Buckets),
			zap.Int("flows", report.Flows),
			zap.Int("failures", len(report.Failures)),
		)
	} else {
		lg.Info("changes replicated",
			zap.Int("buckets", report.Buckets),
			zap.Int("flows", report.Flows),
			zap.Int("replicated", len(report.Replicated)),
			zap.Int("failures", len(report.Failures)),
			zap.Bool("saved", report.Saved),
		)
	}
	return report, nil
}

func (e *Engine) save(ctx context.Context, lg *zap.Logger, report *Report) {
	err := e.store.Save(ctx, e.checkpoints.Clone())
	e.metrics.Save(err)
	if err != nil {
		// in-memory checkpoints remain authoritative: the save is attempted again next cycle
		e.metrics.Failure(metrics.StageSave)
		lg.Error("could not save checkpoints", zap.Error(err))
		report.Failures = append(report.Failures, Failure{Stage: metrics.StageSave, Err: status.ErrSave.Wrap(err)})
		return
	}
	e.dirty = false
	report.Saved = true
}

func (e *Engine) fail(lg *zap.Logger, report *Report, failure Failure, msg string) {
	e.metrics.Failure(failure.Stage)
	lg.Error(msg, zap.Error(failure.Err))
	report.Failures = append(report.Failures, failure)
}

func (e *Engine) syncBucket(ctx context.Context, lg *zap.Logger, bucket model.Bucket, report *Report) {
	lg = lg.With(zap.String("bucket", bucket.Name), zap.String("bucketID", bucket.Identifier))

	flows, err := e.inventory.ListFlows(ctx, bucket.Identifier)
	if err != nil {
		e.fail(lg, report, Failure{
			Stage:  metrics.StageList,
			Bucket: bucket.Name,
			Err:    status.ErrListFlows.Wrap(err),
		}, "could not list flows, skipping bucket")
		return
	}

	for _, flow := range flows {
		if ctx.Err() != nil {
			return
		}
		report.Flows++
		e.syncFlow(ctx, lg, bucket, flow, report)
	}
}

func (e *Engine) syncFlow(ctx context.Context, lg *zap.Logger, bucket model.Bucket, flow model.Flow, report *Report) {
	lg = lg.With(zap.String("flow", flow.Name), zap.String("flowID", flow.Identifier))

	versions, err := e.inventory.ListVersions(ctx, bucket.Identifier, flow.Identifier)
	if err != nil {
		e.fail(lg, report, Failure{
			Stage:  metrics.StageList,
			Bucket: bucket.Name,
			Flow:   flow.Name,
			Err:    status.ErrListVersions.Wrap(err),
		}, "could not list versions, skipping flow")
		return
	}
	if len(versions) == 0 {
		return
	}

	latest := versions.Latest()
	known, isKnown := e.checkpoints.Get(bucket.Identifier, flow.Identifier)

	switch {
	case !isKnown:
		lg.Info("new flow detected", zap.Int64("version", latest))
		if e.replicate(ctx, lg, bucket, flow, latest, report) {
			e.advance(bucket, flow, latest)
		}

	case latest > known:
		lg.Info("new versions detected", zap.Int64("from", known), zap.Int64("to", latest))
		for _, version := range versions.Range(known, latest) {
			if ctx.Err() != nil || !e.replicate(ctx, lg, bucket, flow, version, report) {
				// the checkpoint stays below the first version which was not replicated
				return
			}
			e.advance(bucket, flow, version)
		}

	case latest < known:
		report.Rollbacks++
		lg.Warn("registry reports an older latest version than the checkpoint, ignoring",
			zap.Int64("latest", latest),
			zap.Int64("checkpoint", known),
		)
	}
}

func (e *Engine) advance(bucket model.Bucket, flow model.Flow, version int64) {
	e.checkpoints.Set(bucket.Identifier, flow.Identifier, version)
	e.dirty = true
}

func (e *Engine) replicate(ctx context.Context, lg *zap.Logger, bucket model.Bucket, flow model.Flow, version int64, report *Report) bool {
	lg = lg.With(zap.Int64("version", version))

	doc, err := e.fetcher.FetchVersion(ctx, bucket.Identifier, flow.Identifier, version)
	if err != nil {
		e.fail(lg, report, Failure{
			Stage:   metrics.StageFetch,
			Bucket:  bucket.Name,
			Flow:    flow.Name,
			Version: version,
			Err:     status.ErrFetch.Wrap(err),
		}, "could not fetch flow version")
		return false
	}

	if err = e.replicator.Replicate(ctx, bucket, flow, version, doc); err != nil {
		e.fail(lg, report, Failure{
			Stage:   metrics.StagePublish,
			Bucket:  bucket.Name,
			Flow:    flow.Name,
			Version: version,
			Err:     status.ErrReplicate.Wrap(err),
		}, "could not replicate flow version")
		return false
	}

	report.Replicated = append(report.Replicated, VersionRef{Bucket: bucket.Name, Flow: flow.Name, Version: version})
	return true
}
