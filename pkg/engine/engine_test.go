package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/oneconcern/registrysync/pkg/engine/status"
	"github.com/oneconcern/registrysync/pkg/metrics"
	"github.com/oneconcern/registrysync/pkg/model"
	"github.com/oneconcern/registrysync/pkg/replicator"
	"github.com/oneconcern/registrysync/pkg/state"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

var (
	teamA          = model.Bucket{Identifier: "b-a", Name: "team-a"}
	teamB          = model.Bucket{Identifier: "b-b", Name: "team-b"}
	ingestPipeline = model.Flow{Identifier: "f-ingest", Name: "ingest-pipeline"}
	egress         = model.Flow{Identifier: "f-egress", Name: "egress"}
)

type fixture struct {
	registry    *fakeRegistry
	publisher   *recordingPublisher
	checkpoints *memoryCheckpoints
	metrics     *metrics.Sync
}

func newFixture() *fixture {
	return &fixture{
		registry:    newFakeRegistry(),
		publisher:   newRecordingPublisher(),
		checkpoints: &memoryCheckpoints{},
		metrics:     metrics.NewSync(metrics.WithRegisterer(prometheus.NewRegistry())),
	}
}

func (f *fixture) engine(t testing.TB, opts ...Option) *Engine {
	return New(context.Background(), f.registry, f.registry,
		replicator.New(f.publisher, replicator.WithMetrics(f.metrics)),
		f.checkpoints,
		append([]Option{WithLogger(zaptest.NewLogger(t)), WithMetrics(f.metrics)}, opts...)...,
	)
}

func checkpoint(t testing.TB, c model.Checkpoints, bucket model.Bucket, flow model.Flow) int64 {
	v, ok := c.Get(bucket.Identifier, flow.Identifier)
	require.True(t, ok, "expected a checkpoint for %s/%s", bucket.Name, flow.Name)
	return v
}

func TestCycleEndToEnd(t *testing.T) {
	f := newFixture()
	f.registry.addFlow(teamA, ingestPipeline, 6)
	f.checkpoints.saved = model.Checkpoints{teamA.Identifier: {ingestPipeline.Identifier: 4}}

	e := f.engine(t)
	report, err := e.Cycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"flows/team-a/ingest-pipeline/v5.json",
		"flows/team-a/ingest-pipeline/v6.json",
	}, f.publisher.order)
	assert.Equal(t, []VersionRef{
		{Bucket: "team-a", Flow: "ingest-pipeline", Version: 5},
		{Bucket: "team-a", Flow: "ingest-pipeline", Version: 6},
	}, report.Replicated)

	assert.True(t, report.Saved)
	assert.Equal(t, 1, f.checkpoints.saves)
	assert.Equal(t, int64(6), checkpoint(t, f.checkpoints.saved, teamA, ingestPipeline))
	assert.NotEmpty(t, report.ID)
	assert.Equal(t, 1, report.Buckets)
	assert.Equal(t, 1, report.Flows)
	assert.NoError(t, report.Err())
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.Replicated.WithLabelValues("recorder")))
}

func TestCycleNewFlowBootstrap(t *testing.T) {
	f := newFixture()
	f.registry.addFlow(teamA, ingestPipeline, 3)

	e := f.engine(t)
	report, err := e.Cycle(context.Background())
	require.NoError(t, err)

	// no history backfill for a flow seen for the first time
	assert.Equal(t, []string{"flows/team-a/ingest-pipeline/v3.json"}, f.publisher.order)
	assert.Equal(t, []string{versionKey(teamA.Identifier, ingestPipeline.Identifier, 3)}, f.registry.fetched)
	assert.Len(t, report.Replicated, 1)
	assert.Equal(t, int64(3), checkpoint(t, f.checkpoints.saved, teamA, ingestPipeline))
}

func TestCycleNewFlowFailure(t *testing.T) {
	f := newFixture()
	f.registry.addFlow(teamA, ingestPipeline, 3)
	f.registry.fetchErr[versionKey(teamA.Identifier, ingestPipeline.Identifier, 3)] = errTransient

	e := f.engine(t)
	report, err := e.Cycle(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, metrics.StageFetch, report.Failures[0].Stage)
	assert.True(t, errors.Is(report.Err(), status.ErrFetch))
	assert.True(t, errors.Is(report.Err(), errTransient))

	// the flow stays unknown, nothing to save
	_, known := e.Checkpoints().Get(teamA.Identifier, ingestPipeline.Identifier)
	assert.False(t, known)
	assert.False(t, report.Saved)
	assert.Equal(t, 0, f.checkpoints.saves)

	// next cycle: retried as a new flow, with the latest version at that time
	delete(f.registry.fetchErr, versionKey(teamA.Identifier, ingestPipeline.Identifier, 3))
	f.registry.setVersions(teamA.Identifier, ingestPipeline.Identifier, 4)
	_, err = e.Cycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"flows/team-a/ingest-pipeline/v4.json"}, f.publisher.order)
	assert.Equal(t, int64(4), checkpoint(t, f.checkpoints.saved, teamA, ingestPipeline))
}

func TestCycleMidRangeFailure(t *testing.T) {
	f := newFixture()
	f.registry.addFlow(teamA, ingestPipeline, 5)
	f.checkpoints.saved = model.Checkpoints{teamA.Identifier: {ingestPipeline.Identifier: 2}}
	f.publisher.failPaths["flows/team-a/ingest-pipeline/v4.json"] = errTransient

	e := f.engine(t)
	report, err := e.Cycle(context.Background())
	require.NoError(t, err)

	// v3 succeeded, v4 failed, v5 was not attempted
	assert.Equal(t, []string{"flows/team-a/ingest-pipeline/v3.json"}, f.publisher.order)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, metrics.StagePublish, report.Failures[0].Stage)
	assert.Equal(t, int64(4), report.Failures[0].Version)
	assert.True(t, errors.Is(report.Err(), status.ErrReplicate))

	// the checkpoint never advances past the failed version
	assert.Equal(t, int64(3), checkpoint(t, f.checkpoints.saved, teamA, ingestPipeline))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Failures.WithLabelValues(metrics.StagePublish)))

	// the failure clears: the next cycle converges without skipping any version
	delete(f.publisher.failPaths, "flows/team-a/ingest-pipeline/v4.json")
	report, err = e.Cycle(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Failures)
	assert.Equal(t, []string{
		"flows/team-a/ingest-pipeline/v3.json",
		"flows/team-a/ingest-pipeline/v4.json",
		"flows/team-a/ingest-pipeline/v5.json",
	}, f.publisher.order)
	assert.Equal(t, int64(5), checkpoint(t, f.checkpoints.saved, teamA, ingestPipeline))
}

func TestCycleUnchangedAndRollback(t *testing.T) {
	f := newFixture()
	f.registry.addFlow(teamA, ingestPipeline, 4)
	f.registry.addFlow(teamA, egress, 2)
	f.checkpoints.saved = model.Checkpoints{teamA.Identifier: {
		ingestPipeline.Identifier: 4,
		egress.Identifier:         7,
	}}

	core, logs := observer.New(zap.WarnLevel)
	e := f.engine(t, WithLogger(zap.New(core)))
	report, err := e.Cycle(context.Background())
	require.NoError(t, err)

	assert.Empty(t, f.publisher.order)
	assert.Empty(t, report.Failures)
	assert.Equal(t, 1, report.Rollbacks)
	assert.Equal(t, 1, logs.FilterMessage("registry reports an older latest version than the checkpoint, ignoring").Len())
	assert.False(t, report.Saved, "nothing changed, nothing to save")
	assert.Equal(t, 0, f.checkpoints.saves)
	assert.Equal(t, int64(7), checkpoint(t, e.Checkpoints(), teamA, egress))
}

func TestCycleEmptyVersions(t *testing.T) {
	f := newFixture()
	f.registry.addFlow(teamA, ingestPipeline, 0)

	report, err := f.engine(t).Cycle(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Failures)
	assert.Empty(t, report.Replicated)
	assert.Empty(t, f.registry.fetched)
}

func TestCycleListFailures(t *testing.T) {
	f := newFixture()
	f.registry.addFlow(teamA, ingestPipeline, 1)
	f.registry.addFlow(teamA, egress, 1)
	f.registry.addFlow(teamB, model.Flow{Identifier: "f-enrich", Name: "enrich"}, 2)
	f.registry.flowsErr[teamB.Identifier] = errTransient
	f.registry.versionsErr[flowKey(teamA.Identifier, egress.Identifier)] = errTransient

	report, err := f.engine(t).Cycle(context.Background())
	require.NoError(t, err)

	// failures are skipped at the smallest scope, the rest progresses
	assert.Equal(t, []string{"flows/team-a/ingest-pipeline/v1.json"}, f.publisher.order)
	require.Len(t, report.Failures, 2)
	assert.True(t, errors.Is(report.Err(), status.ErrListFlows))
	assert.True(t, errors.Is(report.Err(), status.ErrListVersions))
	assert.True(t, report.Saved)

	f.registry.bucketsErr = errTransient
	_, err = f.engine(t).Cycle(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrListBuckets))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Cycles.WithLabelValues("error")))
}

func TestCycleSaveFailure(t *testing.T) {
	f := newFixture()
	f.registry.addFlow(teamA, ingestPipeline, 1)
	f.checkpoints.saveErr = errTransient

	e := f.engine(t)
	report, err := e.Cycle(context.Background())
	require.NoError(t, err, "a save failure never aborts a cycle")
	assert.False(t, report.Saved)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, metrics.StageSave, report.Failures[0].Stage)
	assert.True(t, errors.Is(report.Err(), status.ErrSave))

	// in-memory checkpoints remain authoritative
	assert.Equal(t, int64(1), checkpoint(t, e.Checkpoints(), teamA, ingestPipeline))

	// the save is retried on the next cycle, even without new versions
	f.checkpoints.saveErr = nil
	report, err = e.Cycle(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Replicated)
	assert.True(t, report.Saved)
	assert.Equal(t, int64(1), checkpoint(t, f.checkpoints.saved, teamA, ingestPipeline))
}

func TestCycleCancelled(t *testing.T) {
	f := newFixture()
	f.registry.addFlow(teamA, ingestPipeline, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := f.engine(t).Cycle(ctx)
	require.NoError(t, err)
	assert.Empty(t, report.Replicated)
	assert.False(t, report.Saved)
	assert.Equal(t, 0, f.checkpoints.saves)
}

func TestCycleIdempotent(t *testing.T) {
	f := newFixture()
	f.registry.addFlow(teamA, ingestPipeline, 6)
	f.checkpoints.saved = model.Checkpoints{teamA.Identifier: {ingestPipeline.Identifier: 5}}

	_, err := f.engine(t).Cycle(context.Background())
	require.NoError(t, err)
	first := f.publisher.contents["flows/team-a/ingest-pipeline/v6.json"]

	// replaying the same version yields the same path and content
	f.checkpoints.saved = model.Checkpoints{teamA.Identifier: {ingestPipeline.Identifier: 5}}
	_, err = f.engine(t).Cycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"flows/team-a/ingest-pipeline/v6.json",
		"flows/team-a/ingest-pipeline/v6.json",
	}, f.publisher.order)
	assert.Len(t, f.publisher.contents, 1)
	assert.Equal(t, first, f.publisher.contents["flows/team-a/ingest-pipeline/v6.json"])
}

func TestCrashBetweenPublishAndSave(t *testing.T) {
	fs := afero.NewMemMapFs()
	ctx := context.Background()
	store, err := state.Open(ctx, "/app/data/sync_state.json", state.WithFs(fs))
	require.NoError(t, err)

	c := model.NewCheckpoints()
	c.Set(teamA.Identifier, ingestPipeline.Identifier, 4)
	require.NoError(t, store.Save(ctx, c))

	f := newFixture()
	f.registry.addFlow(teamA, ingestPipeline, 5)

	// v5 is published, then the process dies before saving
	require.NoError(t, replicator.New(f.publisher).Replicate(ctx, teamA, ingestPipeline, 5, model.Document{"version": 5}))

	// on restart, the checkpoint still says 4: v5 is published again, without error
	e := New(ctx, f.registry, f.registry, replicator.New(f.publisher), store, WithLogger(zaptest.NewLogger(t)))
	report, err := e.Cycle(ctx)
	require.NoError(t, err)
	assert.Empty(t, report.Failures)
	assert.Equal(t, []string{
		"flows/team-a/ingest-pipeline/v5.json",
		"flows/team-a/ingest-pipeline/v5.json",
	}, f.publisher.order)

	reloaded := store.Load(ctx)
	assert.Equal(t, int64(5), checkpoint(t, reloaded, teamA, ingestPipeline))
}

func TestCorruptStateBootstrap(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/app/data/sync_state.json", []byte("{not json"), 0600))
	ctx := context.Background()
	store, err := state.Open(ctx, "/app/data/sync_state.json", state.WithFs(fs))
	require.NoError(t, err)

	f := newFixture()
	f.registry.addFlow(teamA, ingestPipeline, 3)

	e := New(ctx, f.registry, f.registry, replicator.New(f.publisher), store)
	assert.Equal(t, 0, e.Checkpoints().Len())

	_, err = e.Cycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"flows/team-a/ingest-pipeline/v3.json"}, f.publisher.order)
	assert.Equal(t, int64(3), checkpoint(t, store.Load(ctx), teamA, ingestPipeline))
}
