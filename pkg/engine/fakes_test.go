package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/oneconcern/registrysync/pkg/model"
)

var errTransient = errors.New("transient failure")

func flowKey(bucketID, flowID string) string {
	return bucketID + "/" + flowID
}

func versionKey(bucketID, flowID string, version int64) string {
	return fmt.Sprintf("%s/%s/%d", bucketID, flowID, version)
}

// fakeRegistry is an in-memory inventory and fetcher
type fakeRegistry struct {
	mx       sync.Mutex
	buckets  []model.Bucket
	flows    map[string][]model.Flow
	versions map[string][]int64

	bucketsErr  error
	flowsErr    map[string]error
	versionsErr map[string]error
	fetchErr    map[string]error
	fetched     []string
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		flows:       make(map[string][]model.Flow),
		versions:    make(map[string][]int64),
		flowsErr:    make(map[string]error),
		versionsErr: make(map[string]error),
		fetchErr:    make(map[string]error),
	}
}

// addFlow registers a flow with versions 1..count
func (f *fakeRegistry) addFlow(bucket model.Bucket, flow model.Flow, count int64) {
	found := false
	for _, b := range f.buckets {
		if b.Identifier == bucket.Identifier {
			found = true
		}
	}
	if !found {
		f.buckets = append(f.buckets, bucket)
	}
	flow.BucketIdentifier = bucket.Identifier
	f.flows[bucket.Identifier] = append(f.flows[bucket.Identifier], flow)
	f.setVersions(bucket.Identifier, flow.Identifier, count)
}

func (f *fakeRegistry) setVersions(bucketID, flowID string, count int64) {
	f.mx.Lock()
	defer f.mx.Unlock()
	versions := make([]int64, 0, count)
	for v := count; v > 0; v-- {
		versions = append(versions, v)
	}
	f.versions[flowKey(bucketID, flowID)] = versions
}

func (f *fakeRegistry) ListBuckets(_ context.Context) ([]model.Bucket, error) {
	if f.bucketsErr != nil {
		return nil, f.bucketsErr
	}
	return f.buckets, nil
}

func (f *fakeRegistry) ListFlows(_ context.Context, bucketID string) ([]model.Flow, error) {
	if err := f.flowsErr[bucketID]; err != nil {
		return nil, err
	}
	return f.flows[bucketID], nil
}

func (f *fakeRegistry) ListVersions(_ context.Context, bucketID, flowID string) (model.Versions, error) {
	f.mx.Lock()
	defer f.mx.Unlock()
	if err := f.versionsErr[flowKey(bucketID, flowID)]; err != nil {
		return nil, err
	}
	var versions model.Versions
	for _, v := range f.versions[flowKey(bucketID, flowID)] {
		versions = append(versions, model.VersionMetadata{BucketIdentifier: bucketID, FlowIdentifier: flowID, Version: v})
	}
	return versions, nil
}

func (f *fakeRegistry) FetchVersion(_ context.Context, bucketID, flowID string, version int64) (model.Document, error) {
	f.mx.Lock()
	defer f.mx.Unlock()
	key := versionKey(bucketID, flowID, version)
	f.fetched = append(f.fetched, key)
	if err := f.fetchErr[key]; err != nil {
		return nil, err
	}
	return model.Document{
		"flowIdentifier": flowID,
		"version":        version,
	}, nil
}

// recordingPublisher keeps published records by path, in publication order
type recordingPublisher struct {
	mx        sync.Mutex
	order     []string
	contents  map[string][]byte
	failPaths map[string]error
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{
		contents:  make(map[string][]byte),
		failPaths: make(map[string]error),
	}
}

func (p *recordingPublisher) Publish(_ context.Context, rec model.FileRecord) error {
	p.mx.Lock()
	defer p.mx.Unlock()
	if err := p.failPaths[rec.Path]; err != nil {
		return err
	}
	p.order = append(p.order, rec.Path)
	p.contents[rec.Path] = rec.Content
	return nil
}

func (p *recordingPublisher) String() string {
	return "recorder"
}

// memoryCheckpoints is an in-memory checkpoint store
type memoryCheckpoints struct {
	mx      sync.Mutex
	saved   model.Checkpoints
	saves   int
	saveErr error
}

func (m *memoryCheckpoints) Load(_ context.Context) model.Checkpoints {
	m.mx.Lock()
	defer m.mx.Unlock()
	if m.saved == nil {
		return model.NewCheckpoints()
	}
	return m.saved.Clone()
}

func (m *memoryCheckpoints) Save(_ context.Context, c model.Checkpoints) error {
	m.mx.Lock()
	defer m.mx.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.saved = c.Clone()
	return nil
}
