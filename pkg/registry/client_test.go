package registry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/oneconcern/registrysync/pkg/model"
	"github.com/oneconcern/registrysync/pkg/registry/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const snapshotV6 = `{
  "snapshotMetadata": {"bucketIdentifier": "b-1", "flowIdentifier": "f-1", "version": 6},
  "flowContents": {"name": "ingest-pipeline", "processors": [{"name": "GetFile", "concurrency": 1.50}]}
}`

func fakeRegistry(t testing.TB) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/nifi-registry-api/buckets", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`[
			{"identifier": "b-1", "name": "team-a", "createdTimestamp": 1700000000000},
			{"identifier": "b-2", "name": "team b"}
		]`))
	})
	mux.HandleFunc("/nifi-registry-api/buckets/b-1/flows", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"identifier": "f-1", "name": "ingest-pipeline", "bucketIdentifier": "b-1", "bucketName": "team-a", "versionCount": 3}]`))
	})
	mux.HandleFunc("/nifi-registry-api/buckets/b-1/flows/f-1/versions", func(w http.ResponseWriter, r *http.Request) {
		// deliberately out of order
		_, _ = w.Write([]byte(`[
			{"bucketIdentifier": "b-1", "flowIdentifier": "f-1", "version": 4, "author": "alice"},
			{"bucketIdentifier": "b-1", "flowIdentifier": "f-1", "version": 6, "comments": "fix"},
			{"bucketIdentifier": "b-1", "flowIdentifier": "f-1", "version": 5}
		]`))
	})
	mux.HandleFunc("/nifi-registry-api/buckets/b-1/flows/f-1/versions/6", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(snapshotV6))
	})
	mux.HandleFunc("/nifi-registry-api/buckets/b-1/flows/f-1/versions/7", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"flowContents": {"name": "` + strings.Repeat("x", 2048) + `"}}`))
	})
	mux.HandleFunc("/nifi-registry-api/buckets/b-1/flows/f-1/versions/8", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"flowContents": `))
	})
	mux.HandleFunc("/nifi-registry-api/buckets/b-2/flows", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`access denied`))
	})
	mux.HandleFunc("/nifi-registry-api/buckets/b-3/flows", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/nifi-registry-api/buckets/b-4/flows", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/nifi-registry-api/buckets/b-5/flows/f-5/versions", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestClient(t testing.TB, maxSize int64) *Client {
	server := fakeRegistry(t)
	c, err := New(Config{URL: server.URL + "/nifi-registry-api/", MaxContentSize: maxSize}, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	return c
}

func TestNew(t *testing.T) {
	c, err := New(Config{})
	require.NoError(t, err)
	assert.Equal(t, DefaultURL, c.String())
	assert.Equal(t, int64(DefaultMaxContentSize), c.maxSize)
	assert.Equal(t, DefaultTimeout, c.client.Timeout)

	c, err = New(Config{URL: "http://registry:18080/nifi-registry-api/", Timeout: time.Second}, WithHTTPClient(http.DefaultClient))
	require.NoError(t, err)
	assert.Equal(t, "http://registry:18080/nifi-registry-api", c.String())
	assert.Equal(t, http.DefaultClient, c.client)

	_, err = New(Config{URL: "registry:18080"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrInvalidConfig))
}

func TestInventory(t *testing.T) {
	c := newTestClient(t, 0)
	ctx := context.Background()

	buckets, err := c.ListBuckets(ctx)
	require.NoError(t, err)
	require.Len(t, buckets, 2)
	assert.Equal(t, model.Bucket{Identifier: "b-1", Name: "team-a"}, buckets[0])

	flows, err := c.ListFlows(ctx, "b-1")
	require.NoError(t, err)
	require.Len(t, flows, 1)
	assert.Equal(t, "ingest-pipeline", flows[0].Name)
	assert.Equal(t, int64(3), flows[0].VersionCount)

	versions, err := c.ListVersions(ctx, "b-1", "f-1")
	require.NoError(t, err)
	require.Len(t, versions, 3)
	assert.Equal(t, int64(6), versions.Latest(), "versions are sorted newest-first")
	assert.Equal(t, "alice", versions[2].Author)

	latest, err := c.LatestVersion(ctx, "b-1", "f-1")
	require.NoError(t, err)
	assert.Equal(t, int64(6), latest)

	_, err = c.LatestVersion(ctx, "b-5", "f-5")
	assert.True(t, errors.Is(err, status.ErrNotFound))
}

func TestFetch(t *testing.T) {
	c := newTestClient(t, 1024)
	ctx := context.Background()

	doc, err := c.FetchVersion(ctx, "b-1", "f-1", 6)
	require.NoError(t, err)
	b, err := doc.Format()
	require.NoError(t, err)
	assert.Contains(t, string(b), `"concurrency": 1.50`)

	_, err = c.FetchVersion(ctx, "b-1", "f-1", 7)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrContentTooBig))

	_, err = c.FetchVersion(ctx, "b-1", "f-1", 8)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrDecode))

	_, err = c.FetchVersion(ctx, "b-1", "f-1", 9)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrNotFound))
}

func TestAPIErrors(t *testing.T) {
	c := newTestClient(t, 0)
	ctx := context.Background()

	for bucketID, sentinel := range map[string]error{
		"b-2": status.ErrForbidden,
		"b-3": status.ErrUnauthorized,
		"b-4": status.ErrRegistryAPI,
		"b-9": status.ErrNotFound,
	} {
		_, err := c.ListFlows(ctx, bucketID)
		require.Error(t, err)
		assert.Truef(t, errors.Is(err, sentinel), "expected %v for bucket %s, got %v", sentinel, bucketID, err)
	}

	_, err := c.ListFlows(ctx, "b-2")
	assert.Contains(t, err.Error(), "access denied")
}

func TestFind(t *testing.T) {
	c := newTestClient(t, 0)
	ctx := context.Background()

	bucket, err := c.FindBucket(ctx, "team-a")
	require.NoError(t, err)
	assert.Equal(t, "b-1", bucket.Identifier)

	_, err = c.FindBucket(ctx, "team-z")
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrNotFound))

	flow, err := c.FindFlow(ctx, "b-1", "ingest-pipeline")
	require.NoError(t, err)
	assert.Equal(t, "f-1", flow.Identifier)

	_, err = c.FindFlow(ctx, "b-1", "egress")
	assert.True(t, errors.Is(err, status.ErrNotFound))

	_, err = c.FindFlow(ctx, "b-2", "egress")
	assert.True(t, errors.Is(err, status.ErrForbidden))
}

func TestCancelled(t *testing.T) {
	c := newTestClient(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ListBuckets(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrRegistryAPI))
	assert.True(t, errors.Is(err, context.Canceled))
}
