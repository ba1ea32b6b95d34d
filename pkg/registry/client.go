package registry

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	units "github.com/docker/go-units"
	jsoniter "github.com/json-iterator/go"
	"github.com/oneconcern/registrysync/pkg/model"
	"github.com/oneconcern/registrysync/pkg/registry/status"
	"go.uber.org/zap"
)

const (
	// DefaultURL of the registry API
	DefaultURL = "http://localhost:18080/nifi-registry-api"

	// DefaultTimeout of a single registry call
	DefaultTimeout = 30 * time.Second

	// DefaultMaxContentSize bounds the size of a registry response
	DefaultMaxContentSize = 64 * units.MiB

	// DefaultUserAgent identifies the client to the registry
	DefaultUserAgent = "registrysync"

	// errorBodySnippet bounds how much of an error response is reported
	errorBodySnippet = 512
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Config for a registry client
type Config struct {
	URL            string
	Timeout        time.Duration
	MaxContentSize int64
	UserAgent      string
}

// Client for the NiFi Registry REST API
type Client struct {
	base      *url.URL
	maxSize   int64
	userAgent string
	client    *http.Client
	l         *zap.Logger
}

// New registry client
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	base, err := url.Parse(strings.TrimRight(cfg.URL, "/"))
	if err != nil {
		return nil, status.ErrInvalidConfig.Wrap(err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, status.ErrInvalidConfig.WrapMessage("registry URL must be http or https: %q", cfg.URL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxContentSize <= 0 {
		cfg.MaxContentSize = DefaultMaxContentSize
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}

	c := &Client{
		base:      base,
		maxSize:   cfg.MaxContentSize,
		userAgent: cfg.UserAgent,
		client:    &http.Client{Timeout: cfg.Timeout},
		l:         zap.NewNop(),
	}
	for _, apply := range opts {
		apply(c)
	}
	return c, nil
}

// String representation of the registry endpoint
func (c *Client) String() string {
	return c.base.String()
}

// ListBuckets lists all buckets visible to the client
func (c *Client) ListBuckets(ctx context.Context) ([]model.Bucket, error) {
	var buckets []model.Bucket
	if err := c.getJSON(ctx, &buckets, "buckets"); err != nil {
		return nil, err
	}
	return buckets, nil
}

// ListFlows lists the flows in a bucket
func (c *Client) ListFlows(ctx context.Context, bucketID string) ([]model.Flow, error) {
	var flows []model.Flow
	if err := c.getJSON(ctx, &flows, "buckets", bucketID, "flows"); err != nil {
		return nil, err
	}
	return flows, nil
}

// ListVersions lists the versions of a flow, newest first
func (c *Client) ListVersions(ctx context.Context, bucketID, flowID string) (model.Versions, error) {
	var versions model.Versions
	if err := c.getJSON(ctx, &versions, "buckets", bucketID, "flows", flowID, "versions"); err != nil {
		return nil, err
	}
	sort.Stable(versions)
	return versions, nil
}

// FetchVersion retrieves the full content of a flow version
func (c *Client) FetchVersion(ctx context.Context, bucketID, flowID string, version int64) (model.Document, error) {
	return c.fetchDocument(ctx, "buckets", bucketID, "flows", flowID, "versions", strconv.FormatInt(version, 10))
}

// LatestVersion returns the highest version number of a flow
func (c *Client) LatestVersion(ctx context.Context, bucketID, flowID string) (int64, error) {
	versions, err := c.ListVersions(ctx, bucketID, flowID)
	if err != nil {
		return 0, err
	}
	if len(versions) == 0 {
		return 0, status.ErrNotFound.WrapMessage("flow %q has no version", flowID)
	}
	return versions.Latest(), nil
}

// FindBucket looks up a bucket by name
func (c *Client) FindBucket(ctx context.Context, name string) (model.Bucket, error) {
	buckets, err := c.ListBuckets(ctx)
	if err != nil {
		return model.Bucket{}, err
	}
	for _, bucket := range buckets {
		if bucket.Name == name {
			return bucket, nil
		}
	}
	return model.Bucket{}, status.ErrNotFound.WrapMessage("bucket %q", name)
}

// FindFlow looks up a flow by name in a bucket
func (c *Client) FindFlow(ctx context.Context, bucketID, name string) (model.Flow, error) {
	flows, err := c.ListFlows(ctx, bucketID)
	if err != nil {
		return model.Flow{}, err
	}
	for _, flow := range flows {
		if flow.Name == name {
			return flow, nil
		}
	}
	return model.Flow{}, status.ErrNotFound.WrapMessage("flow %q in bucket %q", name, bucketID)
}

func (c *Client) fetchDocument(ctx context.Context, segments ...string) (model.Document, error) {
	body, err := c.get(ctx, segments...)
	if err != nil {
		return nil, err
	}
	doc, err := model.UnmarshalDocument(body)
	if err != nil {
		return nil, status.ErrDecode.Wrap(err)
	}
	if doc == nil {
		return nil, status.ErrDecode.WrapMessage("empty flow version content at %s", c.endpoint(segments...))
	}
	return doc, nil
}

func (c *Client) getJSON(ctx context.Context, target interface{}, segments ...string) error {
	body, err := c.get(ctx, segments...)
	if err != nil {
		return err
	}
	if err = json.Unmarshal(body, target); err != nil {
		return status.ErrDecode.Wrap(err)
	}
	return nil
}

func (c *Client) endpoint(segments ...string) string {
	escaped := make([]string, 0, len(segments)+1)
	escaped = append(escaped, c.base.String())
	for _, segment := range segments {
		escaped = append(escaped, url.PathEscape(segment))
	}
	return strings.Join(escaped, "/")
}

func (c *Client) get(ctx context.Context, segments ...string) ([]byte, error) {
	endpoint := c.endpoint(segments...)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, status.ErrRegistryAPI.Wrap(err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, status.ErrRegistryAPI.Wrap(err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := ioutil.ReadAll(io.LimitReader(resp.Body, c.maxSize+1))
	if err != nil {
		return nil, status.ErrRegistryAPI.Wrap(err)
	}
	c.l.Debug("registry call",
		zap.String("url", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.String("size", units.HumanSize(float64(len(body)))),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apiError(endpoint, resp.StatusCode, body)
	}
	if int64(len(body)) > c.maxSize {
		return nil, status.ErrContentTooBig.WrapMessage("%s exceeds %s", endpoint, units.BytesSize(float64(c.maxSize)))
	}
	return body, nil
}

func apiError(endpoint string, code int, body []byte) error {
	if len(body) > errorBodySnippet {
		body = body[:errorBodySnippet]
	}
	cause := fmt.Errorf("GET %s: HTTP %d: %s", endpoint, code, bytes.TrimSpace(body))
	switch code {
	case http.StatusNotFound:
		return status.ErrNotFound.Wrap(cause)
	case http.StatusUnauthorized:
		return status.ErrUnauthorized.Wrap(cause)
	case http.StatusForbidden:
		return status.ErrForbidden.Wrap(cause)
	default:
		return status.ErrRegistryAPI.Wrap(cause)
	}
}
