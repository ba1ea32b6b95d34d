package nifi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	units "github.com/docker/go-units"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/oneconcern/registrysync/pkg/errors"
	"github.com/oneconcern/registrysync/pkg/nifi/status"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	// DefaultTimeout of a single NiFi call
	DefaultTimeout = 30 * time.Second

	// DefaultPollInterval between two checks of an update request
	DefaultPollInterval = 500 * time.Millisecond

	// DefaultUpdateTimeout bounds the wait for a version update request to complete
	DefaultUpdateTimeout = 5 * time.Minute

	maxResponseSize  = 16 * units.MiB
	errorBodySnippet = 512
)

var (
	json = jsoniter.ConfigCompatibleWithStandardLibrary

	errUpdatePending = errors.New("update request still running")
)

// Config for a NiFi client.
//
// When Username is set, the client logs in with Login before issuing other calls.
type Config struct {
	URL      string
	Timeout  time.Duration
	Username string
	Password string
}

// Client for the NiFi REST API
type Client struct {
	endpoint      *url.URL
	username      string
	password      string
	clientID      string
	pollInterval  time.Duration
	updateTimeout time.Duration
	base          *http.Client
	client        *http.Client
	l             *zap.Logger
}

// New NiFi client
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.URL == "" {
		return nil, status.ErrInvalidConfig.WrapMessage("a NiFi API URL is required")
	}
	endpoint, err := url.Parse(strings.TrimRight(cfg.URL, "/"))
	if err != nil {
		return nil, status.ErrInvalidConfig.Wrap(err)
	}
	if endpoint.Scheme != "http" && endpoint.Scheme != "https" {
		return nil, status.ErrInvalidConfig.WrapMessage("NiFi URL must be http or https: %q", cfg.URL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	base := &http.Client{Timeout: cfg.Timeout}
	c := &Client{
		endpoint:      endpoint,
		username:      cfg.Username,
		password:      cfg.Password,
		clientID:      uuid.New().String(),
		pollInterval:  DefaultPollInterval,
		updateTimeout: DefaultUpdateTimeout,
		base:          base,
		client:        base,
		l:             zap.NewNop(),
	}
	for _, apply := range opts {
		apply(c)
	}
	return c, nil
}

// String representation of the NiFi endpoint
func (c *Client) String() string {
	return c.endpoint.String()
}

// Login exchanges the configured credentials for an access token, used as a bearer token
// on subsequent calls. Without credentials, Login does nothing.
func (c *Client) Login(ctx context.Context) error {
	if c.username == "" {
		return nil
	}
	form := url.Values{}
	form.Set("username", c.username)
	form.Set("password", c.password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("access", "token"), strings.NewReader(form.Encode()))
	if err != nil {
		return status.ErrLogin.Wrap(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	code, body, err := c.do(req)
	if err != nil {
		return status.ErrLogin.Wrap(err)
	}
	if code != http.StatusCreated && code != http.StatusOK {
		return status.ErrLogin.Wrap(apiError(req, code, body))
	}
	token := string(bytes.TrimSpace(body))
	if token == "" {
		return status.ErrLogin.WrapMessage("empty access token")
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.base)
	c.client = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}))
	c.client.Timeout = c.base.Timeout
	c.l.Debug("logged in to NiFi", zap.String("user", c.username))
	return nil
}

// RootProcessGroupID returns the identifier of the root process group
func (c *Client) RootProcessGroupID(ctx context.Context) (string, error) {
	var flow processGroupFlowEntity
	if err := c.call(ctx, http.MethodGet, nil, &flow, "flow", "process-groups", "root"); err != nil {
		return "", err
	}
	if flow.ProcessGroupFlow.ID == "" {
		return "", status.ErrDecode.WrapMessage("root process group has no identifier")
	}
	return flow.ProcessGroupFlow.ID, nil
}

// RegistryClients lists the registry clients configured in NiFi
func (c *Client) RegistryClients(ctx context.Context) ([]RegistryClient, error) {
	var entity registryClientsEntity
	if err := c.call(ctx, http.MethodGet, nil, &entity, "flow", "registries"); err != nil {
		return nil, err
	}
	clients := make([]RegistryClient, 0, len(entity.Registries))
	for _, r := range entity.Registries {
		id := r.ID
		if id == "" {
			id = r.Component.ID
		}
		clients = append(clients, RegistryClient{ID: id, Name: r.Component.Name, URI: r.Component.URI})
	}
	return clients, nil
}

// FindRegistryClient looks up a registry client by name
func (c *Client) FindRegistryClient(ctx context.Context, name string) (RegistryClient, error) {
	clients, err := c.RegistryClients(ctx)
	if err != nil {
		return RegistryClient{}, err
	}
	for _, client := range clients {
		if client.Name == name {
			return client, nil
		}
	}
	return RegistryClient{}, status.ErrNotFound.WrapMessage("registry client %q", name)
}

// ProcessGroups lists the process groups directly under a parent group
func (c *Client) ProcessGroups(ctx context.Context, parentID string) ([]ProcessGroup, error) {
	var entity processGroupsEntity
	if err := c.call(ctx, http.MethodGet, nil, &entity, "process-groups", parentID, "process-groups"); err != nil {
		return nil, err
	}
	groups := make([]ProcessGroup, 0, len(entity.ProcessGroups))
	for _, pg := range entity.ProcessGroups {
		groups = append(groups, pg.toProcessGroup())
	}
	return groups, nil
}

// FindProcessGroup looks up a process group by name under a parent group.
// The boolean is false when no group has this name.
func (c *Client) FindProcessGroup(ctx context.Context, parentID, name string) (ProcessGroup, bool, error) {
	groups, err := c.ProcessGroups(ctx, parentID)
	if err != nil {
		return ProcessGroup{}, false, err
	}
	for _, pg := range groups {
		if pg.Name == name {
			return pg, true, nil
		}
	}
	return ProcessGroup{}, false, nil
}

// CreateVersionedGroup imports a flow version from a registry as a new process group
func (c *Client) CreateVersionedGroup(ctx context.Context, parentID string, vci VersionControl, position Position) (ProcessGroup, error) {
	payload := processGroupEntity{
		Revision: Revision{ClientID: c.clientID, Version: 0},
		Component: processGroupComponent{
			Position:                  &position,
			VersionControlInformation: &vci,
		},
	}
	var created processGroupEntity
	if err := c.call(ctx, http.MethodPost, payload, &created, "process-groups", parentID, "process-groups"); err != nil {
		return ProcessGroup{}, err
	}
	pg := created.toProcessGroup()
	c.l.Info("process group created",
		zap.String("id", pg.ID),
		zap.String("name", pg.Name),
		zap.Int64("version", vci.Version),
	)
	return pg, nil
}

// UpdateVersion changes the flow version of a versioned process group and waits for the change to complete
func (c *Client) UpdateVersion(ctx context.Context, pg ProcessGroup, version int64) error {
	if pg.VersionControl == nil {
		return status.ErrUpdateFailed.WrapMessage("process group %q is not under version control", pg.Name)
	}
	vci := *pg.VersionControl
	vci.GroupID = pg.ID
	vci.Version = version
	revision := pg.Revision
	revision.ClientID = c.clientID

	payload := versionControlInformationEntity{
		ProcessGroupRevision:      revision,
		VersionControlInformation: vci,
	}
	var request updateRequestEntity
	if err := c.call(ctx, http.MethodPost, payload, &request, "versions", "update-requests", "process-groups", pg.ID); err != nil {
		return err
	}
	requestID := request.Request.RequestID
	if requestID == "" {
		return status.ErrDecode.WrapMessage("update request has no identifier")
	}
	defer c.deleteUpdateRequest(requestID)

	if !request.Request.Complete {
		if err := c.waitForUpdate(ctx, pg, requestID, &request); err != nil {
			return err
		}
	}

	if reason := request.Request.FailureReason; reason != "" {
		return status.ErrUpdateFailed.WrapMessage("process group %q: %s", pg.Name, reason)
	}
	c.l.Info("process group updated", zap.String("id", pg.ID), zap.String("name", pg.Name), zap.Int64("version", version))
	return nil
}

// waitForUpdate polls an update request until NiFi reports it complete, for at most the update timeout
func (c *Client) waitForUpdate(ctx context.Context, pg ProcessGroup, requestID string, request *updateRequestEntity) error {
	waitCtx, cancel := context.WithTimeout(ctx, c.updateTimeout)
	defer cancel()

	polls := 0
	err := backoff.Retry(func() error {
		polls++
		if err := c.call(waitCtx, http.MethodGet, nil, request, "versions", "update-requests", requestID); err != nil {
			return backoff.Permanent(err)
		}
		c.l.Debug("waiting for version update",
			zap.String("group", pg.Name),
			zap.Int("percent", request.Request.PercentCompleted),
			zap.String("state", request.Request.State),
		)
		if !request.Request.Complete {
			return errUpdatePending
		}
		return nil
	}, backoff.WithContext(backoff.NewConstantBackOff(c.pollInterval), waitCtx))

	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return status.ErrUpdateFailed.Wrap(ctx.Err())
	case waitCtx.Err() != nil:
		return status.ErrUpdateTimeout.WrapMessage("process group %q: request %s still running after %s (%d polls)",
			pg.Name, requestID, c.updateTimeout, polls)
	default:
		return err
	}
}

// deleteUpdateRequest releases a completed update request. It must run even if the caller's context is done.
func (c *Client) deleteUpdateRequest(requestID string) {
	timeout := c.base.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := c.call(ctx, http.MethodDelete, nil, nil, "versions", "update-requests", requestID); err != nil {
		c.l.Warn("could not delete update request", zap.String("request", requestID), zap.Error(err))
	}
}

func (c *Client) url(segments ...string) string {
	escaped := make([]string, 0, len(segments)+1)
	escaped = append(escaped, c.endpoint.String())
	for _, segment := range segments {
		escaped = append(escaped, url.PathEscape(segment))
	}
	return strings.Join(escaped, "/")
}

func (c *Client) call(ctx context.Context, method string, payload, target interface{}, segments ...string) error {
	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return status.ErrNiFiAPI.Wrap(err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(segments...), body)
	if err != nil {
		return status.ErrNiFiAPI.Wrap(err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	code, raw, err := c.do(req)
	if err != nil {
		return status.ErrNiFiAPI.Wrap(err)
	}
	if code < 200 || code > 299 {
		return apiError(req, code, raw)
	}
	if target == nil || len(raw) == 0 {
		return nil
	}
	if err = json.Unmarshal(raw, target); err != nil {
		return status.ErrDecode.Wrap(err)
	}
	return nil
}

func (c *Client) do(req *http.Request) (int, []byte, error) {
	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := ioutil.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return 0, nil, err
	}
	c.l.Debug("NiFi call",
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)
	return resp.StatusCode, raw, nil
}

func apiError(req *http.Request, code int, body []byte) error {
	if len(body) > errorBodySnippet {
		body = body[:errorBodySnippet]
	}
	cause := fmt.Errorf("%s %s: HTTP %d: %s", req.Method, req.URL.Path, code, bytes.TrimSpace(body))
	switch code {
	case http.StatusNotFound:
		return status.ErrNotFound.Wrap(cause)
	case http.StatusUnauthorized, http.StatusForbidden:
		return status.ErrUnauthorized.Wrap(cause)
	default:
		return status.ErrNiFiAPI.Wrap(cause)
	}
}
