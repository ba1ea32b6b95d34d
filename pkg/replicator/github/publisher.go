package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/oneconcern/registrysync/pkg/model"
	"github.com/oneconcern/registrysync/pkg/replicator/status"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	// DefaultAPIURL is the public GitHub API
	DefaultAPIURL = "https://api.github.com"

	// DefaultBranch receiving commits
	DefaultBranch = "main"

	// DefaultWritesPerSecond paces commits to stay clear of secondary rate limits
	DefaultWritesPerSecond = 1.0

	// DefaultTimeout of a single API call
	DefaultTimeout = 30 * time.Second

	apiVersion       = "2022-11-28"
	mediaType        = "application/vnd.github+json"
	maxResponseSize  = 32 << 20
	errorBodySnippet = 512
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Config for the GitHub publisher
type Config struct {
	// Repository as owner/name
	Repository string
	Branch     string
	Token      string
	APIURL     string
	Timeout    time.Duration

	// WritesPerSecond bounds the commit rate. Zero or less disables pacing.
	WritesPerSecond float64
}

// Publisher commits file records through the GitHub contents API
type Publisher struct {
	owner   string
	repo    string
	branch  string
	apiURL  string
	timeout time.Duration

	base    *http.Client
	client  *http.Client
	limiter *rate.Limiter
	l       *zap.Logger
}

type contentResponse struct {
	SHA string `json:"sha"`
}

type putContentRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Branch  string `json:"branch"`
	SHA     string `json:"sha,omitempty"`
}

// New GitHub publisher
func New(cfg Config, opts ...Option) (*Publisher, error) {
	parts := strings.Split(cfg.Repository, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, status.ErrInvalidConfig.WrapMessage("expected repository as owner/name, got %q", cfg.Repository)
	}
	if cfg.Token == "" {
		return nil, status.ErrInvalidConfig.WrapMessage("a GitHub token is required")
	}
	if cfg.Branch == "" {
		cfg.Branch = DefaultBranch
	}
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	limit := rate.Inf
	if cfg.WritesPerSecond > 0 {
		limit = rate.Limit(cfg.WritesPerSecond)
	}

	p := &Publisher{
		owner:   parts[0],
		repo:    parts[1],
		branch:  cfg.Branch,
		apiURL:  strings.TrimRight(cfg.APIURL, "/"),
		timeout: cfg.Timeout,
		base:    http.DefaultClient,
		limiter: rate.NewLimiter(limit, 1),
		l:       zap.NewNop(),
	}
	for _, apply := range opts {
		apply(p)
	}

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, p.base)
	p.client = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token}))
	p.client.Timeout = p.timeout
	return p, nil
}

func (p *Publisher) String() string {
	return fmt.Sprintf("github:%s/%s@%s", p.owner, p.repo, p.branch)
}

// Publish creates or updates the file at the record's path, as one commit on the branch
func (p *Publisher) Publish(ctx context.Context, rec model.FileRecord) error {
	sha, found, err := p.Revision(ctx, rec.Path)
	if err != nil {
		return err
	}

	payload := putContentRequest{
		Message: rec.Message,
		Content: base64.StdEncoding.EncodeToString(rec.Content),
		Branch:  p.branch,
	}
	if found {
		payload.SHA = sha
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return status.ErrPublish.Wrap(err)
	}

	if err = p.limiter.Wait(ctx); err != nil {
		return status.ErrPublish.Wrap(err)
	}

	resp, respBody, err := p.do(ctx, http.MethodPut, p.contentsURL(rec.Path), bytes.NewReader(body))
	if err != nil {
		return status.ErrPublish.Wrap(err)
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		p.l.Debug("committed to github",
			zap.String("path", rec.Path),
			zap.Bool("update", found),
			zap.String("branch", p.branch),
		)
		return nil
	case http.StatusConflict, http.StatusUnprocessableEntity:
		return status.ErrConflict.Wrap(apiError(http.MethodPut, rec.Path, resp.StatusCode, respBody))
	default:
		return publishError(apiError(http.MethodPut, rec.Path, resp.StatusCode, respBody), resp.StatusCode)
	}
}

// Revision returns the blob sha of a path on the branch. found is false when the path does not exist.
func (p *Publisher) Revision(ctx context.Context, pth string) (sha string, found bool, err error) {
	target := p.contentsURL(pth) + "?ref=" + url.QueryEscape(p.branch)
	resp, body, err := p.do(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", false, status.ErrProbe.Wrap(err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		var content contentResponse
		if err = json.Unmarshal(body, &content); err != nil {
			return "", false, status.ErrProbe.Wrap(err)
		}
		if content.SHA == "" {
			// e.g. the path is a directory
			return "", false, status.ErrProbe.WrapMessage("no blob sha for %q", pth)
		}
		return content.SHA, true, nil
	case http.StatusNotFound:
		return "", false, nil
	default:
		return "", false, status.ErrProbe.Wrap(publishError(apiError(http.MethodGet, pth, resp.StatusCode, body), resp.StatusCode))
	}
}

func (p *Publisher) contentsURL(pth string) string {
	segments := strings.Split(pth, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return fmt.Sprintf("%s/repos/%s/%s/contents/%s",
		p.apiURL, url.PathEscape(p.owner), url.PathEscape(p.repo), strings.Join(segments, "/"))
}

func (p *Publisher) do(ctx context.Context, method, target string, body io.Reader) (*http.Response, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Accept", mediaType)
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := ioutil.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, nil, err
	}
	return resp, respBody, nil
}

func apiError(method, pth string, code int, body []byte) error {
	if len(body) > errorBodySnippet {
		body = body[:errorBodySnippet]
	}
	return fmt.Errorf("%s %s: HTTP %d: %s", method, pth, code, bytes.TrimSpace(body))
}

func publishError(err error, code int) error {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return status.ErrUnauthorized.Wrap(err)
	case http.StatusNotFound:
		return status.ErrNotFound.Wrap(err)
	default:
		return status.ErrPublish.Wrap(err)
	}
}
