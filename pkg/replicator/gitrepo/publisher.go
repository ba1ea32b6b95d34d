package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/storage/filesystem"
	"github.com/oneconcern/registrysync/pkg/model"
	"github.com/oneconcern/registrysync/pkg/replicator/status"
	"go.uber.org/zap"
)

const (
	// DefaultBranch receiving commits
	DefaultBranch = "main"

	// DefaultAuthorName signs commits
	DefaultAuthorName = "registrysync"

	// DefaultAuthorEmail signs commits
	DefaultAuthorEmail = "registrysync@localhost"

	remoteName = "origin"
)

// Config for the git publisher
type Config struct {
	// Dir is the location of the working copy
	Dir string

	// RemoteURL is optional. When set, commits are pushed there.
	RemoteURL string
	Branch    string

	// Token authenticates against an http(s) remote
	Token       string
	AuthorName  string
	AuthorEmail string
}

// Publisher commits file records to a git working copy
type Publisher struct {
	cfg       Config
	fs        billy.Filesystem
	repo      *git.Repository
	wt        *git.Worktree
	auth      transport.AuthMethod
	branchRef plumbing.ReferenceName
	remoteRef plumbing.ReferenceName

	mx  sync.Mutex
	now func() time.Time
	l   *zap.Logger
}

// New git publisher. The working copy is opened, initialized or cloned as needed.
func New(ctx context.Context, cfg Config, opts ...Option) (*Publisher, error) {
	if cfg.Branch == "" {
		cfg.Branch = DefaultBranch
	}
	if cfg.AuthorName == "" {
		cfg.AuthorName = DefaultAuthorName
	}
	if cfg.AuthorEmail == "" {
		cfg.AuthorEmail = DefaultAuthorEmail
	}

	p := &Publisher{
		cfg:       cfg,
		branchRef: plumbing.NewBranchReferenceName(cfg.Branch),
		remoteRef: plumbing.NewRemoteReferenceName(remoteName, cfg.Branch),
		now:       time.Now,
		l:         zap.NewNop(),
	}
	for _, apply := range opts {
		apply(p)
	}
	if p.fs == nil {
		if cfg.Dir == "" {
			return nil, status.ErrInvalidConfig.WrapMessage("a working copy directory is required")
		}
		p.fs = osfs.New(cfg.Dir)
	}
	if cfg.Token != "" && isHTTP(cfg.RemoteURL) {
		p.auth = &githttp.BasicAuth{
			Username: "token",
			Password: cfg.Token,
		}
	}

	if err := p.open(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func isHTTP(u string) bool {
	return strings.HasPrefix(u, "https://") || strings.HasPrefix(u, "http://")
}

func (p *Publisher) String() string {
	if p.cfg.RemoteURL != "" {
		return fmt.Sprintf("git:%s@%s", redact(p.cfg.RemoteURL), p.cfg.Branch)
	}
	return fmt.Sprintf("git:%s@%s", p.fs.Root(), p.cfg.Branch)
}

// redact strips credentials from a remote URL
func redact(u string) string {
	if i := strings.Index(u, "@"); i >= 0 && isHTTP(u) {
		scheme := u[:strings.Index(u, "://")+3]
		return scheme + u[i+1:]
	}
	return u
}

func (p *Publisher) open(ctx context.Context) error {
	dotGit, err := p.fs.Chroot(git.GitDirName)
	if err != nil {
		return status.ErrInvalidConfig.Wrap(err)
	}
	storer := filesystem.NewStorage(dotGit, cache.NewObjectLRUDefault())

	repo, err := git.Open(storer, p.fs)
	switch {
	case err == nil:
		p.l.Info("opened git working copy", zap.String("root", p.fs.Root()))

	case errors.Is(err, git.ErrRepositoryNotExists) && p.cfg.RemoteURL != "":
		repo, err = git.CloneContext(ctx, storer, p.fs, &git.CloneOptions{
			URL:           p.cfg.RemoteURL,
			Auth:          p.auth,
			RemoteName:    remoteName,
			ReferenceName: p.branchRef,
			SingleBranch:  true,
		})
		if errors.Is(err, transport.ErrEmptyRemoteRepository) || errors.Is(err, git.NoMatchingRefSpecError{}) || errors.Is(err, plumbing.ErrReferenceNotFound) {
			// nothing to check out yet: the first commit creates the branch
			p.l.Info("remote branch does not exist yet", zap.String("remote", redact(p.cfg.RemoteURL)), zap.String("branch", p.cfg.Branch))
			repo, err = git.Open(storer, p.fs)
			if errors.Is(err, git.ErrRepositoryNotExists) {
				repo, err = git.InitWithOptions(storer, p.fs, git.InitOptions{DefaultBranch: p.branchRef})
			}
		}
		if err != nil {
			return status.ErrNotFound.Wrap(fmt.Errorf("cloning %s: %w", redact(p.cfg.RemoteURL), err))
		}
		p.l.Info("cloned git repository", zap.String("remote", redact(p.cfg.RemoteURL)), zap.String("root", p.fs.Root()))

	case errors.Is(err, git.ErrRepositoryNotExists):
		repo, err = git.InitWithOptions(storer, p.fs, git.InitOptions{DefaultBranch: p.branchRef})
		if err != nil {
			return status.ErrInvalidConfig.Wrap(err)
		}
		p.l.Info("initialized git working copy", zap.String("root", p.fs.Root()))

	default:
		return status.ErrInvalidConfig.Wrap(err)
	}

	p.repo = repo
	if p.wt, err = repo.Worktree(); err != nil {
		return status.ErrInvalidConfig.Wrap(err)
	}

	if p.cfg.RemoteURL != "" {
		if err = p.ensureRemote(); err != nil {
			return err
		}
	}
	return p.checkoutBranch()
}

func (p *Publisher) ensureRemote() error {
	remote, err := p.repo.Remote(remoteName)
	if errors.Is(err, git.ErrRemoteNotFound) {
		_, err = p.repo.CreateRemote(&config.RemoteConfig{
			Name: remoteName,
			URLs: []string{p.cfg.RemoteURL},
		})
		if err != nil {
			return status.ErrInvalidConfig.Wrap(err)
		}
		return nil
	}
	if err != nil {
		return status.ErrInvalidConfig.Wrap(err)
	}
	if urls := remote.Config().URLs; len(urls) == 0 || urls[0] != p.cfg.RemoteURL {
		return status.ErrInvalidConfig.WrapMessage("working copy %s tracks another remote than %s", p.fs.Root(), redact(p.cfg.RemoteURL))
	}
	return nil
}

// checkoutBranch points HEAD at the publishing branch and aligns the worktree with it
func (p *Publisher) checkoutBranch() error {
	if err := p.repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, p.branchRef)); err != nil {
		return status.ErrInvalidConfig.Wrap(err)
	}
	ref, err := p.repo.Reference(p.branchRef, true)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil
	}
	if err != nil {
		return status.ErrInvalidConfig.Wrap(err)
	}
	if err = p.wt.Reset(&git.ResetOptions{Commit: ref.Hash(), Mode: git.HardReset}); err != nil {
		return status.ErrInvalidConfig.Wrap(err)
	}
	return nil
}

// sync brings the local branch in line with the remote branch
func (p *Publisher) sync(ctx context.Context) error {
	err := p.repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: remoteName,
		Auth:       p.auth,
		RefSpecs:   []config.RefSpec{config.RefSpec(fmt.Sprintf("+%s:%s", p.branchRef, p.remoteRef))},
		Force:      true,
	})
	switch {
	case err == nil, errors.Is(err, git.NoErrAlreadyUpToDate):
	case errors.Is(err, transport.ErrEmptyRemoteRepository), errors.Is(err, git.NoMatchingRefSpecError{}):
		return nil
	default:
		return status.ErrPublish.Wrap(fmt.Errorf("fetching %s: %w", redact(p.cfg.RemoteURL), err))
	}

	ref, err := p.repo.Reference(p.remoteRef, true)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil
	}
	if err != nil {
		return status.ErrPublish.Wrap(err)
	}
	return p.resetTo(ref.Hash())
}

func (p *Publisher) resetTo(hash plumbing.Hash) error {
	if hash.IsZero() {
		if err := p.repo.Storer.RemoveReference(p.branchRef); err != nil {
			return status.ErrPublish.Wrap(err)
		}
		return nil
	}
	if err := p.repo.Storer.SetReference(plumbing.NewHashReference(p.branchRef, hash)); err != nil {
		return status.ErrPublish.Wrap(err)
	}
	if err := p.wt.Reset(&git.ResetOptions{Commit: hash, Mode: git.HardReset}); err != nil {
		return status.ErrPublish.Wrap(err)
	}
	return nil
}

func (p *Publisher) head() (plumbing.Hash, error) {
	ref, err := p.repo.Reference(p.branchRef, true)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return plumbing.ZeroHash, nil
	}
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return ref.Hash(), nil
}

// Publish writes the record to the working copy and commits it. Unchanged content produces no commit.
func (p *Publisher) Publish(ctx context.Context, rec model.FileRecord) error {
	p.mx.Lock()
	defer p.mx.Unlock()

	if p.cfg.RemoteURL != "" {
		if err := p.sync(ctx); err != nil {
			return err
		}
	}

	before, err := p.head()
	if err != nil {
		return status.ErrPublish.Wrap(err)
	}

	if err = p.fs.MkdirAll(path.Dir(rec.Path), 0755); err != nil {
		return status.ErrPublish.Wrap(err)
	}
	if err = util.WriteFile(p.fs, rec.Path, rec.Content, 0644); err != nil {
		return status.ErrPublish.Wrap(err)
	}
	if _, err = p.wt.Add(rec.Path); err != nil {
		return status.ErrPublish.Wrap(err)
	}

	st, err := p.wt.Status()
	if err != nil {
		return status.ErrPublish.Wrap(err)
	}
	if fileStatus, changed := st[rec.Path]; !changed || fileStatus.Staging == git.Unmodified {
		p.l.Debug("record unchanged, nothing to commit", zap.String("path", rec.Path))
		return nil
	}

	hash, err := p.wt.Commit(rec.Message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  p.cfg.AuthorName,
			Email: p.cfg.AuthorEmail,
			When:  p.now(),
		},
	})
	if err != nil {
		_ = p.resetTo(before)
		return status.ErrPublish.Wrap(err)
	}

	if p.cfg.RemoteURL != "" {
		err = p.repo.PushContext(ctx, &git.PushOptions{
			RemoteName: remoteName,
			Auth:       p.auth,
			RefSpecs:   []config.RefSpec{config.RefSpec(fmt.Sprintf("%s:%s", p.branchRef, p.branchRef))},
		})
		if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
			if rerr := p.resetTo(before); rerr != nil {
				p.l.Warn("could not reset branch after failed push", zap.Error(rerr))
			}
			return status.ErrPush.Wrap(err)
		}
	}

	p.l.Debug("committed to git",
		zap.String("path", rec.Path),
		zap.String("commit", hash.String()),
		zap.String("branch", p.cfg.Branch),
	)
	return nil
}

// Revision returns the blob hash of a path at the head of the branch. found is false when the path does not exist.
func (p *Publisher) Revision(_ context.Context, pth string) (hash string, found bool, err error) {
	p.mx.Lock()
	defer p.mx.Unlock()

	head, err := p.head()
	if err != nil {
		return "", false, status.ErrProbe.Wrap(err)
	}
	if head.IsZero() {
		return "", false, nil
	}
	commit, err := p.repo.CommitObject(head)
	if err != nil {
		return "", false, status.ErrProbe.Wrap(err)
	}
	file, err := commit.File(pth)
	if errors.Is(err, object.ErrFileNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, status.ErrProbe.Wrap(err)
	}
	return file.Hash.String(), true, nil
}
