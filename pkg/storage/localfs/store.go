// Copyright © 2018 One Concern

package localfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/oneconcern/registrysync/pkg/storage"
	"github.com/oneconcern/registrysync/pkg/storage/status"
	"github.com/spf13/afero"
)

// stagedPrefix marks objects being written, before they are renamed into place
const stagedPrefix = ".put-stage-"

// Option for the local file system store
type Option func(*localFS)

// Root sets the directory under which keys are resolved. It defaults to the current directory.
func Root(dir string) Option {
	return func(l *localFS) {
		if dir != "" {
			l.root = dir
		}
	}
}

// New creates a new local file system backed storage model.
//
// Objects are written atomically: the content is staged in a temporary file
// in the same directory, synced, then renamed into place.
func New(fs afero.Fs, opts ...Option) storage.Store {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	l := &localFS{
		fs:   fs,
		root: ".",
	}
	for _, apply := range opts {
		apply(l)
	}
	return l
}

type localFS struct {
	fs   afero.Fs
	root string
}

func (l *localFS) path(key string) string {
	return filepath.Join(l.root, filepath.FromSlash(key))
}

func (l *localFS) Has(ctx context.Context, key string) (bool, error) {
	fi, err := l.fs.Stat(l.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	return !fi.IsDir(), nil
}

func (l *localFS) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	has, err := l.Has(ctx, key)
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, status.ErrNotExists.WrapMessage("key %q in %v", key, l)
	}
	return l.fs.Open(l.path(key))
}

func (l *localFS) Put(ctx context.Context, key string, source io.Reader) error {
	if strings.HasPrefix(filepath.Base(key), stagedPrefix) {
		return status.ErrInvalidResource.WrapMessage("key %q conflicts with put staging area name %q", key, stagedPrefix)
	}
	target := l.path(key)
	dir := filepath.Dir(target)
	if err := l.fs.MkdirAll(dir, 0700); err != nil {
		return status.ErrWrite.Wrap(fmt.Errorf("ensuring directories for %q: %w", key, err))
	}

	staged, err := afero.TempFile(l.fs, dir, stagedPrefix+filepath.Base(target)+"-")
	if err != nil {
		return status.ErrWrite.Wrap(fmt.Errorf("staging record for %q: %w", key, err))
	}
	stagedName := staged.Name()

	_, err = io.Copy(staged, source)
	if err == nil {
		err = staged.Sync()
	}
	if cerr := staged.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = l.fs.Remove(stagedName)
		return status.ErrWrite.Wrap(fmt.Errorf("write record for %q: %w", key, err))
	}

	if err = l.fs.Rename(stagedName, target); err != nil {
		_ = l.fs.Remove(stagedName)
		return status.ErrWrite.Wrap(fmt.Errorf("rename record for %q: %w", key, err))
	}

	// persist the rename itself
	if d, err := l.fs.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}

func (l *localFS) Delete(ctx context.Context, key string) error {
	if err := l.fs.Remove(l.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing %q: %w", key, err)
	}
	return nil
}

func (l *localFS) String() string {
	const localfs = "localfs"
	if l.root == "." {
		return localfs
	}
	return localfs + "@" + l.root
}
