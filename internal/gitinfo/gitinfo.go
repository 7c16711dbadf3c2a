// Package gitinfo reads per-file history from the Git repository holding
// the documents.
package gitinfo

import (
	stderrors "errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"git.home.luguber.info/inful/mdpipeline/internal/foundation/errors"
)

var errStop = stderrors.New("stop")

// Repo answers last-modified queries for files in one repository.
type Repo struct {
	repo *git.Repository
	root string

	mu    sync.Mutex
	cache map[string]time.Time
}

// Open finds the repository containing path, searching parent directories.
func Open(path string) (*Repo, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, errors.FileSystemError("open git repository").WithCause(err).WithContext("path", path).Build()
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, errors.FileSystemError("repository has no worktree").WithCause(err).WithContext("path", path).Build()
	}
	root, err := filepath.Abs(wt.Filesystem.Root())
	if err != nil {
		return nil, errors.FileSystemError("resolve repository root").WithCause(err).Build()
	}
	return &Repo{repo: repo, root: root, cache: make(map[string]time.Time)}, nil
}

// Root returns the absolute worktree root.
func (r *Repo) Root() string { return r.root }

// LastModified returns the committer time of the newest commit touching
// path. ok is false for untracked files.
func (r *Repo) LastModified(path string) (t time.Time, ok bool, err error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return time.Time{}, false, errors.FileSystemError("resolve path").WithCause(err).WithContext("path", path).Build()
	}
	rel, err := filepath.Rel(r.root, abs)
	if err != nil {
		return time.Time{}, false, errors.FileSystemError("path outside repository").WithCause(err).WithContext("path", path).Build()
	}
	rel = filepath.ToSlash(rel)

	r.mu.Lock()
	defer r.mu.Unlock()
	if t, hit := r.cache[rel]; hit {
		return t, !t.IsZero(), nil
	}

	head, err := r.repo.Head()
	if err != nil {
		return time.Time{}, false, errors.FileSystemError("resolve HEAD").WithCause(err).Build()
	}
	iter, err := r.repo.Log(&git.LogOptions{From: head.Hash(), FileName: &rel, Order: git.LogOrderCommitterTime})
	if err != nil {
		return time.Time{}, false, errors.FileSystemError("read git log").WithCause(err).WithContext("path", rel).Build()
	}
	defer iter.Close()

	var found time.Time
	err = iter.ForEach(func(c *object.Commit) error {
		found = c.Committer.When.UTC()
		return errStop
	})
	if err != nil && !stderrors.Is(err, errStop) {
		return time.Time{}, false, errors.FileSystemError("walk git log").WithCause(err).WithContext("path", rel).Build()
	}
	r.cache[rel] = found
	return found, !found.IsZero(), nil
}
