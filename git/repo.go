// Package git wraps go-git for the release workflows: remotes and their
// credentials, commit ranges, clones and verified pushes.
//
// A Repo is not safe for concurrent use, and two workflows must not run
// against the same working tree at once; nothing here locks the index.
package git

import (
	"context"
	"errors"
	"fmt"
	"io"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// ErrCloneFailure wraps every failure to clone the upstream repository.
var ErrCloneFailure = errors.New("clone failed")

// ErrNotRepository is returned when a path is not inside a git work tree.
var ErrNotRepository = errors.New("not a git repository")

// Repo is a repository on disk.
type Repo struct {
	path string
	repo *gogit.Repository
}

// Open opens the repository containing path, walking up to the work tree
// root like git does.
func Open(path string) (*Repo, error) {
	repo, err := gogit.PlainOpenWithOptions(path, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotRepository, path, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("%w: %s has no work tree: %v", ErrNotRepository, path, err)
	}
	return &Repo{path: wt.Filesystem.Root(), repo: repo}, nil
}

// Clone clones remote into dir with mainline checked out and every tag
// fetched. The clone's remote is always named origin.
func Clone(ctx context.Context, dir string, remote Remote, mainline string, auth *Auth, progress io.Writer) (*Repo, error) {
	opts := &gogit.CloneOptions{
		URL:           remote.URL,
		RemoteName:    gogit.DefaultRemoteName,
		ReferenceName: plumbing.NewBranchReferenceName(mainline),
		Tags:          gogit.AllTags,
		Progress:      progress,
	}
	if auth != nil {
		opts.Auth = auth.Method
		opts.InsecureSkipTLS = auth.InsecureSkipTLS
		opts.CABundle = auth.CABundle
	}

	repo, err := gogit.PlainCloneContext(ctx, dir, false, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCloneFailure, remote.URL, authError(err))
	}
	return &Repo{path: dir, repo: repo}, nil
}

// Path is the work tree root.
func (r *Repo) Path() string {
	return r.path
}

// Remote looks up a configured remote by name.
func (r *Repo) Remote(name string) (Remote, error) {
	rem, err := r.repo.Remote(name)
	if err != nil {
		return Remote{}, fmt.Errorf("remote %q: %w", name, err)
	}
	urls := rem.Config().URLs
	if len(urls) == 0 {
		return Remote{}, fmt.Errorf("remote %q has no URL", name)
	}
	return NewRemote(name, urls[0]), nil
}

// CurrentBranch gets the short name of the checked-out branch. A detached
// HEAD is an error.
func (r *Repo) CurrentBranch() (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		return "", fmt.Errorf("HEAD is detached at %s", head.Hash())
	}
	return head.Name().Short(), nil
}
