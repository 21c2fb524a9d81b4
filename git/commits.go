package git

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ErrHistoryWalkFailure wraps failures to resolve or walk commit history.
var ErrHistoryWalkFailure = errors.New("history walk failed")

// CommitLogEntry is a read-only projection of one commit.
type CommitLogEntry struct {
	ID        string
	Message   string
	Author    string
	Committer string
	Timestamp time.Time
}

// Summary is the first line of the commit message.
func (e CommitLogEntry) Summary() string {
	line, _, _ := strings.Cut(strings.TrimSpace(e.Message), "\n")
	return line
}

// ShortID is the abbreviated commit id.
func (e CommitLogEntry) ShortID() string {
	if len(e.ID) > 8 {
		return e.ID[:8]
	}
	return e.ID
}

// ListCommits returns every commit reachable from toRef and not from
// fromRef, newest first by committer time. Both refs may be tags, branches
// or hashes. The repository is never modified.
func (r *Repo) ListCommits(ctx context.Context, fromRef, toRef string) ([]CommitLogEntry, error) {
	from, err := r.resolve(fromRef)
	if err != nil {
		return nil, err
	}
	to, err := r.resolve(toRef)
	if err != nil {
		return nil, err
	}

	// Collect everything reachable from the lower bound
	seen := make(map[plumbing.Hash]struct{})
	err = r.walk(ctx, from, func(c *object.Commit) error {
		seen[c.Hash] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var entries []CommitLogEntry
	err = r.walk(ctx, to, func(c *object.Commit) error {
		if _, ok := seen[c.Hash]; ok {
			return nil
		}
		entries = append(entries, CommitLogEntry{
			ID:        c.Hash.String(),
			Message:   c.Message,
			Author:    c.Author.Name,
			Committer: c.Committer.Name,
			Timestamp: c.Committer.When,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *Repo) resolve(rev string) (plumbing.Hash, error) {
	h, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("%w: failed to resolve %s: %v", ErrHistoryWalkFailure, rev, err)
	}
	return *h, nil
}

func (r *Repo) walk(ctx context.Context, from plumbing.Hash, fn func(*object.Commit) error) error {
	iter, err := r.repo.Log(&gogit.LogOptions{From: from, Order: gogit.LogOrderCommitterTime})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrHistoryWalkFailure, err)
	}
	defer iter.Close()

	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fn(c)
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrHistoryWalkFailure, err)
	}
	return nil
}
