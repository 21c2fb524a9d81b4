package git

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	gogit "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRepo struct {
	t    *testing.T
	dir  string
	repo *gogit.Repository
	n    int
}

func newTestRepo(t *testing.T) *testRepo {
	t.Helper()
	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)
	return &testRepo{t: t, dir: dir, repo: repo}
}

func (r *testRepo) commit(author, msg string) plumbing.Hash {
	r.t.Helper()
	r.n++
	name := fmt.Sprintf("file-%d.txt", r.n)
	require.NoError(r.t, os.WriteFile(filepath.Join(r.dir, name), []byte(msg), 0o644))

	wt, err := r.repo.Worktree()
	require.NoError(r.t, err)
	_, err = wt.Add(name)
	require.NoError(r.t, err)
	when := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(r.n) * time.Minute)
	h, err := wt.Commit(msg, &gogit.CommitOptions{
		Author: &object.Signature{Name: author, Email: author + "@example.com", When: when},
	})
	require.NoError(r.t, err)
	return h
}

func (r *testRepo) tag(name string, h plumbing.Hash, annotated bool) {
	r.t.Helper()
	var opts *gogit.CreateTagOptions
	if annotated {
		opts = &gogit.CreateTagOptions{
			Tagger:  &object.Signature{Name: "rel", Email: "rel@example.com", When: time.Now()},
			Message: "release " + name,
		}
	}
	_, err := r.repo.CreateTag(name, h, opts)
	require.NoError(r.t, err)
}

func TestListCommitsBetweenTagAndBranch(t *testing.T) {
	tr := newTestRepo(t)
	tr.commit("ann", "initial")
	base := tr.commit("ann", "release 2.4.0")
	tr.tag("v2.4.0", base, true)
	tr.commit("bob", "feat: add export\n\nlong body")
	tip := tr.commit("cid", "fix: handle empty input")

	repo, err := Open(tr.dir)
	require.NoError(t, err)

	commits, err := repo.ListCommits(context.Background(), "v2.4.0", "master")
	require.NoError(t, err)
	require.Len(t, commits, 2)

	assert.Equal(t, tip.String(), commits[0].ID)
	assert.Equal(t, "fix: handle empty input", commits[0].Summary())
	assert.Equal(t, "cid", commits[0].Author)
	assert.Equal(t, "cid", commits[0].Committer)
	assert.Equal(t, "feat: add export", commits[1].Summary())
	assert.True(t, commits[0].Timestamp.After(commits[1].Timestamp))
	assert.Len(t, commits[0].ShortID(), 8)
}

func TestListCommitsIsRestartableAndReadOnly(t *testing.T) {
	tr := newTestRepo(t)
	from := tr.commit("ann", "one")
	tr.tag("v1.0.0", from, false)
	to := tr.commit("ann", "two")
	tr.tag("v1.0.1", to, true)

	repo, err := Open(tr.dir)
	require.NoError(t, err)

	first, err := repo.ListCommits(context.Background(), "v1.0.0", "v1.0.1")
	require.NoError(t, err)
	second, err := repo.ListCommits(context.Background(), "v1.0.0", "v1.0.1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	require.Len(t, first, 1)
	assert.Equal(t, to.String(), first[0].ID)

	head, err := tr.repo.Head()
	require.NoError(t, err)
	assert.Equal(t, to, head.Hash())
}

func TestListCommitsEmptyRange(t *testing.T) {
	tr := newTestRepo(t)
	h := tr.commit("ann", "one")
	tr.tag("v1.0.0", h, false)

	repo, err := Open(tr.dir)
	require.NoError(t, err)
	commits, err := repo.ListCommits(context.Background(), "v1.0.0", "master")
	require.NoError(t, err)
	assert.Empty(t, commits)
}

func TestListCommitsUnknownRef(t *testing.T) {
	tr := newTestRepo(t)
	tr.commit("ann", "one")

	repo, err := Open(tr.dir)
	require.NoError(t, err)
	_, err = repo.ListCommits(context.Background(), "v9.9.9", "master")
	assert.ErrorIs(t, err, ErrHistoryWalkFailure)
}

func TestListCommitsHonoursCancellation(t *testing.T) {
	tr := newTestRepo(t)
	from := tr.commit("ann", "one")
	tr.tag("v1.0.0", from, false)
	tr.commit("ann", "two")

	repo, err := Open(tr.dir)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = repo.ListCommits(ctx, "v1.0.0", "master")
	assert.ErrorIs(t, err, ErrHistoryWalkFailure)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRepoRemoteAndBranch(t *testing.T) {
	tr := newTestRepo(t)
	tr.commit("ann", "one")
	_, err := tr.repo.CreateRemote(&gitconfig.RemoteConfig{Name: "upstream", URLs: []string{"git@host:team/app.git"}})
	require.NoError(t, err)

	sub := filepath.Join(tr.dir, "nested")
	require.NoError(t, os.Mkdir(sub, 0o755))
	repo, err := Open(sub)
	require.NoError(t, err)
	assert.Equal(t, tr.dir, repo.Path())

	remote, err := repo.Remote("upstream")
	require.NoError(t, err)
	assert.Equal(t, NewRemote("upstream", "git@host:team/app.git"), remote)

	_, err = repo.Remote("origin")
	assert.Error(t, err)

	branch, err := repo.CurrentBranch()
	require.NoError(t, err)
	assert.Equal(t, "master", branch)
}

func TestOpenRejectsPlainDirectory(t *testing.T) {
	_, err := Open(t.TempDir())
	assert.ErrorIs(t, err, ErrNotRepository)
}

func TestLocalRefResolvesTagObject(t *testing.T) {
	tr := newTestRepo(t)
	h := tr.commit("ann", "one")
	tr.tag("v1.0.0", h, true)

	repo, err := Open(tr.dir)
	require.NoError(t, err)
	id, err := repo.LocalRef("refs/tags/v1.0.0")
	require.NoError(t, err)
	assert.NotEqual(t, h.String(), id)

	branch, err := repo.LocalRef("refs/heads/master")
	require.NoError(t, err)
	assert.Equal(t, h.String(), branch)
}

func TestListCommitsAcrossMerge(t *testing.T) {
	fs := memfs.New()
	r, err := gogit.Init(memory.NewStorage(), fs)
	require.NoError(t, err)
	wt, err := r.Worktree()
	require.NoError(t, err)

	n := 0
	commit := func(msg string, parents ...plumbing.Hash) plumbing.Hash {
		n++
		name := fmt.Sprintf("file-%d.txt", n)
		require.NoError(t, util.WriteFile(fs, name, []byte(msg), 0o644))
		_, err := wt.Add(name)
		require.NoError(t, err)
		sig := &object.Signature{Name: "ann", Email: "ann@example.com", When: time.Date(2024, 3, 1, 12, n, 0, 0, time.UTC)}
		h, err := wt.Commit(msg, &gogit.CommitOptions{Author: sig, Committer: sig, Parents: parents})
		require.NoError(t, err)
		return h
	}

	base := commit("release 2.4.0")
	_, err = r.CreateTag("v2.4.0", base, nil)
	require.NoError(t, err)
	side := commit("feat: side work", base)
	mainline := commit("fix: mainline work", base)
	merge := commit("Merge side work", mainline, side)

	repo := &Repo{repo: r}
	commits, err := repo.ListCommits(context.Background(), "v2.4.0", "master")
	require.NoError(t, err)

	ids := make([]string, len(commits))
	for i, c := range commits {
		ids[i] = c.ID
	}
	assert.Equal(t, []string{merge.String(), mainline.String(), side.String()}, ids)
}
