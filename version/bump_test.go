package version

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initRepo(t *testing.T, manifest, content string) (string, *gogit.Repository) {
	t.Helper()
	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)
	writeFile(t, filepath.Join(dir, manifest), content)

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(manifest)
	require.NoError(t, err)
	sig := &object.Signature{Name: "dev", Email: "dev@example.com", When: time.Unix(1700000000, 0)}
	_, err = wt.Commit("initial", &gogit.CommitOptions{Author: sig})
	require.NoError(t, err)
	return dir, repo
}

func TestManifestBumperCommitsAndTags(t *testing.T) {
	dir, repo := initRepo(t, "package.json", `{"name": "demo", "version": "2.5.0"}`)

	b := ManifestBumper{Manifest: "package.json"}
	res, err := b.Bump(context.Background(), dir, Patch, "")
	require.NoError(t, err)
	assert.Equal(t, "2.5.1", res.NewVersion.String())

	head, err := repo.Head()
	require.NoError(t, err)
	assert.Equal(t, head.Hash().String(), res.CommitID)

	commit, err := repo.CommitObject(head.Hash())
	require.NoError(t, err)
	assert.Equal(t, "release v2.5.1", commit.Message)

	tag, err := repo.Reference(plumbing.NewTagReferenceName("v2.5.1"), true)
	require.NoError(t, err)
	tagObj, err := repo.TagObject(tag.Hash())
	require.NoError(t, err)
	assert.Equal(t, head.Hash(), tagObj.Target)

	recorded, err := ReadManifest(filepath.Join(dir, "package.json"))
	require.NoError(t, err)
	assert.Equal(t, "2.5.1", recorded)
}

func TestManifestBumperRejectsBadLevel(t *testing.T) {
	dir, _ := initRepo(t, "VERSION", "1.0.0\n")

	_, err := ManifestBumper{Manifest: "VERSION"}.Bump(context.Background(), dir, "sideways", "")
	assert.ErrorIs(t, err, ErrInvalidVersionInput)

	data, err := os.ReadFile(filepath.Join(dir, "VERSION"))
	require.NoError(t, err)
	assert.Equal(t, "1.0.0\n", string(data))
}

func TestCommandBumperWithoutCommand(t *testing.T) {
	_, err := CommandBumper{Manifest: "VERSION"}.Bump(context.Background(), t.TempDir(), Patch, "")
	assert.ErrorIs(t, err, ErrBumpFailed)
}

func TestManifestBumperNestedVersionKey(t *testing.T) {
	dir, repo := initRepo(t, "package.json", `{"name": "demo", "config": {"version": "9.9.9"}, "version": "2.4.0"}`)

	res, err := ManifestBumper{Manifest: "package.json"}.Bump(context.Background(), dir, Minor, "")
	require.NoError(t, err)
	assert.Equal(t, "2.5.0", res.NewVersion.String())

	recorded, err := ReadManifest(filepath.Join(dir, "package.json"))
	require.NoError(t, err)
	assert.Equal(t, "2.5.0", recorded)

	head, err := repo.Head()
	require.NoError(t, err)
	commit, err := repo.CommitObject(head.Hash())
	require.NoError(t, err)
	file, err := commit.File("package.json")
	require.NoError(t, err)
	content, err := file.Contents()
	require.NoError(t, err)
	assert.Contains(t, content, `"config": {"version": "9.9.9"}`)
	assert.Contains(t, content, `"version": "2.5.0"}`)
}

func TestVerifyManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "package.json")
	writeFile(t, path, `{"version": "2.4.0"}`)

	assert.NoError(t, verifyManifest(path, MustParse("2.4.0")))
	err := verifyManifest(path, MustParse("2.5.0"))
	assert.ErrorIs(t, err, ErrManifest)
	assert.Contains(t, err.Error(), "records 2.4.0 after writing 2.5.0")
}
