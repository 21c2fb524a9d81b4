package version

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	gogit "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ErrBumpFailed wraps failures of a version bump tool.
var ErrBumpFailed = errors.New("version bump failed")

// BumpResult describes what a bump left behind in the repository: the new
// version recorded in the manifest, the commit carrying it and its tag.
type BumpResult struct {
	NewVersion Version
	CommitID   string
}

// Bumper edits the manifest for a new release, commits it and tags the
// commit. It never pushes.
type Bumper interface {
	Bump(ctx context.Context, repoPath string, level Level, preID string) (BumpResult, error)
}

// ManifestBumper is the built-in bump tool. It plans the next version from
// the manifest, rewrites it, commits the change and creates an annotated
// v{version} tag using go-git.
type ManifestBumper struct {
	// Manifest is the manifest path relative to the repository root.
	Manifest string
	// Message is a fmt template for the commit and tag message, receiving
	// the new version.
	Message string
	// Now is overridable for tests.
	Now func() time.Time
}

// Bump implements Bumper.
func (b ManifestBumper) Bump(ctx context.Context, repoPath string, level Level, preID string) (BumpResult, error) {
	repo, err := gogit.PlainOpen(repoPath)
	if err != nil {
		return BumpResult{}, fmt.Errorf("%w: failed to open %s: %v", ErrBumpFailed, repoPath, err)
	}

	manifest := filepath.Join(repoPath, b.Manifest)
	current, err := ReadManifest(manifest)
	if err != nil {
		return BumpResult{}, err
	}
	t, err := Plan(current, level, preID)
	if err != nil {
		return BumpResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return BumpResult{}, err
	}
	if err := WriteManifest(manifest, t.Next); err != nil {
		return BumpResult{}, err
	}
	if err := verifyManifest(manifest, t.Next); err != nil {
		return BumpResult{}, err
	}

	wt, err := repo.Worktree()
	if err != nil {
		return BumpResult{}, fmt.Errorf("%w: %v", ErrBumpFailed, err)
	}
	if _, err := wt.Add(filepath.ToSlash(b.Manifest)); err != nil {
		return BumpResult{}, fmt.Errorf("%w: failed to stage %s: %v", ErrBumpFailed, b.Manifest, err)
	}

	sig := b.signature(repo)
	msg := b.message(t.Next)
	hash, err := wt.Commit(msg, &gogit.CommitOptions{Author: sig, Committer: sig})
	if err != nil {
		return BumpResult{}, fmt.Errorf("%w: failed to commit: %v", ErrBumpFailed, err)
	}
	if _, err := repo.CreateTag(t.NextTag(), hash, &gogit.CreateTagOptions{Tagger: sig, Message: msg}); err != nil {
		return BumpResult{}, fmt.Errorf("%w: failed to create tag %s: %v", ErrBumpFailed, t.NextTag(), err)
	}

	return BumpResult{NewVersion: t.Next, CommitID: hash.String()}, nil
}

// verifyManifest reads the manifest back and checks it now records want.
func verifyManifest(path string, want Version) error {
	got, err := ReadManifest(path)
	if err != nil {
		return err
	}
	v, err := Parse(got)
	if err != nil {
		return fmt.Errorf("%w: %s records %q: %v", ErrManifest, path, got, err)
	}
	if Compare(v, want) != 0 {
		return fmt.Errorf("%w: %s records %s after writing %s", ErrManifest, path, v, want)
	}
	return nil
}

func (b ManifestBumper) message(v Version) string {
	tmpl := b.Message
	if tmpl == "" {
		tmpl = "release %s"
	}
	return fmt.Sprintf(tmpl, v.Tag())
}

// signature uses the git identity from the repository or global config,
// falling back to a fixed release identity.
func (b ManifestBumper) signature(repo *gogit.Repository) *object.Signature {
	now := time.Now
	if b.Now != nil {
		now = b.Now
	}
	sig := &object.Signature{Name: "release", Email: "release@localhost", When: now()}
	for _, scope := range []gitconfig.Scope{gitconfig.LocalScope, gitconfig.GlobalScope} {
		cfg, err := repo.ConfigScoped(scope)
		if err != nil || cfg.User.Name == "" {
			continue
		}
		sig.Name, sig.Email = cfg.User.Name, cfg.User.Email
		break
	}
	return sig
}

// CommandBumper delegates the bump to an external command such as
// "npm version {level} --preid={preid}". The command runs in the repository
// root; afterwards the new version is read back from the manifest and the
// commit from HEAD.
type CommandBumper struct {
	Args     []string
	Manifest string
}

// Bump implements Bumper.
func (b CommandBumper) Bump(ctx context.Context, repoPath string, level Level, preID string) (BumpResult, error) {
	if len(b.Args) == 0 {
		return BumpResult{}, fmt.Errorf("%w: no bump command configured", ErrBumpFailed)
	}
	args := make([]string, 0, len(b.Args))
	for _, a := range b.Args {
		a = strings.ReplaceAll(a, "{level}", string(level))
		a = strings.ReplaceAll(a, "{preid}", preID)
		args = append(args, a)
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = repoPath
	output, err := cmd.CombinedOutput()
	if err != nil {
		return BumpResult{}, fmt.Errorf("%w: %s: %v\n%s", ErrBumpFailed, strings.Join(args, " "), err, output)
	}

	recorded, err := ReadManifest(filepath.Join(repoPath, b.Manifest))
	if err != nil {
		return BumpResult{}, err
	}
	next, err := Parse(recorded)
	if err != nil {
		return BumpResult{}, err
	}
	head, err := headCommit(repoPath)
	if err != nil {
		return BumpResult{}, err
	}
	return BumpResult{NewVersion: next, CommitID: head.String()}, nil
}

func headCommit(repoPath string) (plumbing.Hash, error) {
	repo, err := gogit.PlainOpen(repoPath)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("%w: failed to open %s: %v", ErrBumpFailed, repoPath, err)
	}
	ref, err := repo.Head()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("%w: failed to resolve HEAD: %v", ErrBumpFailed, err)
	}
	return ref.Hash(), nil
}
