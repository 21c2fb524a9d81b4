// Package release drives the two release workflows. Cut publishes a new
// release branch and tag from the mainline of a scratch clone; Tag publishes
// a patch release from the checked-out release branch in place.
//
// Both follow resolve, (clone), plan, list, review, bump, publish. Nothing is
// pushed before the reviewer approves. Concurrent runs against the same
// repository are not supported.
package release

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"git_release_tool/config"
	"git_release_tool/git"
	"git_release_tool/log"
	"git_release_tool/review"
	"git_release_tool/version"
)

// Repository is what the workflows need from a repository on disk.
type Repository interface {
	Path() string
	Remote(name string) (git.Remote, error)
	CurrentBranch() (string, error)
	ListCommits(ctx context.Context, fromRef, toRef string) ([]git.CommitLogEntry, error)
	git.Publisher
}

// Opener opens the caller's repository.
type Opener func(path string) (Repository, error)

// Cloner clones remote into dir with mainline checked out.
type Cloner func(ctx context.Context, dir string, remote git.Remote, mainline string, auth *git.Auth) (Repository, error)

// Reviewer gates a commit range.
type Reviewer interface {
	Review(ctx context.Context, rangeName string, commits []git.CommitLogEntry) review.Decision
}

// Driver composes the release collaborators. Every field except Journal and
// ScratchDir is required.
type Driver struct {
	Log          logrus.FieldLogger
	Upstream     string
	Mainline     string
	Manifest     string
	Credentials  *git.CredentialResolver
	Reviewer     Reviewer
	Bumper       version.Bumper
	Orchestrator *git.Orchestrator
	Open         Opener
	Clone        Cloner
	Journal      *config.Journal
	// ScratchDir is the parent of scratch clones; empty means os.TempDir.
	ScratchDir string
}

// CutOptions selects the release level for Cut.
type CutOptions struct {
	RepoPath string
	Level    version.Level
	PreID    string
}

// TagOptions selects the repository for Tag.
type TagOptions struct {
	RepoPath string
}

// Cut clones the upstream into a scratch directory, plans the next version,
// gates the mainline commits since the current tag, bumps the clone and
// publishes mainline, the new release branch and the new tag. The scratch
// clone is removed on every exit path.
func (d *Driver) Cut(ctx context.Context, opts CutOptions) Outcome {
	out := d.cut(ctx, opts)
	d.record(opts.RepoPath, out)
	return out
}

func (d *Driver) cut(ctx context.Context, opts CutOptions) Outcome {
	const workflow = "cut"
	lg := d.Log.WithFields(logrus.Fields{"workflow": workflow, "level": opts.Level})

	if _, err := version.ParseLevel(string(opts.Level)); err != nil {
		return failed(workflow, log.ErrInvalidVersionInput, "Invalid release level", err)
	}

	local, err := d.Open(opts.RepoPath)
	if err != nil {
		return failed(workflow, errorCode(err, log.ErrRepoInvalidPath), "Failed to open repository", err)
	}
	remote, err := local.Remote(d.Upstream)
	if err != nil {
		return failed(workflow, log.ErrInvalidArgument, "Unknown upstream", err)
	}
	lg = lg.WithField("remote", remote.Name)

	creds, err := d.Credentials.Resolve(ctx, remote)
	if err != nil {
		return failed(workflow, errorCode(err, log.ErrCredentialHelperUnavailable), "Failed to resolve credentials", err)
	}
	auth, err := git.NewAuth(remote, creds, d.Orchestrator.Policy)
	if err != nil {
		return failed(workflow, errorCode(err, log.ErrRemoteAuthFailure), "Failed to prepare authentication", err)
	}
	lg.WithField("strategy", auth.Strategy).Debug("credentials resolved")

	scratch, err := os.MkdirTemp(d.ScratchDir, "release-cut-")
	if err != nil {
		return failed(workflow, log.ErrOperationFailed, "Failed to create scratch directory", err)
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			lg.WithError(err).WithField("dir", scratch).Warn("failed to remove scratch clone")
		}
	}()

	lg.WithField("url", remote.URL).Info("cloning upstream")
	clone, err := d.Clone(ctx, filepath.Join(scratch, "repo"), remote, d.Mainline, auth)
	if err != nil {
		return failed(workflow, errorCode(err, log.ErrCloneFailure), "Failed to clone upstream", err)
	}

	current, err := version.ReadManifest(filepath.Join(clone.Path(), d.Manifest))
	if err != nil {
		return failed(workflow, log.ErrManifestFailed, "Failed to read current version", err)
	}
	tr, err := version.Plan(current, opts.Level, opts.PreID)
	if err != nil {
		return failed(workflow, log.ErrInvalidVersionInput, "Failed to plan release", err)
	}
	lg = lg.WithFields(logrus.Fields{"from": tr.Current.String(), "version": tr.Next.String(), "branch": tr.ReleaseBranch})

	rangeName := tr.CurrentTag() + ".." + d.Mainline
	commits, err := clone.ListCommits(ctx, tr.CurrentTag(), d.Mainline)
	if err != nil {
		return failed(workflow, log.ErrHistoryWalkFailure, "Failed to list commits", err).with(&tr, remote)
	}
	lg.WithField("commits", len(commits)).Info("reviewing " + rangeName)
	decision := d.Reviewer.Review(ctx, rangeName, commits)

	if err := d.bump(ctx, clone.Path(), tr); err != nil {
		return failed(workflow, errorCode(err, log.ErrVersionBumpFailed), "Failed to bump version", err).with(&tr, remote)
	}

	if !decision.Approved {
		lg.WithField("reason", decision.Reason).Info("release rejected")
		msg := fmt.Sprintf("Release %s aborted (%s); nothing was pushed and the scratch clone was discarded", tr.NextTag(), decision.Reason)
		return aborted(workflow, msg).with(&tr, remote)
	}

	origin, err := clone.Remote(remoteNameOrigin)
	if err != nil {
		origin = git.NewRemote(remoteNameOrigin, remote.URL)
	}
	plan := git.PushPlan{
		git.BranchSpec(d.Mainline, d.Mainline),
		git.BranchSpec(d.Mainline, tr.ReleaseBranch),
		git.TagSpec(tr.NextTag()),
	}
	out := d.publish(ctx, workflow, clone, origin, plan, creds).with(&tr, origin)
	out.Branch = tr.ReleaseBranch
	if out.Status == StatusSucceeded {
		out.Message = log.FormatSuccess(fmt.Sprintf("Released %s on %s to %s", tr.NextTag(), tr.ReleaseBranch, origin.Name))
	}
	return out
}

const remoteNameOrigin = "origin"

// Tag bumps the patch version in the caller's repository, gates the commits
// between the current and the new tag, and publishes the checked-out release
// branch and the new tag. A rejection leaves the local bump in place.
func (d *Driver) Tag(ctx context.Context, opts TagOptions) Outcome {
	out := d.tag(ctx, opts)
	d.record(opts.RepoPath, out)
	return out
}

func (d *Driver) tag(ctx context.Context, opts TagOptions) Outcome {
	const workflow = "tag"
	lg := d.Log.WithField("workflow", workflow)

	local, err := d.Open(opts.RepoPath)
	if err != nil {
		return failed(workflow, errorCode(err, log.ErrRepoInvalidPath), "Failed to open repository", err)
	}
	remote, err := local.Remote(d.Upstream)
	if err != nil {
		return failed(workflow, log.ErrInvalidArgument, "Unknown upstream", err)
	}
	lg = lg.WithField("remote", remote.Name)

	creds, err := d.Credentials.Resolve(ctx, remote)
	if err != nil {
		return failed(workflow, errorCode(err, log.ErrCredentialHelperUnavailable), "Failed to resolve credentials", err)
	}

	branch, err := local.CurrentBranch()
	if err != nil {
		return failed(workflow, log.ErrRepoDetachedHead, "Tag must run on a release branch", err)
	}

	current, err := version.ReadManifest(filepath.Join(local.Path(), d.Manifest))
	if err != nil {
		return failed(workflow, log.ErrManifestFailed, "Failed to read current version", err)
	}
	tr, err := version.Plan(current, version.Patch, "")
	if err != nil {
		return failed(workflow, log.ErrInvalidVersionInput, "Failed to plan release", err)
	}
	lg = lg.WithFields(logrus.Fields{"from": tr.Current.String(), "version": tr.Next.String(), "branch": branch})
	if branch != tr.ReleaseBranch {
		lg.WithField("expected", tr.ReleaseBranch).Warn("tagging from a branch that does not match the release line")
	}

	if err := d.bump(ctx, local.Path(), tr); err != nil {
		return failed(workflow, errorCode(err, log.ErrVersionBumpFailed), "Failed to bump version", err).with(&tr, remote)
	}
	revert := fmt.Sprintf("local bump commit and tag %s were NOT reverted; repair the working tree manually", tr.NextTag())

	rangeName := tr.CurrentTag() + ".." + tr.NextTag()
	commits, err := local.ListCommits(ctx, tr.CurrentTag(), tr.NextTag())
	if err != nil {
		out := failed(workflow, log.ErrHistoryWalkFailure, "Failed to list commits ("+revert+")", err).with(&tr, remote)
		out.Branch = branch
		return out
	}
	lg.WithField("commits", len(commits)).Info("reviewing " + rangeName)
	decision := d.Reviewer.Review(ctx, rangeName, commits)
	if !decision.Approved {
		lg.WithField("reason", decision.Reason).Warn("release rejected")
		out := aborted(workflow, fmt.Sprintf("Release %s aborted (%s); %s", tr.NextTag(), decision.Reason, revert)).with(&tr, remote)
		out.Branch = branch
		return out
	}

	plan := git.PushPlan{
		git.BranchSpec(branch, branch),
		git.TagSpec(tr.NextTag()),
	}
	out := d.publish(ctx, workflow, local, remote, plan, creds).with(&tr, remote)
	out.Branch = branch
	if out.Status == StatusSucceeded {
		out.Message = log.FormatSuccess(fmt.Sprintf("Released %s on %s to %s", tr.NextTag(), branch, remote.Name))
	}
	return out
}

// bump runs the bump tool and checks it landed on the planned version.
func (d *Driver) bump(ctx context.Context, repoPath string, tr version.Transition) error {
	res, err := d.Bumper.Bump(ctx, repoPath, tr.Level, tr.PreID)
	if err != nil {
		return err
	}
	if version.Compare(res.NewVersion, tr.Next) != 0 {
		return fmt.Errorf("%w: bump produced %s, planned %s", version.ErrBumpFailed, res.NewVersion, tr.Next)
	}
	d.Log.WithFields(logrus.Fields{"version": res.NewVersion.String(), "commit": res.CommitID}).Info("version bumped")
	return nil
}

func (d *Driver) publish(ctx context.Context, workflow string, pub git.Publisher, remote git.Remote, plan git.PushPlan, creds git.Credentials) Outcome {
	err := d.Orchestrator.Push(ctx, pub, remote, plan, creds)
	if err != nil {
		out := failed(workflow, errorCode(err, log.ErrPushFailure), "Failed to publish release", err)
		var pf *git.PushFailure
		if errors.As(err, &pf) {
			out.Pushed, out.Rejected = pf.Accepted, pf.Rejected
		}
		return out
	}
	return Outcome{Workflow: workflow, Status: StatusSucceeded, Pushed: plan.Destinations()}
}

func (d *Driver) record(repoPath string, out Outcome) {
	if d.Journal == nil {
		return
	}
	if err := d.Journal.Record(out.entry(repoPath)); err != nil {
		d.Log.WithError(err).Warn(log.FormatError(log.ErrHistoryWriteFailed, "Failed to record release history", nil))
	}
}

func failed(workflow, code, description string, err error) Outcome {
	return Outcome{
		Workflow: workflow,
		Status:   StatusFailed,
		Message:  log.FormatError(code, description, err),
		Err:      err,
	}
}

func aborted(workflow, message string) Outcome {
	return Outcome{
		Workflow: workflow,
		Status:   StatusAborted,
		Message:  log.FormatWarning(message),
		Err:      ErrUserRejected,
	}
}

func (o Outcome) with(tr *version.Transition, remote git.Remote) Outcome {
	o.Transition = tr
	o.Remote = remote.Name
	return o
}
