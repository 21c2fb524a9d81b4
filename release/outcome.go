package release

import (
	"errors"

	"git_release_tool/config"
	"git_release_tool/git"
	"git_release_tool/log"
	"git_release_tool/version"
)

// ErrUserRejected marks a run the reviewer declined. It is an outcome, not
// a fault.
var ErrUserRejected = errors.New("release rejected by reviewer")

// Status is the terminal state of a workflow run.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusAborted   Status = "aborted"
	StatusFailed    Status = "failed"
)

// Outcome is what a workflow yields: exactly one human-readable message
// plus the details the front-end and the journal need.
type Outcome struct {
	Workflow   string
	Status     Status
	Message    string
	Err        error
	Remote     string
	Transition *version.Transition
	Branch     string
	Pushed     []string
	Rejected   []string
}

// ExitCode maps the outcome onto a process exit code. A rejected release is
// a normal exit.
func (o Outcome) ExitCode() int {
	if o.Status == StatusFailed {
		return 1
	}
	return 0
}

func (o Outcome) entry(repoPath string) config.ReleaseEntry {
	e := config.ReleaseEntry{
		Workflow:   o.Workflow,
		Repository: repoPath,
		Remote:     o.Remote,
		Branch:     o.Branch,
		Status:     string(o.Status),
		Pushed:     o.Pushed,
		Rejected:   o.Rejected,
		Message:    o.Message,
	}
	if o.Transition != nil {
		e.FromVersion = o.Transition.Current.String()
		e.ToVersion = o.Transition.Next.String()
		e.Tag = o.Transition.NextTag()
	}
	return e
}

// errorCode picks the log code for a fault. Authentication problems win
// over the step that surfaced them.
func errorCode(err error, fallback string) string {
	var pushFailure *git.PushFailure
	switch {
	case errors.Is(err, git.ErrRemoteAuthFailure):
		return log.ErrRemoteAuthFailure
	case errors.Is(err, git.ErrCredentialHelperUnavailable):
		return log.ErrCredentialHelperUnavailable
	case errors.Is(err, version.ErrInvalidVersionInput):
		return log.ErrInvalidVersionInput
	case errors.Is(err, version.ErrManifest):
		return log.ErrManifestFailed
	case errors.Is(err, version.ErrBumpFailed):
		return log.ErrVersionBumpFailed
	case errors.Is(err, git.ErrCloneFailure):
		return log.ErrCloneFailure
	case errors.Is(err, git.ErrHistoryWalkFailure):
		return log.ErrHistoryWalkFailure
	case errors.As(err, &pushFailure):
		return log.ErrPushFailure
	case errors.Is(err, git.ErrNotRepository):
		return log.ErrRepoNotGit
	}
	return fallback
}
