package git

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/sirupsen/logrus"
)

// RefSpec maps a local ref onto a remote ref.
type RefSpec struct {
	Src string
	Dst string
}

func (s RefSpec) String() string {
	return s.Src + ":" + s.Dst
}

// BranchSpec publishes local branch src as remote branch dst.
func BranchSpec(src, dst string) RefSpec {
	return RefSpec{
		Src: plumbing.NewBranchReferenceName(src).String(),
		Dst: plumbing.NewBranchReferenceName(dst).String(),
	}
}

// TagSpec publishes a tag under its own name.
func TagSpec(tag string) RefSpec {
	name := plumbing.NewTagReferenceName(tag).String()
	return RefSpec{Src: name, Dst: name}
}

// PushPlan is the ordered set of refs published to one remote in a single
// request.
type PushPlan []RefSpec

// Destinations lists the remote refs the plan writes.
func (p PushPlan) Destinations() []string {
	out := make([]string, len(p))
	for i, s := range p {
		out[i] = s.Dst
	}
	return out
}

// PushFailure reports refs that did not land on the remote. Refs that did
// land are listed in Accepted and are not rolled back.
type PushFailure struct {
	Remote   string
	Rejected []string
	Accepted []string
	Err      error
}

func (e *PushFailure) Error() string {
	msg := fmt.Sprintf("push to %s rejected %s", e.Remote, strings.Join(e.Rejected, ", "))
	if len(e.Accepted) > 0 {
		msg += fmt.Sprintf(" (already published: %s)", strings.Join(e.Accepted, ", "))
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PushFailure) Unwrap() error { return e.Err }

// Publisher is the transport side of a push: sending refs, and reading back
// what the remote and the local repository hold.
type Publisher interface {
	PushRefs(ctx context.Context, remote string, specs []RefSpec, auth *Auth) error
	RemoteRefs(ctx context.Context, remote string, auth *Auth) (map[string]string, error)
	LocalRef(name string) (string, error)
}

// Orchestrator pushes a plan and verifies every ref landed.
type Orchestrator struct {
	Policy CertificatePolicy
	Log    logrus.FieldLogger
}

// Push publishes plan to remote through pub. The transport may accept some
// refs and reject others; the remote is listed afterwards and every
// destination compared with its local source. Any mismatch yields a
// *PushFailure naming the refs that did not land.
func (o *Orchestrator) Push(ctx context.Context, pub Publisher, remote Remote, plan PushPlan, creds Credentials) error {
	if len(plan) == 0 {
		return nil
	}
	auth, err := NewAuth(remote, creds, o.Policy)
	if err != nil {
		return err
	}
	lg := o.logger().WithFields(logrus.Fields{
		"remote":   remote.Name,
		"strategy": auth.Strategy,
		"refs":     strings.Join(plan.Destinations(), ","),
	})
	if auth.InsecureSkipTLS {
		lg.Warn("certificate and host key verification is disabled for this push")
	}

	lg.Info("pushing refs")
	pushErr := authError(pub.PushRefs(ctx, remote.Name, plan, auth))
	if errors.Is(pushErr, ErrRemoteAuthFailure) {
		return &PushFailure{Remote: remote.Name, Rejected: plan.Destinations(), Err: pushErr}
	}

	remoteRefs, err := pub.RemoteRefs(ctx, remote.Name, auth)
	if err != nil {
		if pushErr == nil {
			pushErr = fmt.Errorf("failed to verify pushed refs: %w", authError(err))
		}
		return &PushFailure{Remote: remote.Name, Rejected: plan.Destinations(), Err: pushErr}
	}

	var accepted, rejected []string
	for _, spec := range plan {
		want, err := pub.LocalRef(spec.Src)
		if err != nil || remoteRefs[spec.Dst] != want {
			rejected = append(rejected, spec.Dst)
			continue
		}
		accepted = append(accepted, spec.Dst)
	}
	if len(rejected) > 0 {
		lg.WithField("rejected", strings.Join(rejected, ",")).Error("remote did not accept every ref")
		return &PushFailure{Remote: remote.Name, Rejected: rejected, Accepted: accepted, Err: pushErr}
	}
	if pushErr != nil {
		lg.WithError(pushErr).Warn("push reported an error but every ref is on the remote")
	}
	lg.Info("all refs published")
	return nil
}

func (o *Orchestrator) logger() logrus.FieldLogger {
	if o.Log == nil {
		return logrus.StandardLogger()
	}
	return o.Log
}

// PushRefs sends specs to the named remote in one request.
func (r *Repo) PushRefs(ctx context.Context, remote string, specs []RefSpec, auth *Auth) error {
	refSpecs := make([]config.RefSpec, len(specs))
	for i, s := range specs {
		refSpecs[i] = config.RefSpec(s.String())
		if err := refSpecs[i].Validate(); err != nil {
			return fmt.Errorf("invalid refspec %s: %w", s, err)
		}
	}
	opts := &gogit.PushOptions{RemoteName: remote, RefSpecs: refSpecs}
	if auth != nil {
		opts.Auth = auth.Method
		opts.InsecureSkipTLS = auth.InsecureSkipTLS
		opts.CABundle = auth.CABundle
	}
	err := r.repo.PushContext(ctx, opts)
	if errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return nil
	}
	return err
}

// RemoteRefs lists the refs advertised by the named remote, by full name.
func (r *Repo) RemoteRefs(ctx context.Context, remote string, auth *Auth) (map[string]string, error) {
	rem, err := r.repo.Remote(remote)
	if err != nil {
		return nil, fmt.Errorf("remote %q: %w", remote, err)
	}
	opts := &gogit.ListOptions{}
	if auth != nil {
		opts.Auth = auth.Method
		opts.InsecureSkipTLS = auth.InsecureSkipTLS
		opts.CABundle = auth.CABundle
	}
	refs, err := rem.ListContext(ctx, opts)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(refs))
	for _, ref := range refs {
		if ref.Type() == plumbing.HashReference {
			out[ref.Name().String()] = ref.Hash().String()
		}
	}
	return out, nil
}

// LocalRef resolves a full local ref name to the hash it points at. For an
// annotated tag that is the tag object, as the remote advertises it.
func (r *Repo) LocalRef(name string) (string, error) {
	ref, err := r.repo.Reference(plumbing.ReferenceName(name), true)
	if err != nil {
		return "", fmt.Errorf("ref %s: %w", name, err)
	}
	return ref.Hash().String(), nil
}
