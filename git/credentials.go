package git

import (
	"context"
	"errors"
	"fmt"
)

// ErrCredentialHelperUnavailable is returned when an https remote needs
// credentials and no credential helper can provide them.
var ErrCredentialHelperUnavailable = errors.New("credential helper unavailable")

// CredentialKind tags the Credentials variant.
type CredentialKind int

const (
	// CredentialsNone defers authentication to the ssh agent at push time.
	CredentialsNone CredentialKind = iota
	CredentialsSSHAgent
	CredentialsUserPass
)

func (k CredentialKind) String() string {
	switch k {
	case CredentialsSSHAgent:
		return "ssh-agent"
	case CredentialsUserPass:
		return "userpass"
	}
	return "none"
}

// Credentials is the authentication material resolved for one remote.
// Username and Password are only set for CredentialsUserPass.
type Credentials struct {
	Kind     CredentialKind
	Username string
	Password string
}

// String never includes the password.
func (c Credentials) String() string {
	if c.Kind == CredentialsUserPass {
		return fmt.Sprintf("userpass(%s)", c.Username)
	}
	return c.Kind.String()
}

// CredentialHelper looks up https credentials stored outside the process.
type CredentialHelper interface {
	Available(ctx context.Context) (bool, error)
	Fill(ctx context.Context, rawURL string) (username, password string, err error)
}

// CredentialResolver decides how a workflow authenticates against a remote.
type CredentialResolver struct {
	Helper CredentialHelper
}

// Resolve returns CredentialsNone for ssh-like remotes without consulting
// the helper. For https-like remotes the helper must be available and is
// asked for a username and password.
func (r *CredentialResolver) Resolve(ctx context.Context, remote Remote) (Credentials, error) {
	if remote.IsSSH() {
		return Credentials{Kind: CredentialsNone}, nil
	}
	if r.Helper == nil {
		return Credentials{}, fmt.Errorf("%w: no helper configured for %s", ErrCredentialHelperUnavailable, remote.URL)
	}

	ok, err := r.Helper.Available(ctx)
	if err != nil {
		return Credentials{}, fmt.Errorf("%w: %v", ErrCredentialHelperUnavailable, err)
	}
	if !ok {
		return Credentials{}, fmt.Errorf("%w: configure git credential.helper for %s", ErrCredentialHelperUnavailable, remote.URL)
	}

	user, pass, err := r.Helper.Fill(ctx, remote.URL)
	if err != nil {
		return Credentials{}, fmt.Errorf("%w: %v", ErrCredentialHelperUnavailable, err)
	}
	return Credentials{Kind: CredentialsUserPass, Username: user, Password: pass}, nil
}
