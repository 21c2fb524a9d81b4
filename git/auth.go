package git

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	gitssh "github.com/go-git/go-git/v5/plumbing/transport/ssh"
	gossh "golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
)

// ErrRemoteAuthFailure is returned when the remote rejects the resolved
// credentials or no usable ssh agent is reachable.
var ErrRemoteAuthFailure = errors.New("remote authentication failed")

// AuthStrategy turns resolved credentials into a go-git auth method.
type AuthStrategy interface {
	Name() string
	Method(remote Remote, policy CertificatePolicy) (transport.AuthMethod, error)
}

// StrategyFor picks UserPass when plaintext credentials were resolved and
// the ssh agent for everything else.
func StrategyFor(c Credentials) AuthStrategy {
	if c.Kind == CredentialsUserPass {
		return UserPass{Username: c.Username, Password: c.Password}
	}
	return SSHAgent{}
}

// UserPass authenticates over https with basic auth.
type UserPass struct {
	Username string
	Password string
}

func (UserPass) Name() string { return "userpass" }

func (u UserPass) Method(Remote, CertificatePolicy) (transport.AuthMethod, error) {
	return &githttp.BasicAuth{Username: u.Username, Password: u.Password}, nil
}

// SSHAgent signs with keys held by the running ssh agent. The agent is only
// dialed when the transport asks for signers. Over https the agent has
// nothing to offer and the request goes out anonymously.
type SSHAgent struct {
	// Socket overrides SSH_AUTH_SOCK.
	Socket string
}

func (SSHAgent) Name() string { return "ssh-agent" }

func (a SSHAgent) Method(remote Remote, policy CertificatePolicy) (transport.AuthMethod, error) {
	if !remote.IsSSH() {
		return nil, nil
	}
	m := &gitssh.PublicKeysCallback{
		User:     remote.SSHUser(),
		Callback: a.signers,
	}
	m.HostKeyCallback = policy.HostKeyCallback()
	return m, nil
}

func (a SSHAgent) signers() ([]gossh.Signer, error) {
	sock := a.Socket
	if sock == "" {
		sock = os.Getenv("SSH_AUTH_SOCK")
	}
	if sock == "" {
		return nil, fmt.Errorf("%w: SSH_AUTH_SOCK is not set", ErrRemoteAuthFailure)
	}
	conn, err := net.Dial("unix", sock)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to reach ssh agent: %v", ErrRemoteAuthFailure, err)
	}
	return agent.NewClient(conn).Signers()
}

// CertificatePolicy controls how the remote's identity is validated, both
// TLS certificates for https and host keys for ssh.
type CertificatePolicy interface {
	Name() string
	InsecureSkipTLS() bool
	CABundle() []byte
	// HostKeyCallback returns nil to use the user's known_hosts.
	HostKeyCallback() gossh.HostKeyCallback
}

// SkipVerification accepts any certificate and host key. Only suitable for
// trusted internal remotes.
type SkipVerification struct{}

func (SkipVerification) Name() string          { return "skip" }
func (SkipVerification) InsecureSkipTLS() bool { return true }
func (SkipVerification) CABundle() []byte      { return nil }
func (SkipVerification) HostKeyCallback() gossh.HostKeyCallback {
	return gossh.InsecureIgnoreHostKey() //nolint:gosec // opt-in policy
}

// SystemVerification uses the system roots and known_hosts.
type SystemVerification struct{}

func (SystemVerification) Name() string                           { return "system" }
func (SystemVerification) InsecureSkipTLS() bool                  { return false }
func (SystemVerification) CABundle() []byte                       { return nil }
func (SystemVerification) HostKeyCallback() gossh.HostKeyCallback { return nil }

// PinnedCertificate trusts only the given PEM bundle for https.
type PinnedCertificate struct {
	Bundle []byte
}

func (PinnedCertificate) Name() string                           { return "pinned" }
func (PinnedCertificate) InsecureSkipTLS() bool                  { return false }
func (p PinnedCertificate) CABundle() []byte                     { return p.Bundle }
func (PinnedCertificate) HostKeyCallback() gossh.HostKeyCallback { return nil }

// Auth binds an auth method and certificate policy for one remote. It is
// shared by clone, push and remote listing.
type Auth struct {
	Strategy        string
	Policy          string
	Method          transport.AuthMethod
	InsecureSkipTLS bool
	CABundle        []byte
}

// NewAuth resolves the strategy for creds against remote. A nil policy
// means SkipVerification.
func NewAuth(remote Remote, creds Credentials, policy CertificatePolicy) (*Auth, error) {
	if policy == nil {
		policy = SkipVerification{}
	}
	strategy := StrategyFor(creds)
	method, err := strategy.Method(remote, policy)
	if err != nil {
		return nil, err
	}
	return &Auth{
		Strategy:        strategy.Name(),
		Policy:          policy.Name(),
		Method:          method,
		InsecureSkipTLS: policy.InsecureSkipTLS(),
		CABundle:        policy.CABundle(),
	}, nil
}

// authError maps go-git authentication errors onto ErrRemoteAuthFailure.
func authError(err error) error {
	switch {
	case err == nil, errors.Is(err, ErrRemoteAuthFailure):
		return err
	case errors.Is(err, transport.ErrAuthenticationRequired),
		errors.Is(err, transport.ErrAuthorizationFailed),
		strings.Contains(err.Error(), "unable to authenticate"):
		return fmt.Errorf("%w: %v", ErrRemoteAuthFailure, err)
	}
	return err
}
