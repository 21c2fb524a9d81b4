package git

import (
	"net/url"
	"regexp"
	"strings"
)

// Protocol is the transport family a remote URL selects.
type Protocol int

const (
	ProtocolHTTPS Protocol = iota
	ProtocolSSH
)

func (p Protocol) String() string {
	if p == ProtocolSSH {
		return "ssh"
	}
	return "https"
}

// scp-like syntax [user@]host:path; a single-letter host is a Windows drive
var scpLike = regexp.MustCompile(`^(?:([^@/:]+)@)?([^@/:\\]{2,}):`)

// Remote is a named remote of a repository.
type Remote struct {
	Name     string
	URL      string
	Protocol Protocol
}

// NewRemote builds a Remote and infers its protocol from the URL prefix.
// Everything that is not ssh-like is treated as https-like.
func NewRemote(name, rawURL string) Remote {
	return Remote{Name: name, URL: rawURL, Protocol: inferProtocol(rawURL)}
}

func inferProtocol(rawURL string) Protocol {
	if i := strings.Index(rawURL, "://"); i >= 0 {
		switch strings.ToLower(rawURL[:i]) {
		case "ssh", "git+ssh", "ssh+git":
			return ProtocolSSH
		}
		return ProtocolHTTPS
	}
	if scpLike.MatchString(rawURL) {
		return ProtocolSSH
	}
	return ProtocolHTTPS
}

// IsSSH reports whether the remote talks ssh.
func (r Remote) IsSSH() bool {
	return r.Protocol == ProtocolSSH
}

// SSHUser is the login user embedded in an ssh URL, "git" when absent.
func (r Remote) SSHUser() string {
	if strings.Contains(r.URL, "://") {
		if u, err := url.Parse(r.URL); err == nil && u.User != nil && u.User.Username() != "" {
			return u.User.Username()
		}
		return "git"
	}
	if m := scpLike.FindStringSubmatch(r.URL); m != nil && m[1] != "" {
		return m[1]
	}
	return "git"
}
