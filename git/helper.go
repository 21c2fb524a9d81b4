package git

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// GitCredentialHelper speaks the git credential protocol through the git
// binary, so whatever helper the user configured (osxkeychain, libsecret,
// manager, store) answers. Terminal prompting is disabled: the lookup either
// succeeds silently or fails.
type GitCredentialHelper struct {
	// Dir is the repository whose git config selects the helper.
	Dir string
}

// Available reports whether any credential.helper is configured.
func (h GitCredentialHelper) Available(ctx context.Context) (bool, error) {
	cmd := h.command(ctx, "config", "--get-all", "credential.helper")
	output, err := cmd.Output()
	if err != nil {
		// Exit code 1 means the key is unset, which is not an error for our purposes
		var exitError *exec.ExitError
		if errors.As(err, &exitError) && exitError.ExitCode() == 1 {
			return false, nil
		}
		return false, fmt.Errorf("failed to read credential.helper: %w", err)
	}
	return strings.TrimSpace(string(output)) != "", nil
}

// Fill asks the configured helper for credentials matching rawURL.
func (h GitCredentialHelper) Fill(ctx context.Context, rawURL string) (string, string, error) {
	cmd := h.command(ctx, "credential", "fill")
	cmd.Stdin = strings.NewReader("url=" + rawURL + "\n\n")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		return "", "", fmt.Errorf("git credential fill: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	var user, pass string
	s := bufio.NewScanner(bytes.NewReader(output))
	for s.Scan() {
		key, value, ok := strings.Cut(s.Text(), "=")
		if !ok {
			continue
		}
		switch key {
		case "username":
			user = value
		case "password":
			pass = value
		}
	}
	if pass == "" {
		return "", "", fmt.Errorf("no stored credentials for %s", rawURL)
	}
	return user, pass, nil
}

func (h GitCredentialHelper) command(ctx context.Context, args ...string) *exec.Cmd {
	return gitCommand(ctx, h.Dir, args...)
}
