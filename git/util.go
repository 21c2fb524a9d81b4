package git

import (
	"context"
	"os"
	"os/exec"
)

// gitCommand prepares a git invocation against the repository at dir. The
// environment disables every interactive prompt, so a command either works
// unattended or fails.
func gitCommand(ctx context.Context, dir string, args ...string) *exec.Cmd {
	// Add the -C flag and repository path to the beginning of the arguments
	if dir != "" {
		args = append([]string{"-C", dir}, args...)
	}
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0", "GCM_INTERACTIVE=never")
	return cmd
}
