package cmd

import (
	"github.com/spf13/cobra"

	"git_release_tool/release"
)

// tagCmd represents the tag command
var tagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Tag a patch release on the current release branch",
	Long: `Bumps the patch version in place on the checked-out release branch, shows the
commits it covers for review and, once approved, pushes the branch and the
new tag. A rejected release leaves the local bump commit and tag behind.`,
	Args: cobra.NoArgs,
	RunE: runTagCmd,
}

// initTagCmd initializes the tag command with its flags
func initTagCmd() {
	// No specific flags for tag command
}

// runTagCmd is the main function for the tag command
func runTagCmd(cmd *cobra.Command, args []string) error {
	driver, err := newDriver(cmd)
	if err != nil {
		exitOnSetupError(err)
	}

	out := driver.Tag(cmd.Context(), release.TagOptions{RepoPath: repoPath})
	return report(cmd, out)
}
