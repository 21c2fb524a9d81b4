package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"git_release_tool/release"
	"git_release_tool/version"
)

var preID string

// cutLevels are the levels a new release branch can be cut at. Patch
// releases go through the tag command.
var cutLevels = []version.Level{
	version.Major,
	version.Minor,
	version.PreMajor,
	version.PreMinor,
	version.PreRelease,
}

// cutCmd represents the cut command
var cutCmd = &cobra.Command{
	Use:   "cut [level]",
	Short: "Cut a new release branch and tag from the mainline",
	Long: `Clones the upstream into a scratch directory, bumps the version at the given
level (default minor), shows the commits since the current release for review
and, once approved, pushes the mainline, the new release branch and the new tag.`,
	Args: cobra.MaximumNArgs(1),
	ValidArgs: func() []string {
		out := make([]string, len(cutLevels))
		for i, l := range cutLevels {
			out[i] = string(l)
		}
		return out
	}(),
	RunE: runCutCmd,
}

// initCutCmd initializes the cut command with its flags
func initCutCmd() {
	cutCmd.Flags().StringVar(&preID, "preid", "", "Prerelease identifier, e.g. rc or beta")
}

// parseCutLevel maps the positional argument onto a cut level
func parseCutLevel(args []string) (version.Level, error) {
	if len(args) == 0 {
		return version.Minor, nil
	}
	for _, l := range cutLevels {
		if strings.EqualFold(args[0], string(l)) {
			return l, nil
		}
	}
	return "", fmt.Errorf("unknown release level %q", args[0])
}

// runCutCmd is the main function for the cut command
func runCutCmd(cmd *cobra.Command, args []string) error {
	level, err := parseCutLevel(args)
	if err != nil {
		return err
	}

	driver, err := newDriver(cmd)
	if err != nil {
		exitOnSetupError(err)
	}

	out := driver.Cut(cmd.Context(), release.CutOptions{
		RepoPath: repoPath,
		Level:    level,
		PreID:    preID,
	})
	return report(cmd, out)
}
