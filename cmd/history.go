package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"git_release_tool/config"
	"git_release_tool/log"
)

var historyLimit int

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded release runs",
	Args:  cobra.NoArgs,
	Run:   runHistoryCmd,
}

// initHistoryCmd initializes the history command with its flags
func initHistoryCmd() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of entries to show, 0 for all")
}

// runHistoryCmd is the main function for the history command
func runHistoryCmd(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		exitOnSetupError(err)
	}
	journal, err := newJournal(cfg)
	if err != nil {
		log.PrintError(log.ErrHistoryReadFailed, "Error locating release history", err)
	}

	history, err := journal.Load()
	if err != nil {
		log.PrintError(log.ErrHistoryReadFailed, "Error loading release history", err)
	}

	if len(history.Entries) == 0 {
		log.PrintInfo("No release history found.")
		return
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, log.FormatInfo("Release history:"))
	fmt.Fprintln(out, log.FormatInfo("----------------"))

	// Display history entries from newest to oldest
	shown := 0
	for i := len(history.Entries) - 1; i >= 0; i-- {
		if historyLimit > 0 && shown == historyLimit {
			break
		}
		fmt.Fprintln(out, formatEntry(shown, history.Entries[i]))
		shown++
	}
	if shown < len(history.Entries) {
		fmt.Fprintf(out, "    ... %d older entries\n", len(history.Entries)-shown)
	}
}

// formatEntry renders one journal entry as a headline plus detail lines
func formatEntry(index int, e config.ReleaseEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%d] %s %s %s", index, e.Timestamp, e.Workflow, strings.ToUpper(e.Status))
	if e.ToVersion != "" {
		fmt.Fprintf(&b, " %s -> %s", e.FromVersion, e.ToVersion)
	}
	fmt.Fprintf(&b, "\n    %s", e.Repository)
	if e.Remote != "" {
		fmt.Fprintf(&b, " (%s)", e.Remote)
	}
	if len(e.Pushed) > 0 {
		fmt.Fprintf(&b, "\n    pushed: %s", strings.Join(e.Pushed, ", "))
	}
	if len(e.Rejected) > 0 {
		fmt.Fprintf(&b, "\n    rejected: %s", strings.Join(e.Rejected, ", "))
	}
	if e.Message != "" {
		fmt.Fprintf(&b, "\n    %s", e.Message)
	}
	return b.String()
}
