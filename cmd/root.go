package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"git_release_tool/config"
	"git_release_tool/log"
)

// Global flags used across multiple commands
var (
	configFile string
	upstream   string
	repoPath   string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "release",
	Short: "Cut release branches and tag patch releases",
	Long: `A CLI tool that cuts semantically versioned release branches from the mainline
and tags patch releases on existing release branches. Every release is shown
for review before anything is pushed.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Initialize adds all child commands to the root command
func Initialize() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", config.DefaultFile, "Path to configuration file, relative to the repository")
	rootCmd.PersistentFlags().StringVarP(&upstream, "upstream", "u", "origin", "Remote all git operations target")
	rootCmd.PersistentFlags().StringVarP(&repoPath, "repo", "C", ".", "Path to the repository")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	// Add all subcommands
	initCutCmd()
	initTagCmd()
	initHistoryCmd()

	rootCmd.AddCommand(cutCmd)
	rootCmd.AddCommand(tagCmd)
	rootCmd.AddCommand(historyCmd)
}

// Execute executes the root command. An interrupt cancels the running
// workflow, which rejects a pending review.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.PrintErrorNoExit(log.ErrInvalidArgument, "Invalid command", err)
		os.Exit(1)
	}
}
