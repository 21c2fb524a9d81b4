package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"git_release_tool/config"
	"git_release_tool/git"
	"git_release_tool/log"
	"git_release_tool/release"
	"git_release_tool/review"
	"git_release_tool/version"
)

// loadConfig reads the configuration file and applies flag overrides. A
// relative --config is resolved against the repository.
func loadConfig(cmd *cobra.Command) (*config.Configuration, error) {
	path := configFile
	if !filepath.IsAbs(path) {
		path = filepath.Join(repoPath, path)
	}
	cfg, err := config.ReadConfig(path)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("upstream") {
		cfg.Upstream = upstream
	}
	return cfg, nil
}

// certificatePolicy builds the transport verification policy from config
func certificatePolicy(cfg *config.Configuration) (git.CertificatePolicy, error) {
	switch cfg.TLS {
	case "system":
		return git.SystemVerification{}, nil
	case "pinned":
		bundle, err := os.ReadFile(cfg.CABundle)
		if err != nil {
			return nil, fmt.Errorf("failed to read ca_bundle: %w", err)
		}
		return git.PinnedCertificate{Bundle: bundle}, nil
	}
	return git.SkipVerification{}, nil
}

// bumper selects the configured bump tool
func bumper(cfg *config.Configuration) version.Bumper {
	if len(cfg.Bump.Command) > 0 {
		return version.CommandBumper{Args: cfg.Bump.Command, Manifest: cfg.Manifest}
	}
	return version.ManifestBumper{Manifest: cfg.Manifest, Message: cfg.Bump.Message}
}

func newJournal(cfg *config.Configuration) (*config.Journal, error) {
	path := cfg.HistoryFile
	if path == "" {
		var err error
		if path, err = config.DefaultHistoryFilePath(); err != nil {
			return nil, err
		}
	}
	return &config.Journal{Path: path}, nil
}

// newDriver wires the release driver from config and flags
func newDriver(cmd *cobra.Command) (*release.Driver, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	policy, err := certificatePolicy(cfg)
	if err != nil {
		return nil, err
	}

	logger := log.NewLogger(verbose, cmd.ErrOrStderr())
	if _, ok := policy.(git.SkipVerification); ok {
		logger.Warn("tls: skip disables certificate and host key verification; set tls: system or pinned in " + config.DefaultFile)
	}

	journal, err := newJournal(cfg)
	if err != nil {
		logger.WithError(err).Warn("release history disabled")
		journal = nil
	}

	var progress io.Writer
	if verbose {
		progress = cmd.ErrOrStderr()
	}

	return &release.Driver{
		Log:         logger,
		Upstream:    cfg.Upstream,
		Mainline:    cfg.Mainline,
		Manifest:    cfg.Manifest,
		Credentials: &git.CredentialResolver{Helper: git.GitCredentialHelper{Dir: repoPath}},
		Reviewer: &review.Reviewer{
			Out:      cmd.OutOrStdout(),
			Prompter: review.TerminalPrompter{In: os.Stdin},
			MaxLines: cfg.Review.MaxLines,
			Timeout:  cfg.Review.Timeout,
			Log:      logger,
		},
		Bumper:       bumper(cfg),
		Orchestrator: &git.Orchestrator{Policy: policy, Log: logger},
		Open: func(path string) (release.Repository, error) {
			repo, err := git.Open(path)
			if err != nil {
				return nil, err
			}
			return repo, nil
		},
		Clone: func(ctx context.Context, dir string, remote git.Remote, mainline string, auth *git.Auth) (release.Repository, error) {
			repo, err := git.Clone(ctx, dir, remote, mainline, auth, progress)
			if err != nil {
				return nil, err
			}
			return repo, nil
		},
		Journal: journal,
	}, nil
}

// exitOnSetupError reports a failure to build the driver and exits
func exitOnSetupError(err error) {
	switch {
	case errors.Is(err, config.ErrConfigParse):
		log.PrintError(log.ErrConfigParseFailed, "Error parsing config", err)
	case errors.Is(err, config.ErrConfigRead):
		log.PrintError(log.ErrConfigReadFailed, "Error reading config", err)
	default:
		log.PrintError(log.ErrInvalidArgument, "Invalid configuration", err)
	}
}

// report prints the outcome line and turns a failed run into exit code 1.
// A rejected release is a normal exit.
func report(cmd *cobra.Command, out release.Outcome) error {
	log.PrintOutcome(cmd.OutOrStdout(), cmd.ErrOrStderr(), out.Message)
	if code := out.ExitCode(); code != 0 {
		os.Exit(code)
	}
	return nil
}
