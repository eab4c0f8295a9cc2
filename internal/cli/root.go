// Package cli implements quotectl, the operator CLI over the quote store.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jsamuelsen/quotesync/internal/bootstrap"
	"github.com/jsamuelsen/quotesync/internal/platform/config"
	"github.com/jsamuelsen/quotesync/internal/platform/logging"
)

// BuildInfo is printed by the version command.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

// Opener builds the quote graph for one command.
type Opener func(ctx context.Context, g Globals) (*bootstrap.App, error)

// Globals are the persistent flags.
type Globals struct {
	Profile  string
	Database string
	JSON     bool
}

type commandDeps struct {
	out     io.Writer
	errOut  io.Writer
	build   BuildInfo
	open    Opener
	globals *Globals
}

// NewRootCommand builds the quotectl command tree. A nil open uses
// OpenFromConfig.
func NewRootCommand(out, errOut io.Writer, build BuildInfo, open Opener) *cobra.Command {
	if open == nil {
		open = OpenFromConfig(errOut)
	}

	deps := commandDeps{out: out, errOut: errOut, build: build, open: open, globals: &Globals{}}

	cmd := &cobra.Command{
		Use:           "quotectl",
		Short:         "Manage the quotesync collection",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	defaultProfile := os.Getenv("APP_ENVIRONMENT")
	if defaultProfile == "" {
		defaultProfile = "local"
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&deps.globals.Profile, "profile", defaultProfile, "Config profile to load from configs/")
	flags.StringVar(&deps.globals.Database, "db", "", "SQLite file, overriding storage.path")
	flags.BoolVar(&deps.globals.JSON, "json", false, "Print JSON instead of text")

	cmd.AddCommand(
		newListCommand(deps),
		newAddCommand(deps),
		newCategoriesCommand(deps),
		newExportCommand(deps),
		newImportCommand(deps),
		newSyncCommand(deps),
		newVersionCommand(deps),
	)

	return cmd
}

// OpenFromConfig loads configuration the way the service does and logs to
// errOut at warn unless the profile says otherwise.
func OpenFromConfig(errOut io.Writer) Opener {
	return func(ctx context.Context, g Globals) (*bootstrap.App, error) {
		cfg, err := config.Load(g.Profile)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}

		if g.Database != "" {
			cfg.Storage.Path = g.Database
		}

		if err := cfg.Validate(); err != nil {
			return nil, usageError(fmt.Errorf("invalid config: %w", err))
		}

		level := cfg.Log.Level
		if level == "info" {
			level = "warn"
		}

		logger := logging.NewWithWriter(&logging.Config{
			Level:   level,
			Format:  "text",
			Service: "quotectl",
			Version: cfg.App.Version,
		}, errOut)

		return bootstrap.New(ctx, cfg, logger, bootstrap.Options{})
	}
}

// withApp opens the graph, runs fn and closes it.
func withApp(cmd *cobra.Command, deps commandDeps, fn func(ctx context.Context, a *bootstrap.App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := deps.open(ctx, *deps.globals)
	if err != nil {
		return mapCommandError(err)
	}

	err = fn(ctx, a)

	if closeErr := a.Close(); closeErr != nil && err == nil {
		err = closeErr
	}

	return mapCommandError(err)
}
