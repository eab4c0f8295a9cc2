// Package main runs quotectl.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/jsamuelsen/quotesync/internal/cli"
)

// Build-time variables, injected via ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	cmd := cli.NewRootCommand(os.Stdout, os.Stderr, cli.BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
	}, nil)

	err := cmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		os.Stderr.WriteString("error: " + err.Error() + "\n")

		var withExitCode interface{ ExitCode() int }
		if errors.As(err, &withExitCode) {
			os.Exit(withExitCode.ExitCode())
		}

		os.Exit(cli.ExitCodeGeneric)
	}
}
