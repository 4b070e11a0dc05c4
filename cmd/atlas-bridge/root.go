package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/entrhq/atlas-bridge/pkg/session"
)

const version = "0.1.0" // Version of the atlas bridge

type rootOptions struct {
	configPath string
	envFile    string
	verbosity  string
	headless   bool
	install    bool
}

// deps are the parts of the wiring tests replace.
type deps struct {
	newLauncher func(install bool) session.Launcher
}

func defaultDeps() deps {
	return deps{
		newLauncher: func(install bool) session.Launcher {
			return session.NewPlaywrightLauncher(install)
		},
	}
}

// Execute runs the CLI with a context that is canceled on SIGINT or SIGTERM.
func Execute() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(os.Stderr, "Shutting down gracefully...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	return newRootCmdWith(defaultDeps())
}

func newRootCmdWith(d deps) *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:          "atlas-bridge",
		Short:        "Browser automation bridge for the Flight Health Atlas clinic app",
		Long:         "atlas-bridge signs in to the Flight Health Atlas web application with a headless browser and exposes patient search and task creation as MCP tools, or runs them directly from the terminal.",
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to a yaml config file")
	flags.StringVar(&opts.envFile, "env-file", ".env", "dotenv file with ATLAS_* variables (ignored if missing)")
	flags.StringVar(&opts.verbosity, "verbosity", "", "log verbosity: quiet, normal, verbose or debug")
	flags.BoolVar(&opts.headless, "headless", true, "run the browser without a window")
	flags.BoolVar(&opts.install, "install-browsers", false, "download the Playwright driver and Chromium if missing")

	rootCmd.AddCommand(
		newVersionCmd(),
		newServeCmd(opts, d),
		newSearchCmd(opts, d),
		newCreateTaskCmd(opts, d),
		newLoginCmd(opts, d),
	)

	return rootCmd
}
