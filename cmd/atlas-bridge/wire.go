package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/entrhq/atlas-bridge/pkg/auth"
	"github.com/entrhq/atlas-bridge/pkg/config"
	"github.com/entrhq/atlas-bridge/pkg/logging"
	"github.com/entrhq/atlas-bridge/pkg/session"
	"github.com/entrhq/atlas-bridge/pkg/workflow"
)

type app struct {
	cfg      *config.Config
	logger   *logging.Logger
	sessions *session.Manager
	auth     *auth.Controller
	runner   *workflow.Runner
}

// wireApp loads the configuration and builds the session, auth and workflow
// layers. Nothing is launched until a workflow runs.
func wireApp(cmd *cobra.Command, opts *rootOptions, d deps) (*app, error) {
	cfg, err := config.Load(opts.configPath, opts.envFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.verbosity != "" {
		cfg.Logging.Verbosity = opts.verbosity
	}
	if cmd.Flags().Changed("headless") {
		cfg.Browser.Headless = opts.headless
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	var mirror io.Writer
	if cfg.Logging.Mirror {
		mirror = cmd.ErrOrStderr()
	}
	// A fallback logger still works; the warning is already on stderr.
	logger, _ := logging.NewLogger("atlas-bridge", logging.Options{
		Dir:    cfg.Logging.Dir,
		Level:  logging.ParseLevel(cfg.Logging.Verbosity),
		Mirror: mirror,
	})
	logger.Infof("atlas-bridge v%s starting against %s (run %s)", version, cfg.BaseURL, logger.RunID())

	sessions := session.NewManager(d.newLauncher(opts.install), launchOptions(cfg), logger.With("session"))
	ctrl, err := auth.NewController(sessions, cfg, logger.With("auth"))
	if err != nil {
		logger.Close()
		return nil, err
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		sessions: sessions,
		auth:     ctrl,
		runner:   workflow.NewRunner(sessions, ctrl, cfg, logger.With("workflow")),
	}, nil
}

func launchOptions(cfg *config.Config) session.LaunchOptions {
	return session.LaunchOptions{
		Headless:  cfg.Browser.Headless,
		UserAgent: cfg.Browser.UserAgent,
		Viewport: session.Viewport{
			Width:  cfg.Browser.ViewportWidth,
			Height: cfg.Browser.ViewportHeight,
		},
		Args:           cfg.Browser.Args,
		DefaultTimeout: cfg.Browser.DefaultTimeout,
	}
}

// Close releases the browser, stops the driver and closes the log.
func (a *app) Close() error {
	err := a.sessions.Shutdown()
	if err != nil {
		a.logger.Errorf("shutdown: %v", err)
	}
	return errors.Join(err, a.logger.Close())
}
