package session

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"
)

// PlaywrightLauncher launches Chromium through a lazily started Playwright driver.
type PlaywrightLauncher struct {
	mu          sync.Mutex
	playwright  *playwright.Playwright
	install     bool
	initialized bool
}

// NewPlaywrightLauncher creates a launcher. When install is true the driver
// and Chromium are downloaded on first use if missing.
func NewPlaywrightLauncher(install bool) *PlaywrightLauncher {
	return &PlaywrightLauncher{install: install}
}

// initialize starts the Playwright driver once.
func (l *PlaywrightLauncher) initialize() error {
	if l.initialized {
		return nil
	}

	// Discard driver output; stdout belongs to the MCP stream
	opts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}

	if l.install {
		if err := playwright.Install(opts); err != nil {
			return fmt.Errorf("failed to install playwright: %w", err)
		}
	}

	pw, err := playwright.Run(opts)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	l.playwright = pw
	l.initialized = true
	return nil
}

// Launch starts a fresh Chromium with no persistent profile, one context and one page.
func (l *PlaywrightLauncher) Launch(ctx context.Context, opts LaunchOptions) (*Session, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := l.initialize(); err != nil {
		return nil, err
	}

	browser, err := l.playwright.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args:     opts.Args,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to launch chromium: %w", err)
	}

	contextOpts := playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  opts.Viewport.Width,
			Height: opts.Viewport.Height,
		},
	}
	if opts.UserAgent != "" {
		contextOpts.UserAgent = playwright.String(opts.UserAgent)
	}
	bctx, err := browser.NewContext(contextOpts)
	if err != nil {
		browser.Close()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		bctx.Close()
		browser.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	if opts.DefaultTimeout > 0 {
		page.SetDefaultTimeout(float64(opts.DefaultTimeout.Milliseconds()))
	}

	closeFn := func() error {
		_ = bctx.Close() // closing the browser below reports the real failure
		return browser.Close()
	}
	return NewSession(uuid.NewString(), page, closeFn), nil
}

// Stop shuts the Playwright driver down. Safe to call when never started.
func (l *PlaywrightLauncher) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.initialized || l.playwright == nil {
		return nil
	}
	if err := l.playwright.Stop(); err != nil {
		return err
	}
	l.initialized = false
	l.playwright = nil
	return nil
}
