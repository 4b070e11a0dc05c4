package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/atlas-bridge/pkg/logging"
)

// livenessScript reads something trivial from the page; it fails once the
// browser or page is gone.
const livenessScript = "/* atlas:liveness */ () => document.title"

// Launcher starts browsers.
type Launcher interface {
	// Launch starts an isolated browser with one page.
	Launch(ctx context.Context, opts LaunchOptions) (*Session, error)
	// Stop releases the driver behind the launcher.
	Stop() error
}

// Manager owns the process-wide browser session.
type Manager struct {
	mu       sync.Mutex
	launcher Launcher
	opts     LaunchOptions
	current  *Session
	logger   *logging.Logger
}

// NewManager creates a manager that launches browsers with opts.
func NewManager(launcher Launcher, opts LaunchOptions, logger *logging.Logger) *Manager {
	return &Manager{
		launcher: launcher,
		opts:     opts,
		logger:   logger,
	}
}

// Acquire returns the live session, creating one when none exists or the
// existing one no longer answers. Launch errors are returned unchanged apart
// from wrapping.
func (m *Manager) Acquire(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if m.current != nil {
		_, err := m.current.Page.Evaluate(livenessScript)
		if err == nil {
			return m.current, nil
		}
		m.logger.Warnf("browser connection lost (session %s): %v, reinitializing", m.current.ID, err)
		// The browser may already be gone; the close error carries nothing useful.
		_ = m.current.Close()
		m.current = nil
	}

	m.logger.Infof("launching new browser instance")
	s, err := m.launcher.Launch(ctx, m.opts)
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	if s == nil || s.Page == nil {
		if s != nil {
			_ = s.Close()
		}
		return nil, errors.New("failed to launch browser: launcher returned no page")
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}

	s.Page.OnConsole(m.forwardConsole)
	m.current = s
	m.logger.Infof("browser session %s ready", s.ID)
	return s, nil
}

// forwardConsole copies in-page console output to the operator log.
func (m *Manager) forwardConsole(msg playwright.ConsoleMessage) {
	m.logger.Infof("browser console [%s]: %s", msg.Type(), msg.Text())
}

// Current returns the session without probing it, or nil.
func (m *Manager) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Alive reports whether a session exists and its page still answers.
func (m *Manager) Alive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return false
	}
	_, err := m.current.Page.Evaluate(livenessScript)
	return err == nil
}

// Release closes the browser if present and clears the session. Idempotent.
func (m *Manager) Release() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return nil
	}
	s := m.current
	m.current = nil
	if err := s.Close(); err != nil {
		return fmt.Errorf("failed to close browser: %w", err)
	}
	m.logger.Infof("browser session %s closed", s.ID)
	return nil
}

// Shutdown releases the session and stops the launcher.
func (m *Manager) Shutdown() error {
	releaseErr := m.Release()
	if err := m.launcher.Stop(); err != nil {
		return errors.Join(releaseErr, fmt.Errorf("failed to stop playwright: %w", err))
	}
	return releaseErr
}
