// Package auth keeps the bridge signed in to the clinic application.
//
// The controller's logged-in flag is advisory. The real authority is the
// session cookie held by the browser, so EnsureLoggedIn re-validates by
// visiting a protected page before trusting the flag. Any page other than
// the login page counts as proof of a valid session; an application that
// sends signed-out users somewhere else would fool this check.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gobwas/glob"
	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/atlas-bridge/pkg/automation"
	"github.com/entrhq/atlas-bridge/pkg/config"
	"github.com/entrhq/atlas-bridge/pkg/logging"
	"github.com/entrhq/atlas-bridge/pkg/session"
)

// Selectors on the login page.
const (
	EmailField      = `input[type="email"], input[name="email"]`
	PasswordField   = `input[type="password"], input[name="password"]`
	SubmitControl   = `button[type="submit"], input[type="submit"], .btn-primary, .login-btn`
	LoginErrorField = `.alert-danger, .error, .invalid-feedback`
)

// Protected and login resources, relative to the base URL.
const (
	ProbePath = "/patients"
	LoginPath = "/login"
)

// ErrStillOnLoginPage is the cause when a submitted login lands back on the
// login page without an error message.
var ErrStillOnLoginPage = errors.New("still on login page")

// AuthError reports a failed sign-in.
type AuthError struct {
	// Message is the error text the login page showed, if any
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return "Login failed: " + e.Message
	}
	if errors.Is(e.Err, ErrStillOnLoginPage) {
		return "Login failed - still on login page"
	}
	return fmt.Sprintf("Login failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Sessions is the part of session.Manager the controller needs.
type Sessions interface {
	Acquire(ctx context.Context) (*session.Session, error)
	Current() *session.Session
}

// Controller is the LOGGED_OUT / LOGGED_IN state machine. It is the only
// writer of the logged-in flag.
type Controller struct {
	mu       sync.Mutex
	sessions Sessions
	cfg      *config.Config
	login    glob.Glob
	loggedIn bool
	logger   *logging.Logger
}

// NewController creates a controller in the LOGGED_OUT state.
func NewController(sessions Sessions, cfg *config.Config, logger *logging.Logger) (*Controller, error) {
	g, err := glob.Compile(cfg.Patterns.LoginURL)
	if err != nil {
		return nil, fmt.Errorf("invalid login url pattern %q: %w", cfg.Patterns.LoginURL, err)
	}
	return &Controller{
		sessions: sessions,
		cfg:      cfg,
		login:    g,
		logger:   logger,
	}, nil
}

// LoggedIn reports the advisory login flag.
func (c *Controller) LoggedIn() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loggedIn
}

// Invalidate forces the LOGGED_OUT state, e.g. after a workflow was
// redirected to the login page.
func (c *Controller) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loggedIn {
		c.logger.Infof("session expired, login required")
	}
	c.loggedIn = false
}

// IsLoginURL reports whether url is the login page.
func (c *Controller) IsLoginURL(url string) bool {
	return c.login.Match(url)
}

// EnsureLoggedIn makes sure the browser holds a signed-in session. When the
// flag says LOGGED_IN it first probes a protected page and returns without
// touching the credentials if that page loads. Otherwise it signs in. Every
// failure leaves the controller LOGGED_OUT.
func (c *Controller) EnsureLoggedIn(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loggedIn && c.sessions.Current() != nil {
		if c.probe(c.sessions.Current().Page) {
			c.logger.Debugf("already logged in")
			return nil
		}
		c.loggedIn = false
	}

	if err := c.signIn(ctx); err != nil {
		c.loggedIn = false
		c.logger.Errorf("%v", err)
		return err
	}
	c.loggedIn = true
	c.logger.Infof("login successful")
	return nil
}

// probe visits the protected page and reports whether it stayed off the login page.
func (c *Controller) probe(page session.Page) bool {
	d := automation.New(page, c.logger)
	if err := d.Goto(c.cfg.URL(ProbePath), c.cfg.Timeouts.Probe); err != nil {
		c.logger.Infof("session probe failed, need to re-login: %v", err)
		return false
	}
	if c.IsLoginURL(page.URL()) {
		c.logger.Infof("session expired, redirected to %s", page.URL())
		return false
	}
	return true
}

func (c *Controller) signIn(ctx context.Context) error {
	if err := c.cfg.RequireCredentials(); err != nil {
		return &AuthError{Err: err}
	}

	s, err := c.sessions.Acquire(ctx)
	if err != nil {
		return err
	}
	page := s.Page
	d := automation.New(page, c.logger)

	c.logger.Infof("navigating to login page")
	if err := d.Goto(c.cfg.URL(LoginPath), c.cfg.Timeouts.Navigation); err != nil {
		return &AuthError{Err: err}
	}

	c.logger.Debugf("filling login form")
	if err := d.WaitFor(EmailField, c.cfg.Timeouts.Selector); err != nil {
		return &AuthError{Err: err}
	}
	if err := page.Type(EmailField, c.cfg.Credentials.Email); err != nil {
		return &AuthError{Err: fmt.Errorf("failed to type email: %w", err)}
	}
	if err := d.WaitFor(PasswordField, c.cfg.Timeouts.Selector); err != nil {
		return &AuthError{Err: err}
	}
	if err := page.Type(PasswordField, c.cfg.Credentials.Password); err != nil {
		return &AuthError{Err: fmt.Errorf("failed to type password: %w", err)}
	}

	c.logger.Debugf("submitting login form")
	navOpts := playwright.PageExpectNavigationOptions{WaitUntil: playwright.WaitUntilStateNetworkidle}
	if c.cfg.Timeouts.LoginSubmit > 0 {
		navOpts.Timeout = playwright.Float(float64(c.cfg.Timeouts.LoginSubmit.Milliseconds()))
	}
	var clickErr error
	_, navErr := page.ExpectNavigation(func() error {
		clickErr = page.Click(SubmitControl)
		return clickErr
	}, navOpts)
	if clickErr != nil {
		return &AuthError{Err: fmt.Errorf("failed to submit login form: %w", clickErr)}
	}
	if navErr != nil {
		// A rejected login often re-renders in place; the URL check below decides.
		c.logger.Warnf("no navigation after login submit: %v", navErr)
	}

	if !c.IsLoginURL(page.URL()) {
		return nil
	}

	text, found, err := d.FirstText(LoginErrorField)
	if err != nil {
		return &AuthError{Err: err}
	}
	if found {
		return &AuthError{Message: text}
	}
	return &AuthError{Err: ErrStillOnLoginPage}
}
