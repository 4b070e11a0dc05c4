package workflow

import (
	"context"
	"errors"
	"sync"

	"github.com/entrhq/atlas-bridge/pkg/automation"
	"github.com/entrhq/atlas-bridge/pkg/config"
	"github.com/entrhq/atlas-bridge/pkg/logging"
	"github.com/entrhq/atlas-bridge/pkg/session"
)

// ErrNoPage is returned when no browser page is available after signing in.
var ErrNoPage = errors.New("browser page not available")

// Authenticator is the part of auth.Controller the workflows need.
type Authenticator interface {
	EnsureLoggedIn(ctx context.Context) error
	Invalidate()
	IsLoginURL(url string) bool
}

// Sessions exposes the current browser session.
type Sessions interface {
	Current() *session.Session
}

// Runner executes workflows one at a time against the single shared page.
type Runner struct {
	mu       sync.Mutex
	sessions Sessions
	auth     Authenticator
	cfg      *config.Config
	logger   *logging.Logger
}

// NewRunner creates a runner over the given session owner and authenticator.
func NewRunner(sessions Sessions, authenticator Authenticator, cfg *config.Config, logger *logging.Logger) *Runner {
	return &Runner{
		sessions: sessions,
		auth:     authenticator,
		cfg:      cfg,
		logger:   logger,
	}
}

func (r *Runner) driver() (*automation.Driver, error) {
	s := r.sessions.Current()
	if s == nil || s.Page == nil {
		return nil, ErrNoPage
	}
	return automation.New(s.Page, r.logger), nil
}

// open signs in if needed and navigates to path. A redirect to the login
// page invalidates the login, signs in again and retries the navigation once.
func (r *Runner) open(ctx context.Context, path string) (*automation.Driver, error) {
	r.step(ctx, "signing in")
	if err := r.auth.EnsureLoggedIn(ctx); err != nil {
		return nil, err
	}
	d, err := r.driver()
	if err != nil {
		return nil, err
	}

	url := r.cfg.URL(path)
	r.step(ctx, "navigating to %s", url)
	if err := d.Goto(url, r.cfg.Timeouts.Navigation); err != nil {
		return nil, err
	}
	if !r.auth.IsLoginURL(d.Page().URL()) {
		return d, nil
	}

	r.step(ctx, "session expired, re-logging in")
	r.auth.Invalidate()
	if err := r.auth.EnsureLoggedIn(ctx); err != nil {
		return nil, err
	}
	if d, err = r.driver(); err != nil {
		return nil, err
	}
	if err := d.Goto(url, r.cfg.Timeouts.Navigation); err != nil {
		return nil, err
	}
	if r.auth.IsLoginURL(d.Page().URL()) {
		r.auth.Invalidate()
		return nil, errors.New("still redirected to the login page after signing in again")
	}
	return d, nil
}
