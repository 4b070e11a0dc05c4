package session

import (
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Page is the subset of playwright.Page the bridge drives.
type Page interface {
	Goto(url string, options ...playwright.PageGotoOptions) (playwright.Response, error)
	URL() string
	Title() (string, error)
	Content() (string, error)
	Evaluate(expression string, arg ...interface{}) (interface{}, error)
	Reload(options ...playwright.PageReloadOptions) (playwright.Response, error)
	WaitForSelector(selector string, options ...playwright.PageWaitForSelectorOptions) (playwright.ElementHandle, error)
	Fill(selector, value string, options ...playwright.PageFillOptions) error
	Click(selector string, options ...playwright.PageClickOptions) error
	Type(selector, text string, options ...playwright.PageTypeOptions) error
	SelectOption(selector string, values playwright.SelectOptionValues, options ...playwright.PageSelectOptionOptions) ([]string, error)
	ExpectNavigation(cb func() error, options ...playwright.PageExpectNavigationOptions) (playwright.Response, error)
	OnConsole(fn func(playwright.ConsoleMessage))
	OnRequest(fn func(playwright.Request))
	OnResponse(fn func(playwright.Response))
	RemoveListener(name string, handler interface{})
	Close(options ...playwright.PageCloseOptions) error
}

var _ Page = (playwright.Page)(nil)

// Session is a live browser together with its only page.
type Session struct {
	// ID distinguishes successive sessions in the logs
	ID string

	// Page is the page every workflow operates on
	Page Page

	// CreatedAt is the timestamp when the browser was launched
	CreatedAt time.Time

	closeFn   func() error
	closeOnce sync.Once
	closeErr  error
}

// NewSession wraps page and the function that tears down its browser.
func NewSession(id string, page Page, closeFn func() error) *Session {
	return &Session{
		ID:        id,
		Page:      page,
		CreatedAt: time.Now(),
		closeFn:   closeFn,
	}
}

// Close tears down the browser. Safe to call multiple times.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if s.closeFn != nil {
			s.closeErr = s.closeFn()
		}
	})
	return s.closeErr
}

// LaunchOptions configures a new browser.
type LaunchOptions struct {
	Headless  bool
	UserAgent string
	Viewport  Viewport
	Args      []string

	// DefaultTimeout applies to every page operation without its own bound
	DefaultTimeout time.Duration
}

// Viewport represents the browser viewport dimensions.
type Viewport struct {
	Width  int
	Height int
}
