package sessiontest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/entrhq/atlas-bridge/pkg/session"
)

// ErrClosed is what a page returns once its fake browser was closed.
var ErrClosed = errors.New("sessiontest: browser has been closed")

// Launcher hands out scripted pages.
type Launcher struct {
	mu       sync.Mutex
	launches int
	closes   int
	stopped  bool

	// NewPage builds the page for each launch; defaults to NewPage.
	NewPage func() *Page
	// Err, when set, fails every launch.
	Err error

	pages []*Page
}

var _ session.Launcher = (*Launcher)(nil)

func (l *Launcher) Launch(ctx context.Context, opts session.LaunchOptions) (*session.Session, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.Err != nil {
		return nil, l.Err
	}
	l.launches++

	page := NewPage()
	if l.NewPage != nil {
		page = l.NewPage()
	}
	l.pages = append(l.pages, page)

	closeFn := func() error {
		l.mu.Lock()
		l.closes++
		l.mu.Unlock()
		page.Break(ErrClosed)
		return page.Close()
	}
	return session.NewSession(fmt.Sprintf("fake-%d", l.launches), page, closeFn), nil
}

func (l *Launcher) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopped = true
	return nil
}

// Launches returns how many browsers were started.
func (l *Launcher) Launches() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.launches
}

// Closes returns how many browsers were closed.
func (l *Launcher) Closes() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closes
}

// Stopped reports whether Stop was called.
func (l *Launcher) Stopped() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stopped
}

// Page returns the page of the i-th launch.
func (l *Launcher) Page(i int) *Page {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pages[i]
}
