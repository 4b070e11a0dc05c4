package automation

import (
	"fmt"
	"sync"

	"github.com/gobwas/glob"
	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/atlas-bridge/pkg/logging"
	"github.com/entrhq/atlas-bridge/pkg/session"
)

// CapturedRequest is a request matching the observer's pattern.
type CapturedRequest struct {
	Method string
	URL    string
	Body   string
}

// Observer watches a page's traffic between Observe and Close. It records
// the first HTTP error status and captures POSTs whose URL matches a pattern.
// Handlers run on Playwright's event goroutine, so all state is guarded.
type Observer struct {
	page    session.Page
	pattern glob.Glob
	logger  *logging.Logger

	mu         sync.Mutex
	networkErr *ServerError
	captured   []CapturedRequest

	onRequest  func(playwright.Request)
	onResponse func(playwright.Response)
	closeOnce  sync.Once
}

// Observe attaches request and response hooks to page. postPattern is a glob
// matched against the URL of POST requests to capture. The caller must Close
// the observer on every path.
func Observe(page session.Page, postPattern string, logger *logging.Logger) (*Observer, error) {
	g, err := glob.Compile(postPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid request pattern %q: %w", postPattern, err)
	}

	o := &Observer{page: page, pattern: g, logger: logger}
	o.onRequest = o.handleRequest
	o.onResponse = o.handleResponse
	page.OnRequest(o.onRequest)
	page.OnResponse(o.onResponse)
	return o, nil
}

func (o *Observer) handleResponse(resp playwright.Response) {
	status := resp.Status()
	if status < 400 {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.networkErr != nil {
		return
	}
	o.networkErr = &ServerError{Status: status, StatusText: resp.StatusText(), URL: resp.URL()}
	o.logger.Warnf("network error detected: HTTP %d %s for %s", status, resp.StatusText(), resp.URL())
}

func (o *Observer) handleRequest(req playwright.Request) {
	if req.Method() != "POST" || !o.pattern.Match(req.URL()) {
		return
	}
	body, err := req.PostData()
	if err != nil {
		body = ""
	}
	o.mu.Lock()
	o.captured = append(o.captured, CapturedRequest{Method: req.Method(), URL: req.URL(), Body: body})
	o.mu.Unlock()
	o.logger.Debugf("captured %s %s body=%q", req.Method(), req.URL(), body)
}

// NetworkError returns the first HTTP error status seen, or nil.
func (o *Observer) NetworkError() *ServerError {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.networkErr
}

// Captured returns the matching POSTs seen so far.
func (o *Observer) Captured() []CapturedRequest {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]CapturedRequest(nil), o.captured...)
}

// Close detaches both hooks. Safe to call more than once.
func (o *Observer) Close() {
	o.closeOnce.Do(func() {
		o.page.RemoveListener("request", o.onRequest)
		o.page.RemoveListener("response", o.onResponse)
	})
}
