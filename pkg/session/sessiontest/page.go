// Package sessiontest provides a scripted stand-in for a browser page and a
// launcher that hands it out, for tests of code built on package session.
package sessiontest

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/atlas-bridge/pkg/session"
)

// ScriptFunc answers one tagged page script. arg is the value passed to Evaluate, if any.
type ScriptFunc func(arg interface{}) (interface{}, error)

var scriptTag = regexp.MustCompile(`^\s*/\*\s*atlas:([a-z0-9-]+)\s*\*/`)

// ScriptTag returns the atlas:<tag> marker at the start of a page script.
func ScriptTag(expression string) string {
	if m := scriptTag.FindStringSubmatch(expression); m != nil {
		return m[1]
	}
	return ""
}

// Page is a scripted session.Page. Scripts are routed by their atlas tag,
// selectors resolve when shown, and every operation is recorded.
type Page struct {
	mu        sync.Mutex
	url       string
	title     string
	content   string
	present   map[string]bool
	values    map[string]string
	scripts   map[string]ScriptFunc
	calls     []string
	broken    error
	closed    bool
	listeners map[string][]interface{}

	// Optional behaviour hooks. They run without the page lock held, so
	// they may call the setters below.
	GotoHook   func(p *Page, url string) error
	ClickHook  func(p *Page, selector string) error
	ReloadHook func(p *Page) error
	TypeHook   func(p *Page, selector, text string) error

	// NavigationErr is returned by ExpectNavigation after the callback ran
	NavigationErr error
}

var _ session.Page = (*Page)(nil)

// NewPage returns a blank page at about:blank.
func NewPage() *Page {
	return &Page{
		url:       "about:blank",
		present:   map[string]bool{},
		values:    map[string]string{},
		scripts:   map[string]ScriptFunc{},
		listeners: map[string][]interface{}{},
	}
}

func (p *Page) record(format string, args ...interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, fmt.Sprintf(format, args...))
	return p.broken
}

// SetURL moves the page to url without recording a navigation.
func (p *Page) SetURL(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.url = url
}

// SetTitle sets what Title and the liveness script return.
func (p *Page) SetTitle(title string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.title = title
}

// SetContent sets the HTML returned by Content.
func (p *Page) SetContent(html string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.content = html
}

// Show makes WaitForSelector resolve for each selector.
func (p *Page) Show(selectors ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range selectors {
		p.present[s] = true
	}
}

// Hide undoes Show.
func (p *Page) Hide(selectors ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range selectors {
		delete(p.present, s)
	}
}

// Handle routes scripts tagged atlas:<tag> to fn.
func (p *Page) Handle(tag string, fn ScriptFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scripts[tag] = fn
}

// Break makes every later operation fail with err, as a crashed browser would.
func (p *Page) Break(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.broken = err
}

// Value returns what was typed, filled or selected into selector.
func (p *Page) Value(selector string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.values[selector]
}

// SetValue overwrites the recorded value of selector.
func (p *Page) SetValue(selector, value string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.values[selector] = value
}

// Calls returns every recorded operation in order.
func (p *Page) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

// Count returns how many recorded operations start with prefix.
func (p *Page) Count(prefix string) int {
	n := 0
	for _, c := range p.Calls() {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

// Closed reports whether Close was called.
func (p *Page) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Listeners returns how many handlers are attached for event name.
func (p *Page) Listeners(name string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.listeners[name])
}

func (p *Page) matches(selector string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.present[selector] {
		return true
	}
	for _, part := range strings.Split(selector, ",") {
		if p.present[strings.TrimSpace(part)] {
			return true
		}
	}
	return false
}

func (p *Page) Goto(url string, options ...playwright.PageGotoOptions) (playwright.Response, error) {
	if err := p.record("goto %s", url); err != nil {
		return nil, err
	}
	if p.GotoHook != nil {
		return nil, p.GotoHook(p, url)
	}
	p.SetURL(url)
	return nil, nil
}

func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *Page) Title() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.title, p.broken
}

func (p *Page) Content() (string, error) {
	if err := p.record("content"); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.content, nil
}

func (p *Page) Evaluate(expression string, arg ...interface{}) (interface{}, error) {
	tag := ScriptTag(expression)
	if err := p.record("eval %s", tag); err != nil {
		return nil, err
	}

	p.mu.Lock()
	fn := p.scripts[tag]
	title := p.title
	p.mu.Unlock()

	if fn == nil {
		if tag == "liveness" {
			return title, nil
		}
		return nil, fmt.Errorf("sessiontest: no handler for script %q", tag)
	}
	var a interface{}
	if len(arg) > 0 {
		a = arg[0]
	}
	return fn(a)
}

func (p *Page) Reload(options ...playwright.PageReloadOptions) (playwright.Response, error) {
	if err := p.record("reload"); err != nil {
		return nil, err
	}
	if p.ReloadHook != nil {
		return nil, p.ReloadHook(p)
	}
	return nil, nil
}

func (p *Page) WaitForSelector(selector string, options ...playwright.PageWaitForSelectorOptions) (playwright.ElementHandle, error) {
	if err := p.record("wait %s", selector); err != nil {
		return nil, err
	}

	waitGone := false
	if len(options) > 0 && options[0].State != nil {
		switch *options[0].State {
		case *playwright.WaitForSelectorStateDetached, *playwright.WaitForSelectorStateHidden:
			waitGone = true
		}
	}

	if p.matches(selector) != waitGone {
		return nil, nil
	}
	return nil, fmt.Errorf("timeout exceeded waiting for selector %q", selector)
}

func (p *Page) Fill(selector, value string, options ...playwright.PageFillOptions) error {
	if err := p.record("fill %s %s", selector, value); err != nil {
		return err
	}
	p.SetValue(selector, value)
	return nil
}

func (p *Page) Click(selector string, options ...playwright.PageClickOptions) error {
	if err := p.record("click %s", selector); err != nil {
		return err
	}
	if p.ClickHook != nil {
		return p.ClickHook(p, selector)
	}
	return nil
}

func (p *Page) Type(selector, text string, options ...playwright.PageTypeOptions) error {
	if err := p.record("type %s %s", selector, text); err != nil {
		return err
	}
	if p.TypeHook != nil {
		return p.TypeHook(p, selector, text)
	}
	p.mu.Lock()
	p.values[selector] += text
	p.mu.Unlock()
	return nil
}

func (p *Page) SelectOption(selector string, values playwright.SelectOptionValues, options ...playwright.PageSelectOptionOptions) ([]string, error) {
	var picked []string
	if values.Values != nil {
		picked = *values.Values
	}
	if err := p.record("select %s %s", selector, strings.Join(picked, ",")); err != nil {
		return nil, err
	}
	if len(picked) > 0 {
		p.SetValue(selector, picked[0])
	}
	return picked, nil
}

func (p *Page) ExpectNavigation(cb func() error, options ...playwright.PageExpectNavigationOptions) (playwright.Response, error) {
	if err := p.record("expect-navigation"); err != nil {
		return nil, err
	}
	if err := cb(); err != nil {
		return nil, err
	}
	return nil, p.NavigationErr
}

func (p *Page) on(name string, handler interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners[name] = append(p.listeners[name], handler)
}

func (p *Page) OnConsole(fn func(playwright.ConsoleMessage)) { p.on("console", fn) }
func (p *Page) OnRequest(fn func(playwright.Request))        { p.on("request", fn) }
func (p *Page) OnResponse(fn func(playwright.Response))      { p.on("response", fn) }

// RemoveListener detaches handler, comparing function identity the same way
// playwright does.
func (p *Page) RemoveListener(name string, handler interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()

	target := reflect.ValueOf(handler).Pointer()
	kept := p.listeners[name][:0]
	removed := false
	for _, h := range p.listeners[name] {
		if !removed && reflect.ValueOf(h).Pointer() == target {
			removed = true
			continue
		}
		kept = append(kept, h)
	}
	p.listeners[name] = kept
}

func (p *Page) Close(options ...playwright.PageCloseOptions) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *Page) handlers(name string) []interface{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]interface{}(nil), p.listeners[name]...)
}

// EmitConsole delivers a console message to the attached handlers.
func (p *Page) EmitConsole(kind, text string) {
	msg := &ConsoleMessage{kind: kind, text: text}
	for _, h := range p.handlers("console") {
		h.(func(playwright.ConsoleMessage))(msg)
	}
}

// EmitRequest delivers a request event to the attached handlers.
func (p *Page) EmitRequest(method, url, body string) {
	req := &Request{method: method, url: url, body: body}
	for _, h := range p.handlers("request") {
		h.(func(playwright.Request))(req)
	}
}

// EmitResponse delivers a response event to the attached handlers.
func (p *Page) EmitResponse(status int, statusText, url string) {
	resp := &Response{status: status, statusText: statusText, url: url}
	for _, h := range p.handlers("response") {
		h.(func(playwright.Response))(resp)
	}
}
