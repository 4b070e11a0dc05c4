package sessiontest

import "github.com/playwright-community/playwright-go"

// Response implements the parts of playwright.Response the bridge reads.
// Calling any other method panics.
type Response struct {
	playwright.Response
	status     int
	statusText string
	url        string
}

func (r *Response) Status() int        { return r.status }
func (r *Response) StatusText() string { return r.statusText }
func (r *Response) URL() string        { return r.url }

// Request implements the parts of playwright.Request the bridge reads.
type Request struct {
	playwright.Request
	method string
	url    string
	body   string
}

func (r *Request) Method() string            { return r.method }
func (r *Request) URL() string               { return r.url }
func (r *Request) PostData() (string, error) { return r.body, nil }

// ConsoleMessage implements the parts of playwright.ConsoleMessage the bridge reads.
type ConsoleMessage struct {
	playwright.ConsoleMessage
	kind string
	text string
}

func (m *ConsoleMessage) Type() string { return m.kind }
func (m *ConsoleMessage) Text() string { return m.text }
