package automation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/atlas-bridge/pkg/logging"
	"github.com/entrhq/atlas-bridge/pkg/session"
)

// MarkerAttribute is written onto elements located by a page script so that
// a later click or fill targets the same element.
const MarkerAttribute = "data-bridge-target"

// Driver provides heuristic UI primitives over one page.
type Driver struct {
	page   session.Page
	logger *logging.Logger
}

// New creates a driver for page.
func New(page session.Page, logger *logging.Logger) *Driver {
	return &Driver{page: page, logger: logger}
}

// Page returns the page the driver operates on.
func (d *Driver) Page() session.Page {
	return d.page
}

// newMarker returns a fresh token and the selector addressing it.
func newMarker() (token, selector string) {
	token = uuid.NewString()
	return token, fmt.Sprintf(`[%s="%s"]`, MarkerAttribute, token)
}

// eval runs script with arg and decodes the result into out (if non-nil).
func (d *Driver) eval(script string, arg interface{}, out interface{}) error {
	result, err := d.page.Evaluate(script, arg)
	if err != nil {
		return fmt.Errorf("page evaluation failed: %w", err)
	}
	if out == nil {
		return nil
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode evaluation result: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("unexpected evaluation result %s: %w", raw, err)
	}
	return nil
}

func millis(d time.Duration) *float64 {
	return playwright.Float(float64(d.Milliseconds()))
}

// Sleep waits for d or until ctx is done. Non-positive durations return at once.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Goto navigates and waits for the network to go idle.
func (d *Driver) Goto(url string, timeout time.Duration) error {
	opts := playwright.PageGotoOptions{WaitUntil: playwright.WaitUntilStateNetworkidle}
	if timeout > 0 {
		opts.Timeout = millis(timeout)
	}
	if _, err := d.page.Goto(url, opts); err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

// Reload reloads the page and waits for the network to go idle.
func (d *Driver) Reload(timeout time.Duration) error {
	opts := playwright.PageReloadOptions{WaitUntil: playwright.WaitUntilStateNetworkidle}
	if timeout > 0 {
		opts.Timeout = millis(timeout)
	}
	if _, err := d.page.Reload(opts); err != nil {
		return fmt.Errorf("reload failed: %w", err)
	}
	return nil
}

// WaitFor waits until selector is attached to the DOM. A miss wraps ErrElementNotFound.
func (d *Driver) WaitFor(selector string, timeout time.Duration) error {
	opts := playwright.PageWaitForSelectorOptions{State: playwright.WaitForSelectorStateAttached}
	if timeout > 0 {
		opts.Timeout = millis(timeout)
	}
	if _, err := d.page.WaitForSelector(selector, opts); err != nil {
		return fmt.Errorf("%w: %s not present after %s: %w", ErrElementNotFound, selector, timeout, err)
	}
	return nil
}

// WaitGone waits until no element matches selector or every match is hidden.
func (d *Driver) WaitGone(selector string, timeout time.Duration) error {
	opts := playwright.PageWaitForSelectorOptions{State: playwright.WaitForSelectorStateHidden}
	if timeout > 0 {
		opts.Timeout = millis(timeout)
	}
	if _, err := d.page.WaitForSelector(selector, opts); err != nil {
		return fmt.Errorf("%s still visible after %s: %w", selector, timeout, err)
	}
	return nil
}

// TypeIfPresent types text into selector if it appears within timeout.
// Absence is not an error; it returns false.
func (d *Driver) TypeIfPresent(selector, text string, timeout time.Duration) (bool, error) {
	if err := d.WaitFor(selector, timeout); err != nil {
		d.logger.Warnf("optional field %s not found: %v", selector, err)
		return false, nil
	}
	if err := d.page.Type(selector, text); err != nil {
		return false, fmt.Errorf("failed to type into %s: %w", selector, err)
	}
	return true, nil
}

// FirstText returns the trimmed text of the first selector whose element has any.
func (d *Driver) FirstText(selectors ...string) (string, bool, error) {
	var result struct {
		Found bool   `json:"found"`
		Text  string `json:"text"`
	}
	if err := d.eval(scriptFirstText, map[string]interface{}{"selectors": selectors}, &result); err != nil {
		return "", false, err
	}
	return result.Text, result.Found, nil
}

// BodyContains reports whether the page body text contains text, ignoring case.
func (d *Driver) BodyContains(text string) (bool, error) {
	var found bool
	if err := d.eval(scriptBodyContains, map[string]interface{}{"text": text}, &found); err != nil {
		return false, err
	}
	return found, nil
}

// Describe logs the page's buttons, links and forms at debug verbosity.
func (d *Driver) Describe(label string) {
	if !d.logger.Enabled(logging.LevelDebug) {
		return
	}
	result, err := d.page.Evaluate(scriptDescribePage)
	if err != nil {
		d.logger.Tracef("%s: could not describe page: %v", label, err)
		return
	}
	raw, _ := json.MarshalIndent(result, "", "  ")
	d.logger.Tracef("%s: %s", label, raw)
}

// joinSelectors combines candidate selectors into one CSS selector list.
func joinSelectors(selectors []string) string {
	return strings.Join(selectors, ", ")
}
