package automation

import (
	"fmt"
	"time"
)

// Role groups for clickable elements, scanned in this order.
var (
	ClickableRoles = []string{"a", "button", `[role="button"]`, ".btn"}
	ButtonRoles    = []string{`button, a[role="button"], .btn, [role="button"]`}
)

// Clickable identifies an element found by FindClickableByText.
type Clickable struct {
	// Selector addresses the element through its marker attribute
	Selector string
	Tag      string
	Text     string
	Href     string
}

// FindClickableByText scans each role group in order for a visible element
// whose text contains any of texts, ignoring case. It returns nil when
// nothing matches.
func (d *Driver) FindClickableByText(texts, roles []string) (*Clickable, error) {
	token, selector := newMarker()
	var result struct {
		Found bool   `json:"found"`
		Tag   string `json:"tag"`
		Text  string `json:"text"`
		Href  string `json:"href"`
	}
	arg := map[string]interface{}{
		"texts": texts,
		"roles": roles,
		"attr":  MarkerAttribute,
		"token": token,
	}
	if err := d.eval(scriptFindClickable, arg, &result); err != nil {
		return nil, err
	}
	if !result.Found {
		return nil, nil
	}
	return &Clickable{Selector: selector, Tag: result.Tag, Text: result.Text, Href: result.Href}, nil
}

// ClickByText clicks the element FindClickableByText returns.
// It reports false when nothing matched.
func (d *Driver) ClickByText(texts, roles []string) (bool, error) {
	el, err := d.FindClickableByText(texts, roles)
	if err != nil || el == nil {
		return false, err
	}
	d.logger.Debugf("clicking %s %q", el.Tag, el.Text)
	if err := d.page.Click(el.Selector); err != nil {
		return false, fmt.Errorf("failed to click %q: %w", el.Text, err)
	}
	return true, nil
}

// ClickSweep clicks, from inside the page, the first element in roles whose
// text contains any of texts. Unlike ClickByText it ignores visibility.
func (d *Driver) ClickSweep(texts, roles []string) (bool, error) {
	var result struct {
		Clicked bool   `json:"clicked"`
		Text    string `json:"text"`
	}
	if err := d.eval(scriptClickSweep, map[string]interface{}{"texts": texts, "roles": roles}, &result); err != nil {
		return false, err
	}
	if result.Clicked {
		d.logger.Debugf("clicked %q from page script", result.Text)
	}
	return result.Clicked, nil
}

// ClickSelector waits up to timeout for selector and clicks it.
// It reports false when the selector never appears.
func (d *Driver) ClickSelector(selector string, timeout time.Duration) (bool, error) {
	if err := d.WaitFor(selector, timeout); err != nil {
		d.logger.Debugf("%v", err)
		return false, nil
	}
	if err := d.page.Click(selector); err != nil {
		return false, fmt.Errorf("failed to click %s: %w", selector, err)
	}
	return true, nil
}

// StyleQuery matches elements by class name fragments.
type StyleQuery struct {
	Roles []string
	// AnyOf matches when the class contains any one fragment
	AnyOf []string
	// AllOf matches when the class contains every fragment of any group
	AllOf [][]string
}

// ClickStyled clicks the first visible element matching q.
// It reports false when nothing matched.
func (d *Driver) ClickStyled(q StyleQuery) (bool, error) {
	token, selector := newMarker()
	var result struct {
		Found     bool   `json:"found"`
		Text      string `json:"text"`
		ClassName string `json:"className"`
	}
	anyOf, allOf := q.AnyOf, q.AllOf
	if anyOf == nil {
		anyOf = []string{}
	}
	if allOf == nil {
		allOf = [][]string{}
	}
	arg := map[string]interface{}{
		"roles": nonNil(q.Roles),
		"anyOf": anyOf,
		"allOf": allOf,
		"attr":  MarkerAttribute,
		"token": token,
	}
	if err := d.eval(scriptFindStyled, arg, &result); err != nil {
		return false, err
	}
	if !result.Found {
		return false, nil
	}
	d.logger.Debugf("clicking styled element %q (class %q)", result.Text, result.ClassName)
	if err := d.page.Click(selector); err != nil {
		return false, fmt.Errorf("failed to click %q: %w", result.Text, err)
	}
	return true, nil
}
