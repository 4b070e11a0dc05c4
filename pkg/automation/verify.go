package automation

import (
	"context"
	"fmt"
	"time"
)

// VerifyOptions configures SubmitAndVerify.
type VerifyOptions struct {
	// Observer, if set, supplies network errors seen since the submit
	Observer *Observer

	SuccessSelectors []string
	ErrorSelectors   []string
	// ExpectedText counts as success when found in the page body
	ExpectedText string

	// OverlaySelectors are waited on to close before the success check
	OverlaySelectors []string

	Settle       time.Duration // after the submit, before any check
	OverlayClose time.Duration // bound on waiting for the overlay to close
	ResultSettle time.Duration // before each success check
	Reload       time.Duration // navigation bound for the reload
}

// Verification describes how success was established.
type Verification struct {
	// SuccessText is the text of the success indicator, if one was shown
	SuccessText string
	// TextFound is true when ExpectedText was in the page body
	TextFound bool
	// Reloaded is true when success only showed after a reload
	Reloaded bool
}

// SubmitAndVerify decides the outcome of a submit that has just happened.
//
// A network error from the observer and then an error indicator on the page
// each fail at once with *ServerError, without reloading. Otherwise a success
// indicator or the expected text means success. If neither shows, the page is
// reloaded once and the expected text looked for again; when it is still
// missing the result wraps ErrNotVerified.
func (d *Driver) SubmitAndVerify(ctx context.Context, opts VerifyOptions) (*Verification, error) {
	if err := Sleep(ctx, opts.Settle); err != nil {
		return nil, err
	}

	if opts.Observer != nil {
		if netErr := opts.Observer.NetworkError(); netErr != nil {
			return nil, netErr
		}
	}

	if len(opts.ErrorSelectors) > 0 {
		text, found, err := d.FirstText(opts.ErrorSelectors...)
		if err != nil {
			return nil, err
		}
		if found {
			return nil, &ServerError{Message: text}
		}
	}

	d.logger.Debugf("url after submit: %s", d.page.URL())

	if len(opts.OverlaySelectors) > 0 {
		if d.WaitForOverlayClose(opts.OverlaySelectors, opts.OverlayClose) {
			d.logger.Debugf("overlay closed after submit")
		}
	}
	if err := Sleep(ctx, opts.ResultSettle); err != nil {
		return nil, err
	}

	var check struct {
		SuccessText string `json:"successText"`
		TextFound   bool   `json:"textFound"`
	}
	arg := map[string]interface{}{"selectors": nonNil(opts.SuccessSelectors), "text": opts.ExpectedText}
	if err := d.eval(scriptCheckSuccess, arg, &check); err != nil {
		return nil, err
	}
	d.logger.Debugf("success check: indicator=%q text found=%t", check.SuccessText, check.TextFound)
	if check.SuccessText != "" || check.TextFound {
		return &Verification{SuccessText: check.SuccessText, TextFound: check.TextFound}, nil
	}

	d.logger.Infof("no clear success indicator, reloading to check again")
	if err := d.Reload(opts.Reload); err != nil {
		return nil, err
	}
	if err := Sleep(ctx, opts.ResultSettle); err != nil {
		return nil, err
	}

	if opts.ExpectedText != "" {
		found, err := d.BodyContains(opts.ExpectedText)
		if err != nil {
			return nil, err
		}
		if found {
			return &Verification{TextFound: true, Reloaded: true}, nil
		}
	}
	return nil, fmt.Errorf("%w: %q does not appear after reload", ErrNotVerified, opts.ExpectedText)
}
