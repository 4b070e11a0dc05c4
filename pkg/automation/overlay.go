package automation

import "time"

// WaitForOverlay races selectors for up to timeout and reports whether any
// appeared. A miss only logs a warning; callers must not assume the overlay
// is present.
func (d *Driver) WaitForOverlay(selectors []string, timeout time.Duration) bool {
	if err := d.WaitFor(joinSelectors(selectors), timeout); err != nil {
		d.logger.Warnf("no overlay detected within %s, continuing", timeout)
		return false
	}
	d.logger.Debugf("overlay detected")
	return true
}

// WaitForOverlayClose waits up to timeout for every selector to be gone or
// hidden. A timeout only logs; it reports whether the overlay closed.
func (d *Driver) WaitForOverlayClose(selectors []string, timeout time.Duration) bool {
	if err := d.WaitGone(joinSelectors(selectors), timeout); err != nil {
		d.logger.Debugf("overlay did not close: %v", err)
		return false
	}
	return true
}
