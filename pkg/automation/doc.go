// Package automation holds best-effort UI primitives for pages without
// stable selectors: text-driven element discovery, verified form entry,
// overlay waits, fallback chains and post-submit verification.
//
// Each primitive that searches the page does so with one evaluation that
// returns plain data. Elements found that way are tagged with
// MarkerAttribute so the following click or fill hits the same element.
//
// The DOM heuristics live in the page scripts of scripts.go: visibility via
// offsetParent, keyword include and exclude lists for text fields, and class
// matching for styled buttons. Package tests answer those scripts by tag
// through sessiontest, so the heuristics themselves only run against a real
// browser.
package automation
