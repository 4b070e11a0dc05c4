// Package session owns the single browser process and page used for all
// automation against the clinic application.
//
// # Lifecycle
//
// The Manager creates the browser lazily on the first Acquire. Every later
// Acquire probes the existing page by reading document.title; a failed probe
// discards the browser and page together and launches a fresh pair, so a
// caller never observes one without the other.
//
//  1. Acquire: returns the live session, launching one if needed
//  2. Current: returns the session without probing or launching
//  3. Release: closes the browser and clears the session (idempotent)
//  4. Shutdown: Release plus stopping the Playwright driver
//
// Only one session exists per process. Callers serialize their use of the
// page; the Manager only guards its own state.
package session
