// Package browser drives a persistent Chromium session over the Chrome
// DevTools Protocol for the web agent.
package browser

import "time"

const (
	// DefaultProfileName is the profile directory used when none is configured.
	DefaultProfileName = "default"

	// DefaultActionTimeout bounds a single browser action.
	DefaultActionTimeout = 30 * time.Second

	// maxTextLength caps page text handed back to callers.
	maxTextLength = 10000

	// maxSnapshotLength caps the rendered accessibility tree.
	maxSnapshotLength = 20000
)
