// Package notify sends desktop notifications for completed fill runs.
package notify

import "github.com/gen2brain/beeep"

// Send shows a desktop notification. Failures are returned but callers
// normally ignore them; a missing notification daemon should never fail
// a run.
func Send(title, message string) error {
	return beeep.Notify(title, message, "")
}
