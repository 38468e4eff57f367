// Package sharedstate holds the small tracking state shared between every
// surface of one installed Sneuz client: the CLI app, the status (widget)
// view, and the shortcut commands. Surfaces run as separate processes, so
// the state lives in a file under a shared directory rather than in memory.
package sharedstate

import "time"

// Store is the narrow contract the tracking core writes through. Reads and
// writes are synchronous and local; readers in other processes may observe
// stale values and are expected to re-fetch canonical truth from the remote
// store when in doubt.
type Store interface {
	IsTracking() bool
	SetTracking(tracking bool)
	StartTime() *time.Time
	SetStartTime(start *time.Time)
	IsLoggedIn() bool
	SetLoggedIn(loggedIn bool)
	// Subscribe registers a best-effort "your view may be stale" signal,
	// fired after every write. In-process only; cross-process readers poll
	// the file instead.
	Subscribe(fn func())
}
