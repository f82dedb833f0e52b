// Package rt prepares the calling goroutine for busy-wait timing: it locks the
// goroutine to its OS thread, optionally pins that thread to one CPU and
// pauses the garbage collector.
package rt

import (
	"log/slog"
	"runtime"
	"runtime/debug"
)

// Section describes how to run a timing-critical function.
type Section struct {
	// CPU pins the thread to one CPU; negative leaves affinity alone.
	CPU int
	// PauseGC disables the garbage collector while fn runs.
	PauseGC bool
	Logger  *slog.Logger
}

// Run executes fn with the section's settings and restores them afterwards.
func (s Section) Run(fn func()) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if s.CPU >= 0 {
		restore, err := pin(s.CPU)
		if err != nil {
			s.logger().Debug("rt: cpu pinning unavailable", "cpu", s.CPU, "error", err)
		} else {
			defer restore()
		}
	}
	if s.PauseGC {
		prev := debug.SetGCPercent(-1)
		defer debug.SetGCPercent(prev)
	}
	fn()
}

func (s Section) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
