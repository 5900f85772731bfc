package pid

import (
	"github.com/jannikbecher/erlang-red/internal/mailbox"
)

// PID is the raw handle to a process: its mailbox plus the hooks the engine
// needs to tear it down. Raw PIDs never leave the engine; everything outside
// deals with ProtectedPIDs.
type PID interface {
	// ID is a unique identity for this process, stable for its lifetime.
	ID() string

	Mailbox() mailbox.Mailbox

	// ShutdownFn returns a function closing the process context's done
	// channel. Used by a supervisor when shutting down a process.
	ShutdownFn() func()
	SetShutdownFn(fn func())
}

// ProtectedPID wraps a PID so that user code can pass process handles around
// without being able to reach the mailbox or shutdown hooks directly.
type ProtectedPID struct {
	pid PID
}

func NewProtectedPID(pid PID) *ProtectedPID {
	return &ProtectedPID{pid: pid}
}

func ExtractPID(ppid *ProtectedPID) PID {
	return ppid.pid
}
