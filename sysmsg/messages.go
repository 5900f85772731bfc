package sysmsg

import (
	"time"
)

// Exit describes an exit event emitted by a monitored/linked process.
type Exit struct {
	// Who is the process that terminated
	Who interface{}
	// Parent is the process that made "Who" terminate, if any
	Parent interface{}
	// Reason behind the termination
	Reason Reason
	// Relation describes the relationship between the terminated process
	// and the one receiving the message
	Relation Relation
}

func (e Exit) systemMessage() {}

// Shutdown is a command emitted by a supervisor to terminate a supervised
// process. Grace carries the child's declared shutdown value; it is an opaque
// pass-through honoured by the receiver, not re-interpreted here.
type Shutdown struct {
	// Parent is the commanding process
	Parent interface{}
	// Grace is one of ShutdownInfinity, ShutdownKill or a grace period in
	// milliseconds, see the supervisor package
	Grace int32
}

func (s Shutdown) systemMessage() {}

// Monitor is a request sent to a process asking to be notified when it
// terminates. The watch is one-way; the monitored process is not owned by
// the watcher.
type Monitor struct {
	Parent interface{}
	// Revert is true when asking to drop the watch
	Revert bool
}

func (m Monitor) systemMessage() {}

// Link is a request sent to a process to get linked with another one.
type Link struct {
	To interface{}
	// Revert is true when asking to get unlinked
	Revert bool
}

func (l Link) systemMessage() {}

// Timeout is delivered by a mailbox receive that ran out of time.
type Timeout struct {
	Duration time.Duration
}

func (t Timeout) systemMessage() {}
