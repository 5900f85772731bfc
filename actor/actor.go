package actor

import (
	"sync/atomic"

	"github.com/jannikbecher/erlang-red/internal/actorctx"
	"github.com/jannikbecher/erlang-red/internal/pid"
	"github.com/jannikbecher/erlang-red/sysmsg"
)

const (
	trapExitNo int32 = iota
	trapExitYes
)

// Actor types
const (
	WorkerActor int32 = iota
	SupervisorActor
)

// Func is the body of an actor, run on its own goroutine.
type Func func(actor *Actor)

// Actor is the concurrent unit of the engine: private state, a mailbox, and
// links/monitors to other actors. All fields are owned by the actor's own
// goroutine; the engine only touches them through system messages.
type Actor struct {
	*actorctx.Context
	trapExit int32
	// actors that are linked to me. two way communication
	linkedActors map[string]pid.PID
	// actors that are monitoring me. one way communication
	monitorActors map[string]pid.PID
	self          *pid.ProtectedPID
	aType         int32
	supervisedBy  pid.PID
}

func newActor(ctx *actorctx.Context, _pid pid.PID) *Actor {
	return &Actor{
		Context:       ctx,
		trapExit:      trapExitNo,
		linkedActors:  make(map[string]pid.PID),
		monitorActors: make(map[string]pid.PID),
		self:          pid.NewProtectedPID(_pid),
		aType:         WorkerActor,
	}
}

// SetActorType marks this actor as WorkerActor or SupervisorActor. A
// panicking supervisor shuts its linked children down on the way out.
func (a *Actor) SetActorType(_type int32) {
	atomic.StoreInt32(&a.aType, _type)
}

func (a *Actor) actorType() int32 {
	return atomic.LoadInt32(&a.aType)
}

// setSupervisor must only be called once, right before being spawned by a
// supervisor.
func (a *Actor) setSupervisor(_pid pid.PID) {
	a.supervisedBy = _pid
}

// supervisor is only needed when handling termination, to avoid shutting
// down our own parent along with the other linked actors.
func (a *Actor) supervisor() pid.PID {
	return a.supervisedBy
}

func (a *Actor) link(pid pid.PID) {
	a.linkedActors[pid.ID()] = pid
}

func (a *Actor) unlink(pid pid.PID) {
	delete(a.linkedActors, pid.ID())
}

func (a *Actor) monitoredBy(pid pid.PID) {
	a.monitorActors[pid.ID()] = pid
}

func (a *Actor) demonitoredBy(pid pid.PID) {
	delete(a.monitorActors, pid.ID())
}

func (a *Actor) trapExited() bool {
	return atomic.LoadInt32(&a.trapExit) == trapExitYes
}

// TrapExit makes linked-exit notices arrive as ordinary sysmsg.Exit messages
// instead of tearing this actor down.
func (a *Actor) TrapExit(trapExit bool) {
	var trap = trapExitNo
	if trapExit {
		trap = trapExitYes
	}
	atomic.StoreInt32(&a.trapExit, trap)
}

// Monitor establishes a one-way liveness watch on the target actor.
func (a *Actor) Monitor(ppid *pid.ProtectedPID) {
	SendSystemMessage(ppid, sysmsg.Monitor{Parent: pid.ExtractPID(a.self)})
}

func (a *Actor) Demonitor(ppid *pid.ProtectedPID) {
	SendSystemMessage(ppid, sysmsg.Monitor{Parent: pid.ExtractPID(a.self), Revert: true})
}

// Link ties this actor's fate to the target's, both ways.
func (a *Actor) Link(ppid *pid.ProtectedPID) {
	SendSystemMessage(ppid, sysmsg.Link{To: pid.ExtractPID(a.self)})
	a.link(pid.ExtractPID(ppid))
}

func (a *Actor) Unlink(ppid *pid.ProtectedPID) {
	SendSystemMessage(ppid, sysmsg.Link{To: pid.ExtractPID(a.self), Revert: true})
	a.unlink(pid.ExtractPID(ppid))
}

// SpawnLink spawns a new actor linked to this one.
func (a *Actor) SpawnLink(fn Func, args ...interface{}) *pid.ProtectedPID {
	child := createActor(args...)
	child.link(pid.ExtractPID(a.self))
	if a.actorType() == SupervisorActor {
		child.setSupervisor(pid.ExtractPID(a.self))
	}
	a.link(pid.ExtractPID(child.self))
	run(fn, child)
	return child.self
}

// SpawnMonitor spawns a new actor monitored by this one.
func (a *Actor) SpawnMonitor(fn Func, args ...interface{}) *pid.ProtectedPID {
	child := createActor(args...)
	child.monitoredBy(pid.ExtractPID(a.self))
	run(fn, child)
	return child.self
}

func (a *Actor) Self() *pid.ProtectedPID {
	return a.self
}

// handleTermination runs deferred on the actor goroutine. It classifies the
// way the actor went down and fans the exit notice out to links and
// monitors.
func (a *Actor) handleTermination() {
	// close the mailbox so it can't accept any further messages
	pid.ExtractPID(a.self).Mailbox().Dispose()

	switch r := recover().(type) {
	case sysmsg.Exit:
		// a linked actor terminated, or an explicit panic(Exit)
		a.notifyLinkedActors(r, false)
		a.notifyMonitors(r)
	case sysmsg.Shutdown:
		exit := sysmsg.Exit{
			Who:    pid.ExtractPID(a.self),
			Parent: r.Parent,
			Reason: sysmsg.Reason{Type: sysmsg.Kill, Details: "shutdown cmd received from supervisor"},
		}
		a.notifyLinkedActors(exit, false)
		a.notifyMonitors(exit)
	default:
		if r != nil {
			exit := sysmsg.Exit{
				Who:    pid.ExtractPID(a.self),
				Reason: sysmsg.Reason{Type: sysmsg.Panic, Details: r},
			}
			// a panicking supervisor had no chance to shut down its
			// children, do it on the way out
			shutdownChildren := a.actorType() == SupervisorActor
			a.notifyLinkedActors(exit, shutdownChildren)
			a.notifyMonitors(exit)
			return
		}
		normal := sysmsg.Exit{
			Who:    pid.ExtractPID(a.self),
			Reason: sysmsg.Reason{Type: sysmsg.Normal},
		}
		a.notifyLinkedActors(normal, false)
		a.notifyMonitors(normal)
	}
}

func (a *Actor) notifyMonitors(message sysmsg.Exit) {
	message.Relation = sysmsg.Monitored
	for _, monitor := range a.monitorActors {
		SendSystemMessage(pid.NewProtectedPID(monitor), message)
	}
}

func (a *Actor) notifyLinkedActors(message sysmsg.Exit, shutdown bool) {
	message.Relation = sysmsg.Linked
	for _, linked := range a.linkedActors {
		SendSystemMessage(pid.NewProtectedPID(linked), message)
		// we can't shut down our own parent supervisor
		if shutdown && a.supervisor() != linked {
			if fn := linked.ShutdownFn(); fn != nil {
				fn()
			}
		}
	}
}
