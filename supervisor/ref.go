package supervisor

import (
	"github.com/rs/xid"

	"github.com/jannikbecher/erlang-red/actor"
	"github.com/jannikbecher/erlang-red/internal/pid"
	"github.com/jannikbecher/erlang-red/sysmsg"
)

// Ref is the handle to a managed group returned by StartManagedGroup. It is
// non-owning: dropping a Ref does not affect the group, and several
// observers may hold and watch the same Ref.
type Ref struct {
	id     string
	ppid   *pid.ProtectedPID
	exited <-chan struct{}
}

func newRef(ppid *pid.ProtectedPID, exited <-chan struct{}) *Ref {
	return &Ref{
		id:     xid.New().String(),
		ppid:   ppid,
		exited: exited,
	}
}

func (r *Ref) ID() string {
	return r.id
}

// PPID exposes the supervising process's handle, for linking by a parent
// group. Message delivery still goes through the engine.
func (r *Ref) PPID() *pid.ProtectedPID {
	return r.ppid
}

// Alive reports whether the supervising process is still running.
func (r *Ref) Alive() bool {
	select {
	case <-r.exited:
		return false
	default:
		return true
	}
}

// Owns reports whether the given exit sender is this group's supervising
// process. Used to match a liveness notice against a retained Ref.
func (r *Ref) Owns(who interface{}) bool {
	p, ok := who.(pid.PID)
	return ok && p.ID() == pid.ExtractPID(r.ppid).ID()
}

// Watch establishes a liveness watch: the observer receives a sysmsg.Exit
// when the group's supervising process terminates, without owning it.
func (r *Ref) Watch(observer *pid.ProtectedPID) {
	actor.SendSystemMessage(r.ppid, sysmsg.Monitor{Parent: pid.ExtractPID(observer)})
}

func (r *Ref) Unwatch(observer *pid.ProtectedPID) {
	actor.SendSystemMessage(r.ppid, sysmsg.Monitor{Parent: pid.ExtractPID(observer), Revert: true})
}

// Terminate force-terminates the whole group, children first, with no grace
// period.
func (r *Ref) Terminate() {
	actor.SendSystemMessage(r.ppid, sysmsg.Shutdown{Grace: ShutdownKill})
	if fn := pid.ExtractPID(r.ppid).ShutdownFn(); fn != nil {
		fn()
	}
}
