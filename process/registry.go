// Package process implements the node registry: a process group keyed by
// logical node id. Several live processes may represent one logical node
// while a redeploy is in flight, so names map to sets, not single pids.
package process

import (
	"go.uber.org/zap"

	"github.com/jannikbecher/erlang-red/actor"
	"github.com/jannikbecher/erlang-red/internal/pid"
)

type groupMap map[string]map[string]*pid.ProtectedPID

type cmdJoin struct {
	name string
	pid  *pid.ProtectedPID
}

type cmdLeave struct {
	name string
	pid  *pid.ProtectedPID
}

type cmdMembers struct {
	name   string
	sender *pid.ProtectedPID
}

type cmdBroadcast struct {
	name    string
	message interface{}
}

// Groups is a handle to the registry process. It is safe for concurrent use;
// every call is a message to the single registry actor.
type Groups struct {
	pid *pid.ProtectedPID
	log *zap.Logger
}

// NewGroups spawns a registry process. The registry is a plain actor on an
// MPSC mailbox: many concurrent registrars, one drain loop.
func NewGroups(log *zap.Logger) *Groups {
	if log == nil {
		log = zap.NewNop()
	}
	return &Groups{
		pid: actor.SpawnMPSC(registry),
		log: log,
	}
}

// Join adds a process to the group of the given logical node id.
func (g *Groups) Join(name string, ppid *pid.ProtectedPID) {
	actor.Send(g.pid, cmdJoin{name: name, pid: ppid})
}

// Leave removes a process from the group; empty groups are dropped.
func (g *Groups) Leave(name string, ppid *pid.ProtectedPID) {
	actor.Send(g.pid, cmdLeave{name: name, pid: ppid})
}

// Members returns the live handles currently representing the logical node.
// Synchronous; the order of members is unspecified.
func (g *Groups) Members(name string) []*pid.ProtectedPID {
	future := actor.NewFutureActor()
	future.Send(g.pid, cmdMembers{name: name, sender: future.Self()})
	response, err := future.Recv()
	if err != nil {
		g.log.Warn("registry lookup failed", zap.String("node", name), zap.Error(err))
		return nil
	}
	members, _ := response.([]*pid.ProtectedPID)
	return members
}

// Broadcast delivers a message to every process in the group. Fire and
// forget; unknown groups are a no-op.
func (g *Groups) Broadcast(name string, message interface{}) {
	actor.Send(g.pid, cmdBroadcast{name: name, message: message})
}

// Dispose stops the registry process.
func (g *Groups) Dispose() {
	if fn := pid.ExtractPID(g.pid).ShutdownFn(); fn != nil {
		fn()
	}
	pid.ExtractPID(g.pid).Mailbox().Dispose()
}

func registry(act *actor.Actor) {
	repo := groupMap{}

	act.Receive(func(message interface{}) (loop bool) {
		switch cmd := message.(type) {
		case cmdJoin:
			members, ok := repo[cmd.name]
			if !ok {
				members = make(map[string]*pid.ProtectedPID)
				repo[cmd.name] = members
			}
			members[pid.ExtractPID(cmd.pid).ID()] = cmd.pid
		case cmdLeave:
			members, ok := repo[cmd.name]
			if !ok {
				return true
			}
			delete(members, pid.ExtractPID(cmd.pid).ID())
			if len(members) == 0 {
				delete(repo, cmd.name)
			}
		case cmdMembers:
			members := make([]*pid.ProtectedPID, 0, len(repo[cmd.name]))
			for _, member := range repo[cmd.name] {
				members = append(members, member)
			}
			actor.Send(cmd.sender, members)
		case cmdBroadcast:
			for _, member := range repo[cmd.name] {
				actor.Send(member, cmd.message)
			}
		}
		return true
	})
}
