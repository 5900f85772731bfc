// Package supervisor implements the process-supervision primitive: a
// managed group of child processes with OTP-style restart strategies,
// restart intensity windows, ordered start/shutdown and optional
// auto-shutdown. Groups nest: a child may itself be a whole group, which is
// how crash firewalls are built.
package supervisor

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/jannikbecher/erlang-red/actor"
	"github.com/jannikbecher/erlang-red/internal/pid"
	"github.com/jannikbecher/erlang-red/sysmsg"
)

var logger = zap.NewNop()

// SetLogger installs the package logger. Call once at startup.
func SetLogger(l *zap.Logger) {
	if l != nil {
		logger = l
	}
}

type initCmd struct {
	sender *pid.ProtectedPID
}

// StartManagedGroup starts a supervising process owning one child per spec,
// started in declaration order. The call blocks until every child is up;
// a child failing to start tears the whole group down.
func StartManagedGroup(options Options, specs ...ChildSpec) (*Ref, error) {
	list, err := specsToList(specs)
	if err != nil {
		return nil, err
	}
	if err = checkOptions(&options); err != nil {
		return nil, err
	}

	exited := make(chan struct{})
	suPID := actor.Spawn(func(a *actor.Actor) {
		defer close(exited)
		supervise(a)
	}, list, options)
	ref := newRef(suPID, exited)

	// wait until all children are spawned
	future := actor.NewFutureActor()
	future.Send(suPID, initCmd{sender: future.Self()})
	response, err := future.Recv()
	if err != nil {
		return nil, fmt.Errorf("supervisor %s died during startup: %w", options.Name, err)
	}
	if err, ok := response.(error); ok {
		return nil, fmt.Errorf("supervisor %s failed to start children: %w", options.Name, err)
	}
	return ref, nil
}

func supervise(supervisor *actor.Actor) {
	list := supervisor.Args()[0].(*specList)
	options := supervisor.Args()[1].(Options)

	// trap exits: children are linked, their deaths arrive as messages
	supervisor.TrapExit(true)
	supervisor.SetActorType(actor.SupervisorActor)

	state := newState(list, &options, supervisor)

	supervisor.Receive(func(message interface{}) (loop bool) {
		switch msg := message.(type) {
		case initCmd:
			if err := state.startAll(); err != nil {
				actor.Send(msg.sender, err)
				state.shutdownAll()
				return false
			}
			actor.Send(msg.sender, "ok")
		case sysmsg.Exit:
			return state.handleExit(msg)
		case sysmsg.Shutdown:
			// a parent group or a Ref holder wants us gone
			state.shutdownAll()
			return false
		default:
			logger.Warn("supervisor received unknown message",
				zap.String("supervisor", options.Name), zap.Any("message", msg))
		}
		return true
	})
}
