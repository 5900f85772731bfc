// Package node implements the generic actor envelope every flow node type
// shares: classify inbound units, count them, dispatch to the node-type
// behavior, and turn behavior results into completion-forwarding or
// silence. One node = one actor = one goroutine of private state.
package node

import (
	"go.uber.org/zap"

	"github.com/jannikbecher/erlang-red/actor"
	"github.com/jannikbecher/erlang-red/flowmsg"
	"github.com/jannikbecher/erlang-red/internal/pid"
	"github.com/jannikbecher/erlang-red/metrics"
	"github.com/jannikbecher/erlang-red/process"
	"github.com/jannikbecher/erlang-red/status"
	"github.com/jannikbecher/erlang-red/sysmsg"
)

// Completer is the message-completion collaborator: it hands messages
// downstream while preventing re-delivery loops.
type Completer interface {
	// PostCompleted propagates a handled message downstream, deduplicating
	// by message id.
	PostCompleted(st *RuntimeState, msg *flowmsg.Msg)
	// SendToConnected broadcasts a status-tagged message to every node
	// wired downstream of this one.
	SendToConnected(st *RuntimeState, msg *flowmsg.Msg)
}

// Deps are the collaborators shared by every node actor of a deployment.
type Deps struct {
	Groups    *process.Groups
	Status    status.Reporter
	Completer Completer
	Logger    *zap.Logger
}

// Normalized fills in nop defaults for optional collaborators.
func (d Deps) Normalized() Deps {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Status == nil {
		d.Status = status.NewZapReporter(d.Logger)
	}
	return d
}

// Start registers the node's logical identity in the registry, spawns its
// actor and blocks until the node acknowledged the registered notice. The
// registry keys by logical node id, not by a unique process name, so a
// redeploy can briefly run two processes for one node without colliding.
func Start(cfg *Config, scope string, behavior Behavior, deps Deps) *pid.ProtectedPID {
	deps = deps.Normalized()
	ppid := actor.Spawn(Runner(cfg, scope, behavior, deps))
	future := actor.NewFutureActor()
	future.Send(ppid, flowmsg.Registered{ReplyTo: future.Self()})
	_, _ = future.Recv()
	return ppid
}

// Stop asks a node actor to clean up and terminate. Cooperative, not a
// forced kill.
func Stop(ppid *pid.ProtectedPID) {
	actor.Send(ppid, flowmsg.Stop{})
}

// Runner returns the actor body of a node, for callers that spawn through
// a supervisor instead of Start.
func Runner(cfg *Config, scope string, behavior Behavior, deps Deps) actor.Func {
	deps = deps.Normalized()
	return func(a *actor.Actor) {
		st := NewRuntimeState(cfg, scope)
		st.Self = a.Self()
		log := deps.Logger.With(zap.String("node", cfg.ID), zap.String("node_type", cfg.Type))

		if deps.Groups != nil {
			deps.Groups.Join(cfg.ID, a.Self())
			defer deps.Groups.Leave(cfg.ID, a.Self())
		}
		// crash containment belongs to the supervision layer; here we only
		// make sure an abnormal exit leaves a full diagnostic behind
		defer func() {
			if r := recover(); r != nil {
				log.Error("node actor crashed",
					zap.Any("reason", r), zap.Any("state", st.Diagnostic()))
				panic(r)
			}
		}()

		a.Receive(func(message interface{}) (loop bool) {
			switch m := message.(type) {
			case *flowmsg.Msg:
				dispatchMessage(st, behavior, deps, log, m)
			case flowmsg.Event:
				return dispatchEvent(st, behavior, m)
			case Call:
				if handler, ok := behavior.(CallHandler); ok {
					handler.HandleCall(st, m.Request, m.ReplyTo)
				} else {
					actor.Send(m.ReplyTo, errNoCalls)
				}
			case sysmsg.Exit:
				// a watched process terminated
				behavior.HandleEvent(st, flowmsg.ProcessDown{Who: m.Who, Reason: m.Reason.Type})
			default:
				log.Warn("node received unrecognized message", zap.Any("message", message))
			}
			return true
		})
	}
}

func dispatchMessage(st *RuntimeState, behavior Behavior, deps Deps, log *zap.Logger, msg *flowmsg.Msg) {
	// counted before the behavior runs, so crashes still leave a trace
	if msg.Type.Counted() {
		st.count(msg.Type)
		metrics.MessagesTotal.WithLabelValues(st.Config.ID, string(msg.Type)).Inc()
	}

	outcome := behavior.HandleMessage(st, msg)
	if !outcome.recognized {
		st.Errors++
		metrics.DispatchErrors.WithLabelValues(st.Config.ID).Inc()
		log.Error("node behavior did not handle message",
			zap.String("msg_type", string(msg.Type)),
			zap.String("msg_id", msg.ID),
			zap.Any("state", st.Diagnostic()))
		return
	}
	if outcome.forward != nil && deps.Completer != nil {
		deps.Completer.PostCompleted(st, outcome.forward)
	}
}

func dispatchEvent(st *RuntimeState, behavior Behavior, event flowmsg.Event) (loop bool) {
	switch ev := event.(type) {
	case flowmsg.Enable:
		// flips the flag directly, the behavior is not consulted
		st.Active = true
	case flowmsg.Disable:
		st.Active = false
	case flowmsg.Stop:
		// one last behavior invocation for cleanup, then a clean exit
		behavior.HandleEvent(st, ev)
		return false
	case flowmsg.Registered:
		behavior.HandleEvent(st, ev)
		if ev.ReplyTo != nil {
			actor.Send(ev.ReplyTo, "ok")
		}
	default:
		behavior.HandleEvent(st, event)
	}
	return true
}
