package node

import (
	"fmt"

	"github.com/jannikbecher/erlang-red/actor"
	"github.com/jannikbecher/erlang-red/flowmsg"
	"github.com/jannikbecher/erlang-red/internal/pid"
)

// Outcome is what a behavior's message handler produced. Zero value means
// unhandled.
type Outcome struct {
	recognized bool
	forward    *flowmsg.Msg
}

// Unhandled tells the envelope the behavior did not recognize the message;
// the envelope reports a diagnostic and bumps the error counter.
func Unhandled() Outcome {
	return Outcome{}
}

// Handled marks the message consumed with nothing to forward; this hop is
// terminal.
func Handled() Outcome {
	return Outcome{recognized: true}
}

// HandledForward marks the message consumed and hands msg to the completion
// collaborator so it propagates downstream.
func HandledForward(msg *flowmsg.Msg) Outcome {
	return Outcome{recognized: true, forward: msg}
}

// Behavior is what a node type plugs into the generic actor envelope: one
// handler for flow messages, one for lifecycle events. Both run on the
// node's own goroutine and may mutate st freely.
type Behavior interface {
	HandleMessage(st *RuntimeState, msg *flowmsg.Msg) Outcome
	HandleEvent(st *RuntimeState, event flowmsg.Event)
}

// Call is a synchronous request delivered to a node actor; the caller
// blocks on ReplyTo until the node answers.
type Call struct {
	Request interface{}
	ReplyTo *pid.ProtectedPID
}

// CallHandler is implemented by behaviors that accept synchronous calls.
// The handler must answer ReplyTo exactly once.
type CallHandler interface {
	HandleCall(st *RuntimeState, request interface{}, replyTo *pid.ProtectedPID)
}

// CallSync sends a request to a node actor and blocks until it answers. An
// error reply is returned as the error.
func CallSync(target *pid.ProtectedPID, request interface{}) (interface{}, error) {
	future := actor.NewFutureActor()
	future.Send(target, Call{Request: request, ReplyTo: future.Self()})
	response, err := future.Recv()
	if err != nil {
		return nil, err
	}
	if err, ok := response.(error); ok {
		return nil, err
	}
	return response, nil
}

// UnimplementedBehavior can be embedded by node types that only care about
// one side of the contract.
type UnimplementedBehavior struct{}

func (UnimplementedBehavior) HandleMessage(*RuntimeState, *flowmsg.Msg) Outcome {
	return Unhandled()
}

func (UnimplementedBehavior) HandleEvent(*RuntimeState, flowmsg.Event) {}

var errNoCalls = fmt.Errorf("node does not accept synchronous calls")
