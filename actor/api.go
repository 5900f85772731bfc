// Package actor implements the process engine: spawn, message delivery,
// links, monitors and exit propagation. One actor is one goroutine owning
// private state, reachable only through its mailbox.
package actor

import (
	"go.uber.org/zap"

	"github.com/jannikbecher/erlang-red/internal/actorctx"
	"github.com/jannikbecher/erlang-red/internal/mailbox"
	"github.com/jannikbecher/erlang-red/internal/pid"
	"github.com/jannikbecher/erlang-red/sysmsg"
)

var logger = zap.NewNop()

// SetLogger installs the engine-wide logger. Call once at startup, before
// spawning anything.
func SetLogger(l *zap.Logger) {
	if l != nil {
		logger = l
	}
}

// Send delivers a user message to the target actor's mailbox. Fire and
// forget; delivery is FIFO per sender/receiver pair.
func Send(ppid *pid.ProtectedPID, message interface{}) {
	pid.ExtractPID(ppid).Mailbox().SendUserMessage(message)
}

// SendSystemMessage delivers on the system lane, which is drained before the
// user lane.
func SendSystemMessage(ppid *pid.ProtectedPID, message sysmsg.SystemMessage) {
	pid.ExtractPID(ppid).Mailbox().SendSystemMessage(message)
}

// Spawn starts a new actor running fn with the default ring buffer mailbox.
func Spawn(fn Func, args ...interface{}) *pid.ProtectedPID {
	actor := createActor(args...)
	run(fn, actor)
	return actor.Self()
}

// SpawnMPSC starts a new actor backed by an unbounded MPSC mailbox; meant
// for highly contended single-consumer processes like registries.
func SpawnMPSC(fn Func, args ...interface{}) *pid.ProtectedPID {
	actor := createActorWithMailbox(mailbox.NewMPSCMailbox(), args...)
	run(fn, actor)
	return actor.Self()
}

func createActor(args ...interface{}) *Actor {
	return createActorWithMailbox(mailbox.DefaultRingBufferQueueMailbox(), args...)
}

func createActorWithMailbox(m mailbox.Mailbox, args ...interface{}) *Actor {
	actorPID := pid.NewPID(m)
	ctx := actorctx.NewContext(actorPID, args)
	actor := newActor(ctx, actorPID)
	m.SetSystemMessageHandler(&systemHandler{actor: actor})
	return actor
}

func run(fn Func, actor *Actor) {
	go func() {
		defer actor.handleTermination()
		fn(actor)
	}()
}
