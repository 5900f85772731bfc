package actor

import (
	"go.uber.org/zap"

	"github.com/jannikbecher/erlang-red/internal/pid"
	"github.com/jannikbecher/erlang-red/sysmsg"
)

type systemHandler struct {
	actor *Actor
}

// HandleSystemMessage is called by the mailbox drain loop, on the actor's
// own goroutine. Returning true passes the message on to the user handler.
// Exit propagation is a panic on purpose: handleTermination is deferred on
// this goroutine and picks it up.
func (h *systemHandler) HandleSystemMessage(message interface{}) (bool, interface{}) {
	switch msg := message.(type) {
	case sysmsg.Exit:
		switch msg.Relation {
		case sysmsg.Monitored:
			return true, msg
		case sysmsg.Linked:
			if who, ok := msg.Who.(pid.PID); ok {
				h.actor.unlink(who)
			}
			if h.actor.trapExited() {
				return true, msg
			}
			switch msg.Reason.Type {
			case sysmsg.Kill, sysmsg.Panic, sysmsg.SupMaxRestart:
				panic(sysmsg.Exit{
					Who:      pid.ExtractPID(h.actor.Self()),
					Parent:   msg.Who,
					Reason:   msg.Reason,
					Relation: sysmsg.Linked,
				})
			}
		}
	case sysmsg.Shutdown:
		if h.actor.trapExited() {
			return true, msg
		}
		panic(msg)
	case sysmsg.Monitor:
		parent, ok := msg.Parent.(pid.PID)
		if !ok {
			return false, nil
		}
		if msg.Revert {
			h.actor.demonitoredBy(parent)
		} else {
			h.actor.monitoredBy(parent)
		}
	case sysmsg.Link:
		to, ok := msg.To.(pid.PID)
		if !ok {
			return false, nil
		}
		if msg.Revert {
			h.actor.unlink(to)
		} else {
			h.actor.link(to)
		}
	default:
		logger.Warn("actor: unknown system message",
			zap.Any("message", message))
	}
	return false, nil
}
