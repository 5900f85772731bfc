package mailbox

import (
	"fmt"
	"time"
)

const (
	defaultUserMailboxCap = 100
	defaultSysMailboxCap  = 10
)

const (
	mailboxProcessing int32 = iota
	mailboxIdle
)

// ErrDisposed is delivered to a receive handler whose mailbox has been closed.
var ErrDisposed = fmt.Errorf("mailbox's channel is closed")

// MessageHandler is invoked for each received message; returning false stops
// the receive loop.
type MessageHandler func(message interface{}) (loop bool)

// SystemMessageHandler processes messages from the system lane before they
// may be passed on to the user handler. It is allowed to panic, which is how
// exit propagation through links is implemented.
type SystemMessageHandler interface {
	HandleSystemMessage(message interface{}) (passToUser bool, msg interface{})
}

type Mailbox interface {
	SendUserMessage(message interface{})
	SendSystemMessage(message interface{})
	Receive(handler MessageHandler)
	ReceiveWithTimeout(d time.Duration, handler MessageHandler)
	SetSystemMessageHandler(handler SystemMessageHandler)
	Dispose()
}

func handleSystemMessage(handler SystemMessageHandler, message interface{}) (bool, interface{}) {
	if handler == nil {
		// no system semantics attached, hand it to the user as-is
		return true, message
	}
	return handler.HandleSystemMessage(message)
}

func resetTimer(timer *time.Timer, d time.Duration, triggered bool) {
	if !triggered {
		stopTimer(timer)
	}
	timer.Reset(d)
}

func stopTimer(timer *time.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}
