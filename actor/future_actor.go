package actor

import (
	"fmt"
	"time"

	"github.com/jannikbecher/erlang-red/internal/pid"
	"github.com/jannikbecher/erlang-red/sysmsg"
)

// FutureActor is a one-shot inbox used for synchronous request/reply with a
// real actor: send it along as the reply-to handle, then block on Recv.
type FutureActor struct {
	pid pid.PID
}

func NewFutureActor() *FutureActor {
	return &FutureActor{
		pid: pid.NewFuturePID(),
	}
}

func (f *FutureActor) Self() *pid.ProtectedPID {
	return pid.NewProtectedPID(f.pid)
}

// Send delivers a request and monitors the target so Recv unblocks if the
// target dies before replying.
func (f *FutureActor) Send(target *pid.ProtectedPID, message interface{}) {
	SendSystemMessage(target, sysmsg.Monitor{Parent: f.pid})
	Send(target, message)
}

func (f *FutureActor) Recv() (response interface{}, err error) {
	f.pid.Mailbox().Receive(func(message interface{}) (loop bool) {
		switch msg := message.(type) {
		case sysmsg.Exit:
			err = fmt.Errorf("target actor terminated before sending a response")
		case error:
			err = msg
		default:
			response = msg
		}
		return false
	})
	return
}

func (f *FutureActor) RecvWithTimeout(d time.Duration) (response interface{}, err error) {
	f.pid.Mailbox().ReceiveWithTimeout(d, func(message interface{}) (loop bool) {
		switch msg := message.(type) {
		case sysmsg.Exit:
			err = fmt.Errorf("target actor terminated before sending a response")
		case sysmsg.Timeout:
			err = fmt.Errorf("timed out waiting for a response after %v", msg.Duration)
		case error:
			err = msg
		default:
			response = msg
		}
		return false
	})
	return
}
