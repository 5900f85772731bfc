package mailbox

import (
	"sync"
	"time"

	"github.com/jannikbecher/erlang-red/sysmsg"
)

// FutureMailbox is a one-shot mailbox used for synchronous request/reply.
type FutureMailbox struct {
	m           chan interface{}
	done        chan struct{}
	disposeOnce sync.Once
}

func NewFutureMailbox() *FutureMailbox {
	return &FutureMailbox{
		m:    make(chan interface{}, 1),
		done: make(chan struct{}),
	}
}

func (f *FutureMailbox) SetSystemMessageHandler(SystemMessageHandler) {}

func (f *FutureMailbox) SendUserMessage(message interface{}) {
	select {
	case <-f.done:
	case f.m <- message:
	default:
		// already resolved, drop
	}
}

func (f *FutureMailbox) SendSystemMessage(message interface{}) {
	f.SendUserMessage(message)
}

func (f *FutureMailbox) Receive(handler MessageHandler) {
	select {
	case msg := <-f.m:
		handler(msg)
	case <-f.done:
		handler(ErrDisposed)
	}
}

func (f *FutureMailbox) ReceiveWithTimeout(d time.Duration, handler MessageHandler) {
	timer := time.NewTimer(d)
	defer stopTimer(timer)
	select {
	case msg := <-f.m:
		handler(msg)
	case <-timer.C:
		handler(sysmsg.Timeout{Duration: d})
	case <-f.done:
		handler(ErrDisposed)
	}
}

func (f *FutureMailbox) Dispose() {
	f.disposeOnce.Do(func() {
		close(f.done)
	})
}
