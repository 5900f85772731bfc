package mailbox

import (
	"sync"
	"sync/atomic"
	"time"

	mpsc "github.com/t3rm1n4l/go-mpscqueue"

	"github.com/jannikbecher/erlang-red/sysmsg"
)

type mpscMailbox struct {
	userMailbox *mpsc.MPSCQueue
	sysMailbox  *mpsc.MPSCQueue
	done        chan struct{}
	disposeOnce sync.Once
	status      int32
	signal      chan struct{}
	sysHandler  SystemMessageHandler
}

// NewMPSCMailbox returns an unbounded multi-producer single-consumer
// mailbox. Suited for processes with many concurrent senders and a single
// drain loop, like the group registry.
func NewMPSCMailbox() Mailbox {
	return &mpscMailbox{
		userMailbox: mpsc.New(),
		sysMailbox:  mpsc.New(),
		done:        make(chan struct{}),
		status:      mailboxIdle,
		signal:      make(chan struct{}),
	}
}

func (m *mpscMailbox) SetSystemMessageHandler(handler SystemMessageHandler) {
	m.sysHandler = handler
}

func (m *mpscMailbox) SendUserMessage(message interface{}) {
	m.put(m.userMailbox, message)
}

func (m *mpscMailbox) SendSystemMessage(message interface{}) {
	m.put(m.sysMailbox, message)
}

func (m *mpscMailbox) put(q *mpsc.MPSCQueue, message interface{}) {
	select {
	case <-m.done:
		return
	default:
		q.Push(message)
		if atomic.CompareAndSwapInt32(&m.status, mailboxIdle, mailboxProcessing) {
			select {
			case m.signal <- struct{}{}:
			case <-m.done:
			}
		}
	}
}

func (m *mpscMailbox) drain(handler MessageHandler) bool {
	for m.sysMailbox.Size() != 0 {
		pass, msg := handleSystemMessage(m.sysHandler, m.sysMailbox.Pop())
		if pass && !handler(msg) {
			return false
		}
	}
	for m.userMailbox.Size() != 0 {
		if !handler(m.userMailbox.Pop()) {
			return false
		}
	}
	return true
}

func (m *mpscMailbox) settle() bool {
	atomic.StoreInt32(&m.status, mailboxIdle)
	if m.sysMailbox.Size() == 0 && m.userMailbox.Size() == 0 {
		return false
	}
	return atomic.CompareAndSwapInt32(&m.status, mailboxIdle, mailboxProcessing)
}

func (m *mpscMailbox) Receive(handler MessageHandler) {
listen:
	select {
	case <-m.done:
		return
	case <-m.signal:
	process:
		if !m.drain(handler) {
			atomic.StoreInt32(&m.status, mailboxIdle)
			return
		}
		if m.settle() {
			goto process
		}
		goto listen
	}
}

func (m *mpscMailbox) ReceiveWithTimeout(d time.Duration, handler MessageHandler) {
	timer := time.NewTimer(d)
	defer stopTimer(timer)
listen:
	select {
	case <-m.done:
		return
	case <-m.signal:
	process:
		if !m.drain(handler) {
			atomic.StoreInt32(&m.status, mailboxIdle)
			return
		}
		if m.settle() {
			goto process
		}
		resetTimer(timer, d, false)
		goto listen
	case <-timer.C:
		if !handler(sysmsg.Timeout{Duration: d}) {
			return
		}
		resetTimer(timer, d, true)
		goto listen
	}
}

func (m *mpscMailbox) Dispose() {
	m.disposeOnce.Do(func() {
		close(m.done)
	})
}
