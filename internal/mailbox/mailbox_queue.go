package mailbox

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/Workiva/go-datastructures/queue"

	"github.com/jannikbecher/erlang-red/sysmsg"
)

type queueMailbox struct {
	userMailbox *queue.RingBuffer
	sysMailbox  *queue.RingBuffer
	done        chan struct{}
	disposeOnce sync.Once
	status      int32
	signal      chan struct{}
	sysHandler  SystemMessageHandler
}

// DefaultRingBufferQueueMailbox returns the default mailbox, backed by two
// lock-free ring buffers. Producers only touch the signal channel when the
// consumer is idle.
func DefaultRingBufferQueueMailbox() Mailbox {
	return &queueMailbox{
		userMailbox: queue.NewRingBuffer(defaultUserMailboxCap),
		sysMailbox:  queue.NewRingBuffer(defaultSysMailboxCap),
		done:        make(chan struct{}),
		status:      mailboxIdle,
		signal:      make(chan struct{}),
	}
}

func (m *queueMailbox) SetSystemMessageHandler(handler SystemMessageHandler) {
	m.sysHandler = handler
}

func (m *queueMailbox) SendUserMessage(message interface{}) {
	m.put(m.userMailbox, message)
}

func (m *queueMailbox) SendSystemMessage(message interface{}) {
	m.put(m.sysMailbox, message)
}

func (m *queueMailbox) put(q *queue.RingBuffer, message interface{}) {
	select {
	case <-m.done:
		return
	default:
		if err := q.Put(message); err != nil {
			return
		}
		if atomic.CompareAndSwapInt32(&m.status, mailboxIdle, mailboxProcessing) {
			select {
			case m.signal <- struct{}{}:
			case <-m.done:
			}
		}
	}
}

// drain empties the system lane, then the user lane, stopping early if the
// handler asks to. It reports whether the receive loop should keep going.
func (m *queueMailbox) drain(handler MessageHandler) bool {
	for m.sysMailbox.Len() != 0 {
		msg, err := m.sysMailbox.Get()
		if err != nil {
			return false
		}
		pass, userMsg := handleSystemMessage(m.sysHandler, msg)
		if pass && !handler(userMsg) {
			return false
		}
	}
	for m.userMailbox.Len() != 0 {
		msg, err := m.userMailbox.Get()
		if err != nil {
			return false
		}
		if !handler(msg) {
			return false
		}
	}
	return true
}

// settle flips the mailbox back to idle, re-claiming it if a producer
// managed to enqueue between the drain and the flip. It reports whether
// another drain pass is owed.
func (m *queueMailbox) settle() bool {
	atomic.StoreInt32(&m.status, mailboxIdle)
	if m.sysMailbox.Len() == 0 && m.userMailbox.Len() == 0 {
		return false
	}
	return atomic.CompareAndSwapInt32(&m.status, mailboxIdle, mailboxProcessing)
}

func (m *queueMailbox) Receive(handler MessageHandler) {
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

func (m *queueMailbox) ReceiveWithTimeout(d time.Duration, handler MessageHandler) {
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

func (m *queueMailbox) Dispose() {
	m.disposeOnce.Do(func() {
		close(m.done)
	})
}
