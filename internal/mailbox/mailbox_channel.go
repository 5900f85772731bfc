package mailbox

import (
	"sync"
	"time"

	"github.com/jannikbecher/erlang-red/sysmsg"
)

type channelMailbox struct {
	userMailbox chan interface{}
	sysMailbox  chan interface{}
	done        chan struct{}
	disposeOnce sync.Once
	sysHandler  SystemMessageHandler
}

// NewChanMailbox returns a mailbox backed by two buffered channels, one per
// lane. The system lane is always drained before the user lane.
func NewChanMailbox() Mailbox {
	return &channelMailbox{
		userMailbox: make(chan interface{}, defaultUserMailboxCap),
		sysMailbox:  make(chan interface{}, defaultSysMailboxCap),
		done:        make(chan struct{}),
	}
}

func (m *channelMailbox) SetSystemMessageHandler(handler SystemMessageHandler) {
	m.sysHandler = handler
}

func (m *channelMailbox) SendUserMessage(message interface{}) {
	select {
	case <-m.done:
	case m.userMailbox <- message:
	}
}

func (m *channelMailbox) SendSystemMessage(message interface{}) {
	select {
	case <-m.done:
	case m.sysMailbox <- message:
	}
}

func (m *channelMailbox) Receive(handler MessageHandler) {
loop:
	select {
	case sysMsg := <-m.sysMailbox:
		pass, msg := handleSystemMessage(m.sysHandler, sysMsg)
		if pass && !handler(msg) {
			return
		}
		goto loop
	case msg := <-m.userMailbox:
		if handler(msg) {
			goto loop
		}
	case <-m.done:
		// not accepting any messages
		return
	}
}

func (m *channelMailbox) ReceiveWithTimeout(timeout time.Duration, handler MessageHandler) {
	timer := time.NewTimer(timeout)
	defer stopTimer(timer)
loop:
	select {
	case sysMsg := <-m.sysMailbox:
		pass, msg := handleSystemMessage(m.sysHandler, sysMsg)
		if pass && !handler(msg) {
			return
		}
		resetTimer(timer, timeout, false)
		goto loop
	case msg := <-m.userMailbox:
		if handler(msg) {
			resetTimer(timer, timeout, false)
			goto loop
		}
	case <-m.done:
		return
	case <-timer.C:
		if handler(sysmsg.Timeout{Duration: timeout}) {
			resetTimer(timer, timeout, true)
			goto loop
		}
	}
}

func (m *channelMailbox) Dispose() {
	m.disposeOnce.Do(func() {
		close(m.done)
	})
}
