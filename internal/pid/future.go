package pid

import (
	"github.com/rs/xid"

	"github.com/jannikbecher/erlang-red/internal/mailbox"
)

type futurePID struct {
	id       string
	m        *mailbox.FutureMailbox
	shutdown func()
}

func NewFuturePID() PID {
	f := &futurePID{
		id: xid.New().String(),
		m:  mailbox.NewFutureMailbox(),
	}
	f.shutdown = f.m.Dispose
	return f
}

func (f *futurePID) ID() string {
	return f.id
}

func (f *futurePID) Mailbox() mailbox.Mailbox {
	return f.m
}

func (f *futurePID) ShutdownFn() func() {
	return f.shutdown
}

func (f *futurePID) SetShutdownFn(shutdown func()) {
	f.shutdown = shutdown
}
