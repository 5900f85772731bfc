package pid

import (
	"github.com/rs/xid"

	"github.com/jannikbecher/erlang-red/internal/mailbox"
)

type localPID struct {
	id       string
	m        mailbox.Mailbox
	shutdown func()
}

func NewPID(m mailbox.Mailbox) PID {
	return &localPID{
		id: xid.New().String(),
		m:  m,
	}
}

func (pid *localPID) ID() string {
	return pid.id
}

func (pid *localPID) Mailbox() mailbox.Mailbox {
	return pid.m
}

func (pid *localPID) ShutdownFn() func() {
	return pid.shutdown
}

func (pid *localPID) SetShutdownFn(shutdown func()) {
	pid.shutdown = shutdown
}
