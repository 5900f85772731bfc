// Package actorctx holds the per-process context: spawn arguments, the done
// channel closed on shutdown, and the receive entry points.
package actorctx

import (
	"context"
	"time"

	"github.com/jannikbecher/erlang-red/internal/mailbox"
	"github.com/jannikbecher/erlang-red/internal/pid"
)

type Context struct {
	pid  pid.PID
	args []interface{}
	ctx  context.Context
}

// NewContext wires a fresh context to the process, registering its cancel
// func as the process shutdown hook.
func NewContext(p pid.PID, args []interface{}) *Context {
	ctx, cancel := context.WithCancel(context.Background())
	actorCtx := &Context{
		pid:  p,
		args: args,
		ctx:  ctx,
	}
	p.SetShutdownFn(cancel)
	return actorCtx
}

func (ctx *Context) Args() []interface{} {
	return ctx.args
}

func (ctx *Context) Receive(handler mailbox.MessageHandler) {
	ctx.pid.Mailbox().Receive(handler)
}

func (ctx *Context) ReceiveWithTimeout(d time.Duration, handler mailbox.MessageHandler) {
	if d < 1 {
		ctx.pid.Mailbox().Receive(handler)
		return
	}
	ctx.pid.Mailbox().ReceiveWithTimeout(d, handler)
}

// Done returns a channel closed when the process has been shut down. Long
// running handlers should select on it and bail out when it closes.
func (ctx *Context) Done() <-chan struct{} {
	return ctx.ctx.Done()
}

// Context returns a context.Context bound to this process's lifetime,
// suitable for passing to blocking calls made from inside the process.
func (ctx *Context) Context() context.Context {
	return ctx.ctx
}
