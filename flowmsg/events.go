package flowmsg

import (
	"github.com/jannikbecher/erlang-red/internal/pid"
	"github.com/jannikbecher/erlang-red/supervisor"
)

// Event is a lifecycle notice delivered to a node actor. Events carry no
// forwarding semantics; handling one only updates node state.
type Event interface {
	flowEvent()
}

// Registered tells a node its identity has been added to the registry. It
// is delivered synchronously: the sender blocks until ReplyTo is answered.
type Registered struct {
	ReplyTo *pid.ProtectedPID
}

func (Registered) flowEvent() {}

// Reload asks a node to re-read its configuration in place.
type Reload struct{}

func (Reload) flowEvent() {}

// Redeploy announces that a new configuration generation is being rolled
// out. Configs is left untyped on purpose; node types know what they need.
type Redeploy struct {
	Configs interface{}
}

func (Redeploy) flowEvent() {}

// ProcessDown reports that a watched process terminated. It is synthesized
// by the envelope from the engine's exit notices.
type ProcessDown struct {
	Who    interface{}
	Reason string
}

func (ProcessDown) flowEvent() {}

// TimerFired is delivered by node-owned timers.
type TimerFired struct {
	Name string
}

func (TimerFired) flowEvent() {}

// MonitorProcess asks the node to establish a liveness watch on the given
// managed group and retain its reference, replacing any previous one.
type MonitorProcess struct {
	Ref *supervisor.Ref
}

func (MonitorProcess) flowEvent() {}

// SubtreeStarted confirms that a node's managed subtree is up.
type SubtreeStarted struct{}

func (SubtreeStarted) flowEvent() {}

// Stop asks the node to clean up and terminate. Terminal: the behavior is
// invoked once more, then the actor exits.
type Stop struct{}

func (Stop) flowEvent() {}

// Enable and Disable flip the node's active flag without invoking the
// node's behavior.
type Enable struct{}

func (Enable) flowEvent() {}

type Disable struct{}

func (Disable) flowEvent() {}
