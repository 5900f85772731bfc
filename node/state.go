package node

import (
	"github.com/jannikbecher/erlang-red/flowmsg"
	"github.com/jannikbecher/erlang-red/internal/pid"
	"github.com/jannikbecher/erlang-red/supervisor"
)

// RuntimeState is the mutable state owned by exactly one node actor. It is
// only ever touched from that actor's dispatch loop; nothing outside the
// actor mutates it.
type RuntimeState struct {
	Config *Config
	// Scope is the session identifier the node reports status under.
	Scope string
	// Self is the node's own handle, set by the envelope before the first
	// dispatch.
	Self   *pid.ProtectedPID
	Active bool
	// Counters tracks dispatched messages for the counted types.
	Counters map[flowmsg.Type]uint64
	// Errors counts dispatches the behavior did not recognize.
	Errors uint64

	// supervisor-type nodes only: the retained ordered child configs from
	// the last extraction, and a non-owning handle to the live subtree.
	// Subtree != nil means a subtree is (or was recently) running.
	Children []*Config
	Subtree  *supervisor.Ref
}

func NewRuntimeState(cfg *Config, scope string) *RuntimeState {
	return &RuntimeState{
		Config:   cfg,
		Scope:    scope,
		Active:   true,
		Counters: make(map[flowmsg.Type]uint64),
	}
}

func (st *RuntimeState) count(t flowmsg.Type) {
	st.Counters[t]++
}

// Count returns the number of dispatched messages of the given type.
func (st *RuntimeState) Count(t flowmsg.Type) uint64 {
	return st.Counters[t]
}

// Diagnostic returns a loggable snapshot of the full state, for the
// "this should not happen" sink and crash logs.
func (st *RuntimeState) Diagnostic() map[string]interface{} {
	counters := make(map[string]uint64, len(st.Counters))
	for t, n := range st.Counters {
		counters[string(t)] = n
	}
	snapshot := map[string]interface{}{
		"id":       st.Config.ID,
		"type":     st.Config.Type,
		"scope":    st.Scope,
		"active":   st.Active,
		"counters": counters,
		"errors":   st.Errors,
	}
	if st.Config.IsSupervisor() {
		snapshot["children"] = len(st.Children)
		snapshot["subtree_alive"] = st.Subtree != nil && st.Subtree.Alive()
	}
	return snapshot
}
