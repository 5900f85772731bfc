package process

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jannikbecher/erlang-red/actor"
	"github.com/jannikbecher/erlang-red/internal/pid"
)

// collector is an actor that stores everything it receives.
func collector(received chan interface{}) actor.Func {
	return func(a *actor.Actor) {
		a.Receive(func(message interface{}) (loop bool) {
			received <- message
			return true
		})
	}
}

func TestJoinLeaveMembers(t *testing.T) {
	g := NewGroups(nil)
	defer g.Dispose()

	p1 := actor.Spawn(collector(make(chan interface{}, 8)))
	p2 := actor.Spawn(collector(make(chan interface{}, 8)))

	g.Join("node1", p1)
	g.Join("node1", p2)
	g.Join("node2", p1)

	assert.Len(t, g.Members("node1"), 2)
	assert.Len(t, g.Members("node2"), 1)
	assert.Empty(t, g.Members("missing"))

	g.Leave("node1", p1)
	assert.Len(t, g.Members("node1"), 1)

	g.Leave("node1", p2)
	assert.Empty(t, g.Members("node1"), "empty group must be dropped")
}

func TestJoinIsIdempotentPerProcess(t *testing.T) {
	g := NewGroups(nil)
	defer g.Dispose()

	p := actor.Spawn(collector(make(chan interface{}, 8)))
	g.Join("node1", p)
	g.Join("node1", p)

	assert.Len(t, g.Members("node1"), 1)
}

func TestBroadcastReachesAllGroupMembers(t *testing.T) {
	g := NewGroups(nil)
	defer g.Dispose()

	in1 := make(chan interface{}, 8)
	in2 := make(chan interface{}, 8)
	other := make(chan interface{}, 8)

	g.Join("node1", actor.Spawn(collector(in1)))
	g.Join("node1", actor.Spawn(collector(in2)))
	g.Join("node2", actor.Spawn(collector(other)))

	g.Broadcast("node1", "hello")

	for _, in := range []chan interface{}{in1, in2} {
		select {
		case got := <-in:
			require.Equal(t, "hello", got)
		case <-time.After(time.Second):
			t.Fatal("group member never received the broadcast")
		}
	}
	select {
	case got := <-other:
		t.Fatalf("broadcast leaked to another group: %v", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBroadcastToUnknownGroupIsNoop(t *testing.T) {
	g := NewGroups(nil)
	defer g.Dispose()

	g.Broadcast("nobody", "hello")
	// nothing to assert beyond not blocking or crashing
	assert.Empty(t, g.Members("nobody"))
}

func TestMembersReturnsHandlesUsableForDelivery(t *testing.T) {
	g := NewGroups(nil)
	defer g.Dispose()

	in := make(chan interface{}, 1)
	g.Join("node1", actor.Spawn(collector(in)))

	members := g.Members("node1")
	require.Len(t, members, 1)

	var _ *pid.ProtectedPID = members[0]
	actor.Send(members[0], "direct")
	select {
	case got := <-in:
		assert.Equal(t, "direct", got)
	case <-time.After(time.Second):
		t.Fatal("delivery through a member handle never arrived")
	}
}
