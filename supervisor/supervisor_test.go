package supervisor

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jannikbecher/erlang-red/actor"
	"github.com/jannikbecher/erlang-red/process"
)

// testHarness wires workers to the registry so tests can reach a child's
// current incarnation by id, and counts (re)starts per child.
type testHarness struct {
	groups *process.Groups

	mu     sync.Mutex
	starts map[string]int
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()
	h := &testHarness{
		groups: process.NewGroups(nil),
		starts: make(map[string]int),
	}
	t.Cleanup(h.groups.Dispose)
	return h
}

// worker returns an actor func that registers itself, records its start and
// then obeys "panic" and "done" commands.
func (h *testHarness) worker(id string) actor.Func {
	return func(a *actor.Actor) {
		h.groups.Join(id, a.Self())
		defer h.groups.Leave(id, a.Self())

		h.mu.Lock()
		h.starts[id]++
		h.mu.Unlock()

		a.Receive(func(message interface{}) (loop bool) {
			switch message {
			case "panic":
				panic("worker told to panic")
			case "done":
				return false
			}
			return true
		})
	}
}

func (h *testHarness) startCount(id string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.starts[id]
}

func (h *testHarness) tell(id string, command string) {
	h.groups.Broadcast(id, command)
}

func (h *testHarness) waitStarts(t *testing.T, id string, want int) {
	t.Helper()
	require.Eventually(t, func() bool { return h.startCount(id) >= want },
		2*time.Second, 10*time.Millisecond, "child %s never reached %d starts", id, want)
}

func TestOneForOneRestartsOnlyTheFailedChild(t *testing.T) {
	h := newHarness(t)
	ref, err := StartManagedGroup(NewOptions(OneForOneStrategy, 3, 5),
		NewWorkerSpec("a", h.worker("a")).SetRestart(RestartPermanent),
		NewWorkerSpec("b", h.worker("b")).SetRestart(RestartPermanent),
	)
	require.NoError(t, err)
	defer ref.Terminate()

	h.waitStarts(t, "a", 1)
	h.waitStarts(t, "b", 1)

	h.tell("b", "panic")
	h.waitStarts(t, "b", 2)

	assert.Equal(t, 1, h.startCount("a"), "sibling restarted under one_for_one")
	assert.True(t, ref.Alive())
}

func TestOneForAllRestartsAllChildren(t *testing.T) {
	h := newHarness(t)
	ref, err := StartManagedGroup(NewOptions(OneForAllStrategy, 3, 5),
		NewWorkerSpec("a", h.worker("a")).SetRestart(RestartPermanent),
		NewWorkerSpec("b", h.worker("b")).SetRestart(RestartPermanent),
	)
	require.NoError(t, err)
	defer ref.Terminate()

	h.waitStarts(t, "a", 1)
	h.waitStarts(t, "b", 1)

	h.tell("a", "panic")
	h.waitStarts(t, "a", 2)
	h.waitStarts(t, "b", 2)
}

func TestRestForOneRestartsLaterChildrenOnly(t *testing.T) {
	h := newHarness(t)
	ref, err := StartManagedGroup(NewOptions(RestForOneStrategy, 3, 5),
		NewWorkerSpec("a", h.worker("a")).SetRestart(RestartPermanent),
		NewWorkerSpec("b", h.worker("b")).SetRestart(RestartPermanent),
		NewWorkerSpec("c", h.worker("c")).SetRestart(RestartPermanent),
	)
	require.NoError(t, err)
	defer ref.Terminate()

	h.waitStarts(t, "c", 1)

	h.tell("b", "panic")
	h.waitStarts(t, "b", 2)
	h.waitStarts(t, "c", 2)

	assert.Equal(t, 1, h.startCount("a"), "earlier sibling restarted under rest_for_one")
}

func TestTransientChildNotRestartedAfterNormalExit(t *testing.T) {
	h := newHarness(t)
	ref, err := StartManagedGroup(NewOptions(OneForOneStrategy, 3, 5),
		NewWorkerSpec("a", h.worker("a")).SetRestart(RestartTransient),
	)
	require.NoError(t, err)
	defer ref.Terminate()

	h.waitStarts(t, "a", 1)
	h.tell("a", "done")

	require.Eventually(t, func() bool { return len(h.groups.Members("a")) == 0 },
		2*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, h.startCount("a"))
	assert.True(t, ref.Alive())
}

func TestTemporaryChildNeverRestarted(t *testing.T) {
	h := newHarness(t)
	ref, err := StartManagedGroup(NewOptions(OneForOneStrategy, 3, 5),
		NewWorkerSpec("a", h.worker("a")).SetRestart(RestartTemporary),
	)
	require.NoError(t, err)
	defer ref.Terminate()

	h.waitStarts(t, "a", 1)
	h.tell("a", "panic")

	require.Eventually(t, func() bool { return len(h.groups.Members("a")) == 0 },
		2*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, h.startCount("a"))
}

func TestMaxRestartsTakesGroupDown(t *testing.T) {
	h := newHarness(t)
	ref, err := StartManagedGroup(NewOptions(OneForOneStrategy, 1, 5),
		NewWorkerSpec("a", h.worker("a")).SetRestart(RestartPermanent),
	)
	require.NoError(t, err)

	h.waitStarts(t, "a", 1)
	h.tell("a", "panic")
	h.waitStarts(t, "a", 2)
	h.tell("a", "panic")

	require.Eventually(t, func() bool { return !ref.Alive() },
		2*time.Second, 10*time.Millisecond, "group survived exceeding restart intensity")
}

func TestAutoShutdownAllSignificant(t *testing.T) {
	h := newHarness(t)
	ref, err := StartManagedGroup(
		NewOptions(OneForOneStrategy, 3, 5).SetAutoShutdown(AllSignificant),
		NewWorkerSpec("keeper", h.worker("keeper")).SetRestart(RestartTransient),
		NewWorkerSpec("sig1", h.worker("sig1")).SetRestart(RestartTransient).SetSignificant(true),
		NewWorkerSpec("sig2", h.worker("sig2")).SetRestart(RestartTransient).SetSignificant(true),
	)
	require.NoError(t, err)

	h.waitStarts(t, "sig2", 1)

	h.tell("sig1", "done")
	time.Sleep(100 * time.Millisecond)
	assert.True(t, ref.Alive(), "group shut down with a significant child still alive")

	h.tell("sig2", "done")
	require.Eventually(t, func() bool { return !ref.Alive() },
		2*time.Second, 10*time.Millisecond, "group survived its last significant child")
}

func TestNestedGroupChild(t *testing.T) {
	h := newHarness(t)
	inner := func() (*Ref, error) {
		return StartManagedGroup(NewOptions(OneForOneStrategy, 3, 5).SetName("inner"),
			NewWorkerSpec("leaf", h.worker("leaf")).SetRestart(RestartPermanent),
		)
	}
	ref, err := StartManagedGroup(NewOptions(OneForOneStrategy, 3, 5).SetName("outer"),
		NewSupervisorSpec("inner", inner),
	)
	require.NoError(t, err)

	h.waitStarts(t, "leaf", 1)

	// a leaf crash is handled by the inner group, the outer stays calm
	h.tell("leaf", "panic")
	h.waitStarts(t, "leaf", 2)
	assert.True(t, ref.Alive())

	// terminating the outer group tears the whole tree down
	ref.Terminate()
	require.Eventually(t, func() bool { return len(h.groups.Members("leaf")) == 0 },
		2*time.Second, 10*time.Millisecond)
}

func TestStartManagedGroupValidation(t *testing.T) {
	h := newHarness(t)

	_, err := StartManagedGroup(NewOptions(OneForOneStrategy, 3, 5))
	assert.Error(t, err, "empty childspec list accepted")

	_, err = StartManagedGroup(NewOptions(OneForOneStrategy, 3, 5),
		NewWorkerSpec("dup", h.worker("dup")),
		NewWorkerSpec("dup", h.worker("dup")),
	)
	assert.Error(t, err, "duplicate childspec id accepted")

	_, err = StartManagedGroup(NewOptions(OneForOneStrategy, 3, 0),
		NewWorkerSpec("a", h.worker("a")),
	)
	assert.Error(t, err, "zero period accepted")

	_, err = StartManagedGroup(NewOptions(OneForOneStrategy, 3, 5),
		NewWorkerSpec("", h.worker("empty")),
	)
	assert.Error(t, err, "empty childspec id accepted")
}
