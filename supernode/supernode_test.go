package supernode

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jannikbecher/erlang-red/actor"
	"github.com/jannikbecher/erlang-red/flowmsg"
	"github.com/jannikbecher/erlang-red/node"
	"github.com/jannikbecher/erlang-red/process"
	"github.com/jannikbecher/erlang-red/status"
	"github.com/jannikbecher/erlang-red/supervisor"
)

func ids(configs []*node.Config) []string {
	out := make([]string, 0, len(configs))
	for _, cfg := range configs {
		out = append(out, cfg.ID)
	}
	return out
}

func configsFor(idList ...string) []*node.Config {
	out := make([]*node.Config, 0, len(idList))
	for _, id := range idList {
		out = append(out, &node.Config{ID: id, Type: "test"})
	}
	return out
}

func TestPartitionFollowsScopeOrder(t *testing.T) {
	candidates := configsFor("a", "b", "c")

	mine, rest := partition([]string{"b", "a"}, candidates)
	assert.Equal(t, []string{"b", "a"}, ids(mine), "mine must follow scope order")
	assert.Equal(t, []string{"c"}, ids(rest), "rest must keep candidate order")

	mine, rest = partition([]string{"x", "c"}, candidates)
	assert.Equal(t, []string{"c"}, ids(mine), "unknown scope ids are skipped")
	assert.Equal(t, []string{"a", "b"}, ids(rest))

	mine, rest = partition(nil, candidates)
	assert.Empty(t, mine)
	assert.Equal(t, []string{"a", "b", "c"}, ids(rest))
}

func TestValidateConfigPrecedence(t *testing.T) {
	base := func() *node.Config {
		return &node.Config{
			ID:    "sup",
			Type:  node.TypeSupervisor,
			Scope: []string{"a"},
		}
	}

	tests := []struct {
		name   string
		mutate func(cfg *node.Config)
		reason string
	}{
		{
			name:   "any significant auto shutdown",
			mutate: func(cfg *node.Config) { cfg.AutoShutdown = "any_significant" },
			reason: ReasonAutoShutdown,
		},
		{
			name:   "all significant auto shutdown",
			mutate: func(cfg *node.Config) { cfg.AutoShutdown = "all_significant" },
			reason: ReasonAutoShutdown,
		},
		{
			name:   "dynamic supervisor kind",
			mutate: func(cfg *node.Config) { cfg.SupervisorKind = kindDynamic },
			reason: ReasonDynamicKind,
		},
		{
			name:   "simple one for one",
			mutate: func(cfg *node.Config) { cfg.Strategy = strategySimpleOneForOne },
			reason: ReasonSimpleOneToOne,
		},
		{
			name:   "flow scope",
			mutate: func(cfg *node.Config) { cfg.Scope = "flow" },
			reason: ReasonScopeFlow,
		},
		{
			name:   "group scope",
			mutate: func(cfg *node.Config) { cfg.Scope = "group" },
			reason: ReasonScopeGroup,
		},
		{
			name:   "garbage scope",
			mutate: func(cfg *node.Config) { cfg.Scope = 42 },
			reason: ReasonScopeUnknown,
		},
		{
			name: "auto shutdown wins over kind and strategy",
			mutate: func(cfg *node.Config) {
				cfg.AutoShutdown = "any_significant"
				cfg.SupervisorKind = kindDynamic
				cfg.Strategy = strategySimpleOneForOne
			},
			reason: ReasonAutoShutdown,
		},
		{
			name: "kind wins over strategy",
			mutate: func(cfg *node.Config) {
				cfg.SupervisorKind = kindDynamic
				cfg.Strategy = strategySimpleOneForOne
			},
			reason: ReasonDynamicKind,
		},
		{
			name: "strategy wins over scope",
			mutate: func(cfg *node.Config) {
				cfg.Strategy = strategySimpleOneForOne
				cfg.Scope = "flow"
			},
			reason: ReasonSimpleOneToOne,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			reason, ok := validateConfig(cfg)
			assert.False(t, ok)
			assert.Equal(t, tt.reason, reason)
		})
	}

	reason, ok := validateConfig(base())
	assert.True(t, ok, "valid config rejected with %q", reason)

	never := base()
	never.AutoShutdown = autoShutdownNever
	never.SupervisorKind = "static"
	never.Strategy = strategyOneForOne
	_, ok = validateConfig(never)
	assert.True(t, ok)
}

func TestChildPolicyMapping(t *testing.T) {
	sup := &node.Config{ID: "sup", ChildRestart: "temporary", ChildShutdown: "infinite"}
	assert.Equal(t, supervisor.RestartTemporary, childRestart(sup))
	assert.Equal(t, supervisor.ShutdownInfinity, childShutdown(sup))

	sup = &node.Config{ID: "sup", ChildRestart: "transient", ChildShutdown: "timeout", ChildShutdownTimeout: 250}
	assert.Equal(t, supervisor.RestartTransient, childRestart(sup))
	assert.Equal(t, int32(250), childShutdown(sup))

	sup = &node.Config{ID: "sup", ChildRestart: "permanent", ChildShutdown: "brutal_kill"}
	assert.Equal(t, supervisor.RestartPermanent, childRestart(sup))
	assert.Equal(t, supervisor.ShutdownKill, childShutdown(sup))

	assert.Equal(t, "child_sup_n1", childID(sup, &node.Config{ID: "n1"}))
}

// flowProbe is a minimal child behavior: it records incoming messages per
// node id and can be told to panic.
type flowProbe struct {
	node.UnimplementedBehavior

	mu       sync.Mutex
	received map[string]int
}

func newFlowProbe() *flowProbe {
	return &flowProbe{received: make(map[string]int)}
}

func (p *flowProbe) HandleMessage(st *node.RuntimeState, msg *flowmsg.Msg) node.Outcome {
	if msg.Type != flowmsg.TypeIncoming {
		return node.Unhandled()
	}
	if msg.Action() == "panic" {
		panic("child told to panic")
	}
	p.mu.Lock()
	p.received[st.Config.ID]++
	p.mu.Unlock()
	return node.Handled()
}

func (p *flowProbe) count(id string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.received[id]
}

type fixture struct {
	groups   *process.Groups
	recorder *status.Recorder
	probe    *flowProbe
	deps     node.Deps
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		groups:   process.NewGroups(nil),
		recorder: status.NewRecorder(),
		probe:    newFlowProbe(),
	}
	t.Cleanup(f.groups.Dispose)
	f.deps = node.Deps{
		Groups: f.groups,
		Status: f.recorder,
	}
	return f
}

func (f *fixture) waitStatus(t *testing.T, nodeID, text string) status.Entry {
	t.Helper()
	return f.waitStatusCount(t, nodeID, text, 1)
}

// waitStatusCount blocks until at least n reports with the given text have
// been recorded for the node and returns the n-th one.
func (f *fixture) waitStatusCount(t *testing.T, nodeID, text string, n int) status.Entry {
	t.Helper()
	var entry status.Entry
	require.Eventually(t, func() bool {
		seen := 0
		for _, e := range f.recorder.Entries() {
			if e.NodeID == nodeID && e.Text == text {
				seen++
				if seen == n {
					entry = e
				}
			}
		}
		return seen >= n
	}, 2*time.Second, 10*time.Millisecond, "node %s never reported %q %d time(s)", nodeID, text, n)
	return entry
}

func (f *fixture) waitStatusPrefix(t *testing.T, nodeID, prefix string) status.Entry {
	t.Helper()
	var entry status.Entry
	require.Eventually(t, func() bool {
		for _, e := range f.recorder.Entries() {
			if e.NodeID == nodeID && strings.HasPrefix(e.Text, prefix) {
				entry = e
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond, "node %s never reported prefix %q", nodeID, prefix)
	return entry
}

func supConfig(scope interface{}) *node.Config {
	return &node.Config{
		ID:           "sup",
		Type:         node.TypeSupervisor,
		Scope:        scope,
		Strategy:     "one_for_one",
		Intensity:    3,
		Period:       10,
		ChildRestart: "permanent",
	}
}

func TestExtractClaimsScopeAndStartsChildren(t *testing.T) {
	f := newFixture(t)
	sup := Start(supConfig([]string{"b", "a"}), "s1", f.deps,
		func(*node.Config) node.Behavior { return f.probe })
	defer node.Stop(sup)

	rest, err := ExtractNodes(sup, configsFor("a", "b", "c"))
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, ids(rest))

	f.waitStatus(t, "sup", status.Started)

	// claimed children run and are reachable through the registry
	require.Eventually(t, func() bool {
		return len(f.groups.Members("a")) == 1 && len(f.groups.Members("b")) == 1
	}, 2*time.Second, 10*time.Millisecond)

	f.groups.Broadcast("a", flowmsg.New(flowmsg.TypeIncoming))
	require.Eventually(t, func() bool { return f.probe.count("a") == 1 },
		2*time.Second, 10*time.Millisecond)
}

func TestExtractRejectionReturnsOriginalList(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *node.Config)
		reason string
	}{
		{"auto shutdown", func(cfg *node.Config) { cfg.AutoShutdown = "any_significant" }, ReasonAutoShutdown},
		{"dynamic kind", func(cfg *node.Config) { cfg.SupervisorKind = "dynamic" }, ReasonDynamicKind},
		{"simple one for one", func(cfg *node.Config) { cfg.Strategy = "simple_one_for_one" }, ReasonSimpleOneToOne},
		{"flow scope", func(cfg *node.Config) { cfg.Scope = "flow" }, ReasonScopeFlow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			cfg := supConfig([]string{"a", "b"})
			tt.mutate(cfg)
			sup := Start(cfg, "s1", f.deps,
				func(*node.Config) node.Behavior { return f.probe })

			candidates := configsFor("a", "b", "c")
			rest, err := ExtractNodes(sup, candidates)
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "b", "c"}, ids(rest), "rejected extraction must return the original list")

			entry := f.waitStatusPrefix(t, "sup", "unsupported: ")
			assert.Equal(t, "unsupported: "+tt.reason, entry.Text)
			assert.Equal(t, status.ColorRed, entry.Color)
			assert.Equal(t, status.ShapeRing, entry.Shape)

			// rejection self-schedules a stop, no children ever start
			f.waitStatus(t, "sup", status.Stopped)
			assert.Empty(t, f.groups.Members("a"))
			assert.Empty(t, f.groups.Members("b"))
		})
	}
}

func TestExtractRejectsNestedSupervisor(t *testing.T) {
	f := newFixture(t)
	sup := Start(supConfig([]string{"a", "inner"}), "s1", f.deps,
		func(*node.Config) node.Behavior { return f.probe })

	candidates := configsFor("a", "c")
	candidates = append(candidates, &node.Config{ID: "inner", Type: node.TypeSupervisor})

	rest, err := ExtractNodes(sup, candidates)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "inner"}, ids(rest))

	entry := f.waitStatusPrefix(t, "sup", "unsupported: ")
	assert.Equal(t, "unsupported: "+ReasonNestedSupervisor, entry.Text)
	assert.Empty(t, f.groups.Members("a"), "children started despite rejection")
}

func TestRestartWithoutHistory(t *testing.T) {
	f := newFixture(t)
	sup := Start(supConfig([]string{"a"}), "s1", f.deps,
		func(*node.Config) node.Behavior { return f.probe })

	actor.Send(sup, flowmsg.New(flowmsg.TypeIncoming).With("action", "restart"))

	entry := f.waitStatusPrefix(t, "sup", "unsupported: ")
	assert.Equal(t, "unsupported: "+ReasonRestartAction, entry.Text)
	f.waitStatus(t, "sup", status.Stopped)
}

func TestRestartWithHistorySpinsUpEquivalentChildren(t *testing.T) {
	f := newFixture(t)
	sup := Start(supConfig([]string{"a", "b"}), "s1", f.deps,
		func(*node.Config) node.Behavior { return f.probe })
	defer node.Stop(sup)

	_, err := ExtractNodes(sup, configsFor("a", "b"))
	require.NoError(t, err)
	f.waitStatus(t, "sup", status.Started)

	actor.Send(sup, flowmsg.New(flowmsg.TypeIncoming).With("action", "restart"))
	entry := f.waitStatus(t, "sup", status.Restarted)
	assert.Equal(t, status.ColorGreen, entry.Color)
	assert.Equal(t, status.ShapeDot, entry.Shape)

	// the same child set is running again, exactly once each
	require.Eventually(t, func() bool {
		return len(f.groups.Members("a")) == 1 && len(f.groups.Members("b")) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRepeatedSpinUpNeverLeavesTwoSubtrees(t *testing.T) {
	f := newFixture(t)
	sup := Start(supConfig([]string{"a"}), "s1", f.deps,
		func(*node.Config) node.Behavior { return f.probe })
	defer node.Stop(sup)

	_, err := ExtractNodes(sup, configsFor("a"))
	require.NoError(t, err)
	f.waitStatus(t, "sup", status.Started)

	for i := 0; i < 3; i++ {
		actor.Send(sup, flowmsg.New(flowmsg.TypeIncoming).With("action", "restart"))
		f.waitStatusCount(t, "sup", status.Restarted, i+1)
	}

	// after everything settles exactly one incarnation of the child exists
	require.Eventually(t, func() bool { return len(f.groups.Members("a")) == 1 },
		2*time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Len(t, f.groups.Members("a"), 1)
}

func TestSubtreeDeathReportsDead(t *testing.T) {
	f := newFixture(t)
	cfg := supConfig([]string{"a"})
	cfg.Intensity = 1
	cfg.Period = 5
	sup := Start(cfg, "s1", f.deps,
		func(*node.Config) node.Behavior { return f.probe })
	defer node.Stop(sup)

	_, err := ExtractNodes(sup, configsFor("a"))
	require.NoError(t, err)
	f.waitStatus(t, "sup", status.Started)

	// exceed the subtree's restart intensity repeatedly until the
	// companion layer gives up as well
	go func() {
		for i := 0; i < 20; i++ {
			f.groups.Broadcast("a", flowmsg.New(flowmsg.TypeIncoming).With("action", "panic"))
			time.Sleep(100 * time.Millisecond)
		}
	}()

	entry := f.waitStatus(t, "sup", status.Dead)
	assert.Equal(t, status.ColorBlue, entry.Color)
	assert.Equal(t, status.ShapeRing, entry.Shape)
}

func TestStopTearsDownSubtree(t *testing.T) {
	f := newFixture(t)
	sup := Start(supConfig([]string{"a", "b"}), "s1", f.deps,
		func(*node.Config) node.Behavior { return f.probe })

	_, err := ExtractNodes(sup, configsFor("a", "b"))
	require.NoError(t, err)
	f.waitStatus(t, "sup", status.Started)

	node.Stop(sup)

	entry := f.waitStatus(t, "sup", status.Stopped)
	assert.Equal(t, status.ColorRed, entry.Color)
	assert.Equal(t, status.ShapeDot, entry.Shape)
	require.Eventually(t, func() bool {
		return len(f.groups.Members("a")) == 0 && len(f.groups.Members("b")) == 0
	}, 2*time.Second, 10*time.Millisecond, "children survived supervisor stop")
}

func TestStartingStatusOnRegistration(t *testing.T) {
	f := newFixture(t)
	sup := Start(supConfig([]string{"a"}), "s1", f.deps,
		func(*node.Config) node.Behavior { return f.probe })
	defer node.Stop(sup)

	entry := f.waitStatus(t, "sup", status.Starting)
	assert.Equal(t, status.ColorGreen, entry.Color)
	assert.Equal(t, status.ShapeRing, entry.Shape)
}

func TestUnknownCallIsRejected(t *testing.T) {
	f := newFixture(t)
	sup := Start(supConfig([]string{"a"}), "s1", f.deps,
		func(*node.Config) node.Behavior { return f.probe })
	defer node.Stop(sup)

	_, err := node.CallSync(sup, fmt.Errorf("not a command"))
	require.Error(t, err)
}
