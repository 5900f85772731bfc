// Package supernode implements the supervisor node type: it claims an
// ordered subset of a deployment's nodes, starts them as a managed process
// subtree behind a crash-containment layer, and reports their lifecycle
// through the status sink. The supervisor's own actor only observes the
// subtree; it is never a member of it, so subtree crashes cannot take the
// supervisor down.
package supernode

import (
	"fmt"

	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"github.com/jannikbecher/erlang-red/actor"
	"github.com/jannikbecher/erlang-red/flowmsg"
	"github.com/jannikbecher/erlang-red/internal/pid"
	"github.com/jannikbecher/erlang-red/metrics"
	"github.com/jannikbecher/erlang-red/node"
	"github.com/jannikbecher/erlang-red/status"
	"github.com/jannikbecher/erlang-red/supervisor"
)

// BehaviorFactory builds the node-type behavior for one owned child. The
// supervisor is generic over what its children actually do.
type BehaviorFactory func(cfg *node.Config) node.Behavior

// ExtractCmd asks a supervisor node to claim its scope out of a candidate
// node list. Delivered synchronously via ExtractNodes; the reply is the
// remainder list.
type ExtractCmd struct {
	Candidates []*node.Config
}

// Supervisor is the behavior of supervisor-type nodes. One instance per
// node actor; all methods run on that actor's goroutine.
type Supervisor struct {
	deps    node.Deps
	factory BehaviorFactory
	log     *zap.Logger
	machine *fsm.FSM
	watched *supervisor.Ref
}

func New(deps node.Deps, factory BehaviorFactory) *Supervisor {
	deps = deps.Normalized()
	if factory == nil {
		factory = func(*node.Config) node.Behavior { return node.UnimplementedBehavior{} }
	}
	return &Supervisor{
		deps:    deps,
		factory: factory,
		log:     deps.Logger.Named("supernode"),
		machine: newLifecycle(),
	}
}

// Start spawns a supervisor node actor and blocks until it is registered.
func Start(cfg *node.Config, scope string, deps node.Deps, factory BehaviorFactory) *pid.ProtectedPID {
	return node.Start(cfg, scope, New(deps, factory), deps)
}

// ExtractNodes hands the full candidate node list to a running supervisor
// node and blocks until it has claimed its scope. On success the returned
// remainder excludes the claimed nodes; on configuration rejection it is
// the original list untouched and the supervisor stops itself.
func ExtractNodes(sup *pid.ProtectedPID, candidates []*node.Config) ([]*node.Config, error) {
	response, err := node.CallSync(sup, ExtractCmd{Candidates: candidates})
	if err != nil {
		return nil, err
	}
	remainder, _ := response.([]*node.Config)
	return remainder, nil
}

func (s *Supervisor) HandleCall(st *node.RuntimeState, request interface{}, replyTo *pid.ProtectedPID) {
	cmd, ok := request.(ExtractCmd)
	if !ok {
		actor.Send(replyTo, fmt.Errorf("unrecognized call %T", request))
		return
	}
	actor.Send(replyTo, s.extract(st, cmd.Candidates))
}

func (s *Supervisor) extract(st *node.RuntimeState, candidates []*node.Config) interface{} {
	s.transition(eventValidate)
	if reason, ok := validateConfig(st.Config); !ok {
		s.reject(st, reason)
		return candidates
	}

	s.transition(eventSelect)
	scopeIDs, _ := st.Config.ScopeIDs()
	mine, rest := partition(scopeIDs, candidates)
	for _, child := range mine {
		if child.IsSupervisor() {
			s.reject(st, ReasonNestedSupervisor)
			return candidates
		}
	}

	s.transition(eventBuild)
	st.Children = mine
	if err := s.spinUp(st); err != nil {
		s.transition(eventStop)
		s.log.Error("subtree spin-up failed",
			zap.String("node", st.Config.ID), zap.Error(err))
		return fmt.Errorf("spin up subtree of %s: %w", st.Config.ID, err)
	}
	return rest
}

// reject reports the unsupported configuration and schedules the
// supervisor's own stop. Never retried.
func (s *Supervisor) reject(st *node.RuntimeState, reason string) {
	s.transition(eventReject)
	s.deps.Status.Report(st.Scope, st.Config.ID,
		"unsupported: "+reason, status.ColorRed, status.ShapeRing)
	s.log.Warn("supervisor configuration rejected",
		zap.String("node", st.Config.ID), zap.String("reason", reason))
	actor.Send(st.Self, flowmsg.Stop{})
}

// spinUp tears down any live subtree and starts a fresh one over the
// retained children. The companion layer wraps the subtree manager so a
// subtree crash is absorbed one level below the supervisor's actor; the
// subtree manager enforces the strategy the node config asked for.
func (s *Supervisor) spinUp(st *node.RuntimeState) error {
	s.transition(eventSpinUp)
	s.dropSubtree(st)

	specs := buildChildSpecs(st.Config, st.Scope, st.Children, s.factory, s.deps)
	maxRestarts, period := groupIntensity(st.Config)
	subtreeOpts := supervisor.NewOptions(groupStrategy(st.Config), maxRestarts, period).
		SetName("subtree_" + st.Config.ID)

	self := st.Self
	startSubtree := func() (*supervisor.Ref, error) {
		ref, err := supervisor.StartManagedGroup(subtreeOpts, specs...)
		if err != nil {
			return nil, err
		}
		actor.Send(self, flowmsg.MonitorProcess{Ref: ref})
		actor.Send(self, flowmsg.SubtreeStarted{})
		return ref, nil
	}

	companionOpts := supervisor.NewOptions(supervisor.OneForAllStrategy, 1, 5).
		SetAutoShutdown(supervisor.AllSignificant).
		SetName("companion_" + st.Config.ID)
	companion, err := supervisor.StartManagedGroup(companionOpts,
		supervisor.NewSupervisorSpec("subtree_manager_"+st.Config.ID, startSubtree).
			SetSignificant(true))
	if err != nil {
		return err
	}
	st.Subtree = companion
	return nil
}

func (s *Supervisor) dropSubtree(st *node.RuntimeState) {
	if s.watched != nil {
		s.watched.Unwatch(st.Self)
		s.watched = nil
	}
	if st.Subtree == nil {
		return
	}
	// a stale subtree never survives a new spin-up, no grace
	if st.Subtree.Alive() {
		st.Subtree.Terminate()
	}
	st.Subtree = nil
}

func (s *Supervisor) HandleMessage(st *node.RuntimeState, msg *flowmsg.Msg) node.Outcome {
	if msg.Action() != "restart" {
		return node.Unhandled()
	}
	if len(st.Children) == 0 {
		// restart without history
		s.reject(st, ReasonRestartAction)
		return node.Handled()
	}
	s.transition(eventRestart)
	if err := s.spinUp(st); err != nil {
		s.log.Error("subtree restart failed",
			zap.String("node", st.Config.ID), zap.Error(err))
		return node.Handled()
	}
	metrics.SubtreeRestarts.WithLabelValues(st.Config.ID).Inc()
	s.deps.Status.Report(st.Scope, st.Config.ID,
		status.Restarted, status.ColorGreen, status.ShapeDot)
	return node.Handled()
}

func (s *Supervisor) HandleEvent(st *node.RuntimeState, event flowmsg.Event) {
	switch ev := event.(type) {
	case flowmsg.Registered:
		s.deps.Status.Report(st.Scope, st.Config.ID,
			status.Starting, status.ColorGreen, status.ShapeRing)

	case flowmsg.MonitorProcess:
		if s.watched != nil {
			s.watched.Unwatch(st.Self)
		}
		s.watched = ev.Ref
		ev.Ref.Watch(st.Self)

	case flowmsg.SubtreeStarted:
		s.transition(eventSupervise)
		s.deps.Status.Report(st.Scope, st.Config.ID,
			status.Started, status.ColorGreen, status.ShapeDot)
		s.notifyDownstream(st, status.Started)

	case flowmsg.ProcessDown:
		if s.watched == nil || !s.watched.Owns(ev.Who) {
			s.log.Info("exit notice from an unwatched process",
				zap.String("node", st.Config.ID), zap.String("reason", ev.Reason))
			return
		}
		s.watched = nil
		st.Subtree = nil
		s.deps.Status.Report(st.Scope, st.Config.ID,
			status.Dead, status.ColorBlue, status.ShapeRing)
		s.notifyDownstream(st, status.Dead)

	case flowmsg.Stop:
		s.transition(eventStop)
		s.deps.Status.Report(st.Scope, st.Config.ID,
			status.Stopped, status.ColorRed, status.ShapeDot)
		s.dropSubtree(st)

	default:
		s.log.Debug("ignoring event",
			zap.String("node", st.Config.ID), zap.Any("event", event))
	}
}

// notifyDownstream broadcasts a status-tagged message to the nodes wired
// downstream of the supervisor.
func (s *Supervisor) notifyDownstream(st *node.RuntimeState, label string) {
	if s.deps.Completer == nil {
		return
	}
	m := flowmsg.New(flowmsg.TypeOutgoing).With("status", label)
	m.Source = st.Config.ID
	s.deps.Completer.SendToConnected(st, m)
}
