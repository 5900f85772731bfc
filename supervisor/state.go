package supervisor

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/jannikbecher/erlang-red/actor"
	"github.com/jannikbecher/erlang-red/internal/pid"
	"github.com/jannikbecher/erlang-red/sysmsg"
)

type state struct {
	specs      *specList
	options    *Options
	registry   *registry
	supervisor *actor.Actor
	// refs of nested supervisor children, by child id
	groupRefs map[string]*Ref
}

func newState(specs *specList, options *Options, supervisor *actor.Actor) *state {
	return &state{
		specs:      specs,
		options:    options,
		registry:   newRegistry(options),
		supervisor: supervisor,
		groupRefs:  make(map[string]*Ref),
	}
}

func (s *state) startAll() error {
	for _, id := range s.specs.order {
		if err := s.spawn(id); err != nil {
			return err
		}
	}
	return nil
}

func (s *state) spawn(id string) error {
	if s.registry.reachedMaxRestarts(id) {
		logger.Warn("supervisor reached max restarts",
			zap.String("supervisor", s.options.Name), zap.String("child", id))
		s.shutdownSupervisor(sysmsg.Reason{
			Type:    sysmsg.SupMaxRestart,
			Details: fmt.Sprintf("child %s reached its max allowed restarts", id),
		})
	}

	spec := s.specs.get(id)
	var ppid *pid.ProtectedPID
	switch spec.ChildType {
	case TypeSupervisor:
		ref, err := spec.StartLink()
		if err != nil {
			return fmt.Errorf("starting nested group %s: %w", id, err)
		}
		ppid = ref.PPID()
		s.supervisor.Link(ppid)
		s.groupRefs[id] = ref
	default:
		ppid = s.supervisor.SpawnLink(spec.Start.ActorFunc, spec.Start.Args...)
	}
	s.registry.put(pid.ExtractPID(ppid), id)
	return nil
}

func (s *state) respawn(id string) {
	if err := s.spawn(id); err != nil {
		logger.Error("supervisor failed to restart child",
			zap.String("supervisor", s.options.Name), zap.String("child", id), zap.Error(err))
	}
}

func (s *state) deadAndUnlink(p pid.PID) {
	s.registry.dead(p)
	s.supervisor.Unlink(pid.NewProtectedPID(p))
}

// shutdown terminates one child. Nested groups tear their own children down;
// workers get a Shutdown command carrying their declared grace value plus a
// context cancel so long-running work notices.
func (s *state) shutdown(id string, p pid.PID) {
	s.deadAndUnlink(p)
	if ref, ok := s.groupRefs[id]; ok {
		delete(s.groupRefs, id)
		ref.Terminate()
		return
	}
	actor.SendSystemMessage(pid.NewProtectedPID(p), sysmsg.Shutdown{
		Parent: pid.ExtractPID(s.supervisor.Self()),
		Grace:  s.specs.get(id).Shutdown,
	})
	if fn := p.ShutdownFn(); fn != nil {
		fn()
	}
}

// shutdownAll terminates every alive child in reverse start order.
func (s *state) shutdownAll() {
	for i := len(s.specs.order) - 1; i >= 0; i-- {
		id := s.specs.order[i]
		if p, ok := s.registry.alivePID(id); ok {
			s.shutdown(id, p)
		}
	}
}

// shutdownSupervisor takes the whole group down. The panic is recovered by
// the engine's termination handler, which notifies links and watchers.
func (s *state) shutdownSupervisor(reason sysmsg.Reason) {
	s.shutdownAll()
	panic(sysmsg.Exit{
		Who:      pid.ExtractPID(s.supervisor.Self()),
		Reason:   reason,
		Relation: sysmsg.Linked,
	})
}

func (s *state) handleExit(msg sysmsg.Exit) bool {
	who, ok := msg.Who.(pid.PID)
	if !ok {
		return true
	}
	id, dead, found := s.registry.id(who)
	if dead || !found {
		return true
	}
	spec := s.specs.get(id)
	s.deadAndUnlink(who)
	delete(s.groupRefs, id)

	switch msg.Reason.Type {
	case sysmsg.Kill:
		// terminated by us as part of a strategy or shutdown
		return true
	case sysmsg.Normal:
		if spec.Restart == RestartPermanent {
			s.applyStrategy(id)
			return true
		}
		return s.checkAutoShutdown(spec)
	default:
		// Panic, SupMaxRestart: abnormal exits
		if spec.Restart == RestartPermanent || spec.Restart == RestartTransient {
			s.applyStrategy(id)
			return true
		}
		return s.checkAutoShutdown(spec)
	}
}

func (s *state) applyStrategy(failed string) {
	switch s.options.Strategy {
	case OneForAllStrategy:
		s.restartBatch(s.specs.order, failed)
	case RestForOneStrategy:
		s.restartBatch(s.specs.from(failed), failed)
	default:
		s.respawn(failed)
	}
}

// restartBatch terminates the still-alive children among ids in reverse
// declaration order, then respawns, in declaration order, the failed child
// plus every child that was alive.
func (s *state) restartBatch(ids []string, failed string) {
	respawnSet := map[string]bool{failed: true}
	for i := len(ids) - 1; i >= 0; i-- {
		id := ids[i]
		if id == failed {
			continue
		}
		if p, ok := s.registry.alivePID(id); ok {
			respawnSet[id] = true
			s.shutdown(id, p)
		}
	}
	for _, id := range ids {
		if respawnSet[id] {
			s.respawn(id)
		}
	}
}

// checkAutoShutdown is consulted after a child exit that did not lead to a
// restart. It reports whether the supervisor should keep running.
func (s *state) checkAutoShutdown(spec ChildSpec) bool {
	switch s.options.AutoShutdown {
	case AnySignificant:
		if spec.Significant {
			s.shutdownAll()
			return false
		}
	case AllSignificant:
		if spec.Significant && !s.anySignificantAlive() {
			s.shutdownAll()
			return false
		}
	}
	return true
}

func (s *state) anySignificantAlive() bool {
	for _, id := range s.specs.order {
		if !s.specs.get(id).Significant {
			continue
		}
		if _, ok := s.registry.alivePID(id); ok {
			return true
		}
	}
	return false
}
