package supervisor

import (
	"fmt"

	"github.com/jannikbecher/erlang-red/actor"
)

type ChildType int32

const (
	TypeWorker ChildType = iota
	TypeSupervisor
)

// Restart policies.
const (
	// RestartPermanent children are always restarted.
	RestartPermanent int32 = iota
	// RestartTransient children are restarted only after an abnormal exit.
	RestartTransient
	// RestartTemporary children are never restarted.
	RestartTemporary
)

// Shutdown values.
const (
	// ShutdownInfinity lets the child take as long as it needs.
	ShutdownInfinity int32 = iota - 1 // -1
	// ShutdownKill terminates the child immediately, no grace.
	ShutdownKill // 0
	// values >= 1 are a grace period in milliseconds
)

// StartSpec describes how to start a worker child.
type StartSpec struct {
	ActorFunc actor.Func
	Args      []interface{}
}

// StartLinkFunc starts a nested supervisor child and returns its group ref.
type StartLinkFunc func() (*Ref, error)

// ChildSpec describes one child of a managed group. Worker children carry a
// Start spec; supervisor children carry a StartLink instead.
type ChildSpec struct {
	ID        string
	Start     StartSpec
	StartLink StartLinkFunc
	Restart   int32
	Shutdown  int32
	ChildType ChildType
	// Significant children participate in the group's auto-shutdown
	// decision, see Options.AutoShutdown.
	Significant bool
}

func NewWorkerSpec(id string, fn actor.Func, args ...interface{}) ChildSpec {
	return ChildSpec{
		ID:        id,
		Start:     StartSpec{ActorFunc: fn, Args: args},
		Restart:   RestartTransient,
		Shutdown:  ShutdownKill,
		ChildType: TypeWorker,
	}
}

func NewSupervisorSpec(id string, startLink StartLinkFunc) ChildSpec {
	return ChildSpec{
		ID:        id,
		StartLink: startLink,
		Restart:   RestartTransient,
		Shutdown:  ShutdownInfinity,
		ChildType: TypeSupervisor,
	}
}

func (spec ChildSpec) SetRestart(restart int32) ChildSpec {
	spec.Restart = restart
	return spec
}

func (spec ChildSpec) SetShutdown(shutdown int32) ChildSpec {
	spec.Shutdown = shutdown
	return spec
}

func (spec ChildSpec) SetSignificant(significant bool) ChildSpec {
	spec.Significant = significant
	return spec
}

func (spec ChildSpec) validate() error {
	if spec.ID == "" {
		return fmt.Errorf("childspec's id could not be empty")
	} else if spec.Restart != RestartPermanent && spec.Restart != RestartTransient && spec.Restart != RestartTemporary {
		return fmt.Errorf("invalid childspec's restart value: %v, id %s", spec.Restart, spec.ID)
	} else if spec.Shutdown < ShutdownInfinity {
		return fmt.Errorf("invalid childspec's shutdown value: %v, id %s", spec.Shutdown, spec.ID)
	}
	switch spec.ChildType {
	case TypeWorker:
		if spec.Start.ActorFunc == nil {
			return fmt.Errorf("worker childspec's actor func could not be nil, id %s", spec.ID)
		}
	case TypeSupervisor:
		if spec.StartLink == nil {
			return fmt.Errorf("supervisor childspec's StartLink could not be nil, id %s", spec.ID)
		}
	default:
		return fmt.Errorf("invalid child type: %v, id %s", spec.ChildType, spec.ID)
	}
	return nil
}

// specList keeps child specs in declaration order; the order defines the
// start/shutdown sequence and is what rest_for_one reasons about.
type specList struct {
	order []string
	byID  map[string]ChildSpec
}

func specsToList(specs []ChildSpec) (*specList, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("empty childspec list")
	}
	list := &specList{
		order: make([]string, 0, len(specs)),
		byID:  make(map[string]ChildSpec, len(specs)),
	}
	for _, s := range specs {
		if err := s.validate(); err != nil {
			return nil, err
		}
		if _, duplicate := list.byID[s.ID]; duplicate {
			return nil, fmt.Errorf("duplicate childspec id %s", s.ID)
		}
		list.order = append(list.order, s.ID)
		list.byID[s.ID] = s
	}
	return list, nil
}

func (l *specList) get(id string) ChildSpec {
	return l.byID[id]
}

// from returns the ids of the given child and every child declared after it.
func (l *specList) from(id string) []string {
	for i, candidate := range l.order {
		if candidate == id {
			return l.order[i:]
		}
	}
	return nil
}
