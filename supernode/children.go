package supernode

import (
	"fmt"

	"github.com/jannikbecher/erlang-red/node"
	"github.com/jannikbecher/erlang-red/supervisor"
)

// partition splits candidates into the nodes claimed by scope and the rest.
// mine follows the order of scope; rest keeps the candidates' relative
// order. Scope ids absent from candidates are skipped.
func partition(scope []string, candidates []*node.Config) (mine, rest []*node.Config) {
	byID := make(map[string]*node.Config, len(candidates))
	for _, cfg := range candidates {
		byID[cfg.ID] = cfg
	}
	claimed := make(map[string]bool, len(scope))
	for _, id := range scope {
		if cfg, found := byID[id]; found && !claimed[id] {
			mine = append(mine, cfg)
			claimed[id] = true
		}
	}
	for _, cfg := range candidates {
		if !claimed[cfg.ID] {
			rest = append(rest, cfg)
		}
	}
	return mine, rest
}

func childID(sup, child *node.Config) string {
	return fmt.Sprintf("child_%s_%s", sup.ID, child.ID)
}

// The per-child policy defaults are declared once on the supervisor node
// and applied uniformly to every child it owns.

func childRestart(sup *node.Config) int32 {
	switch sup.ChildRestart {
	case "temporary":
		return supervisor.RestartTemporary
	case "transient":
		return supervisor.RestartTransient
	default:
		return supervisor.RestartPermanent
	}
}

func childShutdown(sup *node.Config) int32 {
	switch sup.ChildShutdown {
	case "infinite":
		return supervisor.ShutdownInfinity
	case "timeout":
		if sup.ChildShutdownTimeout > 0 {
			return int32(sup.ChildShutdownTimeout)
		}
		return supervisor.ShutdownKill
	default:
		// brutal_kill and anything unrecognized
		return supervisor.ShutdownKill
	}
}

func groupStrategy(sup *node.Config) supervisor.Strategy {
	switch sup.Strategy {
	case strategyOneForOne:
		return supervisor.OneForOneStrategy
	case strategyRestForOne:
		return supervisor.RestForOneStrategy
	default:
		return supervisor.OneForAllStrategy
	}
}

func groupIntensity(sup *node.Config) (maxRestarts, period int) {
	maxRestarts, period = sup.Intensity, sup.Period
	if maxRestarts <= 0 {
		maxRestarts = 1
	}
	if period < 1 {
		period = 5
	}
	return maxRestarts, period
}

// buildChildSpecs derives one ephemeral child spec per owned node, in scope
// order. Specs are recomputed on every spin-up and never persisted.
func buildChildSpecs(sup *node.Config, scope string, children []*node.Config, factory BehaviorFactory, deps node.Deps) []supervisor.ChildSpec {
	specs := make([]supervisor.ChildSpec, 0, len(children))
	for _, child := range children {
		id := childID(sup, child)
		runner := node.Runner(child, scope, factory(child), deps)
		worker := supervisor.NewWorkerSpec(id, runner).
			SetRestart(childRestart(sup)).
			SetShutdown(childShutdown(sup))
		if sup.ChildType == "supervisor" {
			// declared supervisor role: the child runs inside its own
			// single-member managed group
			specs = append(specs, supervisor.NewSupervisorSpec(id, func() (*supervisor.Ref, error) {
				return supervisor.StartManagedGroup(
					supervisor.NewOptions(supervisor.OneForOneStrategy, 1, 5).SetName(id),
					worker,
				)
			}).SetRestart(childRestart(sup)))
			continue
		}
		specs = append(specs, worker)
	}
	return specs
}
