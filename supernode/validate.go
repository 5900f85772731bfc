package supernode

import "github.com/jannikbecher/erlang-red/node"

// Recognized token values on supervisor node configs.
const (
	kindDynamic = "dynamic"

	strategyOneForOne       = "one_for_one"
	strategyRestForOne      = "rest_for_one"
	strategySimpleOneForOne = "simple_one_for_one"

	autoShutdownNever = "never"

	scopeFlow  = "flow"
	scopeGroup = "group"
)

// Rejection reasons surfaced through the status sink as
// "unsupported: <reason>". These strings are part of the UI contract.
const (
	ReasonAutoShutdown     = "auto shutdown"
	ReasonDynamicKind      = "dynamic supervisor type"
	ReasonSimpleOneToOne   = "simple one-to-one"
	ReasonScopeFlow        = "scope flow"
	ReasonScopeGroup       = "scope group"
	ReasonScopeUnknown     = "unknown"
	ReasonNestedSupervisor = "supervisor of supervisor not supported"
	ReasonRestartAction    = "restart action"
)

// validateConfig checks the policy knobs first and the scope shape second.
// The first violation found wins; later ones are never surfaced.
func validateConfig(cfg *node.Config) (reason string, ok bool) {
	switch cfg.AutoShutdown {
	case "", autoShutdownNever:
	default:
		return ReasonAutoShutdown, false
	}
	if cfg.SupervisorKind == kindDynamic {
		return ReasonDynamicKind, false
	}
	if cfg.Strategy == strategySimpleOneForOne {
		return ReasonSimpleOneToOne, false
	}
	if _, isList := cfg.ScopeIDs(); !isList {
		switch cfg.Scope {
		case scopeFlow:
			return ReasonScopeFlow, false
		case scopeGroup:
			return ReasonScopeGroup, false
		default:
			return ReasonScopeUnknown, false
		}
	}
	return "", true
}
