package supernode

import (
	"context"

	"github.com/looplab/fsm"
	"go.uber.org/zap"
)

// Lifecycle states of a supervisor node.
const (
	stateUnconfigured = "unconfigured"
	stateValidating   = "validating"
	stateRejected     = "rejected"
	stateSelecting    = "selecting"
	stateBuilding     = "building"
	stateSpinningUp   = "spinning_up"
	stateSupervising  = "supervising"
	stateRestarting   = "restarting"
	stateStopped      = "stopped"
)

const (
	eventValidate  = "validate"
	eventReject    = "reject"
	eventSelect    = "select"
	eventBuild     = "build"
	eventSpinUp    = "spin_up"
	eventSupervise = "supervise"
	eventRestart   = "restart"
	eventStop      = "stop"
)

func newLifecycle() *fsm.FSM {
	return fsm.NewFSM(
		stateUnconfigured,
		fsm.Events{
			{Name: eventValidate, Src: []string{stateUnconfigured}, Dst: stateValidating},
			{Name: eventReject, Src: []string{stateValidating, stateSelecting}, Dst: stateRejected},
			{Name: eventSelect, Src: []string{stateValidating}, Dst: stateSelecting},
			{Name: eventBuild, Src: []string{stateSelecting}, Dst: stateBuilding},
			{Name: eventSpinUp, Src: []string{stateBuilding, stateRestarting}, Dst: stateSpinningUp},
			{Name: eventSupervise, Src: []string{stateSpinningUp}, Dst: stateSupervising},
			{Name: eventRestart, Src: []string{stateSupervising}, Dst: stateRestarting},
			{Name: eventStop, Src: []string{
				stateUnconfigured, stateValidating, stateRejected, stateSelecting,
				stateBuilding, stateSpinningUp, stateSupervising, stateRestarting,
			}, Dst: stateStopped},
		},
		fsm.Callbacks{},
	)
}

func (s *Supervisor) transition(event string) {
	// transitions are advisory; a refused one means an out-of-order
	// lifecycle notice, which is logged and otherwise ignored
	if err := s.machine.Event(context.Background(), event); err != nil {
		s.log.Debug("lifecycle transition refused",
			zap.String("event", event), zap.Error(err))
	}
}

// LifecycleState returns the supervisor's current lifecycle state, for
// inspection and tests.
func (s *Supervisor) LifecycleState() string {
	return s.machine.Current()
}
