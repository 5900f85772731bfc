package supervisor

import (
	"fmt"

	"github.com/rs/xid"
)

type Strategy int32

const (
	// OneForOneStrategy: if a child process terminates, only that process
	// is restarted.
	OneForOneStrategy Strategy = iota

	// OneForAllStrategy: if a child process terminates, all other child
	// processes are terminated and then all of them (including the
	// terminated one) are restarted.
	OneForAllStrategy

	// RestForOneStrategy: if a child process terminates, the terminated
	// child process and the rest of the children started after it are
	// terminated and restarted.
	RestForOneStrategy
)

// AutoShutdown controls whether the supervisor terminates itself when its
// significant children exit on their own.
type AutoShutdown int32

const (
	// NeverShutdown keeps the supervisor running regardless of child exits.
	NeverShutdown AutoShutdown = iota
	// AnySignificant shuts the supervisor down when any significant child
	// exits without being restarted.
	AnySignificant
	// AllSignificant shuts the supervisor down when the last significant
	// child exits without being restarted.
	AllSignificant
)

const (
	defaultMaxRestarts int = 3
	defaultPeriod      int = 5
)

type Options struct {
	Strategy Strategy
	// MaxRestarts is the restart intensity: how many restarts of the same
	// child are tolerated within Period seconds before the whole group is
	// taken down.
	MaxRestarts  int
	Period       int
	AutoShutdown AutoShutdown
	Name         string
}

func NewOptions(strategy Strategy, maxRestarts, period int) Options {
	return Options{
		Strategy:    strategy,
		MaxRestarts: maxRestarts,
		Period:      period,
		Name:        xid.New().String(),
	}
}

func (opt Options) SetName(name string) Options {
	opt.Name = name
	return opt
}

func (opt Options) SetAutoShutdown(autoShutdown AutoShutdown) Options {
	opt.AutoShutdown = autoShutdown
	return opt
}

func checkOptions(opt *Options) error {
	if opt.Name == "" {
		return fmt.Errorf("invalid supervisor name: %q", opt.Name)
	} else if opt.Strategy < OneForOneStrategy || opt.Strategy > RestForOneStrategy {
		return fmt.Errorf("invalid strategy: %d", opt.Strategy)
	} else if opt.Period < 1 {
		return fmt.Errorf("invalid period: %d", opt.Period)
	} else if opt.MaxRestarts < 0 {
		return fmt.Errorf("invalid max restarts: %d", opt.MaxRestarts)
	} else if opt.AutoShutdown < NeverShutdown || opt.AutoShutdown > AllSignificant {
		return fmt.Errorf("invalid auto shutdown value: %d", opt.AutoShutdown)
	}
	return nil
}
