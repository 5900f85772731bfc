package supervisor

import (
	"time"

	"github.com/jannikbecher/erlang-red/internal/pid"
)

type registryRepo map[pid.PID]string

// registry tracks which pid currently represents which child, which children
// have been declared dead, and the restart timestamps used to enforce the
// restart intensity window.
type registry struct {
	aliveActors registryRepo
	deadActors  registryRepo
	options     *Options
	// timeTracer contains restart times as unix time
	timeTracer map[string][]int64
}

func newRegistry(ops *Options) *registry {
	return &registry{
		aliveActors: make(registryRepo),
		deadActors:  make(registryRepo),
		options:     ops,
		timeTracer:  make(map[string][]int64),
	}
}

// id returns the child id associated with a pid. dead is true if the child
// has already been declared dead by the supervisor.
func (r *registry) id(p pid.PID) (id string, dead, found bool) {
	id, found = r.aliveActors[p]
	if !found {
		id, found = r.deadActors[p]
		dead = true
	}
	return
}

// alivePID returns the pid associated with the id if the child is alive.
func (r *registry) alivePID(id string) (pid.PID, bool) {
	for p, _id := range r.aliveActors {
		if _id == id {
			return p, true
		}
	}
	return nil, false
}

// put saves the child's pid, recording a restart timestamp when the child
// has been spawned before.
func (r *registry) put(p pid.PID, id string) {
	r.aliveActors[p] = id
	restarts, ok := r.timeTracer[id]
	if !ok {
		// first spawn; a start is not a restart
		r.timeTracer[id] = []int64{}
		return
	}
	r.timeTracer[id] = append(restarts, time.Now().Unix())
}

// dead declares a child dead by its pid.
func (r *registry) dead(p pid.PID) {
	id, found := r.aliveActors[p]
	if !found {
		return
	}
	delete(r.aliveActors, p)
	r.deadActors[p] = id
}

// reachedMaxRestarts reports whether re-spawning the child now would exceed
// the allowed restarts within the period. The about-to-happen restart is
// counted too, hence the +1.
func (r *registry) reachedMaxRestarts(id string) bool {
	restarts, ok := r.timeTracer[id]
	if !ok {
		return false
	}
	var inPeriod []int64
	periodStart := time.Now().Add(time.Duration(-r.options.Period) * time.Second).Unix()
	for _, restartTime := range restarts {
		if restartTime >= periodStart {
			inPeriod = append(inPeriod, restartTime)
		}
	}
	if len(inPeriod)+1 > r.options.MaxRestarts {
		return true
	}
	// drop expired timestamps
	r.timeTracer[id] = inPeriod
	return false
}
