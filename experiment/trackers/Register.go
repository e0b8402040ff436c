package trackers

import (
	"github.com/samuelfneumann/gowarehouse/environment"
	"github.com/samuelfneumann/gowarehouse/timestep"
)

// registeredTracker registers an Environment with some Tracker so
// that the Tracker tracks data from the registered Environment only.
// registeredTracker itself is a Tracker.
//
// The Track() and Save() methods of a register call those of the
// embedded Tracker. The only difference is that registeredTracker calls
// the Track() method of the embedded Tracker using the most recent
// TimeStep of the registered Environment, and the argument to
// registeredTracker.Track() is ignored.
//
// This is useful when an experiment steps one environment but data
// should be tracked from another, for example when evaluating a driver
// on a second warehouse alongside the one it acts in.
type registeredTracker struct {
	Tracker
	env environment.Environment
}

// Register registers a new Tracker with an Environment, to track data
// from the registered Environment only. Register returns a copy of the
// argument Tracker that is registered with the argument Environment.
//
// Note: the underlying concrete type of the registered Tracker is
// lost when registering an Environment with a Tracker.
func Register(t Tracker, env environment.Environment) Tracker {
	return &registeredTracker{t, env}
}

// Track calls Track() on the embedded Tracker using the most recent
// TimeStep from the registered Environment.
func (r *registeredTracker) Track(timestep.TimeStep) {
	step := r.env.CurrentTimeStep()
	r.Tracker.Track(step)
}
