// Package agent defines the agent interface and implements agents which
// drive warehouse environments without learning
package agent

import (
	"github.com/samuelfneumann/gowarehouse/timestep"
	"gonum.org/v1/gonum/mat"
)

// Agent selects actions in an environment and observes the timesteps
// those actions lead to
type Agent interface {
	Policy

	// ObserveFirst records the first timestep in an episode
	ObserveFirst(timestep.TimeStep) error

	// Observe records that an action lead to some timestep
	Observe(action mat.Vector, nextObs timestep.TimeStep) error
}

// Policy represents a policy that an agent can have.
//
// Policies determine how agents select actions. Actions are
// 1-dimensional vectors holding a discrete action.
type Policy interface {
	SelectAction(t timestep.TimeStep) *mat.VecDense
}
