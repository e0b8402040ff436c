// Package environment outlines the interfaces and structs needed to implement
// concrete environments
package environment

import (
	"github.com/samuelfneumann/gowarehouse/timestep"
	"gonum.org/v1/gonum/mat"
)

// Starter implements a distribution of starting states and samples starting
// states for environments
type Starter interface {
	Start() *mat.VecDense
}

// Ender determines when episodes should be ended. If an episode should
// end, End modifies the argument TimeStep so that its StepType is
// timestep.Last and its EndType records why the episode ended.
type Ender interface {
	End(*timestep.TimeStep) bool
}

// Task implements the reward scheme for taking actions in some environment
// as well as the conditions under which episodes end
type Task interface {
	Starter
	Ender
	GetReward(state, action, nextState mat.Vector) float64
	AtGoal(state mat.Matrix) bool
	RewardSpec() Spec
	Min() float64 // Minimum attainable reward on a single timestep
	Max() float64 // Maximum attainable reward on a single timestep
}

// Environment implements a simualted environment, which includes a Task to
// complete
type Environment interface {
	Task
	Reset() (timestep.TimeStep, error)
	Step(action *mat.VecDense) (timestep.TimeStep, bool, error)
	CurrentTimeStep() timestep.TimeStep
	DiscountSpec() Spec
	ObservationSpec() Spec
	ActionSpec() Spec
}
