package environment

import (
	"github.com/samuelfneumann/gowarehouse/timestep"
)

// FunctionEnder ends an episode whenever a function of the current
// TimeStep returns true. The function is free to consult state outside
// of the TimeStep, such as counters kept by the environment.
type FunctionEnder struct {
	end     func(*timestep.TimeStep) bool
	endType timestep.EndType
}

// NewFunctionEnder returns a new FunctionEnder which ends episodes with
// end type endType when f returns true.
func NewFunctionEnder(f func(*timestep.TimeStep) bool,
	endType timestep.EndType) *FunctionEnder {
	return &FunctionEnder{f, endType}
}

// End determines whether or not the current episode should be ended,
// returning a boolean to indicate episode temrination. If the episode
// should be ended, End() will modify the timestep so that its StepType
// field is timestep.Last and its EndType is the appropriate ending
// type.
func (f *FunctionEnder) End(t *timestep.TimeStep) bool {
	if f.end(t) {
		t.StepType = timestep.Last
		t.SetEnd(f.endType)
		return true
	}
	return false
}
