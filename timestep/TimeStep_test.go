package timestep

import (
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestStepTypes(t *testing.T) {
	obs := mat.NewVecDense(2, []float64{0.5, 0.25})

	step := New(First, 0, 1.0, obs, 0)
	if !step.First() || step.Mid() || step.Last() {
		t.Errorf("first step has step type %v", step.StepType)
	}
	if step.EndType() != Unended {
		t.Errorf("first step should be unended, have %v", step.EndType())
	}

	step = New(Mid, -1, 1.0, obs, 1)
	step.StepType = Last
	step.SetEnd(Timeout)
	if !step.Last() {
		t.Error("step should be last")
	}
	if step.EndType() != Timeout {
		t.Errorf("end type \n\twant(%v) \n\thave(%v)", Timeout, step.EndType())
	}
}

func TestString(t *testing.T) {
	step := New(Last, 20, 0.99, nil, 12)
	step.SetEnd(TerminalStateReached)

	str := step.String()
	for _, want := range []string{"Last", "20.00", "12", "TerminalStateReached"} {
		if !strings.Contains(str, want) {
			t.Errorf("string %q should contain %q", str, want)
		}
	}
}
