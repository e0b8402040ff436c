package environment

import (
	"testing"

	"github.com/samuelfneumann/gowarehouse/timestep"
	"gonum.org/v1/gonum/mat"
)

func TestStepLimit(t *testing.T) {
	limit := NewStepLimit(5)

	for i := 0; i < 5; i++ {
		step := timestep.New(timestep.Mid, 0, 1, nil, i)
		if limit.End(&step) {
			t.Errorf("step %v should not end episode with limit 5", i)
		}
		if step.Last() {
			t.Errorf("step %v should not be last", i)
		}
	}

	step := timestep.New(timestep.Mid, 0, 1, nil, 5)
	if !limit.End(&step) {
		t.Error("step 5 should end episode with limit 5")
	}
	if !step.Last() || step.EndType() != timestep.Timeout {
		t.Errorf("step should be last with timeout, have %v", step)
	}
}

func TestFunctionEnder(t *testing.T) {
	count := 0
	ender := NewFunctionEnder(func(*timestep.TimeStep) bool {
		return count >= 2
	}, timestep.TerminalStateReached)

	step := timestep.New(timestep.Mid, 0, 1, nil, 1)
	if ender.End(&step) {
		t.Error("function ender ended early")
	}

	count = 2
	if !ender.End(&step) {
		t.Error("function ender should end")
	}
	if step.EndType() != timestep.TerminalStateReached {
		t.Errorf("end type \n\twant(%v) \n\thave(%v)",
			timestep.TerminalStateReached, step.EndType())
	}
}

func TestCategoricalStarter(t *testing.T) {
	bounds := []int{3, 7}
	s := NewCategoricalStarter(bounds, 42)
	other := NewCategoricalStarter(bounds, 42)

	for i := 0; i < 100; i++ {
		start := s.Start()
		if start.Len() != len(bounds) {
			t.Fatalf("start length \n\twant(%v) \n\thave(%v)", len(bounds),
				start.Len())
		}
		for j, b := range bounds {
			if v := start.AtVec(j); v < 0 || v >= float64(b) {
				t.Errorf("dimension %v sampled %v outside [0, %v)", j, v, b)
			}
		}

		if !mat.Equal(start, other.Start()) {
			t.Error("starters with equal seeds should sample equal states")
		}
	}
}

func TestSingleStart(t *testing.T) {
	s := NewSingleStart([]float64{14, 4})
	first := s.Start()
	first.SetVec(0, 0)

	if got := s.Start().AtVec(0); got != 14 {
		t.Errorf("start should not alias internal state, have x = %v", got)
	}
}

func TestSpecContains(t *testing.T) {
	spec := NewSpec(
		mat.NewVecDense(2, nil),
		Observation,
		mat.NewVecDense(2, []float64{0, 0}),
		mat.NewVecDense(2, []float64{1, 1}),
		Continuous,
	)

	if !spec.Contains(mat.NewVecDense(2, []float64{0, 1})) {
		t.Error("spec should contain its bounds")
	}
	if spec.Contains(mat.NewVecDense(2, []float64{0, 1.5})) {
		t.Error("spec should not contain out of bound vector")
	}
	if spec.Contains(mat.NewVecDense(3, nil)) {
		t.Error("spec should not contain vector of wrong length")
	}
}

func TestNewSpecPanicsOnShapeMismatch(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("newSpec should panic on mismatched bounds")
		}
	}()

	NewSpec(mat.NewVecDense(2, nil), Action, mat.NewVecDense(1, nil),
		mat.NewVecDense(2, nil), Discrete)
}
