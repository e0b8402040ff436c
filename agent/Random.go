package agent

import (
	"fmt"

	"golang.org/x/exp/rand"

	"github.com/samuelfneumann/gowarehouse/environment"
	"github.com/samuelfneumann/gowarehouse/timestep"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Random selects actions uniformly at random
type Random struct {
	dist distuv.Categorical
}

// NewRandom returns a new Random agent for an environment with the
// argument action specification. Actions must be 1-dimensional and
// discrete.
func NewRandom(spec environment.Spec, seed uint64) (*Random, error) {
	if spec.Shape.Len() != 1 {
		return nil, fmt.Errorf("newRandom: actions must be 1-dimensional")
	}
	if spec.Cardinality != environment.Discrete {
		return nil, fmt.Errorf("newRandom: actions must be discrete")
	}

	// Uniform weights over (0, 1, ... upper bound)
	actions := int(spec.UpperBound.AtVec(0)) + 1
	weights := make([]float64, actions)
	for i := range weights {
		weights[i] = 1.0 / float64(actions)
	}

	source := rand.NewSource(seed)
	return &Random{distuv.NewCategorical(weights, source)}, nil
}

// SelectAction selects an action uniformly at random
func (r *Random) SelectAction(timestep.TimeStep) *mat.VecDense {
	return mat.NewVecDense(1, []float64{r.dist.Rand()})
}

// ObserveFirst does nothing
func (r *Random) ObserveFirst(timestep.TimeStep) error { return nil }

// Observe does nothing
func (r *Random) Observe(mat.Vector, timestep.TimeStep) error { return nil }
