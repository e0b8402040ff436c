package agent

import (
	"fmt"
	"strings"

	"github.com/samuelfneumann/gowarehouse/environment/warehouse"
	"github.com/samuelfneumann/gowarehouse/timestep"
	"gonum.org/v1/gonum/mat"
)

// Sequence replays a fixed sequence of actions, restarting it at the
// beginning of every episode. Once the sequence is exhausted it
// starts again from its first action.
type Sequence struct {
	actions []warehouse.Action
	next    int
}

// NewSequence returns a new Sequence agent
func NewSequence(actions []warehouse.Action) (*Sequence, error) {
	if len(actions) == 0 {
		return nil, fmt.Errorf("newSequence: empty action sequence")
	}
	return &Sequence{actions: append([]warehouse.Action(nil), actions...)}, nil
}

// ParseSequence parses a sequence of actions written as the letters
// L, R, U, and D. Whitespace is ignored.
func ParseSequence(s string) ([]warehouse.Action, error) {
	var actions []warehouse.Action
	for _, c := range strings.ToUpper(s) {
		switch c {
		case 'L':
			actions = append(actions, warehouse.Left)
		case 'R':
			actions = append(actions, warehouse.Right)
		case 'U':
			actions = append(actions, warehouse.Up)
		case 'D':
			actions = append(actions, warehouse.Down)
		case ' ', '\t', '\n', ',':
		default:
			return nil, fmt.Errorf("parseSequence: unknown action %q", c)
		}
	}
	return actions, nil
}

// SelectAction returns the next action in the sequence
func (s *Sequence) SelectAction(timestep.TimeStep) *mat.VecDense {
	a := s.actions[s.next%len(s.actions)]
	s.next++
	return mat.NewVecDense(1, []float64{float64(a)})
}

// ObserveFirst restarts the sequence
func (s *Sequence) ObserveFirst(timestep.TimeStep) error {
	s.next = 0
	return nil
}

// Observe does nothing
func (s *Sequence) Observe(mat.Vector, timestep.TimeStep) error { return nil }
