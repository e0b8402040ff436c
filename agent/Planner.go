package agent

import (
	"fmt"

	"github.com/samuelfneumann/gowarehouse/environment/warehouse"
	"github.com/samuelfneumann/gowarehouse/timestep"
	"gonum.org/v1/gonum/mat"
)

// Planner follows shortest paths on a grid. While empty, it heads for
// the pickup location nearest by path length; while holding an item, it
// heads for the nearest cell of that item's delivery zone. Pickups are
// not observed to be live or consumed, so a Planner waiting on a
// consumed item steps off its pickup and back until the item respawns.
//
// Paths are found by breadth-first search with actions expanded in
// Left, Right, Up, Down order, so Planners are deterministic.
type Planner struct {
	grid    warehouse.GridOracle
	encoder *warehouse.Encoder
}

// NewPlanner returns a new Planner which decodes observations using
// encoder and plans on grid
func NewPlanner(grid warehouse.GridOracle,
	encoder *warehouse.Encoder) *Planner {
	return &Planner{grid, encoder}
}

// SelectAction selects the first action on a shortest path to the
// current target. Observations which cannot be decoded panic.
func (p *Planner) SelectAction(t timestep.TimeStep) *mat.VecDense {
	f, err := p.encoder.Decode(t.Observation)
	if err != nil {
		panic(fmt.Sprintf("selectAction: %v", err))
	}

	a := p.plan(f)
	return mat.NewVecDense(1, []float64{float64(a)})
}

// plan returns the next action given decoded features
func (p *Planner) plan(f warehouse.Features) warehouse.Action {
	var goal func(warehouse.Position) bool
	if f.Holding {
		zone, _ := p.grid.Zone(f.Held)
		goal = func(c warehouse.Position) bool { return zone.Contains(c.X, c.Y) }
	} else {
		goal = func(c warehouse.Position) bool {
			for _, pickup := range f.Pickups {
				if c == pickup {
					return true
				}
			}
			return false
		}
	}

	if a, ok := p.firstStep(f.Drone, goal); ok {
		return a
	}
	return p.anyOpen(f.Drone)
}

// firstStep returns the first action on a shortest path from start to
// any cell satisfying goal
func (p *Planner) firstStep(start warehouse.Position,
	goal func(warehouse.Position) bool) (warehouse.Action, bool) {
	first := map[warehouse.Position]warehouse.Action{}
	visited := map[warehouse.Position]bool{start: true}
	queue := []warehouse.Position{start}

	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]

		for a := warehouse.Left; int(a) < warehouse.Actions; a++ {
			next := c.Add(a.Delta())
			if visited[next] || p.grid.Blocked(next.X, next.Y) {
				continue
			}
			visited[next] = true

			if c == start {
				first[next] = a
			} else {
				first[next] = first[c]
			}

			if goal(next) {
				return first[next], true
			}
			queue = append(queue, next)
		}
	}
	return warehouse.Left, false
}

// anyOpen returns the first action which does not collide
func (p *Planner) anyOpen(c warehouse.Position) warehouse.Action {
	for a := warehouse.Left; int(a) < warehouse.Actions; a++ {
		next := c.Add(a.Delta())
		if !p.grid.Blocked(next.X, next.Y) {
			return a
		}
	}
	return warehouse.Left
}

// ObserveFirst does nothing
func (p *Planner) ObserveFirst(timestep.TimeStep) error { return nil }

// Observe does nothing
func (p *Planner) Observe(mat.Vector, timestep.TimeStep) error { return nil }
