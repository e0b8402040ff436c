package warehouse

import (
	"fmt"
	"math"
)

// Action is a discrete movement of the drone by one cell
type Action int

const (
	Left Action = iota
	Right
	Up
	Down

	// Actions is the number of legal actions
	Actions int = 4
)

// deltas maps each Action to its grid displacement
var deltas = [...]Position{
	Left:  {-1, 0},
	Right: {1, 0},
	Up:    {0, -1},
	Down:  {0, 1},
}

// Delta returns the grid displacement of the action
func (a Action) Delta() Position {
	return deltas[a]
}

func (a Action) String() string {
	switch a {
	case Left:
		return "Left"
	case Right:
		return "Right"
	case Up:
		return "Up"
	case Down:
		return "Down"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// ParseAction converts a raw action value into an Action. Non-integral
// values and values outside of [0, 3] return ErrInvalidAction.
func ParseAction(v float64) (Action, error) {
	if v != math.Trunc(v) || v < 0 || v >= float64(Actions) {
		return 0, fmt.Errorf("parseAction: %w: %v ∉ {0, 1, 2, 3}",
			ErrInvalidAction, v)
	}
	return Action(v), nil
}

// Drone is the agent's state: its cell on the grid and a single-item
// held slot.
type Drone struct {
	Position
	held    ItemType
	holding bool
}

func newDrone(p Position) *Drone {
	return &Drone{Position: p}
}

// Held returns the held item type and whether an item is held at all
func (d Drone) Held() (ItemType, bool) {
	return d.held, d.holding
}

// pickup places an item of type t in the held slot. If the slot is
// already occupied the drone is unchanged and pickup returns false.
func (d *Drone) pickup(t ItemType) bool {
	if d.holding {
		return false
	}
	d.held, d.holding = t, true
	return true
}

// deliver empties the held slot if z accepts the held item type
func (d *Drone) deliver(z Zone) bool {
	if !d.holding || d.held != z.Accepts {
		return false
	}
	d.held, d.holding = "", false
	return true
}

func (d *Drone) String() string {
	if d.holding {
		return fmt.Sprintf("Drone | At: %v  |  Holding: %v", d.Position, d.held)
	}
	return fmt.Sprintf("Drone | At: %v  |  Holding: nothing", d.Position)
}
