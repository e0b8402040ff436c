// Package warehouse implements a grid warehouse in which a drone picks
// up items at fixed pickup locations and delivers them to delivery
// zones which only accept a single item type.
package warehouse

import (
	"fmt"
	"io"
	"log"

	env "github.com/samuelfneumann/gowarehouse/environment"
	ts "github.com/samuelfneumann/gowarehouse/timestep"
	"gonum.org/v1/gonum/mat"
)

// Warehouse implements the drone delivery environment.
//
// Actions are 1-dimensional and discrete in (0, 1, 2, 3):
//
//	Action	Meaning
//	  0		Move left	(-1, 0)
//	  1		Move right	(1, 0)
//	  2		Move up		(0, -1)
//	  3		Move down	(0, 1)
//
// Actions outside of this set return ErrInvalidAction and leave the
// environment untouched. Moving into a wall or off the grid leaves the
// drone in place and incurs a collision penalty.
//
// Observations are described by Encoder. Rewards and episode endings
// are determined by the Deliver task.
//
// Warehouse implements the environment.Environment interface.
type Warehouse struct {
	*Deliver
	grid    GridOracle
	episode *Episode
	encoder *Encoder
	logger  *log.Logger

	discount    float64
	currentStep ts.TimeStep
}

// New returns a new Warehouse on grid with the argument task and
// layout, as well as the first timestep of the first episode
func New(t *Deliver, grid GridOracle, layout Layout,
	discount float64) (*Warehouse, ts.TimeStep, error) {
	episode, err := NewEpisode(grid, layout, t.Rewards())
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("new: %w", err)
	}

	dims := layout.ObservationDims
	if dims == 0 {
		dims = ObservationDims(len(layout.Items), layout.ObstacleSensing)
	}
	encoder, err := NewDeclaredEncoder(grid, layout.Items,
		layout.ObstacleSensing, dims)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("new: %w", err)
	}

	t.Register(episode)

	w := &Warehouse{
		Deliver:  t,
		grid:     grid,
		episode:  episode,
		encoder:  encoder,
		logger:   log.New(io.Discard, "", 0),
		discount: discount,
	}

	step, err := w.Reset()
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("new: %w", err)
	}
	return w, step, nil
}

// SetLogger sets the logger which environment events are written to.
// By default events are discarded.
func (w *Warehouse) SetLogger(l *log.Logger) {
	w.logger = l
	w.episode.SetLogger(l)
}

// Reset resets the environment, begins a new episode, and returns
// the first timestep of the new episode
func (w *Warehouse) Reset() (ts.TimeStep, error) {
	start := w.Start()
	if start.Len() != 2 {
		return ts.TimeStep{}, fmt.Errorf("reset: %w: start states must be "+
			"(x, y), have length %v", ErrConfiguration, start.Len())
	}

	pos := Position{int(start.AtVec(0)), int(start.AtVec(1))}
	if err := w.episode.Reset(pos); err != nil {
		return ts.TimeStep{}, err
	}

	w.logger.Printf("new episode at %v", pos)

	obs := w.observe()
	step := ts.New(ts.First, 0, w.discount, obs, 0)
	w.currentStep = step

	return step, nil
}

// Step takes one environmental step given action a and returns the next
// timestep as a timestep.TimeStep and a bool indicating whether or not
// the episode has ended
func (w *Warehouse) Step(a *mat.VecDense) (ts.TimeStep, bool, error) {
	if w.episode.Terminated() {
		return ts.TimeStep{}, true, fmt.Errorf("step: %w", ErrTerminated)
	}
	if a.Len() != 1 {
		return ts.TimeStep{}, false, fmt.Errorf("step: %w: actions must be "+
			"1-dimensional", ErrInvalidAction)
	}
	action, err := ParseAction(a.AtVec(0))
	if err != nil {
		return ts.TimeStep{}, false, fmt.Errorf("step: %w", err)
	}

	if _, err := w.episode.Advance(action); err != nil {
		return ts.TimeStep{}, w.episode.Terminated(),
			fmt.Errorf("step: %w", err)
	}

	state := w.currentStep.Observation
	nextState := w.observe()
	reward := w.GetReward(state, a, nextState)

	nextStep := ts.New(ts.Mid, reward, w.discount, nextState,
		w.currentStep.Number+1)

	if last := w.End(&nextStep); last {
		w.episode.finish()
		if nextStep.EndType() == ts.TerminalStateReached {
			w.logger.Printf("%v deliveries achieved, ending episode",
				w.episode.Deliveries())
		} else {
			w.logger.Printf("step limit %v reached, ending episode",
				w.StepLimit())
		}
	}

	w.currentStep = nextStep
	return nextStep, nextStep.Last(), nil
}

// observe returns the current observation
func (w *Warehouse) observe() *mat.VecDense {
	return w.encoder.Encode(w.episode.drone)
}

// CurrentTimeStep returns the current timestep of the environment
func (w *Warehouse) CurrentTimeStep() ts.TimeStep {
	return w.currentStep
}

// Outcome returns the outcome of the most recent step, describing the
// events which produced its reward
func (w *Warehouse) Outcome() Outcome {
	return w.episode.LastOutcome()
}

// Episode returns the underlying episode state machine
func (w *Warehouse) Episode() *Episode {
	return w.episode
}

// Encoder returns the observation encoder
func (w *Warehouse) Encoder() *Encoder {
	return w.encoder
}

// Grid returns the grid the environment is played on
func (w *Warehouse) Grid() GridOracle {
	return w.grid
}

// ActionSpec returns the action specification of the environment
func (w *Warehouse) ActionSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{0})
	upperBound := mat.NewVecDense(1, []float64{float64(Actions - 1)})

	return env.NewSpec(shape, env.Action, lowerBound, upperBound,
		env.Discrete)
}

// ObservationSpec returns the observation specification of the
// environment
func (w *Warehouse) ObservationSpec() env.Spec {
	return w.encoder.Spec()
}

// DiscountSpec returns the discounting specification of the environment
func (w *Warehouse) DiscountSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	bound := mat.NewVecDense(1, []float64{w.discount})

	return env.NewSpec(shape, env.Discount, bound, bound, env.Continuous)
}

// Snapshot is the post-step state of the environment handed to
// presentation layers
type Snapshot struct {
	Width, Height int
	Walls         []Position
	Drone         Position
	Held          ItemType
	Holding       bool
	Pickups       map[ItemType]Position // Items waiting to be picked up
	Zones         map[ItemType]Zone
	Step          int
	Deliveries    int
	Reward        float64
	Last          bool
}

// Snapshot returns the current state of the environment
func (w *Warehouse) Snapshot() Snapshot {
	width, height := w.grid.Dims()
	drone := w.episode.Drone()
	held, holding := drone.Held()

	s := Snapshot{
		Width:      width,
		Height:     height,
		Walls:      walls(w.grid),
		Drone:      drone.Position,
		Held:       held,
		Holding:    holding,
		Pickups:    make(map[ItemType]Position),
		Zones:      make(map[ItemType]Zone),
		Step:       w.currentStep.Number,
		Deliveries: w.episode.Deliveries(),
		Reward:     w.currentStep.Reward,
		Last:       w.currentStep.Last(),
	}
	for _, t := range w.episode.Layout().Items {
		if w.episode.Live(t) {
			s.Pickups[t], _ = w.grid.Pickup(t)
		}
		s.Zones[t], _ = w.grid.Zone(t)
	}
	return s
}

// String implements the fmt.Stringer interface
func (w *Warehouse) String() string {
	return fmt.Sprintf("Warehouse | %v  |  Step: %v  |  Deliveries: %v  |  %v",
		w.episode.drone, w.episode.Steps(), w.episode.Deliveries(), w.Deliver)
}
