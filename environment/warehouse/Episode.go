package warehouse

import (
	"fmt"
	"io"
	"log"
	"math"
)

// Rewards are the reward values paid out by an Episode
type Rewards struct {
	Step           float64 // Paid on every step
	Collision      float64 // Paid when moving into a blocked cell
	Shaping        float64 // Paid when moving closer to the current target
	Pickup         float64
	RejectedPickup float64 // Paid when reaching a pickup with a full slot
	EntryBonus     float64 // First entry bonus of each carry
	EntryDecrement float64 // Entry bonus decay per step in delivery area
	Delivery       float64
	Exit           float64 // Paid once per delivery for leaving the area
	Barrier        float64 // Paid once per delivery for each barrier

	// InsideMaxPenalty bounds the penalty for lingering in the delivery
	// area without an item after a delivery. The penalty starts at 0
	// and grows by 1 per step up to this bound, so a bound of 0 disables
	// the penalty entirely.
	InsideMaxPenalty float64
}

// DefaultRewards returns the default reward values
func DefaultRewards() Rewards {
	return Rewards{
		Step:             -1.0,
		Collision:        -5.0,
		Shaping:          1.0,
		Pickup:           10.0,
		RejectedPickup:   -1.0,
		EntryBonus:       5.0,
		EntryDecrement:   2.5,
		Delivery:         20.0,
		Exit:             10.0,
		Barrier:          5.0,
		InsideMaxPenalty: 0.0,
	}
}

// Layout describes the item types in play and the landmarks used to
// shape rewards
type Layout struct {
	Items []ItemType

	// RowThreshold is the first row of the delivery area. Cells with
	// y >= RowThreshold are inside the delivery area.
	RowThreshold int

	// Entrance is the shaping target when moving between the storage
	// and delivery areas
	Entrance Position

	// Barriers are the columns the drone must cross after a delivery to
	// earn barrier bonuses. Barrier i is crossed when x > Barriers[i].
	Barriers []int

	RespawnDelay    int
	ObstacleSensing bool

	// ObservationDims is the declared observation length. If 0, it is
	// derived from the item types and obstacle sensing.
	ObservationDims int
}

// DefaultLayout returns the layout of the baseline warehouse map for
// the argument item types
func DefaultLayout(items ...ItemType) Layout {
	return Layout{
		Items:           items,
		RowThreshold:    10,
		Entrance:        Position{10, 12},
		Barriers:        []int{6, 9},
		RespawnDelay:    DefaultRespawnDelay,
		ObstacleSensing: true,
	}
}

// Outcome records everything that happened on a single step
type Outcome struct {
	Action   Action
	From, To Position
	Collided bool
	Shaped   bool

	PickedUp       ItemType // Empty if nothing was picked up
	RejectedPickup bool     // Reached a pickup while already holding

	EntryBonus float64

	Delivered ItemType // Empty if nothing was delivered
	WrongZone bool     // Held item not accepted by the zone at the drone

	ExitBonus      bool
	BarrierBonuses int
	InsidePenalty  float64

	Respawned []ItemType
	Reward    float64
}

// Episode is the warehouse state machine. Each call to Advance moves
// the drone, resolves pickups and deliveries, pays shaped rewards, and
// ticks item respawn timers. An Episode does not decide when it ends;
// that is left to the Task, which calls finish.
type Episode struct {
	grid    GridOracle
	layout  Layout
	rewards Rewards
	logger  *log.Logger

	drone      *Drone
	respawner  *Respawner
	progress   Progress
	steps      int
	deliveries int
	terminated bool
	last       Outcome
}

// NewEpisode returns a new Episode on grid. Every item type in the
// layout must have both a pickup location and a delivery zone on the
// grid. Reset must be called before the first call to Advance.
func NewEpisode(grid GridOracle, layout Layout, rewards Rewards) (*Episode,
	error) {
	if err := validateLayout(grid, layout); err != nil {
		return nil, fmt.Errorf("newEpisode: %w", err)
	}

	return &Episode{
		grid:       grid,
		layout:     layout,
		rewards:    rewards,
		logger:     log.New(io.Discard, "", 0),
		respawner:  NewRespawner(layout.Items, layout.RespawnDelay),
		progress:   newProgress(len(layout.Barriers), rewards.EntryBonus),
		terminated: true,
	}, nil
}

func validateLayout(grid GridOracle, layout Layout) error {
	if len(layout.Items) == 0 {
		return fmt.Errorf("%w: no item types", ErrConfiguration)
	}

	seen := make(map[ItemType]bool, len(layout.Items))
	for _, t := range layout.Items {
		if t == "" {
			return fmt.Errorf("%w: empty item type", ErrConfiguration)
		}
		if seen[t] {
			return fmt.Errorf("%w: duplicate item type %v", ErrConfiguration, t)
		}
		seen[t] = true

		if _, ok := grid.Pickup(t); !ok {
			return fmt.Errorf("%w: item type %v has no pickup location",
				ErrConfiguration, t)
		}
		if _, ok := grid.Zone(t); !ok {
			return fmt.Errorf("%w: item type %v has no delivery zone",
				ErrConfiguration, t)
		}
	}

	if !grid.InBounds(layout.Entrance.X, layout.Entrance.Y) {
		return fmt.Errorf("%w: entrance %v out of bounds", ErrConfiguration,
			layout.Entrance)
	}
	if layout.RespawnDelay < 0 {
		return fmt.Errorf("%w: negative respawn delay %v", ErrConfiguration,
			layout.RespawnDelay)
	}
	return nil
}

// SetLogger sets the logger which episode events are written to
func (e *Episode) SetLogger(l *log.Logger) {
	e.logger = l
}

// Reset starts a new episode with the drone at start
func (e *Episode) Reset(start Position) error {
	if e.grid.Blocked(start.X, start.Y) {
		return fmt.Errorf("reset: %w: start %v is blocked", ErrConfiguration,
			start)
	}

	e.drone = newDrone(start)
	e.respawner.Reset()
	e.progress = newProgress(len(e.layout.Barriers), e.rewards.EntryBonus)
	e.steps = 0
	e.deliveries = 0
	e.terminated = false
	e.last = Outcome{}

	return nil
}

// Advance takes a single step in the episode with action a
func (e *Episode) Advance(a Action) (Outcome, error) {
	if e.terminated {
		return Outcome{}, fmt.Errorf("advance: %w", ErrTerminated)
	}
	if a < 0 || int(a) >= Actions {
		return Outcome{}, fmt.Errorf("advance: %w: %v", ErrInvalidAction, a)
	}

	e.steps++
	out := Outcome{Action: a, From: e.drone.Position}
	reward := e.rewards.Step

	proposed := e.drone.Add(a.Delta())
	if e.grid.Blocked(proposed.X, proposed.Y) {
		out.Collided = true
		reward += e.rewards.Collision
	} else {
		e.drone.Position = proposed
	}
	out.To = e.drone.Position

	// The shaping target depends on the held slot before this step's
	// pickup or delivery
	if x, y, ok := e.target(out.From); ok {
		if out.To.Manhattan(x, y) < out.From.Manhattan(x, y) {
			out.Shaped = true
			reward += e.rewards.Shaping
		}
	}

	reward += e.pickup(&out)
	reward += e.enter(&out)
	reward += e.deliver(&out)
	reward += e.leave(&out)

	out.Respawned = e.respawner.Tick()
	for _, t := range out.Respawned {
		e.logger.Printf("item %v respawned", t)
	}

	out.Reward = reward
	e.last = out
	return out, nil
}

// target returns the shaping target for the current phase of the
// delivery cycle. The nearest pickup is measured from the argument
// cell.
func (e *Episode) target(from Position) (x, y float64, ok bool) {
	_, holding := e.drone.Held()

	switch {
	case !holding && !e.inside():
		best := math.Inf(1)
		for _, t := range e.layout.Items {
			if !e.respawner.Live(t) {
				continue
			}
			p, _ := e.grid.Pickup(t)
			if d := from.Manhattan(float64(p.X), float64(p.Y)); d < best {
				best = d
				x, y, ok = float64(p.X), float64(p.Y), true
			}
		}
		return x, y, ok

	case holding && e.inside():
		held, _ := e.drone.Held()
		z, _ := e.grid.Zone(held)
		x, y = z.Center()
		return x, y, true

	default:
		// Holding outside the delivery area, or empty inside it
		return float64(e.layout.Entrance.X), float64(e.layout.Entrance.Y), true
	}
}

// pickup collects a live item at the drone's cell
func (e *Episode) pickup(out *Outcome) float64 {
	for _, t := range e.layout.Items {
		if !e.respawner.Live(t) {
			continue
		}
		if p, _ := e.grid.Pickup(t); p != e.drone.Position {
			continue
		}

		e.respawner.Consume(t)
		if e.drone.pickup(t) {
			out.PickedUp = t
			e.progress = newProgress(len(e.layout.Barriers),
				e.rewards.EntryBonus)
			e.logger.Printf("picked up item %v at %v", t, e.drone.Position)
			return e.rewards.Pickup
		}

		held, _ := e.drone.Held()
		out.RejectedPickup = true
		e.logger.Printf("already holding item %v, dropped item %v", held, t)
		return e.rewards.RejectedPickup
	}
	return 0
}

// enter pays the decaying entry bonus while the drone carries an item
// in the delivery area
func (e *Episode) enter(out *Outcome) float64 {
	if _, holding := e.drone.Held(); !holding || !e.inside() {
		return 0
	}
	if e.progress.EntryBonusRemaining <= 0 {
		return 0
	}

	bonus := e.progress.EntryBonusRemaining
	e.progress.EnteredDeliveryArea = true
	e.progress.EntryBonusRemaining = math.Max(0,
		bonus-e.rewards.EntryDecrement)

	out.EntryBonus = bonus
	e.logger.Printf("entry bonus: +%v", bonus)
	return bonus
}

// deliver drops the held item if the drone is in the item's zone and
// the zone accepts it. Standing in a zone which does not accept the
// held item is logged but not penalised.
func (e *Episode) deliver(out *Outcome) float64 {
	held, holding := e.drone.Held()
	if !holding {
		return 0
	}

	x, y := e.drone.X, e.drone.Y
	if z, ok := e.grid.Zone(held); ok && z.Contains(x, y) {
		if e.drone.deliver(z) {
			e.deliveries++
			e.progress.EnteredDeliveryArea = false
			out.Delivered = held
			e.logger.Printf("delivered item %v, delivery count: %v", held,
				e.deliveries)
			return e.rewards.Delivery
		}
		out.WrongZone = true
		e.logger.Printf("zone at %v accepts %v, not %v", e.drone.Position,
			z.Accepts, held)
		return 0
	}

	for _, z := range zonesAt(e.grid, e.layout.Items, x, y) {
		if z.Accepts != held {
			out.WrongZone = true
			e.logger.Printf("zone at %v accepts %v, not %v",
				e.drone.Position, z.Accepts, held)
			break
		}
	}
	return 0
}

// leave pays the one-shot bonuses for leaving the delivery area and
// crossing barriers after a delivery, and charges the penalty for
// lingering in the delivery area without an item
func (e *Episode) leave(out *Outcome) float64 {
	if _, holding := e.drone.Held(); holding || e.deliveries == 0 {
		return 0
	}

	var reward float64
	if !e.inside() {
		if !e.progress.ExitedDeliveryArea {
			e.progress.ExitedDeliveryArea = true
			out.ExitBonus = true
			reward += e.rewards.Exit
			e.logger.Printf("exit bonus: +%v", e.rewards.Exit)
		}
	} else {
		penalty := e.progress.InsidePenalty
		out.InsidePenalty = penalty
		reward -= penalty
		if penalty < e.rewards.InsideMaxPenalty {
			e.progress.InsidePenalty = math.Min(penalty+1,
				e.rewards.InsideMaxPenalty)
		}
	}

	for i, col := range e.layout.Barriers {
		if e.drone.X > col && !e.progress.ExitedBarrier[i] {
			e.progress.ExitedBarrier[i] = true
			out.BarrierBonuses++
			reward += e.rewards.Barrier
			e.logger.Printf("barrier %v bonus: +%v", i+1, e.rewards.Barrier)
		}
	}
	return reward
}

func (e *Episode) inside() bool {
	return e.drone.Y >= e.layout.RowThreshold
}

// finish ends the episode
func (e *Episode) finish() {
	e.terminated = true
}

// Terminated returns whether the episode has ended
func (e *Episode) Terminated() bool {
	return e.terminated
}

// Steps returns the number of steps taken in the episode
func (e *Episode) Steps() int {
	return e.steps
}

// Deliveries returns the number of deliveries made in the episode
func (e *Episode) Deliveries() int {
	return e.deliveries
}

// Drone returns a copy of the drone's state
func (e *Episode) Drone() Drone {
	if e.drone == nil {
		return Drone{}
	}
	return *e.drone
}

// Live returns whether an item of type t is waiting at its pickup
func (e *Episode) Live(t ItemType) bool {
	return e.respawner.Live(t)
}

// Progress returns a copy of the current progress flags
func (e *Episode) Progress() Progress {
	p := e.progress
	p.ExitedBarrier = append([]bool(nil), e.progress.ExitedBarrier...)
	return p
}

// LastOutcome returns the outcome of the most recent step
func (e *Episode) LastOutcome() Outcome {
	return e.last
}

// Layout returns the layout of the episode
func (e *Episode) Layout() Layout {
	return e.layout
}
