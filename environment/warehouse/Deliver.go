package warehouse

import (
	"fmt"

	env "github.com/samuelfneumann/gowarehouse/environment"
	ts "github.com/samuelfneumann/gowarehouse/timestep"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// DefaultMaxDeliveries is the number of deliveries which ends an episode
const DefaultMaxDeliveries int = 3

// Deliver implements the task of delivering items to their zones.
//
// Rewards are computed by the registered Episode on each step and are
// described by the Rewards struct: a step cost, a collision penalty,
// shaping rewards for approaching the current target, pickup and
// delivery rewards, a decaying bonus for entering the delivery area
// with an item, and one-shot bonuses for leaving the delivery area and
// crossing barrier columns after a delivery.
//
// Episodes end when the number of deliveries reaches a quota, or when
// a step limit is reached, whichever comes first. Reaching the quota
// ends the episode with timestep.TerminalStateReached and the step
// limit with timestep.Timeout.
type Deliver struct {
	env.Starter
	rewards       Rewards
	maxDeliveries int

	stepLimitEnder *env.StepLimit
	quotaEnder     *env.FunctionEnder

	episode    *Episode
	registered bool
}

// NewDeliver returns a new Deliver task with starting positions drawn
// from s. Start states are (x, y) vectors.
func NewDeliver(s env.Starter, rewards Rewards, stepLimit,
	maxDeliveries int) (*Deliver, error) {
	if stepLimit <= 0 {
		return nil, fmt.Errorf("newDeliver: %w: step limit %v must be "+
			"positive", ErrConfiguration, stepLimit)
	}
	if maxDeliveries <= 0 {
		return nil, fmt.Errorf("newDeliver: %w: delivery quota %v must be "+
			"positive", ErrConfiguration, maxDeliveries)
	}

	d := &Deliver{
		Starter:        s,
		rewards:        rewards,
		maxDeliveries:  maxDeliveries,
		stepLimitEnder: env.NewStepLimit(stepLimit),
	}
	d.quotaEnder = env.NewFunctionEnder(func(*ts.TimeStep) bool {
		return d.registered && d.episode.Deliveries() >= d.maxDeliveries
	}, ts.TerminalStateReached)

	return d, nil
}

// Register registers the Episode whose outcomes the task rewards
func (d *Deliver) Register(e *Episode) {
	d.episode = e
	d.registered = true
}

// Rewards returns the reward values of the task
func (d *Deliver) Rewards() Rewards {
	return d.rewards
}

// MaxDeliveries returns the delivery quota of an episode
func (d *Deliver) MaxDeliveries() int {
	return d.maxDeliveries
}

// StepLimit returns the maximum number of steps in an episode
func (d *Deliver) StepLimit() int {
	return d.stepLimitEnder.Limit()
}

// GetReward returns the reward of the registered Episode's most recent
// transition. The state, action, and next state are all determined by
// the Episode and are ignored.
func (d *Deliver) GetReward(_, _, _ mat.Vector) float64 {
	if !d.registered {
		panic("getReward: no episode registered")
	}
	return d.episode.LastOutcome().Reward
}

// End determines if a timestep is the last timestep in the episode.
// If so, it changes the TimeStep's StepType to timestep.Last and
// adjusts the TimeStep's EndType to the appropriate ending type.
func (d *Deliver) End(t *ts.TimeStep) bool {
	if ended := d.quotaEnder.End(t); ended {
		return true
	}
	if ended := d.stepLimitEnder.End(t); ended {
		return true
	}
	return false
}

// AtGoal returns whether the delivery quota has been met. The argument
// state is ignored since the delivery count is not observed.
func (d *Deliver) AtGoal(mat.Matrix) bool {
	return d.registered && d.episode.Deliveries() >= d.maxDeliveries
}

// Min returns the minimum attainable reward over all timesteps
func (d *Deliver) Min() float64 {
	r := d.rewards
	return r.Step + floats.Min([]float64{r.Collision, 0}) +
		floats.Min([]float64{r.RejectedPickup, 0}) - r.InsideMaxPenalty
}

// Max returns the maximum attainable reward over all timesteps
func (d *Deliver) Max() float64 {
	r := d.rewards
	barriers := 0
	if d.registered {
		barriers = len(d.episode.Layout().Barriers)
	}

	bonuses := []float64{
		r.Shaping,
		floats.Max([]float64{r.Pickup, r.RejectedPickup}),
		r.EntryBonus,
		r.Delivery,
		r.Exit,
		r.Barrier * float64(barriers),
	}
	total := r.Step
	for _, b := range bonuses {
		if b > 0 {
			total += b
		}
	}
	return total
}

// RewardSpec returns the reward specification of the task
func (d *Deliver) RewardSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{d.Min()})
	upperBound := mat.NewVecDense(1, []float64{d.Max()})

	return env.NewSpec(shape, env.Reward, lowerBound, upperBound,
		env.Continuous)
}

func (d *Deliver) String() string {
	return fmt.Sprintf("Deliver | Quota: %v  |  Step Limit: %v",
		d.maxDeliveries, d.StepLimit())
}

// JitterStart is a Starter which starts the drone at a fixed cell
// offset by a uniformly random amount in [-jitter, jitter] along each
// axis. Offsets landing on blocked cells are resampled; if no open cell
// is found, the fixed cell is used.
type JitterStart struct {
	base    Position
	jitter  int
	grid    GridOracle
	offsets *env.CategoricalStarter
}

// maxStartAttempts bounds the number of resamples of a blocked start
const maxStartAttempts int = 100

// NewJitterStart returns a new JitterStart around base. The base cell
// must not be blocked.
func NewJitterStart(base Position, jitter int, grid GridOracle,
	seed uint64) (*JitterStart, error) {
	if grid.Blocked(base.X, base.Y) {
		return nil, fmt.Errorf("newJitterStart: %w: start %v is blocked",
			ErrConfiguration, base)
	}
	if jitter < 0 {
		return nil, fmt.Errorf("newJitterStart: %w: negative jitter %v",
			ErrConfiguration, jitter)
	}

	width := 2*jitter + 1
	return &JitterStart{
		base:    base,
		jitter:  jitter,
		grid:    grid,
		offsets: env.NewCategoricalStarter([]int{width, width}, seed),
	}, nil
}

// Start returns a starting (x, y) vector
func (j *JitterStart) Start() *mat.VecDense {
	start := j.base
	if j.jitter > 0 {
		for i := 0; i < maxStartAttempts; i++ {
			offset := j.offsets.Start()
			p := Position{
				X: j.base.X + int(offset.AtVec(0)) - j.jitter,
				Y: j.base.Y + int(offset.AtVec(1)) - j.jitter,
			}
			if !j.grid.Blocked(p.X, p.Y) {
				start = p
				break
			}
		}
	}

	return mat.NewVecDense(2, []float64{float64(start.X), float64(start.Y)})
}
