package warehouse

import (
	"errors"
	"testing"
)

// baselineStart is the drone's starting cell on the test map
var baselineStart = Position{14, 4}

func newTestEpisode(t *testing.T, rewards Rewards,
	items ...ItemType) *Episode {
	t.Helper()

	e, err := NewEpisode(newTestMap(t), DefaultLayout(items...), rewards)
	if err != nil {
		t.Fatalf("could not create episode: %v", err)
	}
	if err := e.Reset(baselineStart); err != nil {
		t.Fatalf("could not reset episode: %v", err)
	}
	return e
}

// advance takes n steps with action a and returns the outcome of each
func advance(t *testing.T, e *Episode, a Action, n int) []Outcome {
	t.Helper()

	outcomes := make([]Outcome, n)
	for i := range outcomes {
		out, err := e.Advance(a)
		if err != nil {
			t.Fatalf("step %v: %v", e.Steps(), err)
		}
		outcomes[i] = out
	}
	return outcomes
}

// deliverA moves the drone from the baseline start to item A's pickup
// and then into item A's zone, returning the outcomes of every step
func deliverA(t *testing.T, e *Episode) []Outcome {
	t.Helper()

	var outcomes []Outcome
	outcomes = append(outcomes, advance(t, e, Left, 11)...)
	outcomes = append(outcomes, advance(t, e, Right, 5)...)
	outcomes = append(outcomes, advance(t, e, Down, 10)...)
	return outcomes
}

func TestEpisodeDelivery(t *testing.T) {
	e := newTestEpisode(t, DefaultRewards(), "A")
	outcomes := deliverA(t, e)

	// Each step of the route approaches the current target, so the
	// shaping reward cancels the step cost except where events occur
	want := make([]float64, len(outcomes))
	want[10] = 10.0 // Pickup at (3, 4)
	want[21] = 5.0  // Entering the delivery area at (8, 10)
	want[22] = 2.5  // Decayed entry bonus at (8, 11)
	want[25] = 25.0 // Delivery at (8, 14) and crossing barrier 1

	for i, out := range outcomes {
		if out.Reward != want[i] {
			t.Errorf("step %v reward \n\twant(%v) \n\thave(%v) \n\t%+v", i+1,
				want[i], out.Reward, out)
		}
	}

	pickup := outcomes[10]
	if pickup.PickedUp != "A" || pickup.To != (Position{3, 4}) {
		t.Errorf("pickup outcome \n\twant(A at (3, 4)) \n\thave(%+v)", pickup)
	}

	delivery := outcomes[25]
	if delivery.Delivered != "A" || delivery.BarrierBonuses != 1 {
		t.Errorf("delivery outcome \n\twant(A with 1 barrier bonus) "+
			"\n\thave(%+v)", delivery)
	}
	if e.Deliveries() != 1 {
		t.Errorf("deliveries \n\twant(1) \n\thave(%v)", e.Deliveries())
	}
	if _, holding := e.Drone().Held(); holding {
		t.Error("drone should be empty after a delivery")
	}
	if e.Steps() != 26 {
		t.Errorf("steps \n\twant(26) \n\thave(%v)", e.Steps())
	}
}

func TestDroneCopyHeld(t *testing.T) {
	e := newTestEpisode(t, DefaultRewards(), "A")
	advance(t, e, Left, 11)

	if held, ok := e.Drone().Held(); !ok || held != "A" {
		t.Errorf("copied drone \n\twant(A, true) \n\thave(%q, %v)", held, ok)
	}

	// Copies do not alias the episode's drone
	d := e.Drone()
	d.held, d.holding = "", false
	if _, ok := e.Drone().Held(); !ok {
		t.Error("modifying a copy should not empty the episode's drone")
	}
}

func TestEpisodeHeldBetweenPickupAndDelivery(t *testing.T) {
	e := newTestEpisode(t, DefaultRewards(), "A")

	advance(t, e, Left, 11)
	for i := 0; i < 15; i++ {
		d := e.Drone()
		if held, ok := d.Held(); !ok || held != "A" {
			t.Fatalf("step %v: drone should hold A, holds %q", e.Steps(), held)
		}

		a := Right
		if i >= 5 {
			a = Down
		}
		if _, err := e.Advance(a); err != nil {
			t.Fatal(err)
		}
	}
}

func TestEpisodeCollision(t *testing.T) {
	e := newTestEpisode(t, DefaultRewards(), "A")
	if err := e.Reset(Position{0, 0}); err != nil {
		t.Fatal(err)
	}

	for _, a := range []Action{Left, Up} {
		out, err := e.Advance(a)
		if err != nil {
			t.Fatal(err)
		}
		if !out.Collided {
			t.Errorf("%v from (0, 0) should collide", a)
		}
		if out.To != (Position{0, 0}) || e.Drone().Position != out.To {
			t.Errorf("collision should not move the drone, moved to %v",
				out.To)
		}
		if out.Reward != -6.0 {
			t.Errorf("collision reward \n\twant(-6) \n\thave(%v)", out.Reward)
		}
	}

	// Walls block like the grid boundary
	if err := e.Reset(Position{1, 8}); err != nil {
		t.Fatal(err)
	}
	if out, _ := e.Advance(Down); !out.Collided {
		t.Error("moving into a wall should collide")
	}
}

func TestEpisodeRejectedPickup(t *testing.T) {
	e := newTestEpisode(t, DefaultRewards(), "A", "B")

	advance(t, e, Left, 11)
	out := advance(t, e, Left, 1)[0]

	if !out.RejectedPickup || out.PickedUp != "" {
		t.Errorf("pickup with a full slot should be rejected, have %+v", out)
	}
	if out.Reward != -2.0 {
		t.Errorf("rejected pickup reward \n\twant(-2) \n\thave(%v)", out.Reward)
	}
	d := e.Drone()
	if held, _ := d.Held(); held != "A" {
		t.Errorf("held item \n\twant(A) \n\thave(%v)", held)
	}
	if e.Live("B") {
		t.Error("rejected item should be consumed")
	}
}

func TestEpisodeRespawn(t *testing.T) {
	e := newTestEpisode(t, DefaultRewards(), "A")
	advance(t, e, Left, 11)
	pickupStep := e.Steps()

	outcomes := advance(t, e, Right, DefaultRespawnDelay-1)
	for i, out := range outcomes[:len(outcomes)-1] {
		if len(out.Respawned) != 0 {
			t.Errorf("item respawned early at step %v", pickupStep+i+1)
		}
	}

	last := outcomes[len(outcomes)-1]
	if len(last.Respawned) != 1 || last.Respawned[0] != "A" {
		t.Errorf("respawn at step %v \n\twant([A]) \n\thave(%v)", e.Steps(),
			last.Respawned)
	}
	if !e.Live("A") {
		t.Errorf("item should be available from step %v",
			pickupStep+DefaultRespawnDelay)
	}
}

func TestEpisodeExitAndBarrierBonuses(t *testing.T) {
	e := newTestEpisode(t, DefaultRewards(), "A")
	deliverA(t, e)

	outcomes := advance(t, e, Up, 6)
	want := []float64{0, 0, -1, -1, 10, 0}
	for i, out := range outcomes {
		if out.Reward != want[i] {
			t.Errorf("step %v reward \n\twant(%v) \n\thave(%v)", i, want[i],
				out.Reward)
		}
	}
	if !outcomes[4].ExitBonus {
		t.Error("leaving the delivery area should pay the exit bonus")
	}
	if !e.Progress().ExitedDeliveryArea {
		t.Error("exit flag should be set")
	}

	outcomes = advance(t, e, Right, 3)
	want = []float64{-1, 4, -1}
	for i, out := range outcomes {
		if out.Reward != want[i] {
			t.Errorf("barrier step %v reward \n\twant(%v) \n\thave(%v)", i,
				want[i], out.Reward)
		}
	}
	p := e.Progress()
	if !p.ExitedBarrier[0] || !p.ExitedBarrier[1] {
		t.Errorf("both barriers should be crossed, have %v", p.ExitedBarrier)
	}
}

func TestEpisodeInsidePenalty(t *testing.T) {
	tests := []struct {
		name      string
		max       float64
		penalties []float64
	}{
		{"default", 0, []float64{0, 0, 0, 0}},
		{"growing", 2, []float64{0, 1, 2, 2}},
	}

	for _, test := range tests {
		rewards := DefaultRewards()
		rewards.InsideMaxPenalty = test.max

		e := newTestEpisode(t, rewards, "A")
		delivery := deliverA(t, e)[25]

		outcomes := []Outcome{delivery}
		outcomes = append(outcomes, advance(t, e, Down, 1)...)
		outcomes = append(outcomes, advance(t, e, Left, 2)...)

		for i, out := range outcomes {
			if out.InsidePenalty != test.penalties[i] {
				t.Errorf("%v: step %v penalty \n\twant(%v) \n\thave(%v)",
					test.name, i, test.penalties[i], out.InsidePenalty)
			}
		}
		for i, out := range outcomes[1:] {
			if want := -1 - test.penalties[i+1]; out.Reward != want {
				t.Errorf("%v: step %v reward \n\twant(%v) \n\thave(%v)",
					test.name, i+1, want, out.Reward)
			}
		}
	}
}

func TestEpisodeEntryBonusResetsOnPickup(t *testing.T) {
	e := newTestEpisode(t, DefaultRewards(), "A")
	deliverA(t, e)

	p := e.Progress()
	if p.EntryBonusRemaining != 0 {
		t.Fatalf("entry bonus should be spent, have %v", p.EntryBonusRemaining)
	}

	// Return to the pickup; item A respawned long ago
	advance(t, e, Up, 10)
	advance(t, e, Left, 5)
	if d := e.Drone(); d.Position != (Position{3, 4}) {
		t.Fatalf("drone should be at the pickup, is at %v", d.Position)
	}

	if p := e.Progress(); p.EntryBonusRemaining != 5.0 {
		t.Errorf("entry bonus \n\twant(5) \n\thave(%v)", p.EntryBonusRemaining)
	}
}

func TestEpisodeWrongZone(t *testing.T) {
	e := newTestEpisode(t, DefaultRewards(), "A", "B")

	if err := e.Reset(Position{2, 3}); err != nil {
		t.Fatal(err)
	}
	if out := advance(t, e, Down, 1)[0]; out.PickedUp != "B" {
		t.Fatalf("drone should pick up B, have %+v", out)
	}

	advance(t, e, Right, 6)
	outcomes := advance(t, e, Down, 10)
	last := outcomes[len(outcomes)-1]

	if !last.WrongZone || last.Delivered != "" {
		t.Errorf("B in A's zone should be a wrong zone, have %+v", last)
	}
	if e.Deliveries() != 0 {
		t.Errorf("deliveries \n\twant(0) \n\thave(%v)", e.Deliveries())
	}
}

func TestEpisodeErrors(t *testing.T) {
	e, err := NewEpisode(newTestMap(t), DefaultLayout("A"), DefaultRewards())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := e.Advance(Left); !errors.Is(err, ErrTerminated) {
		t.Errorf("advance before reset \n\twant(%v) \n\thave(%v)",
			ErrTerminated, err)
	}

	if err := e.Reset(Position{0, 9}); !errors.Is(err, ErrConfiguration) {
		t.Errorf("reset on a wall \n\twant(%v) \n\thave(%v)", ErrConfiguration,
			err)
	}

	if err := e.Reset(baselineStart); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Advance(Action(4)); !errors.Is(err, ErrInvalidAction) {
		t.Errorf("invalid action \n\twant(%v) \n\thave(%v)", ErrInvalidAction,
			err)
	}
	if e.Steps() != 0 || e.Drone().Position != baselineStart {
		t.Error("invalid action should not change the episode")
	}

	e.finish()
	if _, err := e.Advance(Left); !errors.Is(err, ErrTerminated) {
		t.Errorf("advance after finish \n\twant(%v) \n\thave(%v)",
			ErrTerminated, err)
	}
}

func TestNewEpisodeErrors(t *testing.T) {
	m := newTestMap(t)

	layouts := map[string]Layout{
		"no items":        DefaultLayout(),
		"duplicate items": DefaultLayout("A", "A"),
		"unknown item":    DefaultLayout("C"),
	}
	bad := DefaultLayout("A")
	bad.Entrance = Position{20, 20}
	layouts["entrance out of bounds"] = bad

	for name, layout := range layouts {
		if _, err := NewEpisode(m, layout, DefaultRewards()); !errors.Is(err,
			ErrConfiguration) {
			t.Errorf("%v: want configuration error, have %v", name, err)
		}
	}
}
