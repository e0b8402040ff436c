package experiment_test

import (
	"path/filepath"
	"testing"

	"github.com/samuelfneumann/gowarehouse/environment/envconfig"
	"github.com/samuelfneumann/gowarehouse/experiment"
	"github.com/samuelfneumann/gowarehouse/experiment/trackers"
	"gonum.org/v1/gonum/floats"
)

func TestOnlinePlanner(t *testing.T) {
	dir := t.TempDir()
	const maxSteps = 300

	c := experiment.Config{
		MaxSteps: maxSteps,
		EnvConf:  envconfig.Default(),
		Driver:   experiment.Planner,
	}
	exp, w, err := c.CreateExp(1)
	if err != nil {
		t.Fatal(err)
	}

	ret := trackers.NewReturn(filepath.Join(dir, "return.bin"))
	length := trackers.NewEpisodeLength(filepath.Join(dir, "length.bin"))
	deliveries := trackers.NewDeliveries(filepath.Join(dir, "deliveries.bin"), w)
	store := trackers.NewStore(filepath.Join(dir, "episodes.db"), "planner", w)
	trajectory, err := trackers.NewTrajectory(
		filepath.Join(dir, "trajectory.jsonl.zst"), w)
	if err != nil {
		t.Fatal(err)
	}
	for _, tracker := range []trackers.Tracker{ret, length, deliveries, store,
		trajectory} {
		exp.Register(tracker)
	}

	if err := exp.Run(); err != nil {
		t.Fatal(err)
	}
	if err := exp.Save(); err != nil {
		t.Fatal(err)
	}

	finished := exp.Episodes()
	if finished < 2 {
		t.Fatalf("planner should finish at least 2 episodes, finished %v",
			finished)
	}

	returns, err := trackers.LoadData(filepath.Join(dir, "return.bin"))
	if err != nil {
		t.Fatal(err)
	}
	lengths, err := trackers.LoadCounts(filepath.Join(dir, "length.bin"))
	if err != nil {
		t.Fatal(err)
	}
	counts, err := trackers.LoadCounts(filepath.Join(dir, "deliveries.bin"))
	if err != nil {
		t.Fatal(err)
	}
	records, err := trackers.LoadEpisodes(filepath.Join(dir, "episodes.db"),
		"planner")
	if err != nil {
		t.Fatal(err)
	}

	for name, n := range map[string]int{
		"returns":    len(returns),
		"lengths":    len(lengths),
		"deliveries": len(counts),
		"records":    len(records),
	} {
		if n != finished {
			t.Errorf("%v \n\twant(%v episodes) \n\thave(%v)", name, finished, n)
		}
	}

	total := 0
	for i, r := range records {
		total += r.Steps
		if r.Deliveries != 3 || counts[i] != 3 {
			t.Errorf("episode %v deliveries \n\twant(3) \n\thave(%v, %v)", i,
				r.Deliveries, counts[i])
		}
		if r.End != "TerminalStateReached" {
			t.Errorf("episode %v end \n\twant(TerminalStateReached) "+
				"\n\thave(%v)", i, r.End)
		}
		if r.Steps != lengths[i] || r.Return != returns[i] {
			t.Errorf("episode %v record %+v does not match tracked length %v "+
				"and return %v", i, r, lengths[i], returns[i])
		}
	}
	if !floats.Equal(returns, ret.Returns()) {
		t.Errorf("saved returns \n\twant(%v) \n\thave(%v)", ret.Returns(),
			returns)
	}

	started := finished
	if total < maxSteps {
		started++
	}
	frames, err := trackers.ReadTrajectory(
		filepath.Join(dir, "trajectory.jsonl.zst"))
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) != maxSteps+started {
		t.Errorf("frames \n\twant(%v) \n\thave(%v)", maxSteps+started,
			len(frames))
	}
	if first := frames[0]; first.Episode != 0 || first.Step != 0 ||
		first.Drone.X != 14 || first.Drone.Y != 4 {
		t.Errorf("first frame \n\twant(episode 0, step 0 at (14, 4)) "+
			"\n\thave(%+v)", first)
	}
	if last := frames[len(frames)-1]; last.Episode != started-1 {
		t.Errorf("last frame episode \n\twant(%v) \n\thave(%v)", started-1,
			last.Episode)
	}
}

func TestOnlineSequenceTimeout(t *testing.T) {
	c := experiment.Config{
		MaxSteps: 50,
		EnvConf:  envconfig.Default(),
		Driver:   experiment.Sequence,
		Actions:  "L",
	}
	c.EnvConf.StepLimit = 20

	exp, w, err := c.CreateExp(1)
	if err != nil {
		t.Fatal(err)
	}
	store := trackers.NewStore(filepath.Join(t.TempDir(), "episodes.db"),
		"sequence", w)
	length := trackers.NewEpisodeLength(filepath.Join(t.TempDir(), "len.bin"))
	exp.Register(store)
	exp.Register(trackers.Register(length, w))

	if err := exp.Run(); err != nil {
		t.Fatal(err)
	}

	records := store.Records()
	if len(records) != 2 {
		t.Fatalf("episodes \n\twant(2) \n\thave(%v)", len(records))
	}
	for _, r := range records {
		if r.Steps != 20 || r.End != "Timeout" || r.Deliveries != 0 {
			t.Errorf("record \n\twant(20 steps, Timeout, 0 deliveries) "+
				"\n\thave(%+v)", r)
		}
	}
	if l := length.Lengths(); len(l) != 2 || l[0] != 20 {
		t.Errorf("registered lengths \n\twant([20 20]) \n\thave(%v)", l)
	}
}

func TestOnlineRandom(t *testing.T) {
	c := experiment.Config{
		MaxSteps: 100,
		EnvConf:  envconfig.Default(),
		Driver:   experiment.Random,
	}

	exp, _, err := c.CreateExp(3)
	if err != nil {
		t.Fatal(err)
	}
	ended, err := exp.RunEpisode()
	if err != nil {
		t.Fatal(err)
	}
	if !ended {
		t.Error("an episode limit of 200 steps should exhaust 100 steps")
	}
}

func TestCreateExpErrors(t *testing.T) {
	c := experiment.Config{
		MaxSteps: 10,
		EnvConf:  envconfig.Default(),
		Driver:   "greedy",
	}
	if _, _, err := c.CreateExp(1); err == nil {
		t.Error("unknown drivers should not create experiments")
	}

	c.Driver = experiment.Sequence
	c.Actions = "LQ"
	if _, _, err := c.CreateExp(1); err == nil {
		t.Error("invalid action sequences should not create experiments")
	}
}
