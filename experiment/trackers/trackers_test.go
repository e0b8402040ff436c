package trackers

import (
	"path/filepath"
	"testing"

	"github.com/samuelfneumann/gowarehouse/environment/warehouse"
	ts "github.com/samuelfneumann/gowarehouse/timestep"
)

// counter is a Snapshotter reporting a fixed number of deliveries
type counter int

func (c counter) Snapshot() warehouse.Snapshot {
	return warehouse.Snapshot{Deliveries: int(c)}
}

// episode returns the timesteps of an episode with the argument
// rewards, ending with the argument end type
func episode(end ts.EndType, rewards ...float64) []ts.TimeStep {
	steps := []ts.TimeStep{ts.New(ts.First, 0, 1, nil, 0)}
	for i, r := range rewards {
		t := ts.Mid
		if i == len(rewards)-1 {
			t = ts.Last
		}
		step := ts.New(t, r, 1, nil, i+1)
		if t == ts.Last {
			step.SetEnd(end)
		}
		steps = append(steps, step)
	}
	return steps
}

func TestReturn(t *testing.T) {
	r := NewReturn(filepath.Join(t.TempDir(), "return.bin"))

	for _, step := range episode(ts.Timeout, -1, -1, 10) {
		r.Track(step)
	}
	// An unfinished episode is dropped when the next one starts
	for _, step := range episode(ts.Timeout, 5, 5, 5)[:2] {
		r.Track(step)
	}
	for _, step := range episode(ts.TerminalStateReached, 20) {
		r.Track(step)
	}

	returns := r.Returns()
	if len(returns) != 2 || returns[0] != 8 || returns[1] != 20 {
		t.Errorf("returns \n\twant([8 20]) \n\thave(%v)", returns)
	}

	if err := r.Save(); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadData(r.filename)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 2 || loaded[0] != 8 {
		t.Errorf("loaded \n\twant([8 20]) \n\thave(%v)", loaded)
	}
}

func TestReturnPanicsOnSkippedStep(t *testing.T) {
	r := NewReturn("")
	steps := episode(ts.Timeout, 1, 1, 1)
	r.Track(steps[0])

	defer func() {
		if recover() == nil {
			t.Error("tracking non-sequential timesteps should panic")
		}
	}()
	r.Track(steps[2])
}

func TestStoreReplacesRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "episodes.db")

	s := NewStore(path, "run", counter(2))
	for _, step := range episode(ts.Timeout, 1, 2) {
		s.Track(step)
	}
	for _, step := range episode(ts.TerminalStateReached, 4) {
		s.Track(step)
	}
	if err := s.Save(); err != nil {
		t.Fatal(err)
	}

	other := NewStore(path, "other", counter(0))
	for _, step := range episode(ts.Timeout, -1) {
		other.Track(step)
	}
	if err := other.Save(); err != nil {
		t.Fatal(err)
	}

	// Saving a run again replaces its rows
	again := NewStore(path, "run", counter(1))
	for _, step := range episode(ts.Timeout, 7) {
		again.Track(step)
	}
	if err := again.Save(); err != nil {
		t.Fatal(err)
	}

	records, err := LoadEpisodes(path, "run")
	if err != nil {
		t.Fatal(err)
	}
	want := EpisodeRecord{Episode: 0, Steps: 1, Return: 7, Deliveries: 1,
		End: "Timeout"}
	if len(records) != 1 || records[0] != want {
		t.Errorf("records \n\twant([%+v]) \n\thave(%+v)", want, records)
	}

	records, err = LoadEpisodes(path, "other")
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].Return != -1 {
		t.Errorf("other run \n\twant(return -1) \n\thave(%+v)", records)
	}
}

func TestDeliveriesAndLengths(t *testing.T) {
	dir := t.TempDir()
	d := NewDeliveries(filepath.Join(dir, "deliveries.bin"), counter(3))
	l := NewEpisodeLength(filepath.Join(dir, "lengths.bin"))

	for _, step := range episode(ts.TerminalStateReached, 1, 1, 1) {
		d.Track(step)
		l.Track(step)
	}
	if err := d.Save(); err != nil {
		t.Fatal(err)
	}
	if err := l.Save(); err != nil {
		t.Fatal(err)
	}

	counts, err := LoadCounts(filepath.Join(dir, "deliveries.bin"))
	if err != nil || len(counts) != 1 || counts[0] != 3 {
		t.Errorf("deliveries \n\twant([3]) \n\thave(%v, %v)", counts, err)
	}
	lengths, err := LoadCounts(filepath.Join(dir, "lengths.bin"))
	if err != nil || len(lengths) != 1 || lengths[0] != 3 {
		t.Errorf("lengths \n\twant([3]) \n\thave(%v, %v)", lengths, err)
	}
}

func TestTrajectorySaveTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.jsonl.zst")
	tr, err := NewTrajectory(path, counter(1))
	if err != nil {
		t.Fatal(err)
	}

	for _, step := range episode(ts.Timeout, 1, 1) {
		tr.Track(step)
	}
	if err := tr.Save(); err != nil {
		t.Fatal(err)
	}
	if err := tr.Save(); err != nil {
		t.Errorf("saving twice should be a no-op, have %v", err)
	}
	tr.Track(ts.New(ts.First, 0, 1, nil, 0))

	frames, err := ReadTrajectory(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) != 3 || frames[2].Deliveries != 1 {
		t.Errorf("frames \n\twant(3 frames with 1 delivery) \n\thave(%+v)",
			frames)
	}
}
