package trackers

import (
	"fmt"

	ts "github.com/samuelfneumann/gowarehouse/timestep"
)

// Deliveries tracks and saves the number of deliveries made in each
// episode of an experiment. Deliveries are read from the registered
// environment when an episode ends.
type Deliveries struct {
	env        Snapshotter
	deliveries []int
	filename   string
}

// NewDeliveries returns a new Deliveries tracker of env which will save
// its data at the specified location filename
func NewDeliveries(filename string, env Snapshotter) *Deliveries {
	return &Deliveries{env: env, filename: filename}
}

// Track caches the number of deliveries made if t is the last timestep
// in an episode
func (d *Deliveries) Track(t ts.TimeStep) {
	if t.Last() {
		d.deliveries = append(d.deliveries, d.env.Snapshot().Deliveries)
	}
}

// Counts returns the number of deliveries in all finished episodes
func (d *Deliveries) Counts() []int {
	return append([]int(nil), d.deliveries...)
}

// Save saves the data tracked by the Deliveries Tracker to disk
func (d *Deliveries) Save() error {
	if err := save(d.filename, d.deliveries); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}
