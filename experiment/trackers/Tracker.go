// Package trackers implements Trackers, which track and save data in an
// experiment
package trackers

import (
	"encoding/gob"
	"fmt"
	"os"

	"github.com/samuelfneumann/gowarehouse/environment/warehouse"
	ts "github.com/samuelfneumann/gowarehouse/timestep"
)

// Interface Tracker keeps track of experiment data and saves the data
// after the experiment has finished
type Tracker interface {
	Track(t ts.TimeStep)
	Save() error
}

// Snapshotter is an environment which can report its post-step state
type Snapshotter interface {
	Snapshot() warehouse.Snapshot
}

// LoadData loads and returns the data saved by a Return Tracker
func LoadData(filename string) ([]float64, error) {
	var data []float64
	if err := load(filename, &data); err != nil {
		return nil, fmt.Errorf("loadData: %w", err)
	}
	return data, nil
}

// LoadCounts loads and returns the data saved by an EpisodeLength or
// Deliveries Tracker
func LoadCounts(filename string) ([]int, error) {
	var data []int
	if err := load(filename, &data); err != nil {
		return nil, fmt.Errorf("loadCounts: %w", err)
	}
	return data, nil
}

func load(filename string, data interface{}) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("could not open data file: %w", err)
	}
	defer file.Close()

	dec := gob.NewDecoder(file)
	if err := dec.Decode(data); err != nil {
		return fmt.Errorf("could not decode data: %w", err)
	}
	return nil
}

// save gob-encodes data to filename
func save(filename string, data interface{}) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("could not open save file: %w", err)
	}
	defer file.Close()

	en := gob.NewEncoder(file)
	if err := en.Encode(data); err != nil {
		return fmt.Errorf("could not encode data: %w", err)
	}
	return nil
}
