// Package experiment implements functionality for running an experiment
package experiment

import (
	"fmt"

	"github.com/samuelfneumann/gowarehouse/agent"
	"github.com/samuelfneumann/gowarehouse/environment/envconfig"
	"github.com/samuelfneumann/gowarehouse/environment/warehouse"
	"github.com/samuelfneumann/gowarehouse/experiment/trackers"
)

// Interface Experiment outlines structs that can run experiments.
// Experiments will track environment TimeSteps, caching each TimeStep
// in RAM to be later saved to disk. The Save() function
// will then take all cached data and save it to disk. This is usually
// performed after an experiment has been run. The Run() method will
// run all episodes util the maximum timestep limit is reached. The
// RunEpisode() function will run a single episode.
//
// Experiments send each TimeStep to Trackers using the Tracker's
// Track() method. The Tracker then determines which data from the
// TimeStep it caches and saves. New Trackers can be registered with an
// Experiment through the constructor or through an Experiment's
// Register() function.
type Experiment interface {
	Run() error

	// RunEpisode returns whether or not the maximum timestep limit
	// has been reached
	RunEpisode() (bool, error)

	// Save all tracked data to disk
	Save() error

	// Adds a new trackers.Tracker to the (possibly already running)
	// experiment. Useful if you want to track data only after a
	// specified event.
	Register(t trackers.Tracker)
}

// Driver names an agent which can drive a warehouse
type Driver string

const (
	Random   Driver = "random"
	Sequence Driver = "sequence"
	Planner  Driver = "planner"
)

// Config represents a configuration of an experiment
type Config struct {
	MaxSteps uint
	EnvConf  envconfig.Config
	Driver   Driver

	// Actions is the action sequence of the Sequence driver, written as
	// the letters L, R, U, and D
	Actions string
}

// CreateExp creates the experiment described by the Config, as well as
// the environment the experiment is run on so that environment-specific
// Trackers may be registered
func (c Config) CreateExp(seed uint64,
	t ...trackers.Tracker) (*Online, *warehouse.Warehouse, error) {
	w, _, err := c.EnvConf.Create(seed)
	if err != nil {
		return nil, nil, fmt.Errorf("createExp: %w", err)
	}

	a, err := c.createAgent(w, seed)
	if err != nil {
		return nil, nil, fmt.Errorf("createExp: %w", err)
	}

	return NewOnline(w, a, c.MaxSteps, t...), w, nil
}

func (c Config) createAgent(w *warehouse.Warehouse,
	seed uint64) (agent.Agent, error) {
	switch c.Driver {
	case Random:
		return agent.NewRandom(w.ActionSpec(), seed)

	case Sequence:
		actions, err := agent.ParseSequence(c.Actions)
		if err != nil {
			return nil, err
		}
		return agent.NewSequence(actions)

	case Planner:
		return agent.NewPlanner(w.Grid(), w.Encoder()), nil
	}

	return nil, fmt.Errorf("no such driver %q", c.Driver)
}
