package experiment

import (
	"fmt"
	"io"
	"log"

	"github.com/samuelfneumann/gowarehouse/agent"
	env "github.com/samuelfneumann/gowarehouse/environment"
	"github.com/samuelfneumann/gowarehouse/experiment/trackers"
	ts "github.com/samuelfneumann/gowarehouse/timestep"
	"github.com/samuelfneumann/gowarehouse/utils/progressbar"
)

// Online is an Experiment that runs an agent online only. No offline
// evaluation is performed.
type Online struct {
	env.Environment
	agent.Agent
	maxSteps     uint
	currentSteps uint
	episodes     int
	trackers     []trackers.Tracker

	logger   *log.Logger
	progress *progressbar.ManualProgressBar
}

// NewOnline creates and returns a new online experiment on a given
// environment with a given agent. The steps parameter determines how
// many timesteps the experiment is run for, and the t parameter
// is a slice of trackers.Tracker which determine what data is saved.
func NewOnline(e env.Environment, a agent.Agent, steps uint,
	t ...trackers.Tracker) *Online {
	return &Online{
		Environment: e,
		Agent:       a,
		maxSteps:    steps,
		trackers:    t,
		logger:      log.New(io.Discard, "", 0),
	}
}

// SetLogger sets the logger which episode summaries are written to
func (o *Online) SetLogger(l *log.Logger) {
	o.logger = l
}

// ShowProgress displays a progress bar of the given width which is
// updated at the end of each episode
func (o *Online) ShowProgress(width int) {
	o.progress = progressbar.NewManualProgressBar(width, int(o.maxSteps))
}

// Register registers a trackers.Tracker with an Experiment so that data
// generated during the experiment can be tracked and saved
func (o *Online) Register(t trackers.Tracker) {
	o.trackers = append(o.trackers, t)
}

// RunEpisode runs a single episode of the experiment and returns
// whether or not the maximum timestep limit has been reached
func (o *Online) RunEpisode() (bool, error) {
	step, err := o.Environment.Reset()
	if err != nil {
		return false, fmt.Errorf("runEpisode: %w", err)
	}
	if err := o.Agent.ObserveFirst(step); err != nil {
		return false, fmt.Errorf("runEpisode: %w", err)
	}
	o.track(step)

	var episodeReturn float64
	for !step.Last() && o.currentSteps < o.maxSteps {
		o.currentSteps++

		// Select action, step in environment
		action := o.Agent.SelectAction(step)
		step, _, err = o.Environment.Step(action)
		if err != nil {
			return false, fmt.Errorf("runEpisode: %w", err)
		}
		episodeReturn += step.Reward

		o.track(step)

		if err := o.Agent.Observe(action, step); err != nil {
			return false, fmt.Errorf("runEpisode: %w", err)
		}

		if o.progress != nil {
			o.progress.Increment()
		}
	}

	if step.Last() {
		o.logger.Printf("episode %v: %v steps, return %.2f, %v", o.episodes,
			step.Number, episodeReturn, step.EndType())
		o.episodes++
	}
	if o.progress != nil {
		o.progress.Display()
	}

	return o.currentSteps >= o.maxSteps, nil
}

// Run runs the entire experiment for all timesteps
func (o *Online) Run() error {
	for {
		ended, err := o.RunEpisode()
		if err != nil {
			return fmt.Errorf("run: %w", err)
		}
		if ended {
			return nil
		}
	}
}

// Episodes returns the number of episodes finished so far
func (o *Online) Episodes() int {
	return o.episodes
}

// Save saves the data cached by the Trackers to disk, returning the
// first error encountered. Every Tracker is saved even if an earlier
// Tracker fails.
func (o *Online) Save() error {
	var first error
	for _, tracker := range o.trackers {
		if err := tracker.Save(); err != nil && first == nil {
			first = fmt.Errorf("save: %w", err)
		}
	}
	return first
}

// track tracks the current timestep by caching its data in each tracker
func (o *Online) track(t ts.TimeStep) {
	for _, tracker := range o.trackers {
		tracker.Track(t)
	}
}
