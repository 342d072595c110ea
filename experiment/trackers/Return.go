// Package trackers implements Trackers, which track and save data
// from the TimeSteps of an experiment
package trackers

import (
	"fmt"

	"github.com/samuelfneumann/tripod/experiment/tracker"
	ts "github.com/samuelfneumann/tripod/timestep"
)

// Return tracks and saves the episodic return in an experiment. When
// an environment returns a TimeStep, this Tracker will extract the
// reward and accumulate the return for each episode in the experiment.
//
// Episodes of environments without a time limit are only ever cut off
// by the experiment's step limit, so the return of an unfinished last
// episode is saved as well.
type Return struct {
	lastTimeStep   int
	currentReturn  float64
	episodeReturns []float64
	filename       string
}

// NewReturn creates and returns a new *Return Tracker
func NewReturn(filename string) *Return {
	return &Return{lastTimeStep: -1, filename: filename}
}

// Track tracks the rewards seen on a timestep. By calling this method
// on every timestep, the Tracker will store all rewards seen in the
// episode, and save the cumulative reward for that episode as the
// episodic return. When a new episode starts, this method will
// automatically detect this and start accumulating the rewards for this
// new episode separately from the rewards seen on previous episodes.
//
// Track returns an error if it is called for non-sequential timesteps
func (r *Return) Track(step ts.TimeStep) error {
	// A first timestep starts a new episode, flushing an episode that
	// was cut off before its last timestep
	if step.First() && r.lastTimeStep >= 0 {
		r.flush()
	}

	// Ensure that Track is called on sequential timesteps
	if r.lastTimeStep+1 != step.Number {
		return fmt.Errorf("track: last two timesteps tracked are not "+
			"sequential: timestep %v --> timestep %v were tracked",
			r.lastTimeStep, step.Number)
	}

	r.currentReturn += step.Reward
	r.lastTimeStep = step.Number

	// Episode has ended, save the return and begin tracking the
	// return for a new episode
	if step.Last() {
		r.flush()
	}
	return nil
}

func (r *Return) flush() {
	r.episodeReturns = append(r.episodeReturns, r.currentReturn)
	r.currentReturn = 0.0
	r.lastTimeStep = -1
}

// Returns returns the episodic returns tracked so far, including the
// return of the current unfinished episode, if any
func (r *Return) Returns() []float64 {
	returns := append([]float64(nil), r.episodeReturns...)
	if r.lastTimeStep >= 0 {
		returns = append(returns, r.currentReturn)
	}
	return returns
}

// Save saves the data tracked by the Return Tracker to disk
func (r *Return) Save() error {
	if err := tracker.SaveData(r.filename, r.Returns()); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}
