package trackers

import (
	"fmt"

	"github.com/samuelfneumann/tripod/experiment/tracker"
	"github.com/samuelfneumann/tripod/physics"
	"github.com/samuelfneumann/tripod/timestep"
)

// Height tracks and saves the height of a body on every timestep of
// an experiment
type Height struct {
	physics  physics.Physics
	body     string
	heights  []float64
	filename string
}

// NewHeight returns a new Height tracker which reads the height of
// body from p
func NewHeight(filename string, p physics.Physics, body string) *Height {
	return &Height{physics: p, body: body, filename: filename}
}

// Track caches the current height of the body
func (h *Height) Track(timestep.TimeStep) error {
	pos, err := h.physics.BodyXPos(h.body)
	if err != nil {
		return fmt.Errorf("track: %w", err)
	}
	h.heights = append(h.heights, pos.Z)
	return nil
}

// Heights returns the heights tracked so far
func (h *Height) Heights() []float64 {
	return append([]float64(nil), h.heights...)
}

// Save saves the data tracked by the Height Tracker to disk.
func (h *Height) Save() error {
	if err := tracker.SaveData(h.filename, h.heights); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}
