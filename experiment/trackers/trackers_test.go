package trackers

import (
	"path/filepath"
	"testing"

	"github.com/samuelfneumann/tripod/experiment/tracker"
	"github.com/samuelfneumann/tripod/physics"
	"github.com/samuelfneumann/tripod/physics/physicstest"
	ts "github.com/samuelfneumann/tripod/timestep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func episode(rewards ...float64) []ts.TimeStep {
	steps := []ts.TimeStep{ts.New(ts.First, 0, 1, nil, 0)}
	for i, r := range rewards {
		stepType := ts.Mid
		if i == len(rewards)-1 {
			stepType = ts.Last
		}
		steps = append(steps, ts.New(stepType, r, 1, nil, i+1))
	}
	return steps
}

func TestReturn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "return.bin")
	r := NewReturn(path)

	for _, step := range append(episode(1, 2, 3), episode(-1, -1)...) {
		require.NoError(t, r.Track(step))
	}
	assert.Equal(t, []float64{6, -2}, r.Returns())

	// An episode cut off by the step limit is still saved
	require.NoError(t, r.Track(ts.New(ts.First, 0, 1, nil, 0)))
	require.NoError(t, r.Track(ts.New(ts.Mid, 0.5, 1, nil, 1)))
	assert.Equal(t, []float64{6, -2, 0.5}, r.Returns())

	require.NoError(t, r.Track(ts.New(ts.First, 0, 1, nil, 0)))
	assert.Equal(t, []float64{6, -2, 0.5, 0}, r.Returns())

	require.NoError(t, r.Save())
	data, err := tracker.LoadData(path)
	require.NoError(t, err)
	assert.Equal(t, r.Returns(), data)
}

func TestReturnRejectsSkippedSteps(t *testing.T) {
	r := NewReturn(filepath.Join(t.TempDir(), "return.bin"))
	require.NoError(t, r.Track(ts.New(ts.First, 0, 1, nil, 0)))
	assert.Error(t, r.Track(ts.New(ts.Mid, 0, 1, nil, 2)))
}

func TestEpisodeLength(t *testing.T) {
	path := filepath.Join(t.TempDir(), "length.bin")
	e := NewEpisodeLength(path)
	for _, step := range append(episode(1, 2, 3), episode(1)...) {
		require.NoError(t, e.Track(step))
	}

	require.NoError(t, e.Save())
	data, err := tracker.LoadData(path)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 1}, data)
}

func TestHeight(t *testing.T) {
	fake := physicstest.NewFake(0, 0, 0)
	h := NewHeight(filepath.Join(t.TempDir(), "height.bin"), fake, "base")

	assert.ErrorIs(t, h.Track(ts.TimeStep{}), physics.ErrNoSuchBody)

	fake.Bodies["base"] = r3.Vec{Z: 0.2}
	require.NoError(t, h.Track(ts.TimeStep{}))
	fake.Bodies["base"] = r3.Vec{Z: 0.25}
	require.NoError(t, h.Track(ts.TimeStep{}))
	assert.Equal(t, []float64{0.2, 0.25}, h.Heights())
	assert.NoError(t, h.Save())
}
