package physics_test

import (
	"testing"

	"github.com/samuelfneumann/tripod/mjcf"
	"github.com/samuelfneumann/tripod/physics"
	"github.com/samuelfneumann/tripod/physics/physicstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLoad(t *testing.T) {
	fake := physicstest.NewFake(1, 1, 1)
	physics.Register("fake-for-load", func(*mjcf.Model) (physics.Physics,
		error) {
		return fake, nil
	})

	p, err := physics.Load("fake-for-load", mjcf.New("scene"))
	require.NoError(t, err)
	assert.Same(t, fake, p)
	assert.Contains(t, physics.Engines(), "fake-for-load")
}

func TestLoadUnknownEngine(t *testing.T) {
	_, err := physics.Load("no-such-engine", mjcf.New("scene"))
	assert.ErrorIs(t, err, physics.ErrUnknownEngine)
}

func TestRegisterTwicePanics(t *testing.T) {
	loader := func(*mjcf.Model) (physics.Physics, error) { return nil, nil }
	physics.Register("fake-twice", loader)
	assert.Panics(t, func() { physics.Register("fake-twice", loader) })
}
