package arena

import (
	"testing"

	"github.com/samuelfneumann/tripod/composer"
	"github.com/samuelfneumann/tripod/mjcf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFloor(t *testing.T) {
	f, err := NewFloor(DefaultSize)
	require.NoError(t, err)

	ground := f.Model().Find("geom", "groundplane")
	require.NotNil(t, ground)
	size, ok := ground.Get("size")
	assert.True(t, ok)
	assert.Equal(t, "8 8 0.25", size)
	assert.Equal(t, DefaultSize, f.Size())

	_, err = NewFloor([2]float64{0, 1})
	assert.Error(t, err)
}

func TestAddFreeEntity(t *testing.T) {
	f, err := NewFloor(DefaultSize)
	require.NoError(t, err)

	model, err := mjcf.FromString(`<mujoco model="ball"><worldbody>
		<body name="b"><geom size="0.1"/></body></worldbody></mujoco>`)
	require.NoError(t, err)
	ball := composer.NewBase(model)

	require.NoError(t, f.AddFreeEntity(ball))
	assert.Len(t, f.Attached(), 1)
	assert.Contains(t, f.Model().Identifiers("joint"), "ball/")
	assert.Contains(t, f.Model().Identifiers("body"), "ball/b")

	assert.Error(t, f.AddFreeEntity(ball), "entities attach only once")
}
