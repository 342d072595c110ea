// Package arena implements arenas, the root entities of composed
// scenes which other entities are attached to
package arena

import (
	"fmt"

	"github.com/samuelfneumann/tripod/composer"
	"github.com/samuelfneumann/tripod/mjcf"
)

// DefaultSize is the default half extent of a Floor in x and y
var DefaultSize = [2]float64{8, 8}

const groundThickness = 0.25

const floorTemplate = `
<mujoco model="floor">
  <compiler angle="radian"/>
  <asset>
    <texture name="groundplane" type="2d" builtin="checker" rgb1=".2 .3 .4"
      rgb2=".1 .2 .3" width="300" height="300" mark="edge" markrgb=".8 .8 .8"/>
    <material name="groundplane" texture="groundplane" texrepeat="2 2"
      texuniform="true" reflectance=".2"/>
  </asset>
  <worldbody>
    <geom name="groundplane" type="plane" material="groundplane"/>
    <camera name="top_camera" pos="0 0 10" zaxis="0 0 1"/>
  </worldbody>
</mujoco>`

// Floor is an arena with a flat, checkered ground plane at z = 0
type Floor struct {
	*composer.Base
	size [2]float64
}

// NewFloor returns a new Floor whose ground plane extends size[0] in
// x and size[1] in y on either side of the origin
func NewFloor(size [2]float64) (*Floor, error) {
	if size[0] <= 0 || size[1] <= 0 {
		return nil, fmt.Errorf("newFloor: size should be positive but got %v",
			size)
	}

	model, err := mjcf.FromString(floorTemplate)
	if err != nil {
		return nil, fmt.Errorf("newFloor: %w", err)
	}
	ground := model.Find("geom", "groundplane")
	ground.Set("size", fmt.Sprintf("%v %v %v", size[0], size[1],
		groundThickness))

	return &Floor{
		Base: composer.NewBase(model),
		size: size,
	}, nil
}

// Size returns the half extents of the floor
func (f *Floor) Size() [2]float64 {
	return f.size
}

// AddFreeEntity attaches an entity to the floor with a free joint so
// that it can fall onto and move over the floor
func (f *Floor) AddFreeEntity(e composer.Entity) error {
	if err := f.Attach(e, true); err != nil {
		return fmt.Errorf("addFreeEntity: %w", err)
	}
	return nil
}
