// Package tripod implements a small three-legged creature and a task
// which rewards it for holding its base at a target height above a
// floor.
package tripod

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/samuelfneumann/tripod/composer"
	"github.com/samuelfneumann/tripod/mjcf"
	"github.com/samuelfneumann/tripod/observation"
	"github.com/samuelfneumann/tripod/physics"
)

// FilePath is the scene file of the default tripod
const FilePath = "tripod_mini.xml"

// AssetsDir is the directory relative scene paths are resolved
// against. It defaults to the assets directory of this package.
var AssetsDir = defaultAssetsDir()

func defaultAssetsDir() string {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return "assets"
	}
	return filepath.Join(filepath.Dir(file), "assets")
}

// ResolvePath returns the path a scene file is loaded from. Absolute
// paths and paths starting with "./" are used as is; all other paths
// are relative to AssetsDir.
func ResolvePath(path string) string {
	if filepath.IsAbs(path) || strings.HasPrefix(path, "./") {
		return path
	}
	return filepath.Join(AssetsDir, path)
}

// Creature is the tripod entity. Its observables are disabled until a
// task enables them.
type Creature struct {
	*composer.Base
}

// NewCreature loads a creature from a scene file
func NewCreature(path string) (*Creature, error) {
	model, err := mjcf.FromPath(ResolvePath(path))
	if err != nil {
		return nil, fmt.Errorf("newCreature: %w", err)
	}

	c := &Creature{Base: composer.NewBase(model)}
	c.Observables().Add(observation.New("joint_positions",
		func(p physics.Physics) ([]float64, error) {
			return p.JointQPos(c.Joints())
		}))
	c.Observables().Add(observation.New("joint_velocities",
		func(p physics.Physics) ([]float64, error) {
			return p.JointQVel(c.Joints())
		}))

	return c, nil
}

// Actuators returns the actuator elements of the creature
func (c *Creature) Actuators() []*mjcf.Element {
	return c.Model().FindAll("actuator")
}

// Joints returns the scene names of the creature's joints
func (c *Creature) Joints() []string {
	return c.Model().Identifiers("joint")
}
