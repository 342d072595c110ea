// Package viewer renders side views of a composed scene to PNG frames.
// The camera looks along the y axis, so the x–z plane is drawn with
// the ground plane as a horizontal line.
package viewer

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"
	"github.com/samuelfneumann/tripod/mjcf"
	"github.com/samuelfneumann/tripod/physics"
	ts "github.com/samuelfneumann/tripod/timestep"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// DefaultWidth and DefaultHeight are the frame size in pixels
	DefaultWidth  = 600
	DefaultHeight = 400

	// DefaultScale is the number of pixels per metre
	DefaultScale = 400.0

	groundMargin = 40.0
	jointRadius  = 4.0
)

var (
	skyColour    = color.RGBA{R: 230, G: 236, B: 242, A: 255}
	groundColour = color.RGBA{R: 51, G: 77, B: 102, A: 255}
	boneColour   = color.RGBA{R: 204, G: 102, B: 51, A: 255}
	jointColour  = color.RGBA{R: 40, G: 40, B: 40, A: 255}
)

// Viewer draws the skeleton of a scene, a segment from each body to
// each of its child bodies, as seen from the side. Viewer is a
// tracker.Tracker which writes one frame per tracked timestep.
type Viewer struct {
	physics physics.Physics
	bodies  []string
	bones   [][2]string

	dir           string
	width, height int
	scale         float64
	frame         int
}

// New returns a Viewer of the scene described by model, simulated by
// p, which writes its frames to dir. The directory is created if it
// does not exist.
func New(model *mjcf.Model, p physics.Physics, dir string) (*Viewer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("new: could not create frame directory: %v",
			err)
	}

	v := &Viewer{
		physics: p,
		dir:     dir,
		width:   DefaultWidth,
		height:  DefaultHeight,
		scale:   DefaultScale,
	}

	wb := model.Worldbody()
	if wb == nil {
		return v, nil
	}
	wb.Walk(func(e *mjcf.Element) bool {
		if e.Tag != "body" || e.Name() == "" {
			return true
		}
		name := model.Identifier(e.Name())
		v.bodies = append(v.bodies, name)

		if parent := e.Parent(); parent != nil && parent.Tag == "body" &&
			parent.Name() != "" {
			v.bones = append(v.bones, [2]string{
				model.Identifier(parent.Name()), name,
			})
		}
		return true
	})
	return v, nil
}

// Bones returns the parent and child body names of each drawn segment
func (v *Viewer) Bones() [][2]string {
	return append([][2]string(nil), v.bones...)
}

// Render draws the current state of the physics. The view is centred
// horizontally on the first body of the scene.
func (v *Viewer) Render() (image.Image, error) {
	positions := make(map[string]r3.Vec, len(v.bodies))
	for _, name := range v.bodies {
		pos, err := v.physics.BodyXPos(name)
		if err != nil {
			return nil, fmt.Errorf("render: %w", err)
		}
		positions[name] = pos
	}

	var centre float64
	if len(v.bodies) > 0 {
		centre = positions[v.bodies[0]].X
	}
	toPixel := func(pos r3.Vec) (float64, float64) {
		x := float64(v.width)/2 + (pos.X-centre)*v.scale
		y := float64(v.height) - groundMargin - pos.Z*v.scale
		return x, y
	}

	dc := gg.NewContext(v.width, v.height)
	dc.SetColor(skyColour)
	dc.Clear()

	// Ground
	groundY := float64(v.height) - groundMargin
	dc.DrawRectangle(0, groundY, float64(v.width), groundMargin)
	dc.SetColor(groundColour)
	dc.Fill()

	// Bones
	dc.SetColor(boneColour)
	dc.SetLineWidth(3.0)
	for _, bone := range v.bones {
		x1, y1 := toPixel(positions[bone[0]])
		x2, y2 := toPixel(positions[bone[1]])
		dc.DrawLine(x1, y1, x2, y2)
	}
	dc.Stroke()

	// Joints
	dc.SetColor(jointColour)
	for _, name := range v.bodies {
		x, y := toPixel(positions[name])
		dc.DrawCircle(x, y, jointRadius)
		dc.Fill()
	}

	return dc.Image(), nil
}

// Track renders the current state of the physics and writes it as the
// next frame. The timestep is ignored.
func (v *Viewer) Track(ts.TimeStep) error {
	img, err := v.Render()
	if err != nil {
		return fmt.Errorf("track: %w", err)
	}

	path := filepath.Join(v.dir, fmt.Sprintf("frame_%06d.png", v.frame))
	if err := gg.SavePNG(path, img); err != nil {
		return fmt.Errorf("track: could not save frame: %v", err)
	}
	v.frame++
	return nil
}

// Save satisfies the tracker.Tracker interface. Frames are written as
// they are tracked.
func (v *Viewer) Save() error {
	return nil
}

// Frames returns the number of frames written so far
func (v *Viewer) Frames() int {
	return v.frame
}
