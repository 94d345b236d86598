package gleval

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/soypat/glgl/math/ms2"
	"github.com/soypat/glshape/sdfmath"
)

// DisplayMode selects what the per-pixel stage writes to the display color output.
type DisplayMode int32

const (
	// DisplayNormal writes the shape's color.
	DisplayNormal DisplayMode = 0
	// DisplayDistance writes a visualization of the shape's raw distance field.
	DisplayDistance DisplayMode = 1
)

func (dm DisplayMode) String() string {
	switch dm {
	case DisplayNormal:
		return "normal"
	case DisplayDistance:
		return "distance"
	}
	return fmt.Sprintf("DisplayMode(%d)", int32(dm))
}

// IsValid reports whether dm is a defined display mode.
func (dm DisplayMode) IsValid() bool { return dm == DisplayNormal || dm == DisplayDistance }

// ErrDisplayMode is returned by [Env.Validate] for undefined display modes.
var ErrDisplayMode = errors.New("undefined display mode")

// DebugFalloff is the on screen width in device pixels of the distance debug view's falloff.
const DebugFalloff = 200

// Env is the per draw call state shared read-only by every pixel of the draw.
type Env struct {
	// Zoom is the camera zoom. Must be positive.
	Zoom float32
	// PixelRatio is the ratio of device pixels to logical pixels. Must be positive.
	PixelRatio float32
	// SymbolID identifies the drawn symbol in the object-id output.
	SymbolID uint32
	// InstanceID identifies the drawn instance of the symbol in the object-id output.
	InstanceID uint32
	// DisplayMode selects the display color output.
	DisplayMode DisplayMode
}

// Validate returns an error if env can not be used for drawing.
func (env *Env) Validate() error {
	switch {
	case !(env.Zoom > 0) || math32.IsInf(env.Zoom, 1):
		return fmt.Errorf("invalid zoom %g", env.Zoom)
	case !(env.PixelRatio > 0) || math32.IsInf(env.PixelRatio, 1):
		return fmt.Errorf("invalid pixel ratio %g", env.PixelRatio)
	case !env.DisplayMode.IsValid():
		return fmt.Errorf("%w %d", ErrDisplayMode, int32(env.DisplayMode))
	}
	return nil
}

// Scale returns the number of device pixels per shape space unit.
func (env *Env) Scale() float32 { return env.Zoom * env.PixelRatio }

// DebugFalloffWidth returns the distance debug view's falloff width in shape space
// so that the visualization keeps its on screen size across zoom levels.
func DebugFalloffWidth(env *Env) float32 {
	return DebugFalloff / env.Scale()
}

// Shape is the sample a shape evaluation returns for one point.
type Shape struct {
	// Distance is the signed distance to the shape boundary: negative inside, positive outside.
	Distance float32
	// Color is the shape's straight alpha color at the point.
	Color Color
}

// PixelOutput holds both outputs of a pixel.
type PixelOutput struct {
	// Color is the display color output (RGBA).
	Color sdfmath.Vec4
	// ID is the object-id output: symbol id, instance id, zero and coverage flag.
	ID [4]uint32
}

// CoverageFlag returns 1 if a pixel with the given alpha counts as hit for picking and 0 otherwise.
// Partially covered edge pixels with alpha at or below one half are not hits.
func CoverageFlag(alpha float32) uint32 {
	if alpha > 0.5 {
		return 1
	}
	return 0
}

// EvaluatePixel computes both pixel outputs from a shape sample.
// Display modes outside of the defined ones are drawn as [DisplayNormal], use [Env.Validate]
// to reject them before drawing.
func EvaluatePixel(env *Env, shape Shape) (out PixelOutput) {
	alpha := shape.Color.A
	switch env.DisplayMode {
	case DisplayDistance:
		w := DebugFalloffWidth(env)
		c := DistanceMeter(shape.Distance, w, w)
		out.Color = sdfmath.Vec4{c[0], c[1], c[2], 1}
	default:
		out.Color = PremultipliedSRGB(shape.Color)
		// RGB is multiplied by alpha a second time after premultiplication.
		out.Color[0] *= alpha
		out.Color[1] *= alpha
		out.Color[2] *= alpha
	}
	covered := CoverageFlag(alpha)
	out.ID = [4]uint32{env.SymbolID * covered, env.InstanceID * covered, 0, covered}
	return out
}

// EvaluatePixels evaluates sdf at each position and writes the pixel outputs to colors and ids.
// userData is passed to the shape evaluation, see [GetVecPool].
func EvaluatePixels(env *Env, sdf ShapeSDF, pos []ms2.Vec, colors []sdfmath.Vec4, ids [][4]uint32, userData any) error {
	if err := CheckBuffers(pos, colors); err != nil {
		return err
	} else if len(ids) != len(pos) {
		return errors.New("position and id buffer length mismatch")
	}
	vp, err := GetVecPool(userData)
	if err != nil {
		return err
	}
	shapes := vp.Shape.Acquire(len(pos))
	defer vp.Shape.Release(shapes)
	err = sdf.EvaluateShape(env, pos, shapes, userData)
	if err != nil {
		return err
	}
	for i, shape := range shapes {
		out := EvaluatePixel(env, shape)
		colors[i] = out.Color
		ids[i] = out.ID
	}
	return nil
}
