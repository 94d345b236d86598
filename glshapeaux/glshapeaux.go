// Package glshapeaux implements front-ends for viewing colored shapes: PNG rendering,
// a GLFW viewer with GPU picking and a terminal preview.
package glshapeaux

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"runtime"
	"time"

	"github.com/soypat/glgl/math/ms2"
	"github.com/soypat/glshape/glbuild"
	"github.com/soypat/glshape/gleval"
	"github.com/soypat/glshape/glrender"
	"github.com/soypat/glshape/sdfmath"
	"golang.org/x/image/draw"
)

// RenderConfig configures [RenderFrame] and [RenderPNGFile].
type RenderConfig struct {
	// Width and Height of the frame in device pixels.
	Width, Height int
	// Env is the draw environment. A zero Zoom fits the shape's bounds to the frame.
	Env gleval.Env
	// Center is the shape space point drawn at the frame's center.
	// Ignored when the view is fitted automatically.
	Center ms2.Vec
	// UseGPU draws the frame with the generated fragment program instead of on the CPU.
	UseGPU bool
	// Workers is the number of concurrent tile evaluations for CPU rendering. Zero uses GOMAXPROCS.
	Workers int
	// Supersample renders the frame Supersample times larger and downsamples the
	// display color to the final size. Values below 2 disable it. Ids are taken from the full size frame.
	Supersample int
	// Background is composited under the display color of PNG output. Nil keeps transparency.
	Background color.Color
	// IDFilename, when set, makes [RenderPNGFile] also save the object-id buffer as a
	// false color PNG where every symbol gets its own hue and uncovered pixels are transparent.
	IDFilename string
	// Silent disables progress printing.
	Silent bool
}

// UIConfig configures [UI].
type UIConfig struct {
	// Width and Height of the window in screen coordinates.
	Width, Height int
	// Env is the initial draw environment. A zero Zoom fits the shape to the window.
	// PixelRatio is set from the window's framebuffer.
	Env    gleval.Env
	Center ms2.Vec
	// Context cancels the viewer when done. May be nil.
	Context context.Context
	// OnPick is called when a click lands on a covered pixel.
	OnPick func(symbol, instance uint32)
}

// UI opens a window drawing s with the GPU. Keys 0 and 1 switch between the normal and
// distance display modes, scrolling zooms, dragging pans and clicking picks the shape
// under the cursor by reading the object-id attachment. Requires cgo.
// UI must be called from the main thread, see [runtime.LockOSThread].
func UI(s glbuild.ShapeShader, cfg UIConfig) error {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return errors.New("invalid window dimensions")
	}
	if !cfg.Env.DisplayMode.IsValid() {
		return fmt.Errorf("%w %d", gleval.ErrDisplayMode, int32(cfg.Env.DisplayMode))
	}
	return ui(s, cfg)
}

// Frame is the result of drawing a shape over every pixel of a frame.
type Frame struct {
	Image *image.RGBA
	IDs   *glrender.IDBuffer
	// Env and Center are the draw parameters actually used.
	Env    gleval.Env
	Center ms2.Vec
}

// FitView returns the zoom and center that fit bounds into a width x height frame
// leaving the given fraction of the frame as margin.
func FitView(bounds ms2.Box, width, height int, pixelRatio, margin float32) (zoom float32, center ms2.Vec) {
	sz := bounds.Size()
	usable := 1 - margin
	zx := usable * float32(width) / (sz.X * pixelRatio)
	zy := usable * float32(height) / (sz.Y * pixelRatio)
	center = ms2.Vec{X: (bounds.Min.X + bounds.Max.X) / 2, Y: (bounds.Min.Y + bounds.Max.Y) / 2}
	return min(zx, zy), center
}

func (cfg *RenderConfig) validate() error {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return errors.New("invalid frame dimensions")
	}
	if cfg.Env.PixelRatio == 0 {
		cfg.Env.PixelRatio = 1
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	return nil
}

// RenderFrame draws s into a new frame as configured by cfg.
func RenderFrame(ctx context.Context, s glbuild.ShapeShader, cfg RenderConfig) (*Frame, error) {
	err := cfg.validate()
	if err != nil {
		return nil, err
	}
	log := func(args ...any) {
		if !cfg.Silent {
			fmt.Println(args...)
		}
	}
	env := cfg.Env
	center := cfg.Center
	if env.Zoom == 0 {
		env.Zoom, center = FitView(s.Bounds(), cfg.Width, cfg.Height, env.PixelRatio, 0.1)
	}
	ids, err := glrender.NewIDBuffer(cfg.Width, cfg.Height)
	if err != nil {
		return nil, err
	}
	frame := &Frame{
		Image:  image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height)),
		IDs:    ids,
		Env:    env,
		Center: center,
	}
	watch := stopwatch()
	if cfg.UseGPU {
		log("using GPU")
		err = renderGPU(s, &env, center, frame.Image, frame.IDs)
	} else {
		log("using CPU")
		err = renderCPU(ctx, s, &env, center, frame.Image, frame.IDs, cfg.Workers)
	}
	if err != nil {
		return nil, err
	}
	if cfg.Supersample >= 2 {
		// Draw again at a finer scale and replace the display color with its downsampled version.
		ss := cfg.Supersample
		envSS := env
		envSS.PixelRatio *= float32(ss)
		big := image.NewRGBA(image.Rect(0, 0, ss*cfg.Width, ss*cfg.Height))
		if cfg.UseGPU {
			err = renderGPU(s, &envSS, center, big, nil)
		} else {
			err = renderCPU(ctx, s, &envSS, center, big, nil, cfg.Workers)
		}
		if err != nil {
			return nil, err
		}
		draw.ApproxBiLinear.Scale(frame.Image, frame.Image.Rect, big, big.Rect, draw.Src, nil)
	}
	log("rendered", cfg.Width, "x", cfg.Height, "frame in", watch())
	return frame, nil
}

func renderCPU(ctx context.Context, s glbuild.ShapeShader, env *gleval.Env, center ms2.Vec, dst *image.RGBA, ids *glrender.IDBuffer, workers int) error {
	sdf, err := gleval.AssertShapeSDF(s)
	if err != nil {
		return err
	}
	renderer, err := glrender.NewFrameRenderer(32, workers)
	if err != nil {
		return err
	}
	return renderer.Render(ctx, env, sdf, center, dst, ids)
}

func renderGPU(s glbuild.ShapeShader, env *gleval.Env, center ms2.Vec, dst *image.RGBA, ids *glrender.IDBuffer) error {
	terminate, err := gleval.Init1x1GLFW()
	if err != nil {
		return err
	}
	defer terminate()
	err = glbuild.ShortenNamesShape(&s, 8)
	if err != nil {
		return fmt.Errorf("shortening shader names: %w", err)
	}
	var buf bytes.Buffer
	n, err := glbuild.NewDefaultProgrammer().WriteFragmentShader(&buf, s)
	if err != nil {
		return err
	} else if n != buf.Len() {
		return fmt.Errorf("wrote %d bytes but WriteFragmentShader counted %d", buf.Len(), n)
	}
	w, h := dst.Rect.Dx(), dst.Rect.Dy()
	gpu, err := gleval.NewFrameGPU(glbuild.VertexShaderSource, buf.String(), w, h)
	if err != nil {
		return err
	}
	defer gpu.Delete()
	err = gpu.Draw(env, center)
	if err != nil {
		return err
	}
	colors := make([]sdfmath.Vec4, w*h)
	err = gpu.ReadColors(colors)
	if err != nil {
		return err
	}
	for i, c := range colors {
		dst.SetRGBA(dst.Rect.Min.X+i%w, dst.Rect.Min.Y+i/w, glrender.ToRGBA(c))
	}
	if ids != nil {
		err = gpu.ReadIDs(ids.IDs)
	}
	return err
}

// RenderPNGFile draws s as configured by cfg and saves the display color to a PNG file with said filename.
// The color is composited over cfg.Background when set.
func RenderPNGFile(filename string, s glbuild.ShapeShader, cfg RenderConfig) (*Frame, error) {
	frame, err := RenderFrame(context.Background(), s, cfg)
	if err != nil {
		return nil, err
	}
	var img image.Image = frame.Image
	if cfg.Background != nil {
		out := image.NewRGBA(frame.Image.Rect)
		draw.Draw(out, out.Rect, image.NewUniform(cfg.Background), image.Point{}, draw.Src)
		draw.Draw(out, out.Rect, frame.Image, frame.Image.Rect.Min, draw.Over)
		img = out
	}
	err = writePNG(filename, img)
	if err != nil {
		return nil, err
	}
	if cfg.IDFilename != "" {
		err = writePNG(cfg.IDFilename, IDImage(frame.IDs))
		if err != nil {
			return nil, err
		}
	}
	return frame, nil
}

// IDImage returns a false color image of ids. Pixels of the same symbol share a hue
// and instances of a symbol are told apart by brightness.
func IDImage(ids *glrender.IDBuffer) *image.RGBA {
	const hues, shades = 8, 4
	palette := Palette(hues, 0.7, 1)
	img := image.NewRGBA(ids.Bounds())
	for y := 0; y < ids.H; y++ {
		for x := 0; x < ids.W; x++ {
			sym, inst, ok := ids.Pick(x, y)
			if !ok {
				continue
			}
			c := palette[sym%hues]
			shade := 1 - float32(inst%shades)/(2*shades)
			c.R, c.G, c.B = c.R*shade, c.G*shade, c.B*shade
			img.SetRGBA(x, y, opaqueSRGB(c))
		}
	}
	return img
}

func writePNG(filename string, img image.Image) error {
	fp, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer fp.Close()
	err = png.Encode(fp, img)
	if err != nil {
		return err
	}
	return fp.Sync()
}

func stopwatch() func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		return time.Since(start)
	}
}
