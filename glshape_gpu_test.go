//go:build !tinygo && cgo

package glshape_test

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"os"
	"runtime"
	"testing"

	"github.com/chewxy/math32"
	"github.com/soypat/glgl/math/ms2"
	"github.com/soypat/glshape"
	"github.com/soypat/glshape/glbuild"
	"github.com/soypat/glshape/gleval"
	"github.com/soypat/glshape/sdfmath"
)

// Since GPU must be run in main thread we need to do some dark arts for GPU code to be code-covered.
func TestMain(m *testing.M) {
	runtime.LockOSThread()
	var exit int
	err := testGPU()
	if err != nil {
		exit = 1
		log.Println(err)
	}
	runtime.UnlockOSThread()
	os.Exit(m.Run() | exit)
}

func testGPU() error {
	term, err := gleval.Init1x1GLFW()
	if err != nil {
		log.Println("skipping GPU tests:", err)
		return nil
	}
	defer term()
	var bld glshape.Builder
	scenes := []glbuild.ShapeShader{
		bld.Fill(bld.NewCircle(1), gleval.LinearRGBA(1, 0, 0, 1)),
		bld.Layers(
			bld.Fill(bld.NewRoundedRectangle(3, 2, 0.4), gleval.SRGBA(0.2, 0.4, 0.8, 1)),
			bld.SoftFill(bld.NewArc(0.8, sdfmath.Deg(200).Radians(), 0.15), gleval.LinearRGBA(1, 1, 0, 0.8), 0.1),
			bld.Clip(bld.Fill(bld.NewLine2D(-2, -2, 2, 2, 0.3), gleval.LinearRGBA(0, 1, 0, 1)), bld.NewCircle(1.2)),
		),
		bld.Fill(bld.Union2D(
			bld.NewCircle(0.5), bld.Translate2D(bld.NewCircle(0.4), 0.8, 0), bld.NewRectangle(0.3, 1.5),
			bld.Translate2D(bld.NewRectangle(1, 0.2), -0.6, 0.4), bld.NewArc(1, sdfmath.Deg(90).Radians(), 0.1),
			bld.Translate2D(bld.NewCircle(0.2), -0.5, -0.5),
		), gleval.LinearRGBA(0.5, 0.2, 0.9, 1)),
		bld.Opacity(bld.TranslateShape(bld.Fill(bld.Difference2D(bld.NewRectangle(2, 2), bld.NewCircle(0.6)), gleval.LinearRGBA(1, 1, 1, 1)), 0.3, -0.2), 0.7),
	}
	envs := []gleval.Env{
		{Zoom: 40, PixelRatio: 1, SymbolID: 7, InstanceID: 3},
		{Zoom: 20, PixelRatio: 2, SymbolID: 1, InstanceID: 9, DisplayMode: gleval.DisplayDistance},
	}
	for i, scene := range scenes {
		for j := range envs {
			err = testFrameGPU(scene, &envs[j])
			if err != nil {
				return fmt.Errorf("scene %d (%s) env %d: %w", i, glbuild.FormatShader(scene), j, err)
			}
		}
	}
	return nil
}

func testFrameGPU(scene glbuild.ShapeShader, env *gleval.Env) error {
	const width, height = 64, 48
	var buf bytes.Buffer
	_, err := glbuild.NewDefaultProgrammer().WriteFragmentShader(&buf, scene)
	if err != nil {
		return err
	}
	frame, err := gleval.NewFrameGPU(glbuild.VertexShaderSource, buf.String(), width, height)
	if err != nil {
		return err
	}
	defer frame.Delete()
	center := ms2.Vec{X: 0.1, Y: -0.05}
	err = frame.Draw(env, center)
	if err != nil {
		return err
	}
	colorsGPU := make([]sdfmath.Vec4, width*height)
	idsGPU := make([][4]uint32, width*height)
	err = frame.ReadColors(colorsGPU)
	if err != nil {
		return err
	}
	err = frame.ReadIDs(idsGPU)
	if err != nil {
		return err
	}

	// Same pixel center mapping as the fragment program with rows top to bottom.
	pos := make([]ms2.Vec, width*height)
	scale := env.Scale()
	for py := 0; py < height; py++ {
		for px := 0; px < width; px++ {
			fragY := float32(height-1-py) + 0.5
			pos[py*width+px] = ms2.Vec{
				X: center.X + (float32(px)+0.5-width/2)/scale,
				Y: center.Y + (fragY-height/2)/scale,
			}
		}
	}
	sdf, err := gleval.AssertShapeSDF(scene)
	if err != nil {
		return err
	}
	var vp gleval.VecPool
	colorsCPU := make([]sdfmath.Vec4, len(pos))
	idsCPU := make([][4]uint32, len(pos))
	err = gleval.EvaluatePixels(env, sdf, pos, colorsCPU, idsCPU, &vp)
	if err != nil {
		return err
	}
	// Raw samples are needed to tell apart pixels at the coverage threshold.
	shapes := make([]gleval.Shape, len(pos))
	err = sdf.EvaluateShape(env, pos, shapes, &vp)
	if err != nil {
		return err
	}
	const tol = 2e-2
	mismatches := 0
	for i := range pos {
		cc, cg := colorsCPU[i], colorsGPU[i]
		for k := range cc {
			if math32.Abs(cc[k]-cg[k]) > tol {
				mismatches++
				log.Printf("color mismatch at %v: cpu=%v gpu=%v", pos[i], cc, cg)
				break
			}
		}
		if idsCPU[i] != idsGPU[i] {
			// Pixels right at the coverage threshold may round differently.
			alpha := shapes[i].Color.A
			if math32.Abs(alpha-0.5) > tol {
				mismatches++
				log.Printf("id mismatch at %v: cpu=%v gpu=%v", pos[i], idsCPU[i], idsGPU[i])
			}
		}
		if mismatches > 8 {
			return errors.New("too many mismatched pixels")
		}
	}
	if mismatches > 0 {
		return fmt.Errorf("%d mismatched pixels", mismatches)
	}
	// Single pixel picking agrees with full readback.
	x, y := width/2, height/2
	id, err := frame.ReadID(x, y)
	if err != nil {
		return err
	}
	if id != idsGPU[y*width+x] {
		return fmt.Errorf("ReadID(%d,%d)=%v, want %v", x, y, id, idsGPU[y*width+x])
	}
	return nil
}
