//go:build tinygo || !cgo

package gleval

import (
	"errors"

	"github.com/soypat/glgl/math/ms2"
	"github.com/soypat/glshape/sdfmath"
)

var errNoCGO = errors.New("GPU evaluation requires CGo and is not supported on TinyGo")

// Init1x1GLFW starts a 1x1 sized GLFW so that user can start working with GPU.
func Init1x1GLFW() (terminate func(), err error) {
	return nil, errNoCGO
}

// FrameGPU runs a fragment program generated by glbuild over an offscreen framebuffer.
type FrameGPU struct{}

// NewFrameGPU compiles the vertex and fragment program sources.
func NewFrameGPU(vertexSource, fragmentSource string, width, height int) (*FrameGPU, error) {
	return nil, errNoCGO
}

func (f *FrameGPU) Size() (width, height int) { return 0, 0 }
func (f *FrameGPU) Framebuffer() uint32 { return 0 }
func (f *FrameGPU) Draw(env *Env, center ms2.Vec) error { return errNoCGO }
func (f *FrameGPU) ReadColors(dst []sdfmath.Vec4) error { return errNoCGO }
func (f *FrameGPU) ReadIDs(dst [][4]uint32) error { return errNoCGO }
func (f *FrameGPU) ReadID(x, y int) (id [4]uint32, err error) { return id, errNoCGO }
func (f *FrameGPU) Delete() {}
