//go:build !tinygo && cgo

package gleval

import (
	"errors"
	"fmt"
	"runtime"
	"unsafe"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/soypat/glgl/math/ms2"
	"github.com/soypat/glgl/v4.6-core/glgl"
	"github.com/soypat/glshape/sdfmath"
)

// Init1x1GLFW starts a 1x1 sized GLFW so that user can start working with GPU.
// It returns a termination function that should be called when user is done running loads on GPU.
func Init1x1GLFW() (terminate func(), err error) {
	_, terminate, err = glgl.InitWithCurrentWindow33(glgl.WindowConfig{
		Title:   "fragment",
		Version: [2]int{4, 6},
		Width:   1,
		Height:  1,
	})
	return terminate, err
}

// FrameGPU runs a fragment program generated by glbuild over an offscreen framebuffer
// with a float display color attachment and an unsigned integer object-id attachment.
type FrameGPU struct {
	prog     glgl.Program
	fbo      uint32
	colorTex uint32
	idTex    uint32
	vao      uint32
	vbo      uint32
	width    int
	height   int
	unif     frameUniforms
}

type frameUniforms struct {
	zoom, pixelRatio, symbolID, instanceID, displayMode, resolution, center int32
}

// NewFrameGPU compiles the vertex and fragment program sources (as written by glbuild)
// and allocates a width x height framebuffer. Requires a current GL context, see [Init1x1GLFW].
func NewFrameGPU(vertexSource, fragmentSource string, width, height int) (*FrameGPU, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.New("invalid framebuffer dimensions")
	}
	prog, err := glgl.CompileProgram(glgl.ShaderSource{
		Vertex:   nullTerminate(vertexSource),
		Fragment: nullTerminate(fragmentSource),
	})
	if err != nil {
		return nil, fmt.Errorf("%s\n\n%w", fragmentSource, err)
	}
	f := &FrameGPU{prog: prog, width: width, height: height}
	err = f.init()
	if err != nil {
		f.Delete()
		return nil, err
	}
	return f, nil
}

func nullTerminate(s string) string {
	if len(s) > 0 && s[len(s)-1] == 0 {
		return s
	}
	return s + "\x00"
}

func (f *FrameGPU) init() (err error) {
	f.prog.Bind()
	defer f.prog.Unbind()
	u := &f.unif
	for _, uni := range []struct {
		name string
		loc  *int32
	}{
		{"uZoom\x00", &u.zoom},
		{"uPixelRatio\x00", &u.pixelRatio},
		{"uSymbolID\x00", &u.symbolID},
		{"uInstanceID\x00", &u.instanceID},
		{"uDisplayMode\x00", &u.displayMode},
		{"uResolution\x00", &u.resolution},
		{"uCenter\x00", &u.center},
	} {
		*uni.loc, err = f.prog.UniformLocation(uni.name)
		if err != nil {
			return err
		}
	}

	gl.GenVertexArrays(1, &f.vao)
	gl.BindVertexArray(f.vao)
	gl.GenBuffers(1, &f.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, f.vbo)
	vertices := []float32{
		-1.0, -1.0,
		1.0, -1.0,
		-1.0, 1.0,
		-1.0, 1.0,
		1.0, -1.0,
		1.0, 1.0,
	}
	gl.BufferData(gl.ARRAY_BUFFER, 4*len(vertices), gl.Ptr(vertices), gl.STATIC_DRAW)
	posAttrib, err := f.prog.AttribLocation("aPos\x00")
	if err != nil {
		return err
	}
	gl.EnableVertexAttribArray(posAttrib)
	gl.VertexAttribPointer(posAttrib, 2, gl.FLOAT, false, 0, gl.PtrOffset(0))

	w, h := int32(f.width), int32(f.height)
	gl.GenFramebuffers(1, &f.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, f.fbo)
	defer gl.BindFramebuffer(gl.FRAMEBUFFER, 0)

	gl.GenTextures(1, &f.colorTex)
	gl.BindTexture(gl.TEXTURE_2D, f.colorTex)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA32F, w, h, 0, gl.RGBA, gl.FLOAT, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, f.colorTex, 0)

	gl.GenTextures(1, &f.idTex)
	gl.BindTexture(gl.TEXTURE_2D, f.idTex)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA32UI, w, h, 0, gl.RGBA_INTEGER, gl.UNSIGNED_INT, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT1, gl.TEXTURE_2D, f.idTex, 0)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	drawBuffers := [2]uint32{gl.COLOR_ATTACHMENT0, gl.COLOR_ATTACHMENT1}
	gl.DrawBuffers(2, &drawBuffers[0])
	if status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
		return fmt.Errorf("incomplete framebuffer: status 0x%x", status)
	}
	return glgl.Err()
}

// Size returns the framebuffer dimensions in pixels.
func (f *FrameGPU) Size() (width, height int) { return f.width, f.height }

// Framebuffer returns the offscreen framebuffer object name for blitting to a window.
func (f *FrameGPU) Framebuffer() uint32 { return f.fbo }

// Draw runs the fragment program over every pixel of the framebuffer. The framebuffer's
// center pixel maps to the shape space point center.
func (f *FrameGPU) Draw(env *Env, center ms2.Vec) error {
	if err := env.Validate(); err != nil {
		return err
	}
	f.prog.Bind()
	defer f.prog.Unbind()
	gl.BindFramebuffer(gl.FRAMEBUFFER, f.fbo)
	defer gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(0, 0, int32(f.width), int32(f.height))

	zeroColor := [4]float32{}
	zeroID := [4]uint32{}
	gl.ClearBufferfv(gl.COLOR, 0, &zeroColor[0])
	gl.ClearBufferuiv(gl.COLOR, 1, &zeroID[0])

	u := f.unif
	gl.Uniform1f(u.zoom, env.Zoom)
	gl.Uniform1f(u.pixelRatio, env.PixelRatio)
	gl.Uniform1ui(u.symbolID, env.SymbolID)
	gl.Uniform1ui(u.instanceID, env.InstanceID)
	gl.Uniform1i(u.displayMode, int32(env.DisplayMode))
	gl.Uniform2f(u.resolution, float32(f.width), float32(f.height))
	gl.Uniform2f(u.center, center.X, center.Y)

	gl.BindVertexArray(f.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, 6)
	return glgl.Err()
}

// ReadColors reads back the display color attachment. Rows are ordered top to bottom.
func (f *FrameGPU) ReadColors(dst []sdfmath.Vec4) error {
	if len(dst) != f.width*f.height {
		return errors.New("color buffer length must equal framebuffer pixel count")
	}
	return read(f, gl.COLOR_ATTACHMENT0, gl.RGBA, gl.FLOAT, dst)
}

// ReadIDs reads back the object-id attachment. Rows are ordered top to bottom.
func (f *FrameGPU) ReadIDs(dst [][4]uint32) error {
	if len(dst) != f.width*f.height {
		return errors.New("id buffer length must equal framebuffer pixel count")
	}
	return read(f, gl.COLOR_ATTACHMENT1, gl.RGBA_INTEGER, gl.UNSIGNED_INT, dst)
}

// ReadID reads the object-id of a single pixel. x and y are measured from the top left corner.
func (f *FrameGPU) ReadID(x, y int) ([4]uint32, error) {
	var id [4]uint32
	if x < 0 || y < 0 || x >= f.width || y >= f.height {
		return id, errors.New("pixel out of framebuffer")
	}
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, f.fbo)
	defer gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)
	gl.ReadBuffer(gl.COLOR_ATTACHMENT1)
	gl.ReadPixels(int32(x), int32(f.height-1-y), 1, 1, gl.RGBA_INTEGER, gl.UNSIGNED_INT, unsafe.Pointer(&id[0]))
	return id, glgl.Err()
}

func read[T any](f *FrameGPU, attachment, format, xtype uint32, dst []T) error {
	var p runtime.Pinner
	p.Pin(&dst[0])
	defer p.Unpin()
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, f.fbo)
	defer gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)
	gl.ReadBuffer(attachment)
	gl.ReadPixels(0, 0, int32(f.width), int32(f.height), format, xtype, unsafe.Pointer(&dst[0]))
	if err := glgl.Err(); err != nil {
		return err
	}
	flipRows(dst, f.width, f.height)
	return nil
}

// flipRows converts GL bottom-to-top row order to top-to-bottom.
func flipRows[T any](buf []T, width, height int) {
	for top, bot := 0, height-1; top < bot; top, bot = top+1, bot-1 {
		rt := buf[top*width : (top+1)*width]
		rb := buf[bot*width : (bot+1)*width]
		for i := range rt {
			rt[i], rb[i] = rb[i], rt[i]
		}
	}
}

// Delete releases the GPU resources held by f.
func (f *FrameGPU) Delete() {
	if f.fbo != 0 {
		gl.DeleteFramebuffers(1, &f.fbo)
	}
	if f.colorTex != 0 {
		gl.DeleteTextures(1, &f.colorTex)
	}
	if f.idTex != 0 {
		gl.DeleteTextures(1, &f.idTex)
	}
	if f.vbo != 0 {
		gl.DeleteBuffers(1, &f.vbo)
	}
	if f.vao != 0 {
		gl.DeleteVertexArrays(1, &f.vao)
	}
	f.prog.Delete()
	*f = FrameGPU{}
}
