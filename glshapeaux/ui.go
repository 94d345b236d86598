//go:build !tinygo && cgo

package glshapeaux

import (
	"bytes"
	"fmt"
	"log"
	"time"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/soypat/glgl/math/ms2"
	"github.com/soypat/glshape/glbuild"
	"github.com/soypat/glshape/gleval"
)

func ui(s glbuild.ShapeShader, cfg UIConfig) error {
	window, term, err := startGLFW(cfg.Width, cfg.Height)
	if err != nil {
		return err
	}
	defer term()
	bounds := s.Bounds()
	err = glbuild.ShortenNamesShape(&s, 8)
	if err != nil {
		return err
	}
	var fragSrc bytes.Buffer
	_, err = glbuild.NewDefaultProgrammer().WriteFragmentShader(&fragSrc, s)
	if err != nil {
		return err
	}
	// The framebuffer may be larger than the window on high density displays.
	fbw, fbh := window.GetFramebufferSize()
	frame, err := gleval.NewFrameGPU(glbuild.VertexShaderSource, fragSrc.String(), fbw, fbh)
	if err != nil {
		return err
	}
	defer frame.Delete()

	env := cfg.Env
	env.PixelRatio = float32(fbw) / float32(cfg.Width)
	center := cfg.Center
	if env.Zoom == 0 {
		env.Zoom, center = FitView(bounds, fbw, fbh, env.PixelRatio, 0.1)
	}
	minZoom := env.Zoom * 1e-3
	maxZoom := env.Zoom * 1e4
	var (
		lastMouseX, lastMouseY float64
		pressX, pressY         float64
		isMousePressed         bool
		refresh                = true
	)
	// pick reads the object-id under the cursor position in window coordinates.
	pick := func(xpos, ypos float64) {
		x := int(xpos * float64(env.PixelRatio))
		y := int(ypos * float64(env.PixelRatio))
		id, err := frame.ReadID(x, y)
		if err != nil {
			log.Println("pick:", err)
			return
		}
		if id[3] == 0 {
			log.Println("no shape under cursor")
			return
		}
		log.Printf("picked symbol %d instance %d", id[0], id[1])
		if cfg.OnPick != nil {
			cfg.OnPick(id[0], id[1])
		}
	}
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		switch key {
		case glfw.Key0, glfw.KeyKP0:
			env.DisplayMode = gleval.DisplayNormal
		case glfw.Key1, glfw.KeyKP1:
			env.DisplayMode = gleval.DisplayDistance
		case glfw.KeyEscape, glfw.KeyQ:
			w.SetShouldClose(true)
		default:
			return
		}
		refresh = true
	})
	window.SetCursorPosCallback(func(w *glfw.Window, xpos float64, ypos float64) {
		if !isMousePressed {
			return
		}
		refresh = true
		scale := env.Scale() / env.PixelRatio
		center.X -= float32(xpos-lastMouseX) / scale
		center.Y += float32(ypos-lastMouseY) / scale
		lastMouseX = xpos
		lastMouseY = ypos
	})
	window.SetScrollCallback(func(w *glfw.Window, xoff, yoff float64) {
		refresh = true
		env.Zoom *= 1 + 0.1*float32(yoff)
		env.Zoom = min(max(env.Zoom, minZoom), maxZoom)
	})
	window.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		if button != glfw.MouseButtonLeft {
			return
		}
		xpos, ypos := w.GetCursorPos()
		switch action {
		case glfw.Press:
			isMousePressed = true
			lastMouseX, lastMouseY = xpos, ypos
			pressX, pressY = xpos, ypos
		case glfw.Release:
			isMousePressed = false
			// A release without dragging is a click.
			if ms2.Norm(ms2.Vec{X: float32(xpos - pressX), Y: float32(ypos - pressY)}) < 3 {
				pick(xpos, ypos)
			}
		}
	})

	ctx := cfg.Context
	for !window.ShouldClose() {
		if ctx != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}
		if refresh {
			refresh = false
			err = frame.Draw(&env, center)
			if err != nil {
				return err
			}
			gl.BindFramebuffer(gl.READ_FRAMEBUFFER, frame.Framebuffer())
			gl.ReadBuffer(gl.COLOR_ATTACHMENT0)
			gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, 0)
			gl.Viewport(0, 0, int32(fbw), int32(fbh))
			gl.ClearColor(0, 0, 0, 1)
			gl.Clear(gl.COLOR_BUFFER_BIT)
			gl.BlitFramebuffer(0, 0, int32(fbw), int32(fbh), 0, 0, int32(fbw), int32(fbh), gl.COLOR_BUFFER_BIT, gl.NEAREST)
			gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)
			window.SwapBuffers()
		}
		time.Sleep(time.Second / 60)
		glfw.PollEvents()
	}
	return nil
}

func startGLFW(width, height int) (window *glfw.Window, term func(), err error) {
	if err := glfw.Init(); err != nil {
		return nil, nil, fmt.Errorf("initializing GLFW: %w", err)
	}
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 6)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.Resizable, glfw.False)

	window, err = glfw.CreateWindow(width, height, "glshape viewer", nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, nil, fmt.Errorf("creating GLFW window: %w", err)
	}
	window.MakeContextCurrent()
	if err := gl.Init(); err != nil {
		glfw.Terminate()
		return nil, nil, fmt.Errorf("initializing OpenGL: %w", err)
	}
	return window, glfw.Terminate, nil
}
