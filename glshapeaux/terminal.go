package glshapeaux

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"runtime"

	"github.com/gdamore/tcell/v2"
	"github.com/soypat/glgl/math/ms2"
	"github.com/soypat/glshape/glbuild"
	"github.com/soypat/glshape/gleval"
	"github.com/soypat/glshape/glrender"
)

// TerminalConfig configures [TerminalPreview].
type TerminalConfig struct {
	// Env is the draw environment. A zero Zoom fits the shape to the terminal.
	Env    gleval.Env
	Center ms2.Vec
	// Screen to draw on. If nil a new screen is created for the controlling terminal.
	Screen tcell.Screen
	// Background is the color uncovered pixels are composited over.
	Background gleval.Color
	// Workers is the number of concurrent tile evaluations. Zero uses GOMAXPROCS.
	Workers int
	// OnPick is called when a click lands on a covered pixel.
	OnPick func(symbol, instance uint32)
}

// TerminalPreview draws s on a terminal using half block characters so that every
// cell shows two vertically stacked pixels. Keys 0 and 1 switch between the normal and
// distance display modes, +/- zoom, the arrow keys pan and q, Esc or Ctrl-C quit.
// Clicking a pixel picks the shape drawn there and shows it in the status line.
func TerminalPreview(ctx context.Context, s glbuild.ShapeShader, cfg TerminalConfig) error {
	if !cfg.Env.DisplayMode.IsValid() {
		return fmt.Errorf("%w %d", gleval.ErrDisplayMode, int32(cfg.Env.DisplayMode))
	}
	screen := cfg.Screen
	if screen == nil {
		var err error
		screen, err = tcell.NewScreen()
		if err != nil {
			return err
		}
		if err := screen.Init(); err != nil {
			return err
		}
		defer screen.Fini()
	}
	screen.EnableMouse()
	tv, err := newTerminalView(screen, s, cfg)
	if err != nil {
		return err
	}
	// Unbuffered so that at most one event of a caller owned screen is lost after returning.
	events := make(chan tcell.Event)
	quitEvents := make(chan struct{})
	defer close(quitEvents)
	go screen.ChannelEvents(events, quitEvents)
	err = tv.draw(ctx)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			quit, redraw := tv.handle(ev)
			if quit {
				return nil
			}
			if redraw {
				err = tv.draw(ctx)
				if err != nil {
					return err
				}
			}
		}
	}
}

type terminalView struct {
	screen   tcell.Screen
	sdf      gleval.ShapeSDF
	bounds   ms2.Box
	renderer *glrender.FrameRenderer
	env      gleval.Env
	center   ms2.Vec
	bg       color.RGBA
	onPick   func(symbol, instance uint32)

	img    *image.RGBA
	ids    *glrender.IDBuffer
	status string
}

func newTerminalView(screen tcell.Screen, s glbuild.ShapeShader, cfg TerminalConfig) (*terminalView, error) {
	sdf, err := gleval.AssertShapeSDF(s)
	if err != nil {
		return nil, err
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	renderer, err := glrender.NewFrameRenderer(16, workers)
	if err != nil {
		return nil, err
	}
	env := cfg.Env
	if env.PixelRatio == 0 {
		env.PixelRatio = 1
	}
	tv := &terminalView{
		screen:   screen,
		sdf:      sdf,
		bounds:   s.Bounds(),
		renderer: renderer,
		env:      env,
		center:   cfg.Center,
		bg:       opaqueSRGB(cfg.Background),
		onPick:   cfg.OnPick,
	}
	return tv, nil
}

// frameSize returns the pixel size of the drawing area. The last terminal row is the status line.
func (tv *terminalView) frameSize() (width, height int) {
	cols, rows := tv.screen.Size()
	return cols, 2 * (rows - 1)
}

func (tv *terminalView) draw(ctx context.Context) error {
	w, h := tv.frameSize()
	if w <= 0 || h <= 0 {
		return nil
	}
	if tv.env.Zoom == 0 {
		tv.env.Zoom, tv.center = FitView(tv.bounds, w, h, tv.env.PixelRatio, 0.1)
	}
	if tv.img == nil || tv.img.Rect.Dx() != w || tv.img.Rect.Dy() != h {
		tv.img = image.NewRGBA(image.Rect(0, 0, w, h))
		tv.ids, _ = glrender.NewIDBuffer(w, h)
	}
	err := tv.renderer.Render(ctx, &tv.env, tv.sdf, tv.center, tv.img, tv.ids)
	if err != nil {
		return err
	}
	for row := 0; row < h/2; row++ {
		for x := 0; x < w; x++ {
			top := tv.composite(x, 2*row)
			bottom := tv.composite(x, 2*row+1)
			style := tcell.StyleDefault.Foreground(top).Background(bottom)
			tv.screen.SetContent(x, row, '▀', nil, style)
		}
	}
	status := []rune(tv.status)
	for x := 0; x < w; x++ {
		r := ' '
		if x < len(status) {
			r = status[x]
		}
		tv.screen.SetContent(x, h/2, r, nil, tcell.StyleDefault)
	}
	tv.screen.Show()
	return nil
}

// composite returns the terminal color of pixel (x,y) over the background.
// Pixel colors are premultiplied so the background is weighed by the uncovered fraction.
func (tv *terminalView) composite(x, y int) tcell.Color {
	c := tv.img.RGBAAt(x, y)
	inv := 255 - int32(c.A)
	over := func(fg, bg uint8) int32 {
		return min(255, int32(fg)+(int32(bg)*inv+127)/255)
	}
	return tcell.NewRGBColor(over(c.R, tv.bg.R), over(c.G, tv.bg.G), over(c.B, tv.bg.B))
}

// handle applies ev to the view. It reports whether the preview should quit
// and whether the frame must be drawn again.
func (tv *terminalView) handle(ev tcell.Event) (quit, redraw bool) {
	const zoomStep = 1.25
	const panCells = 4
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return true, false
		case tcell.KeyUp:
			tv.center.Y += 2 * panCells / tv.env.Scale()
		case tcell.KeyDown:
			tv.center.Y -= 2 * panCells / tv.env.Scale()
		case tcell.KeyLeft:
			tv.center.X -= panCells / tv.env.Scale()
		case tcell.KeyRight:
			tv.center.X += panCells / tv.env.Scale()
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'q':
				return true, false
			case '0':
				tv.env.DisplayMode = gleval.DisplayNormal
			case '1':
				tv.env.DisplayMode = gleval.DisplayDistance
			case '+', '=':
				tv.env.Zoom *= zoomStep
			case '-':
				tv.env.Zoom /= zoomStep
			default:
				return false, false
			}
		default:
			return false, false
		}
		return false, true

	case *tcell.EventMouse:
		if ev.Buttons()&tcell.Button1 == 0 || tv.ids == nil {
			return false, false
		}
		x, row := ev.Position()
		tv.pick(x, row)
		return false, true

	case *tcell.EventResize:
		tv.screen.Sync()
		return false, true
	}
	return false, false
}

// pick looks up the shape drawn at terminal cell (x,row), preferring its top pixel.
func (tv *terminalView) pick(x, row int) {
	sym, inst, ok := tv.ids.Pick(x, 2*row)
	if !ok {
		sym, inst, ok = tv.ids.Pick(x, 2*row+1)
	}
	if !ok {
		tv.status = "no shape"
		return
	}
	tv.status = fmt.Sprintf("picked symbol %d instance %d", sym, inst)
	if tv.onPick != nil {
		tv.onPick(sym, inst)
	}
}
