package glshapeaux

import (
	"context"
	"errors"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/soypat/glgl/math/ms2"
	"github.com/soypat/glshape"
	"github.com/soypat/glshape/glbuild"
	"github.com/soypat/glshape/gleval"
)

func redCircle() glbuild.ShapeShader {
	var bld glshape.Builder
	return bld.Fill(bld.NewCircle(1), gleval.LinearRGBA(1, 0, 0, 1))
}

func TestRenderFrameCPU(t *testing.T) {
	cfg := RenderConfig{
		Width:   40,
		Height:  30,
		Env:     gleval.Env{SymbolID: 3, InstanceID: 9},
		Workers: 2,
		Silent:  true,
	}
	frame, err := RenderFrame(context.Background(), redCircle(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if zoom := frame.Env.Zoom; zoom < 13.49 || zoom > 13.51 {
		t.Errorf("fitted zoom got %g, want 13.5", frame.Env.Zoom)
	}
	sym, inst, ok := frame.IDs.Pick(20, 15)
	if !ok || sym != 3 || inst != 9 {
		t.Errorf("center pick got (%d,%d,%v)", sym, inst, ok)
	}
	if c := frame.Image.RGBAAt(20, 15); c != (color.RGBA{R: 255, A: 255}) {
		t.Errorf("center color got %+v", c)
	}
	if _, _, ok := frame.IDs.Pick(0, 0); ok {
		t.Error("corner must not be covered")
	}

	cfg.Supersample = 2
	ss, err := RenderFrame(context.Background(), redCircle(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if c := ss.Image.RGBAAt(20, 15); c != (color.RGBA{R: 255, A: 255}) {
		t.Errorf("supersampled center color got %+v", c)
	}
	if c := ss.Image.RGBAAt(0, 0); c.A != 0 {
		t.Errorf("supersampled corner must be transparent, got %+v", c)
	}
	if ss.IDs.At(20, 15) != frame.IDs.At(20, 15) {
		t.Error("supersampling must not change ids")
	}
}

func TestRenderFrameErrors(t *testing.T) {
	ctx := context.Background()
	_, err := RenderFrame(ctx, redCircle(), RenderConfig{Width: 0, Height: 10, Silent: true})
	if err == nil {
		t.Error("expected error for zero width")
	}
	_, err = RenderFrame(ctx, redCircle(), RenderConfig{
		Width: 10, Height: 10, Silent: true,
		Env: gleval.Env{Zoom: 1, DisplayMode: 9},
	})
	if !errors.Is(err, gleval.ErrDisplayMode) {
		t.Errorf("expected display mode error, got %v", err)
	}
}

func TestRenderPNGFile(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "circle.png")
	idFilename := filepath.Join(dir, "circle-ids.png")
	blue := color.RGBA{B: 255, A: 255}
	frame, err := RenderPNGFile(filename, redCircle(), RenderConfig{
		Width: 32, Height: 32, Silent: true, Background: blue, IDFilename: idFilename,
	})
	if err != nil {
		t.Fatal(err)
	}
	fp, err := os.Open(filename)
	if err != nil {
		t.Fatal(err)
	}
	defer fp.Close()
	img, err := png.Decode(fp)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 32 || img.Bounds().Dy() != 32 {
		t.Fatalf("unexpected image size %v", img.Bounds())
	}
	r, g, b, a := img.At(0, 0).RGBA()
	if r != 0 || g != 0 || b != 0xffff || a != 0xffff {
		t.Errorf("corner must show background, got %d %d %d %d", r, g, b, a)
	}
	r, g, b, a = img.At(16, 16).RGBA()
	if r != 0xffff || g != 0 || b != 0 || a != 0xffff {
		t.Errorf("center must show shape, got %d %d %d %d", r, g, b, a)
	}
	if _, err := os.Stat(idFilename); err != nil {
		t.Fatal(err)
	}
	ids := IDImage(frame.IDs)
	if ids.RGBAAt(0, 0).A != 0 || ids.RGBAAt(16, 16).A != 255 {
		t.Error("id image must be opaque exactly where shapes are picked")
	}
}

func TestFitView(t *testing.T) {
	bounds := ms2.NewBox(1, -1, 5, 1)
	zoom, center := FitView(bounds, 100, 100, 2, 0.5)
	// Width is the constraining dimension: 0.5*100/(4*2).
	if zoom != 6.25 {
		t.Errorf("got zoom %g, want 6.25", zoom)
	}
	if center != (ms2.Vec{X: 3, Y: 0}) {
		t.Errorf("got center %v", center)
	}
}

func TestPalette(t *testing.T) {
	colors := Palette(6, 1, 1)
	if len(colors) != 6 {
		t.Fatalf("got %d colors", len(colors))
	}
	// Hue zero is pure red.
	if c := colors[0]; c.R < 0.999 || c.G > 1e-6 || c.B > 1e-6 || c.A != 1 {
		t.Errorf("first palette color not red: %+v", c)
	}
	for i := range colors {
		for j := i + 1; j < len(colors); j++ {
			if colors[i] == colors[j] {
				t.Errorf("palette colors %d and %d are equal", i, j)
			}
		}
	}
	if Palette(0, 1, 1) != nil {
		t.Error("empty palette must be nil")
	}
}

func TestBlendGradient(t *testing.T) {
	c0 := gleval.LinearRGBA(1, 0, 0, 1)
	c1 := gleval.LinearRGBA(0, 0, 1, 0)
	if Blend(c0, c1, -1) != c0 || Blend(c0, c1, 2) != c1 {
		t.Error("blend must clamp to endpoints")
	}
	mid := Blend(c0, c1, 0.5)
	if mid.A != 0.5 {
		t.Errorf("alpha must blend linearly, got %g", mid.A)
	}
	grad := Gradient(5, c0, c1)
	if len(grad) != 5 || grad[0] != c0 || grad[4] != c1 {
		t.Errorf("gradient must include endpoints: %+v", grad)
	}
	c, err := ParseHex("#ffffff")
	if err != nil {
		t.Fatal(err)
	}
	if c.R < 0.999 || c.G < 0.999 || c.B < 0.999 {
		t.Errorf("white parsed as %+v", c)
	}
	if opaqueSRGB(c) != (color.RGBA{R: 255, G: 255, B: 255, A: 255}) {
		t.Errorf("white must quantize to opaque white, got %+v", opaqueSRGB(c))
	}
	c, err = ParseHex("#336699")
	if err != nil {
		t.Fatal(err)
	}
	if got := opaqueSRGB(c); got != (color.RGBA{R: 0x33, G: 0x66, B: 0x99, A: 255}) {
		t.Errorf("hex color must survive linearization, got %+v", got)
	}
	if got := opaqueSRGB(gleval.LinearRGBA(-1, 2, 0.5, 0)); got.R != 0 || got.G != 255 || got.A != 255 {
		t.Errorf("out of range channels must clamp, got %+v", got)
	}
	if _, err := ParseHex("nothex"); err == nil {
		t.Error("expected error for invalid hex")
	}
}

func newSimScreen(t *testing.T, width, height int) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(screen.Fini)
	screen.SetSize(width, height)
	return screen
}

func TestTerminalView(t *testing.T) {
	ctx := context.Background()
	screen := newSimScreen(t, 20, 11)
	var picked [2]uint32
	tv, err := newTerminalView(screen, redCircle(), TerminalConfig{
		Env:     gleval.Env{SymbolID: 2, InstanceID: 7},
		Workers: 2,
		OnPick:  func(symbol, instance uint32) { picked = [2]uint32{symbol, instance} },
	})
	if err != nil {
		t.Fatal(err)
	}
	err = tv.draw(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if w, h := tv.frameSize(); w != 20 || h != 20 {
		t.Fatalf("frame size got %dx%d", w, h)
	}
	red := tcell.NewRGBColor(255, 0, 0)
	black := tcell.NewRGBColor(0, 0, 0)
	r, _, style, _ := screen.GetContent(10, 5)
	if r != '▀' || style != tcell.StyleDefault.Foreground(red).Background(red) {
		t.Errorf("center cell got %q %v", r, style)
	}
	_, _, cornerStyle, _ := screen.GetContent(0, 0)
	if cornerStyle != tcell.StyleDefault.Foreground(black).Background(black) {
		t.Errorf("corner cell must show background, got %v", cornerStyle)
	}

	quit, redraw := tv.handle(tcell.NewEventMouse(10, 5, tcell.Button1, tcell.ModNone))
	if quit || !redraw {
		t.Fatal("click must redraw")
	}
	if picked != [2]uint32{2, 7} {
		t.Errorf("picked %v", picked)
	}
	if err = tv.draw(ctx); err != nil {
		t.Fatal(err)
	}
	if r, _, _, _ := screen.GetContent(0, 10); r != 'p' {
		t.Errorf("status line must report the pick, got %q", r)
	}
	tv.handle(tcell.NewEventMouse(0, 0, tcell.Button1, tcell.ModNone))
	if tv.status != "no shape" {
		t.Errorf("unexpected status %q", tv.status)
	}

	zoom := tv.env.Zoom
	tv.handle(tcell.NewEventKey(tcell.KeyRune, '+', tcell.ModNone))
	if tv.env.Zoom <= zoom {
		t.Error("+ must zoom in")
	}
	_, redraw = tv.handle(tcell.NewEventKey(tcell.KeyRune, '1', tcell.ModNone))
	if !redraw || tv.env.DisplayMode != gleval.DisplayDistance {
		t.Fatal("1 must switch to distance mode")
	}
	if err = tv.draw(ctx); err != nil {
		t.Fatal(err)
	}
	if _, _, style, _ := screen.GetContent(0, 0); style == cornerStyle {
		t.Error("distance mode must color uncovered cells")
	}
	tv.handle(tcell.NewEventKey(tcell.KeyRune, '0', tcell.ModNone))
	if tv.env.DisplayMode != gleval.DisplayNormal {
		t.Error("0 must switch to normal mode")
	}
	if _, redraw := tv.handle(tcell.NewEventKey(tcell.KeyRune, 'z', tcell.ModNone)); redraw {
		t.Error("unbound key must not redraw")
	}
	if quit, _ := tv.handle(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)); !quit {
		t.Error("escape must quit")
	}
}

func TestTerminalPreviewQuit(t *testing.T) {
	screen := newSimScreen(t, 16, 9)
	screen.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)
	err := TerminalPreview(context.Background(), redCircle(), TerminalConfig{Screen: screen})
	if err != nil {
		t.Fatal(err)
	}
	err = TerminalPreview(context.Background(), redCircle(), TerminalConfig{
		Screen: screen,
		Env:    gleval.Env{DisplayMode: 4},
	})
	if !errors.Is(err, gleval.ErrDisplayMode) {
		t.Errorf("expected display mode error, got %v", err)
	}
}

func TestTerminalPreviewCancel(t *testing.T) {
	screen := newSimScreen(t, 16, 9)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := TerminalPreview(ctx, redCircle(), TerminalConfig{Screen: screen})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
	// The screen is still ours: events posted after the preview returned must reach us.
	const keys = 40
	go func() {
		for i := 0; i < keys; i++ {
			screen.InjectKey(tcell.KeyRune, 'a', tcell.ModNone)
		}
	}()
	events := make(chan tcell.Event)
	quit := make(chan struct{})
	defer close(quit)
	go screen.ChannelEvents(events, quit)
	for received := 0; received < keys-1; received++ {
		select {
		case ev := <-events:
			if _, ok := ev.(*tcell.EventKey); !ok {
				t.Fatalf("unexpected event %T", ev)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out after receiving %d of %d keys", received, keys)
		}
	}
}
