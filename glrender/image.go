package glrender

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/soypat/glgl/math/ms2"
	"github.com/soypat/glshape/gleval"
	"github.com/soypat/glshape/sdfmath"
	"golang.org/x/sync/errgroup"
)

// FrameRenderer draws a [gleval.ShapeSDF] over a frame split into square tiles
// which are evaluated concurrently.
type FrameRenderer struct {
	tileSize int
	workers  int
}

// NewFrameRenderer returns a FrameRenderer that evaluates tiles of tileSize x tileSize
// pixels with at most workers tiles evaluated at a time.
func NewFrameRenderer(tileSize, workers int) (*FrameRenderer, error) {
	if tileSize < 1 {
		return nil, errors.New("tile size must be positive")
	} else if workers < 1 {
		return nil, errors.New("need at least one worker")
	}
	return &FrameRenderer{tileSize: tileSize, workers: workers}, nil
}

// tileWork is the scratch space of one worker.
type tileWork struct {
	vp     gleval.VecPool
	pos    []ms2.Vec
	colors []sdfmath.Vec4
	ids    [][4]uint32
}

// Render draws shape into dst and ids, either of which may be nil but not both.
// When both are set they must be of equal size. The frame's center maps to the shape
// space point center and one shape space unit spans env.Zoom*env.PixelRatio pixels.
// Pixel (px,py) samples its center with y growing upwards in shape space, matching the fragment program.
func (fr *FrameRenderer) Render(ctx context.Context, env *gleval.Env, shape gleval.ShapeSDF, center ms2.Vec, dst *image.RGBA, ids *IDBuffer) error {
	if err := env.Validate(); err != nil {
		return err
	}
	var frame image.Rectangle
	switch {
	case dst == nil && ids == nil:
		return errors.New("nil image and id buffer")
	case dst == nil:
		frame = ids.Bounds()
	case ids == nil:
		frame = dst.Rect
	default:
		frame = dst.Rect
		if frame.Dx() != ids.W || frame.Dy() != ids.H {
			return fmt.Errorf("image size %dx%d does not match id buffer %dx%d", frame.Dx(), frame.Dy(), ids.W, ids.H)
		}
	}
	width, height := frame.Dx(), frame.Dy()
	if width == 0 || height == 0 {
		return errors.New("empty frame")
	}

	ts := fr.tileSize
	free := make(chan *tileWork, fr.workers)
	for i := 0; i < fr.workers; i++ {
		free <- &tileWork{
			pos:    make([]ms2.Vec, ts*ts),
			colors: make([]sdfmath.Vec4, ts*ts),
			ids:    make([][4]uint32, ts*ts),
		}
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(fr.workers)
	for ty := 0; ty < height; ty += ts {
		for tx := 0; tx < width; tx += ts {
			tile := image.Rect(tx, ty, min(tx+ts, width), min(ty+ts, height))
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				work := <-free
				defer func() { free <- work }()
				return fr.renderTile(work, env, shape, center, width, height, tile, dst, ids)
			})
		}
	}
	return g.Wait()
}

func (fr *FrameRenderer) renderTile(work *tileWork, env *gleval.Env, shape gleval.ShapeSDF, center ms2.Vec, width, height int, tile image.Rectangle, dst *image.RGBA, ids *IDBuffer) error {
	n := tile.Dx() * tile.Dy()
	pos := work.pos[:n]
	scale := env.Scale()
	halfW, halfH := float32(width)/2, float32(height)/2
	i := 0
	for py := tile.Min.Y; py < tile.Max.Y; py++ {
		// Fragment coordinates grow upwards from the bottom row.
		fragY := float32(height-1-py) + 0.5
		for px := tile.Min.X; px < tile.Max.X; px++ {
			pos[i] = ms2.Vec{
				X: center.X + (float32(px)+0.5-halfW)/scale,
				Y: center.Y + (fragY-halfH)/scale,
			}
			i++
		}
	}
	colors := work.colors[:n]
	tileIDs := work.ids[:n]
	err := gleval.EvaluatePixels(env, shape, pos, colors, tileIDs, &work.vp)
	if err != nil {
		return err
	}
	i = 0
	for py := tile.Min.Y; py < tile.Max.Y; py++ {
		for px := tile.Min.X; px < tile.Max.X; px++ {
			if dst != nil {
				dst.SetRGBA(dst.Rect.Min.X+px, dst.Rect.Min.Y+py, ToRGBA(colors[i]))
			}
			if ids != nil {
				ids.IDs[py*ids.W+px] = tileIDs[i]
			}
			i++
		}
	}
	return nil
}

// ToRGBA quantizes a premultiplied display color to 8 bits per channel.
// It is used for both CPU rendered and GPU read back colors, see [gleval.FrameGPU.ReadColors].
func ToRGBA(c sdfmath.Vec4) color.RGBA {
	q := func(v float32) uint8 {
		return uint8(sdfmath.Clamp01(v)*255 + 0.5)
	}
	return color.RGBA{R: q(c[0]), G: q(c[1]), B: q(c[2]), A: q(c[3])}
}
