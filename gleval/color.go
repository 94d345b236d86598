package gleval

import (
	"image/color"

	"github.com/chewxy/math32"
	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/soypat/glshape/sdfmath"
)

// Color is a straight (not premultiplied) alpha color with RGB channels in linear space.
// A is expected to lie within [0, 1].
type Color struct {
	R, G, B, A float32
}

// Transparent is the color of a pixel outside of every shape.
var Transparent = Color{}

// LinearRGBA returns a Color from linear RGB components and straight alpha.
func LinearRGBA(r, g, b, a float32) Color {
	return Color{R: r, G: g, B: b, A: a}
}

// SRGBA returns a Color from gamma encoded sRGB components and straight alpha,
// as most color pickers and CSS hex values express them.
func SRGBA(r, g, b, a float32) Color {
	lr, lg, lb := colorful.Color{R: float64(r), G: float64(g), B: float64(b)}.LinearRgb()
	return Color{R: float32(lr), G: float32(lg), B: float32(lb), A: a}
}

// FromColor converts a standard library color to a linear straight alpha Color.
func FromColor(c color.Color) Color {
	nc := color.NRGBAModel.Convert(c).(color.NRGBA)
	const inv = 1. / 255
	return SRGBA(float32(nc.R)*inv, float32(nc.G)*inv, float32(nc.B)*inv, float32(nc.A)*inv)
}

// Vec4 returns the color as an RGBA vector.
func (c Color) Vec4() sdfmath.Vec4 { return sdfmath.Vec4{c.R, c.G, c.B, c.A} }

// RGB returns the color channels without alpha.
func (c Color) RGB() sdfmath.Vec3 { return sdfmath.Vec3{c.R, c.G, c.B} }

// EncodeSRGB applies the sRGB transfer curve to the linear color channels. Alpha is not modified.
func EncodeSRGB(c Color) sdfmath.Vec3 {
	e := colorful.LinearRgb(float64(c.R), float64(c.G), float64(c.B))
	return sdfmath.Vec3{float32(e.R), float32(e.G), float32(e.B)}
}

// PremultipliedSRGB returns the gamma encoded color with its RGB channels multiplied by alpha.
func PremultipliedSRGB(c Color) sdfmath.Vec4 {
	e := EncodeSRGB(c)
	a := c.A
	return sdfmath.Vec4{e[0] * a, e[1] * a, e[2] * a, a}
}

// DistanceMeter maps a signed distance to a display encoded debug color.
// Interior distances are normalized by inner and exterior distances by outer,
// both widths must be positive. Isolines are banded and the boundary is drawn white.
func DistanceMeter(d, inner, outer float32) sdfmath.Vec3 {
	var c sdfmath.Vec3
	var n float32
	if d > 0 {
		c = sdfmath.Vec3{0.9, 0.6, 0.3}
		n = d / outer
	} else {
		c = sdfmath.Vec3{0.65, 0.85, 1.0}
		n = -d / inner
	}
	k := (1 - math32.Exp(-6*n)) * (0.8 + 0.2*math32.Cos(150*n))
	for i := range c {
		c[i] *= k
	}
	edge := 1 - sdfmath.SmoothStep01(n/0.01)
	return sdfmath.MixVec(c, sdfmath.Vec3{1, 1, 1}, 1-edge, edge)
}
