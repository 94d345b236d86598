package glshapeaux

import (
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/soypat/glshape/gleval"
	"github.com/soypat/glshape/sdfmath"
)

// Palette returns n evenly spaced hues with the given saturation and value, suitable for
// telling apart the fills of a scene. Colors are returned in linear RGB with full alpha.
func Palette(n int, saturation, value float64) []gleval.Color {
	if n <= 0 {
		return nil
	}
	colors := make([]gleval.Color, n)
	for i := range colors {
		h := 360 * float64(i) / float64(n)
		r, g, b := colorful.Hsv(h, saturation, value).LinearRgb()
		colors[i] = gleval.LinearRGBA(float32(r), float32(g), float32(b), 1)
	}
	return colors
}

// Blend interpolates between c0 and c1 in the perceptually uniform HCL space. t is clamped to [0,1].
// Alpha is interpolated linearly.
func Blend(c0, c1 gleval.Color, t float32) gleval.Color {
	if t <= 0 {
		return c0
	} else if t >= 1 {
		return c1
	}
	a := colorful.LinearRgb(float64(c0.R), float64(c0.G), float64(c0.B))
	b := colorful.LinearRgb(float64(c1.R), float64(c1.G), float64(c1.B))
	r, g, bl := a.BlendHcl(b, float64(t)).Clamped().LinearRgb()
	return gleval.LinearRGBA(float32(r), float32(g), float32(bl), c0.A+(c1.A-c0.A)*t)
}

// Gradient returns n colors blended from c0 to c1, both included.
func Gradient(n int, c0, c1 gleval.Color) []gleval.Color {
	if n <= 0 {
		return nil
	} else if n == 1 {
		return []gleval.Color{c0}
	}
	colors := make([]gleval.Color, n)
	for i := range colors {
		colors[i] = Blend(c0, c1, float32(i)/float32(n-1))
	}
	return colors
}

// ParseHex parses a "#rrggbb" sRGB color into a linear opaque [gleval.Color].
func ParseHex(s string) (gleval.Color, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return gleval.Color{}, err
	}
	return gleval.FromColor(c), nil
}

// opaqueSRGB quantizes the sRGB encoding of c ignoring its alpha.
func opaqueSRGB(c gleval.Color) color.RGBA {
	rgb := gleval.EncodeSRGB(c)
	q := func(v float32) uint8 { return uint8(sdfmath.Clamp01(v)*255 + 0.5) }
	return color.RGBA{R: q(rgb[0]), G: q(rgb[1]), B: q(rgb[2]), A: 255}
}
