package glshape

import (
	"fmt"

	"github.com/soypat/glgl/math/ms2"
	"github.com/soypat/glshape/glbuild"
	"github.com/soypat/glshape/glbuild/glsllib"
	"github.com/soypat/glshape/gleval"
)

func (bld *Builder) checkColor(c gleval.Color, fn string) {
	ok := isFinite(c.R) && isFinite(c.G) && isFinite(c.B) && c.A >= 0 && c.A <= 1
	if !ok {
		bld.shapeErrorf("bad color %v to %s", c, fn)
	}
}

// Fill paints the interior of s with color c. The boundary is anti-aliased
// over one device pixel using the draw environment's zoom and pixel ratio.
func (bld *Builder) Fill(s glbuild.Shader2D, c gleval.Color) glbuild.ShapeShader {
	if s == nil {
		bld.nilsdf("Fill")
	}
	bld.checkColor(c, "Fill")
	return &fill{s: s, c: c}
}

type fill struct {
	s glbuild.Shader2D
	c gleval.Color
}

func (f *fill) Bounds() ms2.Box { return f.s.Bounds() }

func (f *fill) ForEachShapeChild(userData any, fnShape func(userData any, s *glbuild.ShapeShader) error, fn2 func(userData any, s *glbuild.Shader2D) error) error {
	return fn2(userData, &f.s)
}

func (f *fill) AppendShaderName(b []byte) []byte {
	b = append(b, "fill"...)
	b = glbuild.AppendFloats(b, 'x', 'n', 'p', f.c.R, f.c.G, f.c.B, f.c.A)
	b = append(b, '_')
	b = f.s.AppendShaderName(b)
	return b
}

func (f *fill) AppendShaderBody(b []byte) []byte {
	b = glbuild.AppendDistanceDecl(b, "d", "p", f.s)
	b = glbuild.AppendVec4Decl(b, "c", f.c.Vec4())
	b = append(b, `c.a *= gsdfClamp01(0.5 - d*env.zoom*env.pixel_ratio);
return Shape(d, c);`...)
	return b
}

func (f *fill) AppendShaderObjects(objects []glbuild.ShaderObject) []glbuild.ShaderObject {
	return append(objects, glbuild.LibraryFunction(glsllib.Clamp01()))
}

// SoftFill paints the interior of s with color c fading out across a band
// of the given width in shape units centered on the boundary.
func (bld *Builder) SoftFill(s glbuild.Shader2D, c gleval.Color, width float32) glbuild.ShapeShader {
	if s == nil {
		bld.nilsdf("SoftFill")
	}
	bld.checkColor(c, "SoftFill")
	if !(width > 0) || !isFinite(width) {
		bld.shapeErrorf("bad soft fill width %g", width)
	}
	return &softFill{s: s, c: c, w: width}
}

type softFill struct {
	s glbuild.Shader2D
	c gleval.Color
	w float32
}

func (f *softFill) Bounds() ms2.Box {
	bb := f.s.Bounds()
	bb.Min = ms2.AddScalar(-f.w/2, bb.Min)
	bb.Max = ms2.AddScalar(f.w/2, bb.Max)
	return bb
}

func (f *softFill) ForEachShapeChild(userData any, fnShape func(userData any, s *glbuild.ShapeShader) error, fn2 func(userData any, s *glbuild.Shader2D) error) error {
	return fn2(userData, &f.s)
}

func (f *softFill) AppendShaderName(b []byte) []byte {
	b = append(b, "softfill"...)
	b = glbuild.AppendFloats(b, 'x', 'n', 'p', f.c.R, f.c.G, f.c.B, f.c.A, f.w)
	b = append(b, '_')
	b = f.s.AppendShaderName(b)
	return b
}

func (f *softFill) AppendShaderBody(b []byte) []byte {
	b = glbuild.AppendDistanceDecl(b, "d", "p", f.s)
	b = glbuild.AppendVec4Decl(b, "c", f.c.Vec4())
	b = glbuild.AppendFloatDecl(b, "w", f.w)
	b = append(b, `c.a *= 1.0 - gsdfSmooth01(d/w + 0.5);
return Shape(d, c);`...)
	return b
}

func (f *softFill) AppendShaderObjects(objects []glbuild.ShaderObject) []glbuild.ShaderObject {
	return append(objects, glbuild.LibraryFunction(glsllib.SmoothStep01()))
}

// OpLayers is the result of [Builder.Layers]. It is exported so that nested
// layer stacks can be detected and flattened.
type OpLayers struct {
	layers []glbuild.ShapeShader
}

// Layers stacks shapes from bottom to top, each one composed over the ones before it.
// Colors blend with the alpha "over" operator and the resulting boundary is the union of all boundaries.
func (bld *Builder) Layers(shapes ...glbuild.ShapeShader) glbuild.ShapeShader {
	if len(shapes) < 2 {
		panic("need at least 2 arguments to Layers")
	}
	var L OpLayers
	for i, s := range shapes {
		if s == nil {
			bld.nilsdf(fmt.Sprintf("%d argument to Layers", i))
		}
		if sub, ok := s.(*OpLayers); ok {
			// Composition is associative so nested stacks are spliced in.
			L.layers = append(L.layers, sub.layers...)
		} else {
			L.layers = append(L.layers, s)
		}
	}
	return &L
}

func (l *OpLayers) Bounds() ms2.Box {
	l.mustValidate()
	bb := l.layers[0].Bounds()
	for _, layer := range l.layers[1:] {
		bb = bb.Union(layer.Bounds())
	}
	return bb
}

func (l *OpLayers) ForEachShapeChild(userData any, fnShape func(userData any, s *glbuild.ShapeShader) error, fn2 func(userData any, s *glbuild.Shader2D) error) error {
	l.mustValidate()
	for i := range l.layers {
		err := fnShape(userData, &l.layers[i])
		if err != nil {
			return err
		}
	}
	return nil
}

func (l *OpLayers) AppendShaderName(b []byte) []byte {
	l.mustValidate()
	b = append(b, "layers_"...)
	for i := range l.layers {
		b = l.layers[i].AppendShaderName(b)
		if i < len(l.layers)-1 {
			b = append(b, '_')
		}
	}
	return b
}

func (l *OpLayers) AppendShaderBody(b []byte) []byte {
	l.mustValidate()
	b = glbuild.AppendShapeDecl(b, "s", "p", l.layers[0])
	for _, layer := range l.layers[1:] {
		b = append(b, "s=gsdfOver(s,"...)
		b = layer.AppendShaderName(b)
		b = append(b, "(env,p));\n"...)
	}
	b = append(b, "return s;"...)
	return b
}

func (l *OpLayers) AppendShaderObjects(objects []glbuild.ShaderObject) []glbuild.ShaderObject {
	return append(objects,
		glbuild.LibraryFunction(glsllib.Mix()),
		glbuild.LibraryFunction(glsllib.Over()),
	)
}

func (l *OpLayers) mustValidate() {
	if len(l.layers) < 2 {
		panic("OpLayers must have at least 2 elements. Please prefer using Builder.Layers over OpLayers")
	}
}

// Clip keeps the part of shape inside mask. The clipped edge is anti-aliased like [Builder.Fill].
func (bld *Builder) Clip(shape glbuild.ShapeShader, mask glbuild.Shader2D) glbuild.ShapeShader {
	if shape == nil || mask == nil {
		bld.nilsdf("Clip")
	}
	return &clip{s: shape, mask: mask}
}

type clip struct {
	s    glbuild.ShapeShader
	mask glbuild.Shader2D
}

func (c *clip) Bounds() ms2.Box {
	return c.s.Bounds().Intersect(c.mask.Bounds())
}

func (c *clip) ForEachShapeChild(userData any, fnShape func(userData any, s *glbuild.ShapeShader) error, fn2 func(userData any, s *glbuild.Shader2D) error) error {
	err := fnShape(userData, &c.s)
	if err == nil {
		err = fn2(userData, &c.mask)
	}
	return err
}

func (c *clip) AppendShaderName(b []byte) []byte {
	b = append(b, "clip_"...)
	b = c.s.AppendShaderName(b)
	b = append(b, "_"...)
	b = c.mask.AppendShaderName(b)
	return b
}

func (c *clip) AppendShaderBody(b []byte) []byte {
	b = glbuild.AppendShapeDecl(b, "s", "p", c.s)
	b = glbuild.AppendDistanceDecl(b, "m", "p", c.mask)
	b = append(b, `s.color.a *= gsdfClamp01(0.5 - m*env.zoom*env.pixel_ratio);
s.distance = max(s.distance, m);
return s;`...)
	return b
}

func (c *clip) AppendShaderObjects(objects []glbuild.ShaderObject) []glbuild.ShaderObject {
	return append(objects, glbuild.LibraryFunction(glsllib.Clamp01()))
}

// Opacity multiplies the alpha of shape by f which must lie in [0,1].
func (bld *Builder) Opacity(shape glbuild.ShapeShader, f float32) glbuild.ShapeShader {
	if shape == nil {
		bld.nilsdf("Opacity")
	}
	if !(f >= 0 && f <= 1) {
		bld.shapeErrorf("opacity %g outside of [0,1]", f)
	}
	return &opacity{s: shape, f: f}
}

type opacity struct {
	s glbuild.ShapeShader
	f float32
}

func (o *opacity) Bounds() ms2.Box { return o.s.Bounds() }

func (o *opacity) ForEachShapeChild(userData any, fnShape func(userData any, s *glbuild.ShapeShader) error, fn2 func(userData any, s *glbuild.Shader2D) error) error {
	return fnShape(userData, &o.s)
}

func (o *opacity) AppendShaderName(b []byte) []byte {
	b = append(b, "opacity"...)
	b = glbuild.AppendFloat(b, 'n', 'p', o.f)
	b = append(b, '_')
	b = o.s.AppendShaderName(b)
	return b
}

func (o *opacity) AppendShaderBody(b []byte) []byte {
	b = glbuild.AppendShapeDecl(b, "s", "p", o.s)
	b = append(b, "s.color.a *= "...)
	b = glbuild.AppendFloat(b, '-', '.', o.f)
	b = append(b, ";\nreturn s;"...)
	return b
}

func (o *opacity) AppendShaderObjects(objects []glbuild.ShaderObject) []glbuild.ShaderObject {
	return objects
}

// TranslateShape moves a colored shape in the direction (dirX, dirY).
func (bld *Builder) TranslateShape(shape glbuild.ShapeShader, dirX, dirY float32) glbuild.ShapeShader {
	if shape == nil {
		bld.nilsdf("TranslateShape")
	} else if !isFinite(dirX) || !isFinite(dirY) {
		bld.shapeErrorf("non-finite translation (%g,%g)", dirX, dirY)
	}
	return &translateShape{s: shape, p: ms2.Vec{X: dirX, Y: dirY}}
}

type translateShape struct {
	s glbuild.ShapeShader
	p ms2.Vec
}

func (t *translateShape) Bounds() ms2.Box { return t.s.Bounds().Add(t.p) }

func (t *translateShape) ForEachShapeChild(userData any, fnShape func(userData any, s *glbuild.ShapeShader) error, fn2 func(userData any, s *glbuild.Shader2D) error) error {
	return fnShape(userData, &t.s)
}

func (t *translateShape) AppendShaderName(b []byte) []byte {
	b = append(b, "translateShape"...)
	b = glbuild.AppendFloats(b, 'x', 'n', 'p', t.p.X, t.p.Y)
	b = append(b, '_')
	b = t.s.AppendShaderName(b)
	return b
}

func (t *translateShape) AppendShaderBody(b []byte) []byte {
	b = glbuild.AppendVec2Decl(b, "t", t.p)
	b = append(b, "return "...)
	b = t.s.AppendShaderName(b)
	b = append(b, "(env,p-t);"...)
	return b
}

func (t *translateShape) AppendShaderObjects(objects []glbuild.ShaderObject) []glbuild.ShaderObject {
	return objects
}
