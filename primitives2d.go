package glshape

import (
	"github.com/chewxy/math32"
	"github.com/soypat/glgl/math/ms2"
	"github.com/soypat/glshape/glbuild"
	"github.com/soypat/glshape/glbuild/glsllib"
	"github.com/soypat/glshape/sdfmath"
)

type circle2D struct {
	r float32
}

// NewCircle creates a circle of a radius centered at the origin (x,y)=(0,0).
func (bld *Builder) NewCircle(radius float32) glbuild.Shader2D {
	okRadius := radius > 0 && !math32.IsInf(radius, 1)
	if !okRadius {
		bld.shapeErrorf("bad circle radius %g", radius)
	}
	return &circle2D{r: radius}
}

func (c *circle2D) Bounds() ms2.Box {
	r := c.r
	return ms2.NewBox(-r, -r, r, r)
}

func (c *circle2D) AppendShaderName(b []byte) []byte {
	b = append(b, "circle"...)
	b = glbuild.AppendFloat(b, 'n', 'p', c.r)
	return b
}

func (c *circle2D) AppendShaderBody(b []byte) []byte {
	b = glbuild.AppendFloatDecl(b, "r", c.r)
	b = append(b, "return length(p)-r;"...)
	return b
}

func (c *circle2D) ForEach2DChild(userData any, fn func(userData any, s *glbuild.Shader2D) error) error {
	return nil
}

func (c *circle2D) AppendShaderObjects(objects []glbuild.ShaderObject) []glbuild.ShaderObject {
	return objects
}

type rect2D struct {
	d ms2.Vec
}

// NewRectangle creates a rectangle centered at (x,y)=(0,0) with given x and y dimensions.
func (bld *Builder) NewRectangle(x, y float32) glbuild.Shader2D {
	okRect := x > 0 && y > 0 && !math32.IsInf(x, 1) && !math32.IsInf(y, 1)
	if !okRect {
		bld.shapeErrorf("bad rectangle dimension")
	}
	return &rect2D{d: ms2.Vec{X: x, Y: y}}
}

func (c *rect2D) Bounds() ms2.Box {
	xd2 := c.d.X / 2
	yd2 := c.d.Y / 2
	return ms2.NewBox(-xd2, -yd2, xd2, yd2)
}

func (c *rect2D) AppendShaderName(b []byte) []byte {
	b = append(b, "rect"...)
	b = glbuild.AppendFloats(b, 'x', 'n', 'p', c.d.X, c.d.Y)
	return b
}

func (c *rect2D) AppendShaderBody(b []byte) []byte {
	b = glbuild.AppendVec2Decl(b, "b", ms2.Scale(0.5, c.d))
	b = append(b, `vec2 d = abs(p)-b;
return length(max(d,0.0)) + min(gsdfMaxComp(d),0.0);`...)
	return b
}

func (c *rect2D) ForEach2DChild(userData any, fn func(userData any, s *glbuild.Shader2D) error) error {
	return nil
}

func (c *rect2D) AppendShaderObjects(objects []glbuild.ShaderObject) []glbuild.ShaderObject {
	return append(objects, glbuild.LibraryFunction(glsllib.MaxComponent()))
}

type roundRect2D struct {
	d ms2.Vec
	r float32
}

// NewRoundedRectangle creates a rectangle centered at the origin with given x and y dimensions
// and corners rounded with the given radius. The radius may not exceed half of the smallest dimension.
func (bld *Builder) NewRoundedRectangle(x, y, radius float32) glbuild.Shader2D {
	okRect := x > 0 && y > 0 && isFinite(x) && isFinite(y)
	if !okRect {
		bld.shapeErrorf("bad rounded rectangle dimension")
	} else if radius < 0 || 2*radius > minf(x, y) {
		bld.shapeErrorf("bad rounded rectangle corner radius %g for dimensions %gx%g", radius, x, y)
	}
	if radius == 0 {
		return bld.NewRectangle(x, y)
	}
	return &roundRect2D{d: ms2.Vec{X: x, Y: y}, r: radius}
}

func (c *roundRect2D) Bounds() ms2.Box {
	xd2 := c.d.X / 2
	yd2 := c.d.Y / 2
	return ms2.NewBox(-xd2, -yd2, xd2, yd2)
}

func (c *roundRect2D) AppendShaderName(b []byte) []byte {
	b = append(b, "roundrect"...)
	b = glbuild.AppendFloats(b, 'x', 'n', 'p', c.d.X, c.d.Y, c.r)
	return b
}

func (c *roundRect2D) AppendShaderBody(b []byte) []byte {
	b = glbuild.AppendVec2Decl(b, "b", ms2.Scale(0.5, c.d))
	b = glbuild.AppendFloatDecl(b, "r", c.r)
	b = append(b, `vec2 q = abs(p)-b+r;
return min(gsdfMaxComp(q),0.0) + length(max(q,0.0)) - r;`...)
	return b
}

func (c *roundRect2D) ForEach2DChild(userData any, fn func(userData any, s *glbuild.Shader2D) error) error {
	return nil
}

func (c *roundRect2D) AppendShaderObjects(objects []glbuild.ShaderObject) []glbuild.ShaderObject {
	return append(objects, glbuild.LibraryFunction(glsllib.MaxComponent()))
}

// NewLine2D creates a straight line between (x0,y0) and (x1,y1) with a given thickness.
func (bld *Builder) NewLine2D(x0, y0, x1, y1, width float32) glbuild.Shader2D {
	hasNaN := math32.IsNaN(x0) || math32.IsNaN(y0) || math32.IsNaN(x1) || math32.IsNaN(y1) || math32.IsNaN(width)
	if hasNaN {
		bld.shapeErrorf("NaN argument to NewLine2D")
	} else if width < 0 {
		bld.shapeErrorf("negative thickness to NewLine2D")
	}
	a, b := ms2.Vec{X: x0, Y: y0}, ms2.Vec{X: x1, Y: y1}
	lineLen := ms2.Norm(ms2.Sub(a, b))
	if lineLen < width*1e-6 || lineLen < epstol {
		if width == 0 {
			bld.shapeErrorf("infimal line")
		}
		return bld.Translate2D(bld.NewCircle(width/2), a.X, a.Y)
	}
	return &line2D{a: a, b: b, width: width}
}

type line2D struct {
	a, b  ms2.Vec
	width float32
}

func (l *line2D) Bounds() ms2.Box {
	w := l.width / 2
	bb := ms2.Box{Min: ms2.MinElem(l.a, l.b), Max: ms2.MaxElem(l.a, l.b)}
	bb.Min = ms2.AddScalar(-w, bb.Min)
	bb.Max = ms2.AddScalar(w, bb.Max)
	return bb
}

func (l *line2D) AppendShaderName(b []byte) []byte {
	b = append(b, "line"...)
	b = glbuild.AppendFloats(b, 'x', 'n', 'p', l.a.X, l.a.Y, l.b.X, l.b.Y, l.width)
	return b
}

func (l *line2D) AppendShaderBody(b []byte) []byte {
	b = glbuild.AppendVec2Decl(b, "a", l.a)
	b = glbuild.AppendVec2Decl(b, "b", l.b)
	b = glbuild.AppendFloatDecl(b, "w", l.width/2)
	b = append(b, `vec2 pa = p-a, ba = b-a;
float h = gsdfClamp01(dot(pa,ba)/dot(ba,ba));
return length(pa-ba*h)-w;`...)
	return b
}

func (l *line2D) ForEach2DChild(userData any, fn func(userData any, s *glbuild.Shader2D) error) error {
	return nil
}

func (l *line2D) AppendShaderObjects(objects []glbuild.ShaderObject) []glbuild.ShaderObject {
	return append(objects, glbuild.LibraryFunction(glsllib.Clamp01()))
}

// NewArc returns a 2D arc centered at the origin (x,y)=(0,0) for a given radius and arc angle and thickness of the arc.
// The arc begins opening at (x,y)=(0,r) in both positive and negative x direction.
func (bld *Builder) NewArc(radius float32, arcAngle sdfmath.Radians, thick float32) glbuild.Shader2D {
	angle := arcAngle.Value()
	ok := radius > 0 && angle > 0 && thick >= 0
	if !ok {
		bld.shapeErrorf("invalid argument to NewArc")
	}
	if angle > 2*math32.Pi {
		bld.shapeErrorf("arc angle exceeds full circle")
	} else if 2*math32.Pi-angle < epstol {
		angle = 2*math32.Pi - 1e-6 // Condition the arc to be closed.
	}
	return &arc2D{radius: radius, angle: sdfmath.Rad(angle), thick: thick}
}

type arc2D struct {
	radius float32
	angle  sdfmath.Radians
	thick  float32
}

func (a *arc2D) Bounds() ms2.Box {
	t := a.thick / 2
	r := a.radius + t
	s, c := a.angle.Div(2).Sincos()
	halfWidth := r
	if a.angle.Value() < math32.Pi {
		halfWidth = a.radius*s + t
	}
	return ms2.NewBox(-halfWidth, a.radius*c-t, halfWidth, r)
}

func (a *arc2D) AppendShaderName(b []byte) []byte {
	b = append(b, "arc"...)
	b = glbuild.AppendFloats(b, 'x', 'n', 'p', a.radius, a.angle.Value(), a.thick)
	return b
}

func (a *arc2D) AppendShaderBody(b []byte) []byte {
	s, c := a.angle.Div(2).Sincos()
	b = glbuild.AppendFloatDecl(b, "r", a.radius)
	b = glbuild.AppendFloatDecl(b, "t", a.thick/2)
	b = glbuild.AppendVec2Decl(b, "sc", ms2.Vec{X: s, Y: c})
	b = append(b, `p.x=abs(p.x);
return ((sc.y*p.x>sc.x*p.y) ? length(p-sc*r) : abs(length(p)-r))-t;`...)
	return b
}

func (a *arc2D) ForEach2DChild(userData any, fn func(userData any, s *glbuild.Shader2D) error) error {
	return nil
}

func (a *arc2D) AppendShaderObjects(objects []glbuild.ShaderObject) []glbuild.ShaderObject {
	return objects
}
