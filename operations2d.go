package glshape

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/soypat/glgl/math/ms2"
	"github.com/soypat/glshape/glbuild"
	"github.com/soypat/glshape/glbuild/glsllib"
	"github.com/soypat/glshape/sdfmath"
)

// OpUnion2D is the result of [Builder.Union2D]. It is exported so that nested
// unions can be detected and flattened.
type OpUnion2D struct {
	joined []glbuild.Shader2D
}

// Union2D joins the shapes of several 2D SDFs into one. Is exact outside of the shapes.
// Union2D aggregates nested Union2D results into its own.
func (bld *Builder) Union2D(shaders ...glbuild.Shader2D) glbuild.Shader2D {
	if len(shaders) < 2 {
		panic("need at least 2 arguments to Union2D")
	}
	var U OpUnion2D
	for i, s := range shaders {
		if s == nil {
			bld.nilsdf(fmt.Sprintf("%d argument to Union2D", i))
		}
		if subU, ok := s.(*OpUnion2D); ok {
			// Discard nested union elements and join their elements.
			// Results in much smaller and readable GLSL code.
			U.joined = append(U.joined, subU.joined...)
		} else {
			U.joined = append(U.joined, s)
		}
	}
	return &U
}

// Bounds returns the union of all joined SDFs. Implements [glbuild.Shader2D] and [gleval.SDF2].
func (u *OpUnion2D) Bounds() ms2.Box {
	u.mustValidate()
	bb := u.joined[0].Bounds()
	for _, bb2 := range u.joined[1:] {
		bb = bb.Union(bb2.Bounds())
	}
	return bb
}

// ForEach2DChild implements [glbuild.Shader2D].
func (u *OpUnion2D) ForEach2DChild(userData any, fn func(userData any, s *glbuild.Shader2D) error) error {
	u.mustValidate()
	for i := range u.joined {
		err := fn(userData, &u.joined[i])
		if err != nil {
			return err
		}
	}
	return nil
}

// AppendShaderName implements [glbuild.Shader].
func (u *OpUnion2D) AppendShaderName(b []byte) []byte {
	u.mustValidate()
	b = append(b, "union_"...)
	for i := range u.joined {
		b = u.joined[i].AppendShaderName(b)
		if i < len(u.joined)-1 {
			b = append(b, '_')
		}
	}
	return b
}

// AppendShaderBody implements [glbuild.Shader]. Child distances are packed
// into vectors of up to 4 components and reduced with gsdfMinComp.
func (u *OpUnion2D) AppendShaderBody(b []byte) []byte {
	u.mustValidate()
	const group = 4
	for i := 0; i < len(u.joined); i += group {
		chunk := u.joined[i:min(i+group, len(u.joined))]
		if i == 0 {
			b = append(b, "float d="...)
		} else {
			b = append(b, "d=min(d,"...)
		}
		if len(chunk) == 1 {
			b = chunk[0].AppendShaderName(b)
			b = append(b, "(p)"...)
		} else {
			b = append(b, "gsdfMinComp(vec"...)
			b = append(b, byte('0'+len(chunk)))
			b = append(b, '(')
			for j := range chunk {
				if j > 0 {
					b = append(b, ',')
				}
				b = chunk[j].AppendShaderName(b)
				b = append(b, "(p)"...)
			}
			b = append(b, "))"...)
		}
		if i > 0 {
			b = append(b, ')')
		}
		b = append(b, ";\n"...)
	}
	b = append(b, "return d;"...)
	return b
}

// AppendShaderObjects implements [glbuild.Shader].
func (u *OpUnion2D) AppendShaderObjects(objects []glbuild.ShaderObject) []glbuild.ShaderObject {
	return append(objects, glbuild.LibraryFunction(glsllib.MinComponent()))
}

func (u *OpUnion2D) mustValidate() {
	if len(u.joined) < 2 {
		panic("OpUnion2D must have at least 2 elements. Please prefer using Builder.Union2D over OpUnion2D")
	}
}

// Intersection2D keeps the region common to both a and b.
func (bld *Builder) Intersection2D(a, b glbuild.Shader2D) glbuild.Shader2D {
	if a == nil || b == nil {
		bld.nilsdf("Intersection2D")
	}
	return &intersect2D{s1: a, s2: b}
}

type intersect2D struct {
	s1, s2 glbuild.Shader2D
}

func (s *intersect2D) Bounds() ms2.Box {
	return s.s1.Bounds().Intersect(s.s2.Bounds())
}

func (s *intersect2D) ForEach2DChild(userData any, fn func(userData any, s *glbuild.Shader2D) error) error {
	err := fn(userData, &s.s1)
	if err == nil {
		err = fn(userData, &s.s2)
	}
	return err
}

func (s *intersect2D) AppendShaderName(b []byte) []byte {
	b = append(b, "intersect2D_"...)
	b = s.s1.AppendShaderName(b)
	b = append(b, "_"...)
	b = s.s2.AppendShaderName(b)
	return b
}

func (s *intersect2D) AppendShaderBody(b []byte) []byte {
	b = append(b, "return max("...)
	b = s.s1.AppendShaderName(b)
	b = append(b, "(p),"...)
	b = s.s2.AppendShaderName(b)
	b = append(b, "(p));"...)
	return b
}

func (s *intersect2D) AppendShaderObjects(objects []glbuild.ShaderObject) []glbuild.ShaderObject {
	return objects
}

// Difference2D is the SDF difference of a-b. Does not produce a true SDF.
func (bld *Builder) Difference2D(a, b glbuild.Shader2D) glbuild.Shader2D {
	if a == nil || b == nil {
		bld.nilsdf("Difference2D")
	}
	return &diff2D{s1: a, s2: b}
}

type diff2D struct {
	s1, s2 glbuild.Shader2D // Performs s1-s2.
}

func (s *diff2D) Bounds() ms2.Box {
	return s.s1.Bounds()
}

func (s *diff2D) ForEach2DChild(userData any, fn func(userData any, s *glbuild.Shader2D) error) error {
	err := fn(userData, &s.s1)
	if err == nil {
		err = fn(userData, &s.s2)
	}
	return err
}

func (s *diff2D) AppendShaderName(b []byte) []byte {
	b = append(b, "diff2D_"...)
	b = s.s1.AppendShaderName(b)
	b = append(b, "_"...)
	b = s.s2.AppendShaderName(b)
	return b
}

func (s *diff2D) AppendShaderBody(b []byte) []byte {
	b = append(b, "return max("...)
	b = s.s1.AppendShaderName(b)
	b = append(b, "(p),-"...)
	b = s.s2.AppendShaderName(b)
	b = append(b, "(p));"...)
	return b
}

func (s *diff2D) AppendShaderObjects(objects []glbuild.ShaderObject) []glbuild.ShaderObject {
	return objects
}

// Translate2D moves the SDF s in the given direction (dirX, dirY) and returns the result.
func (bld *Builder) Translate2D(s glbuild.Shader2D, dirX, dirY float32) glbuild.Shader2D {
	if s == nil {
		bld.nilsdf("Translate2D")
	} else if !isFinite(dirX) || !isFinite(dirY) {
		bld.shapeErrorf("non-finite translation (%g,%g)", dirX, dirY)
	}
	return &translate2D{s: s, p: ms2.Vec{X: dirX, Y: dirY}}
}

type translate2D struct {
	s glbuild.Shader2D
	p ms2.Vec
}

func (t *translate2D) Bounds() ms2.Box {
	return t.s.Bounds().Add(t.p)
}

func (t *translate2D) ForEach2DChild(userData any, fn func(userData any, s *glbuild.Shader2D) error) error {
	return fn(userData, &t.s)
}

func (t *translate2D) AppendShaderName(b []byte) []byte {
	b = append(b, "translate2D"...)
	b = glbuild.AppendFloats(b, 'x', 'n', 'p', t.p.X, t.p.Y)
	b = append(b, '_')
	b = t.s.AppendShaderName(b)
	return b
}

func (t *translate2D) AppendShaderBody(b []byte) []byte {
	b = glbuild.AppendVec2Decl(b, "t", t.p)
	b = append(b, "return "...)
	b = t.s.AppendShaderName(b)
	b = append(b, "(p-t);"...)
	return b
}

func (t *translate2D) AppendShaderObjects(objects []glbuild.ShaderObject) []glbuild.ShaderObject {
	return objects
}

// Rotate2D returns the argument shape rotated around the origin by theta.
func (bld *Builder) Rotate2D(s glbuild.Shader2D, theta sdfmath.Radians) glbuild.Shader2D {
	if s == nil {
		bld.nilsdf("Rotate2D")
	}
	m := ms2.RotationMat2(theta.Value())
	det := m.Determinant()
	if math32.Abs(det) < epstol {
		bld.shapeErrorf("badly conditioned rotation")
	}
	return &rotation2D{
		s:     s,
		theta: theta,
		t:     m,
		tInv:  m.Inverse(),
	}
}

type rotation2D struct {
	s     glbuild.Shader2D
	theta sdfmath.Radians
	t     ms2.Mat2
	tInv  ms2.Mat2
}

func (r *rotation2D) Bounds() ms2.Box {
	bb := r.s.Bounds()
	verts := bb.Vertices()
	v1 := ms2.MulMatVec(r.t, verts[0])
	bb.Max = v1
	bb.Min = v1
	for _, v := range verts[1:] {
		v = ms2.MulMatVec(r.t, v)
		bb.Max = ms2.MaxElem(bb.Max, v)
		bb.Min = ms2.MinElem(bb.Min, v)
	}
	return bb
}

func (r *rotation2D) ForEach2DChild(userData any, fn func(userData any, s *glbuild.Shader2D) error) error {
	return fn(userData, &r.s)
}

func (r *rotation2D) AppendShaderName(b []byte) []byte {
	b = append(b, "rotation2D"...)
	// Hash floats so that name is not too long.
	values := r.t.Array()
	b = glbuild.AppendFloat(b, 'n', 'p', hashf(values[:]))
	b = append(b, '_')
	b = r.s.AppendShaderName(b)
	return b
}

func (r *rotation2D) AppendShaderBody(b []byte) []byte {
	b = glbuild.AppendMat2Decl(b, "invT", r.tInv)
	b = append(b, "return "...)
	b = r.s.AppendShaderName(b)
	b = append(b, "(invT * p);"...)
	return b
}

func (r *rotation2D) AppendShaderObjects(objects []glbuild.ShaderObject) []glbuild.ShaderObject {
	return objects
}

// Offset2D adds sdfAdd to the entire argument SDF. If sdfAdd is negative this will
// round edges and increase the dimension of flat surfaces of the SDF by the absolute magnitude.
func (bld *Builder) Offset2D(s glbuild.Shader2D, sdfAdd float32) glbuild.Shader2D {
	if s == nil {
		bld.nilsdf("Offset2D")
	} else if !isFinite(sdfAdd) {
		bld.shapeErrorf("non-finite offset %g", sdfAdd)
	}
	return &offset2D{s: s, f: sdfAdd}
}

type offset2D struct {
	s glbuild.Shader2D
	f float32
}

func (o *offset2D) Bounds() ms2.Box {
	bb := o.s.Bounds()
	if o.f > 0 {
		return bb // Offset shrinks the shape.
	}
	// Shape grows by the offset's magnitude.
	bb.Min = ms2.AddScalar(o.f, bb.Min)
	bb.Max = ms2.AddScalar(-o.f, bb.Max)
	return bb
}

func (o *offset2D) ForEach2DChild(userData any, fn func(userData any, s *glbuild.Shader2D) error) error {
	return fn(userData, &o.s)
}

func (o *offset2D) AppendShaderName(b []byte) []byte {
	b = append(b, "offset2D"...)
	b = glbuild.AppendFloat(b, 'n', 'p', o.f)
	b = append(b, '_')
	b = o.s.AppendShaderName(b)
	return b
}

func (o *offset2D) AppendShaderBody(b []byte) []byte {
	b = glbuild.AppendFloatDecl(b, "f", o.f)
	b = append(b, "return "...)
	b = o.s.AppendShaderName(b)
	b = append(b, "(p)+f;"...)
	return b
}

func (o *offset2D) AppendShaderObjects(objects []glbuild.ShaderObject) []glbuild.ShaderObject {
	return objects
}

// Annulus makes a 2D shape annular by emptying it's center. It is the equivalent of the 3D Shell operation but in 2D.
func (bld *Builder) Annulus(s glbuild.Shader2D, sub float32) glbuild.Shader2D {
	if s == nil {
		bld.nilsdf("Annulus")
	}
	if sub <= 0 {
		bld.shapeErrorf("invalid annular parameter")
	}
	return &annulus2D{s: s, r: sub}
}

type annulus2D struct {
	s glbuild.Shader2D
	r float32
}

func (a *annulus2D) Bounds() ms2.Box {
	bb := a.s.Bounds()
	bb.Min = ms2.AddScalar(-a.r, bb.Min)
	bb.Max = ms2.AddScalar(a.r, bb.Max)
	return bb
}

func (a *annulus2D) ForEach2DChild(userData any, fn func(userData any, s *glbuild.Shader2D) error) error {
	return fn(userData, &a.s)
}

func (a *annulus2D) AppendShaderName(b []byte) []byte {
	b = append(b, "annulus"...)
	b = glbuild.AppendFloat(b, 'n', 'p', a.r)
	b = append(b, '_')
	b = a.s.AppendShaderName(b)
	return b
}

func (a *annulus2D) AppendShaderBody(b []byte) []byte {
	b = glbuild.AppendFloatDecl(b, "r", a.r)
	b = append(b, "return abs("...)
	b = a.s.AppendShaderName(b)
	b = append(b, "(p))-r;"...)
	return b
}

func (a *annulus2D) AppendShaderObjects(objects []glbuild.ShaderObject) []glbuild.ShaderObject {
	return objects
}
