package glshape

import (
	"github.com/chewxy/math32"
	"github.com/soypat/glgl/math/ms2"
	"github.com/soypat/glshape/gleval"
	"github.com/soypat/glshape/sdfmath"
)

// minReduce takes element-wise minimum of arguments and stores to first argument.
func minReduce(d1AndDst, d2 []float32) {
	for i := range d1AndDst {
		d1AndDst[i] = math32.Min(d1AndDst[i], d2[i])
	}
}

func evaluateSDF2(obj bounder2, pos []ms2.Vec, dist []float32, userData any) error {
	sdf, err := gleval.AssertSDF2(obj)
	if err != nil {
		return err
	}
	return sdf.Evaluate(pos, dist, userData)
}

func evaluateShape(obj bounder2, env *gleval.Env, pos []ms2.Vec, dst []gleval.Shape, userData any) error {
	sdf, err := gleval.AssertShapeSDF(obj)
	if err != nil {
		return err
	}
	return sdf.EvaluateShape(env, pos, dst, userData)
}

func (c *circle2D) Evaluate(pos []ms2.Vec, dist []float32, userData any) error {
	r := c.r
	for i, p := range pos {
		dist[i] = ms2.Norm(p) - r
	}
	return nil
}

func (c *rect2D) Evaluate(pos []ms2.Vec, dist []float32, userData any) error {
	b := ms2.Scale(0.5, c.d)
	for i, p := range pos {
		d := ms2.Sub(ms2.AbsElem(p), b)
		dist[i] = ms2.Norm(ms2.MaxElem(d, ms2.Vec{})) + math32.Min(sdfmath.MaxComponent(sdfmath.Vec2{d.X, d.Y}), 0)
	}
	return nil
}

func (c *roundRect2D) Evaluate(pos []ms2.Vec, dist []float32, userData any) error {
	r := c.r
	b := ms2.Scale(0.5, c.d)
	for i, p := range pos {
		q := ms2.AddScalar(r, ms2.Sub(ms2.AbsElem(p), b))
		dist[i] = math32.Min(sdfmath.MaxComponent(sdfmath.Vec2{q.X, q.Y}), 0) + ms2.Norm(ms2.MaxElem(q, ms2.Vec{})) - r
	}
	return nil
}

func (l *line2D) Evaluate(pos []ms2.Vec, dist []float32, userData any) error {
	a := l.a
	ba := ms2.Sub(l.b, l.a)
	dotba := ms2.Dot(ba, ba)
	w := l.width / 2
	for i, p := range pos {
		pa := ms2.Sub(p, a)
		h := sdfmath.Clamp01(ms2.Dot(pa, ba) / dotba)
		dist[i] = ms2.Norm(ms2.Sub(pa, ms2.Scale(h, ba))) - w
	}
	return nil
}

func (a *arc2D) Evaluate(pos []ms2.Vec, dist []float32, userData any) error {
	r := a.radius
	t := a.thick / 2
	s, c := a.angle.Div(2).Sincos()
	sc := ms2.Vec{X: s, Y: c}
	scr := ms2.Scale(r, sc)
	for i, p := range pos {
		p.X = math32.Abs(p.X)
		if sc.Y*p.X > sc.X*p.Y {
			dist[i] = ms2.Norm(ms2.Sub(p, scr)) - t
		} else {
			dist[i] = math32.Abs(ms2.Norm(p)-r) - t
		}
	}
	return nil
}

// Evaluate implements [gleval.SDF2].
func (u *OpUnion2D) Evaluate(pos []ms2.Vec, dist []float32, userData any) error {
	u.mustValidate()
	vp, err := gleval.GetVecPool(userData)
	if err != nil {
		return err
	}
	auxDist := vp.Float.Acquire(len(dist))
	defer vp.Float.Release(auxDist)
	err = evaluateSDF2(u.joined[0], pos, dist, userData)
	if err != nil {
		return err
	}
	for _, shape := range u.joined[1:] {
		err = evaluateSDF2(shape, pos, auxDist, userData)
		if err != nil {
			return err
		}
		minReduce(dist, auxDist)
	}
	return nil
}

func (s *intersect2D) Evaluate(pos []ms2.Vec, dist []float32, userData any) error {
	vp, err := gleval.GetVecPool(userData)
	if err != nil {
		return err
	}
	d2 := vp.Float.Acquire(len(dist))
	defer vp.Float.Release(d2)
	err = evaluateSDF2(s.s1, pos, dist, userData)
	if err != nil {
		return err
	}
	err = evaluateSDF2(s.s2, pos, d2, userData)
	if err != nil {
		return err
	}
	for i := range dist {
		dist[i] = math32.Max(dist[i], d2[i])
	}
	return nil
}

func (s *diff2D) Evaluate(pos []ms2.Vec, dist []float32, userData any) error {
	vp, err := gleval.GetVecPool(userData)
	if err != nil {
		return err
	}
	d2 := vp.Float.Acquire(len(dist))
	defer vp.Float.Release(d2)
	err = evaluateSDF2(s.s1, pos, dist, userData)
	if err != nil {
		return err
	}
	err = evaluateSDF2(s.s2, pos, d2, userData)
	if err != nil {
		return err
	}
	for i := range dist {
		dist[i] = math32.Max(dist[i], -d2[i])
	}
	return nil
}

func (t *translate2D) Evaluate(pos []ms2.Vec, dist []float32, userData any) error {
	vp, err := gleval.GetVecPool(userData)
	if err != nil {
		return err
	}
	transformed := vp.V2.Acquire(len(pos))
	defer vp.V2.Release(transformed)
	p := t.p
	for i := range pos {
		transformed[i] = ms2.Sub(pos[i], p)
	}
	return evaluateSDF2(t.s, transformed, dist, userData)
}

func (r *rotation2D) Evaluate(pos []ms2.Vec, dist []float32, userData any) error {
	vp, err := gleval.GetVecPool(userData)
	if err != nil {
		return err
	}
	transformed := vp.V2.Acquire(len(pos))
	defer vp.V2.Release(transformed)
	invT := r.tInv
	for i := range pos {
		transformed[i] = ms2.MulMatVec(invT, pos[i])
	}
	return evaluateSDF2(r.s, transformed, dist, userData)
}

func (o *offset2D) Evaluate(pos []ms2.Vec, dist []float32, userData any) error {
	err := evaluateSDF2(o.s, pos, dist, userData)
	if err != nil {
		return err
	}
	f := o.f
	for i := range dist {
		dist[i] += f
	}
	return nil
}

func (a *annulus2D) Evaluate(pos []ms2.Vec, dist []float32, userData any) error {
	err := evaluateSDF2(a.s, pos, dist, userData)
	if err != nil {
		return err
	}
	r := a.r
	for i := range dist {
		dist[i] = math32.Abs(dist[i]) - r
	}
	return nil
}

// fillSamples evaluates the distance of s at pos into the Distance field of dst.
func fillSamples(s bounder2, pos []ms2.Vec, dst []gleval.Shape, userData any) error {
	vp, err := gleval.GetVecPool(userData)
	if err != nil {
		return err
	}
	dist := vp.Float.Acquire(len(pos))
	defer vp.Float.Release(dist)
	err = evaluateSDF2(s, pos, dist, userData)
	if err != nil {
		return err
	}
	for i, d := range dist {
		dst[i].Distance = d
	}
	return nil
}

func (f *fill) EvaluateShape(env *gleval.Env, pos []ms2.Vec, dst []gleval.Shape, userData any) error {
	err := fillSamples(f.s, pos, dst, userData)
	if err != nil {
		return err
	}
	scale := env.Scale()
	for i := range dst {
		c := f.c
		c.A *= sdfmath.Clamp01(0.5 - dst[i].Distance*scale)
		dst[i].Color = c
	}
	return nil
}

func (f *softFill) EvaluateShape(env *gleval.Env, pos []ms2.Vec, dst []gleval.Shape, userData any) error {
	err := fillSamples(f.s, pos, dst, userData)
	if err != nil {
		return err
	}
	w := f.w
	for i := range dst {
		c := f.c
		c.A *= 1 - sdfmath.SmoothStep01(dst[i].Distance/w+0.5)
		dst[i].Color = c
	}
	return nil
}

// over composes b over a. Colors mix by their visible weight and the boundary is the union of both.
func over(a, b gleval.Shape) gleval.Shape {
	wa := a.Color.A * (1 - b.Color.A)
	wb := b.Color.A
	alpha := wa + wb
	result := gleval.Shape{Distance: math32.Min(a.Distance, b.Distance)}
	if alpha > 0 {
		rgb := sdfmath.MixVec(a.Color.RGB(), b.Color.RGB(), wa, wb)
		result.Color = gleval.Color{R: rgb[0], G: rgb[1], B: rgb[2], A: alpha}
	}
	return result
}

func (l *OpLayers) EvaluateShape(env *gleval.Env, pos []ms2.Vec, dst []gleval.Shape, userData any) error {
	l.mustValidate()
	vp, err := gleval.GetVecPool(userData)
	if err != nil {
		return err
	}
	aux := vp.Shape.Acquire(len(dst))
	defer vp.Shape.Release(aux)
	err = evaluateShape(l.layers[0], env, pos, dst, userData)
	if err != nil {
		return err
	}
	for _, layer := range l.layers[1:] {
		err = evaluateShape(layer, env, pos, aux, userData)
		if err != nil {
			return err
		}
		for i := range dst {
			dst[i] = over(dst[i], aux[i])
		}
	}
	return nil
}

func (c *clip) EvaluateShape(env *gleval.Env, pos []ms2.Vec, dst []gleval.Shape, userData any) error {
	vp, err := gleval.GetVecPool(userData)
	if err != nil {
		return err
	}
	mask := vp.Float.Acquire(len(pos))
	defer vp.Float.Release(mask)
	err = evaluateShape(c.s, env, pos, dst, userData)
	if err != nil {
		return err
	}
	err = evaluateSDF2(c.mask, pos, mask, userData)
	if err != nil {
		return err
	}
	scale := env.Scale()
	for i, m := range mask {
		dst[i].Color.A *= sdfmath.Clamp01(0.5 - m*scale)
		dst[i].Distance = math32.Max(dst[i].Distance, m)
	}
	return nil
}

func (o *opacity) EvaluateShape(env *gleval.Env, pos []ms2.Vec, dst []gleval.Shape, userData any) error {
	err := evaluateShape(o.s, env, pos, dst, userData)
	if err != nil {
		return err
	}
	for i := range dst {
		dst[i].Color.A *= o.f
	}
	return nil
}

func (t *translateShape) EvaluateShape(env *gleval.Env, pos []ms2.Vec, dst []gleval.Shape, userData any) error {
	vp, err := gleval.GetVecPool(userData)
	if err != nil {
		return err
	}
	transformed := vp.V2.Acquire(len(pos))
	defer vp.V2.Release(transformed)
	p := t.p
	for i := range pos {
		transformed[i] = ms2.Sub(pos[i], p)
	}
	return evaluateShape(t.s, env, transformed, dst, userData)
}
