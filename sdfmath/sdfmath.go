// Package sdfmath implements the numeric helpers used by shape distance and color math.
// Every function here has a GLSL twin in package glsllib with identical per-component semantics.
package sdfmath

import (
	"github.com/chewxy/math32"
	"github.com/soypat/glgl/math/ms1"
)

type (
	Vec2 [2]float32
	Vec3 [3]float32
	Vec4 [4]float32
)

// Vector is the set of fixed width vectors the kernel operates on component-wise.
type Vector interface {
	~[2]float32 | ~[3]float32 | ~[4]float32
}

// Mix returns the weighted blend (a*wa + b*wb) / (wa + wb).
// The caller must guarantee wa+wb != 0, the result is undefined otherwise.
func Mix(a, b, wa, wb float32) float32 {
	return (a*wa + b*wb) / (wa + wb)
}

// MixVec is the component-wise [Mix] of two vectors. Same precondition as [Mix].
func MixVec[V Vector](a, b V, wa, wb float32) V {
	var r V
	for i := 0; i < len(r); i++ {
		r[i] = Mix(a[i], b[i], wa, wb)
	}
	return r
}

// Clamp01 clamps v to [0, 1].
func Clamp01(v float32) float32 {
	return ms1.Clamp(v, 0, 1)
}

// Clamp01Vec clamps every component of v to [0, 1] independently.
func Clamp01Vec[V Vector](v V) V {
	for i := 0; i < len(v); i++ {
		v[i] = Clamp01(v[i])
	}
	return v
}

// MaxComponent returns the greatest component of v.
func MaxComponent[V Vector](v V) float32 {
	m := v[0]
	for i := 1; i < len(v); i++ {
		m = math32.Max(m, v[i])
	}
	return m
}

// MinComponent returns the least component of v.
func MinComponent[V Vector](v V) float32 {
	m := v[0]
	for i := 1; i < len(v); i++ {
		m = math32.Min(m, v[i])
	}
	return m
}

// SmoothStep01 is the Hermite smoothstep over the interval [0, 1]. Input is clamped.
func SmoothStep01(a float32) float32 {
	t := Clamp01(a)
	return t * t * (3 - 2*t)
}
