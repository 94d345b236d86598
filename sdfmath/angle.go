package sdfmath

import "github.com/chewxy/math32"

const deg2rad = math32.Pi / 180

// Radians is an angle measured in radians. Field names differ from [Degrees]
// so the two types are not convertible with a Go type conversion.
type Radians struct {
	rad float32
}

// Degrees is an angle measured in degrees. Degrees are only meant to be created
// at input boundaries and converted immediately with [ToRadians].
type Degrees struct {
	deg float32
}

// Rad returns v radians.
func Rad(v float32) Radians { return Radians{rad: v} }

// Deg returns v degrees.
func Deg(v float32) Degrees { return Degrees{deg: v} }

// Value returns the raw scalar in radians.
func (r Radians) Value() float32 { return r.rad }

// Value returns the raw scalar in degrees.
func (d Degrees) Value() float32 { return d.deg }

// ToRadians converts degrees to radians.
func ToRadians(d Degrees) Radians { return Radians{rad: d.deg * deg2rad} }

// Radians converts d to radians. Equivalent to ToRadians(d).
func (d Degrees) Radians() Radians { return ToRadians(d) }

// Div returns r divided by s.
func (r Radians) Div(s float32) Radians { return Radians{rad: r.rad / s} }

// Neg returns -r.
func (r Radians) Neg() Radians { return Radians{rad: -r.rad} }

// Sincos returns the sine and cosine of r.
func (r Radians) Sincos() (sin, cos float32) { return math32.Sincos(r.rad) }
