// Package glsllib embeds the GLSL library functions shared by generated shaders.
// Each function returns the GLSL source of one library function (and its overloads)
// ready to be wrapped with glbuild.LibraryFunction.
package glsllib

import (
	_ "embed"
)

//go:embed types.glsl
var typesSrc []byte

// Types declares the structs passed between generated colored shape functions:
//
//	struct Env { float zoom; float pixel_ratio; uint symbol_id; uint instance_id; int display_mode; };
//	struct Shape { float distance; vec4 color; };
func Types() []byte { return typesSrc }

//go:embed mix.glsl
var mixSrc []byte

// Mix is the weighted average of two values, overloaded for float and vec2..vec4.
// The total weight must not be zero.
//
//	float gsdfMix(float a, float b, float wa, float wb)
func Mix() []byte { return mixSrc }

//go:embed clamp01.glsl
var clamp01Src []byte

// Clamp01 clamps each component into [0,1], overloaded for float and vec2..vec4.
//
//	float gsdfClamp01(float v)
func Clamp01() []byte { return clamp01Src }

//go:embed maxcomp.glsl
var maxcompSrc []byte

// MaxComponent returns the largest component of a vec2..vec4.
//
//	float gsdfMaxComp(vec3 v)
func MaxComponent() []byte { return maxcompSrc }

//go:embed mincomp.glsl
var mincompSrc []byte

// MinComponent returns the smallest component of a vec2..vec4.
//
//	float gsdfMinComp(vec3 v)
func MinComponent() []byte { return mincompSrc }

//go:embed smooth01.glsl
var smooth01Src []byte

// SmoothStep01 is the Hermite smoothstep over [0,1] with its input clamped.
//
//	float gsdfSmooth01(float a)
func SmoothStep01() []byte { return smooth01Src }

//go:embed srgb.glsl
var srgbSrc []byte

// EncodeSRGB applies the sRGB transfer curve to linear RGB.
//
//	vec3 gsdfEncodeSRGB(vec3 c)
func EncodeSRGB() []byte { return srgbSrc }

//go:embed distmeter.glsl
var distmeterSrc []byte

// DistanceMeter maps a signed distance to a debug color.
// Must be declared after [SmoothStep01] and [Mix].
//
//	vec3 gsdfDistanceMeter(float d, float inner, float outer)
func DistanceMeter() []byte { return distmeterSrc }

//go:embed over.glsl
var overSrc []byte

// Over composes shape b over shape a with straight alpha. The boundary is the union of both.
// Fully transparent results are not blended. Must be declared after [Mix] and [Types].
//
//	Shape gsdfOver(Shape a, Shape b)
func Over() []byte { return overSrc }
