package gleval

import (
	"errors"
	"fmt"

	"github.com/soypat/glgl/math/ms2"
)

// SDF2 implements a 2D signed distance field in vectorized
// form suitable for running on GPU.
type SDF2 interface {
	// Evaluate evaluates the signed distance field over pos positions.
	// dist and pos must be of same length.  Resulting distances are stored
	// in dist.
	//
	// userData facilitates getting data to the evaluators for use in processing, such as [VecPool].
	Evaluate(pos []ms2.Vec, dist []float32, userData any) error
	// Bounds returns the SDF's bounding box such that all of the shape is contained within.
	Bounds() ms2.Box
}

// ShapeSDF implements a colored 2D shape: a signed distance field paired with a color field.
// It is the CPU counterpart of the GLSL function `Shape name(Env env, vec2 p)`.
type ShapeSDF interface {
	// EvaluateShape evaluates distance and color at each position under the draw environment env.
	// pos and dst must be of same length. env is read only.
	EvaluateShape(env *Env, pos []ms2.Vec, dst []Shape, userData any) error
	// Bounds returns the bounding box of the region where the shape may be visible.
	Bounds() ms2.Box
}

// These interfaces are implemented by all SDF interfaces such as SDF2 and Shader2D.
// Using these instead of `any` Aids in catching mistakes at compile time such as passing a ShapeShader instead of Shader2D as an argument.
type (
	bounder2 = interface{ Bounds() ms2.Box }
)

var (
	errEmptyBuffers         = errors.New("empty buffers")
	errMismatchBufferLength = errors.New("position and distance buffer length mismatch")
)

// AssertSDF2 asserts the argument as a [SDF2] and returns an error if it is not one.
func AssertSDF2(s bounder2) (SDF2, error) {
	sdf, ok := s.(SDF2)
	if !ok {
		return nil, fmt.Errorf("%T does not implement gleval.SDF2", s)
	}
	return sdf, nil
}

// AssertShapeSDF asserts the argument as a [ShapeSDF] and returns an error if it is not one.
func AssertShapeSDF(s bounder2) (ShapeSDF, error) {
	sdf, ok := s.(ShapeSDF)
	if !ok {
		return nil, fmt.Errorf("%T does not implement gleval.ShapeSDF", s)
	}
	return sdf, nil
}

// CheckBuffers returns an error if the position buffer and result buffer are of different length or empty.
func CheckBuffers[T any](pos []ms2.Vec, dst []T) error {
	if len(pos) != len(dst) {
		return errMismatchBufferLength
	} else if len(pos) == 0 {
		return errEmptyBuffers
	}
	return nil
}

// GetVecPool extracts a [VecPool] from userData. userData may be a *VecPool
// or implement a VecPool() *VecPool method.
func GetVecPool(userData any) (*VecPool, error) {
	switch v := userData.(type) {
	case *VecPool:
		if v == nil {
			return nil, errors.New("nil VecPool")
		}
		return v, nil
	case interface{ VecPool() *VecPool }:
		vp := v.VecPool()
		if vp == nil {
			return nil, errors.New("nil VecPool returned by userData")
		}
		return vp, nil
	}
	return nil, fmt.Errorf("want userData of type *gleval.VecPool for CPU evaluation, got %T", userData)
}

// VecPool holds scratch buffers that CPU evaluators acquire during evaluation of
// nested shapes. A VecPool must not be shared between goroutines, give each
// concurrent evaluation its own.
type VecPool struct {
	Float bufPool[float32]
	V2    bufPool[ms2.Vec]
	Shape bufPool[Shape]
}

// AssertAllReleased returns an error if any acquired buffer has not been released.
func (vp *VecPool) AssertAllReleased() error {
	if err := vp.Float.assertAllReleased(); err != nil {
		return fmt.Errorf("float pool: %w", err)
	}
	if err := vp.V2.assertAllReleased(); err != nil {
		return fmt.Errorf("vec2 pool: %w", err)
	}
	if err := vp.Shape.assertAllReleased(); err != nil {
		return fmt.Errorf("shape pool: %w", err)
	}
	return nil
}

type bufPool[T any] struct {
	bufs     [][]T
	acquired []bool
}

// Acquire returns a buffer of length n. The buffer's contents are not zeroed.
func (bp *bufPool[T]) Acquire(n int) []T {
	for i, buf := range bp.bufs {
		if !bp.acquired[i] && cap(buf) >= n {
			bp.acquired[i] = true
			return buf[:n]
		}
	}
	buf := make([]T, n)
	bp.bufs = append(bp.bufs, buf)
	bp.acquired = append(bp.acquired, true)
	return buf
}

// Release returns a buffer obtained with Acquire to the pool.
func (bp *bufPool[T]) Release(buf []T) {
	if cap(buf) == 0 {
		panic("release of empty buffer")
	}
	for i, b := range bp.bufs {
		if cap(b) == 0 {
			continue
		}
		if &b[:cap(b)][cap(b)-1] == &buf[:cap(buf)][cap(buf)-1] {
			if !bp.acquired[i] {
				panic("double release of buffer")
			}
			bp.acquired[i] = false
			return
		}
	}
	panic("released buffer not from pool")
}

func (bp *bufPool[T]) assertAllReleased() error {
	for i, acq := range bp.acquired {
		if acq {
			return fmt.Errorf("buffer %d of length %d not released", i, len(bp.bufs[i]))
		}
	}
	return nil
}
