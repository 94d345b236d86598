// Package glrender draws colored shapes on the CPU into images and object-id buffers
// with the same per-pixel semantics as the fragment program written by glbuild.
package glrender

import (
	"errors"
	"image"
)

// IDBuffer holds the object-id output of a frame. Rows are ordered top to bottom.
type IDBuffer struct {
	W, H int
	IDs  [][4]uint32
}

// NewIDBuffer allocates an IDBuffer of width x height pixels.
func NewIDBuffer(width, height int) (*IDBuffer, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.New("invalid id buffer dimensions")
	}
	return &IDBuffer{W: width, H: height, IDs: make([][4]uint32, width*height)}, nil
}

// Bounds returns the pixel rectangle of the buffer with origin at (0,0).
func (ib *IDBuffer) Bounds() image.Rectangle { return image.Rect(0, 0, ib.W, ib.H) }

// At returns the raw object-id of pixel (x,y). Out of bounds pixels return the zero id.
func (ib *IDBuffer) At(x, y int) [4]uint32 {
	if x < 0 || y < 0 || x >= ib.W || y >= ib.H {
		return [4]uint32{}
	}
	return ib.IDs[y*ib.W+x]
}

// Pick returns the symbol and instance drawn at pixel (x,y). ok is false
// if no shape covers the pixel.
func (ib *IDBuffer) Pick(x, y int) (symbol, instance uint32, ok bool) {
	id := ib.At(x, y)
	if id[3] == 0 {
		return 0, 0, false
	}
	return id[0], id[1], true
}

// Clear zeroes every id of the buffer.
func (ib *IDBuffer) Clear() {
	clear(ib.IDs)
}
