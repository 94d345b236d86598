//go:build tinygo || !cgo

package glshapeaux

import (
	"errors"

	"github.com/soypat/glshape/glbuild"
)

func ui(s glbuild.ShapeShader, cfg UIConfig) error {
	return errors.New("require cgo for UI rendering")
}
