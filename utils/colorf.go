package utils

import "github.com/go-gl/mathgl/mgl32"

// ColorFloat is an RGBA color with components in [0, 1].
type ColorFloat [4]float32

func (c ColorFloat) Vec4() mgl32.Vec4 {
	return mgl32.Vec4(c)
}
