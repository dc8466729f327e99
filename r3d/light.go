package r3d

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Light is the single point light of a scene.
type Light struct {
	Position mgl32.Vec3
	Ambient  mgl32.Vec3 // Ia
	Diffuse  mgl32.Vec3 // Id
	Specular mgl32.Vec3 // Is
}

func NewLight(position mgl32.Vec3) *Light {
	return &Light{
		Position: position,
		Ambient:  mgl32.Vec3{0.2, 0.2, 0.2},
		Diffuse:  mgl32.Vec3{1, 1, 1},
		Specular: mgl32.Vec3{1, 1, 1},
	}
}

// ViewPosition is the light position in the space of view.
func (l *Light) ViewPosition(view mgl32.Mat4) mgl32.Vec3 {
	return view.Mul4x1(l.Position.Vec4(1)).Vec3()
}
