package utils

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// LookAt is mgl32.LookAtV that stays valid when the view direction is
// parallel to up, as for a light straight above the origin.
func LookAt(eye, center, up mgl32.Vec3) mgl32.Mat4 {
	dir := center.Sub(eye)
	if dir.Len() == 0 {
		return mgl32.Translate3D(-eye.X(), -eye.Y(), -eye.Z())
	}
	if dir.Normalize().Cross(up.Normalize()).Len() < 1e-6 {
		up = mgl32.Vec3{0, 0, -1}
		if dir.Normalize().Cross(up).Len() < 1e-6 {
			up = mgl32.Vec3{0, 1, 0}
		}
	}
	return mgl32.LookAtV(eye, center, up)
}

func DegreeToRadiansV3(v mgl32.Vec3) mgl32.Vec3 {
	return v.Mul(math.Pi / 180.0)
}

// Mat4BitsEqual compares matrices bit for bit, NaN payloads included.
func Mat4BitsEqual(a, b mgl32.Mat4) bool {
	for i := range a {
		if math.Float32bits(a[i]) != math.Float32bits(b[i]) {
			return false
		}
	}
	return true
}
