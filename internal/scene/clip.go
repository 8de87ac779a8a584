package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/shadow-atlas/internal/shadow"
)

const (
	// nearClip is the near plane of every light frustum.
	nearClip = 0.05
	// PointGuardAngle widens each cube face frustum past 90 degrees so filter taps near
	// face edges still land inside the tile.
	PointGuardAngle = 4
)

type cubeFace struct {
	dir, up mgl32.Vec3
}

// Cube faces in +X, -X, +Y, -Y, +Z, -Z order, matching the slice index.
var cubeFaces = [shadow.CubeFaces]cubeFace{
	{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, -1, 0}},
	{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, -1, 0}},
	{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 0, 1}},
	{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{0, 0, -1}},
	{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, -1, 0}},
	{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, -1, 0}},
}

// SpotMatrix computes the world-to-clip transform of a spot light's shadow frustum.
func SpotMatrix(pos, dir mgl32.Vec3, angleDeg, rangeDist float32) mgl32.Mat4 {
	dir = dir.Normalize()

	// Avoid an up vector parallel with the light direction
	up := mgl32.Vec3{0, 1, 0}
	if abs32(dir.Y()) > 0.99 {
		up = mgl32.Vec3{0, 0, 1}
	}

	view := mgl32.LookAtV(pos, pos.Add(dir), up)
	proj := mgl32.Perspective(mgl32.DegToRad(angleDeg), 1, nearClip, rangeDist)
	return proj.Mul4(view)
}

// PointFaceMatrix computes the world-to-clip transform of one cube face of a point light.
func PointFaceMatrix(pos mgl32.Vec3, face int, rangeDist float32) mgl32.Mat4 {
	f := cubeFaces[face]
	view := mgl32.LookAtV(pos, pos.Add(f.dir), f.up)
	proj := mgl32.Perspective(mgl32.DegToRad(90+PointGuardAngle), 1, nearClip, rangeDist)
	return proj.Mul4(view)
}

// ClipTransform implements shadow.ClipSource. Lights without a usable frustum report false.
func (s *Scene) ClipTransform(light, slice int) (mgl32.Mat4, bool) {
	if light < 0 || light >= len(s.Lights) {
		return mgl32.Mat4{}, false
	}
	d := &s.Lights[light]
	if d.Range <= 0 {
		return mgl32.Mat4{}, false
	}

	pos := mgl32.Vec3(d.Position)
	switch s.lights[light].Type {
	case shadow.LightSpot:
		if slice != 0 {
			return mgl32.Mat4{}, false
		}
		return SpotMatrix(pos, mgl32.Vec3(d.Direction), d.SpotAngle, d.Range), true
	case shadow.LightPoint:
		if slice < 0 || slice >= shadow.CubeFaces {
			return mgl32.Mat4{}, false
		}
		return PointFaceMatrix(pos, slice, d.Range), true
	default:
		return mgl32.Mat4{}, false
	}
}

// abs32 returns the absolute value of a float32.
func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
