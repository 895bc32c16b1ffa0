package mathx

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// The frame is y-up with +Z forward; a yaw of θ degrees turns Forward into
// (sin θ, 0, cos θ).

// AxisAngle rotates deg degrees about axis. A zero axis yields identity.
func AxisAngle(axis mgl64.Vec3, deg float64) mgl64.Quat {
	n := Normalize(axis)
	if n == Zero {
		return mgl64.QuatIdent()
	}
	return mgl64.QuatRotate(mgl64.DegToRad(deg), n)
}

// Euler builds a rotation from pitch (about X), yaw (about Y) and roll
// (about Z) in degrees, applied roll first, then pitch, then yaw.
func Euler(pitch, yaw, roll float64) mgl64.Quat {
	return mgl64.AnglesToQuat(mgl64.DegToRad(yaw), mgl64.DegToRad(pitch), mgl64.DegToRad(roll), mgl64.YXZ)
}

// EulerVec is Euler with the angles packed as (pitch, yaw, roll).
func EulerVec(v mgl64.Vec3) mgl64.Quat {
	return Euler(v.X(), v.Y(), v.Z())
}

// Angle returns the angle in degrees between two rotations.
func Angle(a, b mgl64.Quat) float64 {
	d := math.Abs(a.Normalize().Dot(b.Normalize()))
	return mgl64.RadToDeg(2 * math.Acos(mgl64.Clamp(d, 0, 1)))
}

// LookRotation orients Forward along forward with up as the hint for the
// vertical axis. Degenerate input returns identity.
func LookRotation(forward, up mgl64.Vec3) mgl64.Quat {
	z := Normalize(forward)
	if z == Zero {
		return mgl64.QuatIdent()
	}
	x := Normalize(up.Cross(z))
	if x == Zero {
		// forward is parallel to up; pick any perpendicular.
		x = Normalize(Forward.Cross(z))
		if x == Zero {
			x = Right
		}
	}
	y := z.Cross(x)
	return mgl64.Mat4ToQuat(mgl64.Mat3FromCols(x, y, z).Mat4()).Normalize()
}

// Slerp interpolates along the shorter arc.
func Slerp(a, b mgl64.Quat, t float64) mgl64.Quat {
	if a.Dot(b) < 0 {
		b = b.Scale(-1)
	}
	return mgl64.QuatSlerp(a, b, t)
}

// Yaw extracts the heading of q in degrees in (-180, 180].
func Yaw(q mgl64.Quat) float64 {
	f := q.Rotate(Forward)
	return NormalizeAngle(mgl64.RadToDeg(math.Atan2(f.X(), f.Z())))
}

// Pose is a world position plus orientation.
type Pose struct {
	Position mgl64.Vec3 `yaml:"position"`
	Rotation mgl64.Quat `yaml:"-"`
	// Euler is the YAML-facing rotation in degrees (pitch, yaw, roll).
	Euler mgl64.Vec3 `yaml:"euler"`
}

// Resolved fills Rotation from Euler when Rotation is unset.
func (p Pose) Resolved() Pose {
	if p.Rotation == (mgl64.Quat{}) {
		p.Rotation = EulerVec(p.Euler)
	}
	return p
}
