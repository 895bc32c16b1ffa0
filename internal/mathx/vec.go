// Package mathx holds the domain helpers layered over mgl64: the frame
// axes, zero-safe normalisation, exponential smoothing and the Unity-style
// damped follow. Vectors and quaternions are mgl64 types throughout.
package mathx

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Epsilon is the tolerance used for zero-length and parallel checks.
const Epsilon = 1e-9

var (
	Zero    = mgl64.Vec3{}
	Up      = mgl64.Vec3{0, 1, 0}
	Forward = mgl64.Vec3{0, 0, 1}
	Right   = mgl64.Vec3{1, 0, 0}
)

// Normalize returns the unit vector, or Zero when v has no length.
// mgl64's Normalize divides by zero on a zero vector.
func Normalize(v mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l < Epsilon {
		return Zero
	}
	return v.Mul(1 / l)
}

// Horizontal drops the vertical component.
func Horizontal(v mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{v.X(), 0, v.Z()}
}

// ClampLength scales v down so its length does not exceed max.
func ClampLength(v mgl64.Vec3, max float64) mgl64.Vec3 {
	if max <= 0 {
		return Zero
	}
	lsq := v.Dot(v)
	if lsq <= max*max {
		return v
	}
	return v.Mul(max / math.Sqrt(lsq))
}

// ClampLength2 limits a 2D axis to max, the same way analog sticks and
// WASD composites are normalised.
func ClampLength2(v mgl64.Vec2, max float64) mgl64.Vec2 {
	l := v.Len()
	if l <= max || l < Epsilon {
		return v
	}
	return v.Mul(max / l)
}

func Lerp(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

func Distance(a, b mgl64.Vec3) float64 {
	return a.Sub(b).Len()
}

// NearlyEqual compares component-wise with an absolute tolerance.
// mgl64's ApproxEqualThreshold is relative and too strict near zero.
func NearlyEqual(a, b mgl64.Vec3, tol float64) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}

// Mean returns the arithmetic mean of points, or Zero for an empty slice.
func Mean(points []mgl64.Vec3) mgl64.Vec3 {
	if len(points) == 0 {
		return Zero
	}
	var sum mgl64.Vec3
	for _, p := range points {
		sum = sum.Add(p)
	}
	return sum.Mul(1 / float64(len(points)))
}

func LenSq(v mgl64.Vec3) float64 {
	return v.Dot(v)
}
