package mathx

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ExpFactor is the blend weight for exponential approach at rate over dt.
// It is frame-rate independent: two half steps equal one full step.
func ExpFactor(rate, dt float64) float64 {
	if rate <= 0 || dt <= 0 {
		return 0
	}
	return 1 - math.Exp(-rate*dt)
}

func ExpApproach(current, target, rate, dt float64) float64 {
	return current + (target-current)*ExpFactor(rate, dt)
}

func ExpApproachVec(current, target mgl64.Vec3, rate, dt float64) mgl64.Vec3 {
	return Lerp(current, target, ExpFactor(rate, dt))
}

func ExpApproachQuat(current, target mgl64.Quat, rate, dt float64) mgl64.Quat {
	return Slerp(current, target, ExpFactor(rate, dt))
}

// SmoothDamp moves current toward target as a critically damped spring.
// velocity carries state between calls and must be reused for the same
// follower. The result converges within roughly smoothTime and never
// overshoots the target.
func SmoothDamp(current, target mgl64.Vec3, velocity *mgl64.Vec3, smoothTime, dt float64) mgl64.Vec3 {
	if dt <= 0 {
		return current
	}
	if velocity == nil {
		velocity = &mgl64.Vec3{}
	}
	smoothTime = math.Max(1e-4, smoothTime)
	omega := 2 / smoothTime
	x := omega * dt
	decay := 1 / (1 + x + 0.48*x*x + 0.235*x*x*x)

	change := current.Sub(target)
	temp := velocity.Add(change.Mul(omega)).Mul(dt)
	*velocity = velocity.Sub(temp.Mul(omega)).Mul(decay)
	out := target.Add(change.Add(temp).Mul(decay))

	// Clamp if the step crossed the target.
	if target.Sub(current).Dot(out.Sub(target)) > 0 {
		out = target
		*velocity = Zero
	}
	return out
}

func NormalizeAngle(deg float64) float64 {
	for deg <= -180 {
		deg += 360
	}
	for deg > 180 {
		deg -= 360
	}
	return deg
}
