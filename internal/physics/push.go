package physics

import (
	"math"

	"github.com/Versifine/rollcall/internal/mathx"
	"github.com/go-gl/mathgl/mgl64"
)

// separationPush returns the horizontal displacement that nudges self out
// of overlapping neighbours. Vertically disjoint bodies are ignored.
func separationPush(self *Body, pos mgl64.Vec3, others []*Body) mgl64.Vec3 {
	var pushX, pushZ float64
	for _, other := range others {
		if other == self {
			continue
		}
		op := other.Position()
		if math.Abs(op.Y()-pos.Y()) >= self.radius+other.radius {
			continue
		}

		dx := pos.X() - op.X()
		dz := pos.Z() - op.Z()
		dist2 := dx*dx + dz*dz
		minDist := self.radius + other.radius
		if dist2 >= minDist*minDist {
			continue
		}

		dist := math.Sqrt(dist2)
		if dist < CollisionAxisTolerance {
			// Coincident centres: break the tie by id so the pair separates.
			dx, dz, dist = 1, 0, 1
			if self.id < other.id {
				dx = -1
			}
		}

		overlap := minDist - dist
		if overlap <= 0 {
			continue
		}
		mag := math.Min(overlap*bodyPushStrength, bodyPushMaxPerBody)
		pushX += (dx / dist) * mag
		pushZ += (dz / dist) * mag
	}

	push := mgl64.Vec3{pushX, 0, pushZ}
	if push.Len() <= CollisionAxisTolerance {
		return mathx.Zero
	}
	return mathx.ClampLength(push, bodyPushMaxPerStep)
}
