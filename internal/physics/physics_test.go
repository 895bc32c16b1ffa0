package physics

import (
	"math"
	"testing"

	"github.com/Versifine/rollcall/internal/mathx"
	"github.com/go-gl/mathgl/mgl64"
)

func addFloor(grid *Grid, minX, maxX, minZ, maxZ, y int) {
	grid.Fill(minX, y, minZ, maxX, y, maxZ, LayerGround)
}

func approxEqual(t *testing.T, got, want, tol float64, field string) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Fatalf("%s = %.8f, want %.8f (tol=%.8f)", field, got, want, tol)
	}
}

func poseAt(x, y, z float64) mathx.Pose {
	return mathx.Pose{Position: mgl64.Vec3{x, y, z}}
}

func TestWorldStep_FreeFallOneStep(t *testing.T) {
	w := NewWorld(DefaultConfig(), nil)
	b := w.NewBody("a", poseAt(0, 10, 0), 0.5, 1)

	w.Step(0.1)

	approxEqual(t, b.Velocity().Y(), -0.981, 1e-9, "velocity.y")
	approxEqual(t, b.Position().Y(), 10-0.0981, 1e-9, "position.y")
}

func TestWorldStep_RestsOnFloor(t *testing.T) {
	grid := NewGrid()
	addFloor(grid, -2, 2, -2, 2, 0)
	w := NewWorld(DefaultConfig(), grid)
	b := w.NewBody("a", poseAt(0.5, 1.5, 0.5), 0.5, 1)

	for i := 0; i < 20; i++ {
		w.Step(0.02)
	}

	approxEqual(t, b.Position().Y(), 1.5, 1e-9, "position.y")
	approxEqual(t, b.Velocity().Y(), 0, 1e-9, "velocity.y")
}

func TestWorldStep_WallStopsHorizontalMovement(t *testing.T) {
	grid := NewGrid()
	addFloor(grid, -2, 4, -2, 2, 0)
	grid.Set(2, 1, 0, LayerGround)
	grid.Set(2, 2, 0, LayerGround)
	w := NewWorld(DefaultConfig(), grid)
	b := w.NewBody("a", poseAt(1.0, 1.5, 0.5), 0.5, 1)
	b.SetVelocity(mgl64.Vec3{10, 0, 0})

	w.Step(0.1)

	approxEqual(t, b.Position().X(), 1.5, 1e-9, "position.x")
	approxEqual(t, b.Velocity().X(), 0, 1e-9, "velocity.x")
}

func TestWorldStep_SeparatesOverlappingBodies(t *testing.T) {
	grid := NewGrid()
	addFloor(grid, -4, 4, -4, 4, 0)
	w := NewWorld(DefaultConfig(), grid)
	a := w.NewBody("a", poseAt(0.5, 1.5, 0.5), 0.5, 1)
	b := w.NewBody("b", poseAt(0.9, 1.5, 0.5), 0.5, 1)

	w.Step(0.02)

	if a.Position().X() >= 0.5 {
		t.Fatalf("a.x = %.6f, want < 0.5", a.Position().X())
	}
	if b.Position().X() <= 0.9 {
		t.Fatalf("b.x = %.6f, want > 0.9", b.Position().X())
	}
}

func TestOverlapSphere_RespectsLayerMask(t *testing.T) {
	grid := NewGrid()
	grid.Set(0, 0, 0, LayerGround)
	grid.Set(5, 0, 0, LayerTrigger)
	w := NewWorld(DefaultConfig(), grid)

	if !w.OverlapSphere(mgl64.Vec3{0.5, 1.05, 0.5}, 0.1, LayerGround) {
		t.Fatalf("probe above ground cell = false, want true")
	}
	if w.OverlapSphere(mgl64.Vec3{0.5, 1.5, 0.5}, 0.1, LayerGround) {
		t.Fatalf("probe far above ground = true, want false")
	}
	if w.OverlapSphere(mgl64.Vec3{5.5, 1.05, 0.5}, 0.1, LayerGround) {
		t.Fatalf("trigger cell matched ground mask")
	}
}

func TestOverlapSphere_AgentsOnlyWhenMasked(t *testing.T) {
	w := NewWorld(DefaultConfig(), nil)
	w.NewBody("a", poseAt(0, 0, 0), 0.5, 1)

	if w.OverlapSphere(mgl64.Vec3{0.6, 0, 0}, 0.2, LayerGround) {
		t.Fatalf("ground-only probe hit an agent body")
	}
	if !w.OverlapSphere(mgl64.Vec3{0.6, 0, 0}, 0.2, LayerAgent) {
		t.Fatalf("agent probe missed overlapping body")
	}
}

func TestBody_AddImpulseScalesByMass(t *testing.T) {
	w := NewWorld(DefaultConfig(), nil)
	b := w.NewBody("a", poseAt(0, 0, 0), 0.5, 2)

	b.AddImpulse(mgl64.Vec3{0, 6, 0})

	approxEqual(t, b.Velocity().Y(), 3, 1e-12, "velocity.y")
}

func TestBody_NilReceiverIsNoop(t *testing.T) {
	var b *Body
	b.SetVelocity(mgl64.Vec3{1, 2, 3})
	b.AddImpulse(mathx.Up)
	if b.Velocity() != mathx.Zero {
		t.Fatalf("nil body velocity = %v, want zero", b.Velocity())
	}
}
