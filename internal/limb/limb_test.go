package limb

import (
	"math"
	"testing"

	"github.com/Versifine/rollcall/internal/mathx"
	"github.com/go-gl/mathgl/mgl64"
)

const frame = 1.0 / 60.0

func approxEqual(t *testing.T, got, want, tol float64, field string) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Fatalf("%s = %.6f, want %.6f (tol=%.6f)", field, got, want, tol)
	}
}

func TestEngagedTargetStaysWithinReach(t *testing.T) {
	cfg := DefaultConfig()
	agent := mgl64.Vec3{3, 1, -2}
	points := []mgl64.Vec3{
		{3, 1, -2},
		{3.5, 1, -2},
		{1000, 1, 0},
		{-1e6, 1, 1e6},
		{3, 50, -2},
	}
	for _, p := range points {
		c := New("a", Left, cfg, agent)
		for i := 0; i < 120; i++ {
			c.Update(Input{Dt: frame, AgentPos: agent, Engaged: true, WorldPoint: p})
			if d := mathx.Distance(c.Target(), agent); d > cfg.ReachLimit+1e-9 {
				t.Fatalf("point %v: target distance = %.6f, want <= %.6f", p, d, cfg.ReachLimit)
			}
			if d := mathx.Distance(c.Position(), agent); d > cfg.ReachLimit+1e-9 {
				t.Fatalf("point %v: limb distance = %.6f, want <= %.6f", p, d, cfg.ReachLimit)
			}
		}
	}
}

func TestEngagedTargetHeightFixedAboveAgent(t *testing.T) {
	cfg := DefaultConfig()
	agent := mgl64.Vec3{0, 2, 0}
	c := New("a", Right, cfg, agent)

	c.Update(Input{Dt: frame, AgentPos: agent, Engaged: true, WorldPoint: mgl64.Vec3{0.5, 2, 0}})

	approxEqual(t, c.Target().Y(), 2+cfg.HeightOffset, 1e-9, "target.y")
	approxEqual(t, c.Target().X(), 0.5, 1e-9, "target.x")
	if !c.Present() || c.TargetScale() != 1 {
		t.Fatalf("engaged limb present=%v targetScale=%v, want visible", c.Present(), c.TargetScale())
	}
}

func TestFarPointKeepsHeightAndReach(t *testing.T) {
	cfg := DefaultConfig()
	agent := mgl64.Vec3{0, 0, 0}
	c := New("a", Right, cfg, agent)

	c.Update(Input{Dt: frame, AgentPos: agent, Engaged: true, WorldPoint: mgl64.Vec3{40, 0, 30}})

	approxEqual(t, c.Target().Y(), cfg.HeightOffset, 1e-12, "target.y")
	approxEqual(t, mathx.Distance(c.Target(), agent), cfg.ReachLimit, 1e-9, "target distance")
	flat := mathx.Horizontal(c.Target())
	approxEqual(t, flat.X()/flat.Z(), 40.0/30.0, 1e-9, "horizontal heading")
}

func TestHeightBeyondReachStaysWithinReach(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ReachLimit = 0.2
	agent := mgl64.Vec3{1, 1, 1}
	c := New("a", Left, cfg, agent)

	c.Update(Input{Dt: frame, AgentPos: agent, Engaged: true, WorldPoint: mgl64.Vec3{5, 1, 1}})

	want := mgl64.Vec3{1, 1.2, 1}
	if !mathx.NearlyEqual(c.Target(), want, 1e-12) {
		t.Fatalf("target = %v, want %v", c.Target(), want)
	}
}

func TestEngagedLooksAtWorldPoint(t *testing.T) {
	cfg := DefaultConfig()
	agent := mgl64.Vec3{0, 0, 0}
	c := New("a", Left, cfg, agent)
	point := mgl64.Vec3{10, 0, 0}

	for i := 0; i < 300; i++ {
		c.Update(Input{Dt: frame, AgentPos: agent, Engaged: true, WorldPoint: point})
	}

	fwd := c.Rotation().Rotate(mathx.Forward)
	want := mathx.Normalize(point.Sub(c.Position()))
	if !mathx.NearlyEqual(fwd, want, 1e-6) {
		t.Fatalf("forward = %v, want %v", fwd, want)
	}
}

func TestIdleConvergesToFacingOffset(t *testing.T) {
	cfg := DefaultConfig()
	agent := mgl64.Vec3{1, 0, 1}
	facing := mathx.Euler(0, 90, 0)

	for _, side := range []Side{Left, Right} {
		c := New("a", side, cfg, mgl64.Vec3{20, 0, 20})
		for i := 0; i < 600; i++ {
			c.Update(Input{Dt: frame, AgentPos: agent, Facing: facing})
		}
		want := agent.Add(facing.Rotate(c.IdleOffset()))
		if !mathx.NearlyEqual(c.Target(), want, 1e-9) {
			t.Fatalf("%s target = %v, want %v", side, c.Target(), want)
		}
		if !mathx.NearlyEqual(c.Position(), want, 1e-4) {
			t.Fatalf("%s position = %v, want %v", side, c.Position(), want)
		}
		approxEqual(t, c.Scale(), 1, 1e-4, side.String()+" scale")
		if mathx.Angle(c.Rotation(), facing) > 0.01 {
			t.Fatalf("%s rotation differs from facing by %.4f deg", side, mathx.Angle(c.Rotation(), facing))
		}
	}
}

func TestIdleOffsetMirroredBySide(t *testing.T) {
	cfg := DefaultConfig()
	l := New("a", Left, cfg, mathx.Zero)
	r := New("a", Right, cfg, mathx.Zero)

	if l.IdleOffset().X() != -r.IdleOffset().X() {
		t.Fatalf("left x = %v, right x = %v, want mirrored", l.IdleOffset().X(), r.IdleOffset().X())
	}
	if l.IdleOffset().Y() != r.IdleOffset().Y() || l.IdleOffset().Z() != r.IdleOffset().Z() {
		t.Fatalf("only X should differ: left %v right %v", l.IdleOffset(), r.IdleOffset())
	}
}

func TestMovingHidesAfterFade(t *testing.T) {
	cfg := DefaultConfig()
	c := New("a", Left, cfg, mathx.Zero)
	for i := 0; i < 300; i++ {
		c.Update(Input{Dt: frame})
	}
	if !c.Present() {
		t.Fatalf("idle limb not present")
	}

	c.Update(Input{Dt: frame, Moving: true})
	if !c.Present() {
		t.Fatalf("limb popped away on first moving frame")
	}
	if c.TargetScale() != 0 {
		t.Fatalf("targetScale = %v, want 0", c.TargetScale())
	}

	for i := 0; i < 600 && c.Present(); i++ {
		c.Update(Input{Dt: frame, Moving: true})
	}
	if c.Present() {
		t.Fatalf("limb still present after long fade-out")
	}
	if c.Scale() != 0 {
		t.Fatalf("scale = %v after hide, want 0", c.Scale())
	}
}

func TestReengageReversesFadeOut(t *testing.T) {
	cfg := DefaultConfig()
	c := New("a", Left, cfg, mathx.Zero)
	for i := 0; i < 300; i++ {
		c.Update(Input{Dt: frame})
	}
	for i := 0; i < 5; i++ {
		c.Update(Input{Dt: frame, Moving: true})
	}
	mid := c.Scale()
	if mid <= cfg.ScaleEpsilon || mid >= 1 {
		t.Fatalf("mid-fade scale = %v, want between epsilon and 1", mid)
	}

	c.Update(Input{Dt: frame, Moving: true, Engaged: true, WorldPoint: mgl64.Vec3{1, 0, 0}})

	if !c.Present() {
		t.Fatalf("re-engaged limb not present")
	}
	if c.Scale() <= mid {
		t.Fatalf("scale = %v, want growing from %v", c.Scale(), mid)
	}
}
