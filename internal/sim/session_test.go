package sim

import (
	"context"
	"math"
	"testing"

	"github.com/Versifine/rollcall/internal/config"
	"github.com/Versifine/rollcall/internal/input"
	"github.com/Versifine/rollcall/internal/locomotion"
	"github.com/Versifine/rollcall/internal/mathx"
	"github.com/Versifine/rollcall/internal/portal"
	"github.com/go-gl/mathgl/mgl64"
)

const frame = 1.0 / 60

func approxEqual(t *testing.T, got, want, tol float64, field string) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Fatalf("%s = %.8f, want %.8f (tol=%.8f)", field, got, want, tol)
	}
}

func newSession(t *testing.T, mutate func(*config.Config)) (*Session, *input.State) {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(&cfg)
	}
	in := input.NewState()
	s, err := New(cfg, in)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(s.Close)
	return s, in
}

func run(s *Session, seconds float64) {
	for n := int(math.Round(seconds / frame)); n > 0; n-- {
		s.Frame(frame)
	}
}

func TestRingPlacementFacesCentre(t *testing.T) {
	poses := RingPlacement(4, 3, 1)
	if len(poses) != 4 {
		t.Fatalf("len = %d, want 4", len(poses))
	}
	for i, p := range poses {
		approxEqual(t, mathx.Horizontal(p.Position).Len(), 3, 1e-9, "radius")
		approxEqual(t, p.Position.Y(), 1, 0, "height")
		toCentre := mathx.Normalize(mathx.Horizontal(p.Position).Mul(-1))
		if fwd := p.Rotation.Rotate(mathx.Forward); !mathx.NearlyEqual(fwd, toCentre, 1e-9) {
			t.Fatalf("pose %d forward = %v, want %v", i, fwd, toCentre)
		}
	}
	if one := RingPlacement(1, 3, 2); len(one) != 1 || one[0].Position != (mgl64.Vec3{0, 2, 0}) {
		t.Fatalf("single placement = %+v, want centre", one)
	}
	if RingPlacement(0, 3, 1) != nil {
		t.Fatalf("zero agents should place nothing")
	}
}

func TestPlacementsPreferConfiguredAgents(t *testing.T) {
	cfg := config.Default()
	cfg.Agents = []config.AgentConfig{
		{ID: "red", Spawn: mathx.Pose{Position: mgl64.Vec3{1, 1, 1}, Euler: mgl64.Vec3{0, 90, 0}}},
		{ID: "blue"},
	}
	got := Placements(cfg)
	if len(got) != 2 || got[0].ID != "red" || got[1].ID != "blue" {
		t.Fatalf("placements = %+v", got)
	}
	if mathx.Angle(got[0].Spawn.Rotation, mathx.Euler(0, 90, 0)) > 1e-6 {
		t.Fatalf("spawn rotation not resolved from euler")
	}

	cfg.Agents = nil
	cfg.Session.AgentCount = 3
	got = Placements(cfg)
	if len(got) != 3 || got[2].ID != "agent-3" {
		t.Fatalf("ring placements = %+v", got)
	}
}

func TestNewGivesControlToFirstAgent(t *testing.T) {
	s, _ := newSession(t, nil)
	agents := s.Agents()
	if len(agents) != 3 {
		t.Fatalf("agents = %d, want 3", len(agents))
	}
	if agents[0].State() != locomotion.Locked {
		t.Fatalf("first agent state = %v, want locked", agents[0].State())
	}
	for _, a := range agents[1:] {
		if a.Controlled() {
			t.Fatalf("%s controlled at start", a.ID())
		}
	}
	v := s.View()
	if v.Active != "agent-1" || v.Camera.Target != "agent-1" || v.Face != "agent-1" {
		t.Fatalf("active=%q camera=%q face=%q, want agent-1", v.Active, v.Camera.Target, v.Face)
	}
}

func TestNewRejectsBadFixedStep(t *testing.T) {
	cfg := config.Default()
	cfg.Session.FixedStep = 0
	if _, err := New(cfg, nil); err == nil {
		t.Fatalf("New() accepted zero fixed step")
	}
}

func TestFixedAccumulatorCarriesRemainder(t *testing.T) {
	s, _ := newSession(t, func(c *config.Config) {
		c.Session.FixedStep = 0.02
	})
	s.Frame(0.05)
	if got := s.View().FixedSteps; got != 2 {
		t.Fatalf("fixed steps after 0.05 = %d, want 2", got)
	}
	s.Frame(0.05)
	if got := s.View().FixedSteps; got != 5 {
		t.Fatalf("fixed steps after 0.10 = %d, want 5", got)
	}
	s.Frame(0.005)
	if got := s.View().FixedSteps; got != 5 {
		t.Fatalf("fixed steps after short frame = %d, want 5", got)
	}
}

func TestFixedStepsCappedPerFrame(t *testing.T) {
	s, _ := newSession(t, func(c *config.Config) {
		c.Session.FixedStep = 0.01
		c.Session.MaxFixedSteps = 4
	})
	s.Frame(0.2)
	if got := s.View().FixedSteps; got != 4 {
		t.Fatalf("fixed steps = %d, want cap 4", got)
	}
	s.Frame(0.01)
	if got := s.View().FixedSteps; got != 5 {
		t.Fatalf("fixed steps = %d, want backlog dropped", got)
	}
}

func TestAgentLandsUnlocksAndMoves(t *testing.T) {
	s, in := newSession(t, nil)
	a := s.Agents()[0]
	start := a.Position()

	in.SetAxis2(input.Move, mgl64.Vec2{0, 1})
	run(s, 2.0)
	if !a.Grounded() {
		t.Fatalf("agent not grounded after 2s, pos=%v", a.Position())
	}
	if a.State() != locomotion.Locked {
		t.Fatalf("state = %v, want locked before 2.5s", a.State())
	}
	if d := mathx.Horizontal(a.Position()).Sub(mathx.Horizontal(start)).Len(); d > 1e-6 {
		t.Fatalf("locked agent drifted %v", d)
	}

	run(s, 1.5)
	if a.State() != locomotion.Active {
		t.Fatalf("state = %v, want active", a.State())
	}
	if dz := a.Position().Z() - start.Z(); dz < 2 {
		t.Fatalf("agent moved %.3f along +Z, want > 2", dz)
	}
	approxEqual(t, a.Position().Y(), 0.5, 1e-6, "resting height")
}

func TestJumpEdgeLaunchesGroundedAgent(t *testing.T) {
	s, in := newSession(t, nil)
	a := s.Agents()[0]
	run(s, 1)
	if !a.Grounded() {
		t.Fatalf("agent not grounded")
	}

	in.Press(input.Jump)
	s.Frame(frame)
	approxEqual(t, a.Snapshot().Velocity.Y(), s.cfg.Locomotion.JumpImpulse, 1e-9, "velocity.y")

	// The edge is consumed by the frame that saw it.
	run(s, 0.05)
	if a.Snapshot().Velocity.Y() >= s.cfg.Locomotion.JumpImpulse {
		t.Fatalf("jump re-applied without a new edge")
	}
}

func TestSplashRetriggersOnEachLanding(t *testing.T) {
	s, in := newSession(t, nil)
	a := s.Agents()[0]
	splash := s.splashes[0]
	run(s, 1)
	if !a.Grounded() || splash.Activations() != 1 {
		t.Fatalf("grounded=%v activations=%d, want first landing splash", a.Grounded(), splash.Activations())
	}

	run(s, s.cfg.Locomotion.SplashLifetime)
	if splash.Active() {
		t.Fatalf("splash still active after its lifetime")
	}

	in.Press(input.Jump)
	s.Frame(frame)
	run(s, 0.2)
	if a.Grounded() {
		t.Fatalf("agent still grounded after jump")
	}
	run(s, 2)
	if !a.Grounded() {
		t.Fatalf("agent did not land after jump")
	}
	if got := splash.Activations(); got != 2 {
		t.Fatalf("activations = %d, want 2 after second landing", got)
	}
}

func TestSwitchEdgeHandsOffControl(t *testing.T) {
	s, in := newSession(t, nil)
	run(s, 3)
	agents := s.Agents()

	in.Press(input.SwitchControl)
	s.Frame(frame)

	if agents[0].Controlled() || agents[1].State() != locomotion.Locked {
		t.Fatalf("states = %v/%v, want uncontrolled/locked", agents[0].State(), agents[1].State())
	}
	v := s.View()
	if v.Active != "agent-2" || v.Camera.Target != "agent-2" || v.Face != "agent-2" {
		t.Fatalf("active=%q camera=%q face=%q, want agent-2", v.Active, v.Camera.Target, v.Face)
	}

	// No edge, no further switch.
	run(s, 0.5)
	if s.View().Active != "agent-2" {
		t.Fatalf("switched without an edge")
	}
}

func TestCameraReadsPostMovementPose(t *testing.T) {
	s, _ := newSession(t, nil)
	s.Frame(frame)
	a := s.Agents()[0]
	want := a.Position().Add(s.Camera().Offset())
	if !mathx.NearlyEqual(s.Camera().Position(), want, 1e-12) {
		t.Fatalf("camera = %v, want %v", s.Camera().Position(), want)
	}
}

func TestCloseViewToggleRoundTrip(t *testing.T) {
	s, in := newSession(t, nil)
	in.SetAxis1(input.Zoom, 250)
	s.Frame(frame)
	before := s.View().Camera

	in.Press(input.ToggleCloseView)
	s.Frame(frame)
	if !s.View().Camera.CloseView {
		t.Fatalf("close view not on")
	}
	in.Press(input.ToggleCloseView)
	s.Frame(frame)

	after := s.View().Camera
	if after.CloseView || after.Offset != before.Offset || after.Min != before.Min || after.Max != before.Max {
		t.Fatalf("camera after round trip = %+v, want %+v", after, before)
	}
}

func TestZoomAxisIsPerFrame(t *testing.T) {
	s, in := newSession(t, nil)
	s.Frame(frame)
	d0 := s.Camera().Distance()

	in.AddAxis1(input.Zoom, 5)
	s.Frame(frame)
	approxEqual(t, s.Camera().Distance(), d0-5*s.cfg.Camera.ZoomSpeed, 1e-12, "distance")

	s.Frame(frame)
	approxEqual(t, s.Camera().Distance(), d0-5*s.cfg.Camera.ZoomSpeed, 1e-12, "distance after idle frame")
}

func TestPortalTeleportsAndRelocks(t *testing.T) {
	s, _ := newSession(t, func(c *config.Config) {
		c.Agents = []config.AgentConfig{{ID: "solo", Spawn: mathx.Pose{Position: mgl64.Vec3{0, 1, 0}}}}
		c.Portals = []portal.Gate{{
			Name:   "drop",
			Center: mgl64.Vec3{0, 0.5, 0},
			Radius: 1,
			Exit:   mathx.Pose{Position: mgl64.Vec3{10, 1, 10}},
		}}
	})
	run(s, 0.5)

	a := s.Agent("solo")
	if got := s.View().Teleports; got != 1 {
		t.Fatalf("teleports = %d, want 1", got)
	}
	if d := mathx.Distance(mathx.Horizontal(a.Position()), mgl64.Vec3{10, 0, 10}); d > 1e-6 {
		t.Fatalf("agent at %v, want near exit", a.Position())
	}
	if a.State() != locomotion.Locked {
		t.Fatalf("state = %v, want locked", a.State())
	}
}

func TestFogTracksCentroid(t *testing.T) {
	s, _ := newSession(t, nil)
	s.Frame(frame)
	var sum mgl64.Vec3
	for _, a := range s.Agents() {
		sum = sum.Add(a.Position())
	}
	c := sum.Mul(1.0 / 3)
	fog := s.View().Fog
	approxEqual(t, fog.X(), c.X(), 1e-9, "fog.x")
	approxEqual(t, fog.Z(), c.Z(), 1e-9, "fog.z")
	approxEqual(t, fog.Y(), s.cfg.Switcher.FogHeight, 0, "fog.y")
}

func TestCloseReleasesAgents(t *testing.T) {
	s, _ := newSession(t, nil)
	run(s, 0.2)
	s.Close()
	for i, e := range s.embers {
		if e.Active() {
			t.Fatalf("ember %d still active", i)
		}
	}
	for _, a := range s.Agents() {
		if a.Controlled() {
			t.Fatalf("%s still controlled after close", a.ID())
		}
	}
	frames := s.View().Frame
	s.Frame(frame)
	if s.View().Frame != frames {
		t.Fatalf("closed session kept running")
	}
	s.Close()
}

func TestEventsRecorded(t *testing.T) {
	s, in := newSession(t, nil)
	run(s, 3)
	in.Press(input.SwitchControl)
	s.Frame(frame)

	events := s.View().Events
	if len(events) == 0 || len(events) > recentEvents {
		t.Fatalf("events = %v", events)
	}
	if events[len(events)-1] != "control agent-1 -> agent-2" {
		t.Fatalf("last event = %q", events[len(events)-1])
	}
}

func TestTeleportActiveLocksAgent(t *testing.T) {
	s, _ := newSession(t, nil)
	run(s, 3)
	a := s.Agents()[0]
	if a.State() != locomotion.Active {
		t.Fatalf("state = %v, want active", a.State())
	}
	if !s.TeleportActive(mgl64.Vec3{5, 2, 5}) {
		t.Fatalf("TeleportActive() = false")
	}
	if a.Position() != (mgl64.Vec3{5, 2, 5}) || a.State() != locomotion.Locked {
		t.Fatalf("pos=%v state=%v, want teleported and locked", a.Position(), a.State())
	}
}

func TestRunHeadlessStopsAfterFrames(t *testing.T) {
	s, _ := newSession(t, nil)
	if err := RunHeadless(context.Background(), s, 1000, 5); err != nil {
		t.Fatalf("RunHeadless() error: %v", err)
	}
	if got := s.View().Frame; got != 5 {
		t.Fatalf("frames = %d, want 5", got)
	}
}

func TestRunHeadlessHonoursContext(t *testing.T) {
	s, _ := newSession(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := RunHeadless(ctx, s, 1000, 0); err != nil {
		t.Fatalf("RunHeadless() error: %v", err)
	}
	if err := RunHeadless(ctx, s, 0, 1); err == nil {
		t.Fatalf("RunHeadless(rate 0) error = nil, want error")
	}
}
