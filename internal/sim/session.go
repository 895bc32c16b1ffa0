// Package sim owns one play session: it builds the agents from config,
// wires them to the switcher, camera and portals, and runs the frame loop.
package sim

import (
	"fmt"
	"log/slog"

	"github.com/Versifine/rollcall/internal/camera"
	"github.com/Versifine/rollcall/internal/config"
	"github.com/Versifine/rollcall/internal/control"
	"github.com/Versifine/rollcall/internal/effect"
	"github.com/Versifine/rollcall/internal/event"
	"github.com/Versifine/rollcall/internal/input"
	"github.com/Versifine/rollcall/internal/locomotion"
	"github.com/Versifine/rollcall/internal/mathx"
	"github.com/Versifine/rollcall/internal/physics"
	"github.com/Versifine/rollcall/internal/portal"
	"github.com/go-gl/mathgl/mgl64"
)

// MaxFrameDelta caps one frame's dt so a stalled host does not launch
// agents through the floor.
const MaxFrameDelta = 0.25

const recentEvents = 8

// fixedTolerance lets 0.06 of accumulated time run three 0.02 steps.
const fixedTolerance = 1e-9

type Session struct {
	cfg   config.Config
	input input.Sampler
	bus   *event.Bus

	world    *physics.World
	agents   []*locomotion.Controller
	index    map[string]*locomotion.Controller
	splashes []*effect.Marker
	embers   []*effect.Marker
	fog      *effect.Marker
	face     *effect.FaceIcon

	switcher *control.Switcher
	camera   *camera.Follow
	portals  *portal.Set

	viewW, viewH float64
	acc          float64
	elapsed      float64
	frames       uint64
	fixedSteps   uint64
	recent       []string
	closed       bool
}

// New builds a session and gives control to the first agent.
func New(cfg config.Config, sampler input.Sampler) (*Session, error) {
	if cfg.Session.FixedStep <= 0 {
		return nil, fmt.Errorf("session fixed_step must be positive, got %v", cfg.Session.FixedStep)
	}
	if sampler == nil {
		sampler = input.NewState()
	}
	s := &Session{
		cfg:   cfg,
		input: sampler,
		bus:   event.NewBus(),
		index: make(map[string]*locomotion.Controller),
		fog:   effect.NewMarker("fog"),
		face:  &effect.FaceIcon{},
		viewW: float64(cfg.Host.Width),
		viewH: float64(cfg.Host.Height),
	}

	grid := physics.NewGrid()
	if a := cfg.Session.Arena; a.HalfExtent > 0 {
		grid.Fill(-a.HalfExtent, a.FloorY, -a.HalfExtent, a.HalfExtent, a.FloorY, a.HalfExtent, physics.LayerGround)
	}
	s.world = physics.NewWorld(cfg.Physics, grid)

	placements := Placements(cfg)
	roster := make([]control.Agent, 0, len(placements))
	for _, p := range placements {
		if _, dup := s.index[p.ID]; dup {
			return nil, fmt.Errorf("duplicate agent id %q", p.ID)
		}
		body := s.world.NewBody(p.ID, p.Spawn, physics.DefaultBodyRadius, physics.DefaultBodyMass)
		splash := effect.NewMarker(p.ID + "/splash")
		ember := effect.NewMarker(p.ID + "/ember")
		ember.Activate(true)
		agent := locomotion.New(p.ID, p.Spawn, body, s.world, cfg.Locomotion,
			locomotion.WithBus(s.bus),
			locomotion.WithSplash(splash),
			locomotion.WithEmber(ember),
			locomotion.WithLimbConfig(cfg.Limb),
		)
		s.agents = append(s.agents, agent)
		s.index[p.ID] = agent
		s.splashes = append(s.splashes, splash)
		s.embers = append(s.embers, ember)
		roster = append(roster, agent)
	}

	s.camera = camera.New(cfg.Camera, camera.TrackerFunc(s.trackedPosition))
	s.portals = portal.NewSet(cfg.Portals)
	s.switcher = control.New(cfg.Switcher, roster, s.camera,
		control.WithFog(s.fog),
		control.WithFace(s.face),
		control.WithBus(s.bus),
	)
	s.subscribe()
	s.switcher.Initialize()

	slog.Info("Session started", "agents", len(s.agents), "portals", len(cfg.Portals), "fixed_step", cfg.Session.FixedStep)
	return s, nil
}

func (s *Session) trackedPosition(id string) (mgl64.Vec3, bool) {
	a, ok := s.index[id]
	if !ok {
		return mathx.Zero, false
	}
	return a.Position(), true
}

// subscribe keeps a short log of sim events for hosts to display.
func (s *Session) subscribe() {
	note := func(name string) event.HandlerFunc {
		return func(raw any) {
			var line string
			switch e := raw.(type) {
			case event.AgentEvent:
				line = fmt.Sprintf("%s %s", e.AgentID, name)
			case event.ControlSwitchedEvent:
				line = fmt.Sprintf("control %s -> %s", e.From, e.To)
			case event.CloseViewEvent:
				line = fmt.Sprintf("close view %v", e.Enabled)
			default:
				line = name
			}
			s.recent = append(s.recent, line)
			if len(s.recent) > recentEvents {
				s.recent = s.recent[len(s.recent)-recentEvents:]
			}
		}
	}
	for _, name := range []string{
		event.EventControlSwitched,
		event.EventUnlocked,
		event.EventJumped,
		event.EventLanded,
		event.EventRespawned,
		event.EventTeleported,
		event.EventCloseView,
	} {
		s.bus.Subscribe(name, note(name))
	}
}

// Bus exposes the session's event bus for extra subscribers.
func (s *Session) Bus() *event.Bus { return s.bus }

// SetViewport tells the session the pixel size pointer coordinates refer to.
func (s *Session) SetViewport(w, h float64) {
	s.viewW, s.viewH = w, h
}

// Frame advances the session by dt seconds: fixed physics steps for the
// accumulated time, then every agent's variable step, portals, control
// switching, and the camera last.
func (s *Session) Frame(dt float64) {
	if s == nil || s.closed || dt <= 0 {
		return
	}
	if dt > MaxFrameDelta {
		dt = MaxFrameDelta
	}
	snap := s.input.Sample()

	s.stepFixed(dt)

	aim := pointerAim{cam: s.camera, pointer: snap.Axis2(input.Pointer), w: s.viewW, h: s.viewH}
	for _, a := range s.agents {
		a.Update(locomotion.Frame{Dt: dt, Input: snap, Aim: aim})
	}

	travelers := make([]portal.Traveler, len(s.agents))
	for i, a := range s.agents {
		travelers[i] = a
	}
	s.portals.Check(travelers)

	if snap.Edge(input.SwitchControl) {
		s.switcher.SwitchControl()
	}
	s.switcher.Update(dt)

	if snap.Edge(input.ToggleCloseView) {
		s.camera.ToggleCloseView()
		s.bus.Publish(event.EventCloseView, event.CloseViewEvent{Enabled: s.camera.CloseView()})
	}
	s.camera.Update(dt, snap.Axis1(input.Zoom))

	s.elapsed += dt
	s.frames++
}

func (s *Session) stepFixed(dt float64) {
	step := s.cfg.Session.FixedStep
	limit := s.cfg.Session.MaxFixedSteps
	if limit <= 0 {
		limit = 1
	}
	s.acc += dt
	n := 0
	for s.acc+fixedTolerance >= step && n < limit {
		for _, a := range s.agents {
			a.FixedUpdate()
		}
		s.world.Step(step)
		s.acc -= step
		n++
	}
	if n == limit && s.acc >= step {
		slog.Debug("Dropping physics backlog", "seconds", s.acc)
		s.acc = 0
	}
	if s.acc < 0 {
		s.acc = 0
	}
	s.fixedSteps += uint64(n)
}

// Close releases every agent's effect handles and stops background tasks.
func (s *Session) Close() {
	if s == nil || s.closed {
		return
	}
	s.closed = true
	s.switcher.Stop()
	for _, a := range s.agents {
		a.Release()
	}
	slog.Info("Session closed", "frames", s.frames, "elapsed", s.elapsed)
}

// TeleportActive moves the controlled agent to position, keeping its
// rotation, and locks its movement like a portal would.
func (s *Session) TeleportActive(position mgl64.Vec3) bool {
	if s == nil || s.closed {
		return false
	}
	a := s.switcher.Active()
	if a == nil {
		return false
	}
	agent := s.index[a.ID()]
	agent.Teleport(position, agent.Snapshot().Rotation)
	return true
}

func (s *Session) Agents() []*locomotion.Controller {
	return append([]*locomotion.Controller(nil), s.agents...)
}

func (s *Session) Agent(id string) *locomotion.Controller { return s.index[id] }

func (s *Session) Camera() *camera.Follow { return s.camera }

func (s *Session) Switcher() *control.Switcher { return s.switcher }

func (s *Session) World() *physics.World { return s.world }

// pointerAim projects the frame's pointer through the camera onto the
// horizontal plane at the agent's height.
type pointerAim struct {
	cam     *camera.Follow
	pointer mgl64.Vec2
	w, h    float64
}

func (p pointerAim) Aim(agentPos mgl64.Vec3) mgl64.Vec3 {
	if p.cam == nil {
		return agentPos
	}
	ray := p.cam.ScreenRay(p.pointer.X(), p.pointer.Y(), p.w, p.h)
	return camera.PlanePoint(ray, agentPos.Y(), agentPos)
}
