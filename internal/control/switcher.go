// Package control hands player control around a fixed roster of agents,
// one at a time, and keeps the shared fog marker over the group.
package control

import (
	"log/slog"

	"github.com/Versifine/rollcall/internal/effect"
	"github.com/Versifine/rollcall/internal/event"
	"github.com/Versifine/rollcall/internal/mathx"
	"github.com/Versifine/rollcall/internal/task"
	"github.com/go-gl/mathgl/mgl64"
)

// Agent is the slice of an agent the switcher drives.
type Agent interface {
	ID() string
	Position() mgl64.Vec3
	SetControlled(on bool)
}

// Binder retargets a camera to an agent id.
type Binder interface {
	Bind(id string)
}

type Config struct {
	// CentroidPeriod is the fog refresh interval in seconds.
	CentroidPeriod float64 `yaml:"centroid_period"`
	FogHeight      float64 `yaml:"fog_height"`
}

func DefaultConfig() Config {
	return Config{CentroidPeriod: 1, FogHeight: -40}
}

type Option func(*Switcher)

func WithFog(fog effect.Poser) Option {
	return func(s *Switcher) { s.fog = fog }
}

func WithFace(face effect.Face) Option {
	return func(s *Switcher) { s.face = face }
}

func WithBus(bus *event.Bus) Option {
	return func(s *Switcher) { s.bus = bus }
}

type Switcher struct {
	cfg    Config
	agents []Agent
	camera Binder
	fog    effect.Poser
	face   effect.Face
	bus    *event.Bus

	index    int
	ready    bool
	sched    task.Scheduler
	centroid task.Generation
	fogPos   mgl64.Vec3
}

// New copies agents; the roster is fixed from here on.
func New(cfg Config, agents []Agent, camera Binder, opts ...Option) *Switcher {
	s := &Switcher{
		cfg:    cfg,
		agents: append([]Agent(nil), agents...),
		camera: camera,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize gives control to the first agent and starts the fog task.
// An empty roster leaves the switcher inert.
func (s *Switcher) Initialize() {
	if s == nil || len(s.agents) == 0 {
		return
	}
	for i, a := range s.agents {
		a.SetControlled(i == 0)
	}
	s.index = 0
	s.ready = true
	s.focus(s.agents[0])
	s.sched.Start(s.centroid.Next(), task.Every(s.cfg.CentroidPeriod, s.placeFog))
	slog.Info("Control initialized", "agent", s.agents[0].ID(), "roster", len(s.agents))
}

// SwitchControl moves control to the next agent in roster order. Callers
// invoke it once per switch edge.
func (s *Switcher) SwitchControl() {
	if s == nil || !s.ready || len(s.agents) == 0 {
		return
	}
	from := s.agents[s.index]
	from.SetControlled(false)
	s.index = (s.index + 1) % len(s.agents)
	to := s.agents[s.index]
	to.SetControlled(true)
	s.focus(to)
	slog.Debug("Control switched", "from", from.ID(), "to", to.ID())
	s.bus.Publish(event.EventControlSwitched, event.ControlSwitchedEvent{From: from.ID(), To: to.ID()})
}

func (s *Switcher) focus(a Agent) {
	if s.camera != nil {
		s.camera.Bind(a.ID())
	}
	if s.face != nil {
		s.face.SetImage(a.ID())
	}
}

// Update resumes the background fog task.
func (s *Switcher) Update(dt float64) {
	if s == nil {
		return
	}
	s.sched.Advance(dt)
}

func (s *Switcher) placeFog() {
	if len(s.agents) == 0 {
		return
	}
	points := make([]mgl64.Vec3, len(s.agents))
	for i, a := range s.agents {
		points[i] = a.Position()
	}
	c := mathx.Mean(points)
	s.fogPos = mgl64.Vec3{c.X(), s.cfg.FogHeight, c.Z()}
	if s.fog != nil {
		s.fog.SetPose(s.fogPos, mgl64.QuatIdent())
	}
}

// Stop ends the fog task.
func (s *Switcher) Stop() {
	if s == nil {
		return
	}
	s.centroid.Invalidate()
}

func (s *Switcher) Active() Agent {
	if s == nil || !s.ready || len(s.agents) == 0 {
		return nil
	}
	return s.agents[s.index]
}

func (s *Switcher) ActiveIndex() int { return s.index }

func (s *Switcher) Len() int { return len(s.agents) }

// FogPosition is where the fog marker was last placed.
func (s *Switcher) FogPosition() mgl64.Vec3 { return s.fogPos }
