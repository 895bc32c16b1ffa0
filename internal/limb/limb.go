// Package limb poses an agent's secondary limbs procedurally: toward a
// pointer-derived world point while engaged, back to an idle stance
// otherwise, with a scale fade for showing and hiding.
package limb

import (
	"math"

	"github.com/Versifine/rollcall/internal/mathx"
	"github.com/go-gl/mathgl/mgl64"
)

type Side int

const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	switch s {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "unknown"
	}
}

// sign mirrors the idle offset across the agent's forward axis.
func (s Side) sign() float64 {
	if s == Left {
		return -1
	}
	return 1
}

type Config struct {
	ReachLimit   float64    `yaml:"reach_limit"`
	HeightOffset float64    `yaml:"height_offset"`
	IdleOffset   mgl64.Vec3 `yaml:"idle_offset"`
	FollowRate   float64    `yaml:"follow_rate"`
	IdleRate     float64    `yaml:"idle_rate"`
	FadeRate     float64    `yaml:"fade_rate"`
	ScaleEpsilon float64    `yaml:"scale_epsilon"`
}

func DefaultConfig() Config {
	return Config{
		ReachLimit:   1.5,
		HeightOffset: 0.25,
		IdleOffset:   mgl64.Vec3{0.6, 0.1, 0.2},
		FollowRate:   12,
		IdleRate:     8,
		FadeRate:     10,
		ScaleEpsilon: 0.01,
	}
}

// Input is what the owning agent hands a limb each frame. WorldPoint is
// read only while Engaged.
type Input struct {
	Dt         float64
	AgentPos   mgl64.Vec3
	Facing     mgl64.Quat
	Moving     bool
	Engaged    bool
	WorldPoint mgl64.Vec3
}

type Controller struct {
	owner string
	side  Side
	cfg   Config

	position    mgl64.Vec3
	rotation    mgl64.Quat
	target      mgl64.Vec3
	present     bool
	scale       float64
	targetScale float64
	engaged     bool
}

// New places the limb at its idle stance, hidden with zero scale.
func New(owner string, side Side, cfg Config, agentPos mgl64.Vec3) *Controller {
	c := &Controller{
		owner:    owner,
		side:     side,
		cfg:      cfg,
		rotation: mgl64.QuatIdent(),
	}
	c.position = agentPos.Add(c.IdleOffset())
	c.target = c.position
	return c
}

func (c *Controller) Owner() string { return c.owner }
func (c *Controller) Side() Side    { return c.side }

// IdleOffset is the configured offset with the X sign set by side.
func (c *Controller) IdleOffset() mgl64.Vec3 {
	o := c.cfg.IdleOffset
	o[0] = math.Abs(o[0]) * c.side.sign()
	return o
}

func (c *Controller) Update(in Input) {
	if c == nil {
		return
	}
	c.engaged = in.Engaged
	switch {
	case in.Engaged:
		c.follow(in)
	case in.Moving:
		c.targetScale = 0
	default:
		c.idle(in)
	}
	c.fade(in.Dt)
}

func (c *Controller) follow(in Input) {
	c.present = true
	c.targetScale = 1

	c.target = c.reachTarget(in.AgentPos, in.WorldPoint)

	next := mathx.ExpApproachVec(c.position, c.target, c.cfg.FollowRate, in.Dt)
	c.position = in.AgentPos.Add(mathx.ClampLength(next.Sub(in.AgentPos), c.cfg.ReachLimit))

	if look := in.WorldPoint.Sub(c.position); mathx.LenSq(look) > mathx.Epsilon {
		c.rotation = mathx.LookRotation(look, mathx.Up)
	}
}

// reachTarget holds the target at AgentPos.Y + HeightOffset and within
// ReachLimit by shrinking only the horizontal part to sqrt(R² - h²).
// A height offset at or beyond reach leaves no horizontal room, so the
// target sits straight above (or below) the agent at the reach limit.
func (c *Controller) reachTarget(agentPos, worldPoint mgl64.Vec3) mgl64.Vec3 {
	reach, h := c.cfg.ReachLimit, c.cfg.HeightOffset
	if math.Abs(h) >= reach {
		return agentPos.Add(mathx.Up.Mul(math.Copysign(math.Max(reach, 0), h)))
	}
	dir := mathx.ClampLength(worldPoint.Sub(agentPos), reach)
	flat := mathx.ClampLength(mathx.Horizontal(dir), math.Sqrt(reach*reach-h*h))
	return agentPos.Add(flat).Add(mathx.Up.Mul(h))
}

func (c *Controller) idle(in Input) {
	c.present = true
	c.targetScale = 1

	facing := in.Facing
	if facing == (mgl64.Quat{}) {
		facing = mgl64.QuatIdent()
	}
	c.target = in.AgentPos.Add(facing.Rotate(c.IdleOffset()))
	c.position = mathx.ExpApproachVec(c.position, c.target, c.cfg.IdleRate, in.Dt)
	c.rotation = mathx.ExpApproachQuat(c.rotation, facing, c.cfg.IdleRate, in.Dt)
}

// fade moves scale toward its target and drops presence only once a
// fade-out has fully collapsed, so a re-engage mid-fade reverses it.
func (c *Controller) fade(dt float64) {
	c.scale = mathx.ExpApproach(c.scale, c.targetScale, c.cfg.FadeRate, dt)
	if c.targetScale == 0 && c.scale < c.cfg.ScaleEpsilon {
		c.scale = 0
		c.present = false
	}
}

func (c *Controller) Position() mgl64.Vec3 { return c.position }
func (c *Controller) Rotation() mgl64.Quat { return c.rotation }
func (c *Controller) Target() mgl64.Vec3   { return c.target }
func (c *Controller) Scale() float64       { return c.scale }
func (c *Controller) TargetScale() float64 { return c.targetScale }
func (c *Controller) Present() bool        { return c.present }
func (c *Controller) Engaged() bool        { return c.engaged }
