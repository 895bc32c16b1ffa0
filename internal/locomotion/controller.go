// Package locomotion drives one agent: control ownership, the movement
// lock, grounding, jumping, the rolling cue and both targeting limbs.
package locomotion

import (
	"log/slog"
	"math"

	"github.com/Versifine/rollcall/internal/effect"
	"github.com/Versifine/rollcall/internal/event"
	"github.com/Versifine/rollcall/internal/input"
	"github.com/Versifine/rollcall/internal/limb"
	"github.com/Versifine/rollcall/internal/mathx"
	"github.com/Versifine/rollcall/internal/physics"
	"github.com/Versifine/rollcall/internal/task"
	"github.com/go-gl/mathgl/mgl64"
)

type State int

const (
	Uncontrolled State = iota
	Locked
	Active
)

func (s State) String() string {
	switch s {
	case Uncontrolled:
		return "uncontrolled"
	case Locked:
		return "locked"
	case Active:
		return "active"
	default:
		return "unknown"
	}
}

// Aimer maps the pointer to a world point on the horizontal plane through
// the agent's position.
type Aimer interface {
	Aim(agentPos mgl64.Vec3) mgl64.Vec3
}

// Frame is the per-frame context handed to Update.
type Frame struct {
	Dt    float64
	Input input.Source
	Aim   Aimer
}

type Option func(*Controller)

func WithBus(bus *event.Bus) Option {
	return func(c *Controller) { c.bus = bus }
}

func WithSplash(e effect.Effect) Option {
	return func(c *Controller) { c.splash = e }
}

func WithEmber(e effect.Effect) Option {
	return func(c *Controller) { c.ember = e }
}

func WithLimbConfig(cfg limb.Config) Option {
	return func(c *Controller) { c.limbCfg = cfg }
}

type Controller struct {
	id    string
	spawn mathx.Pose
	cfg   Config

	body  physics.RigidBody
	query physics.SpatialQuery

	bus     *event.Bus
	splash  effect.Effect
	ember   effect.Effect
	limbCfg limb.Config
	limbs   [2]*limb.Controller

	state    State
	sched    task.Scheduler
	unlock   *task.Timer
	expire   *task.Timer
	grounded bool
	moving   bool
	move     mgl64.Vec2
	lastDir  mgl64.Vec3
	facing   mgl64.Quat
	yaw      float64

	emberPos mgl64.Vec3
	emberRot mgl64.Quat
}

// New builds an uncontrolled agent at spawn. body and query may be nil;
// a nil query never reports ground.
func New(id string, spawn mathx.Pose, body physics.RigidBody, query physics.SpatialQuery, cfg Config, opts ...Option) *Controller {
	spawn = spawn.Resolved()
	if cfg.GroundMask == 0 {
		cfg.GroundMask = physics.LayerGround
	}
	c := &Controller{
		id:       id,
		spawn:    spawn,
		cfg:      cfg,
		body:     body,
		query:    query,
		limbCfg:  limb.DefaultConfig(),
		facing:   mgl64.QuatIdent(),
		lastDir:  mathx.Forward,
		emberRot: mgl64.QuatIdent(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.unlock = task.NewTimer(&c.sched, cfg.UnlockDelay, c.onUnlock)
	c.expire = task.NewTimer(&c.sched, cfg.SplashLifetime, c.endSplash)
	pos := c.Position()
	c.limbs[0] = limb.New(id, limb.Left, c.limbCfg, pos)
	c.limbs[1] = limb.New(id, limb.Right, c.limbCfg, pos)
	c.emberPos = pos.Add(cfg.EmberIdle)
	return c
}

func (c *Controller) ID() string { return c.id }

func (c *Controller) Position() mgl64.Vec3 {
	if c == nil || c.body == nil {
		return mathx.Zero
	}
	return c.body.Position()
}

func (c *Controller) State() State { return c.state }

func (c *Controller) Controlled() bool { return c.state != Uncontrolled }

func (c *Controller) Locked() bool { return c.state == Locked }

func (c *Controller) Grounded() bool { return c.grounded }

func (c *Controller) Moving() bool { return c.moving }

func (c *Controller) Facing() mgl64.Quat { return c.facing }

func (c *Controller) LastMoveDirection() mgl64.Vec3 { return c.lastDir }

func (c *Controller) Limbs() [2]*limb.Controller { return c.limbs }

// SetControlled hands control to or takes it from this agent. Gaining
// control always starts in Locked with a fresh unlock timer.
func (c *Controller) SetControlled(on bool) {
	if c == nil {
		return
	}
	if !on {
		c.release()
		return
	}
	if c.state != Uncontrolled {
		return
	}
	c.lock()
}

func (c *Controller) release() {
	c.unlock.Cancel()
	c.expire.Cancel()
	prev := c.state
	c.state = Uncontrolled
	c.move = mgl64.Vec2{}
	c.moving = false
	if c.body != nil {
		c.body.SetVelocity(mathx.Zero)
	}
	if c.splash != nil {
		c.splash.Activate(false)
	}
	if prev != Uncontrolled {
		slog.Debug("Agent released", "agent", c.id, "from", prev)
	}
}

// LockMovement re-enters Locked and restarts the unlock delay from zero.
// It has no effect on an uncontrolled agent.
func (c *Controller) LockMovement() {
	if c == nil || c.state == Uncontrolled {
		return
	}
	c.lock()
}

func (c *Controller) lock() {
	c.state = Locked
	c.unlock.Arm()
	c.bus.Publish(event.EventLocked, event.AgentEvent{AgentID: c.id, Position: c.Position()})
}

func (c *Controller) onUnlock() {
	if c.state != Locked {
		return
	}
	c.state = Active
	slog.Debug("Agent unlocked", "agent", c.id)
	c.bus.Publish(event.EventUnlocked, event.AgentEvent{AgentID: c.id, Position: c.Position()})
}

// Teleport moves the agent to a new pose and locks its movement. Velocity
// carries through unchanged.
func (c *Controller) Teleport(position mgl64.Vec3, rotation mgl64.Quat) {
	if c == nil || c.body == nil {
		return
	}
	c.body.SetPosition(position)
	c.body.SetRotation(rotation)
	c.bus.Publish(event.EventTeleported, event.AgentEvent{AgentID: c.id, Position: position})
	c.LockMovement()
}

// Update runs the variable-rate step. Uncontrolled agents are skipped.
func (c *Controller) Update(f Frame) {
	if c == nil || c.state == Uncontrolled || c.body == nil {
		return
	}
	in := f.Input
	if in == nil {
		in = input.None
	}
	dt := f.Dt

	c.sched.Advance(dt)
	c.recoverFromFall()
	pos := c.body.Position()
	c.updateGrounded(pos)

	c.move = mathx.ClampLength2(in.Axis2(input.Move), 1)
	vel := c.body.Velocity()
	moveLen := c.move.Len()
	c.moving = moveLen > c.cfg.MoveEpsilon ||
		math.Abs(vel.Y()) > c.cfg.VelocityEpsilon ||
		mathx.Horizontal(vel).Len() > c.cfg.VelocityEpsilon

	if moveLen > c.cfg.MoveEpsilon {
		c.lastDir = mathx.Normalize(mgl64.Vec3{c.move.X(), 0, c.move.Y()})
		c.yaw = mgl64.RadToDeg(math.Atan2(c.move.X(), c.move.Y()))
		pitch := 0.0
		if !c.grounded {
			pitch = AirbornePitch
		}
		c.facing = mathx.Euler(pitch, c.yaw, 0)
		heading := mathx.Euler(0, c.yaw, 0)
		c.driveEmber(pos.Add(heading.Rotate(c.cfg.EmberLead)), c.facing, dt)
	} else {
		c.driveEmber(pos.Add(c.cfg.EmberIdle), mgl64.QuatIdent(), dt)
	}

	if in.Edge(input.Jump) {
		c.jump(pos)
	}

	c.roll(dt)
	c.updateLimbs(f, in, pos)
}

func (c *Controller) recoverFromFall() {
	if c.body.Position().Y() >= c.cfg.FallThreshold {
		return
	}
	c.body.SetPosition(c.spawn.Position)
	c.body.SetRotation(c.spawn.Rotation)
	c.body.SetVelocity(mathx.Zero)
	slog.Info("Agent fell out of the level, respawning", "agent", c.id)
	c.bus.Publish(event.EventRespawned, event.AgentEvent{AgentID: c.id, Position: c.spawn.Position})
}

func (c *Controller) updateGrounded(pos mgl64.Vec3) {
	grounded := false
	if c.query != nil {
		grounded = c.query.OverlapSphere(pos.Add(c.cfg.GroundProbeOffset), c.cfg.GroundProbeRadius, c.cfg.GroundMask)
	}
	landed := grounded && !c.grounded
	c.grounded = grounded
	if !landed {
		return
	}
	if c.splash != nil && !c.splash.Active() {
		c.splash.SetPose(pos.Add(c.cfg.SplashOffset), mgl64.QuatIdent())
		c.splash.Activate(true)
		if c.cfg.SplashLifetime > 0 {
			c.expire.Arm()
		}
	}
	c.bus.Publish(event.EventLanded, event.AgentEvent{AgentID: c.id, Position: pos})
}

func (c *Controller) endSplash() {
	if c.splash != nil {
		c.splash.Activate(false)
	}
}

// jump only fires from the ground; the edge is spent either way.
func (c *Controller) jump(pos mgl64.Vec3) {
	if !c.grounded {
		return
	}
	v := c.body.Velocity()
	v[1] = 0
	c.body.SetVelocity(v)
	c.body.AddImpulse(mathx.Up.Mul(c.cfg.JumpImpulse))
	c.bus.Publish(event.EventJumped, event.AgentEvent{AgentID: c.id, Position: pos})
}

func (c *Controller) driveEmber(target mgl64.Vec3, rot mgl64.Quat, dt float64) {
	c.emberPos = mathx.ExpApproachVec(c.emberPos, target, c.cfg.EmberRate, dt)
	c.emberRot = mathx.ExpApproachQuat(c.emberRot, rot, c.cfg.EmberRate, dt)
	if c.ember != nil {
		c.ember.SetPose(c.emberPos, c.emberRot)
	}
}

// roll spins the body about the axis perpendicular to its horizontal
// travel. Purely cosmetic; translation comes from velocity.
func (c *Controller) roll(dt float64) {
	hv := mathx.Horizontal(c.body.Velocity())
	speed := hv.Len()
	if speed <= c.cfg.VelocityEpsilon {
		return
	}
	axis := mathx.Up.Cross(hv.Mul(1 / speed))
	spin := mgl64.QuatRotate(mgl64.DegToRad(speed*c.cfg.RollMultiplier*dt), axis)
	c.body.SetRotation(spin.Mul(c.body.Rotation()))
}

func (c *Controller) updateLimbs(f Frame, in input.Source, pos mgl64.Vec3) {
	holds := [2]bool{in.Hold(input.PrimaryTarget), in.Hold(input.SecondaryTarget)}
	var point mgl64.Vec3
	aimed := false
	// The idle stance follows heading only; the airborne pitch is for the
	// ember.
	stance := mathx.Euler(0, c.yaw, 0)
	for i, l := range c.limbs {
		li := limb.Input{
			Dt:       f.Dt,
			AgentPos: pos,
			Facing:   stance,
			Moving:   c.moving,
			Engaged:  holds[i],
		}
		if holds[i] {
			if !aimed {
				point = pos
				if f.Aim != nil {
					point = f.Aim.Aim(pos)
				}
				aimed = true
			}
			li.WorldPoint = point
		}
		l.Update(li)
	}
}

// FixedUpdate runs the fixed-rate physics step: horizontal velocity is
// assigned from the cached move vector, vertical velocity is untouched.
func (c *Controller) FixedUpdate() {
	if c == nil || c.state != Active || c.body == nil {
		return
	}
	v := c.body.Velocity()
	v[0] = c.move.X() * c.cfg.Speed
	v[2] = c.move.Y() * c.cfg.Speed
	c.body.SetVelocity(v)
}

// Release takes control away and drops effect handles at teardown.
func (c *Controller) Release() {
	if c == nil {
		return
	}
	c.release()
	if c.ember != nil {
		c.ember.Activate(false)
	}
	c.splash = nil
	c.ember = nil
}

// Snapshot is a copy of the agent's observable state.
type Snapshot struct {
	ID        string
	State     State
	Position  mgl64.Vec3
	Rotation  mgl64.Quat
	Velocity  mgl64.Vec3
	Grounded  bool
	Moving    bool
	Yaw       float64
	LastDir   mgl64.Vec3
	Unlocking bool
	Limbs     [2]LimbSnapshot
	Ember     mgl64.Vec3
}

type LimbSnapshot struct {
	Position mgl64.Vec3
	Target   mgl64.Vec3
	Scale    float64
	Present  bool
	Engaged  bool
}

func (c *Controller) Snapshot() Snapshot {
	s := Snapshot{
		ID:        c.id,
		State:     c.state,
		Grounded:  c.grounded,
		Moving:    c.moving,
		Yaw:       c.yaw,
		LastDir:   c.lastDir,
		Unlocking: c.unlock.Armed(),
		Ember:     c.emberPos,
	}
	if c.body != nil {
		s.Position = c.body.Position()
		s.Rotation = c.body.Rotation()
		s.Velocity = c.body.Velocity()
	}
	for i, l := range c.limbs {
		s.Limbs[i] = LimbSnapshot{
			Position: l.Position(),
			Target:   l.Target(),
			Scale:    l.Scale(),
			Present:  l.Present(),
			Engaged:  l.Engaged(),
		}
	}
	return s
}
