package physics

import (
	"sync"

	"github.com/Versifine/rollcall/internal/mathx"
	"github.com/go-gl/mathgl/mgl64"
)

type Config struct {
	Gravity       float64 `yaml:"gravity"`
	LinearDamping float64 `yaml:"linear_damping"`
}

func DefaultConfig() Config {
	return Config{
		Gravity:       DefaultGravity,
		LinearDamping: DefaultLinearDamping,
	}
}

// World integrates dynamic sphere bodies against a static voxel Grid.
// It is the reference implementation of RigidBody and SpatialQuery used
// when no external engine is attached.
type World struct {
	mu     sync.Mutex
	cfg    Config
	grid   *Grid
	bodies []*Body
}

func NewWorld(cfg Config, grid *Grid) *World {
	if grid == nil {
		grid = NewGrid()
	}
	return &World{cfg: cfg, grid: grid}
}

func (w *World) Grid() *Grid {
	if w == nil {
		return nil
	}
	return w.grid
}

// NewBody registers a sphere body at pose. Non-positive radius or mass
// fall back to the defaults.
func (w *World) NewBody(id string, pose mathx.Pose, radius, mass float64) *Body {
	if radius <= 0 {
		radius = DefaultBodyRadius
	}
	if mass <= 0 {
		mass = DefaultBodyMass
	}
	pose = pose.Resolved()
	b := &Body{
		id:       id,
		position: pose.Position,
		rotation: pose.Rotation.Normalize(),
		radius:   radius,
		mass:     mass,
		layer:    LayerAgent,
	}
	if w != nil {
		w.mu.Lock()
		w.bodies = append(w.bodies, b)
		w.mu.Unlock()
	}
	return b
}

func (w *World) Bodies() []*Body {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]*Body, len(w.bodies))
	copy(out, w.bodies)
	return out
}

// Step advances every body by one fixed interval: gravity, damping, swept
// translation against ground cells, then pairwise separation.
func (w *World) Step(dt float64) {
	if w == nil || dt <= 0 {
		return
	}
	bodies := w.Bodies()
	for _, b := range bodies {
		w.integrate(b, dt)
	}
	for _, b := range bodies {
		pos := b.Position()
		push := separationPush(b, pos, bodies)
		if push == mathx.Zero {
			continue
		}
		moved, _ := ResolveMovement(SphereBounds(pos, b.radius), push, w.grid, LayerGround)
		b.SetPosition(pos.Add(moved))
	}
}

func (w *World) integrate(b *Body, dt float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	v := b.velocity
	v[1] -= w.cfg.Gravity * dt
	if w.cfg.LinearDamping > 0 {
		v = v.Mul(1 / (1 + w.cfg.LinearDamping*dt))
	}

	moved, blocked := ResolveMovement(SphereBounds(b.position, b.radius), v.Mul(dt), w.grid, LayerGround)
	b.position = b.position.Add(moved)
	for axis, hit := range blocked {
		if hit {
			v[axis] = 0
		}
	}
	b.velocity = v
}

// OverlapSphere tests ground cells when mask includes LayerGround and
// registered bodies when it includes LayerAgent.
func (w *World) OverlapSphere(center mgl64.Vec3, radius float64, mask Layer) bool {
	if w == nil {
		return false
	}
	if mask.Has(LayerGround) && SphereTouchesCells(center, radius, w.grid, mask&LayerGround) {
		return true
	}
	if !mask.Has(LayerAgent) {
		return false
	}
	for _, b := range w.Bodies() {
		r := radius + b.radius
		if d := b.Position().Sub(center); d.Dot(d) <= r*r {
			return true
		}
	}
	return false
}
