package physics

import (
	"sync"

	"github.com/Versifine/rollcall/internal/mathx"
	"github.com/go-gl/mathgl/mgl64"
)

// RigidBody is the physics capability an agent drives. Implementations own
// integration; callers only read and assign state.
type RigidBody interface {
	Position() mgl64.Vec3
	SetPosition(mgl64.Vec3)
	Rotation() mgl64.Quat
	SetRotation(mgl64.Quat)
	Velocity() mgl64.Vec3
	SetVelocity(mgl64.Vec3)
	AddImpulse(mgl64.Vec3)
}

// SpatialQuery answers proximity tests against the static scene.
type SpatialQuery interface {
	OverlapSphere(center mgl64.Vec3, radius float64, mask Layer) bool
}

// Body is a dynamic sphere simulated by World.
type Body struct {
	mu       sync.Mutex
	id       string
	position mgl64.Vec3
	rotation mgl64.Quat
	velocity mgl64.Vec3
	radius   float64
	mass     float64
	layer    Layer
}

func (b *Body) ID() string {
	if b == nil {
		return ""
	}
	return b.id
}

func (b *Body) Radius() float64 {
	if b == nil {
		return 0
	}
	return b.radius
}

func (b *Body) Position() mgl64.Vec3 {
	if b == nil {
		return mathx.Zero
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.position
}

func (b *Body) SetPosition(p mgl64.Vec3) {
	if b == nil {
		return
	}
	b.mu.Lock()
	b.position = p
	b.mu.Unlock()
}

func (b *Body) Rotation() mgl64.Quat {
	if b == nil {
		return mgl64.QuatIdent()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rotation
}

func (b *Body) SetRotation(q mgl64.Quat) {
	if b == nil {
		return
	}
	b.mu.Lock()
	b.rotation = q.Normalize()
	b.mu.Unlock()
}

func (b *Body) Velocity() mgl64.Vec3 {
	if b == nil {
		return mathx.Zero
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.velocity
}

func (b *Body) SetVelocity(v mgl64.Vec3) {
	if b == nil {
		return
	}
	b.mu.Lock()
	b.velocity = v
	b.mu.Unlock()
}

// AddImpulse applies an instantaneous momentum change.
func (b *Body) AddImpulse(impulse mgl64.Vec3) {
	if b == nil {
		return
	}
	b.mu.Lock()
	b.velocity = b.velocity.Add(impulse.Mul(1 / b.mass))
	b.mu.Unlock()
}
