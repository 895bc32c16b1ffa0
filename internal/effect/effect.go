// Package effect holds the narrow contracts for cosmetic collaborators
// (splash, ember, fog marker, face icon) and in-memory implementations
// hosts can draw from.
package effect

import (
	"sync"

	"github.com/Versifine/rollcall/internal/mathx"
	"github.com/go-gl/mathgl/mgl64"
)

// Poser places something in the world.
type Poser interface {
	SetPose(position mgl64.Vec3, rotation mgl64.Quat)
}

// Effect is a toggleable, placeable cosmetic such as a splash or ember.
type Effect interface {
	Poser
	Activate(on bool)
	Active() bool
}

// Face shows an image id and runs its own cross-fade.
type Face interface {
	SetImage(id string)
}

// Marker records the last pose and activation of an effect.
type Marker struct {
	mu          sync.Mutex
	name        string
	active      bool
	position    mgl64.Vec3
	rotation    mgl64.Quat
	activations int
}

func NewMarker(name string) *Marker {
	return &Marker{name: name, rotation: mgl64.QuatIdent()}
}

func (m *Marker) Name() string {
	if m == nil {
		return ""
	}
	return m.name
}

func (m *Marker) SetPose(position mgl64.Vec3, rotation mgl64.Quat) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.position = position
	m.rotation = rotation
	m.mu.Unlock()
}

func (m *Marker) Activate(on bool) {
	if m == nil {
		return
	}
	m.mu.Lock()
	if on && !m.active {
		m.activations++
	}
	m.active = on
	m.mu.Unlock()
}

func (m *Marker) Active() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

func (m *Marker) Position() mgl64.Vec3 {
	if m == nil {
		return mathx.Zero
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

func (m *Marker) Rotation() mgl64.Quat {
	if m == nil {
		return mgl64.QuatIdent()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rotation
}

// Activations counts inactive→active transitions.
func (m *Marker) Activations() int {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activations
}

// FaceIcon remembers the image it was last asked to show.
type FaceIcon struct {
	mu      sync.Mutex
	current string
	changes int
}

func (f *FaceIcon) SetImage(id string) {
	if f == nil {
		return
	}
	f.mu.Lock()
	if id != f.current {
		f.changes++
	}
	f.current = id
	f.mu.Unlock()
}

func (f *FaceIcon) Image() string {
	if f == nil {
		return ""
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

func (f *FaceIcon) Changes() int {
	if f == nil {
		return 0
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.changes
}
