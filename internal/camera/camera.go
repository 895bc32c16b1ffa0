// Package camera implements the third-person follow camera: zoom within
// bounds, critically damped follow, and a saved/restored close view.
package camera

import (
	"log/slog"
	"math"

	"github.com/Versifine/rollcall/internal/mathx"
	"github.com/go-gl/mathgl/mgl64"
)

type Config struct {
	Offset      mgl64.Vec3 `yaml:"offset"`
	SmoothTime  float64    `yaml:"smooth_time"`
	ZoomSpeed   float64    `yaml:"zoom_speed"`
	MinDistance float64    `yaml:"min_distance"`
	MaxDistance float64    `yaml:"max_distance"`

	CloseOffset      mgl64.Vec3 `yaml:"close_offset"`
	CloseMinDistance float64    `yaml:"close_min_distance"`
	CloseMaxDistance float64    `yaml:"close_max_distance"`
	// CloseRotation is (pitch, yaw, roll) in degrees.
	CloseRotation mgl64.Vec3 `yaml:"close_rotation"`

	// FOV is the vertical field of view in degrees, used for pointer rays.
	FOV float64 `yaml:"fov"`
}

func DefaultConfig() Config {
	return Config{
		Offset:           mgl64.Vec3{0, 12, -16},
		SmoothTime:       0.12,
		ZoomSpeed:        0.02,
		MinDistance:      10,
		MaxDistance:      50,
		CloseOffset:      mgl64.Vec3{5, 5, 5},
		CloseMinDistance: 7.5,
		CloseMaxDistance: 15,
		CloseRotation:    mgl64.Vec3{30, 225, 0},
		FOV:              60,
	}
}

// Tracker resolves an agent id to its current position.
type Tracker interface {
	TrackedPosition(id string) (mgl64.Vec3, bool)
}

// TrackerFunc adapts a function to Tracker.
type TrackerFunc func(id string) (mgl64.Vec3, bool)

func (f TrackerFunc) TrackedPosition(id string) (mgl64.Vec3, bool) { return f(id) }

type saved struct {
	offset   mgl64.Vec3
	min, max float64
	rotation mgl64.Quat
}

type Follow struct {
	cfg     Config
	tracker Tracker
	target  string

	position mgl64.Vec3
	rotation mgl64.Quat
	offset   mgl64.Vec3
	velocity mgl64.Vec3
	min, max float64
	placed   bool

	closeView bool
	saved     saved
}

// New builds an unbound camera looking along -Offset.
func New(cfg Config, tracker Tracker) *Follow {
	return &Follow{
		cfg:      cfg,
		tracker:  tracker,
		offset:   cfg.Offset,
		rotation: mathx.LookRotation(cfg.Offset.Mul(-1), mathx.Up),
		min:      cfg.MinDistance,
		max:      cfg.MaxDistance,
	}
}

// Bind retargets the camera. Smoothing state carries over so the switch
// glides rather than cuts.
func (f *Follow) Bind(id string) {
	if f == nil {
		return
	}
	if f.target != id {
		slog.Debug("Camera bound", "agent", id)
	}
	f.target = id
}

func (f *Follow) Target() string { return f.target }

// Update runs once per frame after every agent has moved. zoom is the
// frame's zoom axis value; an unbound or unresolved camera does nothing.
func (f *Follow) Update(dt, zoom float64) {
	if f == nil || f.tracker == nil || f.target == "" {
		return
	}
	tracked, ok := f.tracker.TrackedPosition(f.target)
	if !ok {
		return
	}
	if zoom != 0 {
		f.Zoom(zoom)
	}
	goal := tracked.Add(f.offset)
	if !f.placed {
		f.position = goal
		f.velocity = mathx.Zero
		f.placed = true
		return
	}
	f.position = mathx.SmoothDamp(f.position, goal, &f.velocity, f.cfg.SmoothTime, dt)
}

// Zoom shortens the offset by axis*ZoomSpeed, clamped to the current bounds.
func (f *Follow) Zoom(axis float64) {
	dir := mathx.Normalize(f.offset)
	if dir == mathx.Zero {
		return
	}
	d := mgl64.Clamp(f.offset.Len()-axis*f.cfg.ZoomSpeed, f.min, f.max)
	f.offset = dir.Mul(d)
}

// ToggleCloseView flips close view. Turning it off restores exactly what
// was saved when it was turned on.
func (f *Follow) ToggleCloseView() {
	if f == nil {
		return
	}
	f.closeView = !f.closeView
	if f.closeView {
		f.saved = saved{offset: f.offset, min: f.min, max: f.max, rotation: f.rotation}
		f.min = f.cfg.CloseMinDistance
		f.max = f.cfg.CloseMaxDistance
		f.rotation = mathx.EulerVec(f.cfg.CloseRotation)
		f.offset = f.cfg.CloseOffset
	} else {
		f.offset = f.saved.offset
		f.min = f.saved.min
		f.max = f.saved.max
		f.rotation = f.saved.rotation
		f.saved = saved{}
	}
	slog.Debug("Close view toggled", "on", f.closeView)
}

func (f *Follow) CloseView() bool          { return f.closeView }
func (f *Follow) Offset() mgl64.Vec3       { return f.offset }
func (f *Follow) Distance() float64        { return f.offset.Len() }
func (f *Follow) Bounds() (lo, hi float64) { return f.min, f.max }
func (f *Follow) Position() mgl64.Vec3     { return f.position }
func (f *Follow) Rotation() mgl64.Quat     { return f.rotation }
func (f *Follow) Velocity() mgl64.Vec3     { return f.velocity }

// Ray is a half-line from Origin along unit Dir.
type Ray struct {
	Origin mgl64.Vec3
	Dir    mgl64.Vec3
}

// ScreenRay casts a perspective ray through pixel (px, py) of a viewport
// w by h, with the origin at the top-left corner.
func (f *Follow) ScreenRay(px, py, w, h float64) Ray {
	fwd := f.rotation.Rotate(mathx.Forward)
	if w <= 0 || h <= 0 {
		return Ray{Origin: f.position, Dir: fwd}
	}
	ndcX := 2*px/w - 1
	ndcY := 1 - 2*py/h
	tanHalf := math.Tan(mgl64.DegToRad(f.cfg.FOV) / 2)
	local := mgl64.Vec3{ndcX * tanHalf * w / h, ndcY * tanHalf, 1}
	return Ray{Origin: f.position, Dir: mathx.Normalize(f.rotation.Rotate(local))}
}

// nearPlane is the closest camera-space depth WorldToScreen projects.
const nearPlane = 0.05

// WorldToScreen projects p into pixel coordinates of a w by h viewport,
// inverting ScreenRay. ok is false for points behind the near plane.
func (f *Follow) WorldToScreen(p mgl64.Vec3, w, h float64) (px, py float64, ok bool) {
	if w <= 0 || h <= 0 {
		return 0, 0, false
	}
	local := f.rotation.Conjugate().Rotate(p.Sub(f.position))
	if local.Z() < nearPlane {
		return 0, 0, false
	}
	tanHalf := math.Tan(mgl64.DegToRad(f.cfg.FOV) / 2)
	ndcX := local.X() / local.Z() / (tanHalf * w / h)
	ndcY := local.Y() / local.Z() / tanHalf
	return (ndcX + 1) * w / 2, (1 - ndcY) * h / 2, true
}

// PlanePoint intersects r with the horizontal plane y = planeY. A ray
// parallel to the plane or pointing away from it yields fallback.
func PlanePoint(r Ray, planeY float64, fallback mgl64.Vec3) mgl64.Vec3 {
	if math.Abs(r.Dir.Y()) < mathx.Epsilon {
		return fallback
	}
	t := (planeY - r.Origin.Y()) / r.Dir.Y()
	if t < 0 {
		return fallback
	}
	return r.Origin.Add(r.Dir.Mul(t))
}
