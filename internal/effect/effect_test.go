package effect

import (
	"testing"

	"github.com/Versifine/rollcall/internal/mathx"
	"github.com/go-gl/mathgl/mgl64"
)

func TestMarkerCountsActivations(t *testing.T) {
	m := NewMarker("yellow/splash")
	m.Activate(true)
	m.Activate(true)
	m.Activate(false)
	m.Activate(true)
	if got := m.Activations(); got != 2 {
		t.Fatalf("activations = %d, want 2", got)
	}
	if !m.Active() {
		t.Fatalf("marker inactive after final activate")
	}
}

func TestMarkerPose(t *testing.T) {
	m := NewMarker("fog")
	if m.Rotation() != mgl64.QuatIdent() {
		t.Fatalf("initial rotation = %v, want identity", m.Rotation())
	}
	rot := mathx.Euler(0, 90, 0)
	m.SetPose(mgl64.Vec3{1, -40, 2}, rot)
	if m.Position() != (mgl64.Vec3{1, -40, 2}) || m.Rotation() != rot {
		t.Fatalf("pose = %v %v", m.Position(), m.Rotation())
	}
}

func TestNilMarkerIsNoop(t *testing.T) {
	var m *Marker
	m.SetPose(mgl64.Vec3{1, 1, 1}, mgl64.QuatIdent())
	m.Activate(true)
	if m.Active() || m.Activations() != 0 || m.Position() != mathx.Zero || m.Name() != "" {
		t.Fatalf("nil marker reported state")
	}
}

func TestFaceIconCountsChanges(t *testing.T) {
	f := &FaceIcon{}
	f.SetImage("yellow")
	f.SetImage("yellow")
	f.SetImage("blue")
	if f.Image() != "blue" || f.Changes() != 2 {
		t.Fatalf("image=%q changes=%d, want blue/2", f.Image(), f.Changes())
	}

	var nilFace *FaceIcon
	nilFace.SetImage("x")
	if nilFace.Image() != "" {
		t.Fatalf("nil face image = %q", nilFace.Image())
	}
}

var (
	_ Effect = (*Marker)(nil)
	_ Face   = (*FaceIcon)(nil)
)
