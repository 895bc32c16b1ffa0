package sim

import (
	"fmt"
	"strings"

	"github.com/Versifine/rollcall/internal/locomotion"
	"github.com/Versifine/rollcall/internal/portal"
	"github.com/go-gl/mathgl/mgl64"
)

// View is a copy of everything a host draws or prints for one frame.
type View struct {
	Frame      uint64
	Elapsed    float64
	FixedSteps uint64
	Active     string
	Face       string
	Agents     []locomotion.Snapshot
	Splashes   []EffectView
	Camera     CameraView
	Fog        mgl64.Vec3
	Portals    []portal.Gate
	Teleports  int
	Events     []string
}

type EffectView struct {
	Active   bool
	Position mgl64.Vec3
}

type CameraView struct {
	Target    string
	Position  mgl64.Vec3
	Offset    mgl64.Vec3
	Distance  float64
	Min, Max  float64
	CloseView bool
}

func (s *Session) View() View {
	v := View{
		Frame:      s.frames,
		Elapsed:    s.elapsed,
		FixedSteps: s.fixedSteps,
		Face:       s.face.Image(),
		Fog:        s.fog.Position(),
		Portals:    s.portals.Gates(),
		Teleports:  s.portals.Teleports(),
		Events:     append([]string(nil), s.recent...),
	}
	if a := s.switcher.Active(); a != nil {
		v.Active = a.ID()
	}
	for i, a := range s.agents {
		v.Agents = append(v.Agents, a.Snapshot())
		sp := s.splashes[i]
		v.Splashes = append(v.Splashes, EffectView{Active: sp.Active(), Position: sp.Position()})
	}
	lo, hi := s.camera.Bounds()
	v.Camera = CameraView{
		Target:    s.camera.Target(),
		Position:  s.camera.Position(),
		Offset:    s.camera.Offset(),
		Distance:  s.camera.Distance(),
		Min:       lo,
		Max:       hi,
		CloseView: s.camera.CloseView(),
	}
	return v
}

// Summary is a multi-line plain-text dump of v, used for the clipboard
// and the console status line.
func (v View) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "frame %d  t=%.2fs  fixed=%d  active=%s\n", v.Frame, v.Elapsed, v.FixedSteps, v.Active)
	for _, a := range v.Agents {
		fmt.Fprintf(&b, "%-10s %-12s pos=(%.2f, %.2f, %.2f) vel=(%.2f, %.2f, %.2f) grounded=%v moving=%v\n",
			a.ID, a.State, a.Position.X(), a.Position.Y(), a.Position.Z(),
			a.Velocity.X(), a.Velocity.Y(), a.Velocity.Z(), a.Grounded, a.Moving)
	}
	fmt.Fprintf(&b, "camera target=%s dist=%.2f [%.1f, %.1f] close=%v\n",
		v.Camera.Target, v.Camera.Distance, v.Camera.Min, v.Camera.Max, v.Camera.CloseView)
	fmt.Fprintf(&b, "fog=(%.2f, %.2f, %.2f) teleports=%d\n", v.Fog.X(), v.Fog.Y(), v.Fog.Z(), v.Teleports)
	return b.String()
}
