package sim

import (
	"fmt"
	"math"

	"github.com/Versifine/rollcall/internal/config"
	"github.com/Versifine/rollcall/internal/mathx"
	"github.com/go-gl/mathgl/mgl64"
)

// Placement is one agent's id and spawn pose.
type Placement struct {
	ID    string
	Spawn mathx.Pose
}

// RingPlacement spreads n agents evenly on a circle at height y, each
// facing the centre. A single agent stands at the centre.
func RingPlacement(n int, radius, y float64) []mathx.Pose {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []mathx.Pose{{Position: mgl64.Vec3{0, y, 0}, Rotation: mgl64.QuatIdent()}}
	}
	out := make([]mathx.Pose, n)
	for i := range out {
		deg := 360 * float64(i) / float64(n)
		rad := mgl64.DegToRad(deg)
		out[i] = mathx.Pose{
			Position: mgl64.Vec3{radius*math.Sin(rad), y, radius*math.Cos(rad)},
			Rotation: mathx.Euler(0, deg+180, 0),
		}
	}
	return out
}

// Placements resolves the configured agents, or a ring of
// Session.AgentCount when none are listed.
func Placements(cfg config.Config) []Placement {
	if len(cfg.Agents) > 0 {
		out := make([]Placement, len(cfg.Agents))
		for i, a := range cfg.Agents {
			id := a.ID
			if id == "" {
				id = fmt.Sprintf("agent-%d", i+1)
			}
			out[i] = Placement{ID: id, Spawn: a.Spawn.Resolved()}
		}
		return out
	}
	poses := RingPlacement(cfg.Session.AgentCount, cfg.Session.RingRadius, cfg.Session.SpawnY)
	out := make([]Placement, len(poses))
	for i, p := range poses {
		out[i] = Placement{ID: fmt.Sprintf("agent-%d", i+1), Spawn: p}
	}
	return out
}
