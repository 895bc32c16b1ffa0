// Package portal teleports agents that touch an entry volume to a fixed
// exit pose and locks their movement for the unlock delay.
package portal

import (
	"log/slog"

	"github.com/Versifine/rollcall/internal/mathx"
	"github.com/go-gl/mathgl/mgl64"
)

// Traveler is what a gate needs from an agent.
type Traveler interface {
	ID() string
	Position() mgl64.Vec3
	Teleport(position mgl64.Vec3, rotation mgl64.Quat)
	LockMovement()
}

// Gate is a spherical entry volume with its exit pose.
type Gate struct {
	Name   string     `yaml:"name"`
	Center mgl64.Vec3 `yaml:"center"`
	Radius float64    `yaml:"radius"`
	Exit   mathx.Pose `yaml:"exit"`
}

func (g Gate) contains(p mgl64.Vec3) bool {
	return g.Radius > 0 && mathx.LenSq(p.Sub(g.Center)) <= g.Radius*g.Radius
}

// Set checks travelers against every gate once per frame. A traveler
// teleports when it enters a gate and must leave before it can trigger the
// same gate again.
type Set struct {
	gates  []Gate
	inside []map[string]bool
	count  int
}

func NewSet(gates []Gate) *Set {
	s := &Set{gates: make([]Gate, len(gates)), inside: make([]map[string]bool, len(gates))}
	for i, g := range gates {
		g.Exit = g.Exit.Resolved()
		s.gates[i] = g
		s.inside[i] = make(map[string]bool)
	}
	return s
}

func (s *Set) Gates() []Gate {
	if s == nil {
		return nil
	}
	return append([]Gate(nil), s.gates...)
}

// Check runs every traveler against every gate and returns how many
// teleports happened.
func (s *Set) Check(travelers []Traveler) int {
	if s == nil {
		return 0
	}
	n := 0
	for _, t := range travelers {
		if t == nil {
			continue
		}
		for i := range s.gates {
			if s.check(i, t) {
				n++
				// Position changed; the remaining gates see the new one next frame.
				break
			}
		}
	}
	s.count += n
	return n
}

func (s *Set) check(i int, t Traveler) bool {
	g := s.gates[i]
	id := t.ID()
	in := g.contains(t.Position())
	was := s.inside[i][id]
	if !in {
		delete(s.inside[i], id)
		return false
	}
	if was {
		return false
	}
	t.Teleport(g.Exit.Position, g.Exit.Rotation)
	t.LockMovement()
	s.inside[i][id] = g.contains(t.Position())
	slog.Info("Agent entered portal", "agent", id, "portal", g.Name, "exit", g.Exit.Position)
	return true
}

// Teleports is the running total across all Check calls.
func (s *Set) Teleports() int {
	if s == nil {
		return 0
	}
	return s.count
}
