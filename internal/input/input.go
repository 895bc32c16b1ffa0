// Package input defines the named bindings the simulation reads and the
// edge-latching state hosts write into.
package input

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

type Binding string

const (
	Move            Binding = "move"            // 2d continuous
	Jump            Binding = "jump"            // discrete edge
	PrimaryTarget   Binding = "primaryTarget"   // boolean hold
	SecondaryTarget Binding = "secondaryTarget" // boolean hold
	Pointer         Binding = "pointer"         // 2d continuous, screen pixels
	SwitchControl   Binding = "switchControl"   // discrete edge
	Zoom            Binding = "zoom"            // 1d continuous
	ToggleCloseView Binding = "toggleCloseView" // discrete edge
)

// Source is the read side of input for one frame.
type Source interface {
	Axis2(b Binding) mgl64.Vec2
	Axis1(b Binding) float64
	// Edge is true only for the frame in which the action went active.
	Edge(b Binding) bool
	Hold(b Binding) bool
}

// Sampler produces one Snapshot per frame, consuming latched edges.
type Sampler interface {
	Sample() Snapshot
}

// Snapshot is an immutable per-frame view of the bindings.
type Snapshot struct {
	axes2 map[Binding]mgl64.Vec2
	axes1 map[Binding]float64
	holds map[Binding]bool
	edges map[Binding]bool
}

func (s Snapshot) Axis2(b Binding) mgl64.Vec2 { return s.axes2[b] }
func (s Snapshot) Axis1(b Binding) float64    { return s.axes1[b] }
func (s Snapshot) Edge(b Binding) bool        { return s.edges[b] }
func (s Snapshot) Hold(b Binding) bool        { return s.holds[b] }

// State accumulates host input between samples. Edges raised at any time
// since the previous Sample are reported exactly once, even when the
// button was released again before the frame ran.
type State struct {
	mu    sync.Mutex
	axes2 map[Binding]mgl64.Vec2
	axes1 map[Binding]float64
	holds map[Binding]bool
	edges map[Binding]bool
}

func NewState() *State {
	return &State{
		axes2: make(map[Binding]mgl64.Vec2),
		axes1: make(map[Binding]float64),
		holds: make(map[Binding]bool),
		edges: make(map[Binding]bool),
	}
}

func (s *State) SetAxis2(b Binding, v mgl64.Vec2) {
	s.mu.Lock()
	s.axes2[b] = v
	s.mu.Unlock()
}

func (s *State) SetAxis1(b Binding, v float64) {
	s.mu.Lock()
	s.axes1[b] = v
	s.mu.Unlock()
}

// AddAxis1 accumulates a relative axis such as a scroll wheel until the
// next Sample resets it.
func (s *State) AddAxis1(b Binding, v float64) {
	s.mu.Lock()
	s.axes1[b] += v
	s.mu.Unlock()
}

// SetHold records the held state; a released→held transition latches an edge.
func (s *State) SetHold(b Binding, held bool) {
	s.mu.Lock()
	if held && !s.holds[b] {
		s.edges[b] = true
	}
	s.holds[b] = held
	s.mu.Unlock()
}

// Press latches an edge without changing the held state.
func (s *State) Press(b Binding) {
	s.mu.Lock()
	s.edges[b] = true
	s.mu.Unlock()
}

// relativeAxes are cleared after each sample.
var relativeAxes = map[Binding]bool{Zoom: true}

func (s *State) Sample() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		axes2: make(map[Binding]mgl64.Vec2, len(s.axes2)),
		axes1: make(map[Binding]float64, len(s.axes1)),
		holds: make(map[Binding]bool, len(s.holds)),
		edges: s.edges,
	}
	for k, v := range s.axes2 {
		snap.axes2[k] = v
	}
	for k, v := range s.axes1 {
		snap.axes1[k] = v
		if relativeAxes[k] {
			s.axes1[k] = 0
		}
	}
	for k, v := range s.holds {
		snap.holds[k] = v
	}
	s.edges = make(map[Binding]bool)
	return snap
}

// Scripted is a fixed Source, handy for tests and replay.
type Scripted struct {
	Axes2 map[Binding]mgl64.Vec2
	Axes1 map[Binding]float64
	Holds map[Binding]bool
	Edges map[Binding]bool
}

func (s Scripted) Axis2(b Binding) mgl64.Vec2 { return s.Axes2[b] }
func (s Scripted) Axis1(b Binding) float64    { return s.Axes1[b] }
func (s Scripted) Edge(b Binding) bool        { return s.Edges[b] }
func (s Scripted) Hold(b Binding) bool        { return s.Holds[b] }

// None is a Source with every binding at rest.
var None Source = Scripted{}
