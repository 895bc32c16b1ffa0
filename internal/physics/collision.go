package physics

import (
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// CellStore answers which unit cells are solid for a given layer mask.
type CellStore interface {
	CellLayer(x, y, z int) Layer
}

// Grid is a sparse voxel store of static colliders. Each cell spans
// [x, x+1) × [y, y+1) × [z, z+1).
type Grid struct {
	mu    sync.RWMutex
	cells map[[3]int]Layer
}

func NewGrid() *Grid {
	return &Grid{cells: make(map[[3]int]Layer)}
}

func (g *Grid) CellLayer(x, y, z int) Layer {
	if g == nil {
		return 0
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.cells[[3]int{x, y, z}]
}

func (g *Grid) Set(x, y, z int, layer Layer) {
	if g == nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if layer == 0 {
		delete(g.cells, [3]int{x, y, z})
		return
	}
	g.cells[[3]int{x, y, z}] = layer
}

// Fill marks every cell in the inclusive box as layer.
func (g *Grid) Fill(minX, minY, minZ, maxX, maxY, maxZ int, layer Layer) {
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			for z := minZ; z <= maxZ; z++ {
				g.Set(x, y, z, layer)
			}
		}
	}
}

// Len reports the number of occupied cells.
func (g *Grid) Len() int {
	if g == nil {
		return 0
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.cells)
}

type AABB struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// SphereBounds is the axis-aligned cube enclosing a sphere.
func SphereBounds(center mgl64.Vec3, radius float64) AABB {
	r := mgl64.Vec3{radius, radius, radius}
	return AABB{Min: center.Sub(r), Max: center.Add(r)}
}

func cellBox(x, y, z int) AABB {
	return AABB{
		Min: mgl64.Vec3{float64(x), float64(y), float64(z)},
		Max: mgl64.Vec3{float64(x + 1), float64(y + 1), float64(z + 1)},
	}
}

// SphereOverlapsBox reports whether a sphere touches an AABB.
func SphereOverlapsBox(center mgl64.Vec3, radius float64, box AABB) bool {
	var closest mgl64.Vec3
	for i := range closest {
		closest[i] = mgl64.Clamp(center[i], box.Min[i], box.Max[i])
	}
	d := closest.Sub(center)
	return d.Dot(d) <= radius*radius
}

// SphereTouchesCells tests a sphere against every masked cell it could touch.
func SphereTouchesCells(center mgl64.Vec3, radius float64, cells CellStore, mask Layer) bool {
	if cells == nil || radius < 0 {
		return false
	}
	b := SphereBounds(center, radius)
	for y := floorInt(b.Min[1]); y <= floorInt(b.Max[1]); y++ {
		for x := floorInt(b.Min[0]); x <= floorInt(b.Max[0]); x++ {
			for z := floorInt(b.Min[2]); z <= floorInt(b.Max[2]); z++ {
				if !cells.CellLayer(x, y, z).Has(mask) {
					continue
				}
				if SphereOverlapsBox(center, radius, cellBox(x, y, z)) {
					return true
				}
			}
		}
	}
	return false
}

// ResolveMovement sweeps box by delta one axis at a time (Y, X, Z) and
// stops each axis at the first solid cell. Axes that were blocked come
// back with zero velocity.
func ResolveMovement(box AABB, delta mgl64.Vec3, cells CellStore, mask Layer) (mgl64.Vec3, [3]bool) {
	var moved mgl64.Vec3
	var blocked [3]bool
	for _, axis := range [3]int{1, 0, 2} {
		d := delta[axis]
		allowed := resolveAxis(box, axis, d, cells, mask)
		if !nearlyEqual(allowed, d) {
			blocked[axis] = true
		}
		box = box.translate(axis, allowed)
		moved[axis] = allowed
	}
	return moved, blocked
}

func resolveAxis(box AABB, axis int, delta float64, cells CellStore, mask Layer) float64 {
	if cells == nil || nearlyZero(delta) {
		return delta
	}
	// The two axes perpendicular to the sweep.
	a1, a2 := (axis+1)%3, (axis+2)%3
	minA := floorForMin(box.Min[a1])
	maxA := floorForMax(box.Max[a1])
	minB := floorForMin(box.Min[a2])
	maxB := floorForMax(box.Max[a2])

	allowed := delta
	solidAt := func(s, a, b int) bool {
		var c [3]int
		c[axis], c[a1], c[a2] = s, a, b
		return cells.CellLayer(c[0], c[1], c[2]).Has(mask)
	}

	if delta > 0 {
		face := box.Max[axis]
		start := int(math.Floor(face))
		end := int(math.Floor(face + delta))
		for s := start; s <= end; s++ {
			for a := minA; a <= maxA; a++ {
				for b := minB; b <= maxB; b++ {
					if !solidAt(s, a, b) {
						continue
					}
					if candidate := float64(s) - face; candidate < allowed {
						allowed = candidate
					}
				}
			}
		}
	} else {
		face := box.Min[axis]
		start := int(math.Floor(face + delta))
		end := int(math.Floor(face - CollisionAxisTolerance))
		for s := end; s >= start; s-- {
			for a := minA; a <= maxA; a++ {
				for b := minB; b <= maxB; b++ {
					if !solidAt(s, a, b) {
						continue
					}
					if candidate := float64(s+1) - face; candidate > allowed {
						allowed = candidate
					}
				}
			}
		}
	}
	return allowed
}

func (b AABB) translate(axis int, d float64) AABB {
	b.Min[axis] += d
	b.Max[axis] += d
	return b
}

func floorInt(v float64) int {
	return int(math.Floor(v))
}

func floorForMin(v float64) int {
	return int(math.Floor(v + CollisionAxisTolerance))
}

func floorForMax(v float64) int {
	return int(math.Floor(v - CollisionAxisTolerance))
}

func nearlyZero(v float64) bool {
	return math.Abs(v) <= CollisionAxisTolerance
}

func nearlyEqual(a, b float64) bool {
	return math.Abs(a-b) <= CollisionAxisTolerance
}
