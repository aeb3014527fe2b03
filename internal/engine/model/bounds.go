package model

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/modelview/internal/engine/mesh"
)

// Bounds is an axis-aligned bounding box in model space.
type Bounds struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// Center returns the midpoint of the box.
func (b Bounds) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Radius returns half the diagonal length.
func (b Bounds) Radius() float32 {
	return b.Max.Sub(b.Min).Len() * 0.5
}

// computeBounds returns the box around every vertex of the buffers, and
// false when there are none.
func computeBounds(buffers []*mesh.Buffer) (Bounds, bool) {
	b := Bounds{
		Min: mgl32.Vec3{1e10, 1e10, 1e10},
		Max: mgl32.Vec3{-1e10, -1e10, -1e10},
	}
	found := false
	for _, buf := range buffers {
		for _, v := range buf.Vertices {
			for i := 0; i < 3; i++ {
				b.Min[i] = min(b.Min[i], v.Position[i])
				b.Max[i] = max(b.Max[i], v.Position[i])
			}
			found = true
		}
	}
	if !found {
		return Bounds{}, false
	}
	return b, true
}
