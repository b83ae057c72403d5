package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Geometry is a triangle mesh in local space.
// When Indices is empty the positions are read as consecutive triangles.
type Geometry struct {
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	Indices   []uint32

	attributes map[string][]float32
}

func (g *Geometry) VertexCount() int {
	return len(g.Positions)
}

func (g *Geometry) TriangleCount() int {
	if len(g.Indices) > 0 {
		return len(g.Indices) / 3
	}
	return len(g.Positions) / 3
}

// Triangle returns the vertex indices of triangle i.
func (g *Geometry) Triangle(i int) (a, b, c int) {
	if len(g.Indices) > 0 {
		return int(g.Indices[i*3]), int(g.Indices[i*3+1]), int(g.Indices[i*3+2])
	}
	return i * 3, i*3 + 1, i*3 + 2
}

// SetAttribute attaches a scalar per-vertex attribute.
func (g *Geometry) SetAttribute(name string, data []float32) {
	if g.attributes == nil {
		g.attributes = make(map[string][]float32)
	}
	g.attributes[name] = data
}

func (g *Geometry) Attribute(name string) ([]float32, bool) {
	data, ok := g.attributes[name]
	return data, ok
}

// Bounds returns the axis-aligned extent of all positions.
func (g *Geometry) Bounds() (min, max mgl32.Vec3) {
	if len(g.Positions) == 0 {
		return mgl32.Vec3{}, mgl32.Vec3{}
	}
	inf := float32(math.Inf(1))
	min = mgl32.Vec3{inf, inf, inf}
	max = mgl32.Vec3{-inf, -inf, -inf}
	for _, p := range g.Positions {
		for k := 0; k < 3; k++ {
			if p[k] < min[k] {
				min[k] = p[k]
			}
			if p[k] > max[k] {
				max[k] = p[k]
			}
		}
	}
	return min, max
}

// ComputeNormals fills Normals with area-weighted vertex normals.
func (g *Geometry) ComputeNormals() {
	normals := make([]mgl32.Vec3, len(g.Positions))
	for t := 0; t < g.TriangleCount(); t++ {
		a, b, c := g.Triangle(t)
		pa, pb, pc := g.Positions[a], g.Positions[b], g.Positions[c]
		n := pb.Sub(pa).Cross(pc.Sub(pa))
		normals[a] = normals[a].Add(n)
		normals[b] = normals[b].Add(n)
		normals[c] = normals[c].Add(n)
	}
	for i, n := range normals {
		if n.Len() > 0 {
			normals[i] = n.Normalize()
		}
	}
	g.Normals = normals
}
