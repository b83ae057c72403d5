package core

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stripGeometry is a flat ribbon along +Z with two vertices per ring.
func stripGeometry(segments int) *Geometry {
	g := &Geometry{}
	for i := 0; i <= segments; i++ {
		z := float32(i)
		g.Positions = append(g.Positions, mgl32.Vec3{-0.5, 0, z}, mgl32.Vec3{0.5, 0, z})
	}
	for i := 0; i < segments; i++ {
		a := uint32(i * 2)
		g.Indices = append(g.Indices, a, a+1, a+2, a+1, a+3, a+2)
	}
	g.ComputeNormals()
	return g
}

// newStripMesh skins the ribbon to a two bone chain split at its middle.
func newStripMesh(t *testing.T, segments int) *SkinnedMeshNode {
	t.Helper()
	g := stripGeometry(segments)
	mid := float32(segments) / 2

	root := Bone{Name: "root", Parent: -1, Local: NewTransform()}
	tail := Bone{Name: "tail", Parent: 0, Local: NewTransform()}
	tail.Local.Position = mgl32.Vec3{0, 0, mid}
	skel, err := NewSkeleton([]Bone{root, tail})
	require.NoError(t, err)
	skel.CalculateInverses()

	idx := make([][4]int, g.VertexCount())
	w := make([][4]float32, g.VertexCount())
	for v, p := range g.Positions {
		if p.Z() > mid {
			idx[v] = [4]int{1}
		}
		w[v] = [4]float32{1}
	}
	mesh, err := NewSkinnedMeshNode("strip", g, skel, idx, w)
	require.NoError(t, err)
	return mesh
}

func assertVecNear(t *testing.T, want, got mgl32.Vec3, eps float32) {
	t.Helper()
	for k := 0; k < 3; k++ {
		assert.InDelta(t, want[k], got[k], float64(eps), "component %d of %v vs %v", k, want, got)
	}
}
