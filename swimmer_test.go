package wake

import (
	"testing"

	"github.com/gekko3d/wake/wakert/rt/core"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSwimmer_RejectsBadOptions(t *testing.T) {
	opts := DefaultSwimmerOptions()
	opts.Bones = 1
	_, err := NewSwimmer(opts)
	assert.Error(t, err)

	opts = DefaultSwimmerOptions()
	opts.Radius = 0
	_, err = NewSwimmer(opts)
	assert.Error(t, err)
}

func TestSwimmer_SkinnedMeshIsDiscoverable(t *testing.T) {
	s, err := NewSwimmer(DefaultSwimmerOptions())
	require.NoError(t, err)

	mesh, ok := core.FindSkinnedMesh(s.Root())
	require.True(t, ok)
	assert.Same(t, s.Body, mesh)
	assert.Equal(t, 24*12, mesh.Geometry().VertexCount())

	for v := range s.Body.SkinWeight {
		w := s.Body.SkinWeight[v]
		assert.InDelta(t, 1, w[0]+w[1]+w[2]+w[3], 1e-5)
	}
}

func TestSwimmer_TailMovesMoreThanHead(t *testing.T) {
	opts := DefaultSwimmerOptions()
	opts.Speed = 0
	s, err := NewSwimmer(opts)
	require.NoError(t, err)

	g := s.Body.Geometry()
	rest := make([]mgl32.Vec3, g.VertexCount())
	s.Body.UpdateSkeleton()
	for v, p := range g.Positions {
		rest[v] = s.Body.ApplyBoneTransform(v, p)
	}

	s.Animate(0.2)
	s.Body.UpdateSkeleton()

	// first ring is the tail, last ring the head
	tail, head := 0, g.VertexCount()-1
	dTail := s.Body.ApplyBoneTransform(tail, g.Positions[tail]).Sub(rest[tail]).Len()
	dHead := s.Body.ApplyBoneTransform(head, g.Positions[head]).Sub(rest[head]).Len()
	assert.Greater(t, dTail, dHead)
	assert.Equal(t, mgl32.Vec3{}, ActorPosition(s), "zero speed stays in place")
}

func TestSwimmer_TrailPointsBehind(t *testing.T) {
	s, err := NewSwimmer(DefaultSwimmerOptions())
	require.NoError(t, err)

	const dt = 0.01
	s.Animate(1)
	p0 := ActorPosition(s)
	s.Animate(1 + dt)
	p1 := ActorPosition(s)

	velocity := p1.Sub(p0)
	velocity[1] = 0
	axis := TrailAxis(s)
	assert.InDelta(t, 1, axis.Len(), 1e-5)
	assert.Less(t, axis.Dot(velocity.Normalize()), float32(-0.95), "the wake drifts opposite to travel")
}
