package core

import (
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpawnUpdaterIdentityPoseAddsSurfaceBias(t *testing.T) {
	mesh := newStripMesh(t, 2)
	g := mesh.Geometry()
	samples := []SampleRecord{{
		Position:    g.Positions[3],
		Normal:      mgl32.Vec3{0, 1, 0},
		VertexIndex: 3,
	}}
	field := NewSpawnField(1)

	NewSpawnFieldUpdater(mesh, field, samples).Update()

	want := g.Positions[3].Add(mgl32.Vec3{0, SurfaceBias, 0})
	assertVecNear(t, want, field.Texels[0].Vec3(), 1e-6)
	assert.Equal(t, float32(3), field.Texels[0].W())
	assert.True(t, field.Dirty())
	assert.False(t, field.Relative)
}

func TestSpawnUpdaterIsIdempotentForFixedPose(t *testing.T) {
	mesh := newStripMesh(t, 6)
	mesh.Skeleton.Bones[1].Local.Rotation = mgl32.QuatRotate(0.6, mgl32.Vec3{0, 1, 0})
	mesh.Transform.Position = mgl32.Vec3{3, -1, 2}

	samples, err := SampleSurface(mesh, 64, rand.New(rand.NewSource(9)))
	require.NoError(t, err)
	field := NewSpawnField(8)
	u := NewSpawnFieldUpdater(mesh, field, samples)

	u.Update()
	first := append([]mgl32.Vec4(nil), field.Texels...)
	u.Update()
	assert.Equal(t, first, field.Texels)
}

func TestSpawnUpdaterFollowsPose(t *testing.T) {
	mesh := newStripMesh(t, 4)
	tailVertex := mesh.Geometry().VertexCount() - 1
	samples := []SampleRecord{{
		Position:    mesh.Geometry().Positions[tailVertex],
		VertexIndex: tailVertex,
	}}
	field := NewSpawnField(1)
	u := NewSpawnFieldUpdater(mesh, field, samples)

	u.Update()
	rest := field.Texels[0].Vec3()

	mesh.Skeleton.Bones[1].Local.Rotation = mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 1, 0})
	u.Update()
	assert.Greater(t, field.Texels[0].Vec3().Sub(rest).Len(), float32(0.5))

	mesh.Skeleton.Bones[1].Local.Rotation = mgl32.QuatIdent()
	mesh.Transform.Position = mgl32.Vec3{0, 10, 0}
	u.Update()
	assertVecNear(t, rest.Add(mgl32.Vec3{0, 10, 0}), field.Texels[0].Vec3(), 1e-5)
}

func TestSpawnUpdaterSkipsWhenNotReady(t *testing.T) {
	field := NewSpawnField(2)
	NewSpawnFieldUpdater(nil, field, []SampleRecord{{}}).Update()
	assert.False(t, field.Dirty())
	assert.Equal(t, make([]mgl32.Vec4, 4), field.Texels)

	mesh := newStripMesh(t, 2)
	NewSpawnFieldUpdater(mesh, field, nil).Update()
	assert.False(t, field.Dirty())

	NewSpawnFieldUpdater(mesh, nil, []SampleRecord{{}}).Update()

	var nilUpdater *SpawnFieldUpdater
	assert.NotPanics(t, nilUpdater.Update)
}

func TestSpawnFieldFallbackDisc(t *testing.T) {
	field := NewSpawnField(16)
	field.FillFallbackDisc(rand.New(rand.NewSource(4)))

	assert.True(t, field.Relative)
	assert.True(t, field.TakeDirty())
	assert.False(t, field.Dirty())
	for _, texel := range field.Texels {
		r := mgl32.Vec2{texel.X(), texel.Y() - fallbackDrop}.Len()
		assert.LessOrEqual(t, r, FallbackDiscRadius+1e-5)
		assert.LessOrEqual(t, texel.Z(), float32(0))
		assert.GreaterOrEqual(t, texel.Z(), -fallbackBehind)
		assert.Equal(t, float32(1), texel.W())
	}
}

func TestSpawnFieldFillFromSamplesCycles(t *testing.T) {
	field := NewSpawnField(3)
	samples := []SampleRecord{
		{Position: mgl32.Vec3{1, 0, 0}, VertexIndex: 4},
		{Position: mgl32.Vec3{2, 0, 0}, VertexIndex: 7},
	}
	field.FillFromSamples(samples)
	assert.Equal(t, mgl32.Vec4{1, 0, 0, 4}, field.Texels[0])
	assert.Equal(t, mgl32.Vec4{2, 0, 0, 7}, field.Texels[1])
	assert.Equal(t, mgl32.Vec4{1, 0, 0, 4}, field.Texels[8])
}

func TestGridSizeForWidth150(t *testing.T) {
	assert.Equal(t, 22500, NewSpawnField(150).Count())
	assert.Equal(t, 22500, NewParticleState(150).Count())
	assert.Len(t, ParticleUVs(150), 22500)
}
