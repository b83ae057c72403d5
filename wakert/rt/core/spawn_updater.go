package core

import "github.com/go-gl/mathgl/mgl32"

// SurfaceBias pushes spawn points slightly off the surface along the
// sample normal.
const SurfaceBias float32 = 0.02

// SpawnFieldUpdater re-skins every sample into the spawn field each frame.
type SpawnFieldUpdater struct {
	mesh    SkinnedMesh
	field   *SpawnField
	samples []SampleRecord

	// scratch, reused every tick
	local   mgl32.Vec3
	skinned mgl32.Vec3
	world   mgl32.Vec3
}

func NewSpawnFieldUpdater(mesh SkinnedMesh, field *SpawnField, samples []SampleRecord) *SpawnFieldUpdater {
	return &SpawnFieldUpdater{mesh: mesh, field: field, samples: samples}
}

// Ready reports whether all inputs are present.
func (u *SpawnFieldUpdater) Ready() bool {
	return u != nil && u.mesh != nil && u.field != nil && len(u.samples) > 0
}

// Update refreshes the skeleton and world matrix, then rewrites one texel per
// sample. Missing inputs make it a no-op.
func (u *SpawnFieldUpdater) Update() {
	if !u.Ready() {
		return
	}
	g := u.mesh.Geometry()
	if g == nil {
		return
	}

	u.mesh.UpdateSkeleton()
	u.mesh.UpdateMatrixWorld()
	world := u.mesh.MatrixWorld()

	n := len(u.samples)
	if n > len(u.field.Texels) {
		n = len(u.field.Texels)
	}
	for i := 0; i < n; i++ {
		s := &u.samples[i]
		u.local = g.Positions[s.VertexIndex].Add(s.Offset).Add(s.Normal.Mul(SurfaceBias))
		u.skinned = u.mesh.ApplyBoneTransform(s.VertexIndex, u.local)
		u.world = TransformPoint(world, u.skinned)
		u.field.Texels[i] = mgl32.Vec4{u.world[0], u.world[1], u.world[2], float32(s.VertexIndex)}
	}
	u.field.Relative = false
	u.field.MarkDirty()
}
