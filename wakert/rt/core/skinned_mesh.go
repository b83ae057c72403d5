package core

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// SkinnedMeshNode is a linear-blend skinned mesh: up to four bone
// influences per vertex, bones living in mesh space.
type SkinnedMeshNode struct {
	Object3D

	geometry   *Geometry
	Skeleton   *Skeleton
	SkinIndex  [][4]int
	SkinWeight [][4]float32

	bindMatrix        mgl32.Mat4
	bindMatrixInverse mgl32.Mat4
}

var _ SkinnedMesh = (*SkinnedMeshNode)(nil)

func NewSkinnedMeshNode(name string, geometry *Geometry, skeleton *Skeleton, skinIndex [][4]int, skinWeight [][4]float32) (*SkinnedMeshNode, error) {
	if geometry == nil || skeleton == nil {
		return nil, fmt.Errorf("skinned mesh %s: geometry and skeleton are required", name)
	}
	if len(skinIndex) != geometry.VertexCount() || len(skinWeight) != geometry.VertexCount() {
		return nil, fmt.Errorf("skinned mesh %s: %d vertices but %d skin indices and %d weights",
			name, geometry.VertexCount(), len(skinIndex), len(skinWeight))
	}
	for v, idx := range skinIndex {
		for k := 0; k < 4; k++ {
			if skinWeight[v][k] != 0 && (idx[k] < 0 || idx[k] >= len(skeleton.Bones)) {
				return nil, fmt.Errorf("skinned mesh %s: vertex %d references bone %d", name, v, idx[k])
			}
		}
	}
	m := &SkinnedMeshNode{
		geometry:   geometry,
		Skeleton:   skeleton,
		SkinIndex:  skinIndex,
		SkinWeight: skinWeight,
	}
	m.init(name)
	m.Bind(mgl32.Ident4())
	return m, nil
}

// Bind sets the mesh-to-skeleton bind matrix.
func (m *SkinnedMeshNode) Bind(bindMatrix mgl32.Mat4) {
	m.bindMatrix = bindMatrix
	m.bindMatrixInverse = bindMatrix.Inv()
}

func (m *SkinnedMeshNode) Geometry() *Geometry { return m.geometry }

func (m *SkinnedMeshNode) UpdateSkeleton() {
	m.Skeleton.Update()
}

// ApplyBoneTransform blends the bone matrices bound to vertexIndex.
// A vertex without any weight is left in its rest position.
func (m *SkinnedMeshNode) ApplyBoneTransform(vertexIndex int, p mgl32.Vec3) mgl32.Vec3 {
	skinVertex := m.bindMatrix.Mul4x1(p.Vec4(1))

	var acc mgl32.Vec4
	var total float32
	idx := m.SkinIndex[vertexIndex]
	w := m.SkinWeight[vertexIndex]
	for k := 0; k < 4; k++ {
		if w[k] == 0 {
			continue
		}
		acc = acc.Add(m.Skeleton.BoneMatrix(idx[k]).Mul4x1(skinVertex).Mul(w[k]))
		total += w[k]
	}
	if total == 0 {
		return p
	}
	return m.bindMatrixInverse.Mul4x1(acc).Vec3()
}
