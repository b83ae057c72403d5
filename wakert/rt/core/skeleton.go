package core

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Bone is one joint of a skeleton. Parent is -1 for roots and must be
// smaller than the bone's own index so a single forward pass resolves the
// hierarchy.
type Bone struct {
	Name        string
	Parent      int
	Local       Transform
	InverseBind mgl32.Mat4

	world mgl32.Mat4
}

// Skeleton holds bones in skeleton space (relative to the skinned mesh).
type Skeleton struct {
	Bones []Bone

	// world * inverseBind per bone, refreshed by Update
	matrices []mgl32.Mat4
}

func NewSkeleton(bones []Bone) (*Skeleton, error) {
	for i, b := range bones {
		if b.Parent >= i {
			return nil, fmt.Errorf("bone %d (%s): parent %d must precede it", i, b.Name, b.Parent)
		}
	}
	s := &Skeleton{
		Bones:    bones,
		matrices: make([]mgl32.Mat4, len(bones)),
	}
	s.Update()
	return s, nil
}

// Update recomputes bone world matrices and skinning matrices from the
// current local transforms.
func (s *Skeleton) Update() {
	for i := range s.Bones {
		b := &s.Bones[i]
		local := b.Local.Matrix()
		if b.Parent < 0 {
			b.world = local
		} else {
			b.world = s.Bones[b.Parent].world.Mul4(local)
		}
		s.matrices[i] = b.world.Mul4(b.InverseBind)
	}
}

// CalculateInverses captures the current pose as the bind pose.
func (s *Skeleton) CalculateInverses() {
	s.Update()
	for i := range s.Bones {
		s.Bones[i].InverseBind = s.Bones[i].world.Inv()
	}
	s.Update()
}

// BoneMatrix returns the skinning matrix of bone i.
func (s *Skeleton) BoneMatrix(i int) mgl32.Mat4 {
	return s.matrices[i]
}
