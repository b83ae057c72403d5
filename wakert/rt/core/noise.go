package core

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/ojrac/opensimplex-go"
)

const (
	curlEpsilon float32 = 0.01
	fbmOctaves          = 3
)

// Noise is a vector noise field built from three decorrelated simplex
// channels.
type Noise struct {
	x, y, z opensimplex.Noise32
}

func NewNoise(seed int64) *Noise {
	return &Noise{
		x: opensimplex.New32(seed),
		y: opensimplex.New32(seed + 7919),
		z: opensimplex.New32(seed + 104729),
	}
}

func (n *Noise) potential(p mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{
		n.x.Eval3(p[0], p[1], p[2]),
		n.y.Eval3(p[0], p[1], p[2]),
		n.z.Eval3(p[0], p[1], p[2]),
	}
}

// Curl returns the curl of the potential field at p by central differences.
// The result is divergence free, which keeps the trail from clumping.
func (n *Noise) Curl(p mgl32.Vec3) mgl32.Vec3 {
	e := curlEpsilon
	dx := mgl32.Vec3{e, 0, 0}
	dy := mgl32.Vec3{0, e, 0}
	dz := mgl32.Vec3{0, 0, e}

	px0, px1 := n.potential(p.Sub(dx)), n.potential(p.Add(dx))
	py0, py1 := n.potential(p.Sub(dy)), n.potential(p.Add(dy))
	pz0, pz1 := n.potential(p.Sub(dz)), n.potential(p.Add(dz))

	inv := 1 / (2 * e)
	return mgl32.Vec3{
		((py1[2] - py0[2]) - (pz1[1] - pz0[1])) * inv,
		((pz1[0] - pz0[0]) - (px1[2] - px0[2])) * inv,
		((px1[1] - px0[1]) - (py1[0] - py0[0])) * inv,
	}
}

// FBM sums octaves of the vector field with halving amplitude.
func (n *Noise) FBM(p mgl32.Vec3) mgl32.Vec3 {
	var sum mgl32.Vec3
	amp := float32(0.5)
	for o := 0; o < fbmOctaves; o++ {
		sum = sum.Add(n.potential(p).Mul(amp))
		p = p.Mul(2.03)
		amp *= 0.5
	}
	return sum
}
