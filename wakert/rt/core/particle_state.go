package core

import (
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"
)

// ParticleState is the ping-pong particle grid. Positions carry life in w,
// velocities carry the per-particle seed in w. ReadIndex 0 reads Front.
type ParticleState struct {
	Width int

	Front    []mgl32.Vec4
	Back     []mgl32.Vec4
	FrontVel []mgl32.Vec4
	BackVel  []mgl32.Vec4

	readIndex int
}

func NewParticleState(width int) *ParticleState {
	if width < 1 {
		width = 1
	}
	n := width * width
	return &ParticleState{
		Width:    width,
		Front:    make([]mgl32.Vec4, n),
		Back:     make([]mgl32.Vec4, n),
		FrontVel: make([]mgl32.Vec4, n),
		BackVel:  make([]mgl32.Vec4, n),
	}
}

func (s *ParticleState) Count() int { return len(s.Front) }

func (s *ParticleState) ReadIndex() int { return s.readIndex }

// Read returns the current grids.
func (s *ParticleState) Read() (pos, vel []mgl32.Vec4) {
	if s.readIndex == 0 {
		return s.Front, s.FrontVel
	}
	return s.Back, s.BackVel
}

// Write returns the grids the next tick writes into.
func (s *ParticleState) Write() (pos, vel []mgl32.Vec4) {
	if s.readIndex == 0 {
		return s.Back, s.BackVel
	}
	return s.Front, s.FrontVel
}

func (s *ParticleState) Swap() {
	s.readIndex ^= 1
}

// trailBasis returns right and up vectors perpendicular to axis.
func trailBasis(axis mgl32.Vec3) (right, up mgl32.Vec3) {
	right = mgl32.Vec3{0, 1, 0}.Cross(axis)
	if right.Len() < 1e-4 {
		right = mgl32.Vec3{1, 0, 0}
	}
	right = right.Normalize()
	up = axis.Cross(right).Normalize()
	return right, up
}

// ScatterInitial fills both grids with an already established trail:
// particles 2 to 12 units behind the actor along axis, random life,
// zero velocity and a random seed.
func (s *ParticleState) ScatterInitial(rng *rand.Rand, actor, axis mgl32.Vec3) {
	if axis.Len() < 1e-6 {
		axis = DefaultTrailAxis
	}
	axis = axis.Normalize()
	right, up := trailBasis(axis)

	for i := range s.Front {
		x := (rng.Float32()*2 - 1) * 1.5
		y := rng.Float32()*2 - 1
		d := 2 + rng.Float32()*10
		p := actor.Add(right.Mul(x)).Add(up.Mul(y)).Add(axis.Mul(d))
		life := rng.Float32()
		seed := rng.Float32()

		s.Front[i] = p.Vec4(life)
		s.Back[i] = s.Front[i]
		s.FrontVel[i] = mgl32.Vec4{0, 0, 0, seed}
		s.BackVel[i] = s.FrontVel[i]
	}
	s.readIndex = 0
}
