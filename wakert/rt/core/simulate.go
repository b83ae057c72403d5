package core

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	// SpawnJitter scales the positional jitter applied on respawn.
	SpawnJitter float32 = 0.15
	// timeScroll drifts the noise field so a resting particle still moves.
	timeScroll float32 = 0.15
)

var DefaultTrailAxis = mgl32.Vec3{0, 0, -1}

// Uniforms is everything one simulation tick reads besides the grids.
type Uniforms struct {
	Time      float32
	DeltaTime float32

	ActorPosition mgl32.Vec3
	// TrailAxis is the normalised drift direction, the actor's world -Z.
	TrailAxis mgl32.Vec3

	// SpawnRelative adds ActorPosition to spawn texels on respawn.
	SpawnRelative bool

	Params Params
}

// Simulator advances the particle grid one tick at a time.
type Simulator interface {
	Step(u Uniforms, spawn *SpawnField) error
	ReadIndex() int
	Release()
}

// pcg is the PCG-RXS-M-XS hash, shared bit for bit with simulate.wgsl.
func pcg(v uint32) uint32 {
	state := v*747796405 + 2891336453
	word := ((state >> ((state >> 28) + 4)) ^ state) * 277803737
	return (word >> 22) ^ word
}

func hash01(v uint32) float32 {
	return float32(pcg(v)) / 4294967295.0
}

// Jitter returns a reproducible vector in [-1,1]^3 for a particle and a
// moment in time.
func Jitter(index uint32, time float32) mgl32.Vec3 {
	h := pcg(index ^ pcg(math.Float32bits(time)))
	return mgl32.Vec3{
		hash01(h)*2 - 1,
		hash01(h+1)*2 - 1,
		hash01(h+2)*2 - 1,
	}
}

func fract(x float32) float32 {
	f := x - float32(math.Floor(float64(x)))
	if f >= 1 {
		return 0
	}
	return f
}

// Kernel is the per-particle integration rule.
type Kernel struct {
	Noise *Noise
}

func NewKernel(seed int64) *Kernel {
	return &Kernel{Noise: NewNoise(seed)}
}

// Step advances one particle. pos.w is life, vel.w the particle seed.
func (k *Kernel) Step(index uint32, pos, vel, spawn mgl32.Vec4, u *Uniforms) (mgl32.Vec4, mgl32.Vec4) {
	p := u.Params
	seed := vel[3]

	life := pos[3]
	if p.LifeSpan > 0 {
		life += u.DeltaTime / p.LifeSpan * (0.75 + 0.5*seed)
	}

	if life >= 1 {
		base := spawn.Vec3()
		if u.SpawnRelative {
			base = base.Add(u.ActorPosition)
		}
		j := Jitter(index, u.Time)
		np := base.Add(j.Mul(p.Spread * SpawnJitter))
		nv := u.TrailAxis.Mul(p.BackwardSpeed * 0.25).Add(j.Mul(p.Spread * 0.1))
		return np.Vec4(fract(life)), nv.Vec4(seed)
	}

	position := pos.Vec3()
	velocity := vel.Vec3()

	accel := u.TrailAxis.Mul(p.BackwardSpeed)
	accel[1] += p.Buoyancy

	if p.Turbulence != 0 || p.CurlStrength != 0 {
		q := position.Mul(p.NoiseScale).Add(mgl32.Vec3{0, 0, u.Time * timeScroll})
		accel = accel.Add(k.Noise.Curl(q).Mul(p.CurlStrength * (1 + p.Turbulence)))
		accel = accel.Add(k.Noise.FBM(q).Mul(p.Turbulence))
	}

	if p.SpiralIntensity != 0 {
		rel := position.Sub(u.ActorPosition)
		radial := rel.Sub(u.TrailAxis.Mul(rel.Dot(u.TrailAxis)))
		accel = accel.Add(u.TrailAxis.Cross(radial).Mul(p.SpiralIntensity))
	}

	velocity = velocity.Add(accel.Mul(u.DeltaTime)).Mul(p.Drag)
	position = position.Add(velocity.Mul(u.DeltaTime))
	return position.Vec4(life), velocity.Vec4(seed)
}

// CPUSimulator runs the kernel on the host over a ParticleState.
type CPUSimulator struct {
	state  *ParticleState
	kernel *Kernel
}

var _ Simulator = (*CPUSimulator)(nil)

func NewCPUSimulator(state *ParticleState, seed int64) *CPUSimulator {
	return &CPUSimulator{state: state, kernel: NewKernel(seed)}
}

func (s *CPUSimulator) State() *ParticleState { return s.state }

func (s *CPUSimulator) Step(u Uniforms, spawn *SpawnField) error {
	if spawn == nil || len(spawn.Texels) != s.state.Count() {
		return fmt.Errorf("spawn field does not match %d particles", s.state.Count())
	}
	if u.TrailAxis.Len() < 1e-6 {
		u.TrailAxis = DefaultTrailAxis
	}
	spawn.TakeDirty()

	inPos, inVel := s.state.Read()
	outPos, outVel := s.state.Write()
	for i := range inPos {
		outPos[i], outVel[i] = s.kernel.Step(uint32(i), inPos[i], inVel[i], spawn.Texels[i], &u)
	}
	s.state.Swap()
	return nil
}

func (s *CPUSimulator) ReadIndex() int { return s.state.ReadIndex() }

func (s *CPUSimulator) Release() {}
