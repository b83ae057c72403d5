package wake

import (
	"errors"
	"math/rand"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/wake/wakert/rt/core"
	"github.com/gekko3d/wake/wakert/rt/gpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

const (
	DefaultWidth = 150
	// maxStep caps the simulated time of a single frame after a hitch.
	maxStep float32 = 1.0 / 15
)

// GpuContext is the device the effect renders with. Formats describe the
// main render pass the point sprites are drawn into.
type GpuContext struct {
	Device      *wgpu.Device
	Queue       *wgpu.Queue
	ColorFormat wgpu.TextureFormat
	DepthFormat wgpu.TextureFormat
}

type EffectOptions struct {
	// Width is the side of the square particle grid.
	Width  int
	Seed   int64
	Logger Logger
	// Gpu is optional; without it the effect simulates on the CPU and
	// draws nothing.
	Gpu *GpuContext
	// ForceCPU simulates on the CPU even when a GPU is present.
	ForceCPU bool
	Panel    Panel
}

// WakeEffect owns the whole wake: surface samples, spawn field, simulator
// and the point set it adds to the scene.
type WakeEffect struct {
	ID uuid.UUID

	actor  Actor
	scene  Scene
	params *core.ParamStore
	log    Logger

	mesh    core.SkinnedMesh
	samples []core.SampleRecord
	field   *core.SpawnField
	updater *core.SpawnFieldUpdater
	state   *core.ParticleState
	sim     core.Simulator
	points  *PointSet

	lastUniforms core.Uniforms
	disposed     bool
}

// NewWakeEffect builds the effect and adds its point set to scene. It never
// fails: a missing mesh falls back to a disc spawn and a compute setup error
// leaves a wake that does not move.
func NewWakeEffect(actor Actor, scene Scene, params *core.ParamStore, opts EffectOptions) *WakeEffect {
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if params == nil {
		params = core.NewParamStore(core.DefaultParams())
	}
	id := uuid.New()
	e := &WakeEffect{
		ID:     id,
		actor:  actor,
		scene:  scene,
		params: params,
		log:    WithPrefix(opts.Logger, "wake "+id.String()[:8]),
	}
	rng := rand.New(rand.NewSource(opts.Seed))
	count := opts.Width * opts.Width

	e.field = core.NewSpawnField(opts.Width)
	e.bindMesh(count, rng)

	e.state = core.NewParticleState(opts.Width)
	e.state.ScatterInitial(rng, ActorPosition(actor), TrailAxis(actor))

	e.sim = e.newSimulator(opts)
	e.points = newPointSet(e, opts)
	if scene != nil {
		scene.Add(e.points)
	}
	RegisterWakeParameters(opts.Panel, params, ParameterGroup)

	e.log.Infof("wake ready: %d particles, %d samples", count, len(e.samples))
	return e
}

func (e *WakeEffect) bindMesh(count int, rng *rand.Rand) {
	mesh, ok := core.FindSkinnedMesh(e.actor.Root())
	if !ok {
		e.log.Warnf("no skinned mesh on actor, using fallback disc spawn")
		e.field.FillFallbackDisc(rng)
		return
	}
	samples, err := core.SampleSurface(mesh, count, rng)
	if err != nil {
		e.log.Warnf("surface sampling of %s failed, using fallback disc spawn: %v", mesh.Name(), err)
		e.field.FillFallbackDisc(rng)
		return
	}
	e.mesh = mesh
	e.samples = samples
	e.field.FillFromSamples(samples)
	e.updater = core.NewSpawnFieldUpdater(mesh, e.field, samples)
	e.updater.Update()
}

func (e *WakeEffect) newSimulator(opts EffectOptions) core.Simulator {
	if opts.Gpu == nil || opts.ForceCPU {
		return core.NewCPUSimulator(e.state, opts.Seed)
	}
	pass, err := gpu.NewSimulationPass(opts.Gpu.Device, e.state, e.field)
	if err != nil {
		e.log.Errorf("wake simulation disabled: %v", err)
		return noopSimulator{}
	}
	return pass
}

// Update advances the wake by one frame.
func (e *WakeEffect) Update(t *Time) {
	if e.disposed || t == nil {
		return
	}
	p := e.params.Load()

	e.updater.Update()

	dt := t.DtSeconds()
	if dt > maxStep {
		dt = maxStep
	}
	u := core.Uniforms{
		Time:          t.ElapsedSeconds(),
		DeltaTime:     dt,
		ActorPosition: ActorPosition(e.actor),
		TrailAxis:     TrailAxis(e.actor),
		SpawnRelative: e.field.Relative,
		Params:        p,
	}
	e.lastUniforms = u

	if err := e.sim.Step(u, e.field); err != nil {
		e.log.Errorf("wake simulation stopped: %v", err)
		e.sim.Release()
		e.sim = noopSimulator{}
	}
}

// Dispose releases the simulator and point set and removes the point set
// from the scene. Further calls do nothing.
func (e *WakeEffect) Dispose() {
	if e.disposed {
		return
	}
	e.disposed = true

	if e.sim != nil {
		e.sim.Release()
	}
	if e.points != nil {
		e.points.Release()
	}
	if e.scene != nil && e.points != nil {
		e.scene.Remove(e.points)
	}
	e.updater = nil
	e.log.Debugf("wake disposed")
}

func (e *WakeEffect) Disposed() bool { return e.disposed }

// Mesh is the tracked skinned mesh, nil when the fallback spawn is in use.
func (e *WakeEffect) Mesh() core.SkinnedMesh { return e.mesh }

func (e *WakeEffect) Samples() []core.SampleRecord { return e.samples }

func (e *WakeEffect) SpawnField() *core.SpawnField { return e.field }

func (e *WakeEffect) Params() *core.ParamStore { return e.params }

func (e *WakeEffect) PointSet() *PointSet { return e.points }

func (e *WakeEffect) Simulator() core.Simulator { return e.sim }

// State returns the host side particle grid. It is only advanced by the CPU
// simulator; GPU runs read it back with ReadState.
func (e *WakeEffect) State() *core.ParticleState { return e.state }

var errNoComputePass = errors.New("simulation does not run on the GPU")

// ReadState copies the current particle positions into the host grid.
func (e *WakeEffect) ReadState() error {
	switch sim := e.sim.(type) {
	case *core.CPUSimulator:
		return nil
	case *gpu.SimulationPass:
		pos, _ := e.state.Read()
		return sim.ReadState(pos)
	default:
		return errNoComputePass
	}
}

type noopSimulator struct{}

func (noopSimulator) Step(core.Uniforms, *core.SpawnField) error { return nil }
func (noopSimulator) ReadIndex() int                             { return 0 }
func (noopSimulator) Release()                                   {}

// PointSet is the drawable side of the wake. It is never frustum culled
// since its particles have no common bounds.
type PointSet struct {
	effect *WakeEffect
	queue  *wgpu.Queue
	pass   *gpu.PointSpritePass

	// cpuBuf mirrors the host grid when the CPU simulator drives a GPU draw
	cpuBuf *wgpu.Buffer

	// UVs address the particle grid, one per instance.
	UVs      []mgl32.Vec2
	uniforms gpu.PointUniforms
	released bool
}

var _ Drawable = (*PointSet)(nil)

func newPointSet(e *WakeEffect, opts EffectOptions) *PointSet {
	uvs := core.ParticleUVs(opts.Width)
	ps := &PointSet{effect: e, UVs: uvs}
	if opts.Gpu == nil || opts.Gpu.Device == nil {
		return ps
	}
	ps.queue = opts.Gpu.Queue

	var bufs [2]*wgpu.Buffer
	switch sim := e.sim.(type) {
	case *gpu.SimulationPass:
		bufs = sim.StateBufs
	case *core.CPUSimulator:
		pos, _ := e.state.Read()
		buf, err := opts.Gpu.Device.CreateBufferInit(&wgpu.BufferInitDescriptor{
			Label:    "WakeHostState",
			Contents: gpu.Vec4Bytes(pos),
			Usage:    wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			e.log.Errorf("wake host state buffer: %v", err)
			return ps
		}
		ps.cpuBuf = buf
		bufs = [2]*wgpu.Buffer{buf, buf}
	default:
		return ps
	}

	pass, err := gpu.NewPointSpritePass(opts.Gpu.Device, opts.Gpu.ColorFormat, opts.Gpu.DepthFormat, uvs, bufs)
	if err != nil {
		e.log.Errorf("wake point sprites disabled: %v", err)
		return ps
	}
	ps.pass = pass
	return ps
}

func (ps *PointSet) FrustumCulled() bool { return false }

// Prepare writes the draw uniforms from the current parameter snapshot.
func (ps *PointSet) Prepare(queue *wgpu.Queue, cam *Camera, t *Time) {
	if ps.released || cam == nil {
		return
	}
	p := ps.effect.params.Load()
	var now float32
	if t != nil {
		now = t.ElapsedSeconds()
	}
	ps.uniforms = gpu.NewPointUniforms(p, cam.View(), cam.Projection(), cam.Viewport(), cam.PixelRatio, now, ps.effect.state.Width)

	if queue == nil {
		queue = ps.queue
	}
	if ps.pass == nil || queue == nil {
		return
	}
	if ps.cpuBuf != nil {
		pos, _ := ps.effect.state.Read()
		queue.WriteBuffer(ps.cpuBuf, 0, gpu.Vec4Bytes(pos))
	}
	ps.pass.Update(queue, &ps.uniforms)
}

func (ps *PointSet) Encode(pass *wgpu.RenderPassEncoder) {
	if ps.released || ps.pass == nil || pass == nil {
		return
	}
	ps.pass.Draw(pass, ps.effect.sim.ReadIndex())
}

// Uniforms returns the values last written by Prepare.
func (ps *PointSet) Uniforms() gpu.PointUniforms { return ps.uniforms }

func (ps *PointSet) Release() {
	if ps.released {
		return
	}
	ps.released = true
	if ps.pass != nil {
		ps.pass.Release()
		ps.pass = nil
	}
	if ps.cpuBuf != nil {
		ps.cpuBuf.Release()
		ps.cpuBuf = nil
	}
}

func (ps *PointSet) Released() bool { return ps.released }
