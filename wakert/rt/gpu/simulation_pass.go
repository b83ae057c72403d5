package gpu

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/wake/wakert/rt/core"
	"github.com/gekko3d/wake/wakert/rt/shaders"
	"github.com/go-gl/mathgl/mgl32"
)

var ErrComputeInit = errors.New("wake compute pass unavailable")

// SimulationPass runs the wake kernel as a compute shader over two
// ping-pong state buffers. Bind group i reads buffer i and writes 1-i.
type SimulationPass struct {
	Device *wgpu.Device
	Queue  *wgpu.Queue

	Pipeline *wgpu.ComputePipeline
	layout   *wgpu.BindGroupLayout
	pipeLay  *wgpu.PipelineLayout

	UniformBuf *wgpu.Buffer
	SpawnBuf   *wgpu.Buffer
	StateBufs  [2]*wgpu.Buffer
	VelBufs    [2]*wgpu.Buffer
	BindGroups [2]*wgpu.BindGroup

	width     int
	readIndex int
	released  bool
}

var _ core.Simulator = (*SimulationPass)(nil)

// NewSimulationPass uploads the initial state and spawn grids and builds the
// pipeline. Any failure releases what was created and wraps ErrComputeInit.
func NewSimulationPass(device *wgpu.Device, state *core.ParticleState, spawn *core.SpawnField) (*SimulationPass, error) {
	if device == nil {
		return nil, fmt.Errorf("%w: no device", ErrComputeInit)
	}
	if state == nil || spawn == nil || spawn.Count() != state.Count() {
		return nil, fmt.Errorf("%w: state and spawn grids must match", ErrComputeInit)
	}

	p := &SimulationPass{
		Device:    device,
		Queue:     device.GetQueue(),
		width:     state.Width,
		readIndex: state.ReadIndex(),
	}
	if err := p.init(state, spawn); err != nil {
		p.Release()
		return nil, fmt.Errorf("%w: %v", ErrComputeInit, err)
	}
	return p, nil
}

func (p *SimulationPass) init(state *core.ParticleState, spawn *core.SpawnField) error {
	shaderModule, err := p.Device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "WakeSimulateShader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.SimulateWGSL},
	})
	if err != nil {
		return fmt.Errorf("failed to create simulate shader module: %w", err)
	}
	defer shaderModule.Release()

	storage := func(binding uint32, readOnly bool) wgpu.BindGroupLayoutEntry {
		t := wgpu.BufferBindingTypeStorage
		if readOnly {
			t = wgpu.BufferBindingTypeReadOnlyStorage
		}
		return wgpu.BindGroupLayoutEntry{
			Binding:    binding,
			Visibility: wgpu.ShaderStageCompute,
			Buffer:     wgpu.BufferBindingLayout{Type: t},
		}
	}
	p.layout, err = p.Device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "WakeSimulateBGL",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageCompute,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: SimUniformsSize,
				},
			},
			storage(1, true),
			storage(2, true),
			storage(3, true),
			storage(4, false),
			storage(5, false),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create simulate bind group layout: %w", err)
	}

	p.pipeLay, err = p.Device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "WakeSimulateLayout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{p.layout},
	})
	if err != nil {
		return fmt.Errorf("failed to create simulate pipeline layout: %w", err)
	}

	p.Pipeline, err = p.Device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  "WakeSimulatePipeline",
		Layout: p.pipeLay,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     shaderModule,
			EntryPoint: shaders.SimulateEntry,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create simulate pipeline: %w", err)
	}

	p.UniformBuf, err = p.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "WakeSimUniforms",
		Size:  SimUniformsSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("failed to create uniform buffer: %w", err)
	}

	p.SpawnBuf, err = p.Device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "WakeSpawnField",
		Contents: Vec4Bytes(spawn.Texels),
		Usage:    wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("failed to create spawn buffer: %w", err)
	}
	spawn.TakeDirty()

	grids := [2][2][]byte{
		{Vec4Bytes(state.Front), Vec4Bytes(state.FrontVel)},
		{Vec4Bytes(state.Back), Vec4Bytes(state.BackVel)},
	}
	usage := wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst
	for i := 0; i < 2; i++ {
		p.StateBufs[i], err = p.Device.CreateBufferInit(&wgpu.BufferInitDescriptor{
			Label:    fmt.Sprintf("WakeState%d", i),
			Contents: grids[i][0],
			Usage:    usage,
		})
		if err != nil {
			return fmt.Errorf("failed to create state buffer %d: %w", i, err)
		}
		p.VelBufs[i], err = p.Device.CreateBufferInit(&wgpu.BufferInitDescriptor{
			Label:    fmt.Sprintf("WakeVelocity%d", i),
			Contents: grids[i][1],
			Usage:    usage,
		})
		if err != nil {
			return fmt.Errorf("failed to create velocity buffer %d: %w", i, err)
		}
	}

	for i := 0; i < 2; i++ {
		in, out := i, 1-i
		p.BindGroups[i], err = p.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  fmt.Sprintf("WakeSimulateBG%d", i),
			Layout: p.layout,
			Entries: []wgpu.BindGroupEntry{
				{Binding: 0, Buffer: p.UniformBuf, Size: wgpu.WholeSize},
				{Binding: 1, Buffer: p.SpawnBuf, Size: wgpu.WholeSize},
				{Binding: 2, Buffer: p.StateBufs[in], Size: wgpu.WholeSize},
				{Binding: 3, Buffer: p.VelBufs[in], Size: wgpu.WholeSize},
				{Binding: 4, Buffer: p.StateBufs[out], Size: wgpu.WholeSize},
				{Binding: 5, Buffer: p.VelBufs[out], Size: wgpu.WholeSize},
			},
		})
		if err != nil {
			return fmt.Errorf("failed to create simulate bind group %d: %w", i, err)
		}
	}
	return nil
}

// Step uploads the spawn field if it changed, writes the uniforms and
// dispatches one workgroup per 64 particles. The read index toggles only
// after the command buffer was submitted.
func (p *SimulationPass) Step(u core.Uniforms, spawn *core.SpawnField) error {
	if p.released {
		return nil
	}
	if spawn == nil || spawn.Count() != p.Count() {
		return fmt.Errorf("spawn field does not match %d particles", p.Count())
	}
	if u.TrailAxis.Len() < 1e-6 {
		u.TrailAxis = core.DefaultTrailAxis
	}

	if spawn.TakeDirty() {
		p.Queue.WriteBuffer(p.SpawnBuf, 0, Vec4Bytes(spawn.Texels))
	}
	uniforms := NewSimUniforms(u, p.width)
	p.Queue.WriteBuffer(p.UniformBuf, 0, uniforms.Marshal())

	encoder, err := p.Device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("failed to create simulate encoder: %w", err)
	}
	computePass := encoder.BeginComputePass(nil)
	computePass.SetPipeline(p.Pipeline)
	computePass.SetBindGroup(0, p.BindGroups[p.readIndex], nil)
	workgroups := (uint32(p.Count()) + shaders.WorkgroupSize - 1) / shaders.WorkgroupSize
	computePass.DispatchWorkgroups(workgroups, 1, 1)
	computePass.End()

	cmdBuf, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("failed to finish simulate commands: %w", err)
	}
	p.Queue.Submit(cmdBuf)
	p.readIndex ^= 1
	return nil
}

func (p *SimulationPass) Count() int { return p.width * p.width }

func (p *SimulationPass) ReadIndex() int { return p.readIndex }

// CurrentState is the buffer holding the latest positions and life.
func (p *SimulationPass) CurrentState() *wgpu.Buffer {
	return p.StateBufs[p.readIndex]
}

// ReadState copies the current position grid back to the host. It blocks
// until the GPU is done and is meant for debugging and tests.
func (p *SimulationPass) ReadState(dst []mgl32.Vec4) error {
	if p.released {
		return fmt.Errorf("simulation pass released")
	}
	size := uint64(p.Count() * vec4Size)
	staging, err := p.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "WakeStateReadback",
		Size:  size,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("failed to create readback buffer: %w", err)
	}
	defer staging.Release()

	encoder, err := p.Device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("failed to create readback encoder: %w", err)
	}
	encoder.CopyBufferToBuffer(p.CurrentState(), 0, staging, 0, size)
	cmdBuf, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("failed to finish readback commands: %w", err)
	}
	p.Queue.Submit(cmdBuf)

	var (
		mu     sync.Mutex
		status wgpu.BufferMapAsyncStatus
		done   bool
	)
	staging.MapAsync(wgpu.MapModeRead, 0, size, func(s wgpu.BufferMapAsyncStatus) {
		mu.Lock()
		defer mu.Unlock()
		status, done = s, true
	})
	for {
		p.Device.Poll(true, nil)
		mu.Lock()
		finished := done
		mu.Unlock()
		if finished {
			break
		}
	}
	if status != wgpu.BufferMapAsyncStatusSuccess {
		return fmt.Errorf("failed to map readback buffer: status %v", status)
	}
	BytesToVec4(staging.GetMappedRange(0, uint(size)), dst)
	staging.Unmap()
	return nil
}

// Release frees every GPU object. Safe to call more than once and on a
// partially built pass.
func (p *SimulationPass) Release() {
	if p.released {
		return
	}
	p.released = true
	for i := 0; i < 2; i++ {
		if p.BindGroups[i] != nil {
			p.BindGroups[i].Release()
			p.BindGroups[i] = nil
		}
		if p.StateBufs[i] != nil {
			p.StateBufs[i].Release()
			p.StateBufs[i] = nil
		}
		if p.VelBufs[i] != nil {
			p.VelBufs[i].Release()
			p.VelBufs[i] = nil
		}
	}
	if p.SpawnBuf != nil {
		p.SpawnBuf.Release()
		p.SpawnBuf = nil
	}
	if p.UniformBuf != nil {
		p.UniformBuf.Release()
		p.UniformBuf = nil
	}
	if p.Pipeline != nil {
		p.Pipeline.Release()
		p.Pipeline = nil
	}
	if p.pipeLay != nil {
		p.pipeLay.Release()
		p.pipeLay = nil
	}
	if p.layout != nil {
		p.layout.Release()
		p.layout = nil
	}
}
