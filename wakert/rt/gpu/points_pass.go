package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/wake/wakert/rt/shaders"
	"github.com/go-gl/mathgl/mgl32"
)

// PointSpritePass draws one soft additive quad per particle, reading
// positions straight from the simulation state buffers.
type PointSpritePass struct {
	Device *wgpu.Device

	Pipeline   *wgpu.RenderPipeline
	layout     *wgpu.BindGroupLayout
	pipeLay    *wgpu.PipelineLayout
	UniformBuf *wgpu.Buffer
	UVBuf      *wgpu.Buffer
	BindGroups [2]*wgpu.BindGroup

	instances uint32
	released  bool
}

// BlendAdditive is src*alpha + dst.
var BlendAdditive = wgpu.BlendState{
	Color: wgpu.BlendComponent{
		Operation: wgpu.BlendOperationAdd,
		SrcFactor: wgpu.BlendFactorSrcAlpha,
		DstFactor: wgpu.BlendFactorOne,
	},
	Alpha: wgpu.BlendComponent{
		Operation: wgpu.BlendOperationAdd,
		SrcFactor: wgpu.BlendFactorOne,
		DstFactor: wgpu.BlendFactorOne,
	},
}

// NewPointSpritePass builds the pipeline against both state buffers.
// depthFormat may be TextureFormatUndefined when the target pass has no
// depth attachment; otherwise depth is tested but never written.
func NewPointSpritePass(device *wgpu.Device, colorFormat, depthFormat wgpu.TextureFormat, uvs []mgl32.Vec2, stateBufs [2]*wgpu.Buffer) (*PointSpritePass, error) {
	if len(uvs) == 0 {
		return nil, fmt.Errorf("point sprite pass needs at least one particle")
	}
	p := &PointSpritePass{Device: device, instances: uint32(len(uvs))}
	if err := p.init(colorFormat, depthFormat, uvs, stateBufs); err != nil {
		p.Release()
		return nil, err
	}
	return p, nil
}

func (p *PointSpritePass) init(colorFormat, depthFormat wgpu.TextureFormat, uvs []mgl32.Vec2, stateBufs [2]*wgpu.Buffer) error {
	shaderModule, err := p.Device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "WakePointsShader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.PointsWGSL},
	})
	if err != nil {
		return fmt.Errorf("failed to create points shader module: %w", err)
	}
	defer shaderModule.Release()

	p.layout, err = p.Device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "WakePointsBGL",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: PointUniformsSize,
				},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageVertex,
				Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeReadOnlyStorage},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create points bind group layout: %w", err)
	}

	p.pipeLay, err = p.Device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "WakePointsLayout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{p.layout},
	})
	if err != nil {
		return fmt.Errorf("failed to create points pipeline layout: %w", err)
	}

	var depth *wgpu.DepthStencilState
	if depthFormat != wgpu.TextureFormatUndefined {
		depth = &wgpu.DepthStencilState{
			Format:            depthFormat,
			DepthWriteEnabled: false,
			DepthCompare:      wgpu.CompareFunctionLessEqual,
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		}
	}

	blend := BlendAdditive
	p.Pipeline, err = p.Device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "WakePointsPipeline",
		Layout: p.pipeLay,
		Vertex: wgpu.VertexState{
			Module:     shaderModule,
			EntryPoint: shaders.PointsVertex,
			Buffers: []wgpu.VertexBufferLayout{
				{
					ArrayStride: 8,
					StepMode:    wgpu.VertexStepModeInstance,
					Attributes: []wgpu.VertexAttribute{
						{Format: wgpu.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
					},
				},
			},
		},
		Fragment: &wgpu.FragmentState{
			Module:     shaderModule,
			EntryPoint: shaders.PointsFrag,
			Targets: []wgpu.ColorTargetState{
				{
					Format:    colorFormat,
					WriteMask: wgpu.ColorWriteMaskAll,
					Blend:     &blend,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		DepthStencil: depth,
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create points pipeline: %w", err)
	}

	p.UniformBuf, err = p.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "WakePointUniforms",
		Size:  PointUniformsSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("failed to create point uniform buffer: %w", err)
	}

	p.UVBuf, err = p.Device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "WakeParticleUVs",
		Contents: UVBytes(uvs),
		Usage:    wgpu.BufferUsageVertex,
	})
	if err != nil {
		return fmt.Errorf("failed to create particle uv buffer: %w", err)
	}

	for i, buf := range stateBufs {
		if buf == nil {
			return fmt.Errorf("state buffer %d is missing", i)
		}
		p.BindGroups[i], err = p.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  fmt.Sprintf("WakePointsBG%d", i),
			Layout: p.layout,
			Entries: []wgpu.BindGroupEntry{
				{Binding: 0, Buffer: p.UniformBuf, Size: PointUniformsSize},
				{Binding: 1, Buffer: buf, Size: wgpu.WholeSize},
			},
		})
		if err != nil {
			return fmt.Errorf("failed to create points bind group %d: %w", i, err)
		}
	}
	return nil
}

func (p *PointSpritePass) Update(queue *wgpu.Queue, u *PointUniforms) {
	if p.released {
		return
	}
	queue.WriteBuffer(p.UniformBuf, 0, u.Marshal())
}

// Draw records six vertices per particle reading the state buffer selected
// by readIndex.
func (p *PointSpritePass) Draw(pass *wgpu.RenderPassEncoder, readIndex int) {
	if p.released || p.Pipeline == nil {
		return
	}
	pass.SetPipeline(p.Pipeline)
	pass.SetBindGroup(0, p.BindGroups[readIndex&1], nil)
	pass.SetVertexBuffer(0, p.UVBuf, 0, p.UVBuf.GetSize())
	pass.Draw(6, p.instances, 0, 0)
}

func (p *PointSpritePass) Release() {
	if p.released {
		return
	}
	p.released = true
	for i := range p.BindGroups {
		if p.BindGroups[i] != nil {
			p.BindGroups[i].Release()
			p.BindGroups[i] = nil
		}
	}
	if p.UVBuf != nil {
		p.UVBuf.Release()
		p.UVBuf = nil
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
