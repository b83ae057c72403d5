package gpu

import (
	"encoding/binary"
	"math"

	"github.com/gekko3d/wake/wakert/rt/core"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"
)

const (
	SimUniformsSize   = 96
	PointUniformsSize = 208
	vec4Size          = 16
)

// SimUniforms matches SimParams in simulate.wgsl.
type SimUniforms struct {
	Time            float32    // offset  0
	DeltaTime       float32    // offset  4
	BackwardSpeed   float32    // offset  8
	Turbulence      float32    // offset 12
	Spread          float32    // offset 16
	CurlStrength    float32    // offset 20
	SpiralIntensity float32    // offset 24
	Buoyancy        float32    // offset 28
	Drag            float32    // offset 32
	LifeSpan        float32    // offset 36
	NoiseScale      float32    // offset 40
	SpawnRelative   uint32     // offset 44
	Width           uint32     // offset 48
	Count           uint32     // offset 52, 8 bytes padding follow
	ActorPosition   mgl32.Vec3 // offset 64 (vec4)
	TrailAxis       mgl32.Vec3 // offset 80 (vec4)
}

func NewSimUniforms(u core.Uniforms, width int) SimUniforms {
	p := u.Params
	s := SimUniforms{
		Time:            u.Time,
		DeltaTime:       u.DeltaTime,
		BackwardSpeed:   p.BackwardSpeed,
		Turbulence:      p.Turbulence,
		Spread:          p.Spread,
		CurlStrength:    p.CurlStrength,
		SpiralIntensity: p.SpiralIntensity,
		Buoyancy:        p.Buoyancy,
		Drag:            p.Drag,
		LifeSpan:        p.LifeSpan,
		NoiseScale:      p.NoiseScale,
		Width:           uint32(width),
		Count:           uint32(width * width),
		ActorPosition:   u.ActorPosition,
		TrailAxis:       u.TrailAxis,
	}
	if u.SpawnRelative {
		s.SpawnRelative = 1
	}
	return s
}

type writer struct {
	buf []byte
	off int
}

func (w *writer) f32(v float32) {
	binary.LittleEndian.PutUint32(w.buf[w.off:], math.Float32bits(v))
	w.off += 4
}

func (w *writer) u32(v uint32) {
	binary.LittleEndian.PutUint32(w.buf[w.off:], v)
	w.off += 4
}

func (w *writer) vec4(v mgl32.Vec4) {
	for _, c := range v {
		w.f32(c)
	}
}

func (w *writer) mat4(m mgl32.Mat4) {
	// mgl32 is column major like WGSL
	for _, c := range m {
		w.f32(c)
	}
}

// Marshal serializes the uniforms for upload (96 bytes).
func (s *SimUniforms) Marshal() []byte {
	w := &writer{buf: make([]byte, SimUniformsSize)}
	w.f32(s.Time)
	w.f32(s.DeltaTime)
	w.f32(s.BackwardSpeed)
	w.f32(s.Turbulence)
	w.f32(s.Spread)
	w.f32(s.CurlStrength)
	w.f32(s.SpiralIntensity)
	w.f32(s.Buoyancy)
	w.f32(s.Drag)
	w.f32(s.LifeSpan)
	w.f32(s.NoiseScale)
	w.u32(s.SpawnRelative)
	w.u32(s.Width)
	w.u32(s.Count)
	w.off += 8
	w.vec4(s.ActorPosition.Vec4(0))
	w.vec4(s.TrailAxis.Vec4(0))
	return w.buf
}

// PointUniforms matches PointParams in points.wgsl.
type PointUniforms struct {
	ViewProj   mgl32.Mat4 // offset   0
	View       mgl32.Mat4 // offset  64
	ColorFresh mgl32.Vec4 // offset 128
	ColorMid   mgl32.Vec4 // offset 144
	ColorOld   mgl32.Vec4 // offset 160
	Viewport   mgl32.Vec2 // offset 176
	Size       float32    // offset 184
	PixelRatio float32    // offset 188
	Time       float32    // offset 192
	Width      uint32     // offset 196, 8 bytes padding follow
}

func colorVec(c colorful.Color) mgl32.Vec4 {
	return mgl32.Vec4{float32(c.R), float32(c.G), float32(c.B), 1}
}

// NewPointUniforms derives the draw uniforms from a parameter snapshot.
func NewPointUniforms(p core.Params, view, proj mgl32.Mat4, viewport mgl32.Vec2, pixelRatio, time float32, width int) PointUniforms {
	return PointUniforms{
		ViewProj:   proj.Mul4(view),
		View:       view,
		ColorFresh: colorVec(p.ColorFresh),
		ColorMid:   colorVec(p.ColorMid),
		ColorOld:   colorVec(p.ColorOld),
		Viewport:   viewport,
		Size:       p.ParticleSize,
		PixelRatio: core.ClampPixelRatio(pixelRatio),
		Time:       time,
		Width:      uint32(width),
	}
}

// Marshal serializes the uniforms for upload (208 bytes).
func (p *PointUniforms) Marshal() []byte {
	w := &writer{buf: make([]byte, PointUniformsSize)}
	w.mat4(p.ViewProj)
	w.mat4(p.View)
	w.vec4(p.ColorFresh)
	w.vec4(p.ColorMid)
	w.vec4(p.ColorOld)
	w.f32(p.Viewport[0])
	w.f32(p.Viewport[1])
	w.f32(p.Size)
	w.f32(p.PixelRatio)
	w.f32(p.Time)
	w.u32(p.Width)
	return w.buf
}

// Vec4Bytes packs a texel grid for a storage buffer.
func Vec4Bytes(texels []mgl32.Vec4) []byte {
	w := &writer{buf: make([]byte, len(texels)*vec4Size)}
	for _, t := range texels {
		w.vec4(t)
	}
	return w.buf
}

// BytesToVec4 unpacks a storage buffer readback into dst.
func BytesToVec4(data []byte, dst []mgl32.Vec4) {
	n := len(data) / vec4Size
	if n > len(dst) {
		n = len(dst)
	}
	for i := 0; i < n; i++ {
		for k := 0; k < 4; k++ {
			off := i*vec4Size + k*4
			dst[i][k] = math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
		}
	}
}

// UVBytes packs the per-instance particle UVs.
func UVBytes(uvs []mgl32.Vec2) []byte {
	w := &writer{buf: make([]byte, len(uvs)*8)}
	for _, uv := range uvs {
		w.f32(uv[0])
		w.f32(uv[1])
	}
	return w.buf
}
