package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"
)

const (
	MaxPixelRatio float32 = 2
	// point sprites shrink to this fraction of their base size at end of life
	agedSizeFactor float32 = 0.35
)

// ParticleUVs returns the grid coordinate of every particle, row major.
func ParticleUVs(width int) []mgl32.Vec2 {
	uvs := make([]mgl32.Vec2, width*width)
	w := float32(width)
	for i := range uvs {
		uvs[i] = mgl32.Vec2{float32(i%width) / w, float32(i/width) / w}
	}
	return uvs
}

// UVToIndex inverts ParticleUVs.
func UVToIndex(uv mgl32.Vec2, width int) int {
	x := int(math.Round(float64(uv[0] * float32(width))))
	y := int(math.Round(float64(uv[1] * float32(width))))
	return y*width + x
}

// LifeColor grades fresh to mid over the first half of life and mid to old
// over the second.
func LifeColor(p Params, life float32) colorful.Color {
	life = mgl32.Clamp(life, 0, 1)
	if life < 0.5 {
		return p.ColorFresh.BlendRgb(p.ColorMid, float64(life*2))
	}
	return p.ColorMid.BlendRgb(p.ColorOld, float64((life-0.5)*2))
}

// ClampPixelRatio caps r at MaxPixelRatio. A missing ratio counts as 1;
// ratios below 1 are kept so low density displays get smaller sprites.
func ClampPixelRatio(r float32) float32 {
	if r <= 0 {
		return 1
	}
	if r > MaxPixelRatio {
		return MaxPixelRatio
	}
	return r
}

// PointSize is the on-screen diameter in pixels for a particle at the given
// view depth.
func PointSize(base, pixelRatio, depth, life float32) float32 {
	if depth < 1e-3 {
		depth = 1e-3
	}
	life = mgl32.Clamp(life, 0, 1)
	fade := 1 + (agedSizeFactor-1)*life
	return base * ClampPixelRatio(pixelRatio) / depth * fade
}

// PointAlpha fades particles in right after spawn and out towards the end.
func PointAlpha(life float32) float32 {
	life = mgl32.Clamp(life, 0, 1)
	in := smoothstep(0, 0.08, life)
	out := 1 - smoothstep(0.7, 1, life)
	return in * out
}

// SpriteFalloff is the soft edge of a sprite at normalised distance d from
// its centre, zero outside the unit disc.
func SpriteFalloff(d float32) float32 {
	if d > 1 {
		return 0
	}
	return 1 - smoothstep(0.4, 1, d)
}

func smoothstep(e0, e1, x float32) float32 {
	t := mgl32.Clamp((x-e0)/(e1-e0), 0, 1)
	return t * t * (3 - 2*t)
}
