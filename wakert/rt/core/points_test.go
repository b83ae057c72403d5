package core

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestParticleUVsRoundTrip(t *testing.T) {
	const width = 7
	uvs := ParticleUVs(width)
	assert.Equal(t, mgl32.Vec2{0, 0}, uvs[0])
	assert.Equal(t, mgl32.Vec2{1.0 / 7, 0}, uvs[1])
	assert.Equal(t, mgl32.Vec2{0, 1.0 / 7}, uvs[width])
	for i, uv := range uvs {
		assert.Equal(t, i, UVToIndex(uv, width))
	}
}

func TestLifeColorGradient(t *testing.T) {
	p := DefaultParams()
	assert.Equal(t, p.ColorFresh.Hex(), LifeColor(p, 0).Hex())
	assert.Equal(t, p.ColorMid.Hex(), LifeColor(p, 0.5).Hex())
	assert.Equal(t, p.ColorOld.Hex(), LifeColor(p, 1).Hex())
	assert.Equal(t, p.ColorOld.Hex(), LifeColor(p, 3).Hex())
}

func TestPointSize(t *testing.T) {
	near := PointSize(15, 1, 2, 0)
	far := PointSize(15, 1, 8, 0)
	assert.InDelta(t, 7.5, near, 1e-5)
	assert.Less(t, far, near)

	assert.Equal(t, PointSize(15, 2, 4, 0), PointSize(15, 3, 4, 0), "pixel ratio capped at 2")
	assert.InDelta(t, 15*0.35/4, PointSize(15, 1, 4, 1), 1e-5)
	assert.Equal(t, float32(1), ClampPixelRatio(0))
}

func TestPointAlpha(t *testing.T) {
	assert.Equal(t, float32(0), PointAlpha(0))
	assert.Equal(t, float32(1), PointAlpha(0.4))
	assert.Equal(t, float32(0), PointAlpha(1))
}

func TestPixelRatioBelowOneShrinksSprites(t *testing.T) {
	assert.Equal(t, float32(0.5), ClampPixelRatio(0.5))
	assert.InDelta(t, PointSize(15, 1, 4, 0)/2, PointSize(15, 0.5, 4, 0), 1e-5)
}

func TestSpriteFalloff(t *testing.T) {
	assert.Equal(t, float32(1), SpriteFalloff(0))
	assert.Equal(t, float32(1), SpriteFalloff(0.4))
	assert.Equal(t, float32(0), SpriteFalloff(1))
	assert.Equal(t, float32(0), SpriteFalloff(1.5))
	assert.Greater(t, SpriteFalloff(0.6), SpriteFalloff(0.8))
}
