package wake

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/gekko3d/wake/wakert/rt/core"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func TestTexelImage(t *testing.T) {
	texels := []mgl32.Vec4{
		{0, 0, 0, 0},
		{1, 0, 0, 0.5},
		{0, 1, 0, 1},
		{1, 1, 2, 2},
	}
	img := TexelImage(texels, 2, true)
	assert.Equal(t, 2, img.Bounds().Dx())

	c := img.NRGBAAt(1, 0)
	assert.Equal(t, uint8(255), c.R)
	assert.Equal(t, uint8(0), c.G)
	assert.Equal(t, uint8(128), c.A)

	c = img.NRGBAAt(1, 1)
	assert.Equal(t, uint8(255), c.B)
	assert.Equal(t, uint8(255), c.A, "life above 1 saturates")

	opaque := TexelImage(texels, 2, false)
	assert.Equal(t, uint8(255), opaque.NRGBAAt(0, 0).A)
}

func TestDumpStateDecodes(t *testing.T) {
	e := NewWakeEffect(newStaticActor(), nil, nil, EffectOptions{Width: 5})

	var buf bytes.Buffer
	require.NoError(t, DumpState(&buf, e.State()))
	img, err := bmp.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 5, img.Bounds().Dx())
	assert.Equal(t, 5, img.Bounds().Dy())

	buf.Reset()
	require.NoError(t, DumpSpawnField(&buf, e.SpawnField()))
	assert.NotZero(t, buf.Len())

	assert.Error(t, DumpState(&buf, nil))
	assert.Error(t, DumpSpawnField(&buf, (*core.SpawnField)(nil)))
}

func TestDumpStateFile(t *testing.T) {
	e := NewWakeEffect(newStaticActor(), nil, nil, EffectOptions{Width: 3})
	path := filepath.Join(t.TempDir(), "state.bmp")
	assert.NoError(t, DumpStateFile(path, e))

	e.sim = noopSimulator{}
	assert.Error(t, DumpStateFile(path, e))
}

func litPixels(img *image.NRGBA) int {
	n := 0
	for i := 0; i < len(img.Pix); i += 4 {
		if img.Pix[i]|img.Pix[i+1]|img.Pix[i+2] != 0 {
			n++
		}
	}
	return n
}

func TestRenderPreviewMatchesSpriteRules(t *testing.T) {
	e := NewWakeEffect(newStaticActor(), nil, nil, EffectOptions{Width: 1})
	e.Params().Update(func(p *core.Params) { p.ParticleSize = 300 })
	pos, _ := e.State().Read()
	pos[0] = mgl32.Vec4{0, 0, 0, 0.4}

	cam := NewCamera(64, 64)
	img := RenderPreview(e, cam)
	require.Equal(t, 64, img.Bounds().Dx())

	want := core.LifeColor(e.Params().Load(), 0.4)
	centre := img.NRGBAAt(32, 32)
	assert.InDelta(t, want.R*255, float64(centre.R), 2)
	assert.InDelta(t, want.G*255, float64(centre.G), 2)
	assert.InDelta(t, want.B*255, float64(centre.B), 2)
	assert.Equal(t, color.NRGBA{A: 255}, img.NRGBAAt(0, 0))

	full := litPixels(img)
	cam.PixelRatio = 0.5
	half := litPixels(RenderPreview(e, cam))
	assert.Greater(t, half, 0)
	assert.Less(t, half, full/2, "pixel ratios below 1 shrink sprites")

	cam.PixelRatio = 4
	assert.Equal(t, litPixels(RenderPreview(e, &Camera{
		Distance: cam.Distance, Yaw: cam.Yaw, Pitch: cam.Pitch, Fov: cam.Fov,
		Near: cam.Near, Far: cam.Far, Width: 64, Height: 64, PixelRatio: 2,
	})), litPixels(RenderPreview(e, cam)), "pixel ratio capped at 2")
}

func TestRenderPreviewSkipsParticlesBehindCamera(t *testing.T) {
	e := NewWakeEffect(newStaticActor(), nil, nil, EffectOptions{Width: 1})
	cam := NewCamera(32, 32)
	pos, _ := e.State().Read()
	behind := cam.Position().Add(cam.Position().Sub(cam.Target))
	pos[0] = behind.Vec4(0.4)

	assert.Zero(t, litPixels(RenderPreview(e, cam)))
}

func TestDumpPreviewFile(t *testing.T) {
	e := NewWakeEffect(newStaticActor(), nil, nil, EffectOptions{Width: 4})
	path := filepath.Join(t.TempDir(), "preview.bmp")
	require.NoError(t, DumpPreviewFile(path, e, NewCamera(16, 8)))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := bmp.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 16, img.Bounds().Dx())
	assert.Equal(t, 8, img.Bounds().Dy())
}
