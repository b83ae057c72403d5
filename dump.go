package wake

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"os"

	"github.com/gekko3d/wake/wakert/rt/core"
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/image/bmp"
)

// TexelImage renders a square texel grid as an image: xyz normalised over
// the grid's bounding box into RGB, w (clamped to [0,1]) into alpha when
// alphaFromW is set.
func TexelImage(texels []mgl32.Vec4, width int, alphaFromW bool) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, width))
	if len(texels) == 0 {
		return img
	}
	lo, hi := texels[0].Vec3(), texels[0].Vec3()
	for _, t := range texels {
		for k := 0; k < 3; k++ {
			lo[k] = min(lo[k], t[k])
			hi[k] = max(hi[k], t[k])
		}
	}
	channel := func(v float32, k int) uint8 {
		extent := hi[k] - lo[k]
		if extent <= 0 {
			return 0
		}
		return uint8(mgl32.Clamp((v-lo[k])/extent, 0, 1)*255 + 0.5)
	}
	for i, t := range texels {
		if i >= width*width {
			break
		}
		a := uint8(255)
		if alphaFromW {
			a = uint8(mgl32.Clamp(t[3], 0, 1)*255 + 0.5)
		}
		img.SetNRGBA(i%width, i/width, color.NRGBA{
			R: channel(t[0], 0),
			G: channel(t[1], 1),
			B: channel(t[2], 2),
			A: a,
		})
	}
	return img
}

// DumpState writes the current position and life grid as a BMP.
func DumpState(w io.Writer, state *core.ParticleState) error {
	if state == nil {
		return fmt.Errorf("no particle state")
	}
	pos, _ := state.Read()
	return bmp.Encode(w, TexelImage(pos, state.Width, true))
}

// DumpSpawnField writes the spawn grid as an opaque BMP.
func DumpSpawnField(w io.Writer, field *core.SpawnField) error {
	if field == nil {
		return fmt.Errorf("no spawn field")
	}
	return bmp.Encode(w, TexelImage(field.Texels, field.Width, false))
}

// RenderPreview splats the wake on the CPU the way points.wgsl draws it:
// one additive soft sprite per particle, sized and coloured by life. The
// image has the camera's viewport size on a black background.
func RenderPreview(e *WakeEffect, cam *Camera) *image.NRGBA {
	w, h := cam.Width, cam.Height
	img := image.NewNRGBA(image.Rect(0, 0, max(w, 0), max(h, 0)))
	if w <= 0 || h <= 0 || e.PointSet() == nil {
		return img
	}

	p := e.Params().Load()
	view := cam.View()
	viewProj := cam.Projection().Mul4(view)
	pos, _ := e.State().Read()
	width := e.State().Width
	accum := make([]mgl32.Vec3, w*h)

	for _, uv := range e.PointSet().UVs {
		i := core.UVToIndex(uv, width)
		if i < 0 || i >= len(pos) {
			continue
		}
		texel := pos[i]
		life := mgl32.Clamp(texel[3], 0, 1)
		depth := -core.TransformPoint(view, texel.Vec3()).Z()
		if depth <= cam.Near {
			continue
		}
		clip := viewProj.Mul4x1(texel.Vec3().Vec4(1))
		cx := (clip.X()/clip.W()*0.5 + 0.5) * float32(w)
		cy := (0.5 - clip.Y()/clip.W()*0.5) * float32(h)
		radius := core.PointSize(p.ParticleSize, cam.PixelRatio, depth, life) / 2
		if radius <= 0 {
			continue
		}

		c := core.LifeColor(p, life)
		rgb := mgl32.Vec3{float32(c.R), float32(c.G), float32(c.B)}.Mul(core.PointAlpha(life))
		x0, x1 := int(cx-radius), int(cx+radius)+1
		y0, y1 := int(cy-radius), int(cy+radius)+1
		for y := max(y0, 0); y < min(y1, h); y++ {
			for x := max(x0, 0); x < min(x1, w); x++ {
				d := mgl32.Vec2{float32(x) + 0.5 - cx, float32(y) + 0.5 - cy}.Len() / radius
				if soft := core.SpriteFalloff(d); soft > 0 {
					accum[y*w+x] = accum[y*w+x].Add(rgb.Mul(soft))
				}
			}
		}
	}

	for i, v := range accum {
		img.SetNRGBA(i%w, i/w, color.NRGBA{
			R: uint8(mgl32.Clamp(v[0], 0, 1)*255 + 0.5),
			G: uint8(mgl32.Clamp(v[1], 0, 1)*255 + 0.5),
			B: uint8(mgl32.Clamp(v[2], 0, 1)*255 + 0.5),
			A: 255,
		})
	}
	return img
}

// DumpPreviewFile reads the effect's state back if needed and writes a CPU
// rendered preview seen from cam to path.
func DumpPreviewFile(path string, e *WakeEffect, cam *Camera) error {
	if err := e.ReadState(); err != nil {
		return fmt.Errorf("reading wake state: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := bmp.Encode(f, RenderPreview(e, cam)); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// DumpStateFile reads the effect's state back if needed and writes it to
// path.
func DumpStateFile(path string, e *WakeEffect) error {
	if err := e.ReadState(); err != nil {
		return fmt.Errorf("reading wake state: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := DumpState(f, e.State()); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
