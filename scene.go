package wake

import (
	"slices"

	"github.com/cogentcore/webgpu/wgpu"
)

// Drawable is anything the render system can draw into the main pass.
type Drawable interface {
	// FrustumCulled reports whether the renderer may skip the drawable as a
	// whole when its bounds are off screen.
	FrustumCulled() bool
	// Prepare uploads per-frame data before the render pass opens.
	Prepare(queue *wgpu.Queue, cam *Camera, t *Time)
	Encode(pass *wgpu.RenderPassEncoder)
}

// Scene is where effects register their drawables.
type Scene interface {
	Add(d Drawable)
	Remove(d Drawable)
}

// RenderList is an ordered Scene.
type RenderList struct {
	items []Drawable
}

var _ Scene = (*RenderList)(nil)

func (l *RenderList) Add(d Drawable) {
	if d == nil || slices.Contains(l.items, d) {
		return
	}
	l.items = append(l.items, d)
}

func (l *RenderList) Remove(d Drawable) {
	if i := slices.Index(l.items, d); i >= 0 {
		l.items = slices.Delete(l.items, i, i+1)
	}
}

func (l *RenderList) Len() int { return len(l.items) }

func (l *RenderList) Contains(d Drawable) bool {
	return slices.Contains(l.items, d)
}

func (l *RenderList) Each(fn func(Drawable)) {
	for _, d := range l.items {
		fn(d)
	}
}
