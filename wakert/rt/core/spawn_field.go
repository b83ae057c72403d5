package core

import (
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	FallbackDiscRadius float32 = 1.0
	fallbackDrop       float32 = -0.1
	fallbackBehind     float32 = 0.5
)

// SpawnField is the square grid of spawn positions the simulator reads on
// respawn. xyz is the position, w the source vertex index (1 for the
// fallback disc). Width never changes after construction.
type SpawnField struct {
	Width  int
	Texels []mgl32.Vec4

	// Relative marks texels stored in actor-local space.
	Relative bool

	dirty bool
}

func NewSpawnField(width int) *SpawnField {
	if width < 1 {
		width = 1
	}
	return &SpawnField{
		Width:  width,
		Texels: make([]mgl32.Vec4, width*width),
	}
}

func (f *SpawnField) Count() int {
	return len(f.Texels)
}

// FillFromSamples writes rest-pose sample positions into the grid, cycling
// through samples when there are fewer samples than texels.
func (f *SpawnField) FillFromSamples(samples []SampleRecord) {
	if len(samples) == 0 {
		return
	}
	for i := range f.Texels {
		s := samples[i%len(samples)]
		f.Texels[i] = s.Position.Vec4(float32(s.VertexIndex))
	}
	f.Relative = false
	f.MarkDirty()
}

// FillFallbackDisc scatters actor-relative spawn points uniformly over a disc
// perpendicular to the trail axis (-Z), slightly below and behind the actor.
func (f *SpawnField) FillFallbackDisc(rng *rand.Rand) {
	for i := range f.Texels {
		r := FallbackDiscRadius * float32(math.Sqrt(rng.Float64()))
		theta := rng.Float64() * 2 * math.Pi
		x := r * float32(math.Cos(theta))
		y := r*float32(math.Sin(theta)) + fallbackDrop
		z := -fallbackBehind * rng.Float32()
		f.Texels[i] = mgl32.Vec4{x, y, z, 1}
	}
	f.Relative = true
	f.MarkDirty()
}

func (f *SpawnField) MarkDirty() {
	f.dirty = true
}

func (f *SpawnField) Dirty() bool {
	return f.dirty
}

// TakeDirty reports whether the field changed since the last upload and
// clears the flag.
func (f *SpawnField) TakeDirty() bool {
	d := f.dirty
	f.dirty = false
	return d
}
