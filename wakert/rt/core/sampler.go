package core

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	// WeightFloor keeps every vertex at a nonzero sampling probability.
	WeightFloor float32 = 0.1
	// WeightAttribute is the auxiliary per-vertex attribute the sampler reads.
	WeightAttribute = "weight"
)

var ErrDegenerateGeometry = errors.New("geometry has no sampleable surface")

// SampleRecord binds one surface sample to its nearest source vertex.
type SampleRecord struct {
	Position    mgl32.Vec3
	Normal      mgl32.Vec3
	VertexIndex int
	Offset      mgl32.Vec3
}

// TailWeight favours the low end of the axis: (1-n)^2 + floor.
func TailWeight(normalized, floor float32) float32 {
	d := 1 - normalized
	return d*d + floor
}

// AxisWeights maps each vertex coordinate on axis into [0,1] using the
// mesh extent and applies TailWeight. A flat extent maps everything to 0.
func AxisWeights(positions []mgl32.Vec3, axis int, floor float32) []float32 {
	weights := make([]float32, len(positions))
	if len(positions) == 0 {
		return weights
	}
	lo, hi := (&Geometry{Positions: positions}).Bounds()
	extent := hi[axis] - lo[axis]
	for i, p := range positions {
		var n float32
		if extent > 0 {
			n = (p[axis] - lo[axis]) / extent
		}
		weights[i] = TailWeight(n, floor)
	}
	return weights
}

// WeightedSampler draws surface points with probability proportional to
// triangle area times the mean weight of its vertices.
type WeightedSampler struct {
	geometry   *Geometry
	cumulative []float64
	total      float64
}

func NewWeightedSampler(g *Geometry, weights []float32) (*WeightedSampler, error) {
	if g == nil || g.TriangleCount() == 0 {
		return nil, ErrDegenerateGeometry
	}
	if weights != nil && len(weights) != g.VertexCount() {
		return nil, fmt.Errorf("weights: got %d values for %d vertices", len(weights), g.VertexCount())
	}

	s := &WeightedSampler{
		geometry:   g,
		cumulative: make([]float64, g.TriangleCount()),
	}
	for t := 0; t < g.TriangleCount(); t++ {
		a, b, c := g.Triangle(t)
		pa, pb, pc := g.Positions[a], g.Positions[b], g.Positions[c]
		area := float64(pb.Sub(pa).Cross(pc.Sub(pa)).Len()) * 0.5
		if weights != nil {
			area *= float64(weights[a]+weights[b]+weights[c]) / 3
		}
		s.total += area
		s.cumulative[t] = s.total
	}
	if s.total <= 0 {
		return nil, ErrDegenerateGeometry
	}
	return s, nil
}

// Sample returns a uniformly distributed point on a weighted-chosen
// triangle together with that triangle's face normal.
func (s *WeightedSampler) Sample(rng *rand.Rand) (position, normal mgl32.Vec3) {
	target := rng.Float64() * s.total
	t := sort.Search(len(s.cumulative), func(i int) bool { return s.cumulative[i] > target })
	if t >= len(s.cumulative) {
		t = len(s.cumulative) - 1
	}

	a, b, c := s.geometry.Triangle(t)
	pa, pb, pc := s.geometry.Positions[a], s.geometry.Positions[b], s.geometry.Positions[c]

	u, v := rng.Float32(), rng.Float32()
	if u+v > 1 {
		u, v = 1-u, 1-v
	}
	position = pa.Add(pb.Sub(pa).Mul(u)).Add(pc.Sub(pa).Mul(v))

	normal = pb.Sub(pa).Cross(pc.Sub(pa))
	if normal.Len() > 0 {
		normal = normal.Normalize()
	}
	return position, normal
}

type pointSampler interface {
	Sample(rng *rand.Rand) (position, normal mgl32.Vec3)
}

// vertexSampler picks vertices directly, proportional to their weight.
type vertexSampler struct {
	geometry   *Geometry
	cumulative []float64
	total      float64
}

func newVertexSampler(g *Geometry, weights []float32) *vertexSampler {
	s := &vertexSampler{geometry: g, cumulative: make([]float64, len(weights))}
	for i, w := range weights {
		s.total += float64(w)
		s.cumulative[i] = s.total
	}
	return s
}

func (s *vertexSampler) Sample(rng *rand.Rand) (position, normal mgl32.Vec3) {
	target := rng.Float64() * s.total
	v := sort.Search(len(s.cumulative), func(i int) bool { return s.cumulative[i] > target })
	if v >= len(s.cumulative) {
		v = len(s.cumulative) - 1
	}
	position = s.geometry.Positions[v]
	if v < len(s.geometry.Normals) {
		normal = s.geometry.Normals[v]
	}
	return position, normal
}

// NearestVertex returns the index of the vertex closest to p. Ties keep the
// first minimum so bindings are reproducible.
func NearestVertex(positions []mgl32.Vec3, p mgl32.Vec3) int {
	closest := 0
	best := float32(math.Inf(1))
	for v, q := range positions {
		d := q.Sub(p)
		dist := d.Dot(d)
		if dist < best {
			best = dist
			closest = v
		}
	}
	return closest
}

// SampleSurface weights the mesh toward its low-Z end, stores the weights
// on the geometry and draws exactly n bound samples.
func SampleSurface(mesh SkinnedMesh, n int, rng *rand.Rand) ([]SampleRecord, error) {
	if mesh == nil {
		return nil, ErrNoSkinnedMesh
	}
	g := mesh.Geometry()
	if g == nil || g.VertexCount() == 0 {
		return nil, ErrDegenerateGeometry
	}

	weights := AxisWeights(g.Positions, 2, WeightFloor)
	g.SetAttribute(WeightAttribute, weights)

	var sampler pointSampler
	ws, err := NewWeightedSampler(g, weights)
	switch {
	case err == nil:
		sampler = ws
	case errors.Is(err, ErrDegenerateGeometry):
		// no usable triangles: fall back to the weighted vertex cloud
		sampler = newVertexSampler(g, weights)
	default:
		return nil, fmt.Errorf("sampling %s: %w", mesh.Name(), err)
	}

	samples := make([]SampleRecord, n)
	for i := range samples {
		p, normal := sampler.Sample(rng)
		idx := NearestVertex(g.Positions, p)
		samples[i] = SampleRecord{
			Position:    p,
			Normal:      normal,
			VertexIndex: idx,
			Offset:      p.Sub(g.Positions[idx]),
		}
	}
	return samples, nil
}
