package core

import (
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleSurfaceCountAndVertexRange(t *testing.T) {
	for _, segments := range []int{1, 4, 16} {
		mesh := newStripMesh(t, segments)
		v := mesh.Geometry().VertexCount()
		for _, n := range []int{1, 7, 250} {
			samples, err := SampleSurface(mesh, n, rand.New(rand.NewSource(int64(n))))
			require.NoError(t, err)
			require.Len(t, samples, n)
			for _, s := range samples {
				assert.GreaterOrEqual(t, s.VertexIndex, 0)
				assert.Less(t, s.VertexIndex, v)
				want := mesh.Geometry().Positions[s.VertexIndex].Add(s.Offset)
				assertVecNear(t, want, s.Position, 1e-5)
			}
		}
	}
}

func TestSampleSurfaceSingleVertex(t *testing.T) {
	g := &Geometry{Positions: []mgl32.Vec3{{1, 2, 3}}}
	skel, err := NewSkeleton([]Bone{{Name: "root", Parent: -1, Local: NewTransform(), InverseBind: mgl32.Ident4()}})
	require.NoError(t, err)
	mesh, err := NewSkinnedMeshNode("dot", g, skel, [][4]int{{0}}, [][4]float32{{1}})
	require.NoError(t, err)

	samples, err := SampleSurface(mesh, 5, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	require.Len(t, samples, 5)
	for _, s := range samples {
		assert.Equal(t, 0, s.VertexIndex)
		assert.Equal(t, mgl32.Vec3{}, s.Offset)
	}
}

func TestSampleSurfaceWithoutMesh(t *testing.T) {
	_, err := SampleSurface(nil, 10, rand.New(rand.NewSource(1)))
	assert.ErrorIs(t, err, ErrNoSkinnedMesh)
}

func TestSampleSurfaceAttachesWeights(t *testing.T) {
	mesh := newStripMesh(t, 4)
	_, err := SampleSurface(mesh, 3, rand.New(rand.NewSource(2)))
	require.NoError(t, err)

	weights, ok := mesh.Geometry().Attribute(WeightAttribute)
	require.True(t, ok)
	assert.Len(t, weights, mesh.Geometry().VertexCount())
}

func TestTailWeightMonotoneAndPositive(t *testing.T) {
	prev := TailWeight(0, WeightFloor)
	for i := 1; i <= 100; i++ {
		w := TailWeight(float32(i)/100, WeightFloor)
		assert.LessOrEqual(t, w, prev)
		assert.Greater(t, w, float32(0))
		prev = w
	}
	assert.InDelta(t, 1.1, TailWeight(0, WeightFloor), 1e-6)
	assert.InDelta(t, 0.1, TailWeight(1, WeightFloor), 1e-6)
}

func TestAxisWeightsFlatExtent(t *testing.T) {
	positions := []mgl32.Vec3{{0, 0, 2}, {1, 0, 2}, {2, 5, 2}}
	for _, w := range AxisWeights(positions, 2, WeightFloor) {
		assert.InDelta(t, 1+WeightFloor, w, 1e-6)
	}
}

func TestAxisWeightsFavourLowEnd(t *testing.T) {
	g := stripGeometry(8)
	weights := AxisWeights(g.Positions, 2, WeightFloor)
	assert.Greater(t, weights[0], weights[len(weights)-1])
}

func TestWeightedSamplerSkipsZeroAreaTriangles(t *testing.T) {
	g := &Geometry{
		Positions: []mgl32.Vec3{
			{0, 0, 0}, {0, 0, 0}, {0, 0, 0},
			{0, 0, 0}, {1, 0, 0}, {0, 1, 0},
		},
	}
	s, err := NewWeightedSampler(g, nil)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 200; i++ {
		p, n := s.Sample(rng)
		assert.GreaterOrEqual(t, p.X(), float32(0))
		assert.GreaterOrEqual(t, p.Y(), float32(0))
		assert.LessOrEqual(t, p.X()+p.Y(), float32(1)+1e-5)
		assertVecNear(t, mgl32.Vec3{0, 0, 1}, n, 1e-6)
	}
}

func TestWeightedSamplerRejectsDegenerate(t *testing.T) {
	_, err := NewWeightedSampler(&Geometry{Positions: []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}}}, nil)
	assert.ErrorIs(t, err, ErrDegenerateGeometry)

	_, err = NewWeightedSampler(&Geometry{}, nil)
	assert.ErrorIs(t, err, ErrDegenerateGeometry)
}

func TestNearestVertexKeepsFirstMinimum(t *testing.T) {
	positions := []mgl32.Vec3{{-1, 0, 0}, {1, 0, 0}, {5, 0, 0}}
	assert.Equal(t, 0, NearestVertex(positions, mgl32.Vec3{0, 0, 0}))
	assert.Equal(t, 1, NearestVertex(positions, mgl32.Vec3{0.5, 0, 0}))
	assert.Equal(t, 2, NearestVertex(positions, mgl32.Vec3{9, 0, 0}))
}

func TestFindSkinnedMesh(t *testing.T) {
	root := NewObject3D("root")
	root.Add(NewObject3D("empty"))
	_, ok := FindSkinnedMesh(root)
	assert.False(t, ok)

	first := newStripMesh(t, 2)
	second := newStripMesh(t, 2)
	group := NewObject3D("group")
	group.Add(first)
	root.Add(group)
	root.Add(second)

	found, ok := FindSkinnedMesh(root)
	require.True(t, ok)
	assert.Same(t, second, found)

	_, ok = FindSkinnedMesh(nil)
	assert.False(t, ok)
}

func TestSampleSurfaceFollowsAreaTimesWeight(t *testing.T) {
	const segments = 8
	mesh := newStripMesh(t, segments)
	g := mesh.Geometry()
	half := float32(segments) / 2

	weights := AxisWeights(g.Positions, 2, WeightFloor)
	var wantLow, wantHigh float64
	for tri := 0; tri < g.TriangleCount(); tri++ {
		a, b, c := g.Triangle(tri)
		pa, pb, pc := g.Positions[a], g.Positions[b], g.Positions[c]
		area := float64(pb.Sub(pa).Cross(pc.Sub(pa)).Len()) / 2
		mass := area * float64(weights[a]+weights[b]+weights[c]) / 3
		if (pa.Z()+pb.Z()+pc.Z())/3 < half {
			wantLow += mass
		} else {
			wantHigh += mass
		}
	}
	want := wantLow / wantHigh
	assert.InDelta(t, 3.7, want, 0.2, "tail half carries most of the mass")

	samples, err := SampleSurface(mesh, 20000, rand.New(rand.NewSource(11)))
	require.NoError(t, err)
	var low, high int
	for _, s := range samples {
		if s.Position.Z() < half {
			low++
		} else {
			high++
		}
	}
	require.NotZero(t, high)
	got := float64(low) / float64(high)
	assert.InEpsilon(t, want, got, 0.06, "low/high ratio %.3f, want %.3f", got, want)
}
