package wake

import (
	"fmt"
	"math"

	"github.com/gekko3d/wake/wakert/rt/core"
	"github.com/go-gl/mathgl/mgl32"
)

type SwimmerOptions struct {
	Length float32
	Radius float32
	Rings  int
	Sides  int
	Bones  int

	// Speed is the swim speed along a circular path of PathRadius.
	// Zero Speed keeps the swimmer in place.
	Speed      float32
	PathRadius float32
	// Amplitude in radians of the tail beat, Frequency in beats per second.
	Amplitude float32
	Frequency float32
}

func DefaultSwimmerOptions() SwimmerOptions {
	return SwimmerOptions{
		Length:     4,
		Radius:     0.45,
		Rings:      24,
		Sides:      12,
		Bones:      6,
		Speed:      2.5,
		PathRadius: 12,
		Amplitude:  0.35,
		Frequency:  1.2,
	}
}

// Swimmer is a procedural dolphin stand-in: a tapered tube along +Z skinned
// to a bone chain running from the head to the tail. It swims forward along
// +Z in its own frame.
type Swimmer struct {
	Options SwimmerOptions

	root *core.Object3D
	Body *core.SkinnedMeshNode
}

var _ Actor = (*Swimmer)(nil)

func NewSwimmer(opts SwimmerOptions) (*Swimmer, error) {
	if opts.Rings < 2 || opts.Sides < 3 || opts.Bones < 2 {
		return nil, fmt.Errorf("swimmer needs at least 2 rings, 3 sides and 2 bones")
	}
	if opts.Length <= 0 || opts.Radius <= 0 {
		return nil, fmt.Errorf("swimmer length and radius must be positive")
	}

	g := tubeGeometry(opts)
	skel, err := boneChain(opts)
	if err != nil {
		return nil, err
	}
	skinIndex, skinWeight := chainWeights(g, opts)

	body, err := core.NewSkinnedMeshNode("dolphin_body", g, skel, skinIndex, skinWeight)
	if err != nil {
		return nil, fmt.Errorf("building swimmer: %w", err)
	}
	root := core.NewObject3D("dolphin")
	root.Add(body)

	s := &Swimmer{Options: opts, root: root, Body: body}
	s.Animate(0)
	return s, nil
}

// bodyProfile is the radius scale along the body, s in [0,1] from tail to
// head: thin flukes, a thick chest and a rounded snout.
func bodyProfile(s float32) float32 {
	r := float32(math.Sin(math.Pi * math.Pow(float64(s), 0.7)))
	return 0.08 + 0.92*r
}

func tubeGeometry(opts SwimmerOptions) *core.Geometry {
	g := &core.Geometry{}
	half := opts.Length / 2
	for ring := 0; ring < opts.Rings; ring++ {
		s := float32(ring) / float32(opts.Rings-1)
		z := -half + s*opts.Length
		r := opts.Radius * bodyProfile(s)
		for side := 0; side < opts.Sides; side++ {
			a := 2 * math.Pi * float64(side) / float64(opts.Sides)
			// slightly flattened sideways
			x := 0.8 * r * float32(math.Cos(a))
			y := r * float32(math.Sin(a))
			g.Positions = append(g.Positions, mgl32.Vec3{x, y, z})
		}
	}
	sides := uint32(opts.Sides)
	for ring := 0; ring < opts.Rings-1; ring++ {
		base := uint32(ring) * sides
		for side := uint32(0); side < sides; side++ {
			next := (side + 1) % sides
			a, b := base+side, base+next
			c, d := a+sides, b+sides
			g.Indices = append(g.Indices, a, c, b, b, c, d)
		}
	}
	g.ComputeNormals()
	return g
}

// boneChain lays bones from the head (bone 0) to the tail.
func boneChain(opts SwimmerOptions) (*core.Skeleton, error) {
	step := opts.Length / float32(opts.Bones-1)
	bones := make([]core.Bone, opts.Bones)
	for i := range bones {
		local := core.NewTransform()
		parent := i - 1
		if i == 0 {
			local.Position = mgl32.Vec3{0, 0, opts.Length / 2}
		} else {
			local.Position = mgl32.Vec3{0, 0, -step}
		}
		bones[i] = core.Bone{Name: fmt.Sprintf("spine%d", i), Parent: parent, Local: local}
	}
	skel, err := core.NewSkeleton(bones)
	if err != nil {
		return nil, err
	}
	skel.CalculateInverses()
	return skel, nil
}

// chainWeights blends each vertex between the two bones bracketing it.
func chainWeights(g *core.Geometry, opts SwimmerOptions) ([][4]int, [][4]float32) {
	step := opts.Length / float32(opts.Bones-1)
	idx := make([][4]int, g.VertexCount())
	w := make([][4]float32, g.VertexCount())
	for v, p := range g.Positions {
		t := (opts.Length/2 - p.Z()) / step
		k := int(math.Floor(float64(t)))
		if k < 0 {
			k, t = 0, 0
		}
		if k >= opts.Bones-1 {
			k, t = opts.Bones-2, float32(opts.Bones-1)
		}
		frac := t - float32(k)
		idx[v] = [4]int{k, k + 1}
		w[v] = [4]float32{1 - frac, frac}
	}
	return idx, w
}

func (s *Swimmer) Root() core.Node { return s.root }

func (s *Swimmer) WorldMatrix() mgl32.Mat4 { return s.root.ComputeWorld() }

// Animate poses the swimmer at time t: the tail beat travels head to tail
// with growing amplitude and the root follows a circular path, facing its
// direction of travel.
func (s *Swimmer) Animate(t float32) {
	o := s.Options
	bones := s.Body.Skeleton.Bones
	phase := 2 * math.Pi * float64(o.Frequency*t)
	for i := 1; i < len(bones); i++ {
		k := float32(i) / float32(len(bones)-1)
		angle := o.Amplitude * k * float32(math.Sin(phase-0.6*float64(i)))
		bones[i].Local.Rotation = mgl32.QuatRotate(angle, mgl32.Vec3{1, 0, 0})
	}

	if o.Speed == 0 || o.PathRadius <= 0 {
		return
	}
	a := float64(o.Speed * t / o.PathRadius)
	bob := 0.3 * float32(math.Sin(phase*0.5))
	s.root.Transform.Position = mgl32.Vec3{
		o.PathRadius * float32(math.Sin(a)),
		bob,
		o.PathRadius * float32(math.Cos(a)),
	}
	s.root.Transform.Rotation = mgl32.QuatRotate(float32(a+math.Pi/2), mgl32.Vec3{0, 1, 0})
}
