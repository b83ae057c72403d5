package core

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"
)

var ErrNoSkinnedMesh = errors.New("no skinned mesh found")

// Node is the minimal scene hierarchy contract the effect needs: a name and
// traversable children.
type Node interface {
	Name() string
	Children() []Node
}

// SkinnedMesh is the capability a node must expose to be sampled and
// tracked. Finding one is an interface assertion, not a property probe.
type SkinnedMesh interface {
	Node
	Geometry() *Geometry
	// UpdateSkeleton refreshes bone matrices from the current pose.
	UpdateSkeleton()
	// UpdateMatrixWorld refreshes the cached world matrix from the parent chain.
	UpdateMatrixWorld()
	MatrixWorld() mgl32.Mat4
	// ApplyBoneTransform maps a rest-pose local point of the given vertex
	// through that vertex's skinning.
	ApplyBoneTransform(vertexIndex int, p mgl32.Vec3) mgl32.Vec3
}

// Traverse visits root and all descendants depth first, parents first.
func Traverse(root Node, fn func(Node)) {
	if root == nil {
		return
	}
	fn(root)
	for _, child := range root.Children() {
		Traverse(child, fn)
	}
}

// FindSkinnedMesh returns the last skinned mesh in traversal order.
func FindSkinnedMesh(root Node) (SkinnedMesh, bool) {
	var found SkinnedMesh
	Traverse(root, func(n Node) {
		if sm, ok := n.(SkinnedMesh); ok {
			found = sm
		}
	})
	return found, found != nil
}

// Object3D is an embeddable node with a local transform, a parent link
// and children.
type Object3D struct {
	name      string
	Transform Transform

	parent   *Object3D
	children []Node
	world    mgl32.Mat4
}

type attachable interface {
	object() *Object3D
}

func NewObject3D(name string) *Object3D {
	o := &Object3D{}
	o.init(name)
	return o
}

func (o *Object3D) init(name string) {
	o.name = name
	o.Transform = NewTransform()
	o.world = mgl32.Ident4()
}

func (o *Object3D) object() *Object3D { return o }

func (o *Object3D) Name() string { return o.name }

func (o *Object3D) Children() []Node { return o.children }

// Add attaches child. Children built on Object3D get their parent link set
// so world matrices follow the hierarchy.
func (o *Object3D) Add(child Node) {
	if a, ok := child.(attachable); ok {
		a.object().parent = o
	}
	o.children = append(o.children, child)
}

// ComputeWorld walks the parent chain and returns the current world matrix
// without touching the cache.
func (o *Object3D) ComputeWorld() mgl32.Mat4 {
	m := o.Transform.Matrix()
	for p := o.parent; p != nil; p = p.parent {
		m = p.Transform.Matrix().Mul4(m)
	}
	return m
}

func (o *Object3D) UpdateMatrixWorld() {
	o.world = o.ComputeWorld()
}

func (o *Object3D) MatrixWorld() mgl32.Mat4 {
	return o.world
}
