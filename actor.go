package wake

import (
	"github.com/gekko3d/wake/wakert/rt/core"
	"github.com/go-gl/mathgl/mgl32"
)

// Actor is the animated character the wake follows.
type Actor interface {
	Root() core.Node
	WorldMatrix() mgl32.Mat4
}

func ActorPosition(a Actor) mgl32.Vec3 {
	return a.WorldMatrix().Col(3).Vec3()
}

// TrailAxis is the actor's world -Z, the direction the wake drifts.
func TrailAxis(a Actor) mgl32.Vec3 {
	axis := core.TransformDirection(a.WorldMatrix(), mgl32.Vec3{0, 0, -1})
	if axis.Len() < 1e-6 {
		return core.DefaultTrailAxis
	}
	return axis.Normalize()
}
