package wake

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Camera orbits a target point, Y-up.
type Camera struct {
	Target   mgl32.Vec3
	Distance float32
	Yaw      float32
	Pitch    float32

	Fov    float32 // degrees
	Near   float32
	Far    float32
	Width  int
	Height int

	PixelRatio float32
}

func NewCamera(width, height int) *Camera {
	return &Camera{
		Distance:   14,
		Yaw:        0.8,
		Pitch:      0.35,
		Fov:        50,
		Near:       0.1,
		Far:        500,
		Width:      width,
		Height:     height,
		PixelRatio: 1,
	}
}

func (c *Camera) Position() mgl32.Vec3 {
	cp := float32(math.Cos(float64(c.Pitch)))
	offset := mgl32.Vec3{
		cp * float32(math.Sin(float64(c.Yaw))),
		float32(math.Sin(float64(c.Pitch))),
		cp * float32(math.Cos(float64(c.Yaw))),
	}
	return c.Target.Add(offset.Mul(c.Distance))
}

func (c *Camera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position(), c.Target, mgl32.Vec3{0, 1, 0})
}

func (c *Camera) Aspect() float32 {
	if c.Height == 0 {
		return 1
	}
	return float32(c.Width) / float32(c.Height)
}

// Projection maps depth to [0,1] as WebGPU expects.
func (c *Camera) Projection() mgl32.Mat4 {
	f := float32(1 / math.Tan(float64(mgl32.DegToRad(c.Fov))/2))
	nf := c.Near - c.Far
	return mgl32.Mat4{
		f / c.Aspect(), 0, 0, 0,
		0, f, 0, 0,
		0, 0, c.Far / nf, -1,
		0, 0, c.Near * c.Far / nf, 0,
	}
}

func (c *Camera) Viewport() mgl32.Vec2 {
	return mgl32.Vec2{float32(c.Width), float32(c.Height)}
}

// Follow eases the orbit target towards p.
func (c *Camera) Follow(p mgl32.Vec3, dt float32) {
	k := 1 - float32(math.Exp(float64(-3*dt)))
	c.Target = c.Target.Add(p.Sub(c.Target).Mul(k))
}
