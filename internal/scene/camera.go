package scene

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	nearPlane = 0.1
	farPlane  = 100.0
	maxPitch  = 89.0
)

// Movement is a direction the camera can be moving in. Several may be held
// at once.
type Movement int

const (
	MoveForward Movement = iota
	MoveBackward
	MoveLeft
	MoveRight
	MoveUp
	MoveDown
	movementCount
)

var worldUp = mgl32.Vec3{0, 1, 0}

// Camera is a free-flying perspective camera. Yaw and Pitch are in degrees;
// a yaw of -90 looks down -Z.
type Camera struct {
	Position mgl32.Vec3
	Yaw      float32
	Pitch    float32

	fov         float32
	aspect      float32
	sensitivity float32
	speed       float32

	moving [movementCount]bool
}

// NewCamera places the camera at (0,0,3) looking at the origin. speed is in
// world units per millisecond.
func NewCamera(fovDegrees, sensitivity, speed float32) *Camera {
	return &Camera{
		Position:    mgl32.Vec3{0, 0, 3},
		Yaw:         -90,
		fov:         fovDegrees,
		aspect:      1,
		sensitivity: sensitivity,
		speed:       speed,
	}
}

func (c *Camera) SetAspectRatio(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.aspect = float32(width) / float32(height)
}

func (c *Camera) AspectRatio() float32 {
	return c.aspect
}

func (c *Camera) Front() mgl32.Vec3 {
	yaw := float64(mgl32.DegToRad(c.Yaw))
	pitch := float64(mgl32.DegToRad(c.Pitch))
	return mgl32.Vec3{
		float32(math.Cos(yaw) * math.Cos(pitch)),
		float32(math.Sin(pitch)),
		float32(math.Sin(yaw) * math.Cos(pitch)),
	}.Normalize()
}

func (c *Camera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Position.Add(c.Front()), worldUp)
}

// Projection flips Y so that +Y is up in Vulkan clip space.
func (c *Camera) Projection() mgl32.Mat4 {
	proj := mgl32.Perspective(mgl32.DegToRad(c.fov), c.aspect, nearPlane, farPlane)
	proj[5] *= -1
	return proj
}

func (c *Camera) ViewProj() mgl32.Mat4 {
	return c.Projection().Mul4(c.View())
}

// OnMouseMove turns the camera by a relative mouse motion. Pitch is kept
// short of straight up or down.
func (c *Camera) OnMouseMove(dx, dy float32) {
	c.Yaw += dx * c.sensitivity
	c.Pitch = mgl32.Clamp(c.Pitch-dy*c.sensitivity, -maxPitch, maxPitch)
}

func (c *Camera) SetMoving(m Movement, moving bool) {
	if m < 0 || m >= movementCount {
		return
	}
	c.moving[m] = moving
}

// Update moves the camera along every held direction for elapsed time.
func (c *Camera) Update(elapsed time.Duration) {
	distance := c.speed * float32(elapsed.Seconds()*1000)
	front := c.Front()
	right := front.Cross(worldUp).Normalize()

	var step mgl32.Vec3
	if c.moving[MoveForward] {
		step = step.Add(front)
	}
	if c.moving[MoveBackward] {
		step = step.Sub(front)
	}
	if c.moving[MoveRight] {
		step = step.Add(right)
	}
	if c.moving[MoveLeft] {
		step = step.Sub(right)
	}
	if c.moving[MoveUp] {
		step = step.Add(worldUp)
	}
	if c.moving[MoveDown] {
		step = step.Sub(worldUp)
	}

	c.Position = c.Position.Add(step.Mul(distance))
}
