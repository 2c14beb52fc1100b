package scene

import (
	"encoding/binary"
	"math"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSceneUniformsPack(t *testing.T) {
	data, err := NewSceneUniforms(mgl32.Vec3{1, 2, 3}).Pack()
	require.NoError(t, err)
	require.Len(t, data, 96)

	float := func(offset int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(data[offset:]))
	}
	assert.Equal(t, float32(3), float(8))
	assert.Equal(t, float32(30), float(16+8))
	assert.Equal(t, float32(-30), float(16+3*16))
	assert.Equal(t, float32(LightColor), float(80))
	assert.Equal(t, float32(LightColor), float(88))
}

func TestMatrixUniforms(t *testing.T) {
	viewProj := mgl32.Translate3D(4, 5, 6)
	u := NewMatrixUniforms(viewProj)

	assert.Equal(t, viewProj, u.ViewProj)
	assert.Equal(t, float32(ModelScale), u.Model.At(0, 0))
	assert.True(t, u.Normal.ApproxEqual(mgl32.Scale3D(2, 2, 2)))

	data, err := u.Pack()
	require.NoError(t, err)
	assert.Len(t, data, 192)
}

func TestSkyboxViewProjDropsTranslation(t *testing.T) {
	view := mgl32.Translate3D(1, 2, 3).Mul4(mgl32.HomogRotate3DY(0.5))
	projection := mgl32.Perspective(1, 1.5, 0.1, 100)

	got := SkyboxViewProj(projection, view)
	want := projection.Mul4(mgl32.HomogRotate3DY(0.5))
	assert.True(t, got.ApproxEqualThreshold(want, 1e-5))
}

func TestCameraDefaults(t *testing.T) {
	camera := NewCamera(45, 0.1, 0.005)

	assert.True(t, camera.Front().ApproxEqual(mgl32.Vec3{0, 0, -1}))
	assert.Less(t, camera.Projection().At(1, 1), float32(0))

	camera.SetAspectRatio(1600, 900)
	assert.InDelta(t, 1600.0/900.0, camera.AspectRatio(), 1e-6)
	camera.SetAspectRatio(0, 900)
	assert.InDelta(t, 1600.0/900.0, camera.AspectRatio(), 1e-6)
}

func TestCameraLooksAtOrigin(t *testing.T) {
	camera := NewCamera(45, 0.1, 0.005)

	origin := camera.View().Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	assert.True(t, origin.Vec3().ApproxEqual(mgl32.Vec3{0, 0, -3}))
}

func TestCameraPitchClamped(t *testing.T) {
	camera := NewCamera(45, 1, 0.005)

	camera.OnMouseMove(0, -1000)
	assert.Equal(t, float32(maxPitch), camera.Pitch)
	camera.OnMouseMove(0, 5000)
	assert.Equal(t, float32(-maxPitch), camera.Pitch)

	camera.OnMouseMove(30, 0)
	assert.Equal(t, float32(-60), camera.Yaw)
}

func TestCameraMovement(t *testing.T) {
	camera := NewCamera(45, 0.1, 0.005)

	camera.SetMoving(MoveForward, true)
	camera.Update(200 * time.Millisecond)
	assert.True(t, camera.Position.ApproxEqual(mgl32.Vec3{0, 0, 2}), "position %v", camera.Position)

	camera.SetMoving(MoveForward, false)
	camera.SetMoving(MoveUp, true)
	camera.SetMoving(MoveRight, true)
	camera.Update(100 * time.Millisecond)
	assert.True(t, camera.Position.ApproxEqual(mgl32.Vec3{0.5, 0.5, 2}), "position %v", camera.Position)

	camera.SetMoving(MoveUp, false)
	camera.SetMoving(MoveRight, false)
	camera.Update(time.Second)
	assert.True(t, camera.Position.ApproxEqual(mgl32.Vec3{0.5, 0.5, 2}))
}
