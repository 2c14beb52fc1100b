package scene

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/pbr-renderer/internal/transfer"
)

// LightColor is the radiance of every scene light.
const LightColor = 500

// LightPositions are the four fixed point lights.
var LightPositions = [4]mgl32.Vec4{
	{0, 0, 30, 0},
	{0, 30, 0, 0},
	{30, 0, 0, 0},
	{-30, 0, 0, 0},
}

// ModelScale is applied uniformly to the model.
const ModelScale = 0.5

// SceneUniforms is laid out per std140; the blank fields pad each vec3 to 16 bytes.
type SceneUniforms struct {
	CameraPos      mgl32.Vec3
	_              float32
	LightPositions [4]mgl32.Vec4
	LightColor     mgl32.Vec3
	_              float32
}

type MatrixUniforms struct {
	Model    mgl32.Mat4
	ViewProj mgl32.Mat4
	Normal   mgl32.Mat4
}

func NewSceneUniforms(cameraPos mgl32.Vec3) SceneUniforms {
	return SceneUniforms{
		CameraPos:      cameraPos,
		LightPositions: LightPositions,
		LightColor:     mgl32.Vec3{LightColor, LightColor, LightColor},
	}
}

// NewMatrixUniforms places the model at the origin scaled by ModelScale.
// Normal is the inverse transpose of Model.
func NewMatrixUniforms(viewProj mgl32.Mat4) MatrixUniforms {
	model := mgl32.Translate3D(0, 0, 0).Mul4(mgl32.Scale3D(ModelScale, ModelScale, ModelScale))
	return MatrixUniforms{
		Model:    model,
		ViewProj: viewProj,
		Normal:   model.Inv().Transpose(),
	}
}

// SkyboxViewProj drops the view translation so the skybox follows the camera.
func SkyboxViewProj(projection, view mgl32.Mat4) mgl32.Mat4 {
	return projection.Mul4(view.Mat3().Mat4())
}

// Pack encodes the uniforms in the byte layout the shaders read.
func (u SceneUniforms) Pack() ([]byte, error) {
	return transfer.Encode(u)
}

func (u MatrixUniforms) Pack() ([]byte, error) {
	return transfer.Encode(u)
}
