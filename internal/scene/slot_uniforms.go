package scene

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/pbr-renderer/internal/memory"
	"github.com/vkngwrapper/pbr-renderer/internal/pipeline"
)

var (
	sceneUniformsSize  = int(unsafe.Sizeof(SceneUniforms{}))
	matrixUniformsSize = int(unsafe.Sizeof(MatrixUniforms{}))
)

// SlotUniforms is what one frame slot writes each frame: host visible
// uniform buffers and the descriptor sets pointing at them.
type SlotUniforms struct {
	Scene        *memory.Buffer
	Matrix       *memory.Buffer
	SkyboxMatrix *memory.Buffer

	SceneSet  core1_0.DescriptorSet
	SkyboxSet core1_0.DescriptorSet
}

// Uniforms holds one SlotUniforms per frame slot. Descriptor sets are
// written once at creation; only buffer contents change afterwards.
type Uniforms struct {
	slots []*SlotUniforms
}

func NewUniforms(alloc *memory.Allocator, pool core1_0.DescriptorPool, sceneLayout, skyboxLayout core1_0.DescriptorSetLayout, slotCount int, textures *TextureSet, cube *Cubemap) (u *Uniforms, err error) {
	device := alloc.Device()

	u = &Uniforms{}
	defer func() {
		if err != nil {
			u.Destroy()
			u = nil
		}
	}()

	sceneSets, err := pipeline.AllocateSets(device, pool, sceneLayout, slotCount)
	if err != nil {
		return u, err
	}
	skyboxSets, err := pipeline.AllocateSets(device, pool, skyboxLayout, slotCount)
	if err != nil {
		return u, err
	}

	hostVisible := core1_0.MemoryPropertyHostVisible | core1_0.MemoryPropertyHostCoherent
	for i := 0; i < slotCount; i++ {
		slot := &SlotUniforms{SceneSet: sceneSets[i], SkyboxSet: skyboxSets[i]}
		u.slots = append(u.slots, slot)

		slot.Scene, err = alloc.CreateBuffer(sceneUniformsSize, core1_0.BufferUsageUniformBuffer, hostVisible)
		if err != nil {
			return u, errors.Wrapf(err, "slot %d scene uniforms", i)
		}
		slot.Matrix, err = alloc.CreateBuffer(matrixUniformsSize, core1_0.BufferUsageUniformBuffer, hostVisible)
		if err != nil {
			return u, errors.Wrapf(err, "slot %d matrix uniforms", i)
		}
		slot.SkyboxMatrix, err = alloc.CreateBuffer(matrixUniformsSize, core1_0.BufferUsageUniformBuffer, hostVisible)
		if err != nil {
			return u, errors.Wrapf(err, "slot %d skybox uniforms", i)
		}

		err = device.UpdateDescriptorSets(slot.writes(textures, cube), nil)
		if err != nil {
			return u, errors.Wrapf(err, "write slot %d descriptor sets", i)
		}
	}

	return u, nil
}

func (s *SlotUniforms) writes(textures *TextureSet, cube *Cubemap) []core1_0.WriteDescriptorSet {
	return []core1_0.WriteDescriptorSet{
		{
			DstSet:         s.SceneSet,
			DstBinding:     pipeline.MatrixBinding,
			DescriptorType: core1_0.DescriptorTypeUniformBufferDynamic,
			BufferInfo: []core1_0.DescriptorBufferInfo{
				{Buffer: s.Matrix.Handle, Offset: 0, Range: matrixUniformsSize},
			},
		},
		{
			DstSet:         s.SceneSet,
			DstBinding:     pipeline.SceneBinding,
			DescriptorType: core1_0.DescriptorTypeUniformBuffer,
			BufferInfo: []core1_0.DescriptorBufferInfo{
				{Buffer: s.Scene.Handle, Offset: 0, Range: sceneUniformsSize},
			},
		},
		{
			DstSet:         s.SceneSet,
			DstBinding:     pipeline.TextureBinding,
			DescriptorType: core1_0.DescriptorTypeCombinedImageSampler,
			ImageInfo:      textures.ImageInfos(),
		},
		{
			DstSet:         s.SkyboxSet,
			DstBinding:     pipeline.MatrixBinding,
			DescriptorType: core1_0.DescriptorTypeUniformBufferDynamic,
			BufferInfo: []core1_0.DescriptorBufferInfo{
				{Buffer: s.SkyboxMatrix.Handle, Offset: 0, Range: matrixUniformsSize},
			},
		},
		{
			DstSet:         s.SkyboxSet,
			DstBinding:     pipeline.CubemapBinding,
			DescriptorType: core1_0.DescriptorTypeCombinedImageSampler,
			ImageInfo:      []core1_0.DescriptorImageInfo{cube.ImageInfo()},
		},
	}
}

func (u *Uniforms) Slot(index int) *SlotUniforms {
	return u.slots[index]
}

// Update writes the camera's current state into the buffers of one slot.
// The slot's previous frame must have finished on the GPU.
func (u *Uniforms) Update(index int, camera *Camera) error {
	slot := u.slots[index]

	scene, err := NewSceneUniforms(camera.Position).Pack()
	if err != nil {
		return err
	}
	matrices, err := NewMatrixUniforms(camera.ViewProj()).Pack()
	if err != nil {
		return err
	}
	skybox, err := MatrixUniforms{
		Model:    mgl32.Ident4(),
		ViewProj: SkyboxViewProj(camera.Projection(), camera.View()),
		Normal:   mgl32.Ident4(),
	}.Pack()
	if err != nil {
		return err
	}

	if err := slot.Scene.WriteBytes(0, scene); err != nil {
		return errors.Wrap(err, "write scene uniforms")
	}
	if err := slot.Matrix.WriteBytes(0, matrices); err != nil {
		return errors.Wrap(err, "write matrix uniforms")
	}
	if err := slot.SkyboxMatrix.WriteBytes(0, skybox); err != nil {
		return errors.Wrap(err, "write skybox uniforms")
	}
	return nil
}

// Destroy frees the buffers. The descriptor sets go with their pool.
func (u *Uniforms) Destroy() {
	if u == nil {
		return
	}
	for _, slot := range u.slots {
		slot.Scene.Destroy()
		slot.Matrix.Destroy()
		slot.SkyboxMatrix.Destroy()
	}
	u.slots = nil
}
