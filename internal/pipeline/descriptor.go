package pipeline

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
)

// Binding numbers shared by the scene and skybox set layouts.
const (
	MatrixBinding  = 0
	SceneBinding   = 1
	TextureBinding = 2

	CubemapBinding = 1
)

// DescriptorsPerType is how many descriptors of each type the shared pool
// holds. It also caps the number of sets.
const DescriptorsPerType = 1000

var descriptorTypes = []core1_0.DescriptorType{
	core1_0.DescriptorTypeSampler,
	core1_0.DescriptorTypeCombinedImageSampler,
	core1_0.DescriptorTypeSampledImage,
	core1_0.DescriptorTypeStorageImage,
	core1_0.DescriptorTypeUniformTexelBuffer,
	core1_0.DescriptorTypeStorageTexelBuffer,
	core1_0.DescriptorTypeUniformBuffer,
	core1_0.DescriptorTypeStorageBuffer,
	core1_0.DescriptorTypeUniformBufferDynamic,
	core1_0.DescriptorTypeStorageBufferDynamic,
	core1_0.DescriptorTypeInputAttachment,
}

// SceneBindings: per-draw matrices as a dynamic uniform buffer, lights and
// camera as a plain uniform buffer, and one sampler per model texture.
func SceneBindings(textureCount int) []core1_0.DescriptorSetLayoutBinding {
	return []core1_0.DescriptorSetLayoutBinding{
		{
			Binding:         MatrixBinding,
			DescriptorType:  core1_0.DescriptorTypeUniformBufferDynamic,
			DescriptorCount: 1,

			StageFlags: core1_0.StageVertex,
		},
		{
			Binding:         SceneBinding,
			DescriptorType:  core1_0.DescriptorTypeUniformBuffer,
			DescriptorCount: 1,

			StageFlags: core1_0.StageAllGraphics,
		},
		{
			Binding:         TextureBinding,
			DescriptorType:  core1_0.DescriptorTypeCombinedImageSampler,
			DescriptorCount: textureCount,

			StageFlags: core1_0.StageFragment,
		},
	}
}

func SkyboxBindings() []core1_0.DescriptorSetLayoutBinding {
	return []core1_0.DescriptorSetLayoutBinding{
		{
			Binding:         MatrixBinding,
			DescriptorType:  core1_0.DescriptorTypeUniformBufferDynamic,
			DescriptorCount: 1,

			StageFlags: core1_0.StageVertex,
		},
		{
			Binding:         CubemapBinding,
			DescriptorType:  core1_0.DescriptorTypeCombinedImageSampler,
			DescriptorCount: 1,

			StageFlags: core1_0.StageFragment,
		},
	}
}

func CreateSetLayout(device core1_0.Device, bindings []core1_0.DescriptorSetLayoutBinding) (core1_0.DescriptorSetLayout, error) {
	layout, _, err := device.CreateDescriptorSetLayout(nil, core1_0.DescriptorSetLayoutCreateInfo{
		Bindings: bindings,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "create descriptor set layout with %d bindings", len(bindings))
	}
	return layout, nil
}

// PoolInfo sizes the single pool every descriptor set is allocated from.
func PoolInfo() core1_0.DescriptorPoolCreateInfo {
	sizes := make([]core1_0.DescriptorPoolSize, 0, len(descriptorTypes))
	for _, descriptorType := range descriptorTypes {
		sizes = append(sizes, core1_0.DescriptorPoolSize{
			Type:            descriptorType,
			DescriptorCount: DescriptorsPerType,
		})
	}

	return core1_0.DescriptorPoolCreateInfo{
		MaxSets:   DescriptorsPerType,
		PoolSizes: sizes,
	}
}

// NewDescriptorPool creates the shared pool. Sets allocated from it are
// never freed individually; destroying the pool releases them all.
func NewDescriptorPool(device core1_0.Device) (core1_0.DescriptorPool, error) {
	pool, _, err := device.CreateDescriptorPool(nil, PoolInfo())
	if err != nil {
		return nil, errors.Wrap(err, "create descriptor pool")
	}
	return pool, nil
}

// AllocateSets allocates count sets of the same layout.
func AllocateSets(device core1_0.Device, pool core1_0.DescriptorPool, layout core1_0.DescriptorSetLayout, count int) ([]core1_0.DescriptorSet, error) {
	layouts := make([]core1_0.DescriptorSetLayout, count)
	for i := range layouts {
		layouts[i] = layout
	}

	sets, _, err := device.AllocateDescriptorSets(core1_0.DescriptorSetAllocateInfo{
		DescriptorPool: pool,
		SetLayouts:     layouts,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "allocate %d descriptor sets", count)
	}
	return sets, nil
}
