package device

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_portability_subset"
	"github.com/vkngwrapper/extensions/khr_surface"
	"golang.org/x/exp/slog"
)

// DepthFormats are tried in order when picking the depth attachment format.
var DepthFormats = []core1_0.Format{
	core1_0.FormatD32SignedFloat,
	core1_0.FormatD32SignedFloatS8UnsignedInt,
	core1_0.FormatD24UnsignedNormalizedS8UnsignedInt,
}

// LogicalDevice is the logical device together with the physical device
// properties queried once at creation.
type LogicalDevice struct {
	Device         core1_0.Device
	PhysicalDevice core1_0.PhysicalDevice

	GraphicsQueue core1_0.Queue
	PresentQueue  core1_0.Queue
	QueueFamilies QueueFamilyIndices

	Properties       *core1_0.PhysicalDeviceProperties
	MemoryProperties *core1_0.PhysicalDeviceMemoryProperties
	MSAASamples      core1_0.SampleCountFlags
	MaxAnisotropy    float32
}

// New selects a physical device for surface and creates a logical device
// with one graphics and one present queue. The two queues are the same
// handle when their families match.
func New(instance core1_0.Instance, surface khr_surface.Surface, log *slog.Logger) (*LogicalDevice, error) {
	physicalDevice, err := PickPhysicalDevice(instance, surface, log)
	if err != nil {
		return nil, err
	}

	indices, err := FindQueueFamilies(physicalDevice, surface)
	if err != nil {
		return nil, err
	}

	properties, err := physicalDevice.Properties()
	if err != nil {
		return nil, errors.Wrap(err, "query physical device properties")
	}

	var queueFamilyOptions []core1_0.DeviceQueueCreateInfo
	queuePriority := float32(1.0)
	for _, queueFamily := range indices.Unique() {
		queueFamilyOptions = append(queueFamilyOptions, core1_0.DeviceQueueCreateInfo{
			QueueFamilyIndex: queueFamily,
			QueuePriorities:  []float32{queuePriority},
		})
	}

	var extensionNames []string
	extensionNames = append(extensionNames, RequiredExtensions...)

	// needed for portability implementations such as MoltenVK
	extensions, _, err := physicalDevice.EnumerateDeviceExtensionProperties()
	if err != nil {
		return nil, errors.Wrap(err, "enumerate device extensions")
	}
	_, supported := extensions[khr_portability_subset.ExtensionName]
	if supported {
		extensionNames = append(extensionNames, khr_portability_subset.ExtensionName)
	}

	features := physicalDevice.Features()

	device, _, err := physicalDevice.CreateDevice(nil, core1_0.DeviceCreateInfo{
		QueueCreateInfos: queueFamilyOptions,
		EnabledFeatures: &core1_0.PhysicalDeviceFeatures{
			SamplerAnisotropy: true,
			SampleRateShading: features.SampleRateShading,
		},
		EnabledExtensionNames: extensionNames,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create logical device")
	}

	ld := &LogicalDevice{
		Device:         device,
		PhysicalDevice: physicalDevice,
		GraphicsQueue:  device.GetQueue(*indices.GraphicsFamily, 0),
		PresentQueue:   device.GetQueue(*indices.PresentFamily, 0),
		QueueFamilies:  indices,

		Properties:       properties,
		MemoryProperties: physicalDevice.MemoryProperties(),
		MSAASamples: MaxUsableSampleCount(
			properties.Limits.FramebufferColorSampleCounts,
			properties.Limits.FramebufferDepthSampleCounts,
		),
		MaxAnisotropy: properties.Limits.MaxSamplerAnisotropy,
	}

	log.Info("created logical device",
		slog.Int("graphicsFamily", *indices.GraphicsFamily),
		slog.Int("presentFamily", *indices.PresentFamily),
		slog.String("msaa", ld.MSAASamples.String()),
		slog.Bool("sampleShading", features.SampleRateShading),
	)

	return ld, nil
}

// SampleShading reports whether per-sample shading was enabled on the device.
func (d *LogicalDevice) SampleShading() bool {
	return d.PhysicalDevice.Features().SampleRateShading
}

func (d *LogicalDevice) FindSupportedFormat(formats []core1_0.Format, tiling core1_0.ImageTiling, features core1_0.FormatFeatureFlags) (core1_0.Format, error) {
	for _, format := range formats {
		props := d.PhysicalDevice.FormatProperties(format)

		if tiling == core1_0.ImageTilingLinear && (props.LinearTilingFeatures&features) == features {
			return format, nil
		} else if tiling == core1_0.ImageTilingOptimal && (props.OptimalTilingFeatures&features) == features {
			return format, nil
		}
	}

	return 0, errors.Newf("failed to find supported format for tiling %s, featureset %s", tiling, features)
}

func (d *LogicalDevice) FindDepthFormat() (core1_0.Format, error) {
	return d.FindSupportedFormat(DepthFormats, core1_0.ImageTilingOptimal, core1_0.FormatFeatureDepthStencilAttachment)
}

// WaitIdle blocks until the device has finished all submitted work.
func (d *LogicalDevice) WaitIdle() error {
	_, err := d.Device.WaitIdle()
	return errors.Wrap(err, "wait for device idle")
}

func (d *LogicalDevice) Destroy() {
	if d.Device != nil {
		d.Device.Destroy(nil)
		d.Device = nil
	}
}
