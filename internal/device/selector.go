// Package device picks a physical device able to render to a surface and
// creates the logical device and its queues.
package device

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"
	"github.com/vkngwrapper/extensions/khr_swapchain"
	"golang.org/x/exp/slog"
)

var (
	ErrNoDevice         = errors.New("failed to find GPUs with Vulkan support")
	ErrNoSuitableDevice = errors.New("failed to find a suitable GPU")
)

// RequiredExtensions must be present on every candidate device.
var RequiredExtensions = []string{khr_swapchain.ExtensionName}

type QueueFamilyIndices struct {
	GraphicsFamily *int
	PresentFamily  *int
}

func (i *QueueFamilyIndices) IsComplete() bool {
	return i.GraphicsFamily != nil && i.PresentFamily != nil
}

// Unique lists each family once, graphics first.
func (i *QueueFamilyIndices) Unique() []int {
	if !i.IsComplete() {
		return nil
	}

	families := []int{*i.GraphicsFamily}
	if *i.PresentFamily != *i.GraphicsFamily {
		families = append(families, *i.PresentFamily)
	}
	return families
}

type SwapchainSupport struct {
	Capabilities *khr_surface.Capabilities
	Formats      []khr_surface.Format
	PresentModes []khr_surface.PresentMode
}

func (s SwapchainSupport) Adequate() bool {
	return len(s.Formats) > 0 && len(s.PresentModes) > 0
}

// Suitability records each selection criterion for one physical device.
type Suitability struct {
	QueueFamilies     bool
	Extensions        bool
	SwapchainAdequate bool
	SamplerAnisotropy bool
}

func (s Suitability) Suitable() bool {
	return s.QueueFamilies && s.Extensions && s.SwapchainAdequate && s.SamplerAnisotropy
}

// Missing names the criteria that failed, for logging.
func (s Suitability) Missing() string {
	var missing []string
	if !s.QueueFamilies {
		missing = append(missing, "queue families")
	}
	if !s.Extensions {
		missing = append(missing, "device extensions")
	}
	if !s.SwapchainAdequate {
		missing = append(missing, "surface formats/present modes")
	}
	if !s.SamplerAnisotropy {
		missing = append(missing, "sampler anisotropy")
	}
	return strings.Join(missing, ", ")
}

// MaxUsableSampleCount returns the highest sample count supported by both
// the color and depth framebuffer masks.
func MaxUsableSampleCount(color, depth core1_0.SampleCountFlags) core1_0.SampleCountFlags {
	counts := color & depth

	for _, samples := range []core1_0.SampleCountFlags{
		core1_0.Samples64,
		core1_0.Samples32,
		core1_0.Samples16,
		core1_0.Samples8,
		core1_0.Samples4,
		core1_0.Samples2,
	} {
		if (counts & samples) != 0 {
			return samples
		}
	}

	return core1_0.Samples1
}

func FindQueueFamilies(device core1_0.PhysicalDevice, surface khr_surface.Surface) (QueueFamilyIndices, error) {
	indices := QueueFamilyIndices{}
	queueFamilies := device.QueueFamilyProperties()

	for queueFamilyIdx, queueFamily := range queueFamilies {
		if (queueFamily.QueueFlags&core1_0.QueueGraphics) != 0 && indices.GraphicsFamily == nil {
			indices.GraphicsFamily = new(int)
			*indices.GraphicsFamily = queueFamilyIdx
		}

		supported, _, err := surface.PhysicalDeviceSurfaceSupport(device, queueFamilyIdx)
		if err != nil {
			return indices, errors.Wrapf(err, "query present support of queue family %d", queueFamilyIdx)
		}

		if supported && indices.PresentFamily == nil {
			indices.PresentFamily = new(int)
			*indices.PresentFamily = queueFamilyIdx
		}

		if indices.IsComplete() {
			break
		}
	}

	return indices, nil
}

func QuerySwapchainSupport(device core1_0.PhysicalDevice, surface khr_surface.Surface) (SwapchainSupport, error) {
	var details SwapchainSupport
	var err error

	details.Capabilities, _, err = surface.PhysicalDeviceSurfaceCapabilities(device)
	if err != nil {
		return details, errors.Wrap(err, "query surface capabilities")
	}

	details.Formats, _, err = surface.PhysicalDeviceSurfaceFormats(device)
	if err != nil {
		return details, errors.Wrap(err, "query surface formats")
	}

	details.PresentModes, _, err = surface.PhysicalDeviceSurfacePresentModes(device)
	return details, errors.Wrap(err, "query surface present modes")
}

func checkDeviceExtensionSupport(device core1_0.PhysicalDevice) bool {
	extensions, _, err := device.EnumerateDeviceExtensionProperties()
	if err != nil {
		return false
	}

	for _, extension := range RequiredExtensions {
		_, hasExtension := extensions[extension]
		if !hasExtension {
			return false
		}
	}

	return true
}

func evaluate(device core1_0.PhysicalDevice, surface khr_surface.Surface) (Suitability, error) {
	var s Suitability

	indices, err := FindQueueFamilies(device, surface)
	if err != nil {
		return s, err
	}
	s.QueueFamilies = indices.IsComplete()
	s.Extensions = checkDeviceExtensionSupport(device)

	if s.Extensions {
		support, err := QuerySwapchainSupport(device, surface)
		if err != nil {
			return s, err
		}
		s.SwapchainAdequate = support.Adequate()
	}

	s.SamplerAnisotropy = device.Features().SamplerAnisotropy
	return s, nil
}

// PickPhysicalDevice returns the first enumerated device that satisfies every
// criterion.
func PickPhysicalDevice(instance core1_0.Instance, surface khr_surface.Surface, log *slog.Logger) (core1_0.PhysicalDevice, error) {
	physicalDevices, _, err := instance.EnumeratePhysicalDevices()
	if err != nil {
		return nil, errors.Wrap(err, "enumerate physical devices")
	}
	if len(physicalDevices) == 0 {
		return nil, ErrNoDevice
	}

	for _, device := range physicalDevices {
		name := deviceName(device)

		suitability, err := evaluate(device, surface)
		if err != nil {
			log.Warn("skipping physical device", slog.String("device", name), slog.Any("error", err))
			continue
		}
		if !suitability.Suitable() {
			log.Debug("physical device unsuitable", slog.String("device", name), slog.String("missing", suitability.Missing()))
			continue
		}

		log.Info("selected physical device", slog.String("device", name))
		return device, nil
	}

	return nil, errors.Wrapf(ErrNoSuitableDevice, "%d candidates", len(physicalDevices))
}

func deviceName(device core1_0.PhysicalDevice) string {
	properties, err := device.Properties()
	if err != nil {
		return "unknown"
	}
	return properties.DriverName
}
