// Package swapchain owns the presentable images and everything sized to
// them: views, multisampled color and depth targets, and framebuffers.
package swapchain

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"
	"github.com/vkngwrapper/extensions/khr_swapchain"
	"github.com/vkngwrapper/pbr-renderer/internal/device"
	"github.com/vkngwrapper/pbr-renderer/internal/memory"
	"golang.org/x/exp/slog"
)

var ErrFormatChanged = errors.New("surface format no longer matches the render pass")

type State int

const (
	Active State = iota
	Invalid
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Invalid:
		return "invalid"
	}
	return "unknown"
}

// Window reports the drawable size of the presentation surface and blocks
// for platform events while that size is zero.
type Window interface {
	DrawableSize() (int, int)
	WaitEvents()
	ShouldClose() bool
}

// builder is the device work Recreate sequences. Manager implements it
// against Vulkan.
type builder interface {
	waitIdle() error
	querySupport() (device.SwapchainSupport, error)

	destroyTargets()
	destroyFramebuffers()
	destroyViews()
	destroySwapchain()

	createSwapchain(support device.SwapchainSupport, surfaceFormat khr_surface.Format) error
	createImageViews() error
	createTargets() error
	createFramebuffers() error
}

type Manager struct {
	gpu builder

	device    *device.LogicalDevice
	surface   khr_surface.Surface
	alloc     *memory.Allocator
	window    Window
	extension khr_swapchain.Extension
	log       *slog.Logger

	renderPass  core1_0.RenderPass
	samples     core1_0.SampleCountFlags
	depthFormat core1_0.Format

	state        State
	handle       khr_swapchain.Swapchain
	format       core1_0.Format
	extent       core1_0.Extent2D
	presentMode  khr_surface.PresentMode
	images       []core1_0.Image
	views        []core1_0.ImageView
	colorTarget  *memory.Image
	depthTarget  *memory.Image
	framebuffers []core1_0.Framebuffer
}

// New creates the render pass for the surface's preferred format and then
// the first generation of the swapchain. The render pass lives as long as
// the Manager.
func New(dev *device.LogicalDevice, surface khr_surface.Surface, alloc *memory.Allocator, window Window, log *slog.Logger) (*Manager, error) {
	m := &Manager{
		device:    dev,
		surface:   surface,
		alloc:     alloc,
		window:    window,
		extension: khr_swapchain.CreateExtensionFromDevice(dev.Device),
		log:       log,
		samples:   dev.MSAASamples,
		state:     Invalid,
	}
	m.gpu = m

	support, err := device.QuerySwapchainSupport(dev.PhysicalDevice, surface)
	if err != nil {
		return nil, err
	}
	if !support.Adequate() {
		return nil, errors.New("surface reports no formats or present modes")
	}
	m.format = ChooseSurfaceFormat(support.Formats).Format

	m.depthFormat, err = dev.FindDepthFormat()
	if err != nil {
		return nil, err
	}

	m.renderPass, err = CreateRenderPass(dev.Device, m.format, m.depthFormat, m.samples)
	if err != nil {
		return nil, err
	}

	err = m.Recreate()
	if err != nil {
		m.Destroy()
		return nil, err
	}

	return m, nil
}

func (m *Manager) State() State                       { return m.state }
func (m *Manager) Handle() khr_swapchain.Swapchain    { return m.handle }
func (m *Manager) Extension() khr_swapchain.Extension { return m.extension }
func (m *Manager) RenderPass() core1_0.RenderPass     { return m.renderPass }
func (m *Manager) Samples() core1_0.SampleCountFlags  { return m.samples }
func (m *Manager) Format() core1_0.Format             { return m.format }
func (m *Manager) Extent() core1_0.Extent2D           { return m.extent }
func (m *Manager) Images() []core1_0.Image            { return m.images }

func (m *Manager) Framebuffer(imageIndex int) core1_0.Framebuffer {
	return m.framebuffers[imageIndex]
}

// Invalidate marks the swapchain for recreation at the top of the next frame.
func (m *Manager) Invalidate() {
	if m.state != Invalid {
		m.log.Debug("swapchain invalidated")
	}
	m.state = Invalid
}

// Recreate rebuilds every extent-dependent object against the existing
// render pass. If the window is closed while minimized it returns with the
// swapchain still Invalid.
func (m *Manager) Recreate() error {
	if !waitForDrawable(m.window) {
		return nil
	}

	err := m.gpu.waitIdle()
	if err != nil {
		return err
	}

	m.cleanup()

	support, err := m.gpu.querySupport()
	if err != nil {
		return err
	}
	if !support.Adequate() {
		return errors.New("surface reports no formats or present modes")
	}

	surfaceFormat := ChooseSurfaceFormat(support.Formats)
	if surfaceFormat.Format != m.format {
		return errors.Wrapf(ErrFormatChanged, "render pass %s, surface %s", m.format, surfaceFormat.Format)
	}

	width, height := m.window.DrawableSize()
	m.extent = ChooseExtent(support.Capabilities, width, height)
	m.presentMode = ChoosePresentMode(support.PresentModes)

	err = m.gpu.createSwapchain(support, surfaceFormat)
	if err != nil {
		return err
	}

	err = m.gpu.createImageViews()
	if err != nil {
		return err
	}

	err = m.gpu.createTargets()
	if err != nil {
		return err
	}

	err = m.gpu.createFramebuffers()
	if err != nil {
		return err
	}

	m.state = Active
	m.log.Info("swapchain created",
		slog.Int("width", m.extent.Width),
		slog.Int("height", m.extent.Height),
		slog.String("format", m.format.String()),
		slog.String("presentMode", m.presentMode.String()),
		slog.Int("images", len(m.images)),
		slog.String("samples", m.samples.String()),
	)
	return nil
}

// waitForDrawable blocks on platform events while the window has no area.
// It reports false if the window asked to close in the meantime.
func waitForDrawable(window Window) bool {
	for {
		if window.ShouldClose() {
			return false
		}

		width, height := window.DrawableSize()
		if width > 0 && height > 0 {
			return true
		}
		window.WaitEvents()
	}
}

func (m *Manager) waitIdle() error {
	return m.device.WaitIdle()
}

func (m *Manager) querySupport() (device.SwapchainSupport, error) {
	return device.QuerySwapchainSupport(m.device.PhysicalDevice, m.surface)
}

func (m *Manager) createSwapchain(support device.SwapchainSupport, surfaceFormat khr_surface.Format) error {
	sharingMode := core1_0.SharingModeExclusive
	var queueFamilyIndices []int

	families := m.device.QueueFamilies.Unique()
	if len(families) > 1 {
		sharingMode = core1_0.SharingModeConcurrent
		queueFamilyIndices = families
	}

	swapchain, _, err := m.extension.CreateSwapchain(m.device.Device, nil, khr_swapchain.SwapchainCreateInfo{
		Surface: m.surface,

		MinImageCount:    ImageCount(support.Capabilities),
		ImageFormat:      surfaceFormat.Format,
		ImageColorSpace:  surfaceFormat.ColorSpace,
		ImageExtent:      m.extent,
		ImageArrayLayers: 1,
		ImageUsage:       core1_0.ImageUsageColorAttachment,

		ImageSharingMode:   sharingMode,
		QueueFamilyIndices: queueFamilyIndices,

		PreTransform:   support.Capabilities.CurrentTransform,
		CompositeAlpha: khr_surface.CompositeAlphaOpaque,
		PresentMode:    m.presentMode,
		Clipped:        true,
	})
	if err != nil {
		return errors.Wrap(err, "create swapchain")
	}
	m.handle = swapchain

	m.images, _, err = swapchain.SwapchainImages()
	return errors.Wrap(err, "get swapchain images")
}

func (m *Manager) createImageViews() error {
	for _, image := range m.images {
		view, err := memory.CreateImageView(m.device.Device, image, m.format, core1_0.ImageViewType2D, core1_0.ImageAspectColor, 1, 1)
		if err != nil {
			return err
		}
		m.views = append(m.views, view)
	}
	return nil
}

func (m *Manager) createTargets() error {
	var err error
	if m.samples != core1_0.Samples1 {
		m.colorTarget, err = m.alloc.CreateImage(memory.ImageSpec{
			Width:      m.extent.Width,
			Height:     m.extent.Height,
			Format:     m.format,
			Tiling:     core1_0.ImageTilingOptimal,
			Usage:      core1_0.ImageUsageTransientAttachment | core1_0.ImageUsageColorAttachment,
			Samples:    m.samples,
			Properties: core1_0.MemoryPropertyDeviceLocal,
		})
		if err != nil {
			return errors.Wrap(err, "create color target")
		}

		err = m.alloc.CreateView(m.colorTarget, core1_0.ImageViewType2D, core1_0.ImageAspectColor)
		if err != nil {
			return err
		}
	}

	m.depthTarget, err = m.alloc.CreateImage(memory.ImageSpec{
		Width:      m.extent.Width,
		Height:     m.extent.Height,
		Format:     m.depthFormat,
		Tiling:     core1_0.ImageTilingOptimal,
		Usage:      core1_0.ImageUsageDepthStencilAttachment,
		Samples:    m.samples,
		Properties: core1_0.MemoryPropertyDeviceLocal,
	})
	if err != nil {
		return errors.Wrap(err, "create depth target")
	}

	return m.alloc.CreateView(m.depthTarget, core1_0.ImageViewType2D, core1_0.ImageAspectDepth)
}

// Attachments lists the views bound to a framebuffer, in render pass
// attachment order.
func Attachments(swapchainView, colorView, depthView core1_0.ImageView, samples core1_0.SampleCountFlags) []core1_0.ImageView {
	if samples == core1_0.Samples1 {
		return []core1_0.ImageView{swapchainView, depthView}
	}
	return []core1_0.ImageView{colorView, depthView, swapchainView}
}

func (m *Manager) createFramebuffers() error {
	var colorView core1_0.ImageView
	if m.colorTarget != nil {
		colorView = m.colorTarget.View
	}

	for _, view := range m.views {
		framebuffer, _, err := m.device.Device.CreateFramebuffer(nil, core1_0.FramebufferCreateInfo{
			RenderPass:  m.renderPass,
			Layers:      1,
			Attachments: Attachments(view, colorView, m.depthTarget.View, m.samples),
			Width:       m.extent.Width,
			Height:      m.extent.Height,
		})
		if err != nil {
			return errors.Wrap(err, "create framebuffer")
		}

		m.framebuffers = append(m.framebuffers, framebuffer)
	}

	return nil
}

// cleanup destroys targets, framebuffers, views and the swapchain, in that
// order. The render pass survives.
func (m *Manager) cleanup() {
	m.gpu.destroyTargets()
	m.gpu.destroyFramebuffers()
	m.gpu.destroyViews()
	m.gpu.destroySwapchain()
}

func (m *Manager) destroyTargets() {
	m.colorTarget.Destroy()
	m.colorTarget = nil
	m.depthTarget.Destroy()
	m.depthTarget = nil
}

func (m *Manager) destroyFramebuffers() {
	for _, framebuffer := range m.framebuffers {
		framebuffer.Destroy(nil)
	}
	m.framebuffers = nil
}

func (m *Manager) destroyViews() {
	for _, view := range m.views {
		view.Destroy(nil)
	}
	m.views = nil
	m.images = nil
}

func (m *Manager) destroySwapchain() {
	if m.handle != nil {
		m.handle.Destroy(nil)
		m.handle = nil
	}
}

func (m *Manager) Destroy() {
	m.cleanup()

	if m.renderPass != nil {
		m.renderPass.Destroy(nil)
		m.renderPass = nil
	}
}
