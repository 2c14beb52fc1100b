// Package engine owns every renderer subsystem and runs the frame loop.
package engine

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/pbr-renderer/internal/config"
	"github.com/vkngwrapper/pbr-renderer/internal/device"
	"github.com/vkngwrapper/pbr-renderer/internal/frame"
	"github.com/vkngwrapper/pbr-renderer/internal/memory"
	"github.com/vkngwrapper/pbr-renderer/internal/overlay"
	"github.com/vkngwrapper/pbr-renderer/internal/pipeline"
	"github.com/vkngwrapper/pbr-renderer/internal/scene"
	"github.com/vkngwrapper/pbr-renderer/internal/swapchain"
	"github.com/vkngwrapper/pbr-renderer/internal/transfer"
	"github.com/vkngwrapper/pbr-renderer/internal/vkctx"
	"github.com/vkngwrapper/pbr-renderer/internal/window"
	"golang.org/x/exp/slog"
)

// Compiled shader file names, looked up in the configured shader directory.
const (
	PBRVertexShader      = "normalMapInvTBN.vert.spv"
	PBRFragmentShader    = "normalMapInvTBN.frag.spv"
	PhongVertexShader    = "phongLighting.vert.spv"
	PhongFragmentShader  = "phongLighting.frag.spv"
	SkyboxVertexShader   = "skybox.vert.spv"
	SkyboxFragmentShader = "skybox.frag.spv"
)

// Window is everything the engine asks of the native window.
type Window interface {
	vkctx.Window
	swapchain.Window
	SetSink(sink window.WindowEventSink)
	Loader() (core.Loader, error)
	PollEvents()
	Close()
	Destroy()
}

var _ Window = (*window.Window)(nil)

type Engine struct {
	cfg config.Config
	log *slog.Logger

	// released in reverse order by Close
	resources memory.Stack

	window    Window
	vk        *vkctx.Context
	device    *device.LogicalDevice
	alloc     *memory.Allocator
	xfer      *transfer.Engine
	swapchain *swapchain.Manager

	descriptorPool core1_0.DescriptorPool
	sceneLayout    core1_0.DescriptorSetLayout
	skyboxLayout   core1_0.DescriptorSetLayout

	model    *scene.Mesh
	skybox   *scene.Mesh
	textures *scene.TextureSet
	cubemap  *scene.Cubemap
	uniforms *scene.Uniforms

	pbrPipeline    *pipeline.Pipeline
	skyboxPipeline *pipeline.Pipeline

	commandPool core1_0.CommandPool
	slots       [frame.FramesInFlight]*frame.Slot
	scheduler   *frame.Scheduler

	overlay overlay.Overlay
	stats   *overlay.Stats
	fps     *overlay.FPSCounter
	camera  *scene.Camera

	running bool
	resized bool
}

// New brings up the renderer: window, Vulkan context, device, transfer
// engine, swapchain, descriptor pool, scene, pipelines, frame slots and
// overlay, in that order. If any step fails, everything built before it
// is released.
func New(ctx context.Context, cfg config.Config, log *slog.Logger) (e *Engine, err error) {
	e = &Engine{
		cfg:    cfg,
		log:    log,
		fps:    overlay.NewFPSCounter(),
		camera: scene.NewCamera(cfg.FieldOfView, cfg.MouseSensitivity, cfg.MoveSpeed),
	}
	e.camera.SetAspectRatio(cfg.Width, cfg.Height)

	defer func() {
		if err != nil {
			e.Close()
			e = nil
		}
	}()

	steps := []struct {
		name string
		run  func(ctx context.Context) error
	}{
		{"window", e.createWindow},
		{"vulkan context", e.createContext},
		{"device", e.createDevice},
		{"swapchain", e.createSwapchain},
		{"descriptor pool", e.createDescriptorPool},
		{"scene", e.loadScene},
		{"pipelines", e.createPipelines},
		{"frame slots", e.createSlots},
		{"overlay", e.createOverlay},
	}
	for _, step := range steps {
		if err := step.run(ctx); err != nil {
			return e, errors.Wrapf(err, "engine: %s", step.name)
		}
	}

	e.window.SetSink(e)
	return e, nil
}

func (e *Engine) createWindow(context.Context) error {
	w, err := window.New(e.cfg.Title, e.cfg.Width, e.cfg.Height, e.log)
	if err != nil {
		return err
	}
	e.window = w
	e.resources.Push(w)
	return nil
}

func (e *Engine) createContext(context.Context) error {
	loader, err := e.window.Loader()
	if err != nil {
		return err
	}

	e.vk, err = vkctx.New(loader, e.window, vkctx.Options{
		ApplicationName: e.cfg.Title,
		Validation:      e.cfg.Validation,
	}, e.log)
	if err != nil {
		return err
	}
	e.resources.Push(e.vk)
	return nil
}

func (e *Engine) createDevice(context.Context) error {
	var err error
	e.device, err = device.New(e.vk.Instance, e.vk.Surface, e.log)
	if err != nil {
		return err
	}
	e.resources.Push(e.device)

	e.alloc = memory.NewAllocator(e.device.Device, e.device.MemoryProperties)

	e.xfer, err = transfer.New(e.device.Device, e.device.PhysicalDevice, e.device.GraphicsQueue, *e.device.QueueFamilies.GraphicsFamily)
	if err != nil {
		return err
	}
	e.resources.Push(e.xfer)
	return nil
}

func (e *Engine) createSwapchain(context.Context) error {
	var err error
	e.swapchain, err = swapchain.New(e.device, e.vk.Surface, e.alloc, e.window, e.log)
	if err != nil {
		return err
	}
	e.resources.Push(e.swapchain)
	return nil
}

func (e *Engine) createDescriptorPool(context.Context) error {
	var err error
	e.descriptorPool, err = pipeline.NewDescriptorPool(e.device.Device)
	if err != nil {
		return err
	}
	e.resources.PushFunc(func() { e.descriptorPool.Destroy(nil) })
	return nil
}

func (e *Engine) loadScene(ctx context.Context) error {
	model, err := scene.LoadModel(e.cfg.ModelPath, e.cfg.FlipUVs, scene.TextureSlots(e.cfg.PBRTextures), e.cfg.Fallbacks, e.log)
	if err != nil {
		return err
	}

	e.model, err = scene.NewMesh(e.xfer, e.alloc, model.Vertices, model.Indices)
	if err != nil {
		return err
	}
	e.resources.Push(e.model)

	e.skybox, err = scene.NewMesh(e.xfer, e.alloc, scene.SkyboxVertices(), nil)
	if err != nil {
		return err
	}
	e.resources.Push(e.skybox)

	e.textures, err = scene.NewTextureSet(ctx, e.xfer, e.alloc, model.TexturePaths, e.cfg.Fallbacks, e.device.MaxAnisotropy, e.log)
	if err != nil {
		return err
	}
	e.resources.Push(e.textures)

	e.cubemap, err = scene.NewCubemap(ctx, e.xfer, e.alloc, e.cfg.SkyboxFaces, e.device.MaxAnisotropy, e.log)
	if err != nil {
		return err
	}
	e.resources.Push(e.cubemap)

	e.sceneLayout, err = pipeline.CreateSetLayout(e.device.Device, pipeline.SceneBindings(len(e.textures.Images)))
	if err != nil {
		return err
	}
	e.resources.PushFunc(func() { e.sceneLayout.Destroy(nil) })

	e.skyboxLayout, err = pipeline.CreateSetLayout(e.device.Device, pipeline.SkyboxBindings())
	if err != nil {
		return err
	}
	e.resources.PushFunc(func() { e.skyboxLayout.Destroy(nil) })

	e.uniforms, err = scene.NewUniforms(e.alloc, e.descriptorPool, e.sceneLayout, e.skyboxLayout, frame.FramesInFlight, e.textures, e.cubemap)
	if err != nil {
		return err
	}
	e.resources.Push(e.uniforms)
	return nil
}

func (e *Engine) createPipelines(context.Context) error {
	samples := e.swapchain.Samples()
	sampleShading := e.device.SampleShading()

	vertexShader, fragmentShader := PBRVertexShader, PBRFragmentShader
	if !e.cfg.PBRTextures {
		vertexShader, fragmentShader = PhongVertexShader, PhongFragmentShader
	}

	pbr := pipeline.PBRSpec(e.cfg.ShaderPath(vertexShader), e.cfg.ShaderPath(fragmentShader), samples, sampleShading)
	pbr.VertexBindings = scene.VertexBindings()
	pbr.VertexAttributes = scene.VertexAttributes()
	pbr.MinSampleShading = e.cfg.MinSampleShading

	// the skybox reads positions only
	sky := pipeline.SkyboxSpec(e.cfg.ShaderPath(SkyboxVertexShader), e.cfg.ShaderPath(SkyboxFragmentShader), samples, sampleShading)
	sky.VertexBindings = scene.VertexBindings()
	sky.VertexAttributes = scene.VertexAttributes()[:1]
	sky.MinSampleShading = e.cfg.MinSampleShading

	var err error
	e.pbrPipeline, err = pipeline.Build(e.device.Device, e.swapchain.RenderPass(), e.sceneLayout, pbr)
	if err != nil {
		return err
	}
	e.resources.Push(e.pbrPipeline)

	e.skyboxPipeline, err = pipeline.Build(e.device.Device, e.swapchain.RenderPass(), e.skyboxLayout, sky)
	if err != nil {
		return err
	}
	e.resources.Push(e.skyboxPipeline)
	return nil
}

func (e *Engine) createSlots(context.Context) error {
	var err error
	e.commandPool, err = frame.NewCommandPool(e.device.Device, *e.device.QueueFamilies.GraphicsFamily)
	if err != nil {
		return err
	}
	e.resources.PushFunc(func() { e.commandPool.Destroy(nil) })

	e.slots, err = frame.NewSlots(e.device.Device, e.commandPool)
	if err != nil {
		return err
	}
	e.resources.PushFunc(func() { frame.DestroySlots(e.device.Device, e.commandPool, e.slots) })

	driver := frame.NewVulkanDriver(e.device.Device, e.device.GraphicsQueue, e.device.PresentQueue, e.swapchain)
	sc := resizeSwapchain{Swapchain: e.swapchain, resized: &e.resized}
	e.scheduler = frame.NewScheduler(driver, sc, e, e.slots, e.log)
	return nil
}

// resizeSwapchain drops resizes reported while a rebuild was waiting on
// window events. The rebuild read the drawable size after those events, so
// rebuilding again on the next frame would produce the same extent.
type resizeSwapchain struct {
	frame.Swapchain
	resized *bool
}

func (s resizeSwapchain) Recreate() error {
	err := s.Swapchain.Recreate()
	if err != nil {
		return err
	}
	if s.Swapchain.State() == swapchain.Active {
		*s.resized = false
	}
	return nil
}

func (e *Engine) createOverlay(context.Context) error {
	e.stats = overlay.NewStats(e.log)
	e.overlay = e.stats

	err := e.overlay.Init(overlay.InitInfo{
		DescriptorPool: e.descriptorPool,
		RenderPass:     e.swapchain.RenderPass(),
		ImageCount:     len(e.swapchain.Images()),
	})
	if err != nil {
		return err
	}
	e.resources.PushFunc(e.overlay.Cleanup)
	return nil
}

// Run draws frames until the window is closed or the engine is stopped.
func (e *Engine) Run() error {
	e.running = true
	e.log.Info("entering frame loop")

	for e.running {
		delta, fps, updated := e.fps.Tick()
		if updated {
			e.stats.Report(fps, delta)
		}

		e.window.PollEvents()
		if !e.running || e.window.ShouldClose() {
			break
		}

		resized := e.resized
		e.resized = false
		if err := e.scheduler.DrawFrame(resized); err != nil {
			return err
		}

		e.camera.Update(delta)
	}

	e.log.Info("frame loop stopped", slog.Uint64("frames", e.scheduler.Frames()))
	return e.device.WaitIdle()
}

// Close waits for the device to go idle and releases everything New built,
// newest first.
func (e *Engine) Close() {
	if e.device != nil {
		if err := e.device.WaitIdle(); err != nil {
			e.log.Error("wait for device idle", slog.Any("error", err))
		}
	}
	e.resources.Release()
}
