// Package window owns the SDL2 window and turns its events into
// WindowEventSink calls.
package window

import (
	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/core"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"
	vkng_sdl2 "github.com/vkngwrapper/integrations/sdl2"
	"golang.org/x/exp/slog"
)

type Window struct {
	handle *sdl.Window
	log    *slog.Logger

	events      dispatcher
	shouldClose bool
}

// New initializes SDL video and opens a resizable Vulkan window.
func New(title string, width, height int, log *slog.Logger) (*Window, error) {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, errors.Wrap(err, "init sdl")
	}

	handle, err := sdl.CreateWindow(title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED, int32(width), int32(height), sdl.WINDOW_SHOWN|sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		sdl.Quit()
		return nil, errors.Wrap(err, "create window")
	}

	w := &Window{handle: handle, log: log}
	w.events = dispatcher{
		sink: nopSink{},
		setCapture: func(captured bool) {
			sdl.SetRelativeMouseMode(captured)
		},
		close: w.Close,
	}

	log.Info("window created", slog.String("title", title), slog.Int("width", width), slog.Int("height", height))
	return w, nil
}

// SetSink routes every later event to sink.
func (w *Window) SetSink(sink WindowEventSink) {
	if sink == nil {
		sink = nopSink{}
	}
	w.events.sink = sink
}

// Loader resolves Vulkan entry points through SDL.
func (w *Window) Loader() (core.Loader, error) {
	loader, err := core.CreateLoaderFromProcAddr(sdl.VulkanGetVkGetInstanceProcAddr())
	if err != nil {
		return nil, errors.Wrap(err, "create vulkan loader")
	}
	return loader, nil
}

// PollEvents dispatches every pending event without blocking.
func (w *Window) PollEvents() {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		w.events.dispatch(event)
	}
}

// WaitEvents blocks for one event, then dispatches whatever else is queued.
func (w *Window) WaitEvents() {
	if event := sdl.WaitEvent(); event != nil {
		w.events.dispatch(event)
	}
	w.PollEvents()
}

func (w *Window) ShouldClose() bool {
	return w.shouldClose
}

// Close flags the window for closing. A WaitEvents loop parked on a
// minimized window sees the flag once the event it is handling returns.
func (w *Window) Close() {
	w.shouldClose = true
}

// DrawableSize is the framebuffer size in pixels. A minimized window
// reports zero.
func (w *Window) DrawableSize() (int, int) {
	if w.handle.GetFlags()&sdl.WINDOW_MINIMIZED != 0 {
		return 0, 0
	}
	width, height := w.handle.VulkanGetDrawableSize()
	return int(width), int(height)
}

func (w *Window) RequiredExtensions() []string {
	return w.handle.VulkanGetInstanceExtensions()
}

func (w *Window) CreateSurface(instance core1_0.Instance) (khr_surface.Surface, error) {
	surface, _, err := vkng_sdl2.CreateExtensionFromInstance(instance).CreateSurface(instance, w.handle)
	return surface, err
}

func (w *Window) Destroy() {
	if w.handle != nil {
		if err := w.handle.Destroy(); err != nil {
			w.log.Warn("destroy window", slog.Any("error", err))
		}
		w.handle = nil
	}
	sdl.Quit()
}
