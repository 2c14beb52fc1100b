package engine

import (
	"github.com/vkngwrapper/pbr-renderer/internal/scene"
	"github.com/vkngwrapper/pbr-renderer/internal/window"
)

var _ window.WindowEventSink = (*Engine)(nil)

var keyMovements = map[window.Key]scene.Movement{
	window.KeyW:     scene.MoveForward,
	window.KeyS:     scene.MoveBackward,
	window.KeyA:     scene.MoveLeft,
	window.KeyD:     scene.MoveRight,
	window.KeySpace: scene.MoveUp,
	window.KeyShift: scene.MoveDown,
}

// Stop ends the frame loop after the current frame. The window is flagged
// too, so a swapchain rebuild waiting out a minimized window gives up.
func (e *Engine) Stop() {
	e.running = false
	if e.window != nil {
		e.window.Close()
	}
}

func (e *Engine) OnClose() {
	e.Stop()
}

// OnResize schedules a swapchain recreation at the top of the next frame.
func (e *Engine) OnResize(width, height int) {
	e.resized = true
	e.camera.SetAspectRatio(width, height)
}

func (e *Engine) OnMouseMove(dx, dy float32) {
	e.camera.OnMouseMove(dx, dy)
}

func (e *Engine) OnKey(key window.Key, mods window.Mod, pressed bool) {
	if key == window.KeyQ && mods.Has(window.ModCtrl) && pressed {
		e.log.Info("quit requested")
		e.Stop()
		return
	}

	if movement, ok := keyMovements[key]; ok {
		e.camera.SetMoving(movement, pressed)
	}
}
