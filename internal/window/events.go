package window

import "github.com/veandco/go-sdl2/sdl"

type Key int

const (
	KeyUnknown Key = iota
	KeyW
	KeyA
	KeyS
	KeyD
	KeyQ
	KeySpace
	KeyShift
	KeyEscape
)

var keycodes = map[sdl.Keycode]Key{
	sdl.K_w:      KeyW,
	sdl.K_a:      KeyA,
	sdl.K_s:      KeyS,
	sdl.K_d:      KeyD,
	sdl.K_q:      KeyQ,
	sdl.K_SPACE:  KeySpace,
	sdl.K_LSHIFT: KeyShift,
	sdl.K_RSHIFT: KeyShift,
	sdl.K_ESCAPE: KeyEscape,
}

// Mod is a set of held modifier keys.
type Mod int

const (
	ModCtrl Mod = 1 << iota
	ModShift
)

func (m Mod) Has(mod Mod) bool {
	return m&mod == mod
}

// WindowEventSink receives window events on the thread that polls them.
// Mouse motion is only reported while the cursor is captured.
type WindowEventSink interface {
	OnClose()
	OnResize(width, height int)
	OnMouseMove(dx, dy float32)
	OnKey(key Key, mods Mod, pressed bool)
}

type nopSink struct{}

func (nopSink) OnClose()                     {}
func (nopSink) OnResize(int, int)            {}
func (nopSink) OnMouseMove(float32, float32) {}
func (nopSink) OnKey(Key, Mod, bool)         {}

// dispatcher translates SDL events. Escape toggles mouse capture before
// the key is passed on.
type dispatcher struct {
	sink       WindowEventSink
	setCapture func(captured bool)
	close      func()

	captured bool
}

func (d *dispatcher) dispatch(event sdl.Event) {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		d.close()
		d.sink.OnClose()

	case *sdl.WindowEvent:
		switch e.Event {
		case sdl.WINDOWEVENT_CLOSE:
			d.close()
			d.sink.OnClose()
		case sdl.WINDOWEVENT_RESIZED, sdl.WINDOWEVENT_SIZE_CHANGED:
			d.sink.OnResize(int(e.Data1), int(e.Data2))
		case sdl.WINDOWEVENT_MINIMIZED:
			d.sink.OnResize(0, 0)
		}

	case *sdl.MouseMotionEvent:
		if d.captured {
			d.sink.OnMouseMove(float32(e.XRel), float32(e.YRel))
		}

	case *sdl.KeyboardEvent:
		if e.Repeat != 0 {
			return
		}
		key := keycodes[e.Keysym.Sym]
		pressed := e.State == sdl.PRESSED

		if key == KeyEscape && pressed {
			d.captured = !d.captured
			d.setCapture(d.captured)
		}
		d.sink.OnKey(key, modifiers(e.Keysym.Mod), pressed)
	}
}

func modifiers(mod uint16) Mod {
	var mods Mod
	if mod&uint16(sdl.KMOD_CTRL) != 0 {
		mods |= ModCtrl
	}
	if mod&uint16(sdl.KMOD_SHIFT) != 0 {
		mods |= ModShift
	}
	return mods
}
