package overlay

import (
	"time"

	"github.com/loov/hrtime"
)

// FPSInterval is how often the frame rate is recomputed.
const FPSInterval = time.Second

// FPSCounter measures frame time and counts frames over FPSInterval.
type FPSCounter struct {
	now func() time.Duration

	started     bool
	last        time.Duration
	windowStart time.Duration
	frames      int
	fps         int
}

func NewFPSCounter() *FPSCounter {
	return &FPSCounter{now: hrtime.Now}
}

// Tick is called once per frame. It returns the time since the previous
// tick and the latest frame rate; updated reports whether the rate was
// recomputed on this tick. The first tick returns a zero delta.
func (c *FPSCounter) Tick() (delta time.Duration, fps int, updated bool) {
	now := c.now()
	if !c.started {
		c.started = true
		c.last = now
		c.windowStart = now
		return 0, 0, false
	}

	delta = now - c.last
	c.last = now
	c.frames++

	if elapsed := now - c.windowStart; elapsed >= FPSInterval {
		c.fps = int(float64(c.frames) / elapsed.Seconds())
		c.frames = 0
		c.windowStart = now
		updated = true
	}
	return delta, c.fps, updated
}

func (c *FPSCounter) FPS() int {
	return c.fps
}
